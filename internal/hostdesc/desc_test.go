package hostdesc

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultTableIsValid(t *testing.T) {
	table := Default()
	for _, name := range []string{"dungeon_config", "single_choice_task", "point", "direction"} {
		if _, ok := table.Type(name); !ok {
			t.Fatalf("default table lacks %q", name)
		}
	}
	task, _ := table.Type("single_choice_task")
	if !task.Task {
		t.Fatalf("single_choice_task must be flagged as task")
	}
	if got := task.Fields[0].HostField(); got != "taskText" {
		t.Fatalf("description host field = %q", got)
	}
}

func TestParseRef(t *testing.T) {
	cases := map[string]string{
		"int":                    "int",
		"string[]":               "string[]",
		"int<>":                  "int<>",
		"[string -> int]":        "[string -> int]",
		"[string -> int][]":      "[string -> int][]",
		"[element -> element<>]": "[element -> element<>]",
	}
	for in, want := range cases {
		ref, err := ParseRef(in)
		if err != nil {
			t.Fatalf("ParseRef(%q): %v", in, err)
		}
		if got := ref.String(); got != want {
			t.Fatalf("ParseRef(%q) = %q, want %q", in, got, want)
		}
	}
	list, _ := ParseRef("[string -> int][]")
	if list.Kind != RefList || list.Elem.Kind != RefMap {
		t.Fatalf("collection suffix must bind loosest")
	}
	for _, bad := range []string{"", "[a b]", "a-b", "[a -> b"} {
		if _, err := ParseRef(bad); err == nil {
			t.Fatalf("ParseRef(%q) should fail", bad)
		}
	}
}

func TestDecodeRejectsUnknownReferences(t *testing.T) {
	src := `
[[type]]
name = "box"
kind = "aggregate"
  [[type.field]]
  name = "content"
  type = "gift"
`
	_, err := Decode(strings.NewReader(src))
	if err == nil || !strings.Contains(err.Error(), `unknown type "gift"`) {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	src := `
[[type]]
name = "box"
kind = "aggregate"
colour = "red"
`
	_, err := Decode(strings.NewReader(src))
	if !errors.Is(err, ErrUndecodedFields) {
		t.Fatalf("expected ErrUndecodedFields, got %v", err)
	}
}

func TestDecodeRejectsEmptyTable(t *testing.T) {
	if _, err := Decode(strings.NewReader("")); !errors.Is(err, ErrNoTypes) {
		t.Fatalf("expected ErrNoTypes, got %v", err)
	}
}
