package ast

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"
)

func sampleUnit(nodes *Nodes) *Unit {
	b := NewBuilder(nodes, 1)
	fn := b.Func("f",
		b.Type("int"),
		[]NodeID{b.Param("x", b.Type("int"))},
		b.Block(b.Return(b.Ident("x"))),
	)
	g := b.Graph("g", b.Chain([]string{"t1", "t2"}, b.Attr("type", "seq")))
	return b.Unit("main.dng", fn, g)
}

func kindsOf(u *Unit) []Kind {
	var out []Kind
	u.Nodes.Walk(u.Root, func(_ NodeID, n *Node) bool {
		out = append(out, n.Kind)
		return true
	})
	return out
}

func TestFuncParts(t *testing.T) {
	u := sampleUnit(nil)
	fn := u.Node(u.TopLevel()[0])
	ret, body, params := FuncParts(fn)
	if u.Nodes.Kind(ret) != KindTypeRef || u.Nodes.Kind(body) != KindBlock {
		t.Fatalf("unexpected func layout: ret=%s body=%s", u.Nodes.Kind(ret), u.Nodes.Kind(body))
	}
	if len(params) != 1 || u.Node(params[0]).Name != "x" {
		t.Fatalf("unexpected params %v", params)
	}
}

func TestAdoptRebasesIDs(t *testing.T) {
	shared := NewNodes(0)
	first := sampleUnit(shared)
	second := shared.Adopt(sampleUnit(nil))

	if second.Nodes != shared {
		t.Fatalf("adopted unit must live in the shared arena")
	}
	if second.Root <= first.Root {
		t.Fatalf("adopted root %d must follow %d", second.Root, first.Root)
	}
	if diff := cmp.Diff(kindsOf(first), kindsOf(second)); diff != "" {
		t.Fatalf("adopted tree differs (-first +second):\n%s", diff)
	}
	if same := shared.Adopt(first); same != first {
		t.Fatalf("adopting a unit from the same arena must be a no-op")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	u := sampleUnit(nil)
	var buf bytes.Buffer
	if err := Encode(&buf, u); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Path != "main.dng" {
		t.Fatalf("path = %q", got.Path)
	}
	if diff := cmp.Diff(kindsOf(u), kindsOf(got)); diff != "" {
		t.Fatalf("decoded tree differs (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsDanglingChild(t *testing.T) {
	payload := unitPayload{
		Schema: unitSchemaVersion,
		Path:   "bad",
		Root:   1,
		Nodes:  []Node{{Kind: KindProgram, Kids: []NodeID{7}}},
	}
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(&payload); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf); err == nil {
		t.Fatalf("expected error for dangling child")
	}
}
