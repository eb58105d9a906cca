package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"questdsl/internal/hostdesc"
	"questdsl/internal/sema"
	"questdsl/internal/types"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Print the types and native functions the descriptor tables expose",
	Args:  cobra.NoArgs,
	RunE:  runTypes,
}

func init() {
	typesCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

// loadEnvironment merges the --descriptors tables over the default one.
// The returned bytes fingerprint the extra tables for the cache.
func loadEnvironment(cmd *cobra.Command) (*sema.Environment, []byte, error) {
	files, err := cmd.Root().PersistentFlags().GetStringSlice("descriptors")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get descriptors flag: %w", err)
	}
	host := hostdesc.Default()
	var fingerprint []byte
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read descriptors: %w", err)
		}
		extra, err := hostdesc.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		host.Merge(extra)
		fingerprint = append(fingerprint, data...)
	}
	if err := host.Validate(); err != nil {
		return nil, nil, fmt.Errorf("merged descriptor tables: %w", err)
	}
	return &sema.Environment{Host: host}, fingerprint, nil
}

type typeJSON struct {
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Task     bool         `json:"task,omitempty"`
	Members  []memberJSON `json:"members,omitempty"`
	Variants []string     `json:"variants,omitempty"`
}

type memberJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Host string `json:"host,omitempty"`
}

type functionJSON struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

type typesOutput struct {
	Types     []typeJSON     `json:"types"`
	Functions []functionJSON `json:"functions"`
}

func runTypes(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	env, _, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	a := sema.NewAnalyzer(sema.Options{Env: env})
	if err := a.Setup(); err != nil {
		return err
	}
	doc := describeTypes(a, env.Host)

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "pretty":
		enabled, err := useColor(cmd, os.Stdout)
		if err != nil {
			return err
		}
		return printTypes(cmd.OutOrStdout(), doc, enabled)
	}
	return fmt.Errorf("unknown format %q", format)
}

func describeTypes(a *sema.Analyzer, host *hostdesc.Table) typesOutput {
	in := a.Types()
	var out typesOutput
	for i := 1; i <= in.Len(); i++ {
		id := types.TypeID(i) // #nosec G115 -- bounded by Len
		tt := in.MustLookup(id)
		if !tt.Kind.Nominal() || in.Canonical(id) != id {
			continue
		}
		if info, ok := in.EnumInfo(id); ok {
			out.Types = append(out.Types, typeJSON{Name: info.Name, Kind: tt.Kind.String(), Variants: info.Variants})
			continue
		}
		info, ok := in.AggregateInfo(id)
		if !ok {
			continue
		}
		tj := typeJSON{Name: info.Name, Kind: tt.Kind.String()}
		if info.Origin != nil {
			tj.Task = info.Origin.Task
		}
		for _, m := range info.Members {
			mj := memberJSON{Name: m.Name, Type: types.Label(in, m.Type)}
			if m.Field != nil && m.Field.HostField() != m.Name {
				mj.Host = m.Field.HostField()
			}
			tj.Members = append(tj.Members, mj)
		}
		out.Types = append(out.Types, tj)
	}
	for _, fn := range host.Functions {
		if fn == nil {
			continue
		}
		name := fn.Name
		if fn.Receiver != "" {
			name = fn.Receiver + "." + fn.Name
		}
		sig := "(" + strings.Join(fn.Params, ", ") + ")"
		if fn.Returns != "" {
			sig += " -> " + fn.Returns
		}
		out.Functions = append(out.Functions, functionJSON{Name: name, Signature: sig})
	}
	return out
}

func printTypes(w io.Writer, doc typesOutput, enabled bool) error {
	head := color.New(color.Bold)
	kind := color.New(color.FgCyan)
	if enabled {
		head.EnableColor()
		kind.EnableColor()
	} else {
		head.DisableColor()
		kind.DisableColor()
	}
	var sb strings.Builder
	for _, t := range doc.Types {
		label := kind.Sprint(t.Kind)
		if t.Task {
			label += ", task"
		}
		fmt.Fprintf(&sb, "%s (%s)\n", head.Sprint(t.Name), label)
		for _, m := range t.Members {
			if m.Host != "" {
				fmt.Fprintf(&sb, "  %s: %s (host %s)\n", m.Name, m.Type, m.Host)
				continue
			}
			fmt.Fprintf(&sb, "  %s: %s\n", m.Name, m.Type)
		}
		for _, v := range t.Variants {
			fmt.Fprintf(&sb, "  %s.%s\n", t.Name, v)
		}
	}
	if len(doc.Functions) > 0 {
		fmt.Fprintf(&sb, "%s\n", head.Sprint("functions"))
		for _, fn := range doc.Functions {
			fmt.Fprintf(&sb, "  %s%s\n", fn.Name, fn.Signature)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
