package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"questdsl/internal/version"
)

type versionPayload struct {
	Tool             string `json:"tool"`
	Version          string `json:"version"`
	GitCommit        string `json:"git_commit,omitempty"`
	BuildDate        string `json:"build_date,omitempty"`
	UnitSchema       int    `json:"unit_schema"`
	DescriptorSchema int    `json:"descriptor_schema"`
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show questc build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return fmt.Errorf("failed to get format flag: %w", err)
		}
		switch format {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(versionPayload{
				Tool:             "questc",
				Version:          version.Version,
				GitCommit:        version.GitCommit,
				BuildDate:        version.BuildDate,
				UnitSchema:       version.UnitSchema,
				DescriptorSchema: version.DescriptorSchema,
			})
		case "pretty":
			colored, err := useColor(cmd, os.Stdout)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), version.Info(colored))
			return err
		}
		return fmt.Errorf("unknown format %q", format)
	},
}
