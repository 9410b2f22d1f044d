// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/channel-evidence/internal/artifact"
	"github.com/pdiddy/channel-evidence/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [artifact]",
	Short: "Convert an artifact to JSON, YAML, or TSV",
	Long: `Export reads an artifact written by collect and writes its statements
as JSON or YAML (one entry per gene) or as TSV (one row per statement).
Output goes to stdout unless --out is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "json", "output format: json, yaml, or tsv")
	exportCmd.Flags().String("out", "", "output file (default stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	formatName, _ := cmd.Flags().GetString("format")
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	f, err := artifact.Read(artifactPath(args))
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return export.Write(os.Stdout, format, f.Results)
	}
	if err := export.WriteFile(out, format, f.Results); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d genes to %s\n", f.Results.Len(), out)
	return nil
}
