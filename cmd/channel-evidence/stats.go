// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/channel-evidence/internal/artifact"
	"github.com/pdiddy/channel-evidence/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats [artifact]",
	Short: "Print summary statistics for an existing artifact",
	Long: `Stats reads an artifact written by collect and prints the genes without
statements, the gene with the most statements, and the mean statement count.
The artifact defaults to the configured output path.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	statsCmd.Flags().Bool("ranked", false, "also list every gene by statement count")
	statsCmd.Flags().Bool("json", false, "output the summary as JSON")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	f, err := artifact.Read(artifactPath(args))
	if err != nil {
		return err
	}
	summary := report.Compute(f.Results)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("Run %s (%s), family %q, excluded source %q\n",
		f.Meta.RunID, f.Meta.CreatedAt.Format("2006-01-02 15:04"), f.Meta.Family, f.Meta.ExcludedSource)
	if ranked, _ := cmd.Flags().GetBool("ranked"); ranked {
		report.PrintRanked(os.Stdout, summary)
	}
	report.Print(os.Stdout, summary)
	return nil
}

// artifactPath returns the first argument, or the configured output path.
func artifactPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return viper.GetString("output")
}
