// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/channel-evidence/internal/artifact"
	"github.com/pdiddy/channel-evidence/internal/collect"
	"github.com/pdiddy/channel-evidence/internal/evfilter"
	"github.com/pdiddy/channel-evidence/internal/indradb"
	"github.com/pdiddy/channel-evidence/internal/report"
	"github.com/pdiddy/channel-evidence/internal/targets"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch and filter statements for the selected genes",
	Long: `Collect reads the IDG target table, keeps the genes of one family that
are flagged as dark targets, and fetches the statements mentioning each gene
from INDRA DB. Evidence from the excluded source is removed and statements
left without other evidence are dropped.

The filtered statements are written to a single artifact at the end of the
run, followed by summary statistics. The first failed gene aborts the run
and no artifact is written.`,
	RunE: runCollect,
}

func init() {
	f := collectCmd.Flags()
	f.String("targets", defaultTargetsFile, "IDG target table (CSV with idgFamily, idgTarget, gene columns)")
	f.String("family", defaultFamily, "family to select")
	f.Bool("target-only", true, "keep only genes flagged as dark targets")
	f.Int("ev-limit", 100, "maximum evidence per statement")
	f.Bool("best-first", false, "ask the database to order statements by evidence count")
	f.String("exclude-source", evfilter.DefaultExcludedSource, "evidence source to remove")
	f.String("output", defaultOutput, "artifact path")
	f.Int("concurrency", 1, "genes fetched in parallel")
	f.String("db-url", "", "INDRA DB base URL (default "+indradb.DefaultBaseURL+")")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")
	f.Float64("rate", defaultRate, "maximum requests per second (0 = unlimited)")

	for key, flag := range map[string]string{
		"selection.targets_file":    "targets",
		"selection.family":          "family",
		"selection.target_only":     "target-only",
		"fetch.ev_limit":            "ev-limit",
		"fetch.best_first":          "best-first",
		"collect.excluded_source":   "exclude-source",
		"output":                    "output",
		"collect.concurrency":       "concurrency",
		"fetch.base_url":            "db-url",
		"fetch.timeout":             "timeout",
		"fetch.requests_per_second": "rate",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()

	records, err := targets.LoadFile(cfg.Selection.TargetsFile, targets.ColumnsFrom(cfg.Selection))
	if err != nil {
		return err
	}
	sel := targets.Select(records, targets.Criteria{
		Family:     cfg.Selection.Family,
		TargetOnly: cfg.Selection.TargetOnly,
	})
	sel.Report(os.Stdout, cfg.Selection.TargetsFile)

	client := indradb.NewClient(&http.Client{Timeout: cfg.Fetch.Timeout}, cfg.Fetch)
	client.Doer().OnRetry = func(attempt, status int, wait time.Duration) {
		fmt.Fprintf(os.Stderr, "HTTP %d, retry %d in %s\n", status, attempt, wait)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := collect.Options{
		Fetch: indradb.FetchOptions{
			EvidenceLimit: cfg.Fetch.EvidenceLimit,
			BestFirst:     cfg.Fetch.BestFirst,
		},
		ExcludedSource: cfg.Collect.ExcludedSource,
		Concurrency:    cfg.Collect.Concurrency,
	}
	rs, err := collect.Collect(ctx, client, sel.Genes, opts, os.Stdout)
	if err != nil {
		return err
	}

	meta := artifact.NewMeta()
	meta.Family = cfg.Selection.Family
	meta.TargetOnly = cfg.Selection.TargetOnly
	meta.ExcludedSource = cfg.Collect.ExcludedSource
	meta.EvidenceLimit = cfg.Fetch.EvidenceLimit
	meta.BestFirst = cfg.Fetch.BestFirst

	if err := artifact.Write(cfg.Output, &artifact.File{Meta: meta, Results: rs}); err != nil {
		return err
	}
	fmt.Printf("Wrote %d statements for %d genes to %s\n", rs.StatementCount(), rs.Len(), cfg.Output)

	report.Print(os.Stdout, report.Compute(rs))
	return nil
}
