// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect drives statement retrieval and filtering for a list of
// genes and combines the per-gene results into a ResultSet.
// See docs/ARCHITECTURE § Collection.
package collect

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/channel-evidence/internal/evfilter"
	"github.com/pdiddy/channel-evidence/internal/indradb"
	"github.com/pdiddy/channel-evidence/pkg/types"
)

// Options configures a collection run.
type Options struct {
	Fetch indradb.FetchOptions

	// ExcludedSource is removed from every statement (default "medscan").
	ExcludedSource string

	// Concurrency is the number of genes in flight. Values below 1 mean 1,
	// which processes genes strictly in order.
	Concurrency int
}

// Gene fetches and filters the statements for one gene. The returned
// value is not shared with the fetcher and is not modified afterwards.
func Gene(ctx context.Context, f indradb.Fetcher, gene string, opts Options) (types.GeneStatements, error) {
	excluded := opts.ExcludedSource
	if excluded == "" {
		excluded = evfilter.DefaultExcludedSource
	}

	batch, err := f.Fetch(ctx, gene, opts.Fetch)
	if err != nil {
		return types.GeneStatements{}, err
	}

	kept, err := evfilter.Filter(batch.Statements, batch.SourceCounts, excluded)
	if err != nil {
		return types.GeneStatements{}, fmt.Errorf("filtering statements for %s: %w", gene, err)
	}

	return types.GeneStatements{
		Gene:         gene,
		Statements:   kept,
		SourceCounts: batch.SourceCounts.Subset(kept),
		Dropped:      len(batch.Statements) - len(kept),
	}, nil
}

// Collect runs Gene for every gene and returns the results in input
// order. The first failure cancels outstanding work and is returned; no
// partial ResultSet is produced. A status line per gene is written to w.
func Collect(ctx context.Context, f indradb.Fetcher, genes []string, opts Options, w io.Writer) (types.ResultSet, error) {
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	results := make([]types.GeneStatements, len(genes))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, gene := range genes {
		i, gene := i, gene
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			gs, err := Gene(ctx, f, gene, opts)
			if err != nil {
				return err
			}
			results[i] = gs

			mu.Lock()
			fmt.Fprintf(w, "fetched %s: %d statements (%d dropped)\n", gene, len(gs.Statements), gs.Dropped)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.ResultSet{}, err
	}

	return types.ResultSet{Genes: results}, nil
}
