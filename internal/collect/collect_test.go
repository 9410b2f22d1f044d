// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/channel-evidence/internal/evfilter"
	"github.com/pdiddy/channel-evidence/internal/indradb"
	"github.com/pdiddy/channel-evidence/internal/report"
	"github.com/pdiddy/channel-evidence/pkg/types"
)

// fakeFetcher serves canned batches keyed by gene.
type fakeFetcher struct {
	mu      sync.Mutex
	batches map[string]*indradb.Batch
	errs    map[string]error
	calls   []string
	opts    []indradb.FetchOptions
}

func (f *fakeFetcher) Fetch(_ context.Context, gene string, opts indradb.FetchOptions) (*indradb.Batch, error) {
	f.mu.Lock()
	f.calls = append(f.calls, gene)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()

	if err := f.errs[gene]; err != nil {
		return nil, err
	}
	if b, ok := f.batches[gene]; ok {
		return b, nil
	}
	return &indradb.Batch{SourceCounts: types.SourceCounts{}}, nil
}

func statement(hash string, sources ...string) *types.Statement {
	s := &types.Statement{Type: "Activation", Hash: hash}
	for _, src := range sources {
		s.Evidence = append(s.Evidence, types.Evidence{SourceAPI: src})
	}
	return s
}

func scenarioFetcher() *fakeFetcher {
	return &fakeFetcher{batches: map[string]*indradb.Batch{
		"X": {
			Statements:   []*types.Statement{statement("hashA", "medscan", "medscan")},
			SourceCounts: types.SourceCounts{"hashA": {"medscan": 5}},
		},
		"Y": {
			Statements:   []*types.Statement{statement("hashB", "medscan", "reach", "medscan", "reach")},
			SourceCounts: types.SourceCounts{"hashB": {"medscan": 3, "reach": 2}},
		},
	}}
}

func TestGeneDropsExcludedOnlyStatement(t *testing.T) {
	gs, err := Gene(context.Background(), scenarioFetcher(), "X", Options{})
	require.NoError(t, err)

	assert.Equal(t, "X", gs.Gene)
	assert.Empty(t, gs.Statements)
	assert.Equal(t, 1, gs.Dropped)
	assert.Empty(t, gs.SourceCounts)
}

func TestGeneKeepsMixedStatement(t *testing.T) {
	f := scenarioFetcher()
	gs, err := Gene(context.Background(), f, "Y", Options{ExcludedSource: "medscan"})
	require.NoError(t, err)

	require.Len(t, gs.Statements, 1)
	for _, ev := range gs.Statements[0].Evidence {
		assert.NotEqual(t, "medscan", ev.SourceAPI)
	}
	assert.Len(t, gs.Statements[0].Evidence, 2)
	assert.Equal(t, types.SourceCounts{"hashB": {"medscan": 3, "reach": 2}}, gs.SourceCounts)

	// The fetcher's batch is left as served.
	assert.Len(t, f.batches["Y"].Statements[0].Evidence, 4)
}

func TestGeneMissingSourceCounts(t *testing.T) {
	f := &fakeFetcher{batches: map[string]*indradb.Batch{
		"Z": {Statements: []*types.Statement{statement("h", "reach")}, SourceCounts: types.SourceCounts{}},
	}}
	_, err := Gene(context.Background(), f, "Z", Options{})
	require.ErrorIs(t, err, evfilter.ErrMissingSourceCounts)
	assert.Contains(t, err.Error(), "Z")
}

func TestCollectScenario(t *testing.T) {
	var out strings.Builder
	rs, err := Collect(context.Background(), scenarioFetcher(), []string{"X", "Y"}, Options{}, &out)
	require.NoError(t, err)

	require.Equal(t, 2, rs.Len())
	x, ok := rs.Get("X")
	require.True(t, ok)
	assert.Empty(t, x.Statements)
	y, ok := rs.Get("Y")
	require.True(t, ok)
	assert.Len(t, y.Statements, 1)

	s := report.Compute(rs)
	assert.Equal(t, []string{"X"}, s.Missing)
	assert.Equal(t, report.GeneCount{Gene: "Y", Count: 1}, s.Top)

	assert.Equal(t,
		"fetched X: 0 statements (1 dropped)\nfetched Y: 1 statements (0 dropped)\n",
		out.String())
}

func TestCollectPassesFetchOptions(t *testing.T) {
	f := scenarioFetcher()
	opts := Options{Fetch: indradb.FetchOptions{EvidenceLimit: 100, BestFirst: false}}
	_, err := Collect(context.Background(), f, []string{"X"}, opts, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []indradb.FetchOptions{{EvidenceLimit: 100}}, f.opts)
}

func TestCollectEmptyGeneList(t *testing.T) {
	rs, err := Collect(context.Background(), scenarioFetcher(), nil, Options{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
	assert.True(t, report.Compute(rs).Empty())
}

func TestCollectSequentialStopsOnFirstError(t *testing.T) {
	boom := errors.New("db unavailable")
	f := scenarioFetcher()
	f.errs = map[string]error{"B": boom}

	rs, err := Collect(context.Background(), f, []string{"A", "B", "C", "D"}, Options{Concurrency: 1}, io.Discard)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, rs.Len(), "no partial result")
	assert.Equal(t, []string{"A", "B"}, f.calls)
}

func TestCollectConcurrentPreservesOrder(t *testing.T) {
	var genes []string
	f := &fakeFetcher{batches: map[string]*indradb.Batch{}}
	for i := 0; i < 20; i++ {
		gene := fmt.Sprintf("G%02d", i)
		genes = append(genes, gene)
		var stmts []*types.Statement
		counts := types.SourceCounts{}
		for j := 0; j < i%4; j++ {
			h := fmt.Sprintf("%s-%d", gene, j)
			stmts = append(stmts, statement(h, "reach"))
			counts[h] = map[string]int{"reach": 1}
		}
		f.batches[gene] = &indradb.Batch{Statements: stmts, SourceCounts: counts}
	}

	rs, err := Collect(context.Background(), f, genes, Options{Concurrency: 5}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, len(genes), rs.Len())
	for i, g := range rs.Genes {
		assert.Equal(t, genes[i], g.Gene)
		assert.Len(t, g.Statements, i%4)
	}
	assert.Len(t, f.calls, len(genes))
}

// countingFetcher blocks until the context is cancelled for one gene.
type countingFetcher struct {
	started int32
}

func (c *countingFetcher) Fetch(ctx context.Context, gene string, _ indradb.FetchOptions) (*indradb.Batch, error) {
	atomic.AddInt32(&c.started, 1)
	if gene == "bad" {
		return nil, errors.New("bad gene")
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCollectConcurrentCancelsOnError(t *testing.T) {
	f := &countingFetcher{}
	_, err := Collect(context.Background(), f, []string{"a", "bad", "c"}, Options{Concurrency: 3}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad gene")
}
