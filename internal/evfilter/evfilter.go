// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evfilter removes evidence from a low-precision source and drops
// statements left without support from any other source.
//
// The keep/drop decision is taken from the database's source-count table,
// which tallies the full evidence set, while the evidence list on each kept
// statement is filtered locally. The two can disagree: a statement fetched
// with a truncated evidence list may be kept with no evidence items left, and
// a stale table can drop a statement whose local evidence would support it.
// Both sources are kept as-is; see docs/ARCHITECTURE § Evidence Filter.
package evfilter

import (
	"errors"
	"fmt"

	"github.com/pdiddy/channel-evidence/pkg/types"
)

// DefaultExcludedSource is the reader whose evidence is removed by default.
const DefaultExcludedSource = "medscan"

// ErrMissingSourceCounts is returned when a statement's hash has no entry
// in the source-count table.
var ErrMissingSourceCounts = errors.New("statement hash missing from source counts")

// NonExcludedCount returns the evidence count for hash summed over every
// source except excluded.
func NonExcludedCount(counts types.SourceCounts, hash, excluded string) (int, error) {
	bySource, ok := counts[hash]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingSourceCounts, hash)
	}
	n := 0
	for src, c := range bySource {
		if src == excluded {
			continue
		}
		n += c
	}
	return n, nil
}

// Filter returns copies of stmts with every evidence item from excluded
// removed, keeping only statements whose non-excluded count in the table
// is positive. Order is preserved and the input statements are not
// modified. A statement whose hash is absent from counts fails the call.
func Filter(stmts []*types.Statement, counts types.SourceCounts, excluded string) ([]*types.Statement, error) {
	kept := make([]*types.Statement, 0, len(stmts))
	for _, stmt := range stmts {
		filtered := withoutSource(stmt, excluded)

		n, err := NonExcludedCount(counts, stmt.Hash, excluded)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			continue
		}
		kept = append(kept, filtered)
	}
	return kept, nil
}

func withoutSource(stmt *types.Statement, excluded string) *types.Statement {
	c := stmt.Clone()
	c.Evidence = c.Evidence[:0]
	for _, ev := range stmt.Evidence {
		if ev.SourceAPI == excluded {
			continue
		}
		c.Evidence = append(c.Evidence, ev)
	}
	return c
}
