// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report computes descriptive statistics over a ResultSet.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/channel-evidence/pkg/types"
)

// GeneCount pairs a gene with its number of filtered statements.
type GeneCount struct {
	Gene  string `json:"gene" yaml:"gene"`
	Count int    `json:"count" yaml:"count"`
}

// Summary holds the statement-count distribution over genes.
type Summary struct {
	// Ranked lists every gene by count, descending. Ties keep processing order.
	Ranked []GeneCount `json:"ranked" yaml:"ranked"`

	// Missing lists genes with no statements, in ranked order.
	Missing []string `json:"missing" yaml:"missing"`

	// Top is the gene with the most statements.
	Top GeneCount `json:"top" yaml:"top"`

	// Mean is the average count over all genes, zero-count genes included.
	Mean float64 `json:"mean" yaml:"mean"`
}

// Empty reports whether the summary covers no genes.
func (s Summary) Empty() bool { return len(s.Ranked) == 0 }

// Compute summarizes rs. An empty result set yields a zero Summary.
func Compute(rs types.ResultSet) Summary {
	if rs.Len() == 0 {
		return Summary{}
	}

	ranked := make([]GeneCount, len(rs.Genes))
	total := 0
	for i, g := range rs.Genes {
		ranked[i] = GeneCount{Gene: g.Gene, Count: len(g.Statements)}
		total += len(g.Statements)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	var missing []string
	for _, gc := range ranked {
		if gc.Count == 0 {
			missing = append(missing, gc.Gene)
		}
	}

	return Summary{
		Ranked:  ranked,
		Missing: missing,
		Top:     ranked[0],
		Mean:    float64(total) / float64(len(ranked)),
	}
}

// Print writes the human-readable summary lines. It never fails the
// pipeline; write errors are ignored.
func Print(w io.Writer, s Summary) {
	if s.Empty() {
		fmt.Fprintln(w, "No channels to summarize")
		return
	}
	fmt.Fprintf(w, "No statements for channels: %s\n", strings.Join(s.Missing, ", "))
	fmt.Fprintf(w, "%d statements for the top channel %s\n", s.Top.Count, s.Top.Gene)
	fmt.Fprintf(w, "%s statements on average per channel\n", strconv.FormatFloat(s.Mean, 'f', -1, 64))
}

// PrintRanked writes one line per gene in ranked order.
func PrintRanked(w io.Writer, s Summary) {
	for i, gc := range s.Ranked {
		fmt.Fprintf(w, "%4d  %-12s  %d\n", i+1, gc.Gene, gc.Count)
	}
}
