// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// GeneRecord is one row of the IDG target table.
type GeneRecord struct {
	// Gene is the HGNC gene symbol (e.g. "KCNA1").
	Gene string `json:"gene" yaml:"gene"`

	// Family is the IDG family classification (e.g. "Ion Channel", "Kinase").
	Family string `json:"family" yaml:"family"`

	// Target reports whether the gene is flagged as a dark target.
	Target bool `json:"target" yaml:"target"`
}

// GeneStatements is the filtered statement collection for one gene. It is
// built once by the collector and not modified afterwards.
type GeneStatements struct {
	Gene       string       `json:"gene" yaml:"gene"`
	Statements []*Statement `json:"statements" yaml:"statements"`

	// SourceCounts holds the count table entries for the retained statements.
	SourceCounts SourceCounts `json:"source_counts" yaml:"source_counts"`

	// Dropped is the number of fetched statements removed by the filter.
	Dropped int `json:"dropped" yaml:"dropped"`
}

// ResultSet maps gene symbols to their filtered statements, preserving the
// order in which genes were processed.
type ResultSet struct {
	Genes []GeneStatements `json:"genes" yaml:"genes"`
}

// Get returns the statements collected for gene.
func (r ResultSet) Get(gene string) (GeneStatements, bool) {
	for _, g := range r.Genes {
		if g.Gene == gene {
			return g, true
		}
	}
	return GeneStatements{}, false
}

// Len returns the number of genes in the result set.
func (r ResultSet) Len() int { return len(r.Genes) }

// StatementCount returns the total number of statements across all genes.
func (r ResultSet) StatementCount() int {
	n := 0
	for _, g := range r.Genes {
		n += len(g.Statements)
	}
	return n
}
