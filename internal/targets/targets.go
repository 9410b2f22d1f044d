// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package targets loads the IDG target table and selects the genes to query.
package targets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/channel-evidence/pkg/types"
)

// Default column names in the IDG target table.
const (
	DefaultFamilyColumn = "idgFamily"
	DefaultTargetColumn = "idgTarget"
	DefaultGeneColumn   = "gene"

	DefaultFamily = "Ion Channel"
)

// Columns names the table columns holding the fields of a GeneRecord.
type Columns struct {
	Family string
	Target string
	Gene   string
}

// ColumnsFrom returns the column names from cfg, using IDG defaults for
// empty values.
func ColumnsFrom(cfg types.SelectionConfig) Columns {
	c := Columns{Family: cfg.FamilyColumn, Target: cfg.TargetColumn, Gene: cfg.GeneColumn}
	if c.Family == "" {
		c.Family = DefaultFamilyColumn
	}
	if c.Target == "" {
		c.Target = DefaultTargetColumn
	}
	if c.Gene == "" {
		c.Gene = DefaultGeneColumn
	}
	return c
}

// LoadFile reads the target table at path.
func LoadFile(path string, cols Columns) ([]types.GeneRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening target table: %w", err)
	}
	defer f.Close()

	records, err := Load(f, cols)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

// Load parses a CSV target table with a header row. Extra columns are
// ignored; a missing required column is an error.
func Load(r io.Reader, cols Columns) ([]types.GeneRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty target table")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	familyIdx, ok := idx[cols.Family]
	if !ok {
		return nil, fmt.Errorf("missing column %q", cols.Family)
	}
	targetIdx, ok := idx[cols.Target]
	if !ok {
		return nil, fmt.Errorf("missing column %q", cols.Target)
	}
	geneIdx, ok := idx[cols.Gene]
	if !ok {
		return nil, fmt.Errorf("missing column %q", cols.Gene)
	}

	var records []types.GeneRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}

		rec := types.GeneRecord{
			Family: field(row, familyIdx),
			Gene:   field(row, geneIdx),
			Target: parseBool(field(row, targetIdx)),
		}
		records = append(records, rec)
	}
	return records, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseBool accepts the spellings pandas and spreadsheets produce for a
// boolean column. Anything else, including an empty cell, is false.
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "t", "1", "yes", "y":
		return true
	}
	return false
}

// Criteria are the two equality filters applied to the table.
type Criteria struct {
	// Family must equal the record's family exactly. Empty matches all.
	Family string

	// TargetOnly keeps only records with the target flag set.
	TargetOnly bool
}

// Selection is the outcome of applying Criteria to a table.
type Selection struct {
	Total         int
	FamilyMatched int
	TargetMatched int

	// Genes are the selected gene symbols, sorted and de-duplicated.
	Genes []string
}

// Select applies the family filter, then the target filter.
func Select(records []types.GeneRecord, c Criteria) Selection {
	sel := Selection{Total: len(records)}

	var byFamily []types.GeneRecord
	for _, r := range records {
		if c.Family == "" || r.Family == c.Family {
			byFamily = append(byFamily, r)
		}
	}
	sel.FamilyMatched = len(byFamily)

	seen := make(map[string]bool)
	for _, r := range byFamily {
		if c.TargetOnly && !r.Target {
			continue
		}
		sel.TargetMatched++
		if r.Gene == "" || seen[r.Gene] {
			continue
		}
		seen[r.Gene] = true
		sel.Genes = append(sel.Genes, r.Gene)
	}
	sort.Strings(sel.Genes)
	return sel
}

// Report writes the row counts after each filter stage.
func (s Selection) Report(w io.Writer, source string) {
	fmt.Fprintf(w, "Read a total of %d rows from %s\n", s.Total, source)
	fmt.Fprintf(w, "Filtered to %d family members\n", s.FamilyMatched)
	fmt.Fprintf(w, "Filtered to %d dark targets\n", s.TargetMatched)
}
