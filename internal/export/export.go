// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders a ResultSet as JSON, YAML, or tab-separated rows
// for use outside the binary artifact.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/channel-evidence/pkg/types"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTSV  Format = "tsv"
)

// ParseFormat validates s. The empty string selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatYAML, FormatTSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use json, yaml, or tsv", s)
	}
}

// TSVHeader is the column row written by TSV.
var TSVHeader = []string{"gene", "type", "agents", "hash", "belief", "evidence", "sources"}

// Write encodes rs to w in the given format.
func Write(w io.Writer, f Format, rs types.ResultSet) error {
	switch f {
	case FormatJSON:
		return JSON(w, rs)
	case FormatYAML:
		return YAML(w, rs)
	case FormatTSV:
		return TSV(w, rs)
	default:
		return fmt.Errorf("unsupported format %q", f)
	}
}

// WriteFile encodes rs to path, creating parent directories as needed.
func WriteFile(path string, f Format, rs types.ResultSet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(out, f, rs); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// JSON writes one object per gene, in processing order.
func JSON(w io.Writer, rs types.ResultSet) error {
	genes := rs.Genes
	if genes == nil {
		genes = []types.GeneStatements{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(genes); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// YAML writes the same structure as JSON.
func YAML(w io.Writer, rs types.ResultSet) error {
	genes := rs.Genes
	if genes == nil {
		genes = []types.GeneStatements{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(genes); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

// TSV writes a header and one row per statement. Agents are comma-joined,
// evidence is the retained evidence count, and sources lists the count
// table entry as source:count pairs sorted by source.
func TSV(w io.Writer, rs types.ResultSet) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(TSVHeader); err != nil {
		return fmt.Errorf("writing TSV header: %w", err)
	}
	for _, g := range rs.Genes {
		for _, s := range g.Statements {
			row := []string{
				g.Gene,
				s.Type,
				strings.Join(s.AgentNames(), ","),
				s.Hash,
				strconv.FormatFloat(s.Belief, 'f', -1, 64),
				strconv.Itoa(len(s.Evidence)),
				formatSources(g.SourceCounts[s.Hash]),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing TSV row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatSources(counts map[string]int) string {
	srcs := make([]string, 0, len(counts))
	for src := range counts {
		srcs = append(srcs, src)
	}
	sort.Strings(srcs)

	parts := make([]string, len(srcs))
	for i, src := range srcs {
		parts[i] = src + ":" + strconv.Itoa(counts[src])
	}
	return strings.Join(parts, ";")
}
