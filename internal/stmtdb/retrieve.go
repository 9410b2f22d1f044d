// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stmtdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/channel-evidence/pkg/types"
)

// QueryOptions holds parameters for statement queries.
type QueryOptions struct {
	// Query is an FTS4 match expression over evidence sentences.
	Query string

	// Gene filters by the gene the statement was collected for.
	Gene string

	// Type filters by statement type (e.g. "Complex").
	Type string

	// Source keeps statements with a positive count for this source.
	Source string

	// Agent keeps statements with an agent of this name.
	Agent string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Gene == "" && q.Type == "" && q.Source == "" && q.Agent == ""
}

// QueryResult is a stored statement with the gene it was collected for
// and its source counts.
type QueryResult struct {
	Gene            string         `json:"gene" yaml:"gene"`
	types.Statement `yaml:",inline"`
	SourceCounts    map[string]int `json:"source_counts" yaml:"source_counts"`

	id int64
}

// Retrieve returns statements matching opts ordered by gene and original
// position.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT s.id, s.gene, s.hash, s.type, s.belief, s.agents
		FROM statements s
		WHERE 1=1`)

	if opts.Gene != "" {
		qb.WriteString(` AND s.gene = ?`)
		args = append(args, opts.Gene)
	}
	if opts.Type != "" {
		qb.WriteString(` AND s.type = ?`)
		args = append(args, opts.Type)
	}
	if opts.Source != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM source_counts c
			WHERE c.statement_id = s.id AND c.source = ? AND c.count > 0)`)
		args = append(args, opts.Source)
	}
	if opts.Agent != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(s.agents)
			WHERE json_extract(json_each.value, '$.name') = ?)`)
		args = append(args, opts.Agent)
	}
	if opts.Query != "" {
		qb.WriteString(` AND s.id IN (SELECT e.statement_id FROM evidence_fts
			JOIN evidence e ON e.rowid = evidence_fts.docid
			WHERE evidence_fts MATCH ?)`)
		args = append(args, opts.Query)
	}

	qb.WriteString(` ORDER BY s.gene, s.position LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying statements: %w", err)
	}

	var results []QueryResult
	for rows.Next() {
		var (
			qr         QueryResult
			belief     sql.NullFloat64
			agentsJSON sql.NullString
		)
		if err := rows.Scan(&qr.id, &qr.Gene, &qr.Hash, &qr.Type, &belief, &agentsJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Belief = belief.Float64
		if agentsJSON.Valid {
			json.Unmarshal([]byte(agentsJSON.String), &qr.Agents)
		}
		results = append(results, qr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range results {
		if err := s.loadDetails(ctx, &results[i]); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (s *Store) loadDetails(ctx context.Context, qr *QueryResult) error {
	evRows, err := s.db.QueryContext(ctx,
		`SELECT source_api, pmid, text, source_hash FROM evidence
		 WHERE statement_id = ? ORDER BY position`, qr.id)
	if err != nil {
		return fmt.Errorf("loading evidence: %w", err)
	}
	defer evRows.Close()
	for evRows.Next() {
		var ev types.Evidence
		var pmid, text, srcHash sql.NullString
		if err := evRows.Scan(&ev.SourceAPI, &pmid, &text, &srcHash); err != nil {
			return fmt.Errorf("scanning evidence: %w", err)
		}
		ev.PMID, ev.Text, ev.SourceHash = pmid.String, text.String, srcHash.String
		qr.Evidence = append(qr.Evidence, ev)
	}
	if err := evRows.Err(); err != nil {
		return err
	}

	cRows, err := s.db.QueryContext(ctx,
		`SELECT source, count FROM source_counts WHERE statement_id = ?`, qr.id)
	if err != nil {
		return fmt.Errorf("loading source counts: %w", err)
	}
	defer cRows.Close()
	qr.SourceCounts = make(map[string]int)
	for cRows.Next() {
		var src string
		var n int
		if err := cRows.Scan(&src, &n); err != nil {
			return fmt.Errorf("scanning source count: %w", err)
		}
		qr.SourceCounts[src] = n
	}
	return cRows.Err()
}

// GeneSummary is a stored gene with the run that last wrote it.
type GeneSummary struct {
	Gene           string `json:"gene" yaml:"gene"`
	RunID          string `json:"run_id" yaml:"run_id"`
	StatementCount int    `json:"statement_count" yaml:"statement_count"`
	Dropped        int    `json:"dropped" yaml:"dropped"`
}

// Genes lists every stored gene in alphabetical order.
func (s *Store) Genes(ctx context.Context) ([]GeneSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gene, run_id, statement_count, dropped FROM genes ORDER BY gene`)
	if err != nil {
		return nil, fmt.Errorf("listing genes: %w", err)
	}
	defer rows.Close()

	var out []GeneSummary
	for rows.Next() {
		var g GeneSummary
		if err := rows.Scan(&g.Gene, &g.RunID, &g.StatementCount, &g.Dropped); err != nil {
			return nil, fmt.Errorf("scanning gene: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
