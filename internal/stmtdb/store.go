// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stmtdb persists collected statements in a local SQLite database
// for querying across runs.
// See docs/ARCHITECTURE § Statement Store.
package stmtdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/channel-evidence/internal/artifact"
	"github.com/pdiddy/channel-evidence/pkg/types"
)

const (
	dbFile            = "statements.db"
	defaultMaxResults = 50
)

// Store manages the statement SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// NewStore opens or creates dir/statements.db and its schema.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DBDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DBDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: cfg.DBDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created_at TEXT,
			family TEXT,
			target_only INTEGER,
			excluded_source TEXT,
			ev_limit INTEGER,
			best_first INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS genes (
			gene TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			statement_count INTEGER NOT NULL,
			dropped INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS statements (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gene TEXT NOT NULL REFERENCES genes(gene) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			hash TEXT NOT NULL,
			type TEXT NOT NULL,
			belief REAL,
			agents TEXT,
			UNIQUE(gene, hash)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_statements_hash ON statements(hash)`,
		`CREATE INDEX IF NOT EXISTS idx_statements_type ON statements(type)`,
		`CREATE TABLE IF NOT EXISTS evidence (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			statement_id INTEGER NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source_api TEXT NOT NULL,
			pmid TEXT,
			text TEXT,
			source_hash TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_statement ON evidence(statement_id)`,
		`CREATE TABLE IF NOT EXISTS source_counts (
			statement_id INTEGER NOT NULL REFERENCES statements(id) ON DELETE CASCADE,
			source TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (statement_id, source)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS4 index over evidence sentences, kept in sync by triggers.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='evidence_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE evidence_fts USING fts4(content="evidence", text)`,
			`CREATE TRIGGER evidence_ai AFTER INSERT ON evidence BEGIN
				INSERT INTO evidence_fts(docid, text) VALUES (new.rowid, new.text);
			END`,
			`CREATE TRIGGER evidence_bd BEFORE DELETE ON evidence BEGIN
				DELETE FROM evidence_fts WHERE docid = old.rowid;
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds per-gene counts from an ingestion run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of genes processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest loads every gene of f into the database. A gene already stored
// from the same run is skipped; one stored from another run is replaced.
// A failing gene is reported on w and counted, and ingestion continues.
func (s *Store) Ingest(ctx context.Context, f *artifact.File, w io.Writer) (IngestSummary, error) {
	if err := s.upsertRun(ctx, f.Meta); err != nil {
		return IngestSummary{}, err
	}

	var summary IngestSummary
	for _, gs := range f.Results.Genes {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		var storedRun string
		err := s.db.QueryRowContext(ctx,
			`SELECT run_id FROM genes WHERE gene = ?`, gs.Gene,
		).Scan(&storedRun)
		if err == nil && storedRun == f.Meta.RunID {
			fmt.Fprintf(w, "skipped %s\n", gs.Gene)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		if err := s.ingestGene(ctx, f.Meta.RunID, gs, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", gs.Gene, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d statements)\n", gs.Gene, len(gs.Statements))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d statements)\n", gs.Gene, len(gs.Statements))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) upsertRun(ctx context.Context, m artifact.Meta) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, family, target_only, excluded_source, ev_limit, best_first)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO NOTHING`,
		m.RunID, m.CreatedAt.UTC().Format(time.RFC3339Nano), m.Family, m.TargetOnly,
		m.ExcludedSource, m.EvidenceLimit, m.BestFirst,
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

func (s *Store) ingestGene(ctx context.Context, runID string, gs types.GeneStatements, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM evidence WHERE statement_id IN (SELECT id FROM statements WHERE gene = ?)`, gs.Gene,
		); err != nil {
			return fmt.Errorf("deleting old evidence: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM statements WHERE gene = ?`, gs.Gene); err != nil {
			return fmt.Errorf("deleting old statements: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO genes (gene, run_id, statement_count, dropped) VALUES (?, ?, ?, ?)
		 ON CONFLICT(gene) DO UPDATE SET
			run_id=excluded.run_id, statement_count=excluded.statement_count, dropped=excluded.dropped`,
		gs.Gene, runID, len(gs.Statements), gs.Dropped,
	)
	if err != nil {
		return fmt.Errorf("upserting gene: %w", err)
	}

	insStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO statements (gene, position, hash, type, belief, agents) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement insert: %w", err)
	}
	defer insStmt.Close()

	insEv, err := tx.PrepareContext(ctx,
		`INSERT INTO evidence (statement_id, position, source_api, pmid, text, source_hash) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing evidence insert: %w", err)
	}
	defer insEv.Close()

	insCount, err := tx.PrepareContext(ctx,
		`INSERT INTO source_counts (statement_id, source, count) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing source count insert: %w", err)
	}
	defer insCount.Close()

	for pos, stmt := range gs.Statements {
		agentsJSON, _ := json.Marshal(stmt.Agents)
		res, err := insStmt.ExecContext(ctx, gs.Gene, pos, stmt.Hash, stmt.Type, stmt.Belief, string(agentsJSON))
		if err != nil {
			return fmt.Errorf("inserting statement %s: %w", stmt.Hash, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("statement id: %w", err)
		}

		for i, ev := range stmt.Evidence {
			if _, err := insEv.ExecContext(ctx, id, i, ev.SourceAPI, ev.PMID, ev.Text, ev.SourceHash); err != nil {
				return fmt.Errorf("inserting evidence for %s: %w", stmt.Hash, err)
			}
		}
		for src, n := range gs.SourceCounts[stmt.Hash] {
			if _, err := insCount.ExecContext(ctx, id, src, n); err != nil {
				return fmt.Errorf("inserting source counts for %s: %w", stmt.Hash, err)
			}
		}
	}

	return tx.Commit()
}
