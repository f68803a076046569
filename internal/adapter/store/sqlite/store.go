// Package sqlite implements the store.Store interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/reviewbot/prr/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store persists review runs and findings in a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Metadata about each review run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		pr_number INTEGER NOT NULL,
		head_sha TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		score INTEGER NOT NULL,
		verdict TEXT NOT NULL,
		total_findings INTEGER NOT NULL,
		config_hash TEXT NOT NULL
	);

	-- Individual findings from each run
	CREATE TABLE IF NOT EXISTS findings (
		finding_id TEXT NOT NULL,
		run_id TEXT NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		severity TEXT NOT NULL,
		category TEXT NOT NULL,
		rule TEXT NOT NULL,
		message TEXT NOT NULL,
		suggestion TEXT,
		PRIMARY KEY (finding_id, run_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_pr ON runs(repository, pr_number, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_findings_run ON findings(run_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new review run.
func (s *Store) CreateRun(ctx context.Context, run store.Run) error {
	query := `
		INSERT INTO runs (run_id, repository, pr_number, head_sha, timestamp, score, verdict, total_findings, config_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Repository,
		run.PRNumber,
		run.HeadSHA,
		run.Timestamp.Unix(),
		run.Score,
		run.Verdict,
		run.TotalFindings,
		run.ConfigHash,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

const runColumns = "run_id, repository, pr_number, head_sha, timestamp, score, verdict, total_findings, config_hash"

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (store.Run, error) {
	query := fmt.Sprintf("SELECT %s FROM runs WHERE run_id = ?", runColumns)
	return s.scanRun(s.db.QueryRowContext(ctx, query, runID))
}

// LastRunForPR retrieves the most recent run for a pull request. It returns
// store.ErrNotFound when the PR has never been reviewed.
func (s *Store) LastRunForPR(ctx context.Context, repository string, prNumber int) (store.Run, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM runs
		WHERE repository = ? AND pr_number = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, runColumns)
	return s.scanRun(s.db.QueryRowContext(ctx, query, repository, prNumber))
}

// ListRuns retrieves the most recent runs for a repository, limited by count.
func (s *Store) ListRuns(ctx context.Context, repository string, limit int) ([]store.Run, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM runs
		WHERE repository = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, runColumns)

	rows, err := s.db.QueryContext(ctx, query, repository, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanRun(row rowScanner) (store.Run, error) {
	var run store.Run
	var timestamp int64

	err := row.Scan(
		&run.RunID,
		&run.Repository,
		&run.PRNumber,
		&run.HeadSHA,
		&timestamp,
		&run.Score,
		&run.Verdict,
		&run.TotalFindings,
		&run.ConfigHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Run{}, store.ErrNotFound
		}
		return store.Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Timestamp = time.Unix(timestamp, 0)
	return run, nil
}

// SaveFindings stores multiple findings in a single transaction.
func (s *Store) SaveFindings(ctx context.Context, findings []store.FindingRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO findings (finding_id, run_id, file, line, severity, category, rule, message, suggestion)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, finding := range findings {
		if _, err := stmt.ExecContext(ctx,
			finding.FindingID,
			finding.RunID,
			finding.File,
			finding.Line,
			finding.Severity,
			finding.Category,
			finding.Rule,
			finding.Message,
			finding.Suggestion,
		); err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetFindingsByRun retrieves all findings for a given run, ordered by file
// and line.
func (s *Store) GetFindingsByRun(ctx context.Context, runID string) ([]store.FindingRecord, error) {
	query := `
		SELECT finding_id, run_id, file, line, severity, category, rule, message, suggestion
		FROM findings
		WHERE run_id = ?
		ORDER BY file ASC, line ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get findings by run: %w", err)
	}
	defer rows.Close()

	var findings []store.FindingRecord
	for rows.Next() {
		var finding store.FindingRecord
		var suggestion sql.NullString

		if err := rows.Scan(
			&finding.FindingID,
			&finding.RunID,
			&finding.File,
			&finding.Line,
			&finding.Severity,
			&finding.Category,
			&finding.Rule,
			&finding.Message,
			&suggestion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}

		finding.Suggestion = suggestion.String
		findings = append(findings, finding)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating findings: %w", err)
	}

	return findings, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
