// Package store defines the persistence layer for review run history, used
// to skip pull requests whose head commit has already been reviewed.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store defines the persistence layer interface for review history.
type Store interface {
	// Run management
	CreateRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, runID string) (Run, error)
	LastRunForPR(ctx context.Context, repository string, prNumber int) (Run, error)
	ListRuns(ctx context.Context, repository string, limit int) ([]Run, error)

	// Finding persistence
	SaveFindings(ctx context.Context, findings []FindingRecord) error
	GetFindingsByRun(ctx context.Context, runID string) ([]FindingRecord, error)

	// Utility
	Close() error
}

// Run represents a single review of one pull request head.
type Run struct {
	RunID         string
	Repository    string
	PRNumber      int
	HeadSHA       string
	Timestamp     time.Time
	Score         int
	Verdict       string
	TotalFindings int
	ConfigHash    string
}

// FindingRecord is the persisted form of a finding.
type FindingRecord struct {
	FindingID  string
	RunID      string
	File       string
	Line       int
	Severity   string
	Category   string
	Rule       string
	Message    string
	Suggestion string
}
