package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbot/prr/internal/adapter/store/sqlite"
	"github.com/reviewbot/prr/internal/store"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(prNumber int, headSHA string, at time.Time) store.Run {
	return store.Run{
		RunID:         store.GenerateRunID(at, "owner/repo", prNumber),
		Repository:    "owner/repo",
		PRNumber:      prNumber,
		HeadSHA:       headSHA,
		Timestamp:     at,
		Score:         88,
		Verdict:       "Good, with minor issues.",
		TotalFindings: 2,
		ConfigHash:    "cfg123",
	}
}

func TestCreateAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun(42, "abc123", time.Unix(1_700_000_000, 0))
	require.NoError(t, s.CreateRun(ctx, run))

	got, err := s.GetRun(ctx, run.RunID)
	require.NoError(t, err)

	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, "owner/repo", got.Repository)
	assert.Equal(t, 42, got.PRNumber)
	assert.Equal(t, "abc123", got.HeadSHA)
	assert.Equal(t, 88, got.Score)
	assert.Equal(t, run.Timestamp.Unix(), got.Timestamp.Unix())
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "run-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLastRunForPRReturnsMostRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := sampleRun(42, "oldsha", time.Unix(1_700_000_000, 0))
	newer := sampleRun(42, "newsha", time.Unix(1_700_000_100, 0))
	other := sampleRun(7, "othersha", time.Unix(1_700_000_200, 0))

	require.NoError(t, s.CreateRun(ctx, older))
	require.NoError(t, s.CreateRun(ctx, newer))
	require.NoError(t, s.CreateRun(ctx, other))

	got, err := s.LastRunForPR(ctx, "owner/repo", 42)
	require.NoError(t, err)
	assert.Equal(t, "newsha", got.HeadSHA)
}

func TestLastRunForPRNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LastRunForPR(context.Background(), "owner/repo", 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListRunsOrdersAndLimits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		run := sampleRun(i, "sha", time.Unix(int64(1_700_000_000+i), 0))
		require.NoError(t, s.CreateRun(ctx, run))
	}

	runs, err := s.ListRuns(ctx, "owner/repo", 3)
	require.NoError(t, err)

	require.Len(t, runs, 3)
	assert.Equal(t, 4, runs[0].PRNumber)
	assert.Equal(t, 2, runs[2].PRNumber)
}

func TestSaveAndGetFindings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun(42, "abc123", time.Unix(1_700_000_000, 0))
	require.NoError(t, s.CreateRun(ctx, run))

	findings := []store.FindingRecord{
		{
			FindingID:  "f1",
			RunID:      run.RunID,
			File:       "src/b.js",
			Line:       3,
			Severity:   "high",
			Category:   "security",
			Rule:       "xss",
			Message:    "Possible XSS",
			Suggestion: "Escape output",
		},
		{
			FindingID: "f2",
			RunID:     run.RunID,
			File:      "src/a.js",
			Line:      10,
			Severity:  "low",
			Category:  "style",
			Rule:      "line_length",
			Message:   "Line too long",
		},
	}
	require.NoError(t, s.SaveFindings(ctx, findings))

	got, err := s.GetFindingsByRun(ctx, run.RunID)
	require.NoError(t, err)

	require.Len(t, got, 2)
	// Ordered by file then line.
	assert.Equal(t, "src/a.js", got[0].File)
	assert.Equal(t, "src/b.js", got[1].File)
	assert.Equal(t, "Escape output", got[1].Suggestion)
}

func TestSaveFindingsRequiresExistingRun(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveFindings(context.Background(), []store.FindingRecord{
		{FindingID: "f1", RunID: "run-missing", File: "a.go", Severity: "low", Category: "style", Rule: "r", Message: "m"},
	})
	assert.Error(t, err)
}
