package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbot/prr/internal/store"
)

func TestGenerateRunIDFormat(t *testing.T) {
	at := time.Date(2026, 8, 23, 14, 30, 52, 0, time.UTC)
	id := store.GenerateRunID(at, "owner/repo", 42)

	assert.Regexp(t, `^run-20260823T143052Z-[0-9a-f]{6}$`, id)
}

func TestGenerateRunIDUnique(t *testing.T) {
	a := store.GenerateRunID(time.Now(), "owner/repo", 42)
	b := store.GenerateRunID(time.Now(), "owner/repo", 42)

	assert.NotEqual(t, a, b, "nanosecond component should differ")
}

func TestCalculateConfigHashDeterministic(t *testing.T) {
	cfg := map[string]interface{}{"maxLineLength": 100, "enabled": true}

	a, err := store.CalculateConfigHash(cfg)
	require.NoError(t, err)
	b, err := store.CalculateConfigHash(cfg)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestCalculateConfigHashChangesWithInput(t *testing.T) {
	a, err := store.CalculateConfigHash(map[string]int{"x": 1})
	require.NoError(t, err)
	b, err := store.CalculateConfigHash(map[string]int{"x": 2})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
