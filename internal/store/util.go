package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenerateRunID creates a unique, time-ordered run ID.
// Format: run-<timestamp>-<hash>
// Example: run-20260823T143052Z-a3f9c2
func GenerateRunID(timestamp time.Time, repository string, prNumber int) string {
	ts := timestamp.UTC().Format("20060102T150405Z")

	input := fmt.Sprintf("%s|%d|%d", repository, prNumber, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	shortHash := hex.EncodeToString(hash[:3])

	return fmt.Sprintf("run-%s-%s", ts, shortHash)
}

// CalculateConfigHash creates a deterministic hash of a configuration so a
// run records which settings produced it. The input must be
// JSON-serializable.
func CalculateConfigHash(config interface{}) (string, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
