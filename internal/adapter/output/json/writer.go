// Package json persists review reports as machine-readable JSON artifacts.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reviewbot/prr/internal/adapter/output/markdown"
	"github.com/reviewbot/prr/internal/domain"
)

// Writer serialises reports to JSON files.
type Writer struct {
	now func() string
}

// NewWriter creates a new JSON writer.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Write persists a report to disk as a JSON file and returns its path.
func (w *Writer) Write(ctx context.Context, outputDir string, report domain.Report) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_pr%d_%s.json",
		markdown.Sanitise(report.Repository),
		report.PRNumber,
		w.now(),
	)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create json file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	return path, nil
}
