// Package analyzer contains the static analyzers that turn changed files
// into review findings.
package analyzer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/reviewbot/prr/internal/domain"
)

// Analyzer inspects a single changed file and reports findings.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, file domain.ChangedFile) ([]domain.Finding, error)
}

// fileExtension returns the lower-cased extension including the dot.
func fileExtension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// splitLines splits content preserving the information whether the file ends
// with a newline. A trailing newline does not produce a phantom empty line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
