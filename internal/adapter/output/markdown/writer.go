// Package markdown renders review reports as Markdown, both for on-disk
// artifacts and for the comment posted back to the pull request.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reviewbot/prr/internal/domain"
)

type clock func() string

// Writer renders review reports into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown artifact to disk and returns its path.
func (w *Writer) Write(ctx context.Context, outputDir string, report domain.Report) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_pr%d_%s.md",
		Sanitise(report.Repository),
		report.PRNumber,
		w.now(),
	)
	path := filepath.Join(outputDir, filename)

	content := buildContent(report)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(report domain.Report) string {
	var builder strings.Builder
	builder.WriteString("# Code Review Report\n\n")
	builder.WriteString(fmt.Sprintf("- Repository: %s\n", report.Repository))
	builder.WriteString(fmt.Sprintf("- Pull Request: #%d %s\n", report.PRNumber, report.Title))
	builder.WriteString(fmt.Sprintf("- Head: %s\n\n", report.HeadSHA))
	builder.WriteString(BuildComment(report))
	return builder.String()
}

// BuildComment renders the review body posted as a GitHub comment. It is
// also embedded in the on-disk Markdown artifact.
func BuildComment(report domain.Report) string {
	var builder strings.Builder
	caser := cases.Title(language.English)

	builder.WriteString("## Automated Code Review\n\n")
	builder.WriteString(fmt.Sprintf("**Score:** %d/100\n\n", report.Summary.Score))
	builder.WriteString(fmt.Sprintf("**Verdict:** %s\n\n", report.Summary.Verdict))

	if report.Summary.TotalFindings == 0 {
		builder.WriteString("No issues found.\n")
		return builder.String()
	}

	builder.WriteString(fmt.Sprintf("**Findings:** %d (%s)\n", report.Summary.TotalFindings, severityBreakdown(report.Summary)))

	for _, result := range report.Results {
		if len(result.Findings) == 0 {
			continue
		}
		builder.WriteString(fmt.Sprintf("\n### %s\n\n", caser.String(result.Analyzer)))
		for _, finding := range result.Findings {
			builder.WriteString(fmt.Sprintf("- %s **%s** %s", location(finding), finding.Severity, finding.Message))
			if finding.Suggestion != "" {
				builder.WriteString(fmt.Sprintf("\n  - Suggestion: %s", finding.Suggestion))
			}
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

func severityBreakdown(summary domain.Summary) string {
	var parts []string
	for _, severity := range []string{
		domain.SeverityCritical,
		domain.SeverityHigh,
		domain.SeverityMedium,
		domain.SeverityLow,
		domain.SeverityInfo,
	} {
		if count := summary.BySeverity[severity]; count > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", count, severity))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func location(finding domain.Finding) string {
	if finding.Line > 0 {
		return fmt.Sprintf("`%s:%d`", finding.File, finding.Line)
	}
	return fmt.Sprintf("`%s`", finding.File)
}

// Sanitise makes a value safe for use in a filename.
func Sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "/", "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
