package console_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbot/prr/internal/adapter/output/console"
	"github.com/reviewbot/prr/internal/domain"
)

func TestRenderReportWithFindings(t *testing.T) {
	findings := []domain.Finding{
		domain.NewFinding(domain.FindingInput{
			File:       "src/app.js",
			Line:       3,
			Severity:   domain.SeverityCritical,
			Category:   domain.CategorySecurity,
			Rule:       "sql_injection",
			Message:    "Possible SQL injection",
			Suggestion: "Use parameterized queries",
		}),
	}
	report := domain.Report{
		Repository: "owner/repo",
		PRNumber:   42,
		Title:      "Add feature",
		Results:    []domain.AnalyzerResult{{Analyzer: domain.CategorySecurity, Findings: findings}},
		Summary:    domain.NewSummary(findings),
	}

	var buf bytes.Buffer
	require.NoError(t, console.NewPlainRenderer(&buf).Render(report))

	out := buf.String()
	assert.Contains(t, out, "Review of owner/repo#42: Add feature")
	assert.Contains(t, out, "Score: 90/100")
	assert.Contains(t, out, "src/app.js:3 [sql_injection] Possible SQL injection")
	assert.Contains(t, out, "suggestion: Use parameterized queries")
	assert.NotContains(t, out, "\033[", "plain renderer must not emit ANSI codes")
}

func TestRenderCleanReport(t *testing.T) {
	report := domain.Report{
		Repository: "owner/repo",
		PRNumber:   7,
		Title:      "Docs",
		Summary:    domain.NewSummary(nil),
	}

	var buf bytes.Buffer
	require.NoError(t, console.NewPlainRenderer(&buf).Render(report))

	assert.Contains(t, buf.String(), "No issues found.")
}

func TestRenderSortsFindingsByLocation(t *testing.T) {
	findings := []domain.Finding{
		domain.NewFinding(domain.FindingInput{File: "z.go", Line: 1, Severity: domain.SeverityLow, Category: "style", Rule: "r", Message: "last"}),
		domain.NewFinding(domain.FindingInput{File: "a.go", Line: 9, Severity: domain.SeverityLow, Category: "style", Rule: "r", Message: "second"}),
		domain.NewFinding(domain.FindingInput{File: "a.go", Line: 2, Severity: domain.SeverityLow, Category: "style", Rule: "r", Message: "first"}),
	}
	report := domain.Report{
		Repository: "owner/repo",
		PRNumber:   1,
		Results:    []domain.AnalyzerResult{{Analyzer: "style", Findings: findings}},
		Summary:    domain.NewSummary(findings),
	}

	var buf bytes.Buffer
	require.NoError(t, console.NewPlainRenderer(&buf).Render(report))

	out := buf.String()
	first := bytes.Index(buf.Bytes(), []byte("first"))
	second := bytes.Index(buf.Bytes(), []byte("second"))
	last := bytes.Index(buf.Bytes(), []byte("last"))
	assert.True(t, first < second && second < last, "findings out of order:\n%s", out)
}
