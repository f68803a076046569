package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/domain"
)

func styleAnalyzer() *Style {
	return NewStyle(config.StyleConfig{Enabled: true, MaxLineLength: 40, IndentSize: 4})
}

func rulesOf(findings []domain.Finding) []string {
	rules := make([]string, len(findings))
	for i, f := range findings {
		rules[i] = f.Rule
	}
	return rules
}

func TestStyleFlagsLongLines(t *testing.T) {
	file := domain.ChangedFile{
		Path:    "app/service.py",
		Content: "short = 1\n" + strings.Repeat("x", 60) + "\n",
	}

	findings, err := styleAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, "line_length", findings[0].Rule)
	assert.Equal(t, 2, findings[0].Line)
	assert.Equal(t, domain.SeverityLow, findings[0].Severity)
}

func TestStyleCountsCharactersNotBytes(t *testing.T) {
	// 39 characters but 117 bytes: must stay under the 40-char threshold.
	file := domain.ChangedFile{
		Path:    "docs/notes.md",
		Content: strings.Repeat("世", 39) + "\n",
	}

	findings, err := styleAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	assert.NotContains(t, rulesOf(findings), "line_length")
}

func TestStyleFlagsTrailingWhitespace(t *testing.T) {
	file := domain.ChangedFile{
		Path:    "app/service.py",
		Content: "value = 1   \n",
	}

	findings, err := styleAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	assert.Contains(t, rulesOf(findings), "trailing_whitespace")
}

func TestStyleFlagsTabIndentation(t *testing.T) {
	file := domain.ChangedFile{
		Path:    "src/widget.js",
		Content: "function f() {\n\treturn 1\n}\n",
	}

	findings, err := styleAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	assert.Contains(t, rulesOf(findings), "indentation")
}

func TestStyleAllowsTabsInGo(t *testing.T) {
	file := domain.ChangedFile{
		Path:    "main.go",
		Content: "func main() {\n\tprintln(1)\n}\n",
	}

	findings, err := styleAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	assert.NotContains(t, rulesOf(findings), "indentation")
}

func TestStyleFlagsMissingFinalNewline(t *testing.T) {
	file := domain.ChangedFile{
		Path:    "app/service.py",
		Content: "value = 1",
	}

	findings, err := styleAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	assert.Contains(t, rulesOf(findings), "final_newline")
}

func TestStyleCleanFile(t *testing.T) {
	file := domain.ChangedFile{
		Path:    "app/service.py",
		Content: "def f():\n    return 1\n",
	}

	findings, err := styleAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestStyleSkipsEmptyContent(t *testing.T) {
	findings, err := styleAnalyzer().Analyze(context.Background(), domain.ChangedFile{Path: "gone.py"})
	require.NoError(t, err)
	assert.Empty(t, findings)
}
