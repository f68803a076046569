package analyzer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/domain"
)

// Style flags formatting problems: overlong lines, trailing whitespace,
// indentation inconsistent with the configured indent size, and a missing
// final newline.
type Style struct {
	maxLineLength int
	indentSize    int
}

// NewStyle constructs the style analyzer from configuration.
func NewStyle(cfg config.StyleConfig) *Style {
	maxLen := cfg.MaxLineLength
	if maxLen <= 0 {
		maxLen = 100
	}
	indent := cfg.IndentSize
	if indent <= 0 {
		indent = 4
	}
	return &Style{maxLineLength: maxLen, indentSize: indent}
}

// Name implements Analyzer.
func (s *Style) Name() string { return domain.CategoryStyle }

// tabIndentedExtensions are languages where hard tabs are the convention,
// so tab indentation is not flagged.
var tabIndentedExtensions = map[string]bool{
	".go":  true,
	".mk":  true,
	".tsv": true,
}

// Analyze implements Analyzer.
func (s *Style) Analyze(ctx context.Context, file domain.ChangedFile) ([]domain.Finding, error) {
	if file.Content == "" {
		return nil, nil
	}

	ext := fileExtension(file.Path)
	allowTabs := tabIndentedExtensions[ext] || strings.HasSuffix(file.Path, "Makefile")

	var findings []domain.Finding
	lines := splitLines(file.Content)

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNum := i + 1

		// Character count, not bytes: multibyte text must not be penalized.
		if width := utf8.RuneCountInString(line); width > s.maxLineLength {
			findings = append(findings, domain.NewFinding(domain.FindingInput{
				File:       file.Path,
				Line:       lineNum,
				Severity:   domain.SeverityLow,
				Category:   domain.CategoryStyle,
				Rule:       "line_length",
				Message:    fmt.Sprintf("Line is too long (%d characters, threshold: %d)", width, s.maxLineLength),
				Suggestion: "Break the line up or extract intermediate variables",
			}))
		}

		if trimmed := strings.TrimRight(line, " \t"); trimmed != line && trimmed != "" {
			findings = append(findings, domain.NewFinding(domain.FindingInput{
				File:       file.Path,
				Line:       lineNum,
				Severity:   domain.SeverityInfo,
				Category:   domain.CategoryStyle,
				Rule:       "trailing_whitespace",
				Message:    "Trailing whitespace",
				Suggestion: "Remove the trailing whitespace",
			}))
		}

		if !allowTabs && strings.HasPrefix(line, "\t") {
			findings = append(findings, domain.NewFinding(domain.FindingInput{
				File:       file.Path,
				Line:       lineNum,
				Severity:   domain.SeverityLow,
				Category:   domain.CategoryStyle,
				Rule:       "indentation",
				Message:    fmt.Sprintf("Tab indentation found; configured indent is %d spaces", s.indentSize),
				Suggestion: fmt.Sprintf("Indent with %d spaces instead of tabs", s.indentSize),
			}))
		}
	}

	if !strings.HasSuffix(file.Content, "\n") {
		findings = append(findings, domain.NewFinding(domain.FindingInput{
			File:       file.Path,
			Line:       len(lines),
			Severity:   domain.SeverityInfo,
			Category:   domain.CategoryStyle,
			Rule:       "final_newline",
			Message:    "File does not end with a newline",
			Suggestion: "Add a trailing newline",
		}))
	}

	return findings, nil
}
