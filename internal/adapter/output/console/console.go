// Package console renders review reports for a terminal, with ANSI colors
// when stdout is a TTY.
package console

import (
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/term"

	"github.com/reviewbot/prr/internal/domain"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGreen  = "\033[32m"
	ansiDim    = "\033[2m"
)

// Renderer writes human-readable reports to a stream.
type Renderer struct {
	out   io.Writer
	color bool
}

// NewRenderer creates a renderer for the given stream, enabling color only
// when the stream is a terminal.
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out, color: isTerminal(out)}
}

// NewPlainRenderer creates a renderer that never emits color codes.
func NewPlainRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// isTerminal reports whether the stream is an interactive terminal. Piped
// and redirected output gets plain text.
func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Render prints the report.
func (r *Renderer) Render(report domain.Report) error {
	title := fmt.Sprintf("%s#%d", report.Repository, report.PRNumber)
	if report.PRNumber == 0 {
		title = fmt.Sprintf("%s (%s)", report.Repository, report.Title)
	}

	fmt.Fprintf(r.out, "\n%s\n", r.paint(ansiBold, fmt.Sprintf("Review of %s: %s", title, report.Title)))
	fmt.Fprintf(r.out, "Score: %s   Verdict: %s\n", r.paintScore(report.Summary.Score), report.Summary.Verdict)

	findings := report.AllFindings()
	if len(findings) == 0 {
		fmt.Fprintf(r.out, "%s\n", r.paint(ansiGreen, "No issues found."))
		return nil
	}

	fmt.Fprintf(r.out, "Findings: %d\n\n", len(findings))

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		return findings[i].Line < findings[j].Line
	})

	for _, finding := range findings {
		location := finding.File
		if finding.Line > 0 {
			location = fmt.Sprintf("%s:%d", finding.File, finding.Line)
		}
		fmt.Fprintf(r.out, "  %s %s [%s] %s\n",
			r.paintSeverity(finding.Severity),
			location,
			finding.Rule,
			finding.Message,
		)
		if finding.Suggestion != "" {
			fmt.Fprintf(r.out, "      %s\n", r.paint(ansiDim, "suggestion: "+finding.Suggestion))
		}
	}

	return nil
}

func (r *Renderer) paint(code, text string) string {
	if !r.color {
		return text
	}
	return code + text + ansiReset
}

func (r *Renderer) paintScore(score int) string {
	text := fmt.Sprintf("%d/100", score)
	switch {
	case score >= 80:
		return r.paint(ansiGreen, text)
	case score >= 50:
		return r.paint(ansiYellow, text)
	default:
		return r.paint(ansiRed, text)
	}
}

func (r *Renderer) paintSeverity(severity string) string {
	label := fmt.Sprintf("%-8s", severity)
	switch severity {
	case domain.SeverityCritical, domain.SeverityHigh:
		return r.paint(ansiRed, label)
	case domain.SeverityMedium:
		return r.paint(ansiYellow, label)
	case domain.SeverityLow:
		return r.paint(ansiCyan, label)
	default:
		return r.paint(ansiDim, label)
	}
}
