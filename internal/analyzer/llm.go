package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/domain"
	"github.com/reviewbot/prr/internal/redaction"
)

// CompletionClient abstracts the chat completion call the LLM analyzer makes.
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const llmSystemPrompt = "You are an expert code reviewer. Analyze the code and provide specific, " +
	"actionable feedback on bugs, security issues, performance problems, and code quality issues. " +
	"Format each issue as a JSON object with 'line', 'message', 'severity', and 'suggestion' fields."

// llmSupportedExtensions are the file types sent for LLM review.
var llmSupportedExtensions = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".go": true, ".rb": true, ".php": true,
	".c": true, ".cpp": true, ".h": true, ".hpp": true, ".cs": true,
	".html": true, ".css": true, ".scss": true, ".md": true,
}

// LLM asks a language model to review each file and parses the structured
// findings out of the response. Failures on a single file are returned to the
// caller, which treats them as non-fatal.
type LLM struct {
	client       CompletionClient
	redactor     *redaction.Redactor
	maxFileBytes int
}

// NewLLM constructs the LLM analyzer.
func NewLLM(client CompletionClient, cfg config.LLMConfig) *LLM {
	maxBytes := cfg.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = 10000
	}
	return &LLM{client: client, redactor: redaction.New(), maxFileBytes: maxBytes}
}

// Name implements Analyzer.
func (l *LLM) Name() string { return domain.CategoryLLM }

// Analyze implements Analyzer.
func (l *LLM) Analyze(ctx context.Context, file domain.ChangedFile) ([]domain.Finding, error) {
	if !llmSupportedExtensions[fileExtension(file.Path)] {
		return nil, nil
	}
	if strings.TrimSpace(file.Content) == "" {
		return nil, nil
	}

	// Secrets in the diff must never reach the external API.
	content := l.redactor.Redact(file.Content)
	if len(content) > l.maxFileBytes {
		content = truncateOnRuneBoundary(content, l.maxFileBytes) + "\n... (truncated)"
	}

	response, err := l.client.Complete(ctx, llmSystemPrompt, buildReviewPrompt(file.Path, content))
	if err != nil {
		return nil, fmt.Errorf("llm review of %s: %w", file.Path, err)
	}

	var findings []domain.Finding
	for _, issue := range extractIssues(response) {
		findings = append(findings, domain.NewFinding(domain.FindingInput{
			File:       file.Path,
			Line:       issue.Line,
			Severity:   issue.Severity,
			Category:   domain.CategoryLLM,
			Rule:       "llm_review",
			Message:    issue.Message,
			Suggestion: issue.Suggestion,
		}))
	}
	return findings, nil
}

// truncateOnRuneBoundary cuts at most maxBytes bytes without splitting a
// UTF-8 sequence, so the prompt stays valid UTF-8.
func truncateOnRuneBoundary(content string, maxBytes int) string {
	if maxBytes <= 0 || len(content) <= maxBytes {
		return content
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}

func buildReviewPrompt(path, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please review the following code file: %s\n\n", path)
	b.WriteString("```\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n\n")
	b.WriteString(`Provide a detailed code review focusing on:
1. Bugs and logical errors
2. Security vulnerabilities
3. Performance issues
4. Code quality and maintainability problems
5. Best practices violations

For each issue, provide:
- The line number where the issue occurs
- A clear description of the problem
- The severity (critical, high, medium, low, or info)
- A specific suggestion for how to fix it

Format your response as a JSON array of objects, one per issue, with the
following structure:
{
  "line": <line_number>,
  "message": "<description of the issue>",
  "severity": "<severity level>",
  "suggestion": "<how to fix it>"
}

If no issues are found, return an empty list: []
`)
	return b.String()
}

// llmIssue is one entry in the JSON array the model is asked to produce.
type llmIssue struct {
	Line       int    `json:"line"`
	Message    string `json:"message"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion"`
}

var validSeverities = map[string]bool{
	domain.SeverityCritical: true,
	domain.SeverityHigh:     true,
	domain.SeverityMedium:   true,
	domain.SeverityLow:      true,
	domain.SeverityInfo:     true,
}

// extractIssues pulls the JSON array out of a model response. Models often
// wrap the array in prose or a code fence, so we locate the outermost
// brackets rather than unmarshalling the whole response.
func extractIssues(response string) []llmIssue {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil
	}

	var parsed []llmIssue
	if err := json.Unmarshal([]byte(response[start:end+1]), &parsed); err != nil {
		return nil
	}

	issues := make([]llmIssue, 0, len(parsed))
	for _, issue := range parsed {
		if issue.Message == "" {
			continue
		}
		if !validSeverities[issue.Severity] {
			issue.Severity = domain.SeverityMedium
		}
		issues = append(issues, issue)
	}
	return issues
}
