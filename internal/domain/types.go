package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Severity levels, from most to least urgent.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
// Unknown severities rank below info.
func SeverityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold reports whether severity is at or above the threshold.
// An empty or "none" threshold matches nothing.
func MeetsThreshold(severity, threshold string) bool {
	if threshold == "" || threshold == "none" {
		return false
	}
	return SeverityRank(severity) >= SeverityRank(threshold)
}

// Finding categories. Each maps to the analyzer that produced it.
const (
	CategoryStyle    = "style"
	CategorySecurity = "security"
	CategoryQuality  = "quality"
	CategoryLLM      = "llm"
)

// Changed file statuses as reported by the GitHub API.
const (
	FileStatusAdded    = "added"
	FileStatusModified = "modified"
	FileStatusRemoved  = "removed"
	FileStatusRenamed  = "renamed"
)

// Review events accepted by the GitHub pull request review API.
const (
	ReviewEventApprove        = "APPROVE"
	ReviewEventRequestChanges = "REQUEST_CHANGES"
	ReviewEventComment        = "COMMENT"
)

// InlineComment is a review comment anchored to a line of a changed file.
type InlineComment struct {
	Path string
	Line int
	Body string
}

// PullRequest holds the metadata the review pipeline needs.
type PullRequest struct {
	Number  int
	Title   string
	Author  string
	State   string
	BaseRef string
	HeadRef string
	HeadSHA string
	HTMLURL string
}

// ChangedFile captures a single file change within a pull request or diff.
type ChangedFile struct {
	Path      string
	OldPath   string // set for renames
	Status    string
	Patch     string
	Content   string // full file content at the head ref; empty for removed files
	IsBinary  bool
	Additions int
	Deletions int
}

// Finding represents a single issue detected by an analyzer.
type Finding struct {
	ID         string `json:"id"`
	File       string `json:"file"`
	Line       int    `json:"line"` // 0 for file-level findings
	Severity   string `json:"severity"`
	Category   string `json:"category"`
	Rule       string `json:"rule"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// FindingInput captures the information required to create a Finding.
type FindingInput struct {
	File       string
	Line       int
	Severity   string
	Category   string
	Rule       string
	Message    string
	Suggestion string
}

// NewFinding constructs a Finding with a deterministic ID.
func NewFinding(input FindingInput) Finding {
	id := hashFinding(input)
	return Finding{
		ID:         id,
		File:       input.File,
		Line:       input.Line,
		Severity:   input.Severity,
		Category:   input.Category,
		Rule:       input.Rule,
		Message:    input.Message,
		Suggestion: input.Suggestion,
	}
}

func hashFinding(input FindingInput) string {
	payload := fmt.Sprintf("%s|%d|%s|%s|%s|%s",
		input.File,
		input.Line,
		input.Severity,
		input.Category,
		input.Rule,
		input.Message,
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// AnalyzerResult groups the findings produced by one analyzer.
type AnalyzerResult struct {
	Analyzer string    `json:"analyzer"`
	Findings []Finding `json:"findings"`
}

// Report is the complete output for one reviewed pull request.
type Report struct {
	Repository string           `json:"repository"`
	PRNumber   int              `json:"prNumber"`
	Title      string           `json:"title"`
	HeadSHA    string           `json:"headSha"`
	Results    []AnalyzerResult `json:"results"`
	Summary    Summary          `json:"summary"`
}

// AllFindings flattens the per-analyzer results in analyzer order.
func (r Report) AllFindings() []Finding {
	var findings []Finding
	for _, result := range r.Results {
		findings = append(findings, result.Findings...)
	}
	return findings
}
