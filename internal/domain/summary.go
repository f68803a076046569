package domain

// Summary aggregates findings into severity counts, a 0-100 score,
// and a human-readable verdict.
type Summary struct {
	TotalFindings int            `json:"totalFindings"`
	BySeverity    map[string]int `json:"bySeverity"`
	Score         int            `json:"score"`
	Verdict       string         `json:"verdict"`
}

// Score deductions per finding by severity.
const (
	deductCritical = 10
	deductHigh     = 5
	deductMedium   = 2
	deductLow      = 1
)

// NewSummary computes the summary for a set of findings.
func NewSummary(findings []Finding) Summary {
	counts := map[string]int{
		SeverityCritical: 0,
		SeverityHigh:     0,
		SeverityMedium:   0,
		SeverityLow:      0,
		SeverityInfo:     0,
	}
	for _, f := range findings {
		severity := f.Severity
		if _, ok := counts[severity]; !ok {
			severity = SeverityInfo
		}
		counts[severity]++
	}

	score := 100
	score -= counts[SeverityCritical] * deductCritical
	score -= counts[SeverityHigh] * deductHigh
	score -= counts[SeverityMedium] * deductMedium
	score -= counts[SeverityLow] * deductLow
	if score < 0 {
		score = 0
	}

	return Summary{
		TotalFindings: len(findings),
		BySeverity:    counts,
		Score:         score,
		Verdict:       verdict(score),
	}
}

func verdict(score int) string {
	switch {
	case score >= 90:
		return "Excellent code quality. Approved!"
	case score >= 80:
		return "Good code quality with minor issues."
	case score >= 70:
		return "Acceptable code quality but needs improvement."
	case score >= 50:
		return "Poor code quality. Significant improvements needed."
	default:
		return "Critical issues found. Must be fixed before merging."
	}
}

// Blocking reports whether the summary should block the pull request,
// i.e. any critical or high severity finding is present.
func (s Summary) Blocking() bool {
	return s.BySeverity[SeverityCritical] > 0 || s.BySeverity[SeverityHigh] > 0
}
