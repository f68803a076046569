package analyzer

import (
	"context"
	"regexp"

	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/domain"
)

// securityPattern is one entry in the pattern table the security analyzer
// matches against every line of a changed file.
type securityPattern struct {
	rule       string
	pattern    *regexp.Regexp
	message    string
	severity   string
	suggestion string
}

var securityPatterns = []securityPattern{
	{
		rule:       "hardcoded_secrets",
		pattern:    regexp.MustCompile(`(?i)(password|secret|key|token|credential)s?["\s]*[:=]["\s]*['"]\w+['"]`),
		message:    "Potential hardcoded secret or credential",
		severity:   domain.SeverityCritical,
		suggestion: "Store secrets in environment variables or a secure vault",
	},
	{
		rule:       "sql_injection",
		pattern:    regexp.MustCompile(`(?i)execute\s*\(.*\+\s*.*\)|.*\.raw\(.*\+\s*.*\)`),
		message:    "Potential SQL injection vulnerability",
		severity:   domain.SeverityCritical,
		suggestion: "Use parameterized queries or an ORM instead of string concatenation",
	},
	{
		rule:       "command_injection",
		pattern:    regexp.MustCompile(`(?i)(os\.system|subprocess\.call|exec|eval)\s*\(.*\+\s*.*\)`),
		message:    "Potential command injection vulnerability",
		severity:   domain.SeverityCritical,
		suggestion: "Use safe APIs or validate and sanitize user input before using it in commands",
	},
	{
		rule:       "xss",
		pattern:    regexp.MustCompile(`(?i)innerHTML|document\.write\s*\(.*\+\s*.*\)`),
		message:    "Potential XSS vulnerability",
		severity:   domain.SeverityHigh,
		suggestion: "Use safe APIs or sanitize user input before inserting it into HTML",
	},
	{
		rule:       "insecure_random",
		pattern:    regexp.MustCompile(`(?i)Math\.random\(\)|random\.random\(\)|\bmath/rand\b`),
		message:    "Use of insecure random number generator",
		severity:   domain.SeverityMedium,
		suggestion: "Use a cryptographically secure random number generator",
	},
	{
		rule:       "debug_code",
		pattern:    regexp.MustCompile(`(?i)\b(console\.log|debugger|fixme|xxx)\b`),
		message:    "Debug code or marker comment found",
		severity:   domain.SeverityLow,
		suggestion: "Remove debug code before production deployment",
	},
}

// Security scans changed files for the known vulnerability patterns.
// Findings below the configured severity threshold are dropped.
type Security struct {
	threshold string
}

// NewSecurity constructs the security analyzer from configuration.
func NewSecurity(cfg config.SecurityConfig) *Security {
	threshold := cfg.SeverityThreshold
	if threshold == "" {
		threshold = domain.SeverityLow
	}
	return &Security{threshold: threshold}
}

// Name implements Analyzer.
func (s *Security) Name() string { return domain.CategorySecurity }

// Analyze implements Analyzer.
func (s *Security) Analyze(ctx context.Context, file domain.ChangedFile) ([]domain.Finding, error) {
	if file.Content == "" {
		return nil, nil
	}

	var findings []domain.Finding
	lines := splitLines(file.Content)

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, sp := range securityPatterns {
			if !sp.pattern.MatchString(line) {
				continue
			}
			if !domain.MeetsThreshold(sp.severity, s.threshold) {
				continue
			}
			findings = append(findings, domain.NewFinding(domain.FindingInput{
				File:       file.Path,
				Line:       i + 1,
				Severity:   sp.severity,
				Category:   domain.CategorySecurity,
				Rule:       sp.rule,
				Message:    sp.message,
				Suggestion: sp.suggestion,
			}))
		}
	}

	return findings, nil
}
