// Package redaction strips secrets from file content before it leaves the
// process, so credentials in a diff never reach an external LLM API.
package redaction

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Redactor performs regex-based secret detection and replacement.
type Redactor struct {
	patterns []*regexp.Regexp
}

// New creates a redactor with the default secret patterns.
func New() *Redactor {
	return &Redactor{patterns: defaultPatterns()}
}

// Redact replaces every detected secret with a stable placeholder. The
// placeholder is derived from the secret's hash, so repeated occurrences of
// the same secret redact to the same token.
func (r *Redactor) Redact(input string) string {
	placeholders := make(map[string]string)
	for _, pattern := range r.patterns {
		for _, match := range pattern.FindAllString(input, -1) {
			if _, seen := placeholders[match]; seen {
				continue
			}
			placeholders[match] = placeholder(match)
		}
	}

	result := input
	for secret, token := range placeholders {
		result = strings.ReplaceAll(result, secret, token)
	}
	return result
}

func placeholder(secret string) string {
	hash := sha256.Sum256([]byte(secret))
	return fmt.Sprintf("<REDACTED:%s>", hex.EncodeToString(hash[:])[:8])
}

func defaultPatterns() []*regexp.Regexp {
	patterns := []string{
		// OpenAI API keys
		`sk-[a-zA-Z0-9]{20,}`,
		// Anthropic API keys
		`sk-ant-[a-zA-Z0-9\-]{20,}`,
		// AWS access key IDs
		`AKIA[0-9A-Z]{16}`,
		// AWS secret access keys assigned near an "aws" identifier
		`aws.{0,20}?['\"][0-9a-zA-Z/+]{40}['\"]`,
		// GitHub tokens
		`gh[posr]_[a-zA-Z0-9]{20,}`,
		// Google API keys
		`AIza[0-9A-Za-z\-_]{35}`,
		// JWT tokens
		`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`,
		// PEM private keys
		`-----BEGIN\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----[\s\S]*?-----END\s+(?:RSA|EC|OPENSSH|DSA|ENCRYPTED)\s+PRIVATE\s+KEY-----`,
		// Slack tokens
		`xox[baprs]-[a-zA-Z0-9\-]{10,}`,
		// Bearer tokens in headers or code
		`Bearer\s+[a-zA-Z0-9_\-\.]+`,
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}
