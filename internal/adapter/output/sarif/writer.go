// Package sarif emits review reports in SARIF 2.1.0 so findings can be
// uploaded to code scanning dashboards.
package sarif

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/reviewbot/prr/internal/adapter/output/markdown"
	"github.com/reviewbot/prr/internal/domain"
)

// Writer serialises reports to SARIF files.
type Writer struct {
	now func() string
}

// NewWriter creates a new SARIF writer.
func NewWriter(now func() string) *Writer {
	return &Writer{now: now}
}

// Write persists a report to disk as a SARIF file and returns its path.
func (w *Writer) Write(ctx context.Context, outputDir string, report domain.Report) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_pr%d_%s.sarif",
		markdown.Sanitise(report.Repository),
		report.PRNumber,
		w.now(),
	)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create sarif file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(convertToSARIF(report)); err != nil {
		return "", fmt.Errorf("encode report to sarif: %w", err)
	}

	return path, nil
}

// convertToSARIF maps a report onto the SARIF 2.1.0 document structure.
func convertToSARIF(report domain.Report) map[string]interface{} {
	findings := report.AllFindings()
	results := make([]map[string]interface{}, 0, len(findings))
	ruleIDs := map[string]bool{}

	for _, finding := range findings {
		ruleID := finding.Rule
		if ruleID == "" {
			ruleID = finding.Category
		}
		ruleIDs[ruleID] = true

		messageText := finding.Message
		if messageText == "" {
			messageText = "No description provided"
		}

		result := map[string]interface{}{
			"ruleId":  ruleID,
			"level":   convertSeverity(finding.Severity),
			"message": map[string]interface{}{"text": messageText},
		}

		if finding.File != "" {
			physicalLocation := map[string]interface{}{
				"artifactLocation": map[string]interface{}{"uri": finding.File},
			}
			// Line 0 marks file-level findings; don't fabricate a region.
			if finding.Line >= 1 {
				physicalLocation["region"] = map[string]interface{}{
					"startLine": finding.Line,
				}
			}
			result["locations"] = []map[string]interface{}{
				{"physicalLocation": physicalLocation},
			}
		}

		if finding.Suggestion != "" {
			result["properties"] = map[string]interface{}{
				"suggestion": finding.Suggestion,
			}
		}

		results = append(results, result)
	}

	rules := make([]map[string]interface{}, 0, len(ruleIDs))
	for _, id := range sortedKeys(ruleIDs) {
		rules = append(rules, map[string]interface{}{
			"id": id,
			"shortDescription": map[string]interface{}{
				"text": fmt.Sprintf("Code review rule %s", id),
			},
		})
	}

	return map[string]interface{}{
		"version": "2.1.0",
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":           "prr",
						"informationUri": "https://github.com/reviewbot/prr",
						"rules":          rules,
					},
				},
				"results": results,
				"properties": map[string]interface{}{
					"repository": report.Repository,
					"prNumber":   report.PRNumber,
					"headSha":    report.HeadSHA,
					"score":      report.Summary.Score,
					"verdict":    report.Summary.Verdict,
				},
			},
		},
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// convertSeverity maps finding severities to SARIF levels.
func convertSeverity(severity string) string {
	switch severity {
	case domain.SeverityCritical, domain.SeverityHigh:
		return "error"
	case domain.SeverityMedium:
		return "warning"
	case domain.SeverityLow:
		return "note"
	case domain.SeverityInfo:
		return "note"
	default:
		return "warning"
	}
}
