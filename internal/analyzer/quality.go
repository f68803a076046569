package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/domain"
)

// Quality flags maintainability problems: overlong files and functions,
// excessive estimated complexity, duplicated blocks, and commented-out code.
type Quality struct {
	functionLength int
	fileLength     int
	complexity     int
}

// NewQuality constructs the quality analyzer from configuration.
func NewQuality(cfg config.QualityConfig) *Quality {
	q := &Quality{
		functionLength: cfg.FunctionLength,
		fileLength:     cfg.FileLength,
		complexity:     cfg.Complexity,
	}
	if q.functionLength <= 0 {
		q.functionLength = 50
	}
	if q.fileLength <= 0 {
		q.fileLength = 500
	}
	if q.complexity <= 0 {
		q.complexity = 10
	}
	return q
}

// Name implements Analyzer.
func (q *Quality) Name() string { return domain.CategoryQuality }

// Analyze implements Analyzer.
func (q *Quality) Analyze(ctx context.Context, file domain.ChangedFile) ([]domain.Finding, error) {
	if file.Content == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := splitLines(file.Content)
	var findings []domain.Finding

	findings = append(findings, q.checkFileLength(file.Path, lines)...)

	ext := fileExtension(file.Path)
	if patterns, ok := functionPatterns(ext); ok {
		for _, fn := range findFunctions(lines, patterns) {
			findings = append(findings, q.checkFunction(file.Path, lines, fn)...)
		}
	}

	findings = append(findings, q.checkDuplication(file.Path, lines)...)
	findings = append(findings, checkCommentedCode(file.Path, lines, ext)...)

	return findings, nil
}

func (q *Quality) checkFileLength(path string, lines []string) []domain.Finding {
	if len(lines) <= q.fileLength {
		return nil
	}
	return []domain.Finding{domain.NewFinding(domain.FindingInput{
		File:       path,
		Severity:   domain.SeverityMedium,
		Category:   domain.CategoryQuality,
		Rule:       "file_length",
		Message:    fmt.Sprintf("File is too long (%d lines, threshold: %d)", len(lines), q.fileLength),
		Suggestion: "Consider breaking the file into smaller, more focused modules",
	})}
}

func (q *Quality) checkFunction(path string, lines []string, fn function) []domain.Finding {
	var findings []domain.Finding

	if fn.length() > q.functionLength {
		findings = append(findings, domain.NewFinding(domain.FindingInput{
			File:       path,
			Line:       fn.startLine,
			Severity:   domain.SeverityMedium,
			Category:   domain.CategoryQuality,
			Rule:       "function_length",
			Message:    fmt.Sprintf("Function %q is too long (%d lines, threshold: %d)", fn.name, fn.length(), q.functionLength),
			Suggestion: "Break down the function into smaller, more focused functions",
		}))
	}

	complexity := estimateComplexity(lines[fn.startLine-1 : fn.endLine])
	if complexity > q.complexity {
		findings = append(findings, domain.NewFinding(domain.FindingInput{
			File:       path,
			Line:       fn.startLine,
			Severity:   domain.SeverityMedium,
			Category:   domain.CategoryQuality,
			Rule:       "complexity",
			Message:    fmt.Sprintf("Function %q is too complex (estimated complexity: %d, threshold: %d)", fn.name, complexity, q.complexity),
			Suggestion: "Reduce complexity by extracting logic into helper functions",
		}))
	}

	return findings
}

// duplicateBlockSize is the minimum block length considered for duplication.
const duplicateBlockSize = 5

func (q *Quality) checkDuplication(path string, lines []string) []domain.Finding {
	if len(lines) < 2*duplicateBlockSize {
		return nil
	}

	blocks := make(map[string][]int)
	for i := 0; i+duplicateBlockSize <= len(lines); i++ {
		block := strings.Join(lines[i:i+duplicateBlockSize], "\n")
		if strings.TrimSpace(block) == "" {
			continue
		}
		blocks[block] = append(blocks[block], i+1)
	}

	var findings []domain.Finding
	seen := map[int]bool{}
	for _, starts := range blocks {
		if len(starts) < 2 {
			continue
		}
		first := starts[0]
		if seen[first] {
			continue
		}
		seen[first] = true

		positions := make([]string, len(starts))
		for i, s := range starts {
			positions[i] = fmt.Sprintf("%d", s)
		}
		findings = append(findings, domain.NewFinding(domain.FindingInput{
			File:       path,
			Line:       first,
			Severity:   domain.SeverityMedium,
			Category:   domain.CategoryQuality,
			Rule:       "duplication",
			Message:    fmt.Sprintf("Duplicated code block found at lines %s", strings.Join(positions, ", ")),
			Suggestion: "Extract duplicated code into a reusable function",
		}))
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].Line < findings[j].Line })
	return findings
}

// function is a detected function definition with its line span.
type function struct {
	name      string
	startLine int
	endLine   int
}

func (f function) length() int { return f.endLine - f.startLine + 1 }

// languagePatterns describe how to detect function starts and ends for a
// language family.
type languagePatterns struct {
	starts    []*regexp.Regexp
	braceEnds bool // brace-counting languages; otherwise blank-line terminated (Python)
}

var (
	pythonFuncRe = regexp.MustCompile(`^\s*def\s+([A-Za-z_]\w*)\s*\(`)
	jsFuncRe     = regexp.MustCompile(`^\s*function\s+([A-Za-z_$][\w$]*)\s*\(`)
	jsArrowRe    = regexp.MustCompile(`^\s*(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?\(.*\)\s*=>`)
	goFuncRe     = regexp.MustCompile(`^func\s+(?:\([^)]*\)\s+)?([A-Za-z_]\w*)\s*\(`)
	javaMethodRe = regexp.MustCompile(`^\s*(?:public|private|protected|static|\s)+[\w<>\[\]]+\s+([A-Za-z_]\w*)\s*\(`)
)

func functionPatterns(ext string) (languagePatterns, bool) {
	switch ext {
	case ".py":
		return languagePatterns{starts: []*regexp.Regexp{pythonFuncRe}, braceEnds: false}, true
	case ".js", ".jsx", ".ts", ".tsx":
		return languagePatterns{starts: []*regexp.Regexp{jsFuncRe, jsArrowRe}, braceEnds: true}, true
	case ".go":
		return languagePatterns{starts: []*regexp.Regexp{goFuncRe}, braceEnds: true}, true
	case ".java", ".c", ".cpp", ".h", ".hpp", ".cs":
		return languagePatterns{starts: []*regexp.Regexp{javaMethodRe}, braceEnds: true}, true
	case ".rb", ".php":
		return languagePatterns{starts: []*regexp.Regexp{jsFuncRe}, braceEnds: true}, true
	default:
		return languagePatterns{}, false
	}
}

// findFunctions locates function definitions and their extents. For brace
// languages the end is found by counting braces; for Python a function ends
// at the first line indented at or below the def's indentation.
func findFunctions(lines []string, patterns languagePatterns) []function {
	var functions []function

	for i := 0; i < len(lines); i++ {
		name, ok := matchFunctionStart(lines[i], patterns.starts)
		if !ok {
			continue
		}

		start := i + 1
		var end int
		if patterns.braceEnds {
			end = findBraceEnd(lines, i)
		} else {
			end = findIndentEnd(lines, i)
		}

		functions = append(functions, function{name: name, startLine: start, endLine: end})
		i = end - 1
	}

	return functions
}

func matchFunctionStart(line string, starts []*regexp.Regexp) (string, bool) {
	for _, re := range starts {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func findBraceEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		depth += strings.Count(lines[i], "{")
		depth -= strings.Count(lines[i], "}")
		if strings.Contains(lines[i], "{") {
			opened = true
		}
		if opened && depth <= 0 {
			return i + 1
		}
	}
	return len(lines)
}

func findIndentEnd(lines []string, start int) int {
	baseIndent := indentWidth(lines[start])
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if indentWidth(line) <= baseIndent {
			return i
		}
	}
	return len(lines)
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

var controlFlowRe = regexp.MustCompile(`\bif\b|\belse\b|\bfor\b|\bwhile\b|\bswitch\b|\bcase\b|\bcatch\b|&&|\|\|`)

// estimateComplexity counts control-flow constructs as a proxy for
// cyclomatic complexity. Base complexity is 1.
func estimateComplexity(lines []string) int {
	complexity := 1
	for _, line := range lines {
		complexity += len(controlFlowRe.FindAllString(line, -1))
	}
	return complexity
}

var commentedCodeRes = []*regexp.Regexp{
	regexp.MustCompile(`\bif\b.*[:{(]`),
	regexp.MustCompile(`\bfor\b.*[:{(]`),
	regexp.MustCompile(`\bwhile\b.*[:{(]`),
	regexp.MustCompile(`\bdef\b.*:`),
	regexp.MustCompile(`\bclass\b.*[:{]`),
	regexp.MustCompile(`\breturn\b`),
	regexp.MustCompile(`\bfunction\b`),
	regexp.MustCompile(`^(?:var|let|const)\s`),
	regexp.MustCompile(`=\s*\w+\(`),
}

// checkCommentedCode reports comments that look like disabled code.
func checkCommentedCode(path string, lines []string, ext string) []domain.Finding {
	var marker string
	switch ext {
	case ".py", ".rb", ".sh", ".yaml", ".yml":
		marker = "#"
	case ".js", ".jsx", ".ts", ".tsx", ".java", ".c", ".cpp", ".h", ".hpp", ".go", ".cs", ".php":
		marker = "//"
	default:
		return nil
	}

	var findings []domain.Finding
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, marker) {
			continue
		}
		comment := strings.TrimSpace(strings.TrimPrefix(trimmed, marker))
		for _, re := range commentedCodeRes {
			if re.MatchString(comment) {
				findings = append(findings, domain.NewFinding(domain.FindingInput{
					File:       path,
					Line:       i + 1,
					Severity:   domain.SeverityLow,
					Category:   domain.CategoryQuality,
					Rule:       "commented_code",
					Message:    "Commented-out code found",
					Suggestion: "Remove commented-out code or add a clear explanation for why it's kept",
				}))
				break
			}
		}
	}
	return findings
}
