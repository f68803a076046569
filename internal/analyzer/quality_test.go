package analyzer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/domain"
)

func qualityAnalyzer() *Quality {
	return NewQuality(config.QualityConfig{
		Enabled:        true,
		FunctionLength: 10,
		FileLength:     50,
		Complexity:     5,
	})
}

func TestQualityFlagsLongFile(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "value_%d = %d\n", i, i)
	}
	file := domain.ChangedFile{Path: "app/big.py", Content: b.String()}

	findings, err := qualityAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	assert.Contains(t, rulesOf(findings), "file_length")
}

func TestQualityFlagsLongGoFunction(t *testing.T) {
	var b strings.Builder
	b.WriteString("func process() {\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "\tstep%d()\n", i)
	}
	b.WriteString("}\n")
	file := domain.ChangedFile{Path: "internal/worker.go", Content: b.String()}

	findings, err := qualityAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	require.Contains(t, rulesOf(findings), "function_length")
	for _, f := range findings {
		if f.Rule == "function_length" {
			assert.Contains(t, f.Message, `"process"`)
			assert.Equal(t, 1, f.Line)
		}
	}
}

func TestQualityFlagsLongPythonFunction(t *testing.T) {
	var b strings.Builder
	b.WriteString("def handler(event):\n")
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, "    step_%d()\n", i)
	}
	b.WriteString("\nTOP_LEVEL = 1\n")
	file := domain.ChangedFile{Path: "app/handler.py", Content: b.String()}

	findings, err := qualityAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	assert.Contains(t, rulesOf(findings), "function_length")
}

func TestQualityFlagsComplexFunction(t *testing.T) {
	var b strings.Builder
	b.WriteString("func decide(x int) int {\n")
	for i := 0; i < 6; i++ {
		fmt.Fprintf(&b, "\tif x == %d { return %d }\n", i, i)
	}
	b.WriteString("\treturn -1\n}\n")
	file := domain.ChangedFile{Path: "internal/decide.go", Content: b.String()}

	findings, err := qualityAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	assert.Contains(t, rulesOf(findings), "complexity")
}

func TestQualityFlagsDuplicatedBlocks(t *testing.T) {
	block := "a()\nb()\nc()\nd()\ne()\n"
	content := block + "separator_one()\nseparator_two()\n" + block
	file := domain.ChangedFile{Path: "app/dup.py", Content: content}

	findings, err := qualityAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	assert.Contains(t, rulesOf(findings), "duplication")
}

func TestQualityFlagsCommentedOutCode(t *testing.T) {
	file := domain.ChangedFile{
		Path:    "src/legacy.js",
		Content: "let active = 1\n// return oldValue\n",
	}

	findings, err := qualityAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)

	require.Contains(t, rulesOf(findings), "commented_code")
	for _, f := range findings {
		if f.Rule == "commented_code" {
			assert.Equal(t, 2, f.Line)
		}
	}
}

func TestQualityIgnoresProseComments(t *testing.T) {
	file := domain.ChangedFile{
		Path:    "src/doc.js",
		Content: "// This module handles widget assembly.\nlet x = 1\n",
	}

	findings, err := qualityAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)
	assert.NotContains(t, rulesOf(findings), "commented_code")
}

func TestQualityCleanShortFile(t *testing.T) {
	file := domain.ChangedFile{
		Path:    "internal/ok.go",
		Content: "func ok() bool {\n\treturn true\n}\n",
	}

	findings, err := qualityAnalyzer().Analyze(context.Background(), file)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestEstimateComplexity(t *testing.T) {
	lines := []string{
		"if a && b {",
		"} else if c || d {",
		"for i := range xs {",
	}
	// 1 base + if + && + else + if + || + for = 7
	assert.Equal(t, 7, estimateComplexity(lines))
}

func TestFindFunctionsBraceCounting(t *testing.T) {
	lines := splitLines("func one() {\n\tx()\n}\n\nfunc two() {\n\ty()\n}\n")

	patterns, ok := functionPatterns(".go")
	require.True(t, ok)

	functions := findFunctions(lines, patterns)
	require.Len(t, functions, 2)
	assert.Equal(t, "one", functions[0].name)
	assert.Equal(t, 1, functions[0].startLine)
	assert.Equal(t, 3, functions[0].endLine)
	assert.Equal(t, "two", functions[1].name)
	assert.Equal(t, 5, functions[1].startLine)
}
