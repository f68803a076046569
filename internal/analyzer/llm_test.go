package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/domain"
)

type fakeCompletionClient struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
	calls      int
}

func (f *fakeCompletionClient) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.lastSystem = system
	f.lastUser = user
	return f.response, f.err
}

func TestLLMParsesIssuesFromResponse(t *testing.T) {
	client := &fakeCompletionClient{
		response: `Here is my review:
[
  {"line": 3, "message": "unchecked error", "severity": "high", "suggestion": "handle the error"},
  {"line": 7, "message": "magic number", "severity": "low", "suggestion": "name the constant"}
]
Let me know if you need more detail.`,
	}
	llm := NewLLM(client, config.LLMConfig{Enabled: true})

	findings, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "internal/service.go",
		Content: "func run() {}\n",
	})
	require.NoError(t, err)

	require.Len(t, findings, 2)
	assert.Equal(t, 3, findings[0].Line)
	assert.Equal(t, domain.SeverityHigh, findings[0].Severity)
	assert.Equal(t, "llm_review", findings[0].Rule)
	assert.Equal(t, domain.CategoryLLM, findings[0].Category)
	assert.Equal(t, "handle the error", findings[0].Suggestion)
	assert.Equal(t, domain.SeverityLow, findings[1].Severity)
}

func TestLLMDefaultsInvalidSeverity(t *testing.T) {
	client := &fakeCompletionClient{
		response: `[{"line": 1, "message": "odd style", "severity": "catastrophic", "suggestion": "fix"}]`,
	}
	llm := NewLLM(client, config.LLMConfig{Enabled: true})

	findings, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "app/main.py",
		Content: "print(1)\n",
	})
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, domain.SeverityMedium, findings[0].Severity)
}

func TestLLMDropsIssuesWithoutMessage(t *testing.T) {
	client := &fakeCompletionClient{
		response: `[{"line": 1, "message": "", "severity": "low"}, {"line": 2, "message": "real issue", "severity": "low"}]`,
	}
	llm := NewLLM(client, config.LLMConfig{Enabled: true})

	findings, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "app/main.py",
		Content: "print(1)\n",
	})
	require.NoError(t, err)

	require.Len(t, findings, 1)
	assert.Equal(t, "real issue", findings[0].Message)
}

func TestLLMHandlesEmptyIssueList(t *testing.T) {
	client := &fakeCompletionClient{response: "No issues found: []"}
	llm := NewLLM(client, config.LLMConfig{Enabled: true})

	findings, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "app/main.py",
		Content: "print(1)\n",
	})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestLLMHandlesMalformedResponse(t *testing.T) {
	client := &fakeCompletionClient{response: "I could not produce JSON, sorry."}
	llm := NewLLM(client, config.LLMConfig{Enabled: true})

	findings, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "app/main.py",
		Content: "print(1)\n",
	})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestLLMSkipsUnsupportedExtensions(t *testing.T) {
	client := &fakeCompletionClient{response: "[]"}
	llm := NewLLM(client, config.LLMConfig{Enabled: true})

	findings, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "assets/logo.png",
		Content: "binary-ish",
	})
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Zero(t, client.calls)
}

func TestLLMSkipsEmptyContent(t *testing.T) {
	client := &fakeCompletionClient{response: "[]"}
	llm := NewLLM(client, config.LLMConfig{Enabled: true})

	findings, err := llm.Analyze(context.Background(), domain.ChangedFile{Path: "app/main.py", Content: "  \n"})
	require.NoError(t, err)
	assert.Empty(t, findings)
	assert.Zero(t, client.calls)
}

func TestLLMTruncatesLargeFiles(t *testing.T) {
	client := &fakeCompletionClient{response: "[]"}
	llm := NewLLM(client, config.LLMConfig{Enabled: true, MaxFileBytes: 100})

	_, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "app/big.py",
		Content: strings.Repeat("x = 1\n", 100),
	})
	require.NoError(t, err)

	assert.Contains(t, client.lastUser, "... (truncated)")
	assert.Contains(t, client.lastUser, "app/big.py")
}

func TestLLMTruncatesOnRuneBoundary(t *testing.T) {
	client := &fakeCompletionClient{response: "[]"}
	llm := NewLLM(client, config.LLMConfig{Enabled: true, MaxFileBytes: 10})

	// Nine 3-byte runes, 27 bytes total; a byte cut at 10 would split the
	// fourth rune.
	_, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "app/big.py",
		Content: strings.Repeat("世", 9),
	})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(client.lastUser), "prompt must stay valid UTF-8")
	assert.Contains(t, client.lastUser, "... (truncated)")
}

func TestLLMRedactsSecretsBeforePrompting(t *testing.T) {
	client := &fakeCompletionClient{response: "[]"}
	llm := NewLLM(client, config.LLMConfig{Enabled: true})

	_, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "app/settings.py",
		Content: `API_KEY = "sk-1234567890abcdefghijklmnopqrstuvwxyz"` + "\n",
	})
	require.NoError(t, err)

	assert.NotContains(t, client.lastUser, "sk-1234567890abcdefghijklmnopqrstuvwxyz")
	assert.Contains(t, client.lastUser, "<REDACTED:")
}

func TestLLMPropagatesClientError(t *testing.T) {
	client := &fakeCompletionClient{err: errors.New("rate limited")}
	llm := NewLLM(client, config.LLMConfig{Enabled: true})

	_, err := llm.Analyze(context.Background(), domain.ChangedFile{
		Path:    "app/main.py",
		Content: "print(1)\n",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app/main.py")
}
