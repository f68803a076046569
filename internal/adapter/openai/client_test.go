package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewbot/prr/internal/adapter/httpx"
)

func fastRetry() *httpx.RetryConfig {
	return &httpx.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func completionResponse(content string) chatResponse {
	return chatResponse{
		Choices: []chatChoice{
			{Message: chatMessage{Role: "assistant", Content: content}, FinishReason: "stop"},
		},
	}
}

func TestCompleteSendsRequestAndParsesResponse(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse("looks good")))
	}))
	defer server.Close()

	client := NewClient("test-key", "gpt-4o-mini", Options{Temperature: 0.2, MaxTokens: 512, Retry: fastRetry()})
	client.SetBaseURL(server.URL)

	got, err := client.Complete(context.Background(), "be brief", "review this")
	require.NoError(t, err)

	assert.Equal(t, "looks good", got)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "be brief", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.InDelta(t, 0.2, gotReq.Temperature, 0.001)
	assert.Equal(t, 512, gotReq.MaxTokens)
}

func TestCompleteRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(completionResponse("ok")))
	}))
	defer server.Close()

	client := NewClient("test-key", "gpt-4o-mini", Options{Retry: fastRetry()})
	client.SetBaseURL(server.URL)

	got, err := client.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompleteDoesNotRetryAuthErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(chatResponse{Error: &apiError{Message: "invalid api key"}})
	}))
	defer server.Close()

	client := NewClient("bad-key", "gpt-4o-mini", Options{Retry: fastRetry()})
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)

	var apiErr *httpx.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, httpx.ErrTypeAuthentication, apiErr.Type)
	assert.Contains(t, apiErr.Message, "invalid api key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestCompleteMapsRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-key", "gpt-4o-mini", Options{Retry: fastRetry()})
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)

	var apiErr *httpx.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, httpx.ErrTypeRateLimit, apiErr.Type)
	assert.True(t, apiErr.IsRetryable())
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(chatResponse{}))
	}))
	defer server.Close()

	client := NewClient("test-key", "gpt-4o-mini", Options{Retry: fastRetry()})
	client.SetBaseURL(server.URL)

	_, err := client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}
