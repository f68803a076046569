// Package openai provides a minimal OpenAI chat completions client used by
// the optional LLM analyzer.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reviewbot/prr/internal/adapter/httpx"
)

const (
	serviceName    = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
)

// Client calls the OpenAI chat completions endpoint with retry and
// structured logging.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	baseURL     string
	httpClient  *http.Client
	retryConf   httpx.RetryConfig
	logger      httpx.Logger
}

// Options configure optional client behavior.
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Retry       *httpx.RetryConfig
}

// NewClient creates an OpenAI client for the given key and model.
func NewClient(apiKey, model string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retryConf := httpx.DefaultRetryConfig()
	if opts.Retry != nil {
		retryConf = *opts.Retry
	}
	return &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: timeout},
		retryConf:   retryConf,
	}
}

// SetBaseURL sets a custom base URL (for testing).
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetLogger wires a structured logger into the client.
func (c *Client) SetLogger(logger httpx.Logger) {
	c.logger = logger
}

// Complete sends a system+user prompt pair and returns the assistant text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	start := time.Now()

	if c.logger != nil {
		c.logger.LogRequest(ctx, httpx.RequestLog{
			Service:   serviceName,
			Method:    http.MethodPost,
			Path:      url,
			Timestamp: start,
		})
	}

	var body []byte
	var statusCode int
	err = httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return &httpx.Error{Type: httpx.ErrTypeUnknown, Message: reqErr.Error(), Service: serviceName}
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, callErr := c.httpClient.Do(req)
		if callErr != nil {
			return httpx.NewTimeoutError(serviceName, callErr.Error())
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return httpx.NewTimeoutError(serviceName, readErr.Error())
		}

		if resp.StatusCode >= 400 {
			return httpx.MapStatusCode(serviceName, resp.StatusCode, apiErrorMessage(respBody))
		}

		body = respBody
		return nil
	}, c.retryConf)

	if err != nil {
		if c.logger != nil {
			c.logger.LogError(ctx, httpx.ErrorLog{
				Service:    serviceName,
				Timestamp:  time.Now(),
				Duration:   time.Since(start),
				Error:      err,
				StatusCode: statusCode,
				Retryable:  httpx.ShouldRetry(err),
			})
		}
		return "", err
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, httpx.ResponseLog{
			Service:    serviceName,
			Method:     http.MethodPost,
			Path:       url,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
			StatusCode: statusCode,
		})
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response: %s", httpx.TruncateForLogging(string(body)))
	}

	return parsed.Choices[0].Message.Content, nil
}

// apiErrorMessage pulls the error message out of an OpenAI error envelope,
// falling back to the truncated raw body.
func apiErrorMessage(body []byte) string {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return httpx.TruncateForLogging(string(body))
}
