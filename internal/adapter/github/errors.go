package github

import (
	"errors"
	"fmt"

	gh "github.com/google/go-github/v82/github"

	"github.com/reviewbot/prr/internal/adapter/httpx"
)

// mapAPIError converts go-github errors into typed httpx errors so the rest
// of the pipeline can reason about retryability and auth failures uniformly.
func mapAPIError(operation string, err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &httpx.Error{
			Type:       httpx.ErrTypeRateLimit,
			Message:    fmt.Sprintf("%s: %s", operation, rateErr.Message),
			StatusCode: 429,
			Retryable:  true,
			Service:    serviceName,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &httpx.Error{
			Type:       httpx.ErrTypeRateLimit,
			Message:    fmt.Sprintf("%s: %s", operation, abuseErr.Message),
			StatusCode: 429,
			Retryable:  true,
			Service:    serviceName,
		}
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		message := respErr.Message
		if message == "" {
			message = respErr.Error()
		}
		return httpx.MapStatusCode(serviceName, respErr.Response.StatusCode,
			fmt.Sprintf("%s: %s", operation, message))
	}

	return fmt.Errorf("%s: %w", operation, err)
}
