package httpx

import (
	"fmt"
	"regexp"
)

// MaxLoggedBodyLength is the maximum length of response text to include in
// logs. Bodies longer than this are truncated so source code and secrets do
// not end up in log aggregators.
const MaxLoggedBodyLength = 200

// TruncateForLogging safely truncates a response string for logging purposes.
func TruncateForLogging(body string) string {
	if len(body) <= MaxLoggedBodyLength {
		return body
	}
	return body[:MaxLoggedBodyLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(body))
}

var secretParamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(key)=([^&"\s]+)`),
	regexp.MustCompile(`(apiKey)=([^&"\s]+)`),
	regexp.MustCompile(`(api_key)=([^&"\s]+)`),
	regexp.MustCompile(`(token)=([^&"\s]+)`),
	regexp.MustCompile(`(access_token)=([^&"\s]+)`),
}

// RedactURLSecrets redacts API keys and tokens from URLs in error messages.
// This prevents credentials from leaking when URLs with query parameters
// appear in error messages or logs.
//
// Example:
//
//	input:  "https://api.example.com/endpoint?token=secret123&foo=bar"
//	output: "https://api.example.com/endpoint?token=[REDACTED]&foo=bar"
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}

	result := text
	for _, re := range secretParamPatterns {
		result = re.ReplaceAllString(result, "$1=[REDACTED]")
	}
	return result
}
