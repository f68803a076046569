package httpx

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Logger provides structured logging for API calls and pipeline events.
type Logger interface {
	// LogRequest logs an outgoing API request (secrets redacted)
	LogRequest(ctx context.Context, req RequestLog)

	// LogResponse logs an API response with timing info
	LogResponse(ctx context.Context, resp ResponseLog)

	// LogError logs an API error
	LogError(ctx context.Context, err ErrorLog)

	// LogInfo logs an informational pipeline event with structured fields
	LogInfo(ctx context.Context, message string, fields map[string]interface{})

	// LogWarning logs a warning pipeline event with structured fields
	LogWarning(ctx context.Context, message string, fields map[string]interface{})

	// LogDebug logs a debug pipeline event with structured fields
	LogDebug(ctx context.Context, message string, fields map[string]interface{})
}

// RequestLog contains request information for logging.
type RequestLog struct {
	Service   string
	Method    string
	Path      string
	Timestamp time.Time
}

// ResponseLog contains response information for logging.
type ResponseLog struct {
	Service    string
	Method     string
	Path       string
	Timestamp  time.Time
	Duration   time.Duration
	StatusCode int
}

// ErrorLog contains error information for logging.
type ErrorLog struct {
	Service    string
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
	ErrorType  ErrorType
	StatusCode int
	Retryable  bool
}

// LogLevel defines the logging verbosity level.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelError
)

// LogFormat defines the output format for logs.
type LogFormat int

const (
	LogFormatHuman LogFormat = iota
	LogFormatJSON
)

// DefaultLogger writes logs in structured format via the standard log package.
type DefaultLogger struct {
	level         LogLevel
	format        LogFormat
	redactSecrets bool
}

// NewDefaultLogger creates a logger with the specified config.
func NewDefaultLogger(level LogLevel, format LogFormat, redactSecrets bool) *DefaultLogger {
	return &DefaultLogger{
		level:         level,
		format:        format,
		redactSecrets: redactSecrets,
	}
}

// LogRequest logs an API request at debug level.
func (l *DefaultLogger) LogRequest(ctx context.Context, req RequestLog) {
	if l.level > LogLevelDebug {
		return
	}

	path := req.Path
	if l.redactSecrets {
		path = RedactURLSecrets(path)
	}

	if l.format == LogFormatJSON {
		l.emitJSON("debug", "request", map[string]interface{}{
			"service":   req.Service,
			"method":    req.Method,
			"path":      path,
			"timestamp": req.Timestamp.Format(time.RFC3339),
		})
	} else {
		log.Printf("[DEBUG] %s: %s %s", req.Service, req.Method, path)
	}
}

// LogResponse logs an API response at info level.
func (l *DefaultLogger) LogResponse(ctx context.Context, resp ResponseLog) {
	if l.level > LogLevelInfo {
		return
	}

	path := resp.Path
	if l.redactSecrets {
		path = RedactURLSecrets(path)
	}

	if l.format == LogFormatJSON {
		l.emitJSON("info", "response", map[string]interface{}{
			"service":     resp.Service,
			"method":      resp.Method,
			"path":        path,
			"timestamp":   resp.Timestamp.Format(time.RFC3339),
			"duration_ms": resp.Duration.Milliseconds(),
			"status_code": resp.StatusCode,
		})
	} else {
		log.Printf("[INFO] %s: %s %s -> %d (%.1fs)",
			resp.Service, resp.Method, path, resp.StatusCode, resp.Duration.Seconds())
	}
}

// LogError logs an API error.
func (l *DefaultLogger) LogError(ctx context.Context, errLog ErrorLog) {
	if l.level > LogLevelError {
		return
	}

	message := errLog.Error.Error()
	if l.redactSecrets {
		message = RedactURLSecrets(message)
	}

	retryableStr := "non-retryable"
	if errLog.Retryable {
		retryableStr = "retryable"
	}

	if l.format == LogFormatJSON {
		l.emitJSON("error", "error", map[string]interface{}{
			"service":     errLog.Service,
			"timestamp":   errLog.Timestamp.Format(time.RFC3339),
			"duration_ms": errLog.Duration.Milliseconds(),
			"error":       message,
			"error_type":  errLog.ErrorType.String(),
			"status_code": errLog.StatusCode,
			"retryable":   errLog.Retryable,
		})
	} else {
		log.Printf("[ERROR] %s: %s (%s, status=%d)",
			errLog.Service, message, retryableStr, errLog.StatusCode)
	}
}

// LogInfo logs an informational pipeline event.
func (l *DefaultLogger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelInfo {
		return
	}
	l.emitEvent("info", "[INFO]", message, fields)
}

// LogWarning logs a warning pipeline event. Warnings are always emitted.
func (l *DefaultLogger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.emitEvent("warning", "[WARN]", message, fields)
}

// LogDebug logs a debug pipeline event.
func (l *DefaultLogger) LogDebug(ctx context.Context, message string, fields map[string]interface{}) {
	if l.level > LogLevelDebug {
		return
	}
	l.emitEvent("debug", "[DEBUG]", message, fields)
}

func (l *DefaultLogger) emitEvent(level, prefix, message string, fields map[string]interface{}) {
	if l.redactSecrets {
		message = RedactURLSecrets(message)
	}

	if l.format == LogFormatJSON {
		payload := map[string]interface{}{
			"message":   message,
			"timestamp": time.Now().Format(time.RFC3339),
		}
		for k, v := range fields {
			payload[k] = v
		}
		l.emitJSON(level, "event", payload)
		return
	}

	if len(fields) == 0 {
		log.Printf("%s %s", prefix, message)
		return
	}
	log.Printf("%s %s %v", prefix, message, fields)
}

func (l *DefaultLogger) emitJSON(level, logType string, fields map[string]interface{}) {
	payload := map[string]interface{}{
		"level": level,
		"type":  logType,
	}
	for k, v := range fields {
		payload[k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf(`{"level":"error","type":"logger","message":"failed to marshal log entry: %v"}`, err)
		return
	}
	log.Print(string(data))
}
