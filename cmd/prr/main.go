package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/reviewbot/prr/internal/adapter/cli"
	"github.com/reviewbot/prr/internal/adapter/git"
	githubadapter "github.com/reviewbot/prr/internal/adapter/github"
	"github.com/reviewbot/prr/internal/adapter/httpx"
	"github.com/reviewbot/prr/internal/adapter/openai"
	"github.com/reviewbot/prr/internal/adapter/output/console"
	jsonwriter "github.com/reviewbot/prr/internal/adapter/output/json"
	"github.com/reviewbot/prr/internal/adapter/output/markdown"
	"github.com/reviewbot/prr/internal/adapter/output/sarif"
	"github.com/reviewbot/prr/internal/adapter/store/sqlite"
	"github.com/reviewbot/prr/internal/analyzer"
	"github.com/reviewbot/prr/internal/config"
	"github.com/reviewbot/prr/internal/store"
	"github.com/reviewbot/prr/internal/usecase/review"
	"github.com/reviewbot/prr/internal/version"
)

func main() {
	if err := run(); err != nil {
		// Redact API keys from URLs in error messages before logging
		log.Println(httpx.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var closers []io.Closer
	defer func() {
		for _, closer := range closers {
			_ = closer.Close()
		}
	}()

	build := func(configPath string, verbose bool) (cli.Reviewer, error) {
		orchestrator, closer, err := buildOrchestrator(configPath, verbose)
		if err != nil {
			return nil, err
		}
		if closer != nil {
			closers = append(closers, closer)
		}
		return orchestrator, nil
	}

	root := cli.NewRootCommand(cli.Dependencies{
		Build:   build,
		Version: version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// buildOrchestrator loads configuration and wires the review pipeline. The
// returned closer, when non-nil, owns the run store and must be closed when
// the process is done.
func buildOrchestrator(configPath string, verbose bool) (*review.Orchestrator, io.Closer, error) {
	cfg, err := config.Load(config.LoaderOptions{
		ConfigFile:  configPath,
		ConfigPaths: defaultConfigPaths(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Logging, verbose)

	deps := review.Deps{
		Analyzers:    buildAnalyzers(cfg, logger),
		Writers:      buildWriters(),
		Console:      console.NewRenderer(os.Stdout),
		BuildComment: markdown.BuildComment,
		Config:       cfg,
	}
	if logger != nil {
		deps.Logger = logger
	}

	// GitHub access is optional for `prr local`; the orchestrator rejects PR
	// reviews without it.
	if cfg.GitHub.Owner != "" && cfg.GitHub.Repo != "" {
		client, err := githubadapter.NewClient(cfg.GitHub)
		if err != nil {
			return nil, nil, err
		}
		if logger != nil {
			client.SetLogger(logger)
		}
		deps.GitHub = client
	}

	deps.Git = git.NewEngine(".")

	var closer io.Closer
	if cfg.Store.Enabled {
		runStore, err := openStore(cfg.Store)
		if err != nil {
			log.Printf("warning: run store unavailable, skip-unchanged tracking disabled: %v", err)
		} else {
			deps.Store = runStore
			closer = runStore
		}
	}

	return review.NewOrchestrator(deps), closer, nil
}

// buildLogger creates the structured logger, or nil when logging is disabled.
// The --verbose flag forces debug level regardless of configuration.
func buildLogger(cfg config.LoggingConfig, verbose bool) *httpx.DefaultLogger {
	if !cfg.Enabled && !verbose {
		return nil
	}

	level := httpx.LogLevelInfo
	switch cfg.Level {
	case "debug":
		level = httpx.LogLevelDebug
	case "error":
		level = httpx.LogLevelError
	}
	if verbose {
		level = httpx.LogLevelDebug
	}

	format := httpx.LogFormatHuman
	if cfg.Format == "json" {
		format = httpx.LogFormatJSON
	}

	return httpx.NewDefaultLogger(level, format, cfg.RedactSecrets)
}

// buildAnalyzers assembles the enabled analyzers. The LLM analyzer needs an
// API key and is skipped with a note when none is configured. The logger
// parameter stays the concrete type so the nil check below is reliable; a
// nil *DefaultLogger stored in the Logger interface compares non-nil and
// panics on first use.
func buildAnalyzers(cfg config.Config, logger *httpx.DefaultLogger) []review.Analyzer {
	var analyzers []review.Analyzer

	if cfg.Style.Enabled {
		analyzers = append(analyzers, analyzer.NewStyle(cfg.Style))
	}
	if cfg.Security.Enabled {
		analyzers = append(analyzers, analyzer.NewSecurity(cfg.Security))
	}
	if cfg.Quality.Enabled {
		analyzers = append(analyzers, analyzer.NewQuality(cfg.Quality))
	}

	if cfg.LLM.Enabled {
		if cfg.LLM.APIKey == "" {
			log.Println("LLM analyzer enabled but no API key configured, skipping")
		} else {
			analyzers = append(analyzers, analyzer.NewLLM(buildLLMClient(cfg, logger), cfg.LLM))
		}
	}

	return analyzers
}

func buildLLMClient(cfg config.Config, logger *httpx.DefaultLogger) *openai.Client {
	retry := retryConfig(cfg.HTTP)
	client := openai.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, openai.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     parseDuration(cfg.HTTP.Timeout, 60*time.Second),
		Retry:       &retry,
	})
	if logger != nil {
		client.SetLogger(logger)
	}
	return client
}

func buildWriters() map[string]review.ReportWriter {
	// Timestamp function for deterministic output file naming
	nowFunc := func() string {
		return time.Now().UTC().Format("20060102T150405Z")
	}

	return map[string]review.ReportWriter{
		"markdown": markdown.NewWriter(nowFunc),
		"json":     jsonwriter.NewWriter(nowFunc),
		"sarif":    sarif.NewWriter(nowFunc),
	}
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return sqlite.NewStore(cfg.Path)
}

// retryConfig maps HTTP settings onto the retry policy, falling back to the
// defaults for unset or unparsable values.
func retryConfig(cfg config.HTTPConfig) httpx.RetryConfig {
	retry := httpx.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxRetries = cfg.MaxRetries
	}
	retry.InitialBackoff = parseDuration(cfg.InitialBackoff, retry.InitialBackoff)
	retry.MaxBackoff = parseDuration(cfg.MaxBackoff, retry.MaxBackoff)
	if cfg.BackoffMultiplier > 0 {
		retry.Multiplier = cfg.BackoffMultiplier
	}
	return retry
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "prr"))
	}
	return paths
}

// Compile-time interface compliance checks
var _ review.GitHubClient = (*githubadapter.Client)(nil)
var _ review.GitEngine = (*git.Engine)(nil)
var _ review.Analyzer = (*analyzer.Style)(nil)
var _ review.Analyzer = (*analyzer.Security)(nil)
var _ review.Analyzer = (*analyzer.Quality)(nil)
var _ review.Analyzer = (*analyzer.LLM)(nil)
var _ review.ReportWriter = (*markdown.Writer)(nil)
var _ review.ReportWriter = (*jsonwriter.Writer)(nil)
var _ review.ReportWriter = (*sarif.Writer)(nil)
var _ review.ConsoleRenderer = (*console.Renderer)(nil)
var _ review.Logger = (*httpx.DefaultLogger)(nil)
var _ store.Store = (*sqlite.Store)(nil)
