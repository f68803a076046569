package config

// Config represents the full application configuration.
type Config struct {
	General         GeneralConfig  `yaml:"general"`
	Style           StyleConfig    `yaml:"style"`
	Security        SecurityConfig `yaml:"security"`
	Quality         QualityConfig  `yaml:"quality"`
	LLM             LLMConfig      `yaml:"llm"`
	GitHub          GitHubConfig   `yaml:"github"`
	HTTP            HTTPConfig     `yaml:"http"`
	Output          OutputConfig   `yaml:"output"`
	Store           StoreConfig    `yaml:"store"`
	Logging         LoggingConfig  `yaml:"logging"`
	ExcludePatterns []string       `yaml:"excludePatterns"`
}

// GeneralConfig holds run-wide settings.
type GeneralConfig struct {
	// MaxPRsPerRun caps how many pull requests a single --all run reviews.
	MaxPRsPerRun int `yaml:"maxPRsPerRun"`
}

// StyleConfig configures the style analyzer.
type StyleConfig struct {
	Enabled       bool `yaml:"enabled"`
	MaxLineLength int  `yaml:"maxLineLength"`
	IndentSize    int  `yaml:"indentSize"`
}

// SecurityConfig configures the security analyzer.
type SecurityConfig struct {
	Enabled bool `yaml:"enabled"`

	// SeverityThreshold drops security findings below this severity.
	// Valid values: critical, high, medium, low, info, none.
	SeverityThreshold string `yaml:"severityThreshold"`
}

// QualityConfig configures the quality analyzer thresholds.
type QualityConfig struct {
	Enabled        bool `yaml:"enabled"`
	FunctionLength int  `yaml:"functionLength"` // max function length in lines
	FileLength     int  `yaml:"fileLength"`     // max file length in lines
	Complexity     int  `yaml:"complexity"`     // max estimated cyclomatic complexity
}

// LLMConfig configures the optional LLM analyzer.
// The analyzer is skipped when no API key is available.
type LLMConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Model        string  `yaml:"model"`
	APIKey       string  `yaml:"apiKey"`
	MaxTokens    int     `yaml:"maxTokens"`
	Temperature  float64 `yaml:"temperature"`
	MaxFileBytes int     `yaml:"maxFileBytes"` // files larger than this are truncated before prompting
}

// GitHubConfig identifies the repository under review.
// Token, Owner and Repo fall back to the GITHUB_TOKEN, GITHUB_OWNER and
// GITHUB_REPO environment variables when unset.
type GitHubConfig struct {
	Token string `yaml:"token"`
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`

	// BaseURL overrides the GitHub API endpoint (GitHub Enterprise, tests).
	BaseURL string `yaml:"baseURL"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// OutputConfig controls on-disk report artifacts.
type OutputConfig struct {
	Directory string   `yaml:"directory"`
	Formats   []string `yaml:"formats"` // markdown, json, sarif
}

// StoreConfig configures the persistence layer used for skip-unchanged
// tracking and run history.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactSecrets bool   `yaml:"redactSecrets"`
}

// DefaultExcludePatterns mirror the stock exclusion list for generated,
// vendored, and binary content.
func DefaultExcludePatterns() []string {
	return []string{
		"node_modules/",
		"vendor/",
		"venv/",
		".git/",
		"__pycache__/",
		"*.min.js",
		"*.min.css",
		"*.svg",
		"*.png",
		"*.jpg",
		"*.jpeg",
		"*.gif",
		"*.pdf",
		"*.lock",
		"package-lock.json",
	}
}
