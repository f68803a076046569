package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	// ConfigFile is an explicit config file path (--config). When set, file
	// discovery is skipped and a missing file is an error.
	ConfigFile  string
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "prr"
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = locateConfigFile(name, opts.ConfigPaths)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "PRR"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg = expandEnvVars(cfg)
	cfg = applyEnvFallbacks(cfg)

	if len(cfg.ExcludePatterns) == 0 {
		cfg.ExcludePatterns = DefaultExcludePatterns()
	}

	return cfg, nil
}

// applyEnvFallbacks fills credentials and repository identity from the
// conventional environment variables when the config file leaves them unset.
func applyEnvFallbacks(cfg Config) Config {
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.GitHub.Owner == "" {
		cfg.GitHub.Owner = os.Getenv("GITHUB_OWNER")
	}
	if cfg.GitHub.Repo == "" {
		cfg.GitHub.Repo = os.Getenv("GITHUB_REPO")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.GitHub.Token = expandEnvString(cfg.GitHub.Token)
	cfg.GitHub.Owner = expandEnvString(cfg.GitHub.Owner)
	cfg.GitHub.Repo = expandEnvString(cfg.GitHub.Repo)
	cfg.GitHub.BaseURL = expandEnvString(cfg.GitHub.BaseURL)

	cfg.LLM.APIKey = expandEnvString(cfg.LLM.APIKey)
	cfg.LLM.Model = expandEnvString(cfg.LLM.Model)

	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)

	cfg.Output.Directory = expandEnvString(cfg.Output.Directory)
	cfg.Store.Path = expandEnvString(cfg.Store.Path)

	cfg.Logging.Level = expandEnvString(cfg.Logging.Level)
	cfg.Logging.Format = expandEnvString(cfg.Logging.Format)

	cfg.ExcludePatterns = expandEnvStringSlice(cfg.ExcludePatterns)

	return cfg
}

var (
	bracedVarRe = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	bareVarRe   = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
// Unset variables are left untouched.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	s = bracedVarRe.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	s = bareVarRe.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

func expandEnvStringSlice(slice []string) []string {
	if len(slice) == 0 {
		return slice
	}
	result := make([]string, len(slice))
	for i, s := range slice {
		result[i] = expandEnvString(s)
	}
	return result
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.maxPRsPerRun", 10)

	v.SetDefault("style.enabled", true)
	v.SetDefault("style.maxLineLength", 100)
	v.SetDefault("style.indentSize", 4)

	v.SetDefault("security.enabled", true)
	v.SetDefault("security.severityThreshold", "low")

	v.SetDefault("quality.enabled", true)
	v.SetDefault("quality.functionLength", 50)
	v.SetDefault("quality.fileLength", 500)
	v.SetDefault("quality.complexity", 10)

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.maxTokens", 1000)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.maxFileBytes", 10000)

	// HTTP defaults
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.maxRetries", 3)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "32s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	v.SetDefault("output.directory", "out")
	v.SetDefault("output.formats", []string{"markdown", "json"})

	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.redactSecrets", true)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./reviews.db"
	}
	return filepath.Join(home, ".config", "prr", "reviews.db")
}
