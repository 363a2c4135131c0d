// Package config loads research agent settings from defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Protocol-Lattice/research-agent/pkg/helpers"
	"github.com/Protocol-Lattice/research-agent/pkg/models"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	defaultProvider      = "gemini"
	defaultTemperature   = 0.1
	defaultMaxIterations = 10
	defaultTopK          = 3
	defaultMaxChars      = 1000
	defaultLanguage      = "en"
	defaultMaxResults    = 5
	defaultWebTimeout    = 15 * time.Second
	defaultMongoDatabase = "research_agent"
	defaultLogLevel      = "warn"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "RESEARCH_"

type Config struct {
	Provider      string          `yaml:"provider"`
	Model         string          `yaml:"model"`
	Temperature   float64         `yaml:"temperature"`
	MaxIterations int             `yaml:"max_iterations"`
	MaxTokens     int             `yaml:"max_tokens"`
	Preamble      bool            `yaml:"preamble"`
	Tools         []string        `yaml:"tools"`
	Wikipedia     WikipediaConfig `yaml:"wikipedia"`
	WebSearch     WebSearchConfig `yaml:"web_search"`
	Journal       JournalConfig   `yaml:"journal"`
	UTCP          UTCPConfig      `yaml:"utcp"`
	LogLevel      string          `yaml:"log_level"`
}

type WikipediaConfig struct {
	TopK     int    `yaml:"top_k"`
	MaxChars int    `yaml:"max_chars"`
	Language string `yaml:"language"`
}

type WebSearchConfig struct {
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
}

// JournalConfig selects run journal backends. Empty values disable a backend.
type JournalConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

type UTCPConfig struct {
	ProvidersFile string `yaml:"providers_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:      defaultProvider,
		Temperature:   defaultTemperature,
		MaxIterations: defaultMaxIterations,
		Preamble:      true,
		Wikipedia: WikipediaConfig{
			TopK:     defaultTopK,
			MaxChars: defaultMaxChars,
			Language: defaultLanguage,
		},
		WebSearch: WebSearchConfig{
			MaxResults: defaultMaxResults,
			Timeout:    defaultWebTimeout,
		},
		Journal:  JournalConfig{MongoDatabase: defaultMongoDatabase},
		LogLevel: defaultLogLevel,
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if any), then variables from .env and the process environment.
func Load(path string) (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		if err := cfg.MergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads the given env files without overriding variables that are
// already set. With no arguments it loads ./.env when present.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// MergeFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.UnmarshalWithOptions(data, c, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays RESEARCH_* variables found through lookup onto c.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	var errs []error
	setString := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := get(key); ok {
			n, err := cast.ToIntE(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("parse %s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	setString("PROVIDER", &c.Provider)
	setString("MODEL", &c.Model)
	if v, ok := get("TEMPERATURE"); ok {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %sTEMPERATURE: %w", EnvPrefix, err))
		} else {
			c.Temperature = f
		}
	}
	setInt("MAX_ITERATIONS", &c.MaxIterations)
	setInt("MAX_TOKENS", &c.MaxTokens)
	if v, ok := get("PREAMBLE"); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %sPREAMBLE: %w", EnvPrefix, err))
		} else {
			c.Preamble = b
		}
	}
	if v, ok := get("TOOLS"); ok {
		c.Tools = helpers.ParseCSVList(v)
	}
	setInt("WIKIPEDIA_TOP_K", &c.Wikipedia.TopK)
	setInt("WIKIPEDIA_MAX_CHARS", &c.Wikipedia.MaxChars)
	setString("WIKIPEDIA_LANGUAGE", &c.Wikipedia.Language)
	setInt("WEB_MAX_RESULTS", &c.WebSearch.MaxResults)
	if v, ok := get("WEB_TIMEOUT"); ok {
		d, err := cast.ToDurationE(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %sWEB_TIMEOUT: %w", EnvPrefix, err))
		} else {
			c.WebSearch.Timeout = d
		}
	}
	setString("POSTGRES_DSN", &c.Journal.PostgresDSN)
	setString("MONGO_URI", &c.Journal.MongoURI)
	setString("MONGO_DATABASE", &c.Journal.MongoDatabase)
	setString("UTCP_PROVIDERS", &c.UTCP.ProvidersFile)
	setString("LOG_LEVEL", &c.LogLevel)
	return errors.Join(errs...)
}

// Validate rejects settings no run could use.
func (c Config) Validate() error {
	var errs []error
	if !models.KnownProvider(c.Provider) {
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if c.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("max_iterations must be > 0, got %d", c.MaxIterations))
	}
	if c.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be >= 0, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature))
	}
	if c.Wikipedia.TopK <= 0 {
		errs = append(errs, fmt.Errorf("wikipedia.top_k must be > 0, got %d", c.Wikipedia.TopK))
	}
	if c.Wikipedia.MaxChars <= 0 {
		errs = append(errs, fmt.Errorf("wikipedia.max_chars must be > 0, got %d", c.Wikipedia.MaxChars))
	}
	if c.WebSearch.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("web_search.max_results must be > 0, got %d", c.WebSearch.MaxResults))
	}
	if c.WebSearch.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("web_search.timeout must be > 0, got %s", c.WebSearch.Timeout))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Settings returns the model settings derived from c.
func (c Config) Settings() models.Settings {
	return models.Settings{Model: c.Model, Temperature: c.Temperature, MaxTokens: c.MaxTokens}
}

func ParseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", raw)
	}
}
