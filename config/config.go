// Package config loads docsplit settings from a YAML file, an optional .env file and
// DOCSPLIT_ prefixed environment variables, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MegaGrindStone/go-docsplit/handler"
	"github.com/MegaGrindStone/go-docsplit/splitter"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "DOCSPLIT"

// Storage drivers.
const (
	DriverBolt  = "bolt"
	DriverRedis = "redis"
)

// Config is the application configuration.
type Config struct {
	// LogLevel is one of debug, info, warn or error.
	// Env: DOCSPLIT_LOG_LEVEL (default: info)
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`
	// LogFormat is text or json.
	// Env: DOCSPLIT_LOG_FORMAT (default: text)
	LogFormat string `yaml:"log_format" envconfig:"LOG_FORMAT"`

	// Collection names the set of chunks kept in sync with DocsDir.
	// Env: DOCSPLIT_COLLECTION (default: docs)
	Collection string `yaml:"collection" envconfig:"COLLECTION"`
	// DocsDir is the documentation root.
	// Env: DOCSPLIT_DOCS_DIR
	DocsDir string `yaml:"docs_dir" envconfig:"DOCS_DIR"`
	// Extensions are the file extensions loaded from DocsDir.
	// Env: DOCSPLIT_EXTENSIONS (comma separated, default: .md,.mdx)
	Extensions []string `yaml:"extensions" envconfig:"EXTENSIONS"`
	// Concurrency is the number of documents chunked in parallel.
	// Env: DOCSPLIT_CONCURRENCY (default: 4)
	Concurrency int `yaml:"concurrency" envconfig:"CONCURRENCY"`

	Splitter SplitterConfig `yaml:"splitter" envconfig:"SPLITTER"`
	Links    LinksConfig    `yaml:"links" envconfig:"LINKS"`
	Storage  StorageConfig  `yaml:"storage" envconfig:"STORAGE"`
}

// SplitterConfig mirrors splitter.Options.
type SplitterConfig struct {
	MaxChars                  int   `yaml:"max_chars" envconfig:"MAX_CHARS"`
	MinChars                  int   `yaml:"min_chars" envconfig:"MIN_CHARS"`
	Overlap                   int   `yaml:"overlap" envconfig:"OVERLAP"`
	HeaderLevels              []int `yaml:"header_levels" envconfig:"HEADER_LEVELS"`
	PreserveCodeBlocks        bool  `yaml:"preserve_code_blocks" envconfig:"PRESERVE_CODE_BLOCKS"`
	CodeBlockMaxChars         *int  `yaml:"code_block_max_chars" envconfig:"CODE_BLOCK_MAX_CHARS"`
	FallbackCloseOnNestedOpen bool  `yaml:"fallback_close_on_nested_open" envconfig:"FALLBACK_CLOSE_ON_NESTED_OPEN"`
	Trim                      bool  `yaml:"trim" envconfig:"TRIM"`
}

// LinksConfig controls page links for chunks without a Sources block.
type LinksConfig struct {
	BaseURL       string `yaml:"base_url" envconfig:"BASE_URL"`
	URLSuffix     string `yaml:"url_suffix" envconfig:"URL_SUFFIX"`
	UseURLMapping bool   `yaml:"use_url_mapping" envconfig:"USE_URL_MAPPING"`
}

// StorageConfig selects and configures the chunk storage.
type StorageConfig struct {
	// Driver is bolt or redis.
	Driver        string `yaml:"driver" envconfig:"DRIVER"`
	BoltPath      string `yaml:"bolt_path" envconfig:"BOLT_PATH"`
	RedisAddr     string `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" envconfig:"REDIS_DB"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	opts := splitter.DefaultOptions()
	return Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Collection:  "docs",
		Extensions:  []string{".md", ".mdx"},
		Concurrency: 4,
		Splitter: SplitterConfig{
			MaxChars:                  opts.MaxChars,
			MinChars:                  opts.MinChars,
			Overlap:                   opts.Overlap,
			HeaderLevels:              opts.HeaderLevels,
			PreserveCodeBlocks:        opts.PreserveCodeBlocks,
			CodeBlockMaxChars:         opts.CodeBlockMaxChars,
			FallbackCloseOnNestedOpen: opts.FallbackCloseOnNestedOpen,
			Trim:                      opts.Trim,
		},
		Storage: StorageConfig{
			Driver:    DriverBolt,
			BoltPath:  "docsplit.db",
			RedisAddr: "localhost:6379",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path, the .env file at envPath
// and the environment. Empty paths are skipped, as is a missing .env file.
func Load(path, envPath string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := LoadDotEnv(envPath); err != nil {
		return Config{}, fmt.Errorf("error loading env file: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadDotEnv loads environment variables from a .env file without overriding variables that
// are already set. If path is empty, it loads ".env" in the current directory. A missing file
// is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(path)
}

// Validate checks the settings that are not covered by splitter.Options.Validate.
func (c Config) Validate() error {
	var errs []error

	if c.Collection == "" {
		errs = append(errs, errors.New("collection must not be empty"))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must be non-negative, got %d", c.Concurrency))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	switch c.Storage.Driver {
	case DriverBolt, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if err := c.Splitter.Options().Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Options converts the settings to splitter options.
func (s SplitterConfig) Options() splitter.Options {
	return splitter.Options{
		MaxChars:                  s.MaxChars,
		MinChars:                  s.MinChars,
		Overlap:                   s.Overlap,
		HeaderLevels:              s.HeaderLevels,
		PreserveCodeBlocks:        s.PreserveCodeBlocks,
		CodeBlockMaxChars:         s.CodeBlockMaxChars,
		FallbackCloseOnNestedOpen: s.FallbackCloseOnNestedOpen,
		Trim:                      s.Trim,
	}
}

// LinkConfig converts the settings to the handler's link configuration.
func (l LinksConfig) LinkConfig() handler.LinkConfig {
	return handler.LinkConfig{
		BaseURL:       l.BaseURL,
		URLSuffix:     l.URLSuffix,
		UseURLMapping: l.UseURLMapping,
	}
}

// Logger builds a logger writing to w with the configured level and format.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
