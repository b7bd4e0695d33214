// Package config builds the scheduler's run configuration from an optional
// YAML file, .env files and environment variables.
//
// Precedence, lowest to highest: defaults, YAML file, environment (including
// values loaded from .env files), command-line flags applied by the caller.
//
// Environment variables:
//
//	NOTION_KEY         integration token (required)
//	NOTION_BASE_URL    API host
//	NOTION_VERSION     Notion-Version header
//	NOTION_PAGE_SIZE   search page size, 1..100
//	OUTPUT_DIR         directory for daily files
//	PER_DAY            questions per daily file
//	LOG_LEVEL          debug, info, warn, error
//	LOG_PRETTY         console log output (true/false)
//	METRICS_FILE       write Prometheus metrics here after the run
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/revisit-scheduler/pkg/logging"
	"github.com/Sternrassler/revisit-scheduler/pkg/notion"
	"github.com/Sternrassler/revisit-scheduler/pkg/revisit"
	"github.com/Sternrassler/revisit-scheduler/pkg/schedule"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey reports that no Notion integration token was supplied.
var ErrMissingAPIKey = errors.New("notion api key is missing: set NOTION_KEY")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Config is the run configuration, constructed once at startup.
type Config struct {
	Notion   NotionConfig   `yaml:"notion"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Schema   revisit.Schema `yaml:"schema"`
	Log      LogConfig      `yaml:"log"`

	// MetricsFile receives the Prometheus text exposition after a run. Empty disables it.
	MetricsFile string `yaml:"metrics_file"`
}

// NotionConfig configures the API client.
type NotionConfig struct {
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Version  string        `yaml:"version"`
	PageSize int           `yaml:"page_size"`
	MaxPages int           `yaml:"max_pages"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ScheduleConfig configures the daily files.
type ScheduleConfig struct {
	OutputDir string `yaml:"output_dir"`
	PerDay    int    `yaml:"per_day"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Notion: NotionConfig{
			BaseURL:  notion.DefaultBaseURL,
			Version:  notion.DefaultVersion,
			PageSize: notion.DefaultPageSize,
		},
		Schedule: ScheduleConfig{
			OutputDir: schedule.DefaultOutputDir,
			PerDay:    schedule.DefaultPerDay,
		},
		Schema: revisit.DefaultSchema(),
		Log: LogConfig{
			Level:  string(logging.LevelWarn),
			Pretty: true,
		},
	}
}

// Load builds a Config. It loads .env files, reads the YAML file at path
// when path is non-empty, then applies environment overrides. It does not
// validate; call Validate once flags have been applied.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load environment files: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFiles loads .env files without overriding variables already set:
// ENV_FILE alone when set, otherwise .env.local then .env.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Notion.APIKey, "NOTION_KEY")
	setString(&cfg.Notion.BaseURL, "NOTION_BASE_URL")
	setString(&cfg.Notion.Version, "NOTION_VERSION")
	setString(&cfg.Schedule.OutputDir, "OUTPUT_DIR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.MetricsFile, "METRICS_FILE")

	if err := setInt(&cfg.Notion.PageSize, "NOTION_PAGE_SIZE"); err != nil {
		return err
	}
	if err := setInt(&cfg.Schedule.PerDay, "PER_DAY"); err != nil {
		return err
	}

	if v := os.Getenv("LOG_PRETTY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Field: "LOG_PRETTY", Message: "must be a boolean", Err: err}
		}
		cfg.Log.Pretty = b
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return &ValidationError{Field: key, Message: "must be an integer", Err: err}
	}
	*dst = n
	return nil
}

// Validate checks the configuration. A missing API key is reported as a
// *ValidationError wrapping ErrMissingAPIKey.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Notion.APIKey) == "" {
		return &ValidationError{Field: "notion.api_key", Message: ErrMissingAPIKey.Error(), Err: ErrMissingAPIKey}
	}

	if c.Notion.PageSize < 1 || c.Notion.PageSize > 100 {
		return &ValidationError{Field: "notion.page_size", Message: fmt.Sprintf("must be between 1 and 100 (got %d)", c.Notion.PageSize)}
	}
	if c.Notion.MaxPages < 0 {
		return &ValidationError{Field: "notion.max_pages", Message: "must be >= 0"}
	}

	u, err := url.Parse(c.Notion.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: "notion.base_url", Message: fmt.Sprintf("invalid URL %q", c.Notion.BaseURL), Err: err}
	}

	if c.Schedule.PerDay < 1 {
		return &ValidationError{Field: "schedule.per_day", Message: fmt.Sprintf("must be >= 1 (got %d)", c.Schedule.PerDay)}
	}
	if strings.TrimSpace(c.Schedule.OutputDir) == "" {
		return &ValidationError{Field: "schedule.output_dir", Message: "is required"}
	}

	if !logging.ValidLevel(logging.LogLevel(c.Log.Level)) {
		return &ValidationError{Field: "log.level", Message: "must be one of: debug, info, warn, error"}
	}
	return nil
}

// NotionClientConfig returns the client configuration.
func (c *Config) NotionClientConfig() notion.Config {
	cfg := notion.DefaultConfig(c.Notion.APIKey)
	cfg.BaseURL = c.Notion.BaseURL
	cfg.Version = c.Notion.Version
	cfg.PageSize = c.Notion.PageSize
	cfg.MaxPages = c.Notion.MaxPages
	cfg.Timeout = c.Notion.Timeout
	return cfg
}

// SchedulerConfig returns the scheduler configuration with an unseeded
// shuffle and the wall clock.
func (c *Config) SchedulerConfig() schedule.Config {
	cfg := schedule.DefaultConfig()
	cfg.OutputDir = c.Schedule.OutputDir
	cfg.PerDay = c.Schedule.PerDay
	return cfg
}

// LoggingConfig returns the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}
