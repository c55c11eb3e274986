package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration. It is read-only after Load returns.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Progress ProgressConfig `yaml:"progress"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// ProgressConfig tunes plan updates and stage classification.
type ProgressConfig struct {
	// PlanUpdateRetries bounds how often a plan update is retried after losing
	// a version race.
	PlanUpdateRetries int `yaml:"plan_update_retries"`
	DelayWindowDays   int `yaml:"delay_window_days"`
}

// DelayWindow returns the classification window as a duration.
func (p ProgressConfig) DelayWindow() time.Duration {
	return time.Duration(p.DelayWindowDays) * 24 * time.Hour
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load reads configuration with precedence: defaults → YAML file → .env → env vars.
// The YAML path comes from SITETRACK_CONFIG and the .env path from
// SITETRACK_ENV_FILE; both are optional.
func Load() (*Config, error) {
	cfg := newDefaults()

	if err := loadYAMLFile(cfg, getEnv("SITETRACK_CONFIG", "sitetrack.yaml"), false); err != nil {
		return nil, err
	}
	if err := loadDotEnv(getEnv("SITETRACK_ENV_FILE", ".env")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file that must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()
	if err := loadYAMLFile(cfg, path, true); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newDefaults() *Config {
	dbPath := "sitetrack.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = home + "/.sitetrack/sitetrack.db"
	}
	return &Config{
		Database: DatabaseConfig{Path: dbPath},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
		Progress: ProgressConfig{
			PlanUpdateRetries: 3,
			DelayWindowDays:   7,
		},
	}
}

// loadYAMLFile merges the file into cfg. A missing file is an error only when required.
func loadYAMLFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// loadDotEnv exports variables from a .env file without overriding ones
// already set in the process environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies non-empty SITETRACK_* variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SITETRACK_DB"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("SITETRACK_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SITETRACK_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("SITETRACK_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("SITETRACK_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	if v := os.Getenv("SITETRACK_LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
	if v := os.Getenv("SITETRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if v := os.Getenv("SITETRACK_PLAN_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Progress.PlanUpdateRetries = n
		}
	}
	if v := os.Getenv("SITETRACK_DELAY_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Progress.DelayWindowDays = n
		}
	}
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Progress.PlanUpdateRetries < 0 {
		return fmt.Errorf("plan_update_retries must be >= 0, got %d", c.Progress.PlanUpdateRetries)
	}
	if c.Progress.DelayWindowDays < 1 {
		return fmt.Errorf("delay_window_days must be >= 1, got %d", c.Progress.DelayWindowDays)
	}
	if c.Server.Addr == "" {
		return errors.New("server addr is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
