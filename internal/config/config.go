package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a billing data directory.
const FileName = "billing.yaml"

// Data source kinds.
const (
	SourceCSV      = "csv"
	SourceAPI      = "api"
	SourcePostgres = "postgres"
)

// Config represents the top-level billing.yaml configuration.
type Config struct {
	Company CompanyConfig `yaml:"company"`
	Source  SourceConfig  `yaml:"source"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Git     GitConfig     `yaml:"git"`
}

// CompanyConfig identifies the business issuing statements.
type CompanyConfig struct {
	Name            string `yaml:"name"`
	DefaultCurrency string `yaml:"default_currency"`
}

// SourceConfig selects where invoices and payments are read from.
type SourceConfig struct {
	Kind     string         `yaml:"kind"` // csv, api or postgres
	API      APIConfig      `yaml:"api,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
}

// APIConfig points at a remote table API.
type APIConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// PostgresConfig holds the database connection settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn,omitempty"`
	MaxConns int32  `yaml:"max_conns,omitempty"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// LogConfig controls logger output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// GitConfig controls git integration of the data directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a billing.yaml file from disk and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new data directory.
func Default(companyName, currency string) *Config {
	if currency == "" {
		currency = "ZAR"
	}
	return &Config{
		Company: CompanyConfig{
			Name:            companyName,
			DefaultCurrency: strings.ToUpper(currency),
		},
		Source: SourceConfig{
			Kind: SourceCSV,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Billing",
			AuthorEmail: "billing@localhost",
		},
	}
}

// LoadDotEnv loads a .env file into the process environment if present.
// Variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from BILLING_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("BILLING_SOURCE"); v != "" {
		c.Source.Kind = v
	}
	if v := os.Getenv("BILLING_API_URL"); v != "" {
		c.Source.API.BaseURL = v
	}
	if v := os.Getenv("BILLING_API_KEY"); v != "" {
		c.Source.API.APIKey = v
	}
	if v := os.Getenv("BILLING_DATABASE_URL"); v != "" {
		c.Source.Postgres.DSN = v
	}
	if v := os.Getenv("BILLING_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("BILLING_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks that the selected source has what it needs.
func (c *Config) Validate() error {
	if c.Company.DefaultCurrency != "" && len(c.Company.DefaultCurrency) != 3 {
		return fmt.Errorf("company.default_currency %q is not a 3-letter code", c.Company.DefaultCurrency)
	}
	switch c.Source.Kind {
	case "", SourceCSV:
	case SourceAPI:
		if c.Source.API.BaseURL == "" {
			return errors.New("source.api.base_url is required for the api source")
		}
	case SourcePostgres:
		if c.Source.Postgres.DSN == "" {
			return errors.New("source.postgres.dsn is required for the postgres source")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	return nil
}
