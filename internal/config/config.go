// Package config loads service settings from YAML, a .env file and the
// process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dvloznov/submanager/internal/categorizer"
	"github.com/dvloznov/submanager/internal/detector"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/dvloznov/submanager/internal/normalizer"
	"github.com/dvloznov/submanager/internal/statement"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML document.
type Config struct {
	Server     ServerConfig       `yaml:"server"`
	Detection  DetectionConfig    `yaml:"detection"`
	Categories []CategoryRule     `yaml:"categories"`
	Columns    normalizer.Aliases `yaml:"columns"`
	GCP        GCPConfig          `yaml:"gcp"`
	Gemini     GeminiConfig       `yaml:"gemini"`
	Notion     NotionConfig       `yaml:"notion"`
	Jobs       JobsConfig         `yaml:"jobs"`
	Log        LogConfig          `yaml:"log"`
}

type ServerConfig struct {
	Port                string `yaml:"port"`
	MaxUploadBytes      int64  `yaml:"max_upload_bytes"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
}

// DetectionConfig overrides detector heuristics. Zero values keep the
// built-in defaults.
type DetectionConfig struct {
	LookbackMonths   int          `yaml:"lookback_months"`
	MaxVarianceRatio float64      `yaml:"max_variance_ratio"`
	MaxAmountSpread  float64      `yaml:"max_amount_spread"`
	KeyMaxLength     int          `yaml:"key_max_length"`
	Bands            []BandConfig `yaml:"bands"`
}

// BandConfig replaces the day range of one frequency band.
type BandConfig struct {
	Frequency string  `yaml:"frequency"`
	MinDays   float64 `yaml:"min_days"`
	MaxDays   float64 `yaml:"max_days"`
}

// CategoryRule is one entry of the keyword table, in match order.
type CategoryRule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

type GCPConfig struct {
	ProjectID       string `yaml:"project_id"`
	Bucket          string `yaml:"bucket"`
	UploadPrefix    string `yaml:"upload_prefix"`
	Dataset         string `yaml:"dataset"`
	CredentialsFile string `yaml:"credentials_file"`
}

type GeminiConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

type JobsConfig struct {
	Workers    int `yaml:"workers"`
	BufferSize int `yaml:"buffer_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                "8080",
			MaxUploadBytes:      statement.DefaultMaxUploadBytes,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 60,
		},
		Detection: DetectionConfig{
			LookbackMonths: 12,
		},
		Columns: normalizer.DefaultAliases,
		GCP: GCPConfig{
			UploadPrefix: "statements",
			Dataset:      "submanager",
		},
		Gemini: GeminiConfig{
			Model: statement.DefaultModelName,
		},
		Jobs: JobsConfig{
			Workers:    5,
			BufferSize: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads .env (if present), then the YAML file at path (if non-empty),
// then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("PORT", &c.Server.Port)
	str("GCS_BUCKET", &c.GCP.Bucket)
	str("GOOGLE_CLOUD_PROJECT", &c.GCP.ProjectID)
	str("GOOGLE_APPLICATION_CREDENTIALS", &c.GCP.CredentialsFile)
	str("NOTION_TOKEN", &c.Notion.Token)
	str("NOTION_DATABASE_ID", &c.Notion.DatabaseID)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("GEMINI_MODEL", &c.Gemini.Model)

	if v, ok := lookup("LOOKBACK_MONTHS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LOOKBACK_MONTHS %q: %w", v, err)
		}
		c.Detection.LookbackMonths = n
	}
	return nil
}

// Validate performs basic configuration validation.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid server port: %q", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be greater than 0")
	}
	if c.Detection.LookbackMonths < 0 {
		return fmt.Errorf("lookback months cannot be negative")
	}

	if _, err := c.Thresholds(); err != nil {
		return err
	}
	if _, err := c.Categorizer(); err != nil {
		return err
	}

	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("job workers must be greater than 0")
	}
	if c.Jobs.BufferSize < 0 {
		return fmt.Errorf("job buffer size cannot be negative")
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if (c.Notion.Token == "") != (c.Notion.DatabaseID == "") {
		return fmt.Errorf("notion token and database id must be set together")
	}

	return nil
}

// Thresholds merges the detection overrides into the detector defaults.
func (c *Config) Thresholds() (detector.Thresholds, error) {
	t := detector.DefaultThresholds()
	d := c.Detection

	if d.MaxVarianceRatio != 0 {
		t.MaxVarianceRatio = d.MaxVarianceRatio
	}
	if d.MaxAmountSpread != 0 {
		t.MaxAmountSpread = d.MaxAmountSpread
	}
	if d.KeyMaxLength != 0 {
		t.KeyMaxLength = d.KeyMaxLength
	}

	for _, bc := range d.Bands {
		found := false
		for i := range t.Bands {
			if string(t.Bands[i].Frequency) == strings.ToLower(bc.Frequency) {
				t.Bands[i].MinDays = bc.MinDays
				t.Bands[i].MaxDays = bc.MaxDays
				found = true
				break
			}
		}
		if !found {
			return detector.Thresholds{}, fmt.Errorf("unknown frequency band %q", bc.Frequency)
		}
	}

	if err := t.Validate(); err != nil {
		return detector.Thresholds{}, fmt.Errorf("detection: %w", err)
	}
	return t, nil
}

// Categorizer builds the keyword categorizer, falling back to the built-in
// table when no categories are configured.
func (c *Config) Categorizer() (*categorizer.Categorizer, error) {
	if len(c.Categories) == 0 {
		return categorizer.Default(), nil
	}

	rules := make([]categorizer.Rule, 0, len(c.Categories))
	for _, r := range c.Categories {
		rules = append(rules, categorizer.Rule{
			Category: domain.Category(strings.ToLower(r.Category)),
			Keywords: r.Keywords,
		})
	}
	cat, err := categorizer.New(rules)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return cat, nil
}

// Normalizer builds the record normalizer from the column aliases and the
// category table. Empty alias lists fall back to the defaults.
func (c *Config) Normalizer() (*normalizer.Normalizer, error) {
	cat, err := c.Categorizer()
	if err != nil {
		return nil, err
	}

	aliases := c.Columns
	if len(aliases.Date) == 0 {
		aliases.Date = normalizer.DefaultAliases.Date
	}
	if len(aliases.Description) == 0 {
		aliases.Description = normalizer.DefaultAliases.Description
	}
	if len(aliases.Amount) == 0 {
		aliases.Amount = normalizer.DefaultAliases.Amount
	}
	return normalizer.New(aliases, cat), nil
}

// Detector builds a detector from the merged thresholds.
func (c *Config) Detector() (*detector.Detector, error) {
	t, err := c.Thresholds()
	if err != nil {
		return nil, err
	}
	return detector.New(t)
}
