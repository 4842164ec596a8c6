// Package config loads scraper settings from an optional YAML file and
// PUBSCRAPE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pubscrape/internal/logging"
	"pubscrape/internal/parser"
)

// Output formats accepted by the CLI.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DefaultSearchURL is the RSC search endpoint.
const DefaultSearchURL = "https://pubs.rsc.org/en/results"

// Config holds all scraper and CLI settings.
type Config struct {
	// SearchURL is the results endpoint; searchtext and page are added per request.
	SearchURL string `mapstructure:"search_url"`
	// Sleep is the fixed pause after every page fetch.
	Sleep time.Duration `mapstructure:"sleep"`
	// Timeout bounds a single page request.
	Timeout time.Duration `mapstructure:"timeout"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent"`
	// Retries is how many times the CLI repeats a page after a retryable transport error.
	Retries int `mapstructure:"retries"`
	// RulesFile is an optional YAML rule list merged over the built-in escape tokens.
	RulesFile string `mapstructure:"rules_file"`
	// Format selects the report encoding (json, yaml).
	Format string `mapstructure:"format"`
	// Layout overrides result-page selectors.
	Layout parser.Layout `mapstructure:"layout"`
	// Logging contains logger settings.
	Logging logging.Config `mapstructure:"logging"`
}

// Load reads configuration from path (if non-empty) and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PUBSCRAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.Layout = cfg.Layout.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks value ranges and selector syntax.
func (c Config) Validate() error {
	if c.SearchURL == "" {
		return errors.New("search_url is required")
	}

	if c.Sleep <= 0 {
		return fmt.Errorf("sleep must be positive, got %s", c.Sleep)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}

	switch c.Format {
	case FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unsupported format %q", c.Format)
	}

	return c.Layout.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("search_url", DefaultSearchURL)
	v.SetDefault("sleep", "5s")
	v.SetDefault("timeout", "30s")
	v.SetDefault("user_agent", "pubscrape/1.0")
	v.SetDefault("retries", 0)
	v.SetDefault("rules_file", "")
	v.SetDefault("format", FormatJSON)

	layout := parser.RSCLayout()
	v.SetDefault("layout.result_list", layout.ResultList)
	v.SetDefault("layout.row", layout.Row)
	v.SetDefault("layout.title", layout.Title)
	v.SetDefault("layout.landing", layout.Landing)
	v.SetDefault("layout.doi", layout.DOI)
	v.SetDefault("layout.doi_attr", layout.DOIAttr)
	v.SetDefault("layout.pdf", layout.PDF)
	v.SetDefault("layout.html", layout.HTML)
	v.SetDefault("layout.journal", layout.Journal)

	logs := logging.DefaultConfig()
	v.SetDefault("logging.level", logs.Level)
	v.SetDefault("logging.format", logs.Format)
}
