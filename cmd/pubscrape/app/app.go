package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli"
	"go.yaml.in/yaml/v3"

	"pubscrape/internal/cache"
	"pubscrape/internal/config"
	"pubscrape/internal/limiter"
	"pubscrape/internal/logging"
	"pubscrape/internal/substitute"
	"pubscrape/scraper"
)

// Report is the document written to stdout.
type Report struct {
	Query      string              `json:"query" yaml:"query"`
	Offset     int                 `json:"offset" yaml:"offset"`
	Pages      int                 `json:"pages" yaml:"pages"`
	Records    []map[string]string `json:"records" yaml:"records"`
	Skipped    []SkippedRow        `json:"skipped" yaml:"skipped"`
	Duplicates int                 `json:"duplicates" yaml:"duplicates"`
}

// SkippedRow is a dropped row together with the page it came from.
type SkippedRow struct {
	Offset int    `json:"offset" yaml:"offset"`
	Index  int    `json:"index" yaml:"index"`
	Field  string `json:"field" yaml:"field"`
	Reason string `json:"reason" yaml:"reason"`
}

// Run executes the CLI and writes the report to stdout.
// If the query is missing, it prints help and returns nil.
func Run(args []string, stdout, stderr io.Writer, client *http.Client, clock limiter.Timer) error {
	app := cli.NewApp()
	app.Name = "pubscrape"
	app.Usage = "scrape publisher search results into clean records"
	app.UsageText = "pubscrape [global options] <query>"
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "offset",
			Usage: "first result page to fetch (0-based)",
		},
		cli.IntFlag{
			Name:  "pages",
			Usage: "number of consecutive pages to fetch",
			Value: 1,
		},
		cli.DurationFlag{
			Name:  "sleep",
			Usage: "pause after every page request (example: 500ms, 5s)",
			Value: 5 * time.Second,
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-request timeout",
			Value: 30 * time.Second,
		},
		cli.IntFlag{
			Name:  "retries",
			Usage: "number of retries for temporary request failures",
		},
		cli.StringFlag{
			Name:  "user-agent",
			Usage: "custom user agent",
		},
		cli.StringFlag{
			Name:  "search-url",
			Usage: "search endpoint",
			Value: config.DefaultSearchURL,
		},
		cli.StringFlag{
			Name:  "rules",
			Usage: "YAML file with extra escape-token rules",
		},
		cli.StringFlag{
			Name:  "format",
			Usage: "report format (json, yaml)",
			Value: config.FormatJSON,
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "log level (debug, info, warn, error, disabled)",
			Value: "warn",
		},
		cli.StringFlag{
			Name:  "log-format",
			Usage: "log format (console, json)",
			Value: "console",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "path to a YAML config file",
		},
	}
	app.Action = func(c *cli.Context) error {
		query := strings.TrimSpace(strings.Join(c.Args(), " "))
		if query == "" {
			_ = cli.ShowAppHelp(c)

			return nil
		}

		cfg, err := configFromCLI(c)
		if err != nil {
			return err
		}

		logger := logging.New(cfg.Logging, stderr)

		report, err := collect(context.Background(), c, cfg, query, client, clock, logger)
		if err != nil {
			return err
		}

		return writeReport(stdout, report, cfg.Format)
	}

	err := app.Run(args)
	if err != nil {
		return err
	}

	return nil
}

func configFromCLI(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}

	if c.IsSet("sleep") {
		cfg.Sleep = c.Duration("sleep")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("retries") {
		cfg.Retries = c.Int("retries")
	}
	if c.IsSet("user-agent") {
		cfg.UserAgent = c.String("user-agent")
	}
	if c.IsSet("search-url") {
		cfg.SearchURL = c.String("search-url")
	}
	if c.IsSet("rules") {
		cfg.RulesFile = c.String("rules")
	}
	if c.IsSet("format") {
		cfg.Format = strings.ToLower(c.String("format"))
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Logging.Format = c.String("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	if c.Int("offset") < 0 {
		return config.Config{}, errors.New("offset must not be negative")
	}
	if c.Int("pages") < 1 {
		return config.Config{}, errors.New("pages must be at least 1")
	}

	return cfg, nil
}

func substitutorFromConfig(cfg config.Config) (*substitute.Substitutor, error) {
	if cfg.RulesFile == "" {
		return substitute.Default(), nil
	}

	extra, err := substitute.LoadRulesFile(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	return substitute.New(substitute.Merge(substitute.DefaultRules(), extra))
}

func collect(
	ctx context.Context,
	c *cli.Context,
	cfg config.Config,
	query string,
	client *http.Client,
	clock limiter.Timer,
	logger zerolog.Logger,
) (Report, error) {
	substitutor, err := substitutorFromConfig(cfg)
	if err != nil {
		return Report{}, err
	}

	s, err := scraper.New(scraper.Options{
		HTTPClient:  client,
		SleepTime:   cfg.Sleep,
		Clock:       clock,
		SearchURL:   cfg.SearchURL,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout,
		Layout:      cfg.Layout,
		Substitutor: substitutor,
		Logger:      &logger,
	})
	if err != nil {
		return Report{}, err
	}

	first := c.Int("offset")
	pages := c.Int("pages")
	report := Report{
		Query:   query,
		Offset:  first,
		Pages:   pages,
		Records: []map[string]string{},
		Skipped: []SkippedRow{},
	}

	seen := cache.New[int]()
	for offset := first; offset < first+pages; offset++ {
		result, err := runWithRetry(ctx, s, query, offset, cfg, clock, logger)
		if err != nil {
			return Report{}, err
		}

		for _, row := range result.Skipped {
			report.Skipped = append(report.Skipped, SkippedRow{
				Offset: offset,
				Index:  row.Index,
				Field:  row.Field,
				Reason: row.Reason,
			})
		}

		for _, record := range result.Records {
			if firstSeen, dup := seen.GetOrSet(record.LandingURL, offset); dup {
				report.Duplicates++
				logger.Warn().
					Str("landing_url", record.LandingURL).
					Int("offset", offset).
					Int("first_offset", firstSeen).
					Msg("duplicate record dropped")

				continue
			}

			report.Records = append(report.Records, record.Map())
		}

		if result.PageSize == 0 {
			logger.Info().Int("offset", offset).Msg("empty result page, stopping")

			break
		}
	}

	return report, nil
}

// runWithRetry repeats a page after retryable transport errors, waiting
// attempt*sleep between tries on top of the scraper's own pause.
func runWithRetry(
	ctx context.Context,
	s *scraper.Scraper,
	query string,
	offset int,
	cfg config.Config,
	clock limiter.Timer,
	logger zerolog.Logger,
) (scraper.Result, error) {
	for attempt := 0; ; attempt++ {
		result, err := s.Run(ctx, query, offset)
		if err == nil {
			return result, nil
		}

		var transportErr *scraper.TransportError
		if attempt >= cfg.Retries || !errors.As(err, &transportErr) || !transportErr.Retryable() {
			return scraper.Result{}, err
		}

		logger.Warn().Err(err).Int("offset", offset).Int("attempt", attempt+1).Msg("retrying page")

		if err := clock.Sleep(ctx, time.Duration(attempt+1)*cfg.Sleep); err != nil {
			return scraper.Result{}, err
		}
	}
}

func writeReport(w io.Writer, report Report, format string) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case config.FormatYAML:
		data, err = yaml.Marshal(report)
	default:
		data, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	_, err = w.Write(data)

	return err
}
