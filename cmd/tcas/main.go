package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/tcas/internal/config"
	"github.com/go-scripts/tcas/internal/progress"
	"github.com/go-scripts/tcas/internal/report"
	"github.com/go-scripts/tcas/internal/writer"
	"github.com/go-scripts/tcas/pkg/common"
	"github.com/go-scripts/tcas/pkg/crawl"
)

// CLI flags structure. Flags left empty keep the value from the configuration.
type CLI struct {
	Config      string   `help:"Path to a YAML configuration file" short:"c" type:"path"`
	BaseURL     string   `help:"Site to search" name:"base-url"`
	OutputDir   string   `help:"Directory for report files" short:"o" type:"path"`
	Format      []string `help:"Report formats (xlsx, json)" short:"f" sep:","`
	ShowBrowser bool     `help:"Run Chrome with a visible window"`
	Static      bool     `help:"Fetch server-rendered HTML instead of driving Chrome"`
	LogLevel    string   `help:"Log level (debug, info, warn, error)" short:"l"`
	Limit       int      `help:"Resolve at most this many programs (0 keeps the configured value)"`
}

// apply overrides cfg with the flags that were set.
func (c CLI) apply(cfg *config.Config) {
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	if c.OutputDir != "" {
		cfg.Output.Dir = c.OutputDir
	}
	if len(c.Format) > 0 {
		cfg.Output.Formats = c.Format
	}
	if c.ShowBrowser {
		cfg.Browser.Headless = false
	}
	if c.Static {
		cfg.Browser.Static = true
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.Limit > 0 {
		cfg.Limit = c.Limit
	}
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("tcas"),
		kong.Description("Collect engineering programs from the TCAS course directory into a spreadsheet."),
		kong.UsageOnError(),
	)

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	if err := run(cli, logger); err != nil {
		logger.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func run(cli CLI, logger *log.Logger) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	cli.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := log.ParseLevel(cfg.Log.Level)
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	page, closePage, err := openPage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePage()

	tracker := progress.New(os.Stderr)
	c, err := crawl.NewCrawler(page, cfg, crawl.WithLogger(logger), crawl.WithObserver(tracker))
	if err != nil {
		return err
	}

	res, runErr := c.Run(ctx)
	tracker.Finish()
	if runErr != nil {
		logger.Warn("Run stopped early", "error", runErr, "candidates", len(res.Candidates), "records", len(res.Records))
	}

	if len(res.Records) == 0 {
		logger.Warn("No programs to save")
		return runErr
	}

	bundle := report.Build(res.Records, cfg.Searches)
	if n := bundle.Stats.Uncategorized; n > 0 {
		logger.Warn("Records with an unconfigured category are only in the combined sheet", "count", n)
	}

	sinkErr := writeReports(cfg, bundle, logger)
	printSummary(os.Stdout, bundle)

	return errors.Join(runErr, sinkErr)
}

// openPage starts the configured page source and returns its cleanup function.
func openPage(ctx context.Context, cfg config.Config, logger *log.Logger) (common.Page, func(), error) {
	if cfg.Browser.Static {
		page := crawl.NewStaticPage(crawl.StaticOptions{
			Client:    &http.Client{Timeout: cfg.Browser.NavigationTimeout},
			UserAgent: cfg.Browser.UserAgent,
			Lang:      cfg.Browser.Lang,
			Logger:    logger.With("component", "page"),
		})
		return page, func() {}, nil
	}

	browser, err := crawl.NewBrowser(ctx, crawl.BrowserOptions{
		Headless:          cfg.Browser.Headless,
		UserAgent:         cfg.Browser.UserAgent,
		Lang:              cfg.Browser.Lang,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		ActionTimeout:     cfg.Browser.ActionTimeout,
		SettleDelay:       cfg.Browser.SettleDelay,
		Logger:            logger.With("component", "browser"),
	})
	if err != nil {
		return nil, nil, err
	}
	return browser, browser.Close, nil
}

// newSinks creates one sink per configured output format.
func newSinks(cfg config.Config, opts ...writer.Option) ([]report.Sink, error) {
	var sinks []report.Sink
	for _, format := range cfg.Output.Formats {
		var (
			sink report.Sink
			err  error
		)
		switch format {
		case config.FormatXLSX:
			sink, err = writer.NewXLSX(cfg.Output.Dir, cfg.Output.Base, opts...)
		case config.FormatJSON:
			sink, err = writer.NewJSON(cfg.Output.Dir, cfg.Output.Base, opts...)
		default:
			err = fmt.Errorf("unknown output format %q", format)
		}
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

// writeReports writes bundle to every sink. A failing sink does not stop the others.
func writeReports(cfg config.Config, bundle report.Bundle, logger *log.Logger) error {
	sinks, err := newSinks(cfg)
	if err != nil {
		return err
	}

	var errs []error
	for _, sink := range sinks {
		path, err := sink.Write(bundle)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Info("Report saved", "path", path)
	}
	return errors.Join(errs...)
}
