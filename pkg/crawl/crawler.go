// Package crawl drives program discovery and resolution over a page source.
package crawl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/go-scripts/tcas/internal/config"
	"github.com/go-scripts/tcas/internal/discovery"
	"github.com/go-scripts/tcas/internal/extract"
	"github.com/go-scripts/tcas/internal/resolve"
	"github.com/go-scripts/tcas/pkg/common"
)

// Observer follows a whole run. *progress.Tracker satisfies it.
type Observer interface {
	discovery.Observer
	resolve.Observer
	SetTotal(total int)
}

// Result holds what a run produced, complete or not.
type Result struct {
	Candidates []common.CandidateLink
	Records    []common.ProgramRecord
}

// Crawler runs discovery then resolution sequentially on one page.
type Crawler struct {
	page     common.Page
	config   config.Config
	logger   *log.Logger
	observer Observer
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger passed down to each stage.
func WithLogger(logger *log.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithObserver reports progress to o.
func WithObserver(o Observer) Option {
	return func(c *Crawler) {
		c.observer = o
	}
}

// NewCrawler creates and initializes a new Crawler instance
func NewCrawler(page common.Page, cfg config.Config, opts ...Option) (*Crawler, error) {
	if page == nil {
		return nil, fmt.Errorf("page source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Crawler{
		page:   page,
		config: cfg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run discovers candidates for every configured search term and resolves them. On
// cancellation or failure the partial result is returned with the error.
func (c *Crawler) Run(ctx context.Context) (Result, error) {
	var res Result

	dopts := discovery.Options{
		BaseURL:     c.config.BaseURL,
		HrefPattern: c.config.HrefPattern,
		Pacer:       NewPacer(c.config.Pacing.BetweenSearches),
		Logger:      c.logger.With("component", "discovery"),
	}
	if c.observer != nil {
		dopts.Observer = c.observer
	}
	d, err := discovery.New(c.page, dopts)
	if err != nil {
		return res, err
	}

	c.logger.Info("Starting discovery", "base_url", c.config.BaseURL, "terms", len(c.config.Searches))
	links, err := d.Discover(ctx, c.config.Searches)
	res.Candidates = links
	if err != nil {
		return res, fmt.Errorf("discovery: %w", err)
	}
	c.logger.Info("Discovery finished", "candidates", len(links))

	if limit := c.config.Limit; limit > 0 && len(links) > limit {
		c.logger.Info("Limiting candidates", "limit", limit, "dropped", len(links)-limit)
		links = links[:limit]
	}

	ropts := resolve.Options{
		Extractor: extract.New(c.config.Tuition.Min, c.config.Tuition.Max),
		Pacer:     NewPacer(c.config.Pacing.BetweenPages),
		Logger:    c.logger.With("component", "resolve"),
	}
	if c.observer != nil {
		ropts.Observer = c.observer
		c.observer.SetTotal(len(links))
	}
	r := resolve.New(c.page, ropts)

	records, err := r.ResolveAll(ctx, links)
	res.Records = records
	if err != nil {
		return res, fmt.Errorf("resolve: %w", err)
	}
	c.logger.Info("Resolution finished", "records", len(records), "skipped", len(links)-len(records))

	return res, nil
}

// NewPacer returns a limiter letting one operation through every d. The first operation
// is never delayed. A non-positive d disables pacing.
func NewPacer(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}
