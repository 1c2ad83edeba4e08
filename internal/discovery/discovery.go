// Package discovery runs the search passes and collects deduplicated candidate links.
package discovery

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/tcas/internal/classify"
	"github.com/go-scripts/tcas/internal/queue"
	"github.com/go-scripts/tcas/pkg/common"
)

// DefaultHrefPattern selects anchors pointing at program pages.
const DefaultHrefPattern = "/programs/"

// Pacer blocks until the next remote operation may start. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Observer is notified around each search pass.
type Observer interface {
	PassStarted(cfg common.SearchTermConfig)
	PassFinished(cfg common.SearchTermConfig, accepted int, err error)
}

// Options configures a Discoverer.
type Options struct {
	BaseURL     string
	HrefPattern string
	Pacer       Pacer
	Logger      *log.Logger
	Observer    Observer
}

// Discoverer drives search passes over a Page.
type Discoverer struct {
	page        common.Page
	base        *url.URL
	hrefPattern string
	pacer       Pacer
	logger      *log.Logger
	observer    Observer
}

// New creates a Discoverer searching the site at opts.BaseURL.
func New(page common.Page, opts Options) (*Discoverer, error) {
	if page == nil {
		return nil, fmt.Errorf("page source is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}
	if opts.HrefPattern == "" {
		opts.HrefPattern = DefaultHrefPattern
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Discoverer{
		page:        page,
		base:        base,
		hrefPattern: opts.HrefPattern,
		pacer:       opts.Pacer,
		logger:      opts.Logger,
		observer:    opts.Observer,
	}, nil
}

// Discover runs one search pass per config, in order, and returns the accepted links
// deduplicated by URL. The first pass that yields a URL keeps it. A failing pass contributes
// nothing; only cancellation of ctx stops discovery early, in which case the links collected
// so far are returned with the context error.
func (d *Discoverer) Discover(ctx context.Context, configs []common.SearchTermConfig) ([]common.CandidateLink, error) {
	q := queue.New()
	accepted := 0

	for _, cfg := range configs {
		if d.pacer != nil {
			if err := d.pacer.Wait(ctx); err != nil {
				return q.Drain(), err
			}
		}

		if d.observer != nil {
			d.observer.PassStarted(cfg)
		}

		links, err := d.searchPass(ctx, cfg)
		accepted += len(links)
		kept := 0
		for _, link := range links {
			if q.Add(link) {
				kept++
			} else {
				d.logger.Debug("Duplicate program link dropped", "url", link.URL, "term", cfg.Term)
			}
		}

		if d.observer != nil {
			d.observer.PassFinished(cfg, kept, err)
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return q.Drain(), ctxErr
			}
			d.logger.Warn("Search pass failed", "term", cfg.Term, "error", err)
			continue
		}
		d.logger.Info("Search pass finished", "term", cfg.Term, "accepted", len(links), "new", kept)
	}

	d.logger.Info("Discovery finished", "programs", q.SeenCount(), "duplicates", accepted-q.SeenCount())
	return q.Drain(), nil
}

// searchPass performs one search and returns the links accepted by the classifier.
func (d *Discoverer) searchPass(ctx context.Context, cfg common.SearchTermConfig) ([]common.CandidateLink, error) {
	if err := d.page.Navigate(ctx, d.base.String()); err != nil {
		return nil, fmt.Errorf("open search page: %w", err)
	}

	ctl, err := d.page.FindSearchControl(ctx)
	if err != nil {
		return nil, err
	}

	if err := d.page.TypeAndSubmit(ctx, ctl, cfg.Term); err != nil {
		return nil, fmt.Errorf("submit search %q: %w", cfg.Term, err)
	}

	anchors, err := d.page.ListAnchors(ctx, d.hrefPattern)
	if err != nil {
		return nil, fmt.Errorf("list program links: %w", err)
	}

	var links []common.CandidateLink
	for _, a := range anchors {
		reason := classify.Decide(a, cfg)
		if reason != classify.Accepted {
			d.logger.Debug("Link rejected", "text", a.Text, "reason", reason)
			continue
		}

		abs, err := d.normalizeURL(a.Href)
		if err != nil {
			d.logger.Debug("Link has invalid href", "href", a.Href, "error", err)
			continue
		}

		links = append(links, common.CandidateLink{
			URL:        abs,
			Title:      strings.TrimSpace(a.Text),
			SearchTerm: cfg.Term,
		})
	}

	return links, nil
}

// normalizeURL resolves href against the site base URL.
func (d *Discoverer) normalizeURL(href string) (string, error) {
	reference, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return d.base.ResolveReference(reference).String(), nil
}
