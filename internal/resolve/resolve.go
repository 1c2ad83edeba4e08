// Package resolve turns candidate links into program records.
package resolve

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/tcas/internal/extract"
	"github.com/go-scripts/tcas/pkg/common"
)

// TextScope is the element whose visible text is extracted.
const TextScope = "body"

// Pacer blocks until the next page may be fetched. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Observer is notified once per candidate. rec is nil when the candidate was skipped.
type Observer interface {
	Resolved(link common.CandidateLink, rec *common.ProgramRecord, err error)
}

// Options configures a Resolver.
type Options struct {
	Extractor *extract.Extractor
	Pacer     Pacer
	Logger    *log.Logger
	Observer  Observer
}

// Resolver fetches program pages and extracts their fields.
type Resolver struct {
	page      common.Page
	extractor *extract.Extractor
	pacer     Pacer
	logger    *log.Logger
	observer  Observer
}

// New creates a Resolver reading pages through page.
func New(page common.Page, opts Options) *Resolver {
	if opts.Extractor == nil {
		opts.Extractor = extract.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Resolver{
		page:      page,
		extractor: opts.Extractor,
		pacer:     opts.Pacer,
		logger:    opts.Logger,
		observer:  opts.Observer,
	}
}

// Resolve fetches the page behind link and builds its record. It returns a nil record and an
// error wrapping common.ErrFetch when the page cannot be read. A record without tuition data
// is still a success.
func (r *Resolver) Resolve(ctx context.Context, link common.CandidateLink) (*common.ProgramRecord, error) {
	if err := r.page.Navigate(ctx, link.URL); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrFetch, link.URL, err)
	}

	text, err := r.page.VisibleText(ctx, TextScope)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrFetch, link.URL, err)
	}

	rec := r.Build(link, text)
	return &rec, nil
}

// Build runs the field extractors over page text.
func (r *Resolver) Build(link common.CandidateLink, text string) common.ProgramRecord {
	institution, _ := r.extractor.Institution(text)
	campus, _ := r.extractor.Campus(text)

	return common.ProgramRecord{
		Title:       link.Title,
		Institution: institution,
		Campus:      campus,
		Tuition:     r.extractor.Tuition(text),
		URL:         link.URL,
		Category:    link.SearchTerm,
	}
}

// ResolveAll resolves links one at a time in order. Candidates whose page cannot be fetched
// are logged and skipped. If ctx is cancelled the records collected so far are returned
// together with the context error.
func (r *Resolver) ResolveAll(ctx context.Context, links []common.CandidateLink) ([]common.ProgramRecord, error) {
	records := make([]common.ProgramRecord, 0, len(links))

	for i, link := range links {
		if r.pacer != nil {
			if err := r.pacer.Wait(ctx); err != nil {
				return records, err
			}
		}

		rec, err := r.Resolve(ctx, link)
		if r.observer != nil {
			r.observer.Resolved(link, rec, err)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return records, ctxErr
			}
			r.logger.Warn("Skipping program", "n", i+1, "of", len(links), "url", link.URL, "error", err)
			continue
		}

		if rec.Tuition.Known() {
			r.logger.Info("Program resolved", "n", i+1, "of", len(links), "institution", rec.Institution, "campus", rec.Campus, "tuition", rec.Tuition.Amount)
		} else {
			r.logger.Info("Program resolved without tuition", "n", i+1, "of", len(links), "institution", rec.Institution, "campus", rec.Campus)
		}
		records = append(records, *rec)
	}

	return records, nil
}
