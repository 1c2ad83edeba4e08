package common

import (
	"context"
	"errors"
)

// Intent states which category rule the link classifier applies to a search pass.
type Intent string

const (
	IntentNone    Intent = ""
	IntentGeneral Intent = "general"
	IntentAI      Intent = "ai"
)

var (
	// ErrNoSearchControl is returned when a page has no usable search input.
	ErrNoSearchControl = errors.New("search control not found")
	// ErrNavigation marks a failed page load.
	ErrNavigation = errors.New("navigation failed")
	// ErrFetch marks a program page whose text could not be retrieved.
	ErrFetch = errors.New("fetch failed")
)

// SearchTermConfig describes one discovery pass.
type SearchTermConfig struct {
	Term            string   `yaml:"term" json:"term"`
	Intent          Intent   `yaml:"intent" json:"intent"`
	ExcludeKeywords []string `yaml:"exclude" json:"exclude,omitempty"`
	Sheet           string   `yaml:"sheet" json:"sheet,omitempty"`
}

// Anchor is a link element as seen on a rendered page
type Anchor struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// CandidateLink is a discovered program page that has not been resolved yet.
type CandidateLink struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	SearchTerm string `json:"search_term"`
}

// Tuition holds the per-term fee found on a program page. Amount is zero when unknown;
// Reference may then point at a page listing the fees.
type Tuition struct {
	Amount    int    `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

// Known reports whether an amount was extracted.
func (t Tuition) Known() bool {
	return t.Amount > 0
}

// ProgramRecord is the structured result of resolving one candidate link.
// Institution and Campus are empty when nothing was extracted.
type ProgramRecord struct {
	Title       string  `json:"title"`
	Institution string  `json:"institution"`
	Campus      string  `json:"campus"`
	Tuition     Tuition `json:"tuition"`
	URL         string  `json:"url"`
	Category    string  `json:"category"`
}

// SearchControl identifies the search input located on a page.
type SearchControl string

// Page is the browsing capability the pipeline drives. Implementations own a single
// browsing context and are not safe for concurrent use.
type Page interface {
	Navigate(ctx context.Context, url string) error
	VisibleText(ctx context.Context, scope string) (string, error)
	FindSearchControl(ctx context.Context) (SearchControl, error)
	TypeAndSubmit(ctx context.Context, ctl SearchControl, text string) error
	ListAnchors(ctx context.Context, hrefPattern string) ([]Anchor, error)
}
