package crawl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/tcas/pkg/common"
)

// StaticOptions configures a StaticPage.
type StaticOptions struct {
	Client    *http.Client
	UserAgent string
	Lang      string
	Logger    *log.Logger
}

// StaticPage is a common.Page for server-rendered sites. Searching submits the form that
// owns the search input instead of typing into it.
type StaticPage struct {
	client    *http.Client
	userAgent string
	lang      string
	logger    *log.Logger

	current *url.URL
	doc     *goquery.Document
	control *goquery.Selection
}

// NewStaticPage creates a StaticPage. Nothing is fetched until Navigate.
func NewStaticPage(opts StaticOptions) *StaticPage {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &StaticPage{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		lang:      opts.Lang,
		logger:    opts.Logger,
	}
}

// Navigate fetches pageURL and makes it the current document.
func (p *StaticPage) Navigate(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrNavigation, pageURL, err)
	}

	doc, err := p.fetch(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %w", common.ErrNavigation, pageURL, err)
	}

	p.current = u
	p.doc = doc
	p.control = nil
	return nil
}

func (p *StaticPage) fetch(ctx context.Context, u *url.URL) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	if p.lang != "" {
		req.Header.Set("Accept-Language", p.lang)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// VisibleText returns the text of the first element matching scope.
func (p *StaticPage) VisibleText(_ context.Context, scope string) (string, error) {
	if p.doc == nil {
		return "", fmt.Errorf("no page loaded")
	}
	sel := p.doc.Find(scope).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("no element matches %s", scope)
	}
	return VisibleText(sel.Get(0)), nil
}

// FindSearchControl picks the first usable named input matching the search selectors.
func (p *StaticPage) FindSearchControl(_ context.Context) (common.SearchControl, error) {
	if p.doc == nil {
		return "", common.ErrNoSearchControl
	}

	for _, selector := range SearchSelectors {
		var found *goquery.Selection
		p.doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if usableInput(s) {
				found = s
				return false
			}
			return true
		})
		if found != nil {
			p.control = found
			p.logger.Debug("Search input found", "selector", selector)
			return common.SearchControl(selector), nil
		}
	}
	return "", common.ErrNoSearchControl
}

func usableInput(s *goquery.Selection) bool {
	if _, disabled := s.Attr("disabled"); disabled {
		return false
	}
	if _, readonly := s.Attr("readonly"); readonly {
		return false
	}
	switch strings.ToLower(s.AttrOr("type", "text")) {
	case "hidden", "submit", "button", "checkbox", "radio", "image", "reset", "file":
		return false
	}
	return s.AttrOr("name", "") != ""
}

// TypeAndSubmit submits the control's form with text as the control value. Other named
// inputs of the form keep their current values.
func (p *StaticPage) TypeAndSubmit(ctx context.Context, _ common.SearchControl, text string) error {
	if p.control == nil {
		return common.ErrNoSearchControl
	}

	form := p.control.Closest("form")
	action := p.current
	values := url.Values{}

	if form.Length() > 0 {
		if href := strings.TrimSpace(form.AttrOr("action", "")); href != "" {
			ref, err := url.Parse(href)
			if err != nil {
				return fmt.Errorf("form action %q: %w", href, err)
			}
			action = p.current.ResolveReference(ref)
		}
		form.Find("input[name]").Each(func(_ int, s *goquery.Selection) {
			switch strings.ToLower(s.AttrOr("type", "text")) {
			case "submit", "button", "image", "reset", "file":
				return
			case "checkbox", "radio":
				if _, checked := s.Attr("checked"); !checked {
					return
				}
			}
			values.Set(s.AttrOr("name", ""), s.AttrOr("value", ""))
		})
	}
	values.Set(p.control.AttrOr("name", ""), text)

	target := *action
	target.RawQuery = values.Encode()
	target.Fragment = ""

	if err := p.Navigate(ctx, target.String()); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	return nil
}

// ListAnchors returns anchors whose href contains hrefPattern, in document order.
func (p *StaticPage) ListAnchors(_ context.Context, hrefPattern string) ([]common.Anchor, error) {
	if p.doc == nil {
		return nil, fmt.Errorf("no page loaded")
	}

	var anchors []common.Anchor
	p.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := s.AttrOr("href", "")
		if !strings.Contains(href, hrefPattern) {
			return
		}
		anchors = append(anchors, common.Anchor{
			Href: href,
			Text: VisibleText(s.Get(0)),
		})
	})
	return anchors, nil
}
