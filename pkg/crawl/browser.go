package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/go-scripts/tcas/pkg/common"
)

// markedControl is the selector of the search input tagged by the lookup script.
const markedControl = `[data-tcas-search="1"]`

// BrowserOptions configures a Browser.
type BrowserOptions struct {
	Headless          bool
	UserAgent         string
	Lang              string
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	// SettleDelay is waited after each load and after submitting a search so that
	// client-side rendering can finish.
	SettleDelay time.Duration
	Logger      *log.Logger
}

// Browser is a common.Page backed by a single headless Chrome tab.
type Browser struct {
	opts          BrowserOptions
	ctx           context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

// NewBrowser launches Chrome and opens the tab used for every page operation.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	// Setup browser options
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Lang != "" {
		allocOpts = append(allocOpts, chromedp.Flag("lang", opts.Lang))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(opts.Logger.Debugf))

	// Start the browser now so launch failures surface here
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Browser{
		opts:          opts,
		ctx:           browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
	}, nil
}

// Close cleans up browser resources
func (b *Browser) Close() {
	b.browserCancel()
	b.allocCancel()
}

// run executes actions on the tab. It stops early when ctx is done or timeout elapses.
func (b *Browser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Navigate loads url and waits for the body to be ready.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	tasks := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if b.opts.SettleDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(b.opts.SettleDelay))
	}

	if err := b.run(ctx, b.opts.NavigationTimeout+b.opts.SettleDelay, tasks...); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("%w: %s: %w", common.ErrNavigation, url, err)
	}
	return nil
}

// VisibleText returns the rendered text of the first element matching scope.
func (b *Browser) VisibleText(ctx context.Context, scope string) (string, error) {
	var text string
	if err := b.run(ctx, b.opts.ActionTimeout, chromedp.Text(scope, &text, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read text of %s: %w", scope, err)
	}
	return text, nil
}

// FindSearchControl tries the search input selectors in order. When none matches a usable
// input it clicks the first search button it can find and looks again.
func (b *Browser) FindSearchControl(ctx context.Context) (common.SearchControl, error) {
	var found bool
	if err := b.run(ctx, b.opts.ActionTimeout, chromedp.Evaluate(markFirstUsableJS(SearchSelectors), &found)); err != nil {
		return "", fmt.Errorf("look up search input: %w", err)
	}
	if found {
		return markedControl, nil
	}

	b.opts.Logger.Debug("No search input, trying search buttons")

	var clicked bool
	if err := b.run(ctx, b.opts.ActionTimeout, chromedp.Evaluate(clickFirstJS(SearchButtonSelectors, SearchButtonText), &clicked)); err != nil {
		return "", fmt.Errorf("look up search button: %w", err)
	}
	if !clicked {
		return "", common.ErrNoSearchControl
	}

	if err := b.run(ctx, b.opts.ActionTimeout+b.opts.SettleDelay,
		chromedp.Sleep(b.opts.SettleDelay),
		chromedp.Evaluate(markFirstUsableJS(RevealedSearchSelectors), &found),
	); err != nil {
		return "", fmt.Errorf("look up revealed search input: %w", err)
	}
	if !found {
		return "", common.ErrNoSearchControl
	}
	return markedControl, nil
}

// TypeAndSubmit replaces the control's value with text and presses Enter.
func (b *Browser) TypeAndSubmit(ctx context.Context, ctl common.SearchControl, text string) error {
	sel := string(ctl)
	tasks := []chromedp.Action{
		chromedp.Click(sel, chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, text, chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.SendKeys(sel, kb.Enter, chromedp.ByQuery),
	}
	if b.opts.SettleDelay > 0 {
		tasks = append(tasks, chromedp.Sleep(b.opts.SettleDelay))
	}

	if err := b.run(ctx, b.opts.NavigationTimeout+b.opts.SettleDelay, tasks...); err != nil {
		return fmt.Errorf("type search: %w", err)
	}
	return nil
}

// ListAnchors returns every anchor whose href contains hrefPattern, in document order.
func (b *Browser) ListAnchors(ctx context.Context, hrefPattern string) ([]common.Anchor, error) {
	var anchorsJSON string
	if err := b.run(ctx, b.opts.ActionTimeout, chromedp.Evaluate(anchorsJS(hrefPattern), &anchorsJSON)); err != nil {
		return nil, fmt.Errorf("list anchors: %w", err)
	}

	var anchors []common.Anchor
	if err := json.Unmarshal([]byte(anchorsJSON), &anchors); err != nil {
		return nil, fmt.Errorf("parse anchors: %w", err)
	}
	return anchors, nil
}

// markFirstUsableJS builds a script that tags the first visible, enabled input matching one
// of selectors, tried in order, and reports whether one was found.
func markFirstUsableJS(selectors []string) string {
	selectorsJSON, _ := json.Marshal(selectors)

	return fmt.Sprintf(`
	(() => {
		document.querySelectorAll('[data-tcas-search]').forEach(el => el.removeAttribute('data-tcas-search'));
		const selectors = %s;
		for (const sel of selectors) {
			let elements;
			try {
				elements = document.querySelectorAll(sel);
			} catch (e) {
				continue;
			}
			for (const el of elements) {
				const rect = el.getBoundingClientRect();
				const style = window.getComputedStyle(el);
				if (el.disabled || el.readOnly || el.type === 'hidden') continue;
				if (rect.width === 0 || rect.height === 0 || style.visibility === 'hidden') continue;
				el.setAttribute('data-tcas-search', '1');
				return true;
			}
		}
		return false;
	})()`, selectorsJSON)
}

// clickFirstJS builds a script that clicks the first element matching selectors, or else the
// first button or link whose text contains text.
func clickFirstJS(selectors []string, text string) string {
	selectorsJSON, _ := json.Marshal(selectors)
	textJSON, _ := json.Marshal(text)

	return fmt.Sprintf(`
	(() => {
		const selectors = %s;
		for (const sel of selectors) {
			const el = document.querySelector(sel);
			if (el) {
				el.click();
				return true;
			}
		}
		const text = %s;
		for (const el of document.querySelectorAll('button, a')) {
			if (el.innerText && el.innerText.includes(text)) {
				el.click();
				return true;
			}
		}
		return false;
	})()`, selectorsJSON, textJSON)
}

// anchorsJS builds a script returning matching anchors as a JSON array.
func anchorsJS(hrefPattern string) string {
	patternJSON, _ := json.Marshal(hrefPattern)

	return fmt.Sprintf(`
	(() => {
		const pattern = %s;
		const links = Array.from(document.querySelectorAll('a[href]'));
		return JSON.stringify(links
			.filter(a => a.getAttribute('href').includes(pattern))
			.map(a => ({href: a.getAttribute('href'), text: a.innerText || ''})));
	})()`, patternJSON)
}
