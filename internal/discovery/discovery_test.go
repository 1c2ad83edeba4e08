package discovery

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/tcas/pkg/common"
)

// fakePage serves canned anchors per search term.
type fakePage struct {
	results     map[string][]common.Anchor
	noControl   map[string]bool
	failSubmit  map[string]bool
	current     string
	searches    []string
	navigations int
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.navigations++
	return ctx.Err()
}

func (f *fakePage) VisibleText(context.Context, string) (string, error) { return "", nil }

func (f *fakePage) FindSearchControl(context.Context) (common.SearchControl, error) {
	return "input[type=search]", nil
}

func (f *fakePage) TypeAndSubmit(_ context.Context, _ common.SearchControl, text string) error {
	f.current = text
	f.searches = append(f.searches, text)
	if f.noControl[text] {
		return common.ErrNoSearchControl
	}
	if f.failSubmit[text] {
		return errors.New("timeout")
	}
	return nil
}

func (f *fakePage) ListAnchors(context.Context, string) ([]common.Anchor, error) {
	return f.results[f.current], nil
}

var configs = []common.SearchTermConfig{
	{Term: "วิศวกรรม คอมพิวเตอร์", Intent: common.IntentGeneral},
	{Term: "วิศวกรรมปัญญาประดิษฐ์", Intent: common.IntentAI},
}

func newFake() *fakePage {
	return &fakePage{
		results: map[string][]common.Anchor{
			"วิศวกรรม คอมพิวเตอร์": {
				{Href: "/programs/10", Text: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมคอมพิวเตอร์"},
				{Href: "/programs/11", Text: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมปัญญาประดิษฐ์"},
				{Href: "https://course.mytcas.com/programs/12", Text: "Computer Engineering (International Program)"},
				{Href: "/programs/13", Text: "สั้นไป"},
				{Href: "/programs/14", Text: "Intelligent Systems and AI Engineering"},
			},
			"วิศวกรรมปัญญาประดิษฐ์": {
				{Href: "/programs/11", Text: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมปัญญาประดิษฐ์"},
				{Href: "/programs/14", Text: "Intelligent Systems and AI Engineering"},
				{Href: "/programs/10", Text: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมคอมพิวเตอร์"},
			},
		},
		noControl:  map[string]bool{},
		failSubmit: map[string]bool{},
	}
}

func newDiscoverer(t *testing.T, page common.Page) *Discoverer {
	t.Helper()
	d, err := New(page, Options{BaseURL: "https://course.mytcas.com"})
	require.NoError(t, err)
	return d
}

func TestDiscover(t *testing.T) {
	page := newFake()
	d := newDiscoverer(t, page)

	links, err := d.Discover(context.Background(), configs)
	require.NoError(t, err)

	want := []common.CandidateLink{
		{URL: "https://course.mytcas.com/programs/10", Title: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมคอมพิวเตอร์", SearchTerm: "วิศวกรรม คอมพิวเตอร์"},
		{URL: "https://course.mytcas.com/programs/12", Title: "Computer Engineering (International Program)", SearchTerm: "วิศวกรรม คอมพิวเตอร์"},
		{URL: "https://course.mytcas.com/programs/11", Title: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมปัญญาประดิษฐ์", SearchTerm: "วิศวกรรมปัญญาประดิษฐ์"},
		{URL: "https://course.mytcas.com/programs/14", Title: "Intelligent Systems and AI Engineering", SearchTerm: "วิศวกรรมปัญญาประดิษฐ์"},
	}
	assert.Equal(t, want, links)
	assert.Equal(t, []string{"วิศวกรรม คอมพิวเตอร์", "วิศวกรรมปัญญาประดิษฐ์"}, page.searches)
}

func TestDiscoverFirstPassWins(t *testing.T) {
	page := &fakePage{
		results: map[string][]common.Anchor{
			"first":  {{Href: "/programs/1", Text: "Computer Engineering Program"}},
			"second": {{Href: "/programs/1", Text: "Computer Engineering Program"}},
		},
	}
	d := newDiscoverer(t, page)

	links, err := d.Discover(context.Background(), []common.SearchTermConfig{{Term: "first"}, {Term: "second"}})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "first", links[0].SearchTerm)
}

func TestDiscoverIdempotent(t *testing.T) {
	page := newFake()
	d := newDiscoverer(t, page)

	first, err := d.Discover(context.Background(), configs)
	require.NoError(t, err)
	second, err := d.Discover(context.Background(), configs)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	seen := map[string]bool{}
	for _, l := range second {
		assert.False(t, seen[l.URL], "duplicate %s", l.URL)
		seen[l.URL] = true
	}
	// each pass accepts two links
	assert.LessOrEqual(t, len(second), 4)
}

func TestDiscoverFailedPassIsSkipped(t *testing.T) {
	page := newFake()
	page.noControl["วิศวกรรม คอมพิวเตอร์"] = true
	d := newDiscoverer(t, page)

	links, err := d.Discover(context.Background(), configs)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		assert.Equal(t, "วิศวกรรมปัญญาประดิษฐ์", l.SearchTerm)
	}
}

type recordingObserver struct {
	started  []string
	finished map[string]int
	errs     map[string]error
}

func (r *recordingObserver) PassStarted(cfg common.SearchTermConfig) {
	r.started = append(r.started, cfg.Term)
}

func (r *recordingObserver) PassFinished(cfg common.SearchTermConfig, accepted int, err error) {
	r.finished[cfg.Term] = accepted
	r.errs[cfg.Term] = err
}

func TestDiscoverNotifiesObserver(t *testing.T) {
	page := newFake()
	page.failSubmit["วิศวกรรมปัญญาประดิษฐ์"] = true
	obs := &recordingObserver{finished: map[string]int{}, errs: map[string]error{}}

	d, err := New(page, Options{BaseURL: "https://course.mytcas.com", Observer: obs})
	require.NoError(t, err)

	_, err = d.Discover(context.Background(), configs)
	require.NoError(t, err)

	assert.Equal(t, []string{"วิศวกรรม คอมพิวเตอร์", "วิศวกรรมปัญญาประดิษฐ์"}, obs.started)
	assert.Equal(t, 2, obs.finished["วิศวกรรม คอมพิวเตอร์"])
	assert.NoError(t, obs.errs["วิศวกรรม คอมพิวเตอร์"])
	assert.Error(t, obs.errs["วิศวกรรมปัญญาประดิษฐ์"])
}

type cancelPacer struct {
	calls  int
	cancel context.CancelFunc
}

func (p *cancelPacer) Wait(ctx context.Context) error {
	p.calls++
	if p.calls == 2 {
		p.cancel()
	}
	return ctx.Err()
}

func TestDiscoverCancelledKeepsCollected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	page := newFake()
	pacer := &cancelPacer{cancel: cancel}
	d, err := New(page, Options{BaseURL: "https://course.mytcas.com", Pacer: pacer})
	require.NoError(t, err)

	links, err := d.Discover(ctx, configs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, links, 2)
	assert.Equal(t, 2, pacer.calls)
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New(newFake(), Options{BaseURL: "course.mytcas.com"})
	assert.Error(t, err)

	_, err = New(nil, Options{BaseURL: "https://course.mytcas.com"})
	assert.Error(t, err)
}

func TestDiscoverLogsDuplicates(t *testing.T) {
	anchors := []common.Anchor{
		{Href: "/programs/20", Text: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมหุ่นยนต์"},
		{Href: "/programs/21", Text: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมเมคคาทรอนิกส์"},
	}
	page := newFake()
	page.results = map[string][]common.Anchor{"หุ่นยนต์": anchors, "เมคคาทรอนิกส์": anchors}

	var buf bytes.Buffer
	d, err := New(page, Options{BaseURL: "https://course.mytcas.com", Logger: log.New(&buf)})
	require.NoError(t, err)

	links, err := d.Discover(context.Background(), []common.SearchTermConfig{
		{Term: "หุ่นยนต์"},
		{Term: "เมคคาทรอนิกส์"},
	})
	require.NoError(t, err)
	assert.Len(t, links, 2)
	out := buf.String()
	assert.Contains(t, out, "Discovery finished")
	assert.Contains(t, out, "programs=2")
	assert.Contains(t, out, "duplicates=2")
}
