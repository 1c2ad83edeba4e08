package crawl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/go-scripts/tcas/internal/config"
	"github.com/go-scripts/tcas/pkg/common"
)

const homePage = `<html><body>
<nav><a href="/about">เกี่ยวกับ</a></nav>
<form action="/search" method="get">
  <input type="hidden" name="lang" value="th">
  <input type="text" name="q" placeholder="ค้นหาข้อมูลหลักสูตร เช่น ชื่อสาขา">
  <button type="submit">ค้นหา</button>
</form>
</body></html>`

var searchResults = map[string]string{
	"วิศวกรรม คอมพิวเตอร์": `
<li><a href="/programs/1">วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมคอมพิวเตอร์</a></li>
<li><a href="/programs/2">วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมปัญญาประดิษฐ์</a></li>
<li><a href="/about">เกี่ยวกับเว็บไซต์นี้ทั้งหมด</a></li>`,
	"วิศวกรรมปัญญาประดิษฐ์": `
<li><a href="/programs/2">วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมปัญญาประดิษฐ์</a></li>
<li><a href="/programs/3">Artificial Intelligence Engineering</a></li>`,
}

const kasetsartHTML = `<html><head><title>KU</title><script>var name = "มหาวิทยาลัยปลอม";</script></head><body>
<h1>วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมคอมพิวเตอร์</h1>
<div>มหาวิทยาลัยเกษตรศาสตร์ <span>วิทยาเขตกำแพงแสน</span></div>
<p>ค่าเล่าเรียน 25,000 บาท ต่อภาคการศึกษา</p>
</body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, homePage)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("lang") != "th" {
			http.Error(w, "missing lang", http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, "<html><body><ul>%s</ul></body></html>", searchResults[r.URL.Query().Get("q")])
	})
	mux.HandleFunc("/programs/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, kasetsartHTML)
	})
	mux.HandleFunc("/programs/3", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/programs/2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><h1>วิศวกรรมปัญญาประดิษฐ์</h1><p>มหาวิทยาลัยมหิดล</p></body></html>")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStaticPageSearch(t *testing.T) {
	srv := newSite(t)
	page := NewStaticPage(StaticOptions{Client: srv.Client()})
	ctx := context.Background()

	require.NoError(t, page.Navigate(ctx, srv.URL))

	ctl, err := page.FindSearchControl(ctx)
	require.NoError(t, err)
	assert.Equal(t, common.SearchControl(SearchSelectors[0]), ctl)

	require.NoError(t, page.TypeAndSubmit(ctx, ctl, "วิศวกรรม คอมพิวเตอร์"))

	anchors, err := page.ListAnchors(ctx, "/programs/")
	require.NoError(t, err)
	assert.Equal(t, []common.Anchor{
		{Href: "/programs/1", Text: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมคอมพิวเตอร์"},
		{Href: "/programs/2", Text: "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมปัญญาประดิษฐ์"},
	}, anchors)
}

func TestStaticPageVisibleText(t *testing.T) {
	srv := newSite(t)
	page := NewStaticPage(StaticOptions{Client: srv.Client()})
	ctx := context.Background()

	require.NoError(t, page.Navigate(ctx, srv.URL+"/programs/1"))

	text, err := page.VisibleText(ctx, "body")
	require.NoError(t, err)
	assert.Equal(t, "วิศวกรรมศาสตรบัณฑิต สาขาวิชาวิศวกรรมคอมพิวเตอร์\n"+
		"มหาวิทยาลัยเกษตรศาสตร์ วิทยาเขตกำแพงแสน\n"+
		"ค่าเล่าเรียน 25,000 บาท ต่อภาคการศึกษา", text)

	_, err = page.VisibleText(ctx, "article")
	assert.Error(t, err)
}

func TestStaticPageErrors(t *testing.T) {
	srv := newSite(t)
	page := NewStaticPage(StaticOptions{Client: srv.Client()})
	ctx := context.Background()

	_, err := page.VisibleText(ctx, "body")
	assert.Error(t, err)

	err = page.Navigate(ctx, srv.URL+"/programs/404")
	assert.ErrorIs(t, err, common.ErrNavigation)

	require.NoError(t, page.Navigate(ctx, srv.URL+"/programs/2"))
	_, err = page.FindSearchControl(ctx)
	assert.ErrorIs(t, err, common.ErrNoSearchControl)
	assert.ErrorIs(t, page.TypeAndSubmit(ctx, "input", "x"), common.ErrNoSearchControl)
}

func TestVisibleText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div>
		<style>.a{}</style>
		<table><tr><td>ค่าเล่าเรียน</td><td>25,000   บาท</td></tr></table>
		line<br>break <!-- hidden -->
		<input value="not text">
	</div>`))
	require.NoError(t, err)

	assert.Equal(t, "ค่าเล่าเรียน 25,000 บาท\nline\nbreak", VisibleText(doc))
}

func testConfig(baseURL string) config.Config {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.Pacing.BetweenSearches = 0
	cfg.Pacing.BetweenPages = 0
	return cfg
}

type runObserver struct {
	passes   int
	total    int
	resolved int
}

func (o *runObserver) PassStarted(common.SearchTermConfig) { o.passes++ }

func (o *runObserver) PassFinished(common.SearchTermConfig, int, error) {}

func (o *runObserver) SetTotal(total int) { o.total = total }

func (o *runObserver) Resolved(common.CandidateLink, *common.ProgramRecord, error) { o.resolved++ }

func TestCrawlerRun(t *testing.T) {
	srv := newSite(t)
	page := NewStaticPage(StaticOptions{Client: srv.Client()})
	obs := &runObserver{}

	c, err := NewCrawler(page, testConfig(srv.URL), WithObserver(obs))
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Candidates, 3)
	assert.Equal(t, srv.URL+"/programs/1", res.Candidates[0].URL)
	assert.Equal(t, "วิศวกรรม คอมพิวเตอร์", res.Candidates[0].SearchTerm)
	assert.Equal(t, srv.URL+"/programs/2", res.Candidates[1].URL)
	assert.Equal(t, "วิศวกรรมปัญญาประดิษฐ์", res.Candidates[1].SearchTerm)
	assert.Equal(t, srv.URL+"/programs/3", res.Candidates[2].URL)

	// programs/3 fails and is skipped
	require.Len(t, res.Records, 2)
	ku := res.Records[0]
	assert.Contains(t, ku.Institution, "มหาวิทยาลัยเกษตรศาสตร์")
	assert.Equal(t, "กำแพงแสน", ku.Campus)
	assert.Equal(t, 25000, ku.Tuition.Amount)
	assert.Equal(t, "วิศวกรรม คอมพิวเตอร์", ku.Category)

	assert.Equal(t, "มหาวิทยาลัยมหิดล", res.Records[1].Institution)
	assert.False(t, res.Records[1].Tuition.Known())

	assert.Equal(t, 2, obs.passes)
	assert.Equal(t, 3, obs.total)
	assert.Equal(t, 3, obs.resolved)
}

func TestCrawlerRunLimit(t *testing.T) {
	srv := newSite(t)
	cfg := testConfig(srv.URL)
	cfg.Limit = 1

	c, err := NewCrawler(NewStaticPage(StaticOptions{Client: srv.Client()}), cfg)
	require.NoError(t, err)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 3)
	require.Len(t, res.Records, 1)
	assert.Equal(t, srv.URL+"/programs/1", res.Records[0].URL)
}

func TestCrawlerRunCancelled(t *testing.T) {
	srv := newSite(t)
	c, err := NewCrawler(NewStaticPage(StaticOptions{Client: srv.Client()}), testConfig(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Records)
}

func TestNewCrawlerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig("https://course.mytcas.com")
	cfg.Searches = nil

	_, err := NewCrawler(NewStaticPage(StaticOptions{}), cfg)
	assert.Error(t, err)

	_, err = NewCrawler(nil, testConfig("https://course.mytcas.com"))
	assert.Error(t, err)
}

func TestNewPacer(t *testing.T) {
	ctx := context.Background()

	unlimited := NewPacer(0)
	for i := 0; i < 5; i++ {
		require.NoError(t, unlimited.Wait(ctx))
	}

	p := NewPacer(time.Hour)
	require.NoError(t, p.Wait(ctx))

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.Error(t, p.Wait(short))
}

func TestBrowserScripts(t *testing.T) {
	js := markFirstUsableJS(SearchSelectors)
	assert.Contains(t, js, `input[placeholder*=\"ค้นหาข้อมูลหลักสูตร\"]`)
	assert.Contains(t, js, "data-tcas-search")

	assert.Contains(t, anchorsJS("/programs/"), `const pattern = "/programs/";`)
	assert.Contains(t, clickFirstJS(SearchButtonSelectors, SearchButtonText), `"ค้นหา"`)
}
