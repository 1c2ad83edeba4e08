// Package progress renders discovery and resolution progress on a terminal.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/bubbles/progress"

	"github.com/go-scripts/tcas/pkg/common"
)

// Tracker shows a spinner while a search pass runs and a progress bar while program pages
// are resolved. It satisfies the discovery and resolve observer interfaces.
type Tracker struct {
	out     io.Writer
	spinner *spinner.Spinner
	bar     progress.Model

	total  int
	done   int
	failed int
	mu     sync.Mutex
}

// New creates a Tracker writing to out
func New(out io.Writer) *Tracker {
	return &Tracker{
		out:     out,
		spinner: spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(out)),
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

// PassStarted starts the spinner for a search pass.
func (t *Tracker) PassStarted(cfg common.SearchTermConfig) {
	t.spinner.Suffix = fmt.Sprintf(" Searching %q", cfg.Term)
	t.spinner.Start()
}

// PassFinished stops the spinner and prints the pass outcome.
func (t *Tracker) PassFinished(cfg common.SearchTermConfig, accepted int, err error) {
	t.spinner.Stop()

	if err != nil {
		fmt.Fprintf(t.out, "✗ %s: %v\n", cfg.Term, err)
		return
	}
	fmt.Fprintf(t.out, "✓ %s: %d new programs\n", cfg.Term, accepted)
}

// SetTotal sets the number of program pages to resolve and resets the counters.
func (t *Tracker) SetTotal(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
	t.done = 0
	t.failed = 0
}

// Resolved advances the progress bar by one page.
func (t *Tracker) Resolved(_ common.CandidateLink, _ *common.ProgramRecord, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done++
	if err != nil {
		t.failed++
	}

	if t.total > 0 {
		fmt.Fprintf(t.out, "\rResolving: %s %d/%d programs",
			t.bar.ViewAs(t.fraction()),
			t.done,
			t.total)
	}
}

// Finish ends the progress line.
func (t *Tracker) Finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == 0 {
		return
	}
	if t.failed > 0 {
		fmt.Fprintf(t.out, " (%d skipped)", t.failed)
	}
	fmt.Fprintln(t.out)
}

func (t *Tracker) fraction() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.done) / float64(t.total)
}
