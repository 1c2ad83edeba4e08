package queue

import (
	"sync"

	"github.com/go-scripts/tcas/pkg/common"
)

// Queue is a FIFO of candidate links that admits each URL only once.
// The first link pushed for a URL wins; later duplicates are dropped.
type Queue struct {
	links []common.CandidateLink
	seen  map[string]bool
	mu    sync.Mutex
}

// New creates a new Queue instance
func New() *Queue {
	return &Queue{
		links: make([]common.CandidateLink, 0),
		seen:  make(map[string]bool),
	}
}

// Add appends link unless its URL was already added. It reports whether the link was kept.
func (q *Queue) Add(link common.CandidateLink) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.seen[link.URL] {
		return false
	}

	q.seen[link.URL] = true
	q.links = append(q.links, link)
	return true
}

// SeenCount returns the number of distinct URLs ever added.
func (q *Queue) SeenCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.seen)
}

// Drain removes and returns every waiting link in order.
func (q *Queue) Drain() []common.CandidateLink {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.links
	q.links = make([]common.CandidateLink, 0)
	return out
}
