package watch

import (
	"context"
	"sort"
	"sync"

	"github.com/starford/docctx/internal/cache"
	"github.com/starford/docctx/internal/document"
	"github.com/starford/docctx/internal/service"
)

// Transition is a change in a document's effective status between two
// refreshes. Added and Removed mark documents that appeared or disappeared.
type Transition struct {
	Path    string          `json:"path"`
	From    document.Status `json:"from"`
	To      document.Status `json:"to"`
	Added   bool            `json:"added,omitempty"`
	Removed bool            `json:"removed,omitempty"`
}

// Tracker remembers the last known statuses and reports what changed.
type Tracker struct {
	svc *service.Service

	mu   sync.Mutex
	prev map[string]document.Status
}

// NewTracker returns a tracker with no history; the first Refresh reports
// every document as added.
func NewTracker(svc *service.Service) *Tracker {
	return &Tracker{svc: svc}
}

// Refresh reloads the tree, computes status and returns the transitions
// since the previous call along with the fresh cache and report.
func (t *Tracker) Refresh(ctx context.Context) ([]Transition, *cache.Cache, *cache.Report, error) {
	c, rep, err := t.svc.Snapshot(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(map[string]document.Status, len(rep.Validations))
	var out []Transition
	for _, v := range rep.Validations {
		next[v.Path] = v.Status
		old, ok := t.prev[v.Path]
		switch {
		case !ok:
			out = append(out, Transition{Path: v.Path, From: v.Status, To: v.Status, Added: true})
		case old != v.Status:
			out = append(out, Transition{Path: v.Path, From: old, To: v.Status})
		}
	}
	for p, old := range t.prev {
		if _, ok := next[p]; !ok {
			out = append(out, Transition{Path: p, From: old, To: old, Removed: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	t.prev = next
	return out, c, rep, nil
}
