package cache

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/starford/docctx/internal/document"
)

// Report is the outcome of StatusAll.
type Report struct {
	Validations []document.Validation `json:"documents"`
	Warnings    []LoadWarning         `json:"warnings,omitempty"`
}

// Counts tallies documents by effective status.
type Counts struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Stale    int `json:"stale"`
	Orphaned int `json:"orphaned"`
}

// Counts returns the per-status totals.
func (r *Report) Counts() Counts {
	var n Counts
	for _, v := range r.Validations {
		n.Total++
		switch v.Status {
		case document.Valid:
			n.Valid++
		case document.Stale:
			n.Stale++
		case document.Orphaned:
			n.Orphaned++
		}
	}
	return n
}

// Invalid returns the validations that are not valid.
func (r *Report) Invalid() []document.Validation {
	out := make([]document.Validation, 0)
	for _, v := range r.Validations {
		if v.Status != document.Valid {
			out = append(out, v)
		}
	}
	return out
}

// Get returns the validation for a document path.
func (r *Report) Get(rel string) (document.Validation, bool) {
	i := sort.Search(len(r.Validations), func(i int) bool { return r.Validations[i].Path >= rel })
	if i < len(r.Validations) && r.Validations[i].Path == rel {
		return r.Validations[i], true
	}
	return document.Validation{}, false
}

// ExitCode is 2 if anything is orphaned, 1 if anything is stale, else 0.
func (r *Report) ExitCode() int {
	n := r.Counts()
	switch {
	case n.Orphaned > 0:
		return 2
	case n.Stale > 0:
		return 1
	}
	return 0
}

// StatusAll validates every document against the current file system and
// folds in the status of referenced documents and index subtrees.
// Unexpected I/O errors are fatal.
func (c *Cache) StatusAll(ctx context.Context) (*Report, error) {
	r := c.newResolver()
	direct := make([]document.Validation, len(c.docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, d := range c.docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := d.Validate(r)
			if err != nil {
				return err
			}
			direct[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Validations: c.aggregate(direct),
		Warnings:    c.warnings,
	}
	n := report.Counts()
	c.logger.Debug("cache: status computed",
		slog.Int("valid", n.Valid),
		slog.Int("stale", n.Stale),
		slog.Int("orphaned", n.Orphaned),
	)
	return report, nil
}

// aggregate computes effective statuses in one memoized depth-first pass, so
// each document is resolved exactly once. A document met again while still
// on the stack contributes its direct status.
func (c *Cache) aggregate(direct []document.Validation) []document.Validation {
	const (
		unvisited = iota
		active
		finished
	)
	state := make([]int, len(direct))
	out := make([]document.Validation, len(direct))

	var visit func(i int) document.Status
	visit = func(i int) document.Status {
		switch state[i] {
		case finished:
			return out[i].Status
		case active:
			return direct[i].Direct
		}
		state[i] = active

		v := direct[i]
		v.Via = nil
		for _, j := range c.edges(i) {
			st := visit(j)
			if st == document.Valid {
				continue
			}
			v.Status = document.Worse(v.Status, st)
			v.Via = append(v.Via, c.docs[j].Rel)
		}
		sort.Strings(v.Via)

		out[i] = v
		state[i] = finished
		return v.Status
	}
	for i := range direct {
		visit(i)
	}
	return out
}
