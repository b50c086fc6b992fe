package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/starford/docctx/internal/cache"
	"github.com/starford/docctx/internal/service"
	"github.com/starford/docctx/internal/watch"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

// printer renders command results as text or JSON.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case formatText, "human", "":
		return &printer{w: w}, nil
	case formatJSON:
		return &printer{w: w, json: true}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) message(msg string) error {
	if p.json {
		return p.encode(map[string]string{"message": msg})
	}
	p.printf("%s\n", msg)
	return nil
}

func (p *printer) status(res *service.StatusResult, detailed bool) error {
	if p.json {
		return p.encode(res)
	}
	for _, v := range res.Documents {
		p.printf("%-12s %s\n", v.Status, v.Path)
		if !detailed {
			continue
		}
		if len(v.Changed) > 0 {
			p.printf("%13s changed: %s\n", "", strings.Join(v.Changed, ", "))
		}
		if len(v.Missing) > 0 {
			p.printf("%13s missing: %s\n", "", strings.Join(v.Missing, ", "))
		}
		if len(v.Via) > 0 {
			p.printf("%13s via: %s\n", "", strings.Join(v.Via, ", "))
		}
	}
	for _, w := range res.Warnings {
		p.printf("%-12s %s\n", "unreadable", w.Error())
	}
	c := res.Counts
	p.printf("\n%d documents: %d valid, %d stale, %d orphaned\n", c.Total, c.Valid, c.Stale, c.Orphaned)
	return nil
}

func (p *printer) sync(rep *cache.SyncReport) error {
	if p.json {
		return p.encode(rep)
	}
	p.printf("Synced %d documents\n", rep.Count)
	if len(rep.Updated) > 0 {
		p.printf("Updated:\n")
		for _, path := range rep.Updated {
			p.printf("  %s\n", path)
		}
	}
	if len(rep.Warnings) > 0 {
		p.printf("Warnings:\n")
		for _, w := range rep.Warnings {
			p.printf("  %s\n", w.Error())
		}
	}
	if len(rep.Failed) > 0 {
		p.printf("Failed:\n")
		for _, f := range rep.Failed {
			p.printf("  %s: %s\n", f.Path, f.Err)
		}
	}
	if rep.Pruned > 0 {
		p.printf("Pruned %d fingerprint index entries\n", rep.Pruned)
	}
	return nil
}

func (p *printer) find(res []cache.FindResult) error {
	if p.json {
		return p.encode(res)
	}
	for _, r := range res {
		p.printf("%s\n", r.Target)
		if len(r.Documents) == 0 {
			p.printf("  (no documents)\n")
		}
		for _, m := range r.Documents {
			p.printf("  %s\n", m.Path)
		}
	}
	return nil
}

func (p *printer) search(res []cache.SearchResult) error {
	if p.json {
		return p.encode(res)
	}
	for _, r := range res {
		p.printf("%s:%d: %s\n", r.Path, r.Line, r.Excerpt)
	}
	return nil
}

// transitions writes one line per transition; JSON output is one object
// per line so it can be streamed.
func (p *printer) transitions(ts []watch.Transition) error {
	for _, t := range ts {
		if p.json {
			line, err := json.Marshal(t)
			if err != nil {
				return err
			}
			p.printf("%s\n", line)
			continue
		}
		switch {
		case t.Added:
			p.printf("%-12s %s\n", t.To, t.Path)
		case t.Removed:
			p.printf("%-12s %s\n", "removed", t.Path)
		default:
			p.printf("%-12s %s (was %s)\n", t.To, t.Path, t.From)
		}
	}
	return nil
}
