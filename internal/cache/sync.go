package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/starford/docctx/internal/document"
)

// SyncFailure is a document whose sync failed.
type SyncFailure struct {
	Path string
	Err  error
}

// MarshalJSON renders Err as a message.
func (f SyncFailure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}{f.Path, f.Err.Error()})
}

// SyncReport summarizes a sync over one or more documents.
type SyncReport struct {
	Count     int                    `json:"count"`
	Updated   []string               `json:"updated"`
	Unchanged []string               `json:"unchanged"`
	Failed    []SyncFailure          `json:"failed,omitempty"`
	Warnings  []document.Warning     `json:"warnings,omitempty"`
	Pruned    int                    `json:"pruned,omitempty"`
	Results   []*document.SyncResult `json:"-"`
}

// Sync syncs the document named by target, or every document when target
// is empty. A full sync runs dependencies first so that documents
// referencing other documents record fresh hashes.
func (c *Cache) Sync(ctx context.Context, target string, opts document.SyncOptions) (*SyncReport, error) {
	if opts.Now.IsZero() {
		opts.Now = c.now()
	}

	var order []int
	if target == "" {
		order = c.dependencyOrder()
	} else {
		rel, err := c.ResolveDocPath(target)
		if err != nil {
			return nil, err
		}
		order = []int{c.byRel[rel]}
	}

	r := c.newResolver()
	report := &SyncReport{Updated: make([]string, 0), Unchanged: make([]string, 0)}
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := c.docs[i]
		report.Count++

		res, err := d.Sync(r, c.store, opts)
		if err != nil {
			report.Failed = append(report.Failed, SyncFailure{Path: d.Rel, Err: err})
			c.logger.Error("cache: sync failed",
				slog.String("path", d.Rel),
				slog.String("error", err.Error()),
			)
			continue
		}
		report.Results = append(report.Results, res)
		report.Warnings = append(report.Warnings, res.Warnings...)
		for _, w := range res.Warnings {
			c.logger.Warn("cache: reference unresolvable",
				slog.String("path", w.Document),
				slog.String("reference", w.Reference),
				slog.String("error", w.Err.Error()),
			)
		}
		if res.Changed {
			report.Updated = append(report.Updated, d.Rel)
		} else {
			report.Unchanged = append(report.Unchanged, d.Rel)
		}
	}
	return report, nil
}

// PruneIndex drops fingerprint memo entries for files no document
// references any more. It is a no-op without a memo.
func (c *Cache) PruneIndex() (int, error) {
	if c.fpIndex == nil {
		return 0, nil
	}
	keep := make(map[string]struct{})
	for _, d := range c.docs {
		d.Frontmatter.References().Each(func(ref, _ string) {
			keep[c.normalize(ref)] = struct{}{}
		})
	}
	n, err := c.fpIndex.Prune(keep)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.logger.Info("cache: pruned fingerprint index", slog.Int("removed", n))
	}
	return n, nil
}
