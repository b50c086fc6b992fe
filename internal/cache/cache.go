// Package cache loads every document under a documentation root and answers
// status, find, search and sync queries over the tree.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/docctx/internal/apperr"
	"github.com/starford/docctx/internal/discovery"
	"github.com/starford/docctx/internal/document"
	"github.com/starford/docctx/internal/index"
	"github.com/starford/docctx/internal/storage"
)

// Cache owns the documents of one documentation root. Documents refer to
// each other only by path; byRel is the lookup table.
type Cache struct {
	root        string // absolute documentation root
	rootRel     string // root relative to the project
	projectRoot string
	store       *storage.FS

	docs     []*document.Document // sorted by Rel
	byRel    map[string]int
	children [][]int // index document → aggregated documents
	warnings []LoadWarning

	workers   int
	logger    *slog.Logger
	indexName string
	fpIndex   index.FingerprintIndex
	now       func() time.Time
}

// LoadWarning records a document that could not be loaded.
type LoadWarning struct {
	Path string
	Err  error
}

func (w LoadWarning) Error() string { return w.Path + ": " + w.Err.Error() }

func (w LoadWarning) Unwrap() error { return w.Err }

// MarshalJSON renders Err as a message.
func (w LoadWarning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	}{w.Path, w.Err.Error()})
}

// Load discovers and decodes every markdown file below root. A document that
// fails to load becomes a warning; failure to list the root is fatal.
func Load(ctx context.Context, root string, opts ...Option) (*Cache, error) {
	c := &Cache{
		workers:   DefaultWorkers,
		logger:    slog.Default(),
		indexName: DefaultIndexName,
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cache: resolve root: %w: %w", apperr.ErrRead, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cache: stat root: %w: %w", apperr.ErrRead, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache: %w: root is not a directory: %s", apperr.ErrRead, abs)
	}
	c.root = abs
	c.projectRoot = discovery.ProjectRoot(abs)

	if c.store, err = storage.NewFS(c.projectRoot); err != nil {
		return nil, fmt.Errorf("cache: %w: %w", apperr.ErrRead, err)
	}
	if c.rootRel, err = c.store.Rel(abs); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	paths, skipped, err := c.store.ListMarkdown(c.rootRel)
	if err != nil {
		return nil, fmt.Errorf("cache: %w: %w", apperr.ErrRead, err)
	}
	for _, sk := range skipped {
		c.warnings = append(c.warnings, LoadWarning{Path: sk.Path, Err: fmt.Errorf("%w: %w", apperr.ErrRead, sk.Err)})
		c.logger.Warn("cache: skipping unreadable path",
			slog.String("path", sk.Path),
			slog.String("error", sk.Err.Error()),
		)
	}

	loaded := make([]*document.Document, len(paths))
	failed := make([]error, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := c.store.Read(rel)
			if err != nil {
				failed[i] = fmt.Errorf("%w: %w", apperr.ErrRead, err)
				return nil
			}
			d, err := document.Decode(c.abs(rel), rel, data)
			if err != nil {
				failed[i] = err
				return nil
			}
			loaded[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.byRel = make(map[string]int, len(paths))
	for i, rel := range paths {
		if failed[i] != nil {
			c.warnings = append(c.warnings, LoadWarning{Path: rel, Err: failed[i]})
			c.logger.Warn("cache: skipping document",
				slog.String("path", rel),
				slog.String("error", failed[i].Error()),
			)
			continue
		}
		c.byRel[rel] = len(c.docs)
		c.docs = append(c.docs, loaded[i])
	}
	c.children = c.buildIndexEdges()

	c.logger.Debug("cache: loaded",
		slog.String("root", c.root),
		slog.Int("documents", len(c.docs)),
		slog.Int("warnings", len(c.warnings)),
	)
	return c, nil
}

// Root returns the absolute documentation root.
func (c *Cache) Root() string { return c.root }

// ProjectRoot returns the directory all reference paths are relative to.
func (c *Cache) ProjectRoot() string { return c.projectRoot }

// Documents returns the loaded documents ordered by path.
func (c *Cache) Documents() []*document.Document {
	out := make([]*document.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Document returns the document with the given project-relative path.
func (c *Cache) Document(rel string) (*document.Document, bool) {
	i, ok := c.byRel[c.normalize(rel)]
	if !ok {
		return nil, false
	}
	return c.docs[i], true
}

// Warnings returns the load failures.
func (c *Cache) Warnings() []LoadWarning { return c.warnings }

// IsIndex reports whether d is an index document.
func (c *Cache) IsIndex(d *document.Document) bool {
	return path.Base(d.Rel) == c.indexName
}

// ResolveDocPath maps p to a loaded document. p may be absolute, relative to
// the working directory, relative to the project or relative to the
// documentation root.
func (c *Cache) ResolveDocPath(p string) (string, error) {
	candidates := []string{c.normalize(p)}
	if !filepath.IsAbs(p) {
		candidates = append(candidates, path.Join(c.rootRel, filepath.ToSlash(p)))
		if abs, err := filepath.Abs(p); err == nil {
			if rel, err := c.store.Rel(abs); err == nil {
				candidates = append(candidates, rel)
			}
		}
	}
	for _, cand := range candidates {
		if _, ok := c.byRel[cand]; ok {
			return cand, nil
		}
	}
	return "", fmt.Errorf("cache: %w: %s", apperr.ErrDocumentNotFound, p)
}

// SourceDirs returns the absolute directories that hold referenced files
// which currently exist, sorted.
func (c *Cache) SourceDirs() []string {
	seen := make(map[string]struct{})
	for _, d := range c.docs {
		d.Frontmatter.References().Each(func(ref, _ string) {
			abs, err := c.store.Abs(c.normalize(ref))
			if err != nil {
				return
			}
			dir := filepath.Dir(abs)
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				seen[dir] = struct{}{}
			}
		})
	}
	out := make([]string, 0, len(seen))
	for dir := range seen {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

func (c *Cache) abs(rel string) string {
	return filepath.Join(c.projectRoot, filepath.FromSlash(rel))
}

// normalize turns a user or reference path into the project-relative,
// slash-separated form used as a lookup key.
func (c *Cache) normalize(p string) string {
	if filepath.IsAbs(p) {
		if rel, err := c.store.Rel(filepath.Clean(p)); err == nil {
			return rel
		}
	}
	p = path.Clean(filepath.ToSlash(p))
	return strings.TrimPrefix(p, "./")
}
