// Package service exposes the documentation cache operations to the CLI,
// MCP and HTTP surfaces. Every call loads the tree afresh.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/docctx/internal/apperr"
	"github.com/starford/docctx/internal/cache"
	"github.com/starford/docctx/internal/document"
	"github.com/starford/docctx/internal/metrics"
)

// StatusResult is the rendered outcome of a status check.
type StatusResult struct {
	Root      string                `json:"root"`
	Counts    cache.Counts          `json:"counts"`
	Documents []document.Validation `json:"documents"`
	Warnings  []cache.LoadWarning   `json:"warnings,omitempty"`
	ExitCode  int                   `json:"-"`
}

// DocumentItem is a lightweight item in a document listing.
type DocumentItem struct {
	Path        string               `json:"path"`
	Slug        string               `json:"slug"`
	Description string               `json:"description"`
	Updated     string               `json:"updated,omitempty"`
	Hash        string               `json:"hash,omitempty"`
	Index       bool                 `json:"index"`
	References  []document.Reference `json:"references"`
}

// SyncRequest selects what to sync. Force bypasses the fingerprint memo;
// Prune drops memo entries for files no longer referenced.
type SyncRequest struct {
	Path     string
	Discover bool
	Force    bool
	Prune    bool
}

// SearchRequest is a body search.
type SearchRequest struct {
	Query         string
	Limit         int
	CaseSensitive bool
}

// Validate checks the request fields.
func (r SearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(1000)),
	)
}

// FindRequest lists source paths to look up.
type FindRequest struct {
	Paths []string
}

// Validate checks the request fields.
func (r FindRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Paths, validation.Required, validation.Each(validation.Required)),
	)
}

// Service loads the cache rooted at root for each operation.
type Service struct {
	root      string
	cacheOpts []cache.Option
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCacheOptions passes options through to every cache load.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(s *Service) { s.cacheOpts = append(s.cacheOpts, opts...) }
}

// WithMetrics records status checks and syncs.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a service over the documentation root.
func New(root string, opts ...Option) *Service {
	s := &Service{root: root, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Root returns the documentation root.
func (s *Service) Root() string { return s.root }

func (s *Service) load(ctx context.Context, extra ...cache.Option) (*cache.Cache, error) {
	opts := append([]cache.Option{cache.WithLogger(s.logger)}, s.cacheOpts...)
	return cache.Load(ctx, s.root, append(opts, extra...)...)
}

// Status validates the whole tree. With invalidOnly, valid documents are
// left out of Documents; counts and exit code still cover everything.
func (s *Service) Status(ctx context.Context, invalidOnly bool) (*StatusResult, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rep, err := c.StatusAll(ctx)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveReport(rep, time.Since(start))

	docs := rep.Validations
	if invalidOnly {
		docs = rep.Invalid()
	}
	return &StatusResult{
		Root:      c.Root(),
		Counts:    rep.Counts(),
		Documents: nonNilSlice(docs),
		Warnings:  rep.Warnings,
		ExitCode:  rep.ExitCode(),
	}, nil
}

// Sync syncs one document or, with an empty path, all of them.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (*cache.SyncReport, error) {
	var extra []cache.Option
	if req.Force {
		extra = append(extra, cache.WithFingerprintIndex(nil))
	}
	c, err := s.load(ctx, extra...)
	if err != nil {
		return nil, err
	}
	rep, err := c.Sync(ctx, req.Path, document.SyncOptions{Discover: req.Discover})
	if err != nil {
		return nil, err
	}
	if req.Prune {
		// Prune needs the memo even when this sync bypassed it.
		pc := c
		if req.Force {
			if pc, err = s.load(ctx); err != nil {
				return nil, err
			}
		}
		if rep.Pruned, err = pc.PruneIndex(); err != nil {
			return nil, err
		}
	}
	s.metrics.ObserveSync(rep)
	return rep, nil
}

// Find returns the documents referencing each path.
func (s *Service) Find(ctx context.Context, req FindRequest) ([]cache.FindResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidRequest, err)
	}
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Find(req.Paths), nil
}

// Search scans document bodies.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]cache.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidRequest, err)
	}
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Search(req.Query, cache.SearchOptions{
		CaseSensitive: req.CaseSensitive,
		Limit:         req.Limit,
	}), nil
}

// Documents lists every loaded document.
func (s *Service) Documents(ctx context.Context) ([]DocumentItem, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	docs := c.Documents()
	items := make([]DocumentItem, len(docs))
	for i, d := range docs {
		fm := d.Frontmatter
		items[i] = DocumentItem{
			Path:        d.Rel,
			Slug:        fm.Slug(),
			Description: fm.Description(),
			Updated:     fm.Updated(),
			Hash:        fm.Hash(),
			Index:       c.IsIndex(d),
			References:  nonNilSlice(d.References()),
		}
	}
	return items, nil
}

// Snapshot loads the cache once and returns it with its status report, for
// callers that need both (the watcher).
func (s *Service) Snapshot(ctx context.Context) (*cache.Cache, *cache.Report, error) {
	c, err := s.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	start := time.Now()
	rep, err := c.StatusAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.ObserveReport(rep, time.Since(start))
	return c, rep, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
