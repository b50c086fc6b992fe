package cache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/docctx/internal/storage"
)

// resolver fingerprints reference targets for a single operation. A path
// naming a loaded document resolves to that document's snapshot; any other
// file is hashed at most once per resolver.
type resolver struct {
	c    *Cache
	mu   sync.Mutex
	memo map[string]*memoEntry
}

type memoEntry struct {
	once sync.Once
	fp   string
	err  error
}

func (c *Cache) newResolver() *resolver {
	return &resolver{c: c, memo: make(map[string]*memoEntry)}
}

func (r *resolver) Fingerprint(ref string) (string, error) {
	rel := r.c.normalize(ref)
	if i, ok := r.c.byRel[rel]; ok {
		return r.c.docs[i].SnapshotFingerprint(), nil
	}

	r.mu.Lock()
	e, ok := r.memo[rel]
	if !ok {
		e = &memoEntry{}
		r.memo[rel] = e
	}
	r.mu.Unlock()

	e.once.Do(func() { e.fp, e.err = r.c.fingerprint(rel) })
	return e.fp, e.err
}

// fingerprint hashes a project file, consulting the persistent memo when
// one is configured.
func (c *Cache) fingerprint(rel string) (string, error) {
	if c.fpIndex == nil {
		return c.store.Fingerprint(rel)
	}

	info, err := c.store.Stat(rel)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", storage.ErrIsDirectory, rel)
	}
	fp, ok, err := c.fpIndex.Lookup(rel, info.Size(), info.ModTime())
	if err != nil {
		c.logger.Debug("cache: fingerprint index lookup failed",
			slog.String("path", rel),
			slog.String("error", err.Error()),
		)
	}
	if ok {
		return fp, nil
	}

	fp, err = c.store.Fingerprint(rel)
	if err != nil {
		return "", err
	}
	if err := c.fpIndex.Upsert(rel, info.Size(), info.ModTime(), fp); err != nil {
		c.logger.Warn("cache: fingerprint index update failed",
			slog.String("path", rel),
			slog.String("error", err.Error()),
		)
	}
	return fp, nil
}
