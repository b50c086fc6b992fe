package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/docctx/internal/apperr"
	"github.com/starford/docctx/internal/cache"
	"github.com/starford/docctx/internal/metrics"
	"github.com/starford/docctx/internal/testutil"
)

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	project := testutil.TestProject(t, map[string]string{
		"src/a.rs":                   "A",
		".context/index.md":          testutil.Doc("\n"),
		".context/guides/auth.md":    testutil.Doc("JWT handling.\n", "src/a.rs", "0000000"),
		".context/references/api.md": testutil.Doc("API.\n", "src/a.rs", testutil.FP("A")),
	})
	return New(filepath.Join(project, ".context"), WithMetrics(metrics.New(nil))), project
}

func TestStatus(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	all, err := s.Status(ctx, false)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if all.Counts.Total != 3 || len(all.Documents) != 3 {
		t.Errorf("counts = %+v, docs = %d", all.Counts, len(all.Documents))
	}
	if all.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", all.ExitCode)
	}

	invalid, err := s.Status(ctx, true)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	// The stale guide and the root index that aggregates it.
	if len(invalid.Documents) != 2 {
		t.Errorf("invalid = %+v", invalid.Documents)
	}
}

func TestSyncThenValid(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	rep, err := s.Sync(ctx, SyncRequest{})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if rep.Count != 3 {
		t.Errorf("count = %d", rep.Count)
	}
	st, err := s.Status(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if st.ExitCode != 0 || len(st.Documents) != 0 {
		t.Errorf("after sync: %+v", st.Documents)
	}

	if _, err := s.Sync(ctx, SyncRequest{Path: "missing.md"}); !errors.Is(err, apperr.ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestFindAndSearch(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	res, err := s.Find(ctx, FindRequest{Paths: []string{"src/a.rs"}})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(res) != 1 || len(res[0].Documents) != 2 {
		t.Errorf("find = %+v", res)
	}

	hits, err := s.Search(ctx, SearchRequest{Query: "jwt"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Path != ".context/guides/auth.md" {
		t.Errorf("search = %+v", hits)
	}
}

func TestRequestValidation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	if _, err := s.Search(ctx, SearchRequest{}); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("empty query err = %v", err)
	}
	if _, err := s.Search(ctx, SearchRequest{Query: "x", Limit: -1}); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("negative limit err = %v", err)
	}
	if _, err := s.Find(ctx, FindRequest{}); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("no paths err = %v", err)
	}
	if _, err := s.Find(ctx, FindRequest{Paths: []string{""}}); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("blank path err = %v", err)
	}
}

func TestDocuments(t *testing.T) {
	s, _ := newService(t)
	items, err := s.Documents(context.Background())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("items = %d", len(items))
	}
	if items[0].Path != ".context/guides/auth.md" || len(items[0].References) != 1 {
		t.Errorf("first item = %+v", items[0])
	}
	if !items[1].Index || items[1].References == nil {
		t.Errorf("index item = %+v", items[1])
	}
}

func TestSyncForceAndPrune(t *testing.T) {
	project := testutil.TestProject(t, map[string]string{
		"src/a.rs":          "A",
		".context/index.md": testutil.Doc("\n", "src/a.rs", "0000000"),
	})
	db := testutil.TestDB(t)
	if err := db.Upsert("src/old.rs", 1, time.Now(), "1111111"); err != nil {
		t.Fatal(err)
	}
	s := New(filepath.Join(project, ".context"), WithCacheOptions(cache.WithFingerprintIndex(db)))

	rep, err := s.Sync(context.Background(), SyncRequest{Force: true, Prune: true})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if rep.Pruned != 1 || len(rep.Updated) != 1 {
		t.Errorf("report = %+v", rep)
	}
	paths, _ := db.AllPaths()
	if _, ok := paths["src/a.rs"]; ok {
		t.Error("forced sync should not write the memo")
	}
	if _, ok := paths["src/old.rs"]; ok {
		t.Error("unreferenced entry survived prune")
	}
}

