package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/starford/docctx/internal/cache"
	"github.com/starford/docctx/internal/document"
	"github.com/starford/docctx/internal/service"
	"github.com/starford/docctx/internal/watch"
)

func TestNewPrinter_UnknownFormat(t *testing.T) {
	if _, err := newPrinter(&bytes.Buffer{}, "yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestStatusText(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter(&buf, formatText)
	res := &service.StatusResult{
		Counts: cache.Counts{Total: 2, Valid: 1, Stale: 1},
		Documents: []document.Validation{
			{Path: ".context/a.md", Status: document.Stale, Changed: []string{"src/a.rs"}},
			{Path: ".context/b.md", Status: document.Valid},
		},
	}
	if err := p.status(res, true); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"stale        .context/a.md\n",
		"changed: src/a.rs\n",
		"valid        .context/b.md\n",
		"2 documents: 1 valid, 1 stale, 0 orphaned\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	_ = p.status(res, false)
	if strings.Contains(buf.String(), "changed:") {
		t.Errorf("non-detailed output has details:\n%s", buf.String())
	}
}

func TestStatusJSON(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter(&buf, formatJSON)
	res := &service.StatusResult{
		Root:      "/p/.context",
		Counts:    cache.Counts{Total: 1, Orphaned: 1},
		Documents: []document.Validation{{Path: ".context/a.md", Status: document.Orphaned, Missing: []string{"x"}}},
		ExitCode:  2,
	}
	if err := p.status(res, false); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	docs := got["documents"].([]any)
	if docs[0].(map[string]any)["status"] != "orphaned" {
		t.Errorf("documents = %v", docs)
	}
	if _, ok := got["ExitCode"]; ok {
		t.Error("exit code leaked into JSON")
	}
}

func TestFindText(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter(&buf, formatText)
	_ = p.find([]cache.FindResult{
		{Target: "src/a.rs", Documents: []cache.FindMatch{{Path: ".context/a.md"}}},
		{Target: "src/b.rs"},
	})
	want := "src/a.rs\n  .context/a.md\nsrc/b.rs\n  (no documents)\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestSearchText(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newPrinter(&buf, formatText)
	_ = p.search([]cache.SearchResult{{Path: ".context/a.md", Line: 3, Excerpt: "JWT tokens"}})
	if buf.String() != ".context/a.md:3: JWT tokens\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTransitions(t *testing.T) {
	ts := []watch.Transition{
		{Path: ".context/a.md", From: document.Valid, To: document.Stale},
		{Path: ".context/b.md", From: document.Valid, To: document.Valid, Added: true},
		{Path: ".context/c.md", From: document.Stale, To: document.Stale, Removed: true},
	}

	var buf bytes.Buffer
	p, _ := newPrinter(&buf, formatText)
	_ = p.transitions(ts)
	want := "stale        .context/a.md (was valid)\n" +
		"valid        .context/b.md\n" +
		"removed      .context/c.md\n"
	if buf.String() != want {
		t.Errorf("text = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	p, _ = newPrinter(&buf, formatJSON)
	_ = p.transitions(ts)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.Contains(lines[0], `"to":"stale"`) {
		t.Errorf("json lines = %q", lines)
	}
}
