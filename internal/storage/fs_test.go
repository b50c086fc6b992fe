package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/starford/docctx/internal/apperr"
	"github.com/starford/docctx/internal/checksum"
)

func tempProject(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempProject(t)
	content := []byte("# Hello\nWorld\n")
	if err := s.Write(".context/note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read(".context/note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestListMarkdown(t *testing.T) {
	s := tempProject(t)
	_ = s.Write(".context/index.md", []byte("a"))
	_ = s.Write(".context/guides/b.md", []byte("b"))
	_ = s.Write(".context/guides/notes.txt", []byte("not md"))
	_ = s.Write("src/readme.md", []byte("outside"))

	items, skipped, err := s.ListMarkdown(".context")
	if err != nil {
		t.Fatalf("ListMarkdown: %v", err)
	}
	want := []string{".context/guides/b.md", ".context/index.md"}
	if !reflect.DeepEqual(items, want) {
		t.Errorf("items = %v, want %v", items, want)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v", skipped)
	}
}

func TestListMarkdown_UnreadableDirIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	s := tempProject(t)
	_ = s.Write(".context/index.md", []byte("a"))
	_ = s.Write(".context/locked/b.md", []byte("b"))
	locked := filepath.Join(s.Root(), ".context", "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	items, skipped, err := s.ListMarkdown(".context")
	if err != nil {
		t.Fatalf("ListMarkdown: %v", err)
	}
	if !reflect.DeepEqual(items, []string{".context/index.md"}) {
		t.Errorf("items = %v", items)
	}
	if len(skipped) != 1 || skipped[0].Path != ".context/locked" {
		t.Errorf("skipped = %v, want .context/locked", skipped)
	}
}

func TestListMarkdown_MissingDirIsError(t *testing.T) {
	s := tempProject(t)
	if _, _, err := s.ListMarkdown(".context/nope"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFingerprint(t *testing.T) {
	s := tempProject(t)
	_ = s.Write("src/a.rs", []byte("fn a() {}"))

	fp, err := s.Fingerprint("src/a.rs")
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp != checksum.Fingerprint([]byte("fn a() {}")) {
		t.Errorf("fingerprint = %q", fp)
	}

	if _, err := s.Fingerprint("src/missing.rs"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v, want ErrNotExist", err)
	}
	if _, err := s.Fingerprint("src"); !errors.Is(err, ErrIsDirectory) {
		t.Errorf("directory err = %v, want ErrIsDirectory", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempProject(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrPathEscapes) {
			t.Errorf("Read(%q) err = %v, want ErrPathEscapes", p, err)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
		if _, err := s.Fingerprint(p); err == nil {
			t.Errorf("expected error for fingerprint of %q", p)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	s := tempProject(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".docctx-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestWriteFileAtomic_KeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestRel(t *testing.T) {
	s := tempProject(t)
	rel, err := s.Rel(filepath.Join(s.Root(), ".context", "guides", "a.md"))
	if err != nil {
		t.Fatalf("Rel: %v", err)
	}
	if rel != ".context/guides/a.md" {
		t.Errorf("rel = %q", rel)
	}
	if _, err := s.Rel(filepath.Dir(s.Root())); !errors.Is(err, apperr.ErrPathEscapes) {
		t.Errorf("parent err = %v, want ErrPathEscapes", err)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "docctx-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
