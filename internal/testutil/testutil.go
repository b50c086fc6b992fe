// Package testutil provides shared test helpers for setting up projects and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/docctx/internal/checksum"
	"github.com/starford/docctx/internal/index"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "docctx-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestProject creates a temporary project directory populated with files
// (project-relative slash paths → content). It returns the absolute project
// directory with symlinks resolved.
func TestProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		WriteFile(t, dir, rel, content)
	}
	return dir
}

// WriteFile writes content to a project-relative path, creating parents.
func WriteFile(t *testing.T, project, rel, content string) {
	t.Helper()
	p := filepath.Join(project, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Doc renders a minimal context document with the given references
// (path, fingerprint pairs) and body.
func Doc(body string, refs ...string) string {
	s := "---\nslug: test\n"
	if len(refs) == 0 {
		s += "references: {}\n"
	} else {
		s += "references:\n"
		for i := 0; i+1 < len(refs); i += 2 {
			s += "  " + refs[i] + ": \"" + refs[i+1] + "\"\n"
		}
	}
	return s + "---\n" + body
}

// FP is the fingerprint of content.
func FP(content string) string {
	return checksum.Fingerprint([]byte(content))
}
