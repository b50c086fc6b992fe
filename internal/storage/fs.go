package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/docctx/internal/apperr"
	"github.com/starford/docctx/internal/checksum"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the project directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute project directory.
func (f *FS) Root() string { return f.root }

// Abs resolves a project-relative path and rejects any result that escapes
// the root.
func (f *FS) Abs(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("%w: absolute path %s", apperr.ErrPathEscapes, rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("%w: %s", apperr.ErrPathEscapes, rel)
	}
	return abs, nil
}

// Rel converts an absolute path below the root into a slash-separated
// project-relative path.
func (f *FS) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return "", fmt.Errorf("storage: rel %s: %w", abs, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", apperr.ErrPathEscapes, abs)
	}
	return filepath.ToSlash(rel), nil
}

// Skipped is a path below a listed directory that could not be walked.
type Skipped struct {
	Path string
	Err  error
}

// ListMarkdown walks dir (relative to root) and returns the sorted
// project-relative paths of every .md file beneath it. Entries that cannot
// be read are skipped and reported; only a failure on dir itself is an error.
func (f *FS) ListMarkdown(dir string) ([]string, []Skipped, error) {
	base, err := f.Abs(dir)
	if err != nil {
		return nil, nil, err
	}
	var (
		out     []string
		skipped []Skipped
	)
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == base {
				return walkErr
			}
			rel, err := f.Rel(p)
			if err != nil {
				return err
			}
			skipped = append(skipped, Skipped{Path: rel, Err: walkErr})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := f.Rel(p)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("storage: list: %w", err)
	}
	sort.Strings(out)
	return out, skipped, nil
}

// Read returns the raw bytes of a project file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Stat returns file info for a project file.
func (f *FS) Stat(path string) (fs.FileInfo, error) {
	abs, err := f.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return info, nil
}

// ErrIsDirectory reports a reference that names a directory.
var ErrIsDirectory = errors.New("storage: path is a directory")

// Fingerprint reads a regular file and returns its content fingerprint.
func (f *FS) Fingerprint(path string) (string, error) {
	info, err := f.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	data, err := f.Read(path)
	if err != nil {
		return "", err
	}
	return checksum.Fingerprint(data), nil
}

// Write atomically writes content to a project file.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.Abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	return WriteFileAtomic(abs, content, 0o644)
}

// WriteFileAtomic writes content to abs via tmp file → fsync → rename.
// An existing file keeps its permission bits.
func WriteFileAtomic(abs string, content []byte, perm os.FileMode) error {
	if info, err := os.Stat(abs); err == nil {
		perm = info.Mode().Perm()
	}
	dir := filepath.Dir(abs)

	tmp, err := os.CreateTemp(dir, ".docctx-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
