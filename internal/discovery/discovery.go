// Package discovery locates the documentation root above a working directory.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/docctx/internal/apperr"
)

// Marker is the default name of the documentation root directory.
const Marker = ".context"

// FindRoot walks upward from start and returns the absolute path of the
// nearest directory named Marker.
func FindRoot(start string) (string, error) {
	return FindRootWithMarker(start, Marker)
}

// FindRootWithMarker is FindRoot with a custom marker directory name.
func FindRootWithMarker(start, marker string) (string, error) {
	if marker == "" {
		marker = Marker
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	for {
		candidate := filepath.Join(dir, marker)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no %s directory above %s", apperr.ErrRootNotFound, marker, start)
		}
		dir = parent
	}
}

// ProjectRoot returns the directory that contains the documentation root.
func ProjectRoot(root string) string {
	return filepath.Dir(filepath.Clean(root))
}
