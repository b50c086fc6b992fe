package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/docctx/internal/discovery"
	"github.com/starford/docctx/internal/frontmatter"
	"github.com/starford/docctx/internal/storage"
)

// Init scaffolds a documentation root under projectDir: an index at the top
// plus guides/ and references/, each with its own index. Existing files are
// left alone. It returns the absolute documentation root.
func Init(projectDir, marker string) (string, error) {
	if marker == "" {
		marker = discovery.Marker
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("cache: init: %w", err)
	}
	root := filepath.Join(abs, marker)

	template, err := frontmatter.New("index", "").Encode([]byte("\n"))
	if err != nil {
		return "", fmt.Errorf("cache: init: %w", err)
	}
	for _, dir := range []string{root, filepath.Join(root, "guides"), filepath.Join(root, "references")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("cache: init: %w", err)
		}
		p := filepath.Join(dir, DefaultIndexName)
		if _, err := os.Stat(p); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("cache: init: %w", err)
		}
		if err := storage.WriteFileAtomic(p, template, 0o644); err != nil {
			return "", fmt.Errorf("cache: init: %w", err)
		}
	}
	return root, nil
}
