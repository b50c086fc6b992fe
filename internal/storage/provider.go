// Package storage provides project-relative file access for documents and
// the source files they reference.
package storage

import "io/fs"

// Provider is the interface for project file operations. All paths are
// slash-separated and relative to the project root.
type Provider interface {
	// ListMarkdown returns every .md file under dir, sorted, along with the
	// entries it could not read.
	ListMarkdown(dir string) ([]string, []Skipped, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
	// Fingerprint returns the content fingerprint of the regular file at path.
	Fingerprint(path string) (string, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}

var _ Provider = (*FS)(nil)
