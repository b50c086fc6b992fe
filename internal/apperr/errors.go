// Package apperr defines the error taxonomy shared by the documentation cache.
package apperr

import "errors"

var (
	// ErrRead reports a document or source file that could not be read.
	ErrRead = errors.New("read error")
	// ErrMalformedFrontmatter reports a metadata block that could not be decoded.
	ErrMalformedFrontmatter = errors.New("malformed frontmatter")
	// ErrRootNotFound reports that no documentation root exists above the start path.
	ErrRootNotFound = errors.New("documentation root not found")
	// ErrReferenceUnresolvable reports a reference sync could not fingerprint.
	ErrReferenceUnresolvable = errors.New("reference unresolvable")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrPathEscapes           = errors.New("path escapes project root")
	ErrInvalidRequest        = errors.New("invalid request")
)
