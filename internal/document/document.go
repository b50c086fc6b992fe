// Package document models a single context document: its metadata block,
// its body, and its validity against the source files it references.
package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/docctx/internal/apperr"
	"github.com/starford/docctx/internal/checksum"
	"github.com/starford/docctx/internal/frontmatter"
	"github.com/starford/docctx/internal/storage"
)

// Document is one markdown file below the documentation root.
type Document struct {
	Path        string // absolute
	Rel         string // project-relative, slash separated
	Frontmatter *frontmatter.Frontmatter
	Body        []byte
}

// Reference is one declared dependency.
type Reference struct {
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint"`
}

// Resolver fingerprints project-relative paths. Missing targets must report
// an error matching fs.ErrNotExist.
type Resolver interface {
	Fingerprint(rel string) (string, error)
}

// Writer persists a document's new content atomically.
type Writer interface {
	Write(rel string, content []byte) error
}

// Validation is the outcome of checking a document's references.
type Validation struct {
	Path    string   `json:"path"`
	Status  Status   `json:"status"`
	Direct  Status   `json:"direct"`
	Changed []string `json:"changed,omitempty"`
	Missing []string `json:"missing,omitempty"`
	Via     []string `json:"via,omitempty"`
}

// Load reads and decodes the document at path. rel is derived from projectRoot.
func Load(path, projectRoot string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("document: load %s: %w: %w", path, apperr.ErrRead, err)
	}
	rel, err := filepath.Rel(projectRoot, abs)
	if err != nil {
		return nil, fmt.Errorf("document: load %s: %w: %w", path, apperr.ErrRead, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("document: load %s: %w: %w", path, apperr.ErrRead, err)
	}
	return Decode(abs, filepath.ToSlash(rel), data)
}

// Decode builds a document from raw file bytes.
func Decode(path, rel string, data []byte) (*Document, error) {
	fm, body, err := frontmatter.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("document: %s: %w", rel, err)
	}
	return &Document{Path: path, Rel: rel, Frontmatter: fm, Body: body}, nil
}

// Bytes returns the serialized file content.
func (d *Document) Bytes() ([]byte, error) {
	return d.Frontmatter.Encode(d.Body)
}

// References returns the declared references in order.
func (d *Document) References() []Reference {
	var out []Reference
	d.Frontmatter.References().Each(func(path, fp string) {
		out = append(out, Reference{Path: path, Fingerprint: fp})
	})
	return out
}

// BodyFingerprint fingerprints the current body.
func (d *Document) BodyFingerprint() string {
	return checksum.Fingerprint(d.Body)
}

// SnapshotFingerprint is what other documents record when they reference
// this one: the stored hash, or the live body fingerprint if none was synced.
func (d *Document) SnapshotFingerprint() string {
	if h := d.Frontmatter.Hash(); h != "" {
		return h
	}
	return d.BodyFingerprint()
}

// Validate checks every reference against r. A reference whose target is
// missing, escapes the project, or is a directory makes the document
// orphaned; a fingerprint mismatch makes it stale. Other resolver errors are
// returned.
func (d *Document) Validate(r Resolver) (Validation, error) {
	v := Validation{Path: d.Rel}
	for _, ref := range d.References() {
		fp, err := r.Fingerprint(ref.Path)
		switch {
		case err == nil:
			if fp != ref.Fingerprint {
				v.Changed = append(v.Changed, ref.Path)
			}
		case IsMissing(err):
			v.Missing = append(v.Missing, ref.Path)
		default:
			return Validation{}, fmt.Errorf("document: validate %s: %w", d.Rel, err)
		}
	}
	switch {
	case len(v.Missing) > 0:
		v.Direct = Orphaned
	case len(v.Changed) > 0:
		v.Direct = Stale
	}
	v.Status = v.Direct
	return v, nil
}

// Status validates against the files under projectRoot. References to
// other documents in the same documentation root resolve to their snapshot
// fingerprint, as they do during a full status check.
func (d *Document) Status(projectRoot string) (Status, error) {
	store, err := storage.NewFS(projectRoot)
	if err != nil {
		return Valid, err
	}
	v, err := d.Validate(&fsResolver{store: store, docRoot: docRoot(d.Rel)})
	if err != nil {
		return Valid, err
	}
	return v.Status, nil
}

// IsMissing reports whether err means a reference target does not exist as
// a regular file inside the project.
func IsMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, apperr.ErrPathEscapes) ||
		errors.Is(err, storage.ErrIsDirectory)
}

// fsResolver fingerprints project files, treating markdown files below
// docRoot that decode as documents by their snapshot.
type fsResolver struct {
	store   *storage.FS
	docRoot string
}

func (r *fsResolver) Fingerprint(ref string) (string, error) {
	rel := strings.TrimPrefix(path.Clean(filepath.ToSlash(ref)), "./")
	if r.docRoot == "" || !strings.HasPrefix(rel, r.docRoot+"/") || !strings.HasSuffix(rel, ".md") {
		return r.store.Fingerprint(rel)
	}
	data, err := r.store.Read(rel)
	if err != nil {
		return r.store.Fingerprint(rel)
	}
	doc, err := Decode(rel, rel, data)
	if err != nil {
		return r.store.Fingerprint(rel)
	}
	return doc.SnapshotFingerprint(), nil
}

// docRoot is the first segment of a project-relative document path.
func docRoot(rel string) string {
	if i := strings.IndexByte(rel, '/'); i > 0 {
		return rel[:i]
	}
	return ""
}
