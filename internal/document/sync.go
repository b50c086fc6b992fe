package document

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/docctx/internal/apperr"
	"github.com/starford/docctx/internal/frontmatter"
	"github.com/starford/docctx/internal/markdown"
)

// DateLayout is the format of the updated field.
const DateLayout = "2006-01-02"

// SyncOptions controls a sync.
type SyncOptions struct {
	Now      time.Time // zero means time.Now
	Discover bool      // add paths mentioned in the body as references
}

// SyncResult describes what a sync changed.
type SyncResult struct {
	Path     string    `json:"path"`
	Changed  bool      `json:"changed"`
	Updated  []string  `json:"updated,omitempty"`
	Added    []string  `json:"added,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Warning is a non-fatal sync problem tied to one reference.
type Warning struct {
	Document  string `json:"document"`
	Reference string `json:"reference"`
	Err       error  `json:"-"`
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: %s: %v", w.Document, w.Reference, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

// MarshalJSON renders Err as a message.
func (w Warning) MarshalJSON() ([]byte, error) {
	msg := ""
	if w.Err != nil {
		msg = w.Err.Error()
	}
	return json.Marshal(struct {
		Document  string `json:"document"`
		Reference string `json:"reference"`
		Error     string `json:"error"`
	}{w.Document, w.Reference, msg})
}

// Sync recomputes every reference fingerprint, records the body fingerprint
// as hash and writes the document back through w. References that cannot
// be fingerprinted keep their previous value and are reported as warnings.
// Nothing is written, and updated is left alone, when no value changed.
func (d *Document) Sync(r Resolver, w Writer, opts SyncOptions) (*SyncResult, error) {
	src, err := d.Bytes()
	if err != nil {
		return nil, fmt.Errorf("document: sync %s: %w", d.Rel, err)
	}
	// Work on a copy so a failed write leaves d untouched.
	fm, body, err := frontmatter.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("document: sync %s: %w", d.Rel, err)
	}

	res := &SyncResult{Path: d.Rel}
	for _, path := range fm.References().Keys() {
		fp, err := r.Fingerprint(path)
		if err != nil {
			res.Warnings = append(res.Warnings, Warning{
				Document:  d.Rel,
				Reference: path,
				Err:       fmt.Errorf("%w: %w", apperr.ErrReferenceUnresolvable, err),
			})
			continue
		}
		if old, _ := fm.Reference(path); old != fp {
			fm.SetReference(path, fp)
			res.Updated = append(res.Updated, path)
		}
	}

	if opts.Discover {
		for _, path := range markdown.ExtractPaths(body) {
			if _, ok := fm.Reference(path); ok || path == d.Rel {
				continue
			}
			fp, err := r.Fingerprint(path)
			if err != nil {
				continue
			}
			fm.SetReference(path, fp)
			res.Added = append(res.Added, path)
		}
	}

	fm.SetHash(d.BodyFingerprint())
	if !fm.Modified() {
		return res, nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	fm.SetUpdated(now.UTC().Format(DateLayout))

	out, err := fm.Encode(body)
	if err != nil {
		return nil, fmt.Errorf("document: sync %s: %w", d.Rel, err)
	}
	fresh, freshBody, err := frontmatter.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("document: sync %s: re-encode: %w", d.Rel, err)
	}
	if err := w.Write(d.Rel, out); err != nil {
		return nil, fmt.Errorf("document: sync %s: %w", d.Rel, err)
	}

	d.Frontmatter = fresh
	d.Body = freshBody
	res.Changed = true
	return res, nil
}
