// Package frontmatter decodes and re-encodes the YAML metadata block at the
// top of a context document. Entries that are not modified are emitted
// byte-for-byte, so an untouched document round-trips exactly.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/docctx/internal/apperr"
)

// Known top-level keys.
const (
	KeySlug        = "slug"
	KeyDescription = "description"
	KeyReferences  = "references"
	KeyUpdated     = "updated"
	KeyHash        = "hash"
)

// canonicalOrder is the order in which keys absent from the source are appended.
var canonicalOrder = []string{KeySlug, KeyDescription, KeyReferences, KeyUpdated, KeyHash}

const delim = "---"

// entry is one top-level key together with its raw source lines.
// The preamble (comments before the first key) has an empty key.
type entry struct {
	key     string
	raw     string
	trailer string // blank and column-0 comment lines kept when the entry is re-rendered
}

// Frontmatter is a decoded metadata block.
type Frontmatter struct {
	slug        string
	description string
	references  *References
	updated     string
	hash        string

	newline string
	head    []byte // original bytes from the opening delimiter through the closing one
	entries []entry
	present map[string]bool
	dirty   map[string]bool
}

// New returns a fresh metadata block for a new document. All canonical
// fields except hash are emitted on Encode.
func New(slug, description string) *Frontmatter {
	f := &Frontmatter{
		slug:        slug,
		description: description,
		references:  NewReferences(),
		newline:     "\n",
		present:     make(map[string]bool),
		dirty:       make(map[string]bool),
	}
	for _, k := range []string{KeySlug, KeyDescription, KeyReferences, KeyUpdated} {
		f.dirty[k] = true
	}
	return f
}

// Parse splits data into a metadata block and body. The body is every byte
// after the closing delimiter line, unmodified.
func Parse(data []byte) (*Frontmatter, []byte, error) {
	nl := "\n"
	if bytes.HasPrefix(data, []byte(delim+"\r\n")) {
		nl = "\r\n"
	}
	open := []byte(delim + nl)
	if !bytes.HasPrefix(data, open) {
		return nil, nil, malformed("missing opening delimiter")
	}

	rest := data[len(open):]
	var block []byte
	var bodyStart int
	switch {
	case bytes.HasPrefix(rest, open):
		bodyStart = 2 * len(open)
	case string(rest) == delim:
		bodyStart = len(data)
	default:
		closeSeq := []byte(nl + delim + nl)
		if idx := bytes.Index(rest, closeSeq); idx >= 0 {
			block = rest[:idx+len(nl)]
			bodyStart = len(open) + idx + len(closeSeq)
		} else if bytes.HasSuffix(rest, []byte(nl+delim)) {
			block = rest[:len(rest)-len(delim)]
			bodyStart = len(data)
		} else {
			return nil, nil, malformed("missing closing delimiter")
		}
	}

	f := &Frontmatter{
		references: NewReferences(),
		newline:    nl,
		head:       bytes.Clone(data[:bodyStart]),
		present:    make(map[string]bool),
		dirty:      make(map[string]bool),
	}
	if err := f.decode(block); err != nil {
		return nil, nil, err
	}

	body := bytes.Clone(data[bodyStart:])
	if body == nil {
		body = []byte{}
	}
	return f, body, nil
}

func (f *Frontmatter) decode(block []byte) error {
	var root yaml.Node
	if err := yaml.Unmarshal(block, &root); err != nil {
		return malformed(err.Error())
	}

	lines := splitLines(string(block))
	if root.Kind == 0 || len(root.Content) == 0 {
		f.entries = []entry{{raw: strings.Join(lines, "")}}
		return nil
	}

	m := root.Content[0]
	if m.Kind == yaml.ScalarNode && m.Tag == "!!null" {
		f.entries = []entry{{raw: strings.Join(lines, "")}}
		return nil
	}
	if m.Kind != yaml.MappingNode {
		return malformed("top level is not a mapping")
	}
	if m.Style&yaml.FlowStyle != 0 {
		return malformed("top level must be a block mapping")
	}

	starts := make([]int, 0, len(m.Content)/2)
	for i := 0; i+1 < len(m.Content); i += 2 {
		k, v := m.Content[i], m.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return malformed("non-scalar key")
		}
		if f.present[k.Value] {
			return malformed(fmt.Sprintf("duplicate key %q", k.Value))
		}
		if len(starts) > 0 && k.Line-1 <= starts[len(starts)-1] {
			return malformed(fmt.Sprintf("key %q shares a line with the previous entry", k.Value))
		}
		if err := f.assign(k.Value, v); err != nil {
			return err
		}
		f.present[k.Value] = true
		starts = append(starts, k.Line-1)
	}

	f.entries = append(f.entries, entry{raw: strings.Join(lines[:starts[0]], "")})
	for i, start := range starts {
		end := len(lines)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		seg := lines[start:end]
		cut := len(seg)
		for cut > 1 && isTrailerLine(seg[cut-1]) {
			cut--
		}
		f.entries = append(f.entries, entry{
			key:     m.Content[2*i].Value,
			raw:     strings.Join(seg, ""),
			trailer: strings.Join(seg[cut:], ""),
		})
	}
	return nil
}

func (f *Frontmatter) assign(key string, v *yaml.Node) error {
	switch key {
	case KeySlug:
		return scalar(key, v, &f.slug)
	case KeyDescription:
		return scalar(key, v, &f.description)
	case KeyUpdated:
		return scalar(key, v, &f.updated)
	case KeyHash:
		return scalar(key, v, &f.hash)
	case KeyReferences:
		if v.Kind == yaml.ScalarNode && v.Tag == "!!null" {
			return nil
		}
		if v.Kind != yaml.MappingNode {
			return malformed("references must be a mapping")
		}
		for i := 0; i+1 < len(v.Content); i += 2 {
			var path, fp string
			if err := scalar(key, v.Content[i], &path); err != nil {
				return err
			}
			if err := scalar(key, v.Content[i+1], &fp); err != nil {
				return err
			}
			if _, dup := f.references.Get(path); dup {
				return malformed(fmt.Sprintf("duplicate reference %q", path))
			}
			f.references.Set(path, fp)
		}
	}
	return nil
}

func scalar(key string, n *yaml.Node, dst *string) error {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return malformed(fmt.Sprintf("%s must be a scalar", key))
	}
	if n.Tag == "!!null" {
		*dst = ""
		return nil
	}
	*dst = n.Value
	return nil
}

func malformed(detail string) error {
	return fmt.Errorf("%w: %s", apperr.ErrMalformedFrontmatter, detail)
}

// splitLines splits s after each '\n', keeping terminators.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isTrailerLine(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return strings.HasPrefix(line, "#")
}

func (f *Frontmatter) Slug() string        { return f.slug }
func (f *Frontmatter) Description() string { return f.description }
func (f *Frontmatter) Updated() string     { return f.updated }
func (f *Frontmatter) Hash() string        { return f.hash }

// References returns a copy of the reference map.
func (f *Frontmatter) References() *References { return f.references.Clone() }

// Reference returns the recorded fingerprint for path.
func (f *Frontmatter) Reference(path string) (string, bool) { return f.references.Get(path) }

// Has reports whether key appeared in the source block.
func (f *Frontmatter) Has(key string) bool { return f.present[key] }

// Keys returns the top-level keys of the source block in order, including
// keys this package does not interpret.
func (f *Frontmatter) Keys() []string {
	var out []string
	for _, e := range f.entries {
		if e.key != "" {
			out = append(out, e.key)
		}
	}
	return out
}

// Modified reports whether any field changed since parsing.
func (f *Frontmatter) Modified() bool { return len(f.dirty) > 0 }

func (f *Frontmatter) setScalar(key string, dst *string, v string) {
	if *dst == v {
		return
	}
	*dst = v
	f.dirty[key] = true
}

func (f *Frontmatter) SetSlug(v string)        { f.setScalar(KeySlug, &f.slug, v) }
func (f *Frontmatter) SetDescription(v string) { f.setScalar(KeyDescription, &f.description, v) }
func (f *Frontmatter) SetUpdated(v string)     { f.setScalar(KeyUpdated, &f.updated, v) }
func (f *Frontmatter) SetHash(v string)        { f.setScalar(KeyHash, &f.hash, v) }

// SetReference records fp for path. A new path is appended after the
// existing ones.
func (f *Frontmatter) SetReference(path, fp string) {
	if cur, ok := f.references.Get(path); ok && cur == fp {
		return
	}
	f.references.Set(path, fp)
	f.dirty[KeyReferences] = true
}

// DeleteReference removes path from the reference map.
func (f *Frontmatter) DeleteReference(path string) {
	if _, ok := f.references.Get(path); !ok {
		return
	}
	f.references.Delete(path)
	f.dirty[KeyReferences] = true
}
