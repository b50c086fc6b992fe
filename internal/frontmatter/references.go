package frontmatter

// References is an insertion-ordered map of project-relative path to
// expected fingerprint.
type References struct {
	keys []string
	vals map[string]string
}

// NewReferences returns an empty reference map.
func NewReferences() *References {
	return &References{vals: make(map[string]string)}
}

// Len returns the number of references.
func (r *References) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Get returns the stored fingerprint for path.
func (r *References) Get(path string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.vals[path]
	return v, ok
}

// Set stores fp for path. New paths are appended; existing ones keep their position.
func (r *References) Set(path, fp string) {
	if _, ok := r.vals[path]; !ok {
		r.keys = append(r.keys, path)
	}
	r.vals[path] = fp
}

// Delete removes path.
func (r *References) Delete(path string) {
	if _, ok := r.vals[path]; !ok {
		return
	}
	delete(r.vals, path)
	for i, k := range r.keys {
		if k == path {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the paths in order.
func (r *References) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Each calls fn for every reference in order.
func (r *References) Each(fn func(path, fp string)) {
	if r == nil {
		return
	}
	for _, k := range r.keys {
		fn(k, r.vals[k])
	}
}

// Clone returns an independent copy.
func (r *References) Clone() *References {
	out := NewReferences()
	r.Each(out.Set)
	return out
}
