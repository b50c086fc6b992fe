package cache

// FindResult lists the documents that reference one target path.
type FindResult struct {
	Target    string      `json:"target"`
	Documents []FindMatch `json:"documents"`
}

// FindMatch is one referencing document.
type FindMatch struct {
	Path        string `json:"path"`
	Reference   string `json:"reference"`
	Fingerprint string `json:"fingerprint"`
}

// Find returns, for each target in input order, the documents whose
// references contain it. Paths are compared after normalization, so
// "./src/a.rs", "src//a.rs" and an absolute path inside the project all
// match "src/a.rs". Matches are ordered by document path.
func (c *Cache) Find(targets []string) []FindResult {
	out := make([]FindResult, 0, len(targets))
	for _, t := range targets {
		want := c.normalize(t)
		res := FindResult{Target: t, Documents: make([]FindMatch, 0)}
		for _, d := range c.docs {
			d.Frontmatter.References().Each(func(ref, fp string) {
				if c.normalize(ref) == want {
					res.Documents = append(res.Documents, FindMatch{
						Path:        d.Rel,
						Reference:   ref,
						Fingerprint: fp,
					})
				}
			})
		}
		out = append(out, res)
	}
	return out
}
