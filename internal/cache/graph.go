package cache

import (
	"path"
	"sort"
)

// buildIndexEdges links every index document to what it aggregates: the
// other documents in its directory and, per child directory, that
// directory's index or, when it has none, the child's contents resolved
// the same way.
func (c *Cache) buildIndexEdges() [][]int {
	direct := make(map[string][]int)                // dir → non-index documents
	indexes := make(map[string]int)                 // dir → index document
	subdirs := make(map[string]map[string]struct{}) // dir → child dirs

	for i, d := range c.docs {
		dir := path.Dir(d.Rel)
		if c.IsIndex(d) {
			indexes[dir] = i
		} else {
			direct[dir] = append(direct[dir], i)
		}
		for dir != c.rootRel && dir != "." && dir != "/" {
			parent := path.Dir(dir)
			if subdirs[parent] == nil {
				subdirs[parent] = make(map[string]struct{})
			}
			subdirs[parent][dir] = struct{}{}
			dir = parent
		}
	}

	var collect func(dir string) []int
	collect = func(dir string) []int {
		out := append([]int(nil), direct[dir]...)
		kids := make([]string, 0, len(subdirs[dir]))
		for k := range subdirs[dir] {
			kids = append(kids, k)
		}
		sort.Strings(kids)
		for _, k := range kids {
			if i, ok := indexes[k]; ok {
				out = append(out, i)
				continue
			}
			out = append(out, collect(k)...)
		}
		return out
	}

	edges := make([][]int, len(c.docs))
	for dir, i := range indexes {
		edges[i] = collect(dir)
	}
	return edges
}

// edges returns the documents whose status flows into document i: the
// documents it references and, for an index, the documents it aggregates.
func (c *Cache) edges(i int) []int {
	seen := map[int]struct{}{i: {}}
	var out []int
	add := func(j int) {
		if _, ok := seen[j]; ok {
			return
		}
		seen[j] = struct{}{}
		out = append(out, j)
	}
	c.docs[i].Frontmatter.References().Each(func(ref, _ string) {
		if j, ok := c.byRel[c.normalize(ref)]; ok {
			add(j)
		}
	})
	for _, j := range c.children[i] {
		add(j)
	}
	return out
}

// dependencyOrder lists every document after the documents it depends on.
// Members of a cycle are emitted in traversal order.
func (c *Cache) dependencyOrder() []int {
	const (
		unvisited = iota
		active
		finished
	)
	state := make([]int, len(c.docs))
	order := make([]int, 0, len(c.docs))

	var visit func(i int)
	visit = func(i int) {
		if state[i] != unvisited {
			return
		}
		state[i] = active
		for _, j := range c.edges(i) {
			visit(j)
		}
		state[i] = finished
		order = append(order, i)
	}
	for i := range c.docs {
		visit(i)
	}
	return order
}
