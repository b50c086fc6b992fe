package cache

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const excerptRunes = 120

// SearchOptions controls Search.
type SearchOptions struct {
	CaseSensitive bool
	Limit         int // 0 means unlimited
}

// SearchResult is one matching document.
type SearchResult struct {
	Path        string `json:"path"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Line        int    `json:"line"`
	Offset      int    `json:"offset"`
	Excerpt     string `json:"excerpt"`
}

// Search finds documents whose body contains term as a literal substring.
// Results are ordered by the byte offset of the first match, then by path.
func (c *Cache) Search(term string, opts SearchOptions) []SearchResult {
	out := make([]SearchResult, 0)
	if term == "" {
		return out
	}
	pattern := regexp.QuoteMeta(term)
	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re := regexp.MustCompile(pattern)

	for _, d := range c.docs {
		loc := re.FindIndex(d.Body)
		if loc == nil {
			continue
		}
		out = append(out, SearchResult{
			Path:        d.Rel,
			Slug:        d.Frontmatter.Slug(),
			Description: d.Frontmatter.Description(),
			Line:        bytes.Count(d.Body[:loc[0]], []byte("\n")) + 1,
			Offset:      loc[0],
			Excerpt:     excerpt(d.Body, loc[0], loc[1]),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}
		return out[i].Path < out[j].Path
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// excerpt returns the line holding body[start:end], trimmed and windowed to
// about excerptRunes runes around the match.
func excerpt(body []byte, start, end int) string {
	ls := bytes.LastIndexByte(body[:start], '\n') + 1
	le := len(body)
	if i := bytes.IndexByte(body[start:], '\n'); i >= 0 {
		le = start + i
	}
	if le > end && body[le-1] == '\r' {
		le--
	}
	if end > le {
		end = le
	}
	line := body[ls:le]
	if utf8.RuneCount(line) <= excerptRunes {
		return strings.TrimSpace(string(line))
	}

	before := []rune(string(body[ls:start]))
	match := string(body[start:end])
	after := []rune(string(body[end:le]))

	budget := excerptRunes - utf8.RuneCountInString(match)
	if budget < 0 {
		budget = 0
	}
	nb := min(len(before), budget/2)
	na := min(len(after), budget-nb)
	if nb+na < budget {
		nb = min(len(before), budget-na)
	}

	var b strings.Builder
	if nb < len(before) {
		b.WriteString("…")
	}
	b.WriteString(string(before[len(before)-nb:]))
	b.WriteString(match)
	b.WriteString(string(after[:na]))
	if na < len(after) {
		b.WriteString("…")
	}
	return strings.TrimSpace(b.String())
}
