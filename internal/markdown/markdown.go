// Package markdown finds source-file mentions in a document body.
package markdown

import (
	"bytes"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractPaths returns the path-like strings written as single-backtick code
// spans in body. Fenced and indented code blocks are ignored. A span is
// path-like when it contains "/" or starts with "./"; the leading "./" is
// stripped. Absolute paths and parent traversals are dropped. The result is
// deduplicated and sorted.
func ExtractPaths(body []byte) []string {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	seen := make(map[string]struct{})
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		span, ok := n.(*gmast.CodeSpan)
		if !ok {
			return gmast.WalkContinue, nil
		}
		raw, start := spanText(span, body)
		if start < 0 || fenceWidth(body, start) != 1 {
			return gmast.WalkSkipChildren, nil
		}
		if p, ok := normalize(raw); ok {
			seen[p] = struct{}{}
		}
		return gmast.WalkSkipChildren, nil
	})

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func spanText(span *gmast.CodeSpan, src []byte) (string, int) {
	var b bytes.Buffer
	start := -1
	for c := span.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*gmast.Text)
		if !ok {
			continue
		}
		if start < 0 {
			start = t.Segment.Start
		}
		b.Write(t.Segment.Value(src))
	}
	return b.String(), start
}

// fenceWidth counts the backticks that open the span whose content starts at
// offset start, allowing for the single padding space CommonMark strips.
func fenceWidth(src []byte, start int) int {
	i := start - 1
	if i >= 0 && src[i] == ' ' {
		i--
	}
	n := 0
	for ; i >= 0 && src[i] == '`'; i-- {
		n++
	}
	return n
}

func normalize(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t") {
		return "", false
	}
	if !strings.Contains(s, "/") && !strings.HasPrefix(s, "./") {
		return "", false
	}
	s = strings.TrimPrefix(s, "./")
	if s == "" || strings.HasPrefix(s, "/") {
		return "", false
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == ".." {
			return "", false
		}
	}
	return path.Clean(s), true
}
