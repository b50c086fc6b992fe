package frontmatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encode renders the metadata block followed by body. When nothing was
// modified the original block bytes are reused unchanged.
func (f *Frontmatter) Encode(body []byte) ([]byte, error) {
	if len(f.dirty) == 0 && f.head != nil {
		out := make([]byte, 0, len(f.head)+len(body))
		out = append(out, f.head...)
		return append(out, body...), nil
	}

	nl := f.newline
	var b bytes.Buffer
	b.WriteString(delim + nl)
	for _, e := range f.entries {
		if e.key == "" || !f.dirty[e.key] {
			b.WriteString(e.raw)
			continue
		}
		s, err := f.render(e.key)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
		b.WriteString(e.trailer)
	}
	for _, k := range canonicalOrder {
		if !f.dirty[k] || f.present[k] {
			continue
		}
		s, err := f.render(k)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
	}
	b.WriteString(delim + nl)
	b.Write(body)
	return b.Bytes(), nil
}

// render emits a single "key: value" entry in the block's newline style.
func (f *Frontmatter) render(key string) (string, error) {
	var val *yaml.Node
	switch key {
	case KeySlug:
		val = strNode(f.slug)
	case KeyDescription:
		val = strNode(f.description)
	case KeyHash:
		val = strNode(f.hash)
	case KeyUpdated:
		if f.updated == "" {
			val = strNode("")
		} else {
			// Untagged so dates stay plain.
			val = &yaml.Node{Kind: yaml.ScalarNode, Value: f.updated}
		}
	case KeyReferences:
		val = &yaml.Node{Kind: yaml.MappingNode}
		if f.references.Len() == 0 {
			val.Style = yaml.FlowStyle
		}
		f.references.Each(func(path, fp string) {
			val.Content = append(val.Content, strNode(path), strNode(fp))
		})
	}

	doc := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{strNode(key), val},
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}

	out := buf.String()
	if f.newline != "\n" {
		out = strings.ReplaceAll(out, "\n", f.newline)
	}
	return out, nil
}

// strNode forces string resolution so values such as "1234567" or "" are quoted.
func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
