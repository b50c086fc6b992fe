package frontmatter

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/docctx/internal/apperr"
)

const sample = `---
slug: auth
# owner: platform team
description: "Authentication flow"   # shown in listings
references:
  src/auth/jwt.rs: a1b2c3d
  'src/auth/session.rs': 0f0f0f0
updated: 2025-01-21
custom:
  - keep
  - me
---

# Auth

Uses JWT tokens.
`

func TestParse_Fields(t *testing.T) {
	fm, body, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fm.Slug() != "auth" {
		t.Errorf("slug = %q", fm.Slug())
	}
	if fm.Description() != "Authentication flow" {
		t.Errorf("description = %q", fm.Description())
	}
	if fm.Updated() != "2025-01-21" {
		t.Errorf("updated = %q", fm.Updated())
	}
	if fm.Hash() != "" || fm.Has(KeyHash) {
		t.Errorf("hash = %q, present = %v", fm.Hash(), fm.Has(KeyHash))
	}
	keys := fm.References().Keys()
	if strings.Join(keys, ",") != "src/auth/jwt.rs,src/auth/session.rs" {
		t.Errorf("reference keys = %v", keys)
	}
	if fp, _ := fm.Reference("src/auth/session.rs"); fp != "0f0f0f0" {
		t.Errorf("session fingerprint = %q", fp)
	}
	if got := strings.Join(fm.Keys(), ","); got != "slug,description,references,updated,custom" {
		t.Errorf("keys = %q", got)
	}
	if string(body) != "\n# Auth\n\nUses JWT tokens.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestEncode_UntouchedIsByteIdentical(t *testing.T) {
	cases := []string{
		sample,
		"---\n---\nbody\n",
		"---\nslug: x\n---",
		"---\r\nslug: x\r\nreferences: {}\r\n---\r\nline one\r\n",
		"---\n# only a comment\n---\nbody",
	}
	for _, in := range cases {
		fm, body, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		out, err := fm.Encode(body)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if string(out) != in {
			t.Errorf("round trip mismatch:\n got %q\nwant %q", out, in)
		}
	}
}

func TestEncode_RewritesOnlyChangedEntries(t *testing.T) {
	fm, body, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fm.SetReference("src/auth/jwt.rs", "ffff000")
	fm.SetReference("src/auth/new.rs", "1234567")
	fm.SetUpdated("2025-02-01")
	fm.SetHash("abcdef0")

	out, err := fm.Encode(body)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `---
slug: auth
# owner: platform team
description: "Authentication flow"   # shown in listings
references:
  src/auth/jwt.rs: ffff000
  src/auth/session.rs: 0f0f0f0
  src/auth/new.rs: "1234567"
updated: 2025-02-01
custom:
  - keep
  - me
hash: abcdef0
---

# Auth

Uses JWT tokens.
`
	if string(out) != want {
		t.Errorf("encode mismatch:\n got %q\nwant %q", out, want)
	}

	again, _, err := Parse(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if fp, _ := again.Reference("src/auth/new.rs"); fp != "1234567" {
		t.Errorf("numeric-looking fingerprint decoded as %q", fp)
	}
}

func TestEncode_CRLFPreservedOnRewrite(t *testing.T) {
	in := "---\r\nslug: x\r\nhash: aaaaaaa\r\n---\r\nbody\r\n"
	fm, body, err := Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fm.SetHash("bbbbbbb")
	out, err := fm.Encode(body)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "---\r\nslug: x\r\nhash: bbbbbbb\r\n---\r\nbody\r\n"
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestSetters_SameValueIsNotModification(t *testing.T) {
	fm, _, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fm.SetSlug("auth")
	fm.SetUpdated("2025-01-21")
	fm.SetReference("src/auth/jwt.rs", "a1b2c3d")
	fm.DeleteReference("not/there.rs")
	if fm.Modified() {
		t.Error("frontmatter marked modified without a value change")
	}
}

func TestDeleteReference(t *testing.T) {
	fm, body, err := Parse([]byte("---\nreferences:\n  a/b.go: 1111111\n---\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fm.DeleteReference("a/b.go")
	out, err := fm.Encode(body)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(out) != "---\nreferences: {}\n---\n" {
		t.Errorf("got %q", out)
	}
}

func TestNew_IndexTemplate(t *testing.T) {
	out, err := New("index", "").Encode(nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "---\nslug: index\ndescription: \"\"\nreferences: {}\nupdated: \"\"\n---\n"
	if string(out) != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestParse_NullValues(t *testing.T) {
	fm, _, err := Parse([]byte("---\nslug:\ndescription: ~\nreferences:\n---\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fm.Slug() != "" || fm.Description() != "" || fm.References().Len() != 0 {
		t.Errorf("unexpected values: %q %q %d", fm.Slug(), fm.Description(), fm.References().Len())
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"no delimiter":      "# Title\n",
		"unterminated":      "---\nslug: x\n# body\n",
		"invalid yaml":      "---\nslug: [unclosed\n---\n",
		"flow mapping":      "---\n{slug: x}\n---\n",
		"sequence":          "---\n- a\n- b\n---\n",
		"references list":   "---\nreferences:\n  - a.rs\n---\n",
		"slug mapping":      "---\nslug:\n  a: b\n---\n",
		"duplicate key":     "---\nslug: a\nslug: b\n---\n",
		"leading blank":     "\n---\nslug: x\n---\n",
		"reference nesting": "---\nreferences:\n  a.rs:\n    x: y\n---\n",
		"duplicate ref":     "---\nreferences:\n  src/a.rs: \"1111111\"\n  src/a.rs: \"2222222\"\n---\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse([]byte(in))
			if !errors.Is(err, apperr.ErrMalformedFrontmatter) {
				t.Errorf("err = %v, want ErrMalformedFrontmatter", err)
			}
		})
	}
}
