package mcpserver

// DocumentFormatContract describes the context document format that LLM
// consumers should follow when writing or editing documents.
const DocumentFormatContract = `# Context Document Format Contract

Context documents live under the ` + "`" + `.context/` + "`" + ` directory at the project root.
Each one describes part of the code base and records which source files it
was written against.

## Structure

` + "```" + `markdown
---
slug: auth-guide                    # identifier, free-form
description: How login tokens work  # one line, shown in listings
references:                         # project-relative path -> fingerprint
  src/auth/login.rs: "a1b2c3d"
  src/auth/token.rs: "9f8e7d6"
updated: 2025-01-20                 # set by sync
hash: "4c5d6e7"                     # fingerprint of this document, set by sync
---

Body text in standard Markdown. Mention files in inline code such as
` + "`" + `src/auth/login.rs` + "`" + ` so that sync with discovery can pick them up.
` + "```" + `

## Rules

1. **Frontmatter is mandatory.** The ` + "`" + `---` + "`" + ` fences must be the first thing in
   the file.
2. **References** map project-relative paths (forward slashes) to the first
   7 hex characters of the SHA-256 of the file. Paths may also name other
   context documents.
3. **Never write fingerprints by hand.** Add the path with an empty string
   and run the ` + "`" + `context_sync` + "`" + ` tool to fill it in.
4. **` + "`" + `index.md` + "`" + `** in a directory summarizes that directory. Its status
   includes every document below it.
5. **Unknown keys and comments** in the frontmatter are preserved by sync.

## Status

- **valid**: every reference matches its stored fingerprint.
- **stale**: a referenced file changed since the last sync. Update the body,
  then sync.
- **orphaned**: a referenced file no longer exists. Remove or replace the
  reference, then sync.
`
