// Package fileblocks scans Markdown text (issue bodies, handoff notes) for
// fenced code blocks, headed sections and list items.
package fileblocks

import (
	"regexp"
	"strings"
)

// Block is a single fenced code block.
type Block struct {
	Lang    string // info string language, e.g. "yaml"
	Path    string // file= annotation, empty when absent
	Content string // content between the fences
	Raw     string // the block including both fences
}

var (
	fenceOpenRe = regexp.MustCompile("^```(?:file=(\\S+)|([\\w+-]*)(?:\\s+file=(\\S+))?)")
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	listItemRe  = regexp.MustCompile(`^\s*[-*]\s+`)
)

// Parse extracts every closed fenced code block from text, in order of
// appearance. Opening fences may carry a language and a file= annotation:
//
//	```yaml file=docs/ai-context/ai-context-poc.yml
//	```file=scripts/ai-context.sh
//	```go
//
// An unclosed block at the end of the text is dropped.
func Parse(text string) []Block {
	var blocks []Block
	var current *Block
	var buf, raw strings.Builder

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if current != nil {
			raw.WriteByte('\n')
			raw.WriteString(line)
			if trimmed == "```" {
				current.Content = buf.String()
				current.Raw = raw.String()
				blocks = append(blocks, *current)
				current = nil
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(line)
			continue
		}

		if m := fenceOpenRe.FindStringSubmatch(trimmed); m != nil {
			path := m[1]
			if path == "" {
				path = m[3]
			}
			current = &Block{Lang: m[2], Path: path}
			buf.Reset()
			raw.Reset()
			raw.WriteString(line)
		}
	}
	return blocks
}

// Section is a heading and the text up to the next heading of level two or
// deeper. Headings inside fenced blocks are ignored.
type Section struct {
	Level int
	Title string
	Body  string
}

// Sections splits text at its headings. Text before the first heading is
// not returned.
func Sections(text string) []Section {
	var out []Section
	var current *Section
	var body []string
	inFence := false

	flush := func() {
		if current != nil {
			current.Body = strings.Join(body, "\n")
			out = append(out, *current)
		}
		body = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence {
			if m := headingRe.FindStringSubmatch(line); m != nil {
				flush()
				current = &Section{Level: len(m[1]), Title: m[2]}
				continue
			}
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()
	return out
}

// ListItems returns the text of every "- " or "* " bullet in text.
func ListItems(text string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		if loc := listItemRe.FindStringIndex(line); loc != nil {
			if item := strings.TrimSpace(line[loc[1]:]); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

// IsListItem reports whether line is a bullet.
func IsListItem(line string) bool {
	return listItemRe.MatchString(line)
}
