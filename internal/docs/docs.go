// Package docs holds the reference topics shown by `aiflow docs`.
package docs

import (
	"fmt"
	"io"
	"strings"
)

type Topic struct {
	Name     string
	Title    string
	Summary  string
	Content  string   // plain text, no ANSI
	Commands []string // aiflow commands the topic documents
}

func All() []Topic {
	return topics
}

// Get finds a topic by its name or by a command it documents, so
// `aiflow docs rollback` opens the migration topic. Matching ignores case.
func Get(name string) (Topic, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range topics {
		if t.Name == name {
			return t, nil
		}
	}
	for _, t := range topics {
		for _, c := range t.Commands {
			if c == name {
				return t, nil
			}
		}
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.Name
	}
	return Topic{}, fmt.Errorf("unknown topic %q (topics: %s); run 'aiflow docs' for summaries", name, strings.Join(names, ", "))
}

// List prints one line per topic with the commands it covers.
func List(w io.Writer) {
	fmt.Fprint(w, "\nAvailable topics:\n\n")
	for _, t := range All() {
		fmt.Fprintf(w, "  %-14s %s\n", t.Name, t.Summary)
		if len(t.Commands) > 0 {
			fmt.Fprintf(w, "  %-14s commands: %s\n", "", strings.Join(t.Commands, ", "))
		}
	}
	fmt.Fprintln(w, "\nRun 'aiflow docs <topic|command>' to read a topic.")
}
