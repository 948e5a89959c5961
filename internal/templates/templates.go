// Package templates holds the workflow template files compiled into the
// binary and the catalogues that group them for migration and staging.
package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed all:files
var filesFS embed.FS

const root = "files"

// Content returns the raw template for a project-relative path.
func Content(rel string) (string, bool) {
	data, err := filesFS.ReadFile(path.Join(root, rel))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// MustContent is Content for paths known to be embedded.
func MustContent(rel string) string {
	c, ok := Content(rel)
	if !ok {
		panic(fmt.Sprintf("templates: %s is not embedded", rel))
	}
	return c
}

// Render returns the template for rel with vars substituted. Only
// Markdown is expanded; scripts and workflows are copied verbatim.
func Render(rel string, vars map[string]string) (string, bool) {
	c, ok := Content(rel)
	if !ok {
		return "", false
	}
	if strings.HasSuffix(rel, ".md") {
		c = ExpandVars(c, vars)
	}
	return c, true
}

// Expand resolves a catalogue entry into files. Entries ending in "/"
// name a directory and expand to every embedded file below it.
func Expand(entry string) []string {
	if !strings.HasSuffix(entry, "/") {
		return []string{entry}
	}
	var out []string
	dir := path.Join(root, strings.TrimSuffix(entry, "/"))
	_ = fs.WalkDir(filesFS, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		out = append(out, strings.TrimPrefix(p, root+"/"))
		return nil
	})
	sort.Strings(out)
	return out
}

// All lists every embedded template path.
func All() []string {
	return Expand("./")
}

// IsExecutable reports whether a template should be written with the
// executable bit.
func IsExecutable(rel string) bool {
	return strings.HasSuffix(rel, ".sh")
}
