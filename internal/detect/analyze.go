package detect

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jorge-barreto/aiflow/internal/git"
	"github.com/jorge-barreto/aiflow/internal/pkgjson"
	"golang.org/x/mod/modfile"
)

// skipDirs are never counted or listed.
var skipDirs = map[string]bool{
	"node_modules": true,
}

// GitFacts summarises repository history. Zero values when git is
// unavailable or the directory is not a repository.
type GitFacts struct {
	CommitCount   int      `json:"commitCount"`
	RecentCommits []string `json:"recentCommits"`
	Tags          []string `json:"tags"`
}

// Facts is the static snapshot indicators are evaluated against.
type Facts struct {
	Root      string           `json:"root"`
	Files     []string         `json:"files"`
	Dirs      []string         `json:"dirs"`
	FileCount int              `json:"fileCount"`
	Package   *pkgjson.Package `json:"-"`
	GoDeps    []string         `json:"goDeps,omitempty"`
	Git       GitFacts         `json:"git"`
}

// Analyze collects facts about the project at root.
func Analyze(ctx context.Context, root string) (*Facts, error) {
	f := &Facts{Root: root}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		switch {
		case e.Type().IsRegular():
			f.Files = append(f.Files, e.Name())
		case e.IsDir() && !strings.HasPrefix(e.Name(), ".") && !skipDirs[e.Name()]:
			f.Dirs = append(f.Dirs, e.Name())
		}
	}
	f.FileCount = countFiles(root)

	// A broken package.json is treated as absent.
	f.Package, _ = pkgjson.Load(root)
	f.GoDeps = goModDeps(root)
	f.Git = gatherGit(ctx, root)
	return f, nil
}

// Dependencies merges package.json and go.mod dependency names.
func (f *Facts) Dependencies() []string {
	var out []string
	if f.Package != nil {
		out = append(out, f.Package.Dependencies()...)
	}
	out = append(out, f.GoDeps...)
	return out
}

// HasManifest reports whether any dependency manifest was found.
func (f *Facts) HasManifest() bool {
	return f.Package != nil || f.GoDeps != nil
}

func countFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || skipDirs[e.Name()] {
			continue
		}
		if e.IsDir() {
			n += countFiles(filepath.Join(dir, e.Name()))
		} else if e.Type().IsRegular() {
			n++
		}
	}
	return n
}

// goModDeps returns the require paths of root/go.mod, or nil when there
// is no parseable go.mod. A go.mod with no requirements yields an empty
// non-nil slice.
func goModDeps(root string) []string {
	path := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	mf, err := modfile.Parse(path, data, nil)
	if err != nil {
		return nil
	}
	deps := make([]string, 0, len(mf.Require))
	for _, r := range mf.Require {
		deps = append(deps, r.Mod.Path)
	}
	sort.Strings(deps)
	return deps
}

func gatherGit(ctx context.Context, root string) GitFacts {
	var g GitFacts
	if !git.Available() {
		return g
	}
	count, err := git.CommitCount(ctx, root)
	if err != nil {
		return GitFacts{}
	}
	g.CommitCount = count
	g.RecentCommits, _ = git.RecentLog(ctx, root, 10)
	g.Tags, _ = git.Tags(ctx, root)
	return g
}
