// Package scaffold creates the aiflow skeleton in a repository (init) and
// fills in the core documents from a short interview (setup).
package scaffold

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/aiflow/internal/config"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Dirs are created by Init.
var Dirs = []string{
	".github/ISSUE_TEMPLATE",
	".github/workflows",
	"docs",
	"scripts",
	"templates",
	"examples/sample-project",
}

// Init creates the workflow directory layout, a README and
// .aiflow/config.yaml. It refuses to run twice.
func Init(targetDir string, w io.Writer) error {
	aiflowDir := filepath.Join(targetDir, config.Dir)
	if _, err := os.Stat(aiflowDir); err == nil {
		return fmt.Errorf("%s directory already exists in %s", config.Dir, targetDir)
	}

	for _, d := range Dirs {
		if err := os.MkdirAll(filepath.Join(targetDir, d), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
		fmt.Fprintf(w, "  %s✓%s %s\n", ux.Green, ux.Reset, d)
	}

	project := filepath.Base(targetDir)
	files := []seedFile{
		{rel: filepath.Join(config.Dir, config.FileName), content: config.Template(project)},
		{rel: filepath.Join(config.Dir, ".gitignore"), content: "history.db*\n"},
		{rel: "README.md", content: readme(project), keep: true},
		{rel: "examples/sample-project/README.md", content: sampleReadme, keep: true},
	}
	written, err := writeSeedFiles(targetDir, files)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s%s✓ Initialized %s/%s\n\n", ux.Bold, ux.Green, config.Dir, ux.Reset)
	fmt.Fprintf(w, "  Created:\n")
	for _, f := range written {
		fmt.Fprintf(w, "    %s%s%s\n", ux.Cyan, f, ux.Reset)
	}
	fmt.Fprintf(w, "\n  Next steps:\n")
	fmt.Fprintf(w, "    1. Run %saiflow setup%s to describe the project\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(w, "    2. Run %saiflow migrate%s to install the workflow templates\n", ux.Cyan, ux.Reset)
	fmt.Fprintf(w, "    3. Edit %s%s/%s%s for GitHub and notifications\n\n", ux.Cyan, config.Dir, config.FileName, ux.Reset)
	return nil
}
