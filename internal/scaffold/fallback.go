package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
)

type seedFile struct {
	rel     string
	content string
	// keep leaves an existing file alone.
	keep bool
}

// writeSeedFiles writes files under targetDir and returns the paths written.
func writeSeedFiles(targetDir string, files []seedFile) ([]string, error) {
	var written []string
	for _, f := range files {
		fullPath := filepath.Join(targetDir, f.rel)
		if f.keep {
			if _, err := os.Stat(fullPath); err == nil {
				continue
			}
		}
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return written, fmt.Errorf("creating directory for %s: %w", f.rel, err)
		}
		if err := os.WriteFile(fullPath, []byte(f.content), 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", f.rel, err)
		}
		written = append(written, f.rel)
	}
	return written, nil
}

func readme(project string) string {
	return fmt.Sprintf(`# %s

This repository follows the AI development workflow: each phase leaves a
context document behind so the next assistant starts where the last one
stopped.

## Quick start

`+"```"+`bash
aiflow setup      # describe the project
aiflow detect     # find out which phase the project is in
aiflow migrate    # install the templates for that phase
`+"```"+`

## Phases

1. **Requirements**: gather requirements and a basic design.
2. **PoC**: prove the risky parts.
3. **Implementation**: build it.
4. **Review**: review with AI assistance and a human sign-off.
5. **Testing**: test and release.

Finish a phase with `+"`aiflow context complete <phase>`"+` and start the next one
with `+"`aiflow context start <phase>`"+`.

See `+"`aiflow docs`"+` for every topic.
`, project)
}

const sampleReadme = `# Sample project

A minimal project to try the workflow on. Run ` + "`aiflow detect --dir examples/sample-project`" + `
to see the phase detector at work.
`
