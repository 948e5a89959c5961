// Package pkgjson reads and updates a project's package.json without
// dropping keys it does not know about.
package pkgjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/spf13/cast"
)

const FileName = "package.json"

// Package is a decoded package.json. Values keep their JSON types.
type Package struct {
	Data map[string]any
}

// Path returns the package.json location under root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Exists reports whether root has a package.json.
func Exists(root string) bool {
	_, err := os.Stat(Path(root))
	return err == nil
}

// Load reads root/package.json. A missing file returns (nil, nil).
func Load(root string) (*Package, error) {
	data, err := os.ReadFile(Path(root))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Package, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return &Package{Data: m}, nil
}

// New returns the minimal package.json written when a project has none.
func New(name string) *Package {
	return &Package{Data: map[string]any{
		"name":        name,
		"version":     "1.0.0",
		"description": "",
		"scripts":     map[string]any{"test": `echo "Error: no test specified" && exit 1`},
		"license":     "ISC",
	}}
}

func (p *Package) Save(root string) error {
	return state.WriteJSON(Path(root), p.Data)
}

func (p *Package) String(key string) string {
	return cast.ToString(p.Data[key])
}

func (p *Package) Name() string    { return p.String("name") }
func (p *Package) Version() string { return p.String("version") }

func (p *Package) Set(key string, v any) {
	p.Data[key] = v
}

// Scripts returns the scripts table.
func (p *Package) Scripts() map[string]string {
	return cast.ToStringMapString(p.Data["scripts"])
}

// HasScript reports whether scripts has an entry for name.
func (p *Package) HasScript(name string) bool {
	_, ok := p.Scripts()[name]
	return ok
}

// Dependencies returns runtime and dev dependency names, sorted.
func (p *Package) Dependencies() []string {
	seen := map[string]bool{}
	for _, key := range []string{"dependencies", "devDependencies"} {
		for name := range cast.ToStringMap(p.Data[key]) {
			seen[name] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RuntimeDependencies returns only the "dependencies" table.
func (p *Package) RuntimeDependencies() map[string]string {
	return cast.ToStringMapString(p.Data["dependencies"])
}

// DevDependencies returns only the "devDependencies" table.
func (p *Package) DevDependencies() map[string]string {
	return cast.ToStringMapString(p.Data["devDependencies"])
}

// MergeScripts adds scripts, overwriting entries with the same name.
func (p *Package) MergeScripts(scripts map[string]string) {
	merged := map[string]any{}
	for k, v := range cast.ToStringMap(p.Data["scripts"]) {
		merged[k] = v
	}
	for k, v := range scripts {
		merged[k] = v
	}
	p.Data["scripts"] = merged
}
