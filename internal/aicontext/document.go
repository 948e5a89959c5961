// Package aicontext reads and writes the per-phase AI context documents
// under docs/ai-context and builds the handoff material derived from them.
package aicontext

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/state"
)

const (
	SummaryFile   = "quality-summary.yml"
	ReportsDir    = "quality-reports"
	DashboardFile = "progress-dashboard.yml"
	HistoryDir    = "progress-history"
)

// Quality metric keys seeded with null by Complete.
var PendingMetrics = []string{"completeness_score", "consistency_score", "usability_score"}

type Decision struct {
	Decision  string `yaml:"decision"`
	Reasoning string `yaml:"reasoning"`
	Impact    string `yaml:"impact"`
}

// UnmarshalYAML accepts a bare string as the decision text.
func (d *Decision) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		d.Decision = n.Value
		return nil
	}
	type plain Decision
	return n.Decode((*plain)(d))
}

type Constraint struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

func (c *Constraint) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		c.Description = n.Value
		return nil
	}
	type plain Constraint
	return n.Decode((*plain)(c))
}

type Pattern struct {
	Pattern  string `yaml:"pattern"`
	Evidence string `yaml:"evidence"`
}

func (p *Pattern) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		p.Pattern = n.Value
		return nil
	}
	type plain Pattern
	return n.Decode((*plain)(p))
}

type Artifact struct {
	Type    string `yaml:"type"`
	Content string `yaml:"content"`
}

// Source records the issue a document was extracted from.
type Source struct {
	IssueNumber int    `yaml:"issue_number,omitempty"`
	IssueTitle  string `yaml:"issue_title,omitempty"`
	Repository  string `yaml:"repository,omitempty"`
	ExtractedAt string `yaml:"extracted_at,omitempty"`
}

// Document is one phase's context. Keys this type does not know about
// are kept in Extra and written back on Save.
type Document struct {
	Phase               string         `yaml:"phase"`
	CompletionDate      string         `yaml:"completion_date"`
	AIToolsUsed         []string       `yaml:"ai_tools_used"`
	KeyDecisions        []Decision     `yaml:"key_decisions"`
	CriticalConstraints []Constraint   `yaml:"critical_constraints"`
	LearnedPatterns     []Pattern      `yaml:"learned_patterns"`
	NextPhaseFocus      []string       `yaml:"next_phase_focus"`
	TechnicalArtifacts  []Artifact     `yaml:"technical_artifacts,omitempty"`
	QualityMetrics      map[string]any `yaml:"quality_metrics"`
	Source              *Source        `yaml:"source,omitempty"`
	Extra               map[string]any `yaml:",inline"`
}

// FileName is the document name for a phase.
func FileName(p phase.Phase) string { return "ai-context-" + string(p) + ".yml" }

// Path is the document path for a phase inside the context directory.
func Path(dir string, p phase.Phase) string { return filepath.Join(dir, FileName(p)) }

// HandoffPath is where the handoff prompt for starting p is written.
func HandoffPath(dir string, p phase.Phase) string {
	return filepath.Join(dir, "handoff-prompt-"+string(p)+".md")
}

// Load reads a context document. A missing file is reported with an error
// wrapping os.ErrNotExist.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("context file not found: %s: %w", path, err)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a context document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("aicontext: %w", err)
	}
	return &doc, nil
}

// Marshal encodes d with two-space indentation under a comment header.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# AI context: %s phase\n", d.Phase)
	if err := encodeYAML(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes d atomically, creating the context directory if needed.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	return state.WriteFileAtomic(path, data, 0644)
}

func encodeYAML(buf *bytes.Buffer, v any) error {
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("aicontext: %w", err)
	}
	return enc.Close()
}

// writeYAML encodes v and writes it atomically.
func writeYAML(path string, v any) error {
	var buf bytes.Buffer
	if err := encodeYAML(&buf, v); err != nil {
		return err
	}
	return state.WriteFileAtomic(path, buf.Bytes(), 0644)
}
