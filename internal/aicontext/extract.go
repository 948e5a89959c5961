package aicontext

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jorge-barreto/aiflow/internal/fileblocks"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/state"
)

const (
	extractedReasoning = "Extracted from issue description"
	extractedImpact    = "To be determined"
	extractedEvidence  = "Extracted from issue discussion"
	TempDir            = "temp"
	NextPhaseNeeded    = "next-phase-needed.txt"
)

var (
	decisionHeadings = []string{"決定事項", "重要な判断", "技術選択", "Decisions", "Key Decisions"}
	focusHeadings    = []string{"次のステップ", "Next Steps"}

	constraintRe = regexp.MustCompile(`(?i)制約|制限|要件|条件|constraint|limitation|requirement`)
	patternRe    = regexp.MustCompile(`(?i)学習|気づき|発見|パターン|トレンド|learned|pattern|insight`)

	// toolMentions maps a mention pattern to the name recorded for it.
	toolMentions = []struct {
		name string
		re   *regexp.Regexp
	}{
		{"github copilot", regexp.MustCompile(`(?i)copilot`)},
		{"claude", regexp.MustCompile(`(?i)claude`)},
		{"chatgpt", regexp.MustCompile(`(?i)chatgpt`)},
		{"windsurf", regexp.MustCompile(`(?i)windsurf`)},
		{"cursor", regexp.MustCompile(`(?i)cursor`)},
		{"gemini", regexp.MustCompile(`(?i)gemini`)},
	}

	fileRefRe = regexp.MustCompile("`[^`\n]+\\.(?:js|ts|py|md|yml|json|go)`")
	linkRe    = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

	metricRes = []struct {
		key string
		res []*regexp.Regexp
	}{
		{"coverage", []*regexp.Regexp{
			regexp.MustCompile(`カバレッジ[\s:：]*(\d+(?:\.\d+)?%?)`),
			regexp.MustCompile(`(?i)coverage[\s:：]*(\d+(?:\.\d+)?%?)`),
		}},
		{"test_count", []*regexp.Regexp{
			regexp.MustCompile(`テスト[\s:：]*(\d+)\s*件`),
			regexp.MustCompile(`(?i)(\d+)\s+tests?\b`),
		}},
		{"bug_count", []*regexp.Regexp{
			regexp.MustCompile(`バグ[\s:：]*(\d+)\s*件`),
			regexp.MustCompile(`(?i)(\d+)\s+bugs?\b`),
		}},
		{"review_count", []*regexp.Regexp{
			regexp.MustCompile(`レビュー[\s:：]*(\d+)\s*回`),
			regexp.MustCompile(`(?i)(\d+)\s+reviews?\b`),
		}},
	}
)

// Issue is the input of an extraction.
type Issue struct {
	Number     int
	Title      string
	Body       string
	Repository string
}

// Extract builds a context document for ph from an issue body.
func Extract(ph phase.Phase, is Issue, now time.Time) *Document {
	body := strings.ReplaceAll(is.Body, "\r\n", "\n")
	sections := fileblocks.Sections(body)
	return &Document{
		Phase:               string(ph),
		CompletionDate:      now.Format("2006-01-02"),
		AIToolsUsed:         extractTools(body),
		KeyDecisions:        extractDecisions(sections),
		CriticalConstraints: extractConstraints(body),
		LearnedPatterns:     extractPatterns(body),
		NextPhaseFocus:      sectionItems(sections, focusHeadings),
		TechnicalArtifacts:  extractArtifacts(body),
		QualityMetrics:      extractMetrics(body),
		Source: &Source{
			IssueNumber: is.Number,
			IssueTitle:  is.Title,
			Repository:  is.Repository,
			ExtractedAt: now.UTC().Format(time.RFC3339),
		},
	}
}

func sectionItems(sections []fileblocks.Section, headings []string) []string {
	var items []string
	for _, s := range sections {
		for _, h := range headings {
			if strings.EqualFold(s.Title, h) {
				items = append(items, fileblocks.ListItems(s.Body)...)
				break
			}
		}
	}
	return items
}

func extractDecisions(sections []fileblocks.Section) []Decision {
	var out []Decision
	for _, item := range sectionItems(sections, decisionHeadings) {
		out = append(out, Decision{Decision: item, Reasoning: extractedReasoning, Impact: extractedImpact})
	}
	return out
}

// bulletLines returns the text of bullet lines matching re, once each.
func bulletLines(body string, re *regexp.Regexp) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		items := fileblocks.ListItems(line)
		if len(items) == 0 || !re.MatchString(line) {
			continue
		}
		out = append(out, items[0])
	}
	return out
}

func extractConstraints(body string) []Constraint {
	var out []Constraint
	for _, line := range bulletLines(body, constraintRe) {
		out = append(out, Constraint{Type: "requirement", Description: line})
	}
	return out
}

func extractPatterns(body string) []Pattern {
	var out []Pattern
	for _, line := range bulletLines(body, patternRe) {
		out = append(out, Pattern{Pattern: line, Evidence: extractedEvidence})
	}
	return out
}

func extractTools(body string) []string {
	var out []string
	for _, tool := range toolMentions {
		if tool.re.MatchString(body) {
			out = append(out, tool.name)
		}
	}
	return out
}

func extractArtifacts(body string) []Artifact {
	var out []Artifact
	for _, b := range fileblocks.Parse(body) {
		out = append(out, Artifact{Type: blockType(b), Content: b.Raw})
	}
	for _, ref := range fileRefRe.FindAllString(body, -1) {
		out = append(out, Artifact{Type: "file_reference", Content: ref})
	}
	for _, link := range linkRe.FindAllString(body, -1) {
		out = append(out, Artifact{Type: "reference_link", Content: link})
	}
	return out
}

// blockType classifies a fenced block: ```lang file=path is a config
// file, mermaid and plantuml are diagrams.
func blockType(b fileblocks.Block) string {
	switch {
	case b.Lang == "mermaid" || b.Lang == "plantuml":
		return "architecture_diagram"
	case b.Path != "":
		return "config_file"
	}
	return "code_block"
}

func extractMetrics(body string) map[string]any {
	metrics := map[string]any{}
	for _, m := range metricRes {
		for _, re := range m.res {
			if sub := re.FindStringSubmatch(body); sub != nil {
				metrics[m.key] = sub[1]
				break
			}
		}
	}
	return metrics
}

// NextPhaseMarkerPath is the file telling automation which phase to open next.
func NextPhaseMarkerPath(root string) string {
	return filepath.Join(root, TempDir, NextPhaseNeeded)
}

// SaveExtraction writes doc into the context directory and, when the
// phase has a successor, the next-phase marker under root. It returns the
// document path and the next phase, if any.
func SaveExtraction(root, dir string, doc *Document) (string, phase.Phase, error) {
	path, err := Complete(dir, doc)
	if err != nil {
		return "", "", err
	}
	next, ok := NextBridge(phase.Phase(doc.Phase))
	if !ok {
		return path, "", nil
	}
	if err := state.WriteFileAtomic(NextPhaseMarkerPath(root), []byte(next), 0644); err != nil {
		return path, "", err
	}
	return path, next, nil
}
