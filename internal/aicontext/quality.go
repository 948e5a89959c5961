package aicontext

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/aiflow/internal/phase"
)

const (
	MaxDecisions   = 25
	MaxConstraints = 20
	MaxPatterns    = 20
	MaxArtifacts   = 15
	MaxFocus       = 20
	MaxTotal       = MaxDecisions + MaxConstraints + MaxPatterns + MaxArtifacts + MaxFocus

	// NeedsImprovement is the overall score below which a phase is flagged.
	NeedsImprovement = 70
	// HighQuality is the overall score counted as a high quality phase.
	HighQuality = 80

	summaryHistory = 20
	scoredItems    = 5
)

// artifactPoints rewards artifact kinds by how much they tell the next phase.
var artifactPoints = map[string]int{
	"code_block":           3,
	"config_file":          2,
	"architecture_diagram": 4,
	"api_spec":             3,
	"database_schema":      3,
}

// Scores is the per-category breakdown of a quality evaluation.
type Scores struct {
	KeyDecisions       int `yaml:"key_decisions" json:"keyDecisions"`
	Constraints        int `yaml:"constraints" json:"constraints"`
	LearnedPatterns    int `yaml:"learned_patterns" json:"learnedPatterns"`
	TechnicalArtifacts int `yaml:"technical_artifacts" json:"technicalArtifacts"`
	NextPhaseFocus     int `yaml:"next_phase_focus" json:"nextPhaseFocus"`
	TotalScore         int `yaml:"total_score" json:"totalScore"`
	MaxScore           int `yaml:"max_score" json:"maxScore"`
}

// Overall is the total as a rounded percentage.
func (s Scores) Overall() int {
	if s.MaxScore == 0 {
		return 0
	}
	return int(math.Round(float64(s.TotalScore) / float64(s.MaxScore) * 100))
}

func longer(s string, n int) bool { return utf8.RuneCountInString(s) > n }

// Score evaluates a context document. Lengths are counted in characters so
// Japanese text scores the same as its English equivalent.
func Score(doc *Document) Scores {
	var s Scores
	for i, d := range doc.KeyDecisions {
		if i == scoredItems {
			break
		}
		if longer(d.Decision, 10) {
			s.KeyDecisions += 2
		}
		if longer(d.Reasoning, 10) {
			s.KeyDecisions += 2
		}
		if longer(d.Impact, 5) {
			s.KeyDecisions++
		}
	}
	for i, c := range doc.CriticalConstraints {
		if i == scoredItems {
			break
		}
		if c.Type != "" {
			s.Constraints++
		}
		if longer(c.Description, 15) {
			s.Constraints += 3
		}
	}
	for i, p := range doc.LearnedPatterns {
		if i == scoredItems {
			break
		}
		if longer(p.Pattern, 10) {
			s.LearnedPatterns += 2
		}
		if longer(p.Evidence, 5) {
			s.LearnedPatterns += 2
		}
	}
	for _, a := range doc.TechnicalArtifacts {
		s.TechnicalArtifacts += artifactPoints[a.Type]
		if longer(a.Content, 20) {
			s.TechnicalArtifacts++
		}
	}
	s.TechnicalArtifacts = min(s.TechnicalArtifacts, MaxArtifacts)
	for i, f := range doc.NextPhaseFocus {
		if i == scoredItems {
			break
		}
		if longer(f, 10) {
			s.NextPhaseFocus += 4
		}
	}
	s.TotalScore = s.KeyDecisions + s.Constraints + s.LearnedPatterns + s.TechnicalArtifacts + s.NextPhaseFocus
	s.MaxScore = MaxTotal
	return s
}

// Grade maps an overall score to a letter.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	default:
		return "D"
	}
}

// Recommendations lists improvements for weak categories.
func Recommendations(s Scores) []string {
	var out []string
	if s.KeyDecisions < 15 {
		out = append(out, "Describe the reasoning and impact of each key decision in more detail")
	}
	if s.Constraints < 12 {
		out = append(out, "Classify constraints by type and give each a concrete description")
	}
	if s.LearnedPatterns < 12 {
		out = append(out, "Back learned patterns with evidence")
	}
	if s.TechnicalArtifacts < 8 {
		out = append(out, "Add technical artifacts such as code, configuration or diagrams")
	}
	if s.NextPhaseFocus < 12 {
		out = append(out, "Make the next phase focus items more specific")
	}
	return out
}

// Report is the stored result of one evaluation.
type Report struct {
	File            string   `yaml:"file" json:"file"`
	Phase           string   `yaml:"phase" json:"phase"`
	EvaluatedAt     string   `yaml:"evaluated_at" json:"evaluatedAt"`
	OverallScore    int      `yaml:"overall_score" json:"overallScore"`
	DetailedScores  Scores   `yaml:"detailed_scores" json:"detailedScores"`
	Recommendations []string `yaml:"recommendations" json:"recommendations"`
	QualityGrade    string   `yaml:"quality_grade" json:"qualityGrade"`
}

// NeedsWork reports whether the phase is below the improvement threshold.
func (r *Report) NeedsWork() bool { return r.OverallScore < NeedsImprovement }

// Evaluate loads the document at file and scores it.
func Evaluate(file string, ph phase.Phase, now time.Time) (*Report, error) {
	doc, err := Load(file)
	if err != nil {
		return nil, err
	}
	s := Score(doc)
	overall := s.Overall()
	return &Report{
		File:            file,
		Phase:           string(ph),
		EvaluatedAt:     now.UTC().Format(time.RFC3339),
		OverallScore:    overall,
		DetailedScores:  s,
		Recommendations: Recommendations(s),
		QualityGrade:    Grade(overall),
	}, nil
}

// SaveReport writes r under dir/quality-reports and returns the path.
func SaveReport(dir string, r *Report, now time.Time) (string, error) {
	path := filepath.Join(dir, ReportsDir, fmt.Sprintf("quality-%s-%d.yml", r.Phase, now.UnixMilli()))
	if err := writeYAML(path, r); err != nil {
		return "", err
	}
	return path, nil
}

type PhaseQuality struct {
	LatestScore      int    `yaml:"latest_score" json:"latestScore"`
	LatestGrade      string `yaml:"latest_grade" json:"latestGrade"`
	LastEvaluated    string `yaml:"last_evaluated" json:"lastEvaluated"`
	NeedsImprovement bool   `yaml:"needs_improvement" json:"needsImprovement"`
}

type Evaluation struct {
	Phase       string `yaml:"phase" json:"phase"`
	Score       int    `yaml:"score" json:"score"`
	Grade       string `yaml:"grade" json:"grade"`
	EvaluatedAt string `yaml:"evaluated_at" json:"evaluatedAt"`
}

type OverallStats struct {
	AverageScore           int `yaml:"average_score" json:"averageScore"`
	PhasesCompleted        int `yaml:"phases_completed" json:"phasesCompleted"`
	HighQualityPhases      int `yaml:"high_quality_phases" json:"highQualityPhases"`
	NeedsImprovementPhases int `yaml:"needs_improvement_phases" json:"needsImprovementPhases"`
}

// Summary aggregates the latest evaluation of every phase.
type Summary struct {
	Phases       map[string]PhaseQuality `yaml:"phases" json:"phases"`
	History      []Evaluation            `yaml:"history" json:"history"`
	OverallStats OverallStats            `yaml:"overall_stats" json:"overallStats"`
}

// LoadSummary reads dir/quality-summary.yml. A missing file yields an
// empty summary.
func LoadSummary(dir string) (*Summary, error) {
	s := &Summary{Phases: map[string]PhaseQuality{}}
	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("aicontext: %s: %w", SummaryFile, err)
	}
	if s.Phases == nil {
		s.Phases = map[string]PhaseQuality{}
	}
	return s, nil
}

// Record folds r into the summary: the phase's latest entry is replaced,
// the evaluation is prepended to the capped history and the stats are
// recomputed.
func (s *Summary) Record(r *Report) {
	s.Phases[r.Phase] = PhaseQuality{
		LatestScore:      r.OverallScore,
		LatestGrade:      r.QualityGrade,
		LastEvaluated:    r.EvaluatedAt,
		NeedsImprovement: r.NeedsWork(),
	}
	s.History = append([]Evaluation{{
		Phase:       r.Phase,
		Score:       r.OverallScore,
		Grade:       r.QualityGrade,
		EvaluatedAt: r.EvaluatedAt,
	}}, s.History...)
	if len(s.History) > summaryHistory {
		s.History = s.History[:summaryHistory]
	}

	stats := OverallStats{PhasesCompleted: len(s.Phases)}
	total := 0
	for _, p := range s.Phases {
		total += p.LatestScore
		if p.LatestScore >= HighQuality {
			stats.HighQualityPhases++
		}
		if p.LatestScore < NeedsImprovement {
			stats.NeedsImprovementPhases++
		}
	}
	if stats.PhasesCompleted > 0 {
		stats.AverageScore = int(math.Round(float64(total) / float64(stats.PhasesCompleted)))
	}
	s.OverallStats = stats
}

// UpdateSummary records r in dir/quality-summary.yml.
func UpdateSummary(dir string, r *Report) (*Summary, error) {
	s, err := LoadSummary(dir)
	if err != nil {
		return nil, err
	}
	s.Record(r)
	if err := writeYAML(filepath.Join(dir, SummaryFile), s); err != nil {
		return nil, err
	}
	return s, nil
}

// SetOutput prints a GitHub Actions step output.
func SetOutput(w io.Writer, name string, value any) {
	fmt.Fprintf(w, "::set-output name=%s::%v\n", name, value)
}
