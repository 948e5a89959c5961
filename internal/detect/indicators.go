package detect

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// errUnknownKind marks an indicator kind with no evaluator.
var errUnknownKind = errors.New("unknown indicator kind")

// IndicatorResult is an evaluated indicator.
type IndicatorResult struct {
	Indicator
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	Details    string  `json:"details,omitempty"`
}

// Evaluate scores a single indicator. Evaluation never fails: errors lower
// the confidence and zero the score.
func Evaluate(f *Facts, ind Indicator) IndicatorResult {
	r := IndicatorResult{Indicator: ind, Confidence: 1}
	score, err := evaluate(f, ind)
	switch {
	case errors.Is(err, errUnknownKind):
		r.Confidence = 0.5
		r.Details = fmt.Sprintf("unknown indicator kind %q", ind.Kind)
		score = 0
	case err != nil:
		r.Confidence = 0.3
		r.Details = err.Error()
		score = 0
	}
	r.Score = clamp(score)
	if r.Details == "" {
		r.Details = fmt.Sprintf("%s %s: %.2f", ind.Kind, ind.Target, r.Score)
	}
	return r
}

func evaluate(f *Facts, ind Indicator) (float64, error) {
	switch ind.Kind {
	case FilePresence:
		return filePresence(f, ind.Target), nil
	case FileAbsence:
		return 1 - filePresence(f, ind.Target), nil
	case DirPresence:
		return boolScore(f.hasDir(ind.Target)), nil
	case DirAbsence:
		return boolScore(!f.hasDir(ind.Target)), nil
	case PackageDependencies:
		return packageDependencies(f, ind.Target), nil
	case FileContent:
		return fileContent(f, ind.Target, ind.Keywords)
	case GitHistory:
		return gitHistory(f, ind.Target), nil
	case PackageVersion:
		return packageVersion(f, ind.Target), nil
	case FileCount:
		return fileCount(f, ind.Target), nil
	}
	return 0, errUnknownKind
}

func (f *Facts) hasDir(name string) bool {
	for _, d := range f.Dirs {
		if d == name {
			return true
		}
	}
	return false
}

func filePresence(f *Facts, target string) float64 {
	variations := []string{
		target,
		strings.ToLower(target),
		strings.TrimSuffix(target, filepath.Ext(target)),
		target + ".md",
		target + ".txt",
	}
	for _, v := range variations {
		// Stripping the extension of a dotfile leaves nothing to match.
		if v == "" {
			continue
		}
		lv := strings.ToLower(v)
		for _, file := range f.Files {
			if file == v || strings.Contains(strings.ToLower(file), lv) {
				return 1
			}
		}
	}
	if _, err := os.Stat(filepath.Join(f.Root, target)); err == nil {
		return 1
	}
	return 0
}

var (
	qualityTools = []string{"eslint", "prettier", "husky", "lint-staged"}
	testTools    = []string{"jest", "mocha", "cypress", "testing-library"}
)

func packageDependencies(f *Facts, check string) float64 {
	if !f.HasManifest() {
		return 0
	}
	deps := f.Dependencies()
	n := float64(len(deps))
	switch check {
	case "few_dependencies":
		if n <= 5 {
			return 1
		}
		return math.Max(0, 1-(n-5)/10)
	case "substantial_dependencies":
		if n >= 5 {
			return math.Min(1, n/15)
		}
		return n / 5
	case "quality_tools":
		found := 0
		for _, tool := range qualityTools {
			for _, d := range deps {
				if d == tool {
					found++
					break
				}
			}
		}
		return float64(found) / float64(len(qualityTools))
	case "testing_frameworks":
		for _, tool := range testTools {
			for _, d := range deps {
				if strings.Contains(d, tool) {
					return 1
				}
			}
		}
	}
	return 0
}

func fileContent(f *Facts, target string, keywords []string) (float64, error) {
	if len(keywords) == 0 {
		return 0, nil
	}
	data, err := os.ReadFile(filepath.Join(f.Root, target))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", target, err)
	}
	content := strings.ToLower(string(data))
	found := 0
	for _, k := range keywords {
		if strings.Contains(content, strings.ToLower(k)) {
			found++
		}
	}
	return float64(found) / float64(len(keywords)), nil
}

var experimentalWords = []string{"poc", "experiment", "test", "try", "prototype"}

func gitHistory(f *Facts, check string) float64 {
	g := f.Git
	c := float64(g.CommitCount)
	switch check {
	case "commit_count_low":
		if c < 10 {
			return 1
		}
		return math.Max(0, 1-(c-10)/20)
	case "regular_commits":
		if c >= 20 {
			return 1
		}
		return c / 20
	case "experimental_commits":
		hits := 0
		for _, msg := range g.RecentCommits {
			if containsAny(strings.ToLower(msg), experimentalWords) {
				hits++
			}
		}
		return float64(hits) / math.Max(1, float64(len(g.RecentCommits)))
	case "pr_history":
		for _, msg := range g.RecentCommits {
			if strings.Contains(strings.ToLower(msg), "merge") {
				return 1
			}
		}
	case "release_tags":
		return boolScore(len(g.Tags) > 0)
	}
	return 0
}

func packageVersion(f *Facts, check string) float64 {
	if check != "stable_version" {
		return 0
	}
	v := ""
	if f.Package != nil {
		v = f.Package.Version()
	}
	if v == "" {
		v = latestSemverTag(f.Git.Tags)
	}
	if v == "" {
		return 0
	}
	return boolScore(majorVersion(v) >= 1)
}

func latestSemverTag(tags []string) string {
	var valid []string
	for _, t := range tags {
		if sv := canonical(t); semver.IsValid(sv) {
			valid = append(valid, sv)
		}
	}
	if len(valid) == 0 {
		return ""
	}
	semver.Sort(valid)
	return valid[len(valid)-1]
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

// majorVersion returns the leading numeric component, 0 when unparseable.
func majorVersion(v string) int {
	if sv := canonical(v); semver.IsValid(sv) {
		n, _ := strconv.Atoi(strings.TrimPrefix(semver.Major(sv), "v"))
		return n
	}
	head, _, _ := strings.Cut(strings.TrimPrefix(v, "v"), ".")
	n, _ := strconv.Atoi(head)
	return n
}

func fileCount(f *Facts, check string) float64 {
	if check != "low_file_count" {
		return 0
	}
	n := float64(f.FileCount)
	if n < 20 {
		return 1
	}
	return math.Max(0, 1-(n-20)/50)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
