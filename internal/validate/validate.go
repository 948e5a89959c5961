package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jorge-barreto/aiflow/internal/pkgjson"
)

// Recommendation priorities beyond the rule levels.
const (
	PriorityInfo    = "info"
	PrioritySuccess = "success"
)

// Summary counts rule outcomes. Warnings are failures below critical.
type Summary struct {
	Total       int `json:"total"`
	Passed      int `json:"passed"`
	Failed      int `json:"failed"`
	Warnings    int `json:"warnings"`
	AutoFixable int `json:"autoFixable"`
}

// Recommendation groups follow-up actions.
type Recommendation struct {
	Priority string   `json:"priority"`
	Message  string   `json:"message"`
	Actions  []string `json:"actions"`
}

// Report is the full validation outcome.
type Report struct {
	GeneratedAt     time.Time        `json:"generatedAt"`
	Project         string           `json:"project"`
	Summary         Summary          `json:"summary"`
	Details         []Result         `json:"details"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Run evaluates rules against root. A panicking rule is recorded as failed.
func Run(ctx context.Context, root string, rules []Rule, now time.Time) *Report {
	r := &Report{GeneratedAt: now, Project: filepath.Base(root)}
	for _, rule := range rules {
		res := runRule(ctx, root, rule)
		res.RuleID, res.Name, res.Level = rule.ID, rule.Name, rule.Level
		r.Details = append(r.Details, res)
	}
	r.summarize()
	return r
}

func runRule(ctx context.Context, root string, rule Rule) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Message: fmt.Sprintf("check error: %v", p)}
		}
	}()
	return rule.Check(ctx, root)
}

func (r *Report) summarize() {
	r.Summary = Summary{}
	var critical, high []string
	for _, d := range r.Details {
		r.Summary.Total++
		if d.Passed {
			r.Summary.Passed++
			continue
		}
		r.Summary.Failed++
		if d.Level != LevelCritical {
			r.Summary.Warnings++
		}
		if d.AutoFix {
			r.Summary.AutoFixable++
		}
		switch d.Level {
		case LevelCritical:
			critical = append(critical, fmt.Sprintf("%s: %s", d.Name, d.Message))
		case LevelHigh:
			high = append(high, fmt.Sprintf("%s: %s", d.Name, d.Message))
		}
	}

	r.Recommendations = []Recommendation{}
	if len(critical) > 0 {
		r.Recommendations = append(r.Recommendations, Recommendation{LevelCritical, "Fix these before migrating", critical})
	}
	if len(high) > 0 {
		r.Recommendations = append(r.Recommendations, Recommendation{LevelHigh, "Recommended fixes for a smooth migration", high})
	}
	if r.Summary.AutoFixable > 0 {
		r.Recommendations = append(r.Recommendations, Recommendation{PriorityInfo, "Some problems can be fixed automatically",
			[]string{fmt.Sprintf("run aiflow validate --fix-auto (%d fixable)", r.Summary.AutoFixable)}})
	}
	if r.Summary.Failed == 0 {
		r.Recommendations = append(r.Recommendations, Recommendation{PrioritySuccess, "Ready to migrate", []string{"run aiflow migrate"}})
	}
}

// CriticalFailures counts failed critical rules.
func (r *Report) CriticalFailures() int {
	n := 0
	for _, d := range r.Details {
		if !d.Passed && d.Level == LevelCritical {
			n++
		}
	}
	return n
}

// FixOutcome reports one attempted fix.
type FixOutcome struct {
	RuleID string
	Action string
	Err    error
}

// Fix runs the automatic fixes for failed, fixable results.
func Fix(root string, results []Result) []FixOutcome {
	var out []FixOutcome
	for _, r := range results {
		if r.Passed || !r.AutoFix {
			continue
		}
		o := FixOutcome{RuleID: r.RuleID, Action: r.FixAction}
		switch r.FixAction {
		case FixCreatePackageJSON:
			o.Err = pkgjson.New(filepath.Base(root)).Save(root)
		case FixPackageJSON:
			o.Err = fixPackageJSON(root)
		case FixDirectories:
			o.Err = createDirectories(root)
		default:
			o.Err = fmt.Errorf("no automatic fix for %s", r.RuleID)
		}
		out = append(out, o)
	}
	return out
}

func fixPackageJSON(root string) error {
	pkg, err := pkgjson.Load(root)
	if err != nil {
		return err
	}
	if pkg == nil {
		return pkgjson.New(filepath.Base(root)).Save(root)
	}
	if pkg.Name() == "" {
		pkg.Set("name", filepath.Base(root))
	}
	if pkg.Version() == "" {
		pkg.Set("version", "1.0.0")
	}
	return pkg.Save(root)
}

func createDirectories(root string) error {
	for _, d := range []string{"docs", ".github", ".github/ISSUE_TEMPLATE", ".github/workflows"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			return err
		}
	}
	return nil
}
