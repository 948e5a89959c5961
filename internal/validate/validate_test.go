package validate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/aiflow/internal/pkgjson"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func rule(id, level string, res Result) Rule {
	return Rule{ID: id, Name: id, Level: level, Check: func(context.Context, string) Result { return res }}
}

func TestRun_Summary(t *testing.T) {
	rules := []Rule{
		rule("a", LevelCritical, Result{Passed: true, Message: "ok"}),
		rule("b", LevelCritical, Result{Message: "broken"}),
		rule("c", LevelHigh, Result{Message: "meh"}),
		rule("d", LevelLow, Result{Message: "dirs", AutoFix: true, FixAction: FixDirectories}),
	}
	r := Run(context.Background(), t.TempDir(), rules, now)

	want := Summary{Total: 4, Passed: 1, Failed: 3, Warnings: 2, AutoFixable: 1}
	if r.Summary != want {
		t.Fatalf("Summary = %+v, want %+v", r.Summary, want)
	}
	if r.CriticalFailures() != 1 {
		t.Fatalf("CriticalFailures = %d", r.CriticalFailures())
	}
	if r.Details[1].RuleID != "b" || r.Details[1].Level != LevelCritical {
		t.Fatalf("rule identity not copied: %+v", r.Details[1])
	}

	var prios []string
	for _, rec := range r.Recommendations {
		prios = append(prios, rec.Priority)
	}
	if got := strings.Join(prios, ","); got != "critical,high,info" {
		t.Fatalf("recommendations = %s", got)
	}
}

func TestRun_AllPassedRecommendsMigrate(t *testing.T) {
	r := Run(context.Background(), t.TempDir(), []Rule{rule("a", LevelHigh, Result{Passed: true})}, now)
	if len(r.Recommendations) != 1 || r.Recommendations[0].Priority != PrioritySuccess {
		t.Fatalf("recommendations = %+v", r.Recommendations)
	}
}

func TestRun_PanickingRuleFails(t *testing.T) {
	bad := Rule{ID: "x", Name: "x", Level: LevelCritical, Check: func(context.Context, string) Result { panic("boom") }}
	r := Run(context.Background(), t.TempDir(), []Rule{bad}, now)
	if r.Details[0].Passed || !strings.Contains(r.Details[0].Message, "boom") {
		t.Fatalf("detail = %+v", r.Details[0])
	}
}

func TestCheckPackageJSON(t *testing.T) {
	dir := t.TempDir()
	res := checkPackageJSON(context.Background(), dir)
	if res.Passed || res.FixAction != FixCreatePackageJSON {
		t.Fatalf("missing file: %+v", res)
	}

	os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"x"}`), 0644)
	res = checkPackageJSON(context.Background(), dir)
	if res.Passed || res.FixAction != FixPackageJSON || !strings.Contains(res.Message, "version") {
		t.Fatalf("missing version: %+v", res)
	}

	os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"x","version":"0.1.0"}`), 0644)
	if res := checkPackageJSON(context.Background(), dir); !res.Passed {
		t.Fatalf("valid file: %+v", res)
	}
}

func TestCheckDependencies_ExactPins(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{
  "dependencies": {"chalk": "4.1.2", "lodash": "4.0.0"},
  "devDependencies": {"inquirer": "^8.0.0", "commander": "~9.0.0"}
}`), 0644)
	res := checkDependencies(context.Background(), dir)
	if res.Passed {
		t.Fatal("exact pins should fail")
	}
	if res.Details != "chalk, commander" {
		t.Fatalf("Details = %q", res.Details)
	}
}

func TestCheckConflicts(t *testing.T) {
	dir := t.TempDir()
	if res := checkConflicts(context.Background(), dir); !res.Passed {
		t.Fatalf("empty dir: %+v", res)
	}
	os.MkdirAll(filepath.Join(dir, "docs"), 0755)
	os.WriteFile(filepath.Join(dir, "docs", "WORKFLOW_GUIDE.md"), []byte("x"), 0644)
	res := checkConflicts(context.Background(), dir)
	if res.Passed || res.Details != "docs/WORKFLOW_GUIDE.md" {
		t.Fatalf("conflict: %+v", res)
	}
}

func TestCheckGitHub(t *testing.T) {
	dir := t.TempDir()
	if res := checkGitHub(context.Background(), dir); res.Passed {
		t.Fatal("no repo should fail")
	}
	os.MkdirAll(filepath.Join(dir, ".git"), 0755)
	cfg := "[remote \"origin\"]\n\turl = git@github.com:acme/widgets.git\n"
	os.WriteFile(filepath.Join(dir, ".git", "config"), []byte(cfg), 0644)
	if res := checkGitHub(context.Background(), dir); !res.Passed {
		t.Fatalf("github origin: %+v", res)
	}
}

func TestFix(t *testing.T) {
	dir := t.TempDir()
	results := []Result{
		{RuleID: "package-json", AutoFix: true, FixAction: FixCreatePackageJSON},
		{RuleID: "directory-structure", AutoFix: true, FixAction: FixDirectories},
		{RuleID: "passed", Passed: true, AutoFix: true, FixAction: FixDirectories},
		{RuleID: "manual"},
	}
	out := Fix(dir, results)
	if len(out) != 2 {
		t.Fatalf("outcomes = %+v", out)
	}
	for _, o := range out {
		if o.Err != nil {
			t.Fatalf("%s: %v", o.RuleID, o.Err)
		}
	}
	pkg, err := pkgjson.Load(dir)
	if err != nil || pkg == nil || pkg.Name() != filepath.Base(dir) || pkg.Version() != "1.0.0" {
		t.Fatalf("package.json = %+v, %v", pkg, err)
	}
	for _, d := range []string{"docs", ".github/ISSUE_TEMPLATE", ".github/workflows"} {
		if info, err := os.Stat(filepath.Join(dir, d)); err != nil || !info.IsDir() {
			t.Fatalf("%s not created", d)
		}
	}
}

func TestFix_FillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"private":true}`), 0644)
	out := Fix(dir, []Result{{RuleID: "package-json", AutoFix: true, FixAction: FixPackageJSON}})
	if out[0].Err != nil {
		t.Fatal(out[0].Err)
	}
	pkg, _ := pkgjson.Load(dir)
	if pkg.Version() != "1.0.0" || pkg.Name() == "" || pkg.Data["private"] != true {
		t.Fatalf("package.json = %v", pkg.Data)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	r := Run(context.Background(), dir, []Rule{rule("a", LevelHigh, Result{Message: "meh", Details: "more"})}, now)

	path, err := Export(dir, r, "json")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if _, ok := got["summary"].(map[string]any)["autoFixable"]; !ok {
		t.Fatalf("json keys: %s", data)
	}

	path, err = Export(dir, r, "md")
	if err != nil {
		t.Fatal(err)
	}
	md, _ := os.ReadFile(path)
	if !strings.Contains(string(md), "| Failed | 1 |") || !strings.Contains(string(md), "**Details**: more") {
		t.Fatalf("markdown:\n%s", md)
	}

	if _, err := Export(dir, r, "xml"); err == nil {
		t.Fatal("unknown format should fail")
	}
}

func TestPrintConsole(t *testing.T) {
	var b strings.Builder
	r := Run(context.Background(), t.TempDir(), []Rule{rule("a", LevelCritical, Result{Message: "dirty"})}, now)
	PrintConsole(&b, r)
	if !strings.Contains(b.String(), "Run aiflow validate again") {
		t.Fatalf("output:\n%s", b.String())
	}
}
