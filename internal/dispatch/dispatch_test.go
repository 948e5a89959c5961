package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/pkgjson"
	"github.com/jorge-barreto/aiflow/internal/prompt"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/templates"
)

func newEnv(t *testing.T) *Environment {
	t.Helper()
	return &Environment{
		ProjectRoot: t.TempDir(),
		Vars:        templates.DefaultVars("demo", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		Force:       true,
		Out:         &strings.Builder{},
	}
}

func TestStepFiles(t *testing.T) {
	staged, err := StepFiles(state.Step{ID: "github-templates", Phase: string(phase.Requirements)})
	if err != nil {
		t.Fatal(err)
	}
	if len(staged) != 1 || staged[0] != templates.PRTemplate {
		t.Fatalf("staged github-templates = %v", staged)
	}

	category, err := StepFiles(state.Step{ID: "github-templates"})
	if err != nil {
		t.Fatal(err)
	}
	if len(category) != 6 {
		t.Fatalf("category github-templates = %v", category)
	}

	if _, err := StepFiles(state.Step{ID: "nope"}); err == nil {
		t.Fatal("unknown step should fail")
	}
	if _, err := StepFiles(state.Step{ID: "core-docs", Phase: string(phase.Review)}); err == nil {
		t.Fatal("step from another phase should fail")
	}
}

func TestDispatch_InstallsTemplates(t *testing.T) {
	env := newEnv(t)
	res, err := Dispatch(context.Background(), state.Step{ID: "scripts"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != len(templates.Scripts) {
		t.Fatalf("Written = %v", res.Written)
	}
	info, err := os.Stat(filepath.Join(env.ProjectRoot, "scripts/ai-context.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0100 == 0 {
		t.Fatal("script should be executable")
	}

	again, err := Dispatch(context.Background(), state.Step{ID: "scripts"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Written) != 0 || len(again.Unchanged) != len(templates.Scripts) {
		t.Fatalf("second run = %+v", again)
	}
}

func TestInstall_ExpandsMarkdown(t *testing.T) {
	env := newEnv(t)
	if _, err := Install(context.Background(), []string{"docs/PROJECT_CONTEXT.md"}, env); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(env.ProjectRoot, "docs/PROJECT_CONTEXT.md"))
	if !strings.Contains(string(data), "demo") || strings.Contains(string(data), "${PROJECT_NAME}") {
		t.Fatalf("variables not expanded:\n%s", data)
	}
}

func TestInstall_ForceKeepsConflicts(t *testing.T) {
	env := newEnv(t)
	user := strings.Repeat("hand written architecture notes\n", 10)
	target := filepath.Join(env.ProjectRoot, "docs/ARCHITECTURE.md")
	os.MkdirAll(filepath.Dir(target), 0755)
	os.WriteFile(target, []byte(user), 0644)

	res, err := Install(context.Background(), []string{"docs/ARCHITECTURE.md"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Kept) != 1 {
		t.Fatalf("result = %+v", res)
	}
	data, _ := os.ReadFile(target)
	if string(data) != user {
		t.Fatal("conflicting file was overwritten")
	}
}

func TestInstall_SmallFileIsReplaced(t *testing.T) {
	env := newEnv(t)
	target := filepath.Join(env.ProjectRoot, "docs/ARCHITECTURE.md")
	os.MkdirAll(filepath.Dir(target), 0755)
	os.WriteFile(target, []byte("stub"), 0644)

	res, err := Install(context.Background(), []string{"docs/ARCHITECTURE.md"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestInstall_PromptReplace(t *testing.T) {
	env := newEnv(t)
	env.Force = false
	p := prompt.New(strings.NewReader("2\n"), &strings.Builder{})
	defer p.Stop()
	env.Prompter = p

	target := filepath.Join(env.ProjectRoot, "docs/ARCHITECTURE.md")
	os.MkdirAll(filepath.Dir(target), 0755)
	os.WriteFile(target, []byte(strings.Repeat("x", 200)), 0644)

	res, err := Install(context.Background(), []string{"docs/ARCHITECTURE.md"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != 1 {
		t.Fatalf("result = %+v", res)
	}
}

func TestInstall_PromptManual(t *testing.T) {
	env := newEnv(t)
	env.Force = false
	p := prompt.New(strings.NewReader("3\n\n"), &strings.Builder{})
	defer p.Stop()
	env.Prompter = p

	target := filepath.Join(env.ProjectRoot, "docs/ARCHITECTURE.md")
	os.MkdirAll(filepath.Dir(target), 0755)
	os.WriteFile(target, []byte(strings.Repeat("x", 200)), 0644)

	res, err := Install(context.Background(), []string{"docs/ARCHITECTURE.md"}, env)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Manual) != 1 {
		t.Fatalf("result = %+v", res)
	}
	if _, err := os.Stat(target + ManualSuffix); err != nil {
		t.Fatalf("template copy missing: %v", err)
	}
}

func TestDispatch_PackageJSON(t *testing.T) {
	env := newEnv(t)
	pkg := pkgjson.New("demo")
	if err := pkg.Save(env.ProjectRoot); err != nil {
		t.Fatal(err)
	}
	if _, err := Dispatch(context.Background(), state.Step{ID: StepPackageJSON}, env); err != nil {
		t.Fatal(err)
	}
	loaded, err := pkgjson.Load(env.ProjectRoot)
	if err != nil {
		t.Fatal(err)
	}
	scripts := loaded.Scripts()
	if scripts["progress-update"] != "aiflow progress" || scripts["test"] == "" {
		t.Fatalf("scripts = %v", scripts)
	}
}

func TestDispatch_PackageJSONMissing(t *testing.T) {
	env := newEnv(t)
	if _, err := Dispatch(context.Background(), state.Step{ID: StepPackageJSON}, env); err == nil {
		t.Fatal("expected error without package.json")
	}
}

func TestDispatch_Backup(t *testing.T) {
	env := newEnv(t)
	env.ProjectPhase = phase.PoC
	env.Now = func() time.Time { return time.UnixMilli(42) }
	os.MkdirAll(filepath.Join(env.ProjectRoot, "docs"), 0755)
	os.WriteFile(filepath.Join(env.ProjectRoot, "docs/ARCHITECTURE.md"), []byte("mine"), 0644)
	env.BackupFiles = []string{"docs/ARCHITECTURE.md"}

	res, err := Dispatch(context.Background(), state.Step{ID: StepBackup}, env)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(res.BackupPath) != ".backup-42" || env.BackupPath != res.BackupPath {
		t.Fatalf("BackupPath = %q", res.BackupPath)
	}
	data, err := os.ReadFile(filepath.Join(res.BackupPath, "docs/ARCHITECTURE.md"))
	if err != nil || string(data) != "mine" {
		t.Fatalf("backup copy = %q, %v", data, err)
	}
}

func TestIsConflict(t *testing.T) {
	long := strings.Repeat("a", 101)
	if !IsConflict(long, "template") {
		t.Fatal("long differing file should conflict")
	}
	if IsConflict(strings.Repeat("a", 100), "template") {
		t.Fatal("100 bytes is not a conflict")
	}
	if IsConflict(long, long) {
		t.Fatal("identical content is not a conflict")
	}
}
