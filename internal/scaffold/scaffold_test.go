package scaffold

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/aiflow/internal/config"
	"github.com/jorge-barreto/aiflow/internal/pkgjson"
	"github.com/jorge-barreto/aiflow/internal/prompt"
)

var now = time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

func TestInit_CreatesDirectoryStructure(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, io.Discard); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	paths := append([]string{}, Dirs...)
	paths = append(paths, filepath.Join(config.Dir, config.FileName), "README.md")
	for _, path := range paths {
		full := filepath.Join(dir, path)
		info, err := os.Stat(full)
		if err != nil {
			t.Fatalf("%s not created: %v", path, err)
		}
		if !info.IsDir() && info.Size() == 0 {
			t.Fatalf("%s is empty", path)
		}
	}
}

func TestInit_GeneratedConfigIsValid(t *testing.T) {
	dir := t.TempDir()
	if err := Init(dir, io.Discard); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	cfg, err := config.Load(config.Path(dir))
	if err != nil {
		t.Fatalf("config.Load failed on generated config: %v", err)
	}
	if cfg.Project != filepath.Base(dir) {
		t.Fatalf("Project = %q", cfg.Project)
	}
}

func TestInit_KeepsExistingReadme(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("mine"), 0644)
	if err := Init(dir, io.Discard); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "README.md")); string(data) != "mine" {
		t.Fatalf("README overwritten: %q", data)
	}
}

func TestInit_FailsIfDirExists(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, config.Dir), 0755); err != nil {
		t.Fatal(err)
	}
	err := Init(dir, io.Discard)
	if err == nil {
		t.Fatal("expected error when .aiflow already exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected error containing 'already exists', got: %s", err)
	}
}

func TestValidateVersion(t *testing.T) {
	for v, ok := range map[string]bool{"0.1.0": true, "10.20.30": true, "1.0": false, "v1.0.0": false, "1.0.0-rc1": false} {
		if err := ValidateVersion(v); (err == nil) != ok {
			t.Errorf("ValidateVersion(%q) = %v", v, err)
		}
	}
}

func TestAsk_ReadsAnswers(t *testing.T) {
	input := strings.Join([]string{
		"Widget Shop", // name
		"bad",         // invalid version, re-asked
		"1.2.3",
		"Kim",
		"",  // description default
		"5", // Go
		"",  // framework default
		"2,3",
		"8",
		"3", // high security
	}, "\n") + "\n"
	p := prompt.New(strings.NewReader(input), io.Discard)
	defer p.Stop()

	a, err := Ask(context.Background(), p, DefaultAnswers("demo"))
	if err != nil {
		t.Fatal(err)
	}
	if a.ProjectName != "Widget Shop" || a.Version != "1.2.3" || a.Author != "Kim" {
		t.Fatalf("a = %+v", a)
	}
	if a.Description != "A new AI-assisted project" || a.Language != "Go" || a.Framework != "React" {
		t.Fatalf("a = %+v", a)
	}
	if strings.Join(a.AITools, ",") != "Claude,ChatGPT" || a.TeamSize != "8" || !IsHighSecurity(a.SecurityLevel) {
		t.Fatalf("a = %+v", a)
	}
}

func TestAsk_AcceptDefaults(t *testing.T) {
	p := prompt.New(strings.NewReader(""), io.Discard)
	defer p.Stop()
	p.AcceptDefaults = true
	def := DefaultAnswers("demo")
	a, err := Ask(context.Background(), p, def)
	if err != nil {
		t.Fatal(err)
	}
	if a.ProjectName != "demo" || len(a.AITools) != 3 || a.SecurityLevel != SecurityLevels[0] {
		t.Fatalf("a = %+v", a)
	}
}

func TestSetup_WritesDocsAndPackage(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"old","scripts":{"test":"jest"}}`), 0644)

	a := DefaultAnswers("Widget Shop")
	a.Language = "Python"
	a.SecurityLevel = SecurityLevels[2]
	a.Author = "Kim"
	a.Version = "2.0.0"

	res, err := Setup(context.Background(), dir, a, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Written) != len(SetupDocs) || !res.PackageUpdated {
		t.Fatalf("res = %+v", res)
	}

	standards, _ := os.ReadFile(filepath.Join(dir, "docs", "CODING_STANDARDS.md"))
	for _, want := range []string{"PEP 8 + Black + isort", "snake_case", "#### High security"} {
		if !strings.Contains(string(standards), want) {
			t.Errorf("CODING_STANDARDS.md lacks %q", want)
		}
	}
	ctxDoc, _ := os.ReadFile(filepath.Join(dir, "docs", "PROJECT_CONTEXT.md"))
	if !strings.Contains(string(ctxDoc), "Widget Shop") || !strings.Contains(string(ctxDoc), "2026-02-14") || !strings.Contains(string(ctxDoc), "- Claude") {
		t.Errorf("PROJECT_CONTEXT.md:\n%s", ctxDoc)
	}

	pkg, _ := pkgjson.Load(dir)
	if pkg.Name() != "widget-shop" || pkg.Version() != "2.0.0" || pkg.String("author") != "Kim" || !pkg.HasScript("test") {
		t.Fatalf("package.json = %v", pkg.Data)
	}
}

func TestSetup_LowSecurityOmitsSection(t *testing.T) {
	dir := t.TempDir()
	res, err := Setup(context.Background(), dir, DefaultAnswers("x"), now)
	if err != nil {
		t.Fatal(err)
	}
	if res.PackageUpdated {
		t.Fatal("no package.json to update")
	}
	standards, _ := os.ReadFile(filepath.Join(dir, "docs", "CODING_STANDARDS.md"))
	if strings.Contains(string(standards), "High security") || strings.Contains(string(standards), "${") {
		t.Fatalf("CODING_STANDARDS.md:\n%s", standards)
	}
}

func TestProjectName(t *testing.T) {
	dir := t.TempDir()
	if got := ProjectName(dir); got != filepath.Base(dir) {
		t.Fatalf("ProjectName = %q", got)
	}
	os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"name":"from-pkg"}`), 0644)
	if got := ProjectName(dir); got != "from-pkg" {
		t.Fatalf("ProjectName = %q", got)
	}
}
