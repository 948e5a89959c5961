package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidate_ThresholdRange(t *testing.T) {
	for _, v := range []float64{-0.1, 1.5} {
		cfg := Default()
		cfg.Detection.ConfidenceThreshold = v
		if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "between 0 and 1") {
			t.Fatalf("threshold %v: got %v", v, err)
		}
	}
}

func TestValidate_WebhookScheme(t *testing.T) {
	cfg := Default()
	cfg.Notifications.SlackWebhook = "ftp://hooks.example.com/x"
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "http(s)") {
		t.Fatalf("got %v", err)
	}
	cfg.Notifications.SlackWebhook = "https://hooks.slack.com/services/T/B/X"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_BadOwner(t *testing.T) {
	cfg := Default()
	cfg.GitHub.Owner = "bad owner"
	if err := Validate(cfg); err == nil || !strings.Contains(err.Error(), "github.owner") {
		t.Fatalf("got %v", err)
	}
}

func TestParseRepository(t *testing.T) {
	tests := []struct {
		in      string
		owner   string
		repo    string
		wantErr bool
	}{
		{"acme/widgets", "acme", "widgets", false},
		{" acme/widgets.go ", "acme", "widgets.go", false},
		{"acme", "", "", true},
		{"acme/widgets/extra", "", "", true},
		{"/widgets", "", "", true},
	}
	for _, tt := range tests {
		owner, repo, err := ParseRepository(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseRepository(%q) err = %v", tt.in, err)
		}
		if owner != tt.owner || repo != tt.repo {
			t.Fatalf("ParseRepository(%q) = %q, %q", tt.in, owner, repo)
		}
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, Dir), 0755)
	os.WriteFile(Path(dir), []byte("project: demo\n"), 0644)

	cfg, err := Load(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Project != "demo" {
		t.Fatalf("Project = %q", cfg.Project)
	}
	if cfg.Detection.ConfidenceThreshold != DefaultThreshold {
		t.Fatalf("threshold = %v", cfg.Detection.ConfidenceThreshold)
	}
	if !cfg.HistoryEnabled() {
		t.Fatal("history should default to enabled")
	}
	if got := cfg.ContextDir(dir); got != filepath.Join(dir, "docs", "ai-context") {
		t.Fatalf("ContextDir = %q", got)
	}
}

func TestLoad_TemplateIsValid(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, Dir), 0755)
	os.WriteFile(Path(dir), []byte(Template("demo")), 0644)

	cfg, err := Load(Path(dir))
	if err != nil {
		t.Fatalf("template config invalid: %v", err)
	}
	if cfg.History.Path != ".aiflow/history.db" {
		t.Fatalf("History.Path = %q", cfg.History.Path)
	}
}

func TestLoad_HistoryDisabled(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, Dir), 0755)
	os.WriteFile(Path(dir), []byte("history:\n  enabled: false\n"), 0644)

	cfg, err := Load(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HistoryEnabled() {
		t.Fatal("history should be disabled")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, Dir), 0755)
	os.WriteFile(Path(dir), []byte("project: [unterminated\n"), 0644)
	if _, err := Load(Path(dir)); err == nil || !strings.Contains(err.Error(), "config:") {
		t.Fatalf("got %v", err)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Paths.ContextDir != DefaultContextDir {
		t.Fatalf("ContextDir = %q", cfg.Paths.ContextDir)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"GITHUB_TOKEN":      "tok",
		"GITHUB_REPOSITORY": "acme/widgets",
		"GITHUB_REPO":       "gadgets",
		"SLACK_WEBHOOK_URL": "https://hooks.slack.com/x",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GitHub.Token != "tok" {
		t.Fatalf("Token = %q", cfg.GitHub.Token)
	}
	if got := cfg.Repository(); got != "acme/gadgets" {
		t.Fatalf("Repository = %q", got)
	}
	if cfg.Notifications.SlackWebhook != "https://hooks.slack.com/x" {
		t.Fatalf("SlackWebhook = %q", cfg.Notifications.SlackWebhook)
	}
}

func TestApplyEnv_CustomTokenEnv(t *testing.T) {
	cfg := Default()
	cfg.GitHub.TokenEnv = "AIFLOW_GH"
	if err := cfg.ApplyEnv(env(map[string]string{"AIFLOW_GH": "custom"})); err != nil {
		t.Fatal(err)
	}
	if cfg.GitHub.Token != "custom" {
		t.Fatalf("Token = %q", cfg.GitHub.Token)
	}
}

func TestApplyEnv_BadRepository(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(env(map[string]string{"GITHUB_REPOSITORY": "nope"})); err == nil {
		t.Fatal("expected error")
	}
}

func TestApplyEnv_BadWebhook(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(env(map[string]string{"TEAMS_WEBHOOK_URL": "not a url"})); err == nil {
		t.Fatal("expected error")
	}
}
