// Package config loads .aiflow/config.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	Dir      = ".aiflow"
	FileName = "config.yaml"

	DefaultContextDir = "docs/ai-context"
	DefaultHistory    = ".aiflow/history.db"
	DefaultThreshold  = 0.7
	DefaultTokenEnv   = "GITHUB_TOKEN"
)

type GitHub struct {
	Owner    string `yaml:"owner"`
	Repo     string `yaml:"repo"`
	TokenEnv string `yaml:"token-env"`
	// Token is never read from YAML; it comes from the environment.
	Token string `yaml:"-"`
}

type Notifications struct {
	SlackWebhook string `yaml:"slack-webhook"`
	TeamsWebhook string `yaml:"teams-webhook"`
}

type Detection struct {
	ConfidenceThreshold float64 `yaml:"confidence-threshold"`
}

type Paths struct {
	ContextDir string `yaml:"context-dir"`
}

type History struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Project       string        `yaml:"project"`
	GitHub        GitHub        `yaml:"github"`
	Notifications Notifications `yaml:"notifications"`
	Detection     Detection     `yaml:"detection"`
	Paths         Paths         `yaml:"paths"`
	History       History       `yaml:"history"`
}

// Path returns the config file location for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, FileName)
}

// Default returns a config with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads a YAML config file and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads the project config if present, falls back to
// defaults when it is missing, then applies environment overrides.
func LoadOrDefault(projectRoot string) (*Config, error) {
	cfg, err := Load(Path(projectRoot))
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = DefaultTokenEnv
	}
	if c.Detection.ConfidenceThreshold == 0 {
		c.Detection.ConfidenceThreshold = DefaultThreshold
	}
	if c.Paths.ContextDir == "" {
		c.Paths.ContextDir = DefaultContextDir
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistory
	}
}

// ApplyEnv overlays environment variables onto the loaded values.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	c.GitHub.Token = getenv(c.GitHub.TokenEnv)
	if c.GitHub.Token == "" && c.GitHub.TokenEnv != DefaultTokenEnv {
		c.GitHub.Token = getenv(DefaultTokenEnv)
	}
	if v := getenv("GITHUB_REPOSITORY"); v != "" {
		owner, repo, err := ParseRepository(v)
		if err != nil {
			return fmt.Errorf("config: GITHUB_REPOSITORY: %w", err)
		}
		c.GitHub.Owner, c.GitHub.Repo = owner, repo
	}
	if v := getenv("GITHUB_OWNER"); v != "" {
		c.GitHub.Owner = v
	}
	if v := getenv("GITHUB_REPO"); v != "" {
		c.GitHub.Repo = v
	}
	if v := getenv("SLACK_WEBHOOK_URL"); v != "" {
		c.Notifications.SlackWebhook = v
	}
	if v := getenv("TEAMS_WEBHOOK_URL"); v != "" {
		c.Notifications.TeamsWebhook = v
	}
	return Validate(c)
}

// Repository returns "owner/repo", or "" when either part is unset.
func (c *Config) Repository() string {
	if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
		return ""
	}
	return c.GitHub.Owner + "/" + c.GitHub.Repo
}

// HistoryEnabled defaults to true when the key is absent.
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

// ContextDir resolves the AI context directory against the project root.
func (c *Config) ContextDir(projectRoot string) string {
	return resolve(projectRoot, c.Paths.ContextDir)
}

// HistoryPath resolves the history database against the project root.
func (c *Config) HistoryPath(projectRoot string) string {
	return resolve(projectRoot, c.History.Path)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Template is the config written by `aiflow init`.
func Template(project string) string {
	return fmt.Sprintf(`project: %s

github:
  owner: ""
  repo: ""
  token-env: GITHUB_TOKEN

notifications:
  slack-webhook: ""
  teams-webhook: ""

detection:
  confidence-threshold: 0.7

paths:
  context-dir: docs/ai-context

history:
  enabled: true
  path: .aiflow/history.db
`, project)
}
