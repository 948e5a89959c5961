package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var repoPartRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Validate checks the config for errors.
func Validate(cfg *Config) error {
	if t := cfg.Detection.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("config: detection.confidence-threshold must be between 0 and 1, got %v", t)
	}
	if cfg.GitHub.Owner != "" && !repoPartRe.MatchString(cfg.GitHub.Owner) {
		return fmt.Errorf("config: github.owner %q is not a valid owner name", cfg.GitHub.Owner)
	}
	if cfg.GitHub.Repo != "" && !repoPartRe.MatchString(cfg.GitHub.Repo) {
		return fmt.Errorf("config: github.repo %q is not a valid repository name", cfg.GitHub.Repo)
	}
	if err := validateWebhook("notifications.slack-webhook", cfg.Notifications.SlackWebhook); err != nil {
		return err
	}
	if err := validateWebhook("notifications.teams-webhook", cfg.Notifications.TeamsWebhook); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Paths.ContextDir) == "" {
		return fmt.Errorf("config: paths.context-dir must be non-empty")
	}
	return nil
}

func validateWebhook(key, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: %s must be an http(s) URL, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("config: %s has no host", key)
	}
	return nil
}

// ParseRepository splits "owner/repo".
func ParseRepository(s string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || !repoPartRe.MatchString(parts[0]) || !repoPartRe.MatchString(parts[1]) {
		return "", "", fmt.Errorf("repository %q must be in owner/repo form", s)
	}
	return parts[0], parts[1], nil
}
