// Package notify posts phase-completion messages to Slack and Microsoft
// Teams incoming webhooks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/jorge-barreto/aiflow/internal/aicontext"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/progress"
)

const (
	sendTimeout = 10 * time.Second
	maxItems    = 3
)

// For testing: allow overriding the HTTP client.
var httpClient = &http.Client{Timeout: sendTimeout}

// Message is everything a notification shows.
type Message struct {
	Phase          string
	Repository     string
	IssueURL       string
	QualityScore   int
	CompletionRate int
	Decisions      []string
	Focus          []string
}

// ParseScore accepts the loose --quality-score value ("84", "84.5", "").
func ParseScore(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	f, err := cast.ToFloat64E(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid quality score %q", s)
	}
	return int(f), nil
}

// Build assembles a message from the phase context document and the
// saved progress dashboard. Either may be nil.
func Build(ph, repo, issueURL string, score int, doc *aicontext.Document, dash *progress.Dashboard) *Message {
	m := &Message{Phase: ph, Repository: repo, IssueURL: issueURL, QualityScore: score}
	if dash != nil {
		m.CompletionRate = dash.OverallProgress.CompletionRate
	}
	if doc != nil {
		for _, d := range doc.KeyDecisions {
			if len(m.Decisions) == maxItems {
				break
			}
			m.Decisions = append(m.Decisions, d.Decision)
		}
		m.Focus = doc.NextPhaseFocus[:min(len(doc.NextPhaseFocus), maxItems)]
	}
	return m
}

// QualityEmoji maps a 0-100 score to a badge.
func QualityEmoji(score int) string {
	switch {
	case score >= 90:
		return "🏆"
	case score >= 80:
		return "⭐"
	case score >= 70:
		return "✅"
	case score >= 60:
		return "⚠️"
	default:
		return "🔴"
	}
}

// ThemeColor is the Teams card accent for a score.
func ThemeColor(score int) string {
	switch {
	case score >= 80:
		return "28a745"
	case score >= 70:
		return "ffc107"
	case score >= 60:
		return "fd7e14"
	default:
		return "dc3545"
	}
}

func (m *Message) phaseEmoji() string {
	p, err := phase.Parse(m.Phase)
	if err != nil || !p.IsBridge() {
		return "✨"
	}
	return p.Emoji()
}

func (m *Message) title() string {
	return fmt.Sprintf("%s %s phase complete", m.phaseEmoji(), m.Phase)
}

func (m *Message) dashboardURL() string {
	return "https://github.com/" + m.Repository + "/tree/main/docs/ai-context"
}

func bullets(items []string, sep string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "• " + it
	}
	return strings.Join(lines, sep)
}

// Post sends payload as JSON to url. Non-2xx responses are errors carrying
// the response body.
func Post(ctx context.Context, url string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Targets are the webhook URLs to notify. Empty entries are skipped.
type Targets struct {
	Slack string
	Teams string
}

// Send posts m to every configured target. Each send is attempted even if
// another fails; the returned error joins all failures.
func Send(ctx context.Context, t Targets, m *Message) (sent []string, err error) {
	var errs []error
	if t.Slack != "" {
		if e := Post(ctx, t.Slack, SlackPayload(m)); e != nil {
			errs = append(errs, fmt.Errorf("slack: %w", e))
		} else {
			sent = append(sent, "slack")
		}
	}
	if t.Teams != "" {
		if e := Post(ctx, t.Teams, TeamsPayload(m)); e != nil {
			errs = append(errs, fmt.Errorf("teams: %w", e))
		} else {
			sent = append(sent, "teams")
		}
	}
	return sent, errors.Join(errs...)
}
