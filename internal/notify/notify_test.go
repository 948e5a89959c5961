package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jorge-barreto/aiflow/internal/aicontext"
	"github.com/jorge-barreto/aiflow/internal/progress"
)

func sampleMessage() *Message {
	doc := &aicontext.Document{
		KeyDecisions: []aicontext.Decision{
			{Decision: "Use Postgres"}, {Decision: "REST API"}, {Decision: "JWT auth"}, {Decision: "Dropped"},
		},
		NextPhaseFocus: []string{"Load test", "Harden auth"},
	}
	dash := &progress.Dashboard{OverallProgress: progress.Overall{CompletionRate: 42}}
	return Build("poc", "acme/app", "https://github.com/acme/app/issues/7", 85, doc, dash)
}

func TestBuild(t *testing.T) {
	m := sampleMessage()
	if len(m.Decisions) != 3 || m.Decisions[2] != "JWT auth" {
		t.Fatalf("decisions = %v", m.Decisions)
	}
	if len(m.Focus) != 2 || m.CompletionRate != 42 {
		t.Fatalf("message = %+v", m)
	}

	empty := Build("review", "acme/app", "", 0, nil, nil)
	if empty.Decisions != nil || empty.CompletionRate != 0 {
		t.Fatalf("empty = %+v", empty)
	}
}

func TestThresholds(t *testing.T) {
	cases := []struct {
		score int
		emoji string
		color string
	}{
		{95, "🏆", "28a745"},
		{85, "⭐", "28a745"},
		{75, "✅", "ffc107"},
		{65, "⚠️", "fd7e14"},
		{10, "🔴", "dc3545"},
	}
	for _, c := range cases {
		if got := QualityEmoji(c.score); got != c.emoji {
			t.Errorf("QualityEmoji(%d) = %s", c.score, got)
		}
		if got := ThemeColor(c.score); got != c.color {
			t.Errorf("ThemeColor(%d) = %s", c.score, got)
		}
	}
}

func TestParseScore(t *testing.T) {
	for in, want := range map[string]int{"": 0, "84": 84, " 72.6 ": 72} {
		got, err := ParseScore(in)
		if err != nil || got != want {
			t.Errorf("ParseScore(%q) = %d, %v", in, got, err)
		}
	}
	if _, err := ParseScore("great"); err == nil {
		t.Error("expected error")
	}
}

func TestSlackPayload(t *testing.T) {
	data, err := json.Marshal(SlackPayload(sampleMessage()))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, want := range []string{`"type":"header"`, "⭐ 85/100", "42%", "• Use Postgres", "view_issue", "view_progress", "tree/main/docs/ai-context"} {
		if !strings.Contains(s, want) {
			t.Errorf("slack payload missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "Dropped") {
		t.Error("more than 3 decisions rendered")
	}
}

func TestTeamsPayload(t *testing.T) {
	msg := TeamsPayload(sampleMessage())
	if msg.Type != "MessageCard" || msg.ThemeColor != "28a745" {
		t.Fatalf("card = %+v", msg)
	}
	if len(msg.Sections) != 3 || len(msg.PotentialAction) != 2 {
		t.Fatalf("sections = %d actions = %d", len(msg.Sections), len(msg.PotentialAction))
	}
	if msg.PotentialAction[0].Type != "OpenUri" {
		t.Fatalf("action = %+v", msg.PotentialAction[0])
	}
}

func TestSend_Independent(t *testing.T) {
	var slackBody string
	slack := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		slackBody = string(b)
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		w.Write([]byte("ok"))
	}))
	defer slack.Close()
	teams := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid card"))
	}))
	defer teams.Close()

	sent, err := Send(context.Background(), Targets{Slack: slack.URL, Teams: teams.URL}, sampleMessage())
	if err == nil || !strings.Contains(err.Error(), "teams: HTTP 400: invalid card") {
		t.Fatalf("err = %v", err)
	}
	if len(sent) != 1 || sent[0] != "slack" {
		t.Fatalf("sent = %v", sent)
	}
	if !strings.Contains(slackBody, `"blocks"`) {
		t.Fatalf("slack body = %s", slackBody)
	}
}

func TestSend_NoTargets(t *testing.T) {
	sent, err := Send(context.Background(), Targets{}, sampleMessage())
	if err != nil || sent != nil {
		t.Fatalf("got %v, %v", sent, err)
	}
}
