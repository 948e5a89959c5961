package gh

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *REST {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New("tok", "acme", "widgets")
	if err := c.SetBaseURL(srv.URL); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestIssues_PaginatesAndDropsPulls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Query().Get("state") != "all" || r.URL.Query().Get("per_page") != "100" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"number":3,"title":"c","state":"closed","created_at":"2026-01-01T00:00:00Z","closed_at":"2026-01-03T00:00:00Z"}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/acme/widgets/issues?page=2>; rel="next"`, r.Host))
		fmt.Fprint(w, `[
  {"number":1,"title":"a","state":"open","labels":[{"name":"phase:poc"},{"name":"blocked"}],"created_at":"2026-01-01T00:00:00Z"},
  {"number":2,"title":"pr","state":"open","pull_request":{"url":"x"}}
]`)
	})
	c := newTestClient(t, mux)

	issues, err := c.Issues(context.Background(), IssueQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 2 {
		t.Fatalf("issues = %+v", issues)
	}
	if issues[0].Number != 1 || !issues[0].HasLabel("blocked") || !issues[0].ClosedAt.IsZero() {
		t.Fatalf("issue 1 = %+v", issues[0])
	}
	want := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	if !issues[1].ClosedAt.Equal(want) {
		t.Fatalf("ClosedAt = %v", issues[1].ClosedAt)
	}
}

func TestIssues_LabelFilter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("labels") != "bug" {
			t.Errorf("labels = %q", r.URL.Query().Get("labels"))
		}
		fmt.Fprint(w, `[]`)
	})
	c := newTestClient(t, mux)
	if _, err := c.Issues(context.Background(), IssueQuery{Labels: []string{"bug"}}); err != nil {
		t.Fatal(err)
	}
}

func TestPullRequestsAndDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"number":7,"title":"feat","state":"open","created_at":"2026-01-01T00:00:00Z","requested_reviewers":[{"login":"kim"}]},
{"number":8,"title":"fix","state":"closed","created_at":"2026-01-01T00:00:00Z","merged_at":"2026-01-02T00:00:00Z"}]`)
	})
	mux.HandleFunc("/repos/acme/widgets/pulls/8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"number":8,"additions":10,"deletions":4,"commits":2}`)
	})
	mux.HandleFunc("/repos/acme/widgets/pulls/8/reviews", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":1},{"id":2},{"id":3}]`)
	})
	c := newTestClient(t, mux)

	prs, err := c.PullRequests(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(prs) != 2 || prs[0].Merged() || !prs[1].Merged() || len(prs[0].Reviewers) != 1 {
		t.Fatalf("prs = %+v", prs)
	}
	d, err := c.PullDetail(context.Background(), 8)
	if err != nil {
		t.Fatal(err)
	}
	if d != (PullDetail{Additions: 10, Deletions: 4, Commits: 2, Reviews: 3}) {
		t.Fatalf("detail = %+v", d)
	}
}

func TestCommits(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/commits", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("since") == "" {
			t.Error("since not sent")
		}
		fmt.Fprint(w, `[{"sha":"abc","commit":{"message":"ai: add parser","author":{"date":"2026-01-05T10:00:00Z"}}}]`)
	})
	c := newTestClient(t, mux)
	commits, err := c.Commits(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 1 || commits[0].Message != "ai: add parser" || commits[0].Date.Day() != 5 {
		t.Fatalf("commits = %+v", commits)
	}
}

func TestErrorsAreWrapped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/pulls", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	})
	c := newTestClient(t, mux)
	if _, err := c.PullRequests(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
