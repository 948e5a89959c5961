// Package metrics measures how the workflow is used over a period: phase
// throughput from issue labels, pull request flow, AI usage in commit
// messages and bug turnaround.
package metrics

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jorge-barreto/aiflow/internal/aicontext"
	"github.com/jorge-barreto/aiflow/internal/gh"
	"github.com/jorge-barreto/aiflow/internal/phase"
)

// DefaultDays is the default collection window.
const DefaultDays = 30

// Tools are the assistants counted in commit messages.
var Tools = []string{"copilot", "claude", "chatgpt", "windsurf", "cursor"}

// aiMarkers flag a commit as AI assisted.
var aiMarkers = []string{"[ai", "copilot", "generated", "ai:"}

// phaseLabels maps label substrings to phases, checked in order.
var phaseLabels = []struct {
	phase phase.Phase
	subs  []string
}{
	{phase.Requirements, []string{"requirements", "要件"}},
	{phase.PoC, []string{"poc"}},
	{phase.Implementation, []string{"implementation", "実装"}},
	{phase.Review, []string{"review", "レビュー"}},
	{phase.Testing, []string{"testing", "テスト"}},
}

type PhaseStats struct {
	Count     int     `json:"count"`
	Completed int     `json:"completed"`
	AvgDays   float64 `json:"avgDays"`
}

type PRStats struct {
	Total           int     `json:"total"`
	Merged          int     `json:"merged"`
	AvgReviewDays   float64 `json:"avgReviewDays"`
	AvgLinesChanged float64 `json:"avgLinesChanged"`
	AvgCommits      float64 `json:"avgCommits"`
	ReviewsPerPR    float64 `json:"reviewsPerPR"`
}

type AIUsage struct {
	AICommits    int            `json:"aiCommits"`
	TotalCommits int            `json:"totalCommits"`
	ToolMentions map[string]int `json:"toolMentions"`
	ContextFiles int            `json:"contextFiles"`
}

// Rate is the rounded percentage of AI-assisted commits.
func (a *AIUsage) Rate() int { return percentage(a.AICommits, a.TotalCommits) }

type Quality struct {
	TotalBugs  int     `json:"totalBugs"`
	OpenBugs   int     `json:"openBugs"`
	ClosedBugs int     `json:"closedBugs"`
	AvgFixDays float64 `json:"avgFixDays"`
}

// Report holds one collection run. A nil section failed to collect; the
// reason is in Errors.
type Report struct {
	Start       time.Time                   `json:"start"`
	End         time.Time                   `json:"end"`
	GeneratedAt time.Time                   `json:"generatedAt"`
	Phases      map[phase.Phase]*PhaseStats `json:"phases"`
	PRs         *PRStats                    `json:"pullRequests"`
	AI          *AIUsage                    `json:"aiUsage"`
	Quality     *Quality                    `json:"quality"`
	Errors      []string                    `json:"errors,omitempty"`
}

// Collector gathers a Report from GitHub and the local context directory.
type Collector struct {
	Client     gh.Client
	ContextDir string
}

func days(from, to time.Time) float64 { return to.Sub(from).Hours() / 24 }

func percentage(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(float64(n)/float64(d)*100 + 0.5)
}

// PhaseFromLabels picks the phase a set of labels refers to.
func PhaseFromLabels(labels []string) (phase.Phase, bool) {
	for _, pl := range phaseLabels {
		for _, l := range labels {
			l = strings.ToLower(l)
			for _, s := range pl.subs {
				if strings.Contains(l, s) {
					return pl.phase, true
				}
			}
		}
	}
	return "", false
}

// Collect runs the four collectors concurrently over [now-window, now].
func (c *Collector) Collect(ctx context.Context, window time.Duration, now time.Time) *Report {
	r := &Report{Start: now.Add(-window), End: now, GeneratedAt: now}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs = map[string]error{}
	)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs[name] = err
				mu.Unlock()
			}
		}()
	}

	run("phases", func() (err error) { r.Phases, err = c.phases(ctx, r.Start); return })
	run("pull requests", func() (err error) { r.PRs, err = c.pullRequests(ctx, r.Start); return })
	run("ai usage", func() (err error) { r.AI, err = c.aiUsage(ctx, r.Start); return })
	run("quality", func() (err error) { r.Quality, err = c.quality(ctx); return })
	wg.Wait()

	for _, name := range []string{"phases", "pull requests", "ai usage", "quality"} {
		if err := errs[name]; err != nil {
			r.Errors = append(r.Errors, name+": "+err.Error())
		}
	}
	return r
}

func (c *Collector) phases(ctx context.Context, since time.Time) (map[phase.Phase]*PhaseStats, error) {
	issues, err := c.Client.Issues(ctx, gh.IssueQuery{Since: since})
	if err != nil {
		return nil, err
	}
	stats := map[phase.Phase]*PhaseStats{}
	for _, p := range phase.Bridge {
		stats[p] = &PhaseStats{}
	}
	total := map[phase.Phase]float64{}
	for _, is := range issues {
		p, ok := PhaseFromLabels(is.Labels)
		if !ok {
			continue
		}
		s := stats[p]
		s.Count++
		if is.State == "closed" && !is.ClosedAt.IsZero() {
			s.Completed++
			total[p] += days(is.CreatedAt, is.ClosedAt)
		}
	}
	for p, s := range stats {
		if s.Completed > 0 {
			s.AvgDays = total[p] / float64(s.Completed)
		}
	}
	return stats, nil
}

func (c *Collector) pullRequests(ctx context.Context, since time.Time) (*PRStats, error) {
	prs, err := c.Client.PullRequests(ctx)
	if err != nil {
		return nil, err
	}
	s := &PRStats{}
	var reviewDays float64
	var lines, commits, reviews int
	for _, pr := range prs {
		if pr.CreatedAt.Before(since) {
			continue
		}
		s.Total++
		if pr.Merged() {
			s.Merged++
			reviewDays += days(pr.CreatedAt, pr.MergedAt)
		}
		d, err := c.Client.PullDetail(ctx, pr.Number)
		if err != nil {
			return nil, err
		}
		lines += d.Additions + d.Deletions
		commits += d.Commits
		reviews += d.Reviews
	}
	if s.Merged > 0 {
		s.AvgReviewDays = reviewDays / float64(s.Merged)
	}
	if s.Total > 0 {
		s.AvgLinesChanged = float64(lines) / float64(s.Total)
		s.AvgCommits = float64(commits) / float64(s.Total)
		s.ReviewsPerPR = float64(reviews) / float64(s.Total)
	}
	return s, nil
}

func (c *Collector) aiUsage(ctx context.Context, since time.Time) (*AIUsage, error) {
	commits, err := c.Client.Commits(ctx, since)
	if err != nil {
		return nil, err
	}
	a := &AIUsage{TotalCommits: len(commits), ToolMentions: map[string]int{}}
	for _, t := range Tools {
		a.ToolMentions[t] = 0
	}
	for _, cm := range commits {
		msg := strings.ToLower(cm.Message)
		for _, m := range aiMarkers {
			if strings.Contains(msg, m) {
				a.AICommits++
				break
			}
		}
		for _, t := range Tools {
			if strings.Contains(msg, t) {
				a.ToolMentions[t]++
			}
		}
	}
	// A missing context directory just means no files yet.
	if files, err := aicontext.ListFiles(c.ContextDir); err == nil {
		a.ContextFiles = len(files)
	}
	return a, nil
}

func (c *Collector) quality(ctx context.Context) (*Quality, error) {
	bugs, err := c.Client.Issues(ctx, gh.IssueQuery{Labels: []string{"bug"}})
	if err != nil {
		return nil, err
	}
	q := &Quality{TotalBugs: len(bugs)}
	var fixDays float64
	fixed := 0
	for _, b := range bugs {
		switch b.State {
		case "open":
			q.OpenBugs++
		case "closed":
			q.ClosedBugs++
			if !b.ClosedAt.IsZero() {
				fixDays += days(b.CreatedAt, b.ClosedAt)
				fixed++
			}
		}
	}
	if fixed > 0 {
		q.AvgFixDays = fixDays / float64(fixed)
	}
	return q, nil
}
