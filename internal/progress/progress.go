// Package progress builds the project progress dashboard from GitHub issues
// and pull requests labelled with workflow phases.
package progress

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jorge-barreto/aiflow/internal/aicontext"
	"github.com/jorge-barreto/aiflow/internal/gh"
	"github.com/jorge-barreto/aiflow/internal/phase"
)

const (
	LabelPrefix    = "phase:"
	TimelineDays   = 30
	LongOpenDays   = 14
	bottleneckShow = 5

	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

type PhaseProgress struct {
	Total      int `yaml:"total" json:"total"`
	Completed  int `yaml:"completed" json:"completed"`
	InProgress int `yaml:"in_progress" json:"inProgress"`
	Blocked    int `yaml:"blocked" json:"blocked"`
}

// Rate is the rounded completion percentage.
func (p *PhaseProgress) Rate() int { return rate(p.Completed, p.Total) }

type PRStats struct {
	Total  int `yaml:"total" json:"total"`
	Merged int `yaml:"merged" json:"merged"`
	Open   int `yaml:"open" json:"open"`
	Closed int `yaml:"closed" json:"closed"`
}

type Overall struct {
	TotalIssues      int `yaml:"total_issues" json:"totalIssues"`
	CompletedIssues  int `yaml:"completed_issues" json:"completedIssues"`
	InProgressIssues int `yaml:"in_progress_issues" json:"inProgressIssues"`
	BlockedIssues    int `yaml:"blocked_issues" json:"blockedIssues"`
	CompletionRate   int `yaml:"completion_rate" json:"completionRate"`
	BlockRate        int `yaml:"block_rate" json:"blockRate"`
}

type Day struct {
	IssuesOpened int `yaml:"issues_opened" json:"issuesOpened"`
	IssuesClosed int `yaml:"issues_closed" json:"issuesClosed"`
	PRsOpened    int `yaml:"prs_opened" json:"prsOpened"`
	PRsMerged    int `yaml:"prs_merged" json:"prsMerged"`
}

type BottleneckItem struct {
	Title              string   `yaml:"title" json:"title"`
	URL                string   `yaml:"url" json:"url"`
	DaysOpen           int      `yaml:"days_open,omitempty" json:"daysOpen,omitempty"`
	BlockLabels        []string `yaml:"block_labels,omitempty" json:"blockLabels,omitempty"`
	RequestedReviewers []string `yaml:"requested_reviewers,omitempty" json:"requestedReviewers,omitempty"`
}

type Bottleneck struct {
	Type        string           `yaml:"type" json:"type"`
	Severity    string           `yaml:"severity" json:"severity"`
	Count       int              `yaml:"count" json:"count"`
	Description string           `yaml:"description" json:"description"`
	Items       []BottleneckItem `yaml:"items" json:"items"`
}

// Dashboard is the document saved as progress-dashboard.yml.
type Dashboard struct {
	UpdatedAt        string                    `yaml:"updated_at" json:"updatedAt"`
	Repository       string                    `yaml:"repository" json:"repository"`
	ProjectPhases    map[string]*PhaseProgress `yaml:"project_phases" json:"projectPhases"`
	PullRequestStats PRStats                   `yaml:"pull_request_stats" json:"pullRequestStats"`
	OverallProgress  Overall                   `yaml:"overall_progress" json:"overallProgress"`
	Timeline         map[string]*Day           `yaml:"timeline" json:"timeline"`
	Bottlenecks      []Bottleneck              `yaml:"bottlenecks" json:"bottlenecks"`
	QualityMetrics   *aicontext.Summary        `yaml:"quality_metrics" json:"qualityMetrics"`
}

// OpenBottlenecks counts the items across every bottleneck.
func (d *Dashboard) OpenBottlenecks() int {
	n := 0
	for _, b := range d.Bottlenecks {
		n += b.Count
	}
	return n
}

func rate(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(n)/float64(total)*100 + 0.5)
}

// phaseOf returns the bridge phase named by a phase:<name> label.
func phaseOf(labels []string) (phase.Phase, bool) {
	for _, l := range labels {
		name, ok := strings.CutPrefix(l, LabelPrefix)
		if !ok {
			continue
		}
		if p := phase.Phase(name); p.IsBridge() {
			return p, true
		}
	}
	return "", false
}

func blockLabels(labels []string) []string {
	var out []string
	for _, l := range labels {
		if strings.Contains(l, "blocked") || strings.Contains(l, "waiting") {
			out = append(out, l)
		}
	}
	return out
}

// Analyze computes the dashboard from issues and pull requests. The quality
// section is left for the caller.
func Analyze(issues []gh.Issue, prs []gh.PullRequest, repository string, now time.Time) *Dashboard {
	d := &Dashboard{
		UpdatedAt:     now.UTC().Format(time.RFC3339),
		Repository:    repository,
		ProjectPhases: map[string]*PhaseProgress{},
	}
	for _, p := range phase.Bridge {
		d.ProjectPhases[string(p)] = &PhaseProgress{}
	}

	o := &d.OverallProgress
	for _, is := range issues {
		p, ok := phaseOf(is.Labels)
		if !ok {
			continue
		}
		pp := d.ProjectPhases[string(p)]
		pp.Total++
		o.TotalIssues++
		switch {
		case is.State == "closed":
			pp.Completed++
			o.CompletedIssues++
		case len(blockLabels(is.Labels)) > 0:
			pp.Blocked++
			o.BlockedIssues++
		default:
			pp.InProgress++
		}
	}
	o.InProgressIssues = o.TotalIssues - o.CompletedIssues - o.BlockedIssues
	o.CompletionRate = rate(o.CompletedIssues, o.TotalIssues)
	o.BlockRate = rate(o.BlockedIssues, o.TotalIssues)

	s := &d.PullRequestStats
	s.Total = len(prs)
	for _, pr := range prs {
		switch {
		case pr.Merged():
			s.Merged++
		case pr.State == "open":
			s.Open++
		case pr.State == "closed":
			s.Closed++
		}
	}

	d.Timeline = timeline(issues, prs, now)
	d.Bottlenecks = bottlenecks(issues, prs, now)
	return d
}

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func timeline(issues []gh.Issue, prs []gh.PullRequest, now time.Time) map[string]*Day {
	days := map[string]*Day{}
	for i := TimelineDays - 1; i >= 0; i-- {
		days[dayKey(now.AddDate(0, 0, -i))] = &Day{}
	}
	bump := func(t time.Time, f func(*Day)) {
		if t.IsZero() {
			return
		}
		if d, ok := days[dayKey(t)]; ok {
			f(d)
		}
	}
	for _, is := range issues {
		bump(is.CreatedAt, func(d *Day) { d.IssuesOpened++ })
		bump(is.ClosedAt, func(d *Day) { d.IssuesClosed++ })
	}
	for _, pr := range prs {
		bump(pr.CreatedAt, func(d *Day) { d.PRsOpened++ })
		bump(pr.MergedAt, func(d *Day) { d.PRsMerged++ })
	}
	return days
}

func bottlenecks(issues []gh.Issue, prs []gh.PullRequest, now time.Time) []Bottleneck {
	var out []Bottleneck

	var longOpen, blocked []BottleneckItem
	for _, is := range issues {
		if is.State != "open" {
			continue
		}
		if age := now.Sub(is.CreatedAt).Hours() / 24; age > LongOpenDays {
			longOpen = append(longOpen, BottleneckItem{Title: is.Title, URL: is.URL, DaysOpen: int(age)})
		}
		if bl := blockLabels(is.Labels); len(bl) > 0 {
			blocked = append(blocked, BottleneckItem{Title: is.Title, URL: is.URL, BlockLabels: bl})
		}
	}
	if len(longOpen) > 0 {
		out = append(out, Bottleneck{
			Type:        "long_open_issues",
			Severity:    SeverityMedium,
			Count:       len(longOpen),
			Description: fmt.Sprintf("%d issue(s) open for more than %d days", len(longOpen), LongOpenDays),
			Items:       head(longOpen),
		})
	}
	if len(blocked) > 0 {
		out = append(out, Bottleneck{
			Type:        "blocked_issues",
			Severity:    SeverityHigh,
			Count:       len(blocked),
			Description: fmt.Sprintf("%d issue(s) are blocked", len(blocked)),
			Items:       head(blocked),
		})
	}

	var pending []BottleneckItem
	for _, pr := range prs {
		if pr.State == "open" && len(pr.Reviewers) > 0 {
			pending = append(pending, BottleneckItem{Title: pr.Title, URL: pr.URL, RequestedReviewers: pr.Reviewers})
		}
	}
	if len(pending) > 0 {
		out = append(out, Bottleneck{
			Type:        "review_pending_prs",
			Severity:    SeverityMedium,
			Count:       len(pending),
			Description: fmt.Sprintf("%d pull request(s) waiting for review", len(pending)),
			Items:       head(pending),
		})
	}
	return out
}

func head(items []BottleneckItem) []BottleneckItem {
	if len(items) > bottleneckShow {
		return items[:bottleneckShow]
	}
	return items
}

// Track fetches issues and pull requests concurrently and builds the full
// dashboard, including the quality summary from contextDir.
func Track(ctx context.Context, client gh.Client, repository, contextDir string, now time.Time) (*Dashboard, error) {
	var (
		wg             sync.WaitGroup
		issues         []gh.Issue
		prs            []gh.PullRequest
		issErr, prsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		issues, issErr = client.Issues(ctx, gh.IssueQuery{})
	}()
	go func() {
		defer wg.Done()
		prs, prsErr = client.PullRequests(ctx)
	}()
	wg.Wait()
	if issErr != nil {
		return nil, issErr
	}
	if prsErr != nil {
		return nil, prsErr
	}

	d := Analyze(issues, prs, repository, now)
	summary, err := aicontext.LoadSummary(contextDir)
	if err != nil {
		return nil, err
	}
	d.QualityMetrics = summary
	return d, nil
}
