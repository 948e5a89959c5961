// Package gh wraps the GitHub REST API calls the metrics, progress and
// health commands make. Results are flattened into plain structs so the
// analysis code never touches go-github pointer fields.
package gh

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// PerPage is the page size for every list call.
const PerPage = 100

type Issue struct {
	Number    int
	Title     string
	State     string
	URL       string
	Labels    []string
	CreatedAt time.Time
	ClosedAt  time.Time
}

// HasLabel reports whether any label contains sub.
func (i Issue) HasLabel(sub string) bool {
	for _, l := range i.Labels {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

type PullRequest struct {
	Number    int
	Title     string
	State     string
	URL       string
	CreatedAt time.Time
	MergedAt  time.Time
	Reviewers []string
}

// Merged reports whether the pull request was merged.
func (p PullRequest) Merged() bool { return !p.MergedAt.IsZero() }

// PullDetail carries the per-PR numbers only the single-PR endpoints return.
type PullDetail struct {
	Additions int
	Deletions int
	Commits   int
	Reviews   int
}

type Commit struct {
	SHA     string
	Message string
	Date    time.Time
}

// IssueQuery filters Issues. Zero values mean no filter.
type IssueQuery struct {
	Since  time.Time
	Labels []string
}

// Client is the subset of the GitHub API aiflow uses.
type Client interface {
	Issues(ctx context.Context, q IssueQuery) ([]Issue, error)
	PullRequests(ctx context.Context) ([]PullRequest, error)
	PullDetail(ctx context.Context, number int) (PullDetail, error)
	Commits(ctx context.Context, since time.Time) ([]Commit, error)
}

// REST is a Client backed by go-github.
type REST struct {
	api   *github.Client
	Owner string
	Repo  string
}

// New returns a REST client for owner/repo. An empty token makes
// unauthenticated requests.
func New(token, owner, repo string) *REST {
	api := github.NewClient(nil)
	if token != "" {
		api = api.WithAuthToken(token)
	}
	return &REST{api: api, Owner: owner, Repo: repo}
}

// SetBaseURL points the client at another API root, e.g. GitHub Enterprise
// or a test server.
func (c *REST) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("github base url: %w", err)
	}
	c.api.BaseURL = u
	return nil
}

// Issues lists issues in every state, following pagination. Pull requests
// the issues endpoint returns are dropped.
func (c *REST) Issues(ctx context.Context, q IssueQuery) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		Since:       q.Since,
		Labels:      q.Labels,
		ListOptions: github.ListOptions{PerPage: PerPage},
	}
	var out []Issue
	for {
		page, resp, err := c.api.Issues.ListByRepo(ctx, c.Owner, c.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing issues: %w", err)
		}
		for _, is := range page {
			if is.IsPullRequest() {
				continue
			}
			out = append(out, convertIssue(is))
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

func convertIssue(is *github.Issue) Issue {
	i := Issue{
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		State:     is.GetState(),
		URL:       is.GetHTMLURL(),
		CreatedAt: is.GetCreatedAt().Time,
		ClosedAt:  is.GetClosedAt().Time,
	}
	for _, l := range is.Labels {
		i.Labels = append(i.Labels, l.GetName())
	}
	return i
}

// PullRequests lists pull requests in every state, following pagination.
func (c *REST) PullRequests(ctx context.Context) ([]PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: PerPage},
	}
	var out []PullRequest
	for {
		page, resp, err := c.api.PullRequests.List(ctx, c.Owner, c.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests: %w", err)
		}
		for _, pr := range page {
			p := PullRequest{
				Number:    pr.GetNumber(),
				Title:     pr.GetTitle(),
				State:     pr.GetState(),
				URL:       pr.GetHTMLURL(),
				CreatedAt: pr.GetCreatedAt().Time,
				MergedAt:  pr.GetMergedAt().Time,
			}
			for _, u := range pr.RequestedReviewers {
				p.Reviewers = append(p.Reviewers, u.GetLogin())
			}
			out = append(out, p)
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// PullDetail fetches line, commit and review counts for one pull request.
func (c *REST) PullDetail(ctx context.Context, number int) (PullDetail, error) {
	pr, _, err := c.api.PullRequests.Get(ctx, c.Owner, c.Repo, number)
	if err != nil {
		return PullDetail{}, fmt.Errorf("pull request #%d: %w", number, err)
	}
	d := PullDetail{
		Additions: pr.GetAdditions(),
		Deletions: pr.GetDeletions(),
		Commits:   pr.GetCommits(),
	}
	opts := &github.ListOptions{PerPage: PerPage}
	for {
		reviews, resp, err := c.api.PullRequests.ListReviews(ctx, c.Owner, c.Repo, number, opts)
		if err != nil {
			return PullDetail{}, fmt.Errorf("reviews of #%d: %w", number, err)
		}
		d.Reviews += len(reviews)
		if resp.NextPage == 0 {
			return d, nil
		}
		opts.Page = resp.NextPage
	}
}

// Commits lists the first page of commits on the default branch since the
// given time.
func (c *REST) Commits(ctx context.Context, since time.Time) ([]Commit, error) {
	opts := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: PerPage},
	}
	page, _, err := c.api.Repositories.ListCommits(ctx, c.Owner, c.Repo, opts)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	out := make([]Commit, 0, len(page))
	for _, rc := range page {
		out = append(out, Commit{
			SHA:     rc.GetSHA(),
			Message: rc.GetCommit().GetMessage(),
			Date:    rc.GetCommit().GetAuthor().GetDate().Time,
		})
	}
	return out, nil
}
