package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/aiflow/internal/aicontext"
	"github.com/jorge-barreto/aiflow/internal/history"
	"github.com/jorge-barreto/aiflow/internal/metrics"
	"github.com/jorge-barreto/aiflow/internal/notify"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/progress"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

func tokenFlag() cli.Flag {
	return &cli.StringFlag{Name: "token", Usage: "GitHub token (default: $GITHUB_TOKEN or github.token-env)"}
}

func repositoryFlag() cli.Flag {
	return &cli.StringFlag{Name: "repository", Usage: "owner/repo (default: config or $GITHUB_REPOSITORY)"}
}

func metricsCmd() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Collect workflow metrics from GitHub and write a Markdown report",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Value: metrics.DefaultDays, Usage: "Collection window in days"},
			repositoryFlag(),
			tokenFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			days := int(cmd.Int("days"))
			if days <= 0 {
				return fmt.Errorf("--days must be positive, got %d", days)
			}
			client, repo, err := githubClient(cfg, cmd.String("token"), cmd.String("repository"))
			if err != nil {
				return err
			}

			ux.Banner(fmt.Sprintf("Workflow metrics: %s, last %d days", repo, days))
			c := &metrics.Collector{Client: client, ContextDir: cfg.ContextDir(root)}
			r := c.Collect(ctx, time.Duration(days)*24*time.Hour, time.Now())
			metrics.PrintSummary(os.Stdout, r)

			path, err := metrics.Save(root, r)
			if err != nil {
				return err
			}
			ux.Success("report written to %s", path)
			return nil
		},
	}
}

func progressCmd() *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Build the phase progress dashboard from GitHub issues",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Value: progress.FormatConsole, Usage: strings.Join(progress.Formats, ", ")},
			repositoryFlag(),
			tokenFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			format := cmd.String("output")
			if !slices.Contains(progress.Formats, format) {
				return fmt.Errorf("unknown output format %q (valid: %s)", format, strings.Join(progress.Formats, ", "))
			}
			client, repo, err := githubClient(cfg, cmd.String("token"), cmd.String("repository"))
			if err != nil {
				return err
			}

			dir := cfg.ContextDir(root)
			now := time.Now()
			d, err := progress.Track(ctx, client, repo, dir, now)
			if err != nil {
				return err
			}
			if err := progress.Write(os.Stdout, d, format); err != nil {
				return err
			}

			dash, hist, err := progress.Save(dir, d, now)
			if err != nil {
				return err
			}
			recordHistory(root, cfg, func(s *history.Store) error {
				return s.RecordProgress(ctx, &history.ProgressSnapshot{
					Repository:      repo,
					CompletionRate:  d.OverallProgress.CompletionRate,
					BlockRate:       d.OverallProgress.BlockRate,
					OpenBottlenecks: d.OpenBottlenecks(),
				})
			})
			// Machine-readable output stays clean on stdout.
			if format == progress.FormatConsole {
				ux.Success("dashboard saved to %s (history: %s)", dash, hist)
			}
			return nil
		},
	}
}

func notifyCmd() *cli.Command {
	return &cli.Command{
		Name:  "notify",
		Usage: "Post a phase-completion message to Slack and Teams",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "phase", Required: true, Usage: "Completed phase"},
			&cli.StringFlag{Name: "webhook-url", Usage: "Slack incoming webhook"},
			&cli.StringFlag{Name: "teams-webhook", Usage: "Teams incoming webhook"},
			&cli.StringFlag{Name: "issue-url", Usage: "Link to the phase issue"},
			&cli.StringFlag{Name: "quality-score", Usage: "Context quality score, 0-100"},
			repositoryFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			ph, err := phase.Parse(cmd.String("phase"))
			if err != nil {
				return err
			}
			score, err := notify.ParseScore(cmd.String("quality-score"))
			if err != nil {
				return err
			}

			t := notify.Targets{
				Slack: cfg.Notifications.SlackWebhook,
				Teams: cfg.Notifications.TeamsWebhook,
			}
			if s := cmd.String("webhook-url"); s != "" {
				t.Slack = s
			}
			if s := cmd.String("teams-webhook"); s != "" {
				t.Teams = s
			}
			if t.Slack == "" && t.Teams == "" {
				return fmt.Errorf("no webhook configured: pass --webhook-url or --teams-webhook, or set SLACK_WEBHOOK_URL / TEAMS_WEBHOOK_URL")
			}
			repo := cmd.String("repository")
			if repo == "" {
				repo = cfg.Repository()
			}

			dir := cfg.ContextDir(root)
			var doc *aicontext.Document
			if ph.IsBridge() {
				if doc, err = aicontext.Load(aicontext.Path(dir, ph)); err != nil {
					ux.Warn("context document not loaded: %v", err)
					doc = nil
				}
			}
			dash, err := progress.Load(dir)
			if err != nil {
				ux.Warn("progress dashboard not loaded: %v", err)
				dash = nil
			}

			m := notify.Build(string(ph), repo, cmd.String("issue-url"), score, doc, dash)
			sent, err := notify.Send(ctx, t, m)
			for _, name := range sent {
				ux.Success("sent to %s", name)
			}
			if err != nil {
				ux.Fail("%v", err)
				return failed()
			}
			return nil
		},
	}
}
