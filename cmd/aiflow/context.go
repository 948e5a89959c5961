package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/aiflow/internal/aicontext"
	"github.com/jorge-barreto/aiflow/internal/history"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/snapshot"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

func contextCmd() *cli.Command {
	return &cli.Command{
		Name:  "context",
		Usage: "Record, score and hand off AI context between phases",
		Commands: []*cli.Command{
			contextCompleteCmd(),
			contextStartCmd(),
			contextCheckCmd(),
			contextMetricsCmd(),
			contextExtractCmd(),
			contextQualityCmd(),
			contextNextCmd(),
		},
	}
}

// bridgeArg parses a phase and requires it to be a bridge phase.
func bridgeArg(s string) (phase.Phase, error) {
	ph, err := phase.Parse(s)
	if err != nil {
		return "", err
	}
	if !ph.IsBridge() {
		return "", fmt.Errorf("%s has no context document (bridge phases: requirements to testing)", ph)
	}
	return ph, nil
}

func contextCompleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "Interview and write the context document for a finished phase",
		ArgsUsage: "[phase]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			dir := cfg.ContextDir(root)
			p := newPrompter(false)
			defer p.Stop()

			var ph phase.Phase
			if s := cmd.Args().First(); s != "" {
				if ph, err = bridgeArg(s); err != nil {
					return err
				}
			} else {
				options := make([]string, len(phase.Bridge))
				for i, b := range phase.Bridge {
					options[i] = fmt.Sprintf("%s %s", b.Emoji(), b.Title())
				}
				i, err := p.Select(ctx, "Which phase did you finish?", options, 0)
				if err != nil {
					return err
				}
				ph = phase.Bridge[i]
			}

			ux.Banner(fmt.Sprintf("%s %s phase: context", ph.Emoji(), ph.Title()))
			doc, err := aicontext.Interview(ctx, p, ph, time.Now())
			if err != nil {
				return err
			}
			path, err := aicontext.Complete(dir, doc)
			if err != nil {
				return err
			}
			ux.Success("wrote %s", path)

			next, ok := aicontext.NextBridge(ph)
			if !ok {
				return nil
			}
			gen, err := p.Confirm(ctx, fmt.Sprintf("Write the handoff prompt for %s now?", next.Title()), true)
			if err != nil || !gen {
				return err
			}
			prompt, err := aicontext.Start(dir, next)
			if err != nil {
				return err
			}
			ux.Success("wrote %s", prompt)
			return nil
		},
	}
}

func contextStartCmd() *cli.Command {
	return &cli.Command{
		Name:      "start",
		Usage:     "Write the handoff prompt that starts a phase",
		ArgsUsage: "<phase>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "with-project", Usage: "Append the project layout, key documents and recent commits"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			ph, err := bridgeArg(cmd.Args().First())
			if err != nil {
				return err
			}
			path, err := aicontext.Start(cfg.ContextDir(root), ph)
			if err != nil {
				return err
			}
			if cmd.Bool("with-project") {
				if err := snapshot.Append(ctx, path, root); err != nil {
					return err
				}
			}
			ux.Success("wrote %s", path)
			ux.Info("paste it into your AI assistant to start the %s phase", ph.Title())
			return nil
		},
	}
}

func contextCheckCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "List context files and walk the handoff checklist",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			p := newPrompter(false)
			defer p.Stop()
			_, err = aicontext.Check(ctx, cfg.ContextDir(root), p, os.Stdout)
			return err
		},
	}
}

func contextMetricsCmd() *cli.Command {
	return &cli.Command{
		Name:  "metrics",
		Usage: "Context coverage and quality per phase",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			m, err := aicontext.Metrics(cfg.ContextDir(root))
			if err != nil {
				return err
			}
			m.Print(os.Stdout)
			return nil
		},
	}
}

func contextExtractCmd() *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Build a context document from a closed issue",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "phase", Required: true, Usage: "Phase the issue closed"},
			&cli.IntFlag{Name: "issue-number", Usage: "Issue number"},
			&cli.StringFlag{Name: "issue-title", Usage: "Issue title"},
			&cli.StringFlag{Name: "issue-body", Usage: "Issue body in Markdown, or - for stdin"},
			&cli.StringFlag{Name: "repository", Sources: cli.EnvVars("GITHUB_REPOSITORY"), Usage: "owner/repo"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			ph, err := bridgeArg(cmd.String("phase"))
			if err != nil {
				return err
			}
			body := cmd.String("issue-body")
			if body == "-" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading issue body: %w", err)
				}
				body = string(data)
			}

			doc := aicontext.Extract(ph, aicontext.Issue{
				Number:     int(cmd.Int("issue-number")),
				Title:      cmd.String("issue-title"),
				Body:       body,
				Repository: cmd.String("repository"),
			}, time.Now())
			path, next, err := aicontext.SaveExtraction(root, cfg.ContextDir(root), doc)
			if err != nil {
				if inActions() {
					aicontext.SetOutput(os.Stdout, "success", false)
				}
				return err
			}

			ux.Success("wrote %s", path)
			ux.Detail("%d decisions, %d constraints, %d patterns, %d focus items",
				len(doc.KeyDecisions), len(doc.CriticalConstraints), len(doc.LearnedPatterns), len(doc.NextPhaseFocus))
			if next != "" {
				ux.Info("next phase: %s", next.Title())
			}
			if inActions() {
				if next != "" {
					aicontext.SetOutput(os.Stdout, "next-phase-needed", true)
					aicontext.SetOutput(os.Stdout, "next-phase", next)
				}
				aicontext.SetOutput(os.Stdout, "success", true)
			}
			return nil
		},
	}
}

func contextQualityCmd() *cli.Command {
	return &cli.Command{
		Name:  "quality",
		Usage: "Score a context document out of 100",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "phase", Required: true, Usage: "Phase of the document"},
			&cli.StringFlag{Name: "context-file", Usage: "Document to score (default: the phase's context file)"},
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
			dir := cfg.ContextDir(root)
			file := cmd.String("context-file")
			if file == "" {
				file = aicontext.Path(dir, ph)
			}

			now := time.Now()
			r, err := aicontext.Evaluate(file, ph, now)
			if err != nil {
				return err
			}
			printQuality(os.Stdout, r)

			path, err := aicontext.SaveReport(dir, r, now)
			if err != nil {
				return err
			}
			if _, err := aicontext.UpdateSummary(dir, r); err != nil {
				return err
			}
			ux.Info("report written to %s", path)

			recordHistory(root, cfg, func(s *history.Store) error {
				return s.RecordQuality(ctx, &history.QualityEvaluation{
					Phase: r.Phase,
					Score: r.OverallScore,
					Grade: r.QualityGrade,
				})
			})

			if inActions() {
				aicontext.SetOutput(os.Stdout, "quality-score", r.OverallScore)
				aicontext.SetOutput(os.Stdout, "quality-grade", r.QualityGrade)
				aicontext.SetOutput(os.Stdout, "needs-improvement", r.NeedsWork())
			}
			return nil
		},
	}
}

func printQuality(w io.Writer, r *aicontext.Report) {
	s := r.DetailedScores
	score := float64(r.OverallScore)
	fmt.Fprintf(w, "\n%s📊 Context quality: %s%d/100 (%s)%s\n", ux.Bold, ux.ScoreColor(score), r.OverallScore, r.QualityGrade, ux.Reset)
	fmt.Fprintf(w, "  key decisions        %2d/25\n", s.KeyDecisions)
	fmt.Fprintf(w, "  constraints          %2d/20\n", s.Constraints)
	fmt.Fprintf(w, "  learned patterns     %2d/20\n", s.LearnedPatterns)
	fmt.Fprintf(w, "  technical artifacts  %2d/15\n", s.TechnicalArtifacts)
	fmt.Fprintf(w, "  next phase focus     %2d/20\n", s.NextPhaseFocus)
	if len(r.Recommendations) > 0 {
		fmt.Fprintf(w, "\n%s💡 Recommendations%s\n", ux.Yellow, ux.Reset)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}

func contextNextCmd() *cli.Command {
	return &cli.Command{
		Name:  "next",
		Usage: "Write the kickoff document for the following phase",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "current-phase", Required: true, Usage: "Phase just finished"},
			&cli.StringFlag{Name: "repository", Sources: cli.EnvVars("GITHUB_REPOSITORY"), Usage: "owner/repo"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			current, err := bridgeArg(cmd.String("current-phase"))
			if err != nil {
				return err
			}
			repo := cmd.String("repository")
			if repo == "" {
				repo = cfg.Repository()
			}
			n, err := aicontext.GenerateNext(cfg.ContextDir(root), current, repo)
			if err != nil {
				return err
			}
			if n == nil {
				ux.Info("no next phase after %s", current.Title())
				return nil
			}
			path, err := aicontext.WriteNext(root, n)
			if err != nil {
				return err
			}
			ux.Success("wrote %s (%s %s)", path, n.Phase.Emoji(), n.Title)
			return nil
		},
	}
}
