package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/aiflow/internal/backup"
	"github.com/jorge-barreto/aiflow/internal/config"
	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/gh"
	"github.com/jorge-barreto/aiflow/internal/git"
	"github.com/jorge-barreto/aiflow/internal/health"
	"github.com/jorge-barreto/aiflow/internal/migrate"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/prompt"
	"github.com/jorge-barreto/aiflow/internal/runner"
	"github.com/jorge-barreto/aiflow/internal/scaffold"
	"github.com/jorge-barreto/aiflow/internal/stage"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/templates"
	"github.com/jorge-barreto/aiflow/internal/ux"
	"github.com/jorge-barreto/aiflow/internal/validate"
)

const (
	healthJSONReport     = "migration-health-report.json"
	healthMarkdownReport = "migration-health-report.md"
)

func templateVars(root string) map[string]string {
	return templates.DefaultVars(scaffold.ProjectName(root), time.Now())
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Install the workflow templates into an existing project",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "analyze-only", Usage: "Print the analysis and plan, change nothing"},
			&cli.BoolFlag{Name: "force", Usage: "Skip confirmations, keep conflicting files, abort on the first failure"},
			&cli.StringFlag{Name: "phase", Usage: "Target phase instead of the estimated one"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}
			var override phase.Phase
			if s := cmd.String("phase"); s != "" {
				if override, err = phase.Parse(s); err != nil {
					return err
				}
			}
			vars := templateVars(root)

			ux.Banner("AI workflow migration")
			a, err := migrate.Analyze(root, override, vars)
			if err != nil {
				return err
			}
			plan := migrate.NewPlan(a)
			migrate.PrintAnalysis(os.Stdout, a, plan)
			if cmd.Bool("analyze-only") {
				return nil
			}

			force := cmd.Bool("force")
			p := newPrompter(false)
			defer p.Stop()
			if !force {
				ok, err := p.Confirm(ctx, "Run the migration?", false)
				if err != nil {
					return err
				}
				if !ok {
					ux.Info("migration cancelled")
					return nil
				}
			}

			m, err := migrate.Execute(ctx, a, plan, migrate.Options{
				Force:    force,
				Prompter: p,
				Vars:     vars,
			})
			if m != nil {
				ux.RenderMigration(os.Stdout, m)
			}
			if err != nil {
				return err
			}
			if m.Status == state.StatusCompleted {
				migrate.PrintNextSteps(os.Stdout)
				return nil
			}
			ux.ResumeHint(stage.ResumeCommand)
			return failed()
		},
	}
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:  "rollback",
		Usage: "Restore the project from a migration backup",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "list-backups", Usage: "List the available backups"},
			&cli.StringFlag{Name: "backup-dir", Usage: "Backup to restore (default: choose)"},
			&cli.StringFlag{Name: "partial", Usage: "Restore only these components: docs,github,scripts,workflows,package"},
			&cli.BoolFlag{Name: "force", Usage: "Skip the confirmation"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}

			if cmd.Bool("list-backups") {
				backups, err := backup.List(root)
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					ux.Info("no backups found")
					return nil
				}
				backup.PrintList(os.Stdout, backups)
				fmt.Printf("\n%d backups, %s total\n", len(backups), backup.TotalSize(backups))
				return nil
			}

			if !git.IsRepo(root) {
				ux.Fail("%s is not a git repository", root)
				return failed()
			}

			p := newPrompter(false)
			defer p.Stop()

			b, err := chooseBackup(ctx, p, root, cmd.String("backup-dir"))
			if errors.Is(err, backup.ErrNoBackups) {
				ux.Fail("no backup to restore from")
				return failed()
			}
			if err != nil {
				return err
			}

			paths := templates.ManagedFiles()
			restorePackage := true
			if s := cmd.String("partial"); s != "" {
				components := prompt.SplitList(s)
				if paths, err = backup.Filter(paths, components); err != nil {
					return err
				}
				restorePackage = slices.Contains(components, "package")
			}

			ux.Info("rolling back from %s (%s)", b.Name, b.Created.Format(time.DateTime))
			if !cmd.Bool("force") {
				ok, err := p.Confirm(ctx, fmt.Sprintf("Restore %d managed paths from %s?", len(paths), b.Name), false)
				if err != nil {
					return err
				}
				if !ok {
					ux.Info("rollback cancelled")
					return nil
				}
			}

			rep := backup.Restore(root, b, paths)
			for _, f := range rep.Restored {
				ux.Success("restored %s", f)
			}
			for _, f := range rep.Removed {
				ux.Detail("removed %s", f)
			}
			for _, f := range rep.Failures {
				ux.Warn("%s: %v", f.Path, f.Err)
			}
			if restorePackage {
				restored, err := backup.RestorePackageJSON(root, b)
				switch {
				case err != nil:
					ux.Warn("package.json: %v", err)
				case restored:
					ux.Success("restored package.json")
				}
			}

			if err := backup.Commit(ctx, root, b); err != nil {
				ux.Warn("commit skipped: %v", err)
			} else {
				ux.Success("committed: %s", backup.CommitMessage(b))
			}
			if len(rep.Failures) > 0 {
				ux.Warn("%d paths could not be restored", len(rep.Failures))
			}
			return nil
		},
	}
}

// chooseBackup resolves name, or picks the only backup, or asks.
func chooseBackup(ctx context.Context, p *prompt.Prompter, root, name string) (*backup.Backup, error) {
	if name != "" {
		return backup.Find(root, name)
	}
	backups, err := backup.List(root)
	if err != nil {
		return nil, err
	}
	switch len(backups) {
	case 0:
		return nil, backup.ErrNoBackups
	case 1:
		return backups[0], nil
	}
	options := make([]string, len(backups))
	for i, b := range backups {
		options[i] = fmt.Sprintf("%s (%s)", b.Name, b.Created.Format(time.DateTime))
	}
	i, err := p.Select(ctx, "Which backup?", options, 0)
	if err != nil {
		return nil, err
	}
	return backups[i], nil
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check the project is ready for migration",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "fix-auto", Usage: "Apply the automatic fixes"},
			&cli.StringFlag{Name: "export", Value: "console", Usage: "console, json or md"},
			&cli.BoolFlag{Name: "detailed", Usage: "Show rule details"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}
			format := cmd.String("export")
			if format != "console" && format != "json" && format != "md" {
				return fmt.Errorf("unknown export format %q (want json, md or console)", format)
			}

			ux.Banner("Pre-migration validation")
			r := validate.Run(ctx, root, validate.Rules(), time.Now())
			for i, d := range r.Details {
				validate.PrintResult(os.Stdout, i, len(r.Details), d, cmd.Bool("detailed"))
			}

			if cmd.Bool("fix-auto") && r.Summary.AutoFixable > 0 {
				ux.Section("Automatic fixes")
				for _, o := range validate.Fix(root, r.Details) {
					if o.Err != nil {
						ux.Fail("%s: %v", o.RuleID, o.Err)
						continue
					}
					ux.Success("%s: %s", o.RuleID, o.Action)
				}
				r = validate.Run(ctx, root, validate.Rules(), time.Now())
			}

			validate.PrintConsole(os.Stdout, r)
			if format != "console" {
				path, err := validate.Export(root, r, format)
				if err != nil {
					return err
				}
				ux.Info("report written to %s", path)
			}
			if r.CriticalFailures() > 0 {
				return failed()
			}
			return nil
		},
	}
}

func healthCmd() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the project after migration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "report", Value: "console", Usage: "console, json or md"},
			&cli.BoolFlag{Name: "detailed", Usage: "Show every item"},
			&cli.BoolFlag{Name: "fix-issues", Usage: "Re-install missing template files"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			format := cmd.String("report")
			if format != "console" && format != "json" && format != "md" {
				return fmt.Errorf("unknown report format %q (want console, json or md)", format)
			}

			env := &health.Env{Root: root, Now: time.Now()}
			if c := optionalGitHub(cfg); c != nil {
				env.GitHub = c
			}

			ux.Banner("Post-migration health check")
			r := health.Run(ctx, env, health.Checks())
			for _, res := range r.Checks {
				health.PrintResult(os.Stdout, res, cmd.Bool("detailed"))
			}

			if cmd.Bool("fix-issues") {
				res, err := health.Fix(ctx, r, &dispatch.Environment{
					ProjectRoot: root,
					Vars:        templateVars(root),
					Out:         os.Stdout,
				})
				if err != nil {
					ux.Fail("fix: %v", err)
				} else if len(res.Written) == 0 {
					ux.Info("nothing to fix")
				} else {
					for _, f := range res.Written {
						ux.Success("re-installed %s", f)
					}
					r = health.Run(ctx, env, health.Checks())
				}
			}

			health.PrintConsole(os.Stdout, r)
			if err := writeHealthReport(root, r, format); err != nil {
				return err
			}
			if !r.Healthy() {
				return failed()
			}
			return nil
		},
	}
}

// optionalGitHub returns a client when a token and repository are
// configured, nil otherwise.
func optionalGitHub(cfg *config.Config) *gh.REST {
	c, _, err := githubClient(cfg, "", "")
	if err != nil {
		return nil
	}
	return c
}

func writeHealthReport(root string, r *health.Report, format string) error {
	var path string
	var data []byte
	switch format {
	case "json":
		path = filepath.Join(root, healthJSONReport)
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		data = append(b, '\n')
	case "md":
		path = filepath.Join(root, healthMarkdownReport)
		data = []byte(health.Markdown(r))
	default:
		return nil
	}
	if err := state.WriteFileAtomic(path, data, 0644); err != nil {
		return err
	}
	ux.Info("report written to %s", path)
	return nil
}

func stageCmd() *cli.Command {
	return &cli.Command{
		Name:  "stage",
		Usage: "Run a migration in resumable stages",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show the staged migration checklist",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					root, err := projectRoot(cmd)
					if err != nil {
						return err
					}
					m, err := state.Load(root)
					if errors.Is(err, state.ErrNoMigration) {
						ux.Info("no staged migration; start one with 'aiflow stage schedule <phase>'")
						return nil
					}
					if err != nil {
						return err
					}
					ux.RenderMigration(os.Stdout, m)
					return nil
				},
			},
			{
				Name:      "schedule",
				Usage:     "Plan the steps from discovery through a phase",
				ArgsUsage: "<phase>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "start", Usage: "Start immediately without asking"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					root, err := projectRoot(cmd)
					if err != nil {
						return err
					}
					target, err := phase.Parse(cmd.Args().First())
					if err != nil {
						return err
					}
					m, err := stage.Schedule(root, target, time.Now())
					if errors.Is(err, stage.ErrTransition) {
						ux.Warn("%v", err)
						return nil
					}
					if err != nil {
						return err
					}
					ux.Success("scheduled %d steps up to %s", len(m.PlannedSteps), target.Title())
					ux.RenderMigration(os.Stdout, m)

					p := newPrompter(false)
					defer p.Stop()
					start := cmd.Bool("start")
					if !start {
						if start, err = p.Confirm(ctx, "Start now?", false); err != nil {
							return err
						}
					}
					if !start {
						ux.Info("run '%s' when ready", stage.ResumeCommand)
						return nil
					}
					return resume(ctx, root, p, false)
				},
			},
			{
				Name:  "resume",
				Usage: "Run the remaining steps",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Keep conflicting files and abort on the first failure"},
					&cli.BoolFlag{Name: "dry-run", Usage: "List the steps and their files without running them"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					root, err := projectRoot(cmd)
					if err != nil {
						return err
					}
					if cmd.Bool("dry-run") {
						m, err := state.Load(root)
						if err != nil {
							return err
						}
						(&runner.Runner{Migration: m}).DryRunPrint()
						return nil
					}
					p := newPrompter(false)
					defer p.Stop()
					return resume(ctx, root, p, cmd.Bool("force"))
				},
			},
			{
				Name:  "pause",
				Usage: "Pause an in-progress migration",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					root, err := projectRoot(cmd)
					if err != nil {
						return err
					}
					m, err := stage.Pause(root, time.Now())
					switch {
					case errors.Is(err, state.ErrNoMigration):
						ux.Warn("no staged migration to pause")
						return nil
					case errors.Is(err, stage.ErrTransition):
						ux.Warn("%v", err)
						return nil
					case err != nil:
						return err
					}
					ux.Success("paused at %s", ux.Percent(m.Progress()))
					return nil
				},
			},
			{
				Name:  "reset",
				Usage: "Delete the staged migration plan",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					root, err := projectRoot(cmd)
					if err != nil {
						return err
					}
					p := newPrompter(cmd.Bool("yes"))
					defer p.Stop()
					ok, err := p.Confirm(ctx, "Delete the migration state?", true)
					if err != nil {
						return err
					}
					if !ok {
						return nil
					}
					removed, err := stage.Reset(root)
					if err != nil {
						return err
					}
					if !removed {
						ux.Info("nothing to reset")
						return nil
					}
					ux.Success("migration state removed")
					return nil
				},
			},
		},
	}
}

func resume(ctx context.Context, root string, p *prompt.Prompter, force bool) error {
	m, err := stage.Resume(ctx, root, stage.Options{
		Force:    force,
		Prompter: p,
		Vars:     templateVars(root),
		Out:      os.Stdout,
	})
	switch {
	case errors.Is(err, state.ErrNoMigration):
		ux.Warn("no staged migration; start one with 'aiflow stage schedule <phase>'")
		return nil
	case errors.Is(err, stage.ErrTransition):
		ux.Warn("%v", err)
		return nil
	}
	if m != nil {
		ux.RenderMigration(os.Stdout, m)
	}
	if err != nil {
		return err
	}
	if m.Status != state.StatusCompleted {
		ux.ResumeHint(stage.ResumeCommand)
		return failed()
	}
	return nil
}
