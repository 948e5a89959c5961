package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/aiflow/internal/detect"
	"github.com/jorge-barreto/aiflow/internal/history"
	"github.com/jorge-barreto/aiflow/internal/mcpserver"
	"github.com/jorge-barreto/aiflow/internal/scaffold"
	"github.com/jorge-barreto/aiflow/internal/selftest"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Create the workflow directory layout and .aiflow/config.yaml",
		ArgsUsage: "[directory]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				var err error
				if dir, err = os.Getwd(); err != nil {
					return err
				}
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
			return scaffold.Init(dir, os.Stdout)
		},
	}
}

func setupCmd() *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Describe the project and write the core documents",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Accept every default"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, err := projectRoot(cmd)
			if err != nil {
				return err
			}
			p := newPrompter(cmd.Bool("yes"))
			defer p.Stop()

			ux.Banner("Project setup")
			a, err := scaffold.Ask(ctx, p, scaffold.DefaultAnswers(scaffold.ProjectName(root)))
			if err != nil {
				return err
			}
			res, err := scaffold.Setup(ctx, root, a, time.Now())
			if err != nil {
				return err
			}
			for _, f := range res.Written {
				ux.Success("wrote %s", f)
			}
			if res.PackageUpdated {
				ux.Success("updated package.json")
			}
			ux.Info("Next: run 'aiflow migrate' to install the workflow templates")
			return nil
		},
	}
}

func detectCmd() *cli.Command {
	return &cli.Command{
		Name:  "detect",
		Usage: "Estimate which workflow phase the project is in",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "detailed", Usage: "Show every indicator"},
			&cli.BoolFlag{Name: "json", Usage: "Print the result as JSON"},
			&cli.FloatFlag{Name: "confidence-threshold", Usage: "Confidence needed for a targeted recommendation (0-1)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			threshold := cfg.Detection.ConfidenceThreshold
			if cmd.IsSet("confidence-threshold") {
				threshold = cmd.Float("confidence-threshold")
			}
			if threshold < 0 || threshold > 1 {
				return fmt.Errorf("--confidence-threshold must be between 0 and 1, got %v", threshold)
			}

			res, err := detect.Detect(ctx, root, threshold)
			if err != nil {
				return err
			}
			rec := res.Recommendation
			recordHistory(root, cfg, func(s *history.Store) error {
				return s.RecordDetection(ctx, &history.Detection{
					Phase:      string(rec.Phase),
					Score:      rec.Score,
					Confidence: rec.Confidence,
					Certainty:  rec.Certainty,
				})
			})

			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			detect.Print(os.Stdout, res, cmd.Bool("detailed"))
			return nil
		},
	}
}

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded detections, quality evaluations and progress snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Usage: "detections, quality or progress (default: all)"},
			&cli.IntFlag{Name: "limit", Value: history.DefaultLimit, Usage: "Rows per kind"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			if !cfg.HistoryEnabled() {
				ux.Warn("history is disabled (history.enabled: false)")
				return nil
			}
			return history.With(cfg.HistoryPath(root), func(s *history.Store) error {
				return s.Print(ctx, os.Stdout, cmd.String("kind"), int(cmd.Int("limit")))
			})
		},
	}
}

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the Model Context Protocol on stdio for AI assistants",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root, cfg, err := project(cmd)
			if err != nil {
				return err
			}
			mcpserver.Version = Version
			return mcpserver.Serve(mcpserver.Project{
				Root:       root,
				ContextDir: cfg.ContextDir(root),
				Threshold:  cfg.Detection.ConfidenceThreshold,
			})
		},
	}
}

func selftestCmd() *cli.Command {
	return &cli.Command{
		Name:  "selftest",
		Usage: "Run the migration commands against a throwaway mock project",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "full-migration", Usage: "Also run a forced migration to poc and a health check"},
			&cli.BoolFlag{Name: "keep", Usage: "Keep the mock project afterwards"},
			&cli.BoolFlag{Name: "verbose", Usage: "Show every case as it runs"},
			&cli.StringFlag{Name: "test-env", Usage: "Parent directory for the mock project (default: system temp)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ux.Banner("aiflow self-test")
			r, err := selftest.Run(ctx, os.Stdout, selftest.Options{
				Verbose:       cmd.Bool("verbose"),
				Keep:          cmd.Bool("keep"),
				FullMigration: cmd.Bool("full-migration"),
				Dir:           cmd.String("test-env"),
			})
			if err != nil {
				return err
			}
			if !r.OK() {
				return failed()
			}
			return nil
		},
	}
}
