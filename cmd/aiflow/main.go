package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/aiflow/internal/config"
	"github.com/jorge-barreto/aiflow/internal/docs"
	"github.com/jorge-barreto/aiflow/internal/gh"
	"github.com/jorge-barreto/aiflow/internal/history"
	"github.com/jorge-barreto/aiflow/internal/prompt"
	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	app := &cli.Command{
		Name:        "aiflow",
		Usage:       "AI development workflow: phase detection, template migration and context handoff",
		Description: "Run 'aiflow docs' for documentation on phases, context, migration, metrics and config.",
		Version:     Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Project root (default: nearest directory with .aiflow/config.yaml or .git)"},
		},
		Commands: []*cli.Command{
			initCmd(),
			setupCmd(),
			detectCmd(),
			migrateCmd(),
			rollbackCmd(),
			validateCmd(),
			healthCmd(),
			stageCmd(),
			contextCmd(),
			metricsCmd(),
			progressCmd(),
			notifyCmd(),
			selftestCmd(),
			historyCmd(),
			mcpCmd(),
			docsCmd(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		var exit cli.ExitCoder
		if errors.As(err, &exit) && exit.Error() == "" {
			os.Exit(exit.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}
}

// failed exits 1 without printing an error; the command has already
// reported why.
func failed() error { return cli.Exit("", 1) }

// projectRoot is --dir, or the nearest ancestor of cwd holding
// .aiflow/config.yaml or .git, or cwd itself.
func projectRoot(cmd *cli.Command) (string, error) {
	if d := cmd.String("dir"); d != "" {
		return filepath.Abs(d)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := cwd; ; {
		if _, err := os.Stat(config.Path(dir)); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// project resolves the root and its config with environment overrides.
func project(cmd *cli.Command) (string, *config.Config, error) {
	root, err := projectRoot(cmd)
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.LoadOrDefault(root)
	if err != nil {
		return "", nil, fmt.Errorf("loading config: %w", err)
	}
	return root, cfg, nil
}

func newPrompter(acceptDefaults bool) *prompt.Prompter {
	p := prompt.New(os.Stdin, os.Stdout)
	p.AcceptDefaults = acceptDefaults
	return p
}

// githubClient builds the REST client. tokenFlag and repoFlag override the
// config when set.
func githubClient(cfg *config.Config, tokenFlag, repoFlag string) (*gh.REST, string, error) {
	token := cfg.GitHub.Token
	if tokenFlag != "" {
		token = tokenFlag
	}
	if token == "" {
		return nil, "", fmt.Errorf("a GitHub token is required: set %s or pass --token", cfg.GitHub.TokenEnv)
	}
	owner, repo := cfg.GitHub.Owner, cfg.GitHub.Repo
	if repoFlag != "" {
		var err error
		if owner, repo, err = config.ParseRepository(repoFlag); err != nil {
			return nil, "", err
		}
	}
	if owner == "" || repo == "" {
		return nil, "", fmt.Errorf("repository unknown: pass --repository owner/repo or set GITHUB_REPOSITORY")
	}
	return gh.New(token, owner, repo), owner + "/" + repo, nil
}

// recordHistory runs fn against the history store when it is enabled. A
// store failure is a warning only.
func recordHistory(root string, cfg *config.Config, fn func(*history.Store) error) {
	if !cfg.HistoryEnabled() {
		return
	}
	if err := history.With(cfg.HistoryPath(root), fn); err != nil {
		ux.Warn("history not recorded: %v", err)
	}
}

// inActions reports whether we run inside a GitHub Actions job.
func inActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic|command]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				docs.List(os.Stdout)
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}
