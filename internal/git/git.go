// Package git shells out to the git binary for repository facts.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotRepo is returned when dir is not inside a git work tree.
var ErrNotRepo = errors.New("not a git repository")

// Available reports whether git is on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Run executes git with args in dir and returns trimmed stdout.
func Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		code, runErr := exitCode(err)
		if runErr != nil {
			return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), runErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "not a git repository") {
			return "", ErrNotRepo
		}
		return "", fmt.Errorf("git %s: exit %d: %s", strings.Join(args, " "), code, msg)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir has a .git entry.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func Version(ctx context.Context) (string, error) {
	return Run(ctx, "", "--version")
}

// StatusPorcelain returns `git status --porcelain` output.
func StatusPorcelain(ctx context.Context, dir string) (string, error) {
	return Run(ctx, dir, "status", "--porcelain")
}

// CommitCount counts commits reachable from any ref.
func CommitCount(ctx context.Context, dir string) (int, error) {
	out, err := Run(ctx, dir, "rev-list", "--all", "--count")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// CommitsSince counts commits on HEAD newer than since.
func CommitsSince(ctx context.Context, dir string, since time.Time) (int, error) {
	out, err := Run(ctx, dir, "rev-list", "--count", "--since="+since.Format(time.RFC3339), "HEAD")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// RecentLog returns up to n one-line commit summaries, newest first.
func RecentLog(ctx context.Context, dir string, n int) ([]string, error) {
	out, err := Run(ctx, dir, "log", "--oneline", fmt.Sprintf("-%d", n))
	if err != nil {
		return nil, err
	}
	return lines(out), nil
}

// Tags lists tags in git's default order.
func Tags(ctx context.Context, dir string) ([]string, error) {
	out, err := Run(ctx, dir, "tag")
	if err != nil {
		return nil, err
	}
	return lines(out), nil
}

// Remotes returns `git remote -v` output.
func Remotes(ctx context.Context, dir string) (string, error) {
	return Run(ctx, dir, "remote", "-v")
}

func Init(ctx context.Context, dir string) error {
	_, err := Run(ctx, dir, "init", "-q")
	return err
}

// CommitAll stages everything and commits. Extra config such as an
// identity can be passed as "key=value" pairs.
func CommitAll(ctx context.Context, dir, message string, config ...string) error {
	if _, err := Run(ctx, dir, "add", "-A"); err != nil {
		return err
	}
	var args []string
	for _, c := range config {
		args = append(args, "-c", c)
	}
	args = append(args, "commit", "-q", "-m", message)
	_, err := Run(ctx, dir, args...)
	return err
}

func lines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
