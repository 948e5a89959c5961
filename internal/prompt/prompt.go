// Package prompt asks questions on a terminal. Reads honour context
// cancellation so Ctrl-C interrupts a pending question.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jorge-barreto/aiflow/internal/ux"
)

// ErrNoInput is returned when input ends before an answer was given.
var ErrNoInput = errors.New("prompt: no input")

// Prompter reads answers line by line from an input stream.
type Prompter struct {
	out io.Writer
	// AcceptDefaults answers every question with its default.
	AcceptDefaults bool

	lines chan string
	done  chan struct{}
}

// New starts a background reader on r. Output goes to w.
func New(r io.Reader, w io.Writer) *Prompter {
	p := &Prompter{
		out:   w,
		lines: make(chan string, 16),
		done:  make(chan struct{}),
	}
	go p.readLoop(r)
	return p
}

func (p *Prompter) readLoop(r io.Reader) {
	defer close(p.lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case p.lines <- scanner.Text():
		case <-p.done:
			return
		}
	}
}

// Stop releases the reader goroutine. It may stay blocked in Scan until
// input arrives or the stream closes.
func (p *Prompter) Stop() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", ErrNoInput
		}
		return strings.TrimSpace(line), nil
	}
}

func (p *Prompter) ask(label string) {
	fmt.Fprintf(p.out, "%s?%s %s ", ux.Green, ux.Reset, label)
}

// Ask reads a free-form answer. Empty answers are allowed.
func (p *Prompter) Ask(ctx context.Context, label string) (string, error) {
	if p.AcceptDefaults {
		return "", nil
	}
	p.ask(label)
	return p.readLine(ctx)
}

// AskDefault reads an answer, substituting def for a blank line and
// re-asking until validate accepts it.
func (p *Prompter) AskDefault(ctx context.Context, label, def string, validate func(string) error) (string, error) {
	shown := label
	if def != "" {
		shown = fmt.Sprintf("%s %s(%s)%s", label, ux.Dim, def, ux.Reset)
	}
	for {
		answer := def
		if !p.AcceptDefaults {
			p.ask(shown)
			line, err := p.readLine(ctx)
			if err != nil {
				return "", err
			}
			if line != "" {
				answer = line
			}
		}
		if validate == nil {
			return answer, nil
		}
		err := validate(answer)
		if err == nil {
			return answer, nil
		}
		if p.AcceptDefaults {
			return "", fmt.Errorf("%s: %w", label, err)
		}
		fmt.Fprintf(p.out, "%s  %v%s\n", ux.Red, err, ux.Reset)
	}
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(ctx context.Context, label string, def bool) (bool, error) {
	if p.AcceptDefaults {
		return def, nil
	}
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		p.ask(fmt.Sprintf("%s (%s)", label, hint))
		line, err := p.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintf(p.out, "%s  please answer y or n%s\n", ux.Red, ux.Reset)
	}
}

// Select asks for one of options and returns its index.
func (p *Prompter) Select(ctx context.Context, label string, options []string, def int) (int, error) {
	if p.AcceptDefaults {
		return def, nil
	}
	fmt.Fprintf(p.out, "%s?%s %s\n", ux.Green, ux.Reset, label)
	for i, o := range options {
		marker := " "
		if i == def {
			marker = ">"
		}
		fmt.Fprintf(p.out, "  %s %d) %s\n", marker, i+1, o)
	}
	for {
		p.ask(fmt.Sprintf("choice [1-%d]", len(options)))
		line, err := p.readLine(ctx)
		if err != nil {
			return 0, err
		}
		if line == "" {
			return def, nil
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "%s  enter a number between 1 and %d%s\n", ux.Red, len(options), ux.Reset)
	}
}

// MultiSelect asks for a comma separated list of option numbers. A blank
// answer keeps the options marked in defaults.
func (p *Prompter) MultiSelect(ctx context.Context, label string, options []string, defaults []bool) ([]string, error) {
	picked := func(sel []bool) []string {
		var out []string
		for i, o := range options {
			if i < len(sel) && sel[i] {
				out = append(out, o)
			}
		}
		return out
	}
	if p.AcceptDefaults {
		return picked(defaults), nil
	}
	fmt.Fprintf(p.out, "%s?%s %s\n", ux.Green, ux.Reset, label)
	for i, o := range options {
		mark := "[ ]"
		if i < len(defaults) && defaults[i] {
			mark = "[x]"
		}
		fmt.Fprintf(p.out, "  %s %d) %s\n", mark, i+1, o)
	}
	for {
		p.ask("numbers, comma separated")
		line, err := p.readLine(ctx)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return picked(defaults), nil
		}
		sel := make([]bool, len(options))
		valid := true
		for _, part := range strings.Split(line, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 || n > len(options) {
				valid = false
				break
			}
			sel[n-1] = true
		}
		if valid {
			return picked(sel), nil
		}
		fmt.Fprintf(p.out, "%s  enter numbers between 1 and %d%s\n", ux.Red, len(options), ux.Reset)
	}
}

// SplitList splits a comma separated answer, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
