package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

func newPrompter(input string) *Prompter {
	return New(strings.NewReader(input), io.Discard)
}

func TestAskDefault_BlankUsesDefault(t *testing.T) {
	p := newPrompter("\n")
	got, err := p.AskDefault(context.Background(), "Version:", "0.1.0", nil)
	if err != nil || got != "0.1.0" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestAskDefault_RetriesUntilValid(t *testing.T) {
	p := newPrompter("abc\n1.2.3\n")
	validate := func(s string) error {
		if !strings.Contains(s, ".") {
			return fmt.Errorf("bad version")
		}
		return nil
	}
	got, err := p.AskDefault(context.Background(), "Version:", "", validate)
	if err != nil || got != "1.2.3" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestAskDefault_AcceptDefaultsValidates(t *testing.T) {
	p := newPrompter("")
	p.AcceptDefaults = true
	_, err := p.AskDefault(context.Background(), "Name:", "", func(s string) error {
		if s == "" {
			return errors.New("required")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected validation error in non-interactive mode")
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"NO\n", true, false},
		{"\n", true, true},
		{"maybe\nyes\n", false, true},
	}
	for _, tt := range tests {
		got, err := newPrompter(tt.input).Confirm(context.Background(), "Continue?", tt.def)
		if err != nil || got != tt.want {
			t.Errorf("Confirm(%q) = %v, %v", tt.input, got, err)
		}
	}
}

func TestConfirm_EOF(t *testing.T) {
	_, err := newPrompter("").Confirm(context.Background(), "Continue?", false)
	if !errors.Is(err, ErrNoInput) {
		t.Fatalf("err = %v, want ErrNoInput", err)
	}
}

func TestSelect(t *testing.T) {
	opts := []string{"keep", "replace", "manual"}
	got, err := newPrompter("9\n2\n").Select(context.Background(), "Action", opts, 0)
	if err != nil || got != 1 {
		t.Fatalf("got %d, %v", got, err)
	}
	got, _ = newPrompter("\n").Select(context.Background(), "Action", opts, 2)
	if got != 2 {
		t.Fatalf("default = %d", got)
	}
}

func TestMultiSelect(t *testing.T) {
	opts := []string{"Copilot", "Claude", "ChatGPT"}
	got, err := newPrompter("1,3\n").MultiSelect(context.Background(), "Tools", opts, nil)
	if err != nil || strings.Join(got, ",") != "Copilot,ChatGPT" {
		t.Fatalf("got %v, %v", got, err)
	}
	got, _ = newPrompter("\n").MultiSelect(context.Background(), "Tools", opts, []bool{false, true, false})
	if strings.Join(got, ",") != "Claude" {
		t.Fatalf("defaults = %v", got)
	}
}

func TestReadLine_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := New(r, io.Discard)
	defer p.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Ask(ctx, "Name:"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" Claude, ,Copilot ")
	if len(got) != 2 || got[0] != "Claude" || got[1] != "Copilot" {
		t.Fatalf("SplitList = %v", got)
	}
}
