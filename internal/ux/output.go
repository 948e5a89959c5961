package ux

import (
	"fmt"
	"strings"
	"time"
)

// ANSI color helpers
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// Banner prints a command title with an underline.
func Banner(title string) {
	fmt.Printf("%s%s%s\n", Bold+Blue, title, Reset)
	fmt.Printf("%s%s%s\n\n", Blue, strings.Repeat("=", len([]rune(title))), Reset)
}

// Section prints a bold section heading.
func Section(title string) {
	fmt.Printf("\n%s%s%s\n", Bold, title, Reset)
}

// StepHeader prints a timestamped step header.
func StepHeader(index, total int, name, desc string) {
	fmt.Printf("\n%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
	if desc != "" {
		desc = fmt.Sprintf(" (%s)", desc)
	}
	fmt.Printf("%s[%s]%s  %sStep %d/%d: %s%s%s\n",
		Dim, timestamp(), Reset, Bold, index+1, total, name, desc, Reset)
	fmt.Printf("%s[%s]%s %s══════════════════════════════════════%s\n",
		Dim, timestamp(), Reset, Cyan, Reset)
}

// StepComplete prints a step completion message.
func StepComplete(index int, duration time.Duration) {
	m := int(duration.Minutes())
	s := int(duration.Seconds()) % 60
	fmt.Printf("%s[%s]%s  %s✓ Step %d complete (%dm %02ds)%s\n",
		Dim, timestamp(), Reset, Green, index+1, m, s, Reset)
}

// StepFail prints a step failure message.
func StepFail(index int, name, errMsg string) {
	fmt.Printf("%s[%s]%s  %s✗ Step %d (%s) failed: %s%s\n",
		Dim, timestamp(), Reset, Red, index+1, name, errMsg, Reset)
}

// StepSkip prints a skipped step.
func StepSkip(index int, name, reason string) {
	fmt.Printf("%s[%s]%s  %s– Step %d (%s) skipped (%s)%s\n",
		Dim, timestamp(), Reset, Dim, index+1, name, reason, Reset)
}

// ResumeHint prints the command that continues an interrupted run.
func ResumeHint(command string) {
	fmt.Printf("\n%sResume:%s %s\n", Yellow, Reset, command)
}

// Success prints a green check line.
func Success(format string, args ...any) {
	fmt.Printf("%s✓ %s%s\n", Green, fmt.Sprintf(format, args...), Reset)
}

// Warn prints a yellow warning line.
func Warn(format string, args ...any) {
	fmt.Printf("%s⚠ %s%s\n", Yellow, fmt.Sprintf(format, args...), Reset)
}

// Fail prints a red cross line.
func Fail(format string, args ...any) {
	fmt.Printf("%s✗ %s%s\n", Red, fmt.Sprintf(format, args...), Reset)
}

// Info prints a cyan informational line.
func Info(format string, args ...any) {
	fmt.Printf("%s%s%s\n", Cyan, fmt.Sprintf(format, args...), Reset)
}

// Detail prints a dimmed indented line.
func Detail(format string, args ...any) {
	fmt.Printf("   %s%s%s\n", Dim, fmt.Sprintf(format, args...), Reset)
}

// ScoreColor picks a colour for a 0-100 score.
func ScoreColor(score float64) string {
	switch {
	case score >= 80:
		return Green
	case score >= 60:
		return Yellow
	default:
		return Red
	}
}

// Percent formats a 0-1 ratio as a percentage with one decimal.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// Bar renders a fixed-width progress bar for a 0-1 ratio.
func Bar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
