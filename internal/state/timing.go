package state

import (
	"fmt"
	"time"
)

type TimingEntry struct {
	Step     string    `json:"step"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end,omitempty"`
	Duration string    `json:"duration,omitempty"`
}

// AddStart appends a timing entry for the given step.
func (m *Migration) AddStart(stepID string, now time.Time) {
	m.Timing = append(m.Timing, TimingEntry{Step: stepID, Start: now})
}

// AddEnd closes the most recent open entry for stepID.
func (m *Migration) AddEnd(stepID string, now time.Time) {
	for i := len(m.Timing) - 1; i >= 0; i-- {
		if m.Timing[i].Step == stepID && m.Timing[i].End.IsZero() {
			m.Timing[i].End = now
			m.Timing[i].Duration = FormatDuration(now.Sub(m.Timing[i].Start))
			return
		}
	}
}

// StepDuration returns the recorded duration of the last run of stepID.
func (m *Migration) StepDuration(stepID string) string {
	for i := len(m.Timing) - 1; i >= 0; i-- {
		if m.Timing[i].Step == stepID && m.Timing[i].Duration != "" {
			return m.Timing[i].Duration
		}
	}
	return ""
}

func FormatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}
