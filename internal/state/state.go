// Package state persists the staged migration checklist in
// .migration-state.json at the project root.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const FileName = ".migration-state.json"

const (
	StatusInProgress = "in_progress"
	StatusPaused     = "paused"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusScheduled  = "scheduled"
)

// ErrNoMigration is returned by Load when no state file exists.
var ErrNoMigration = errors.New("no migration state found")

type Step struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Priority string `json:"priority,omitempty"`
	Phase    string `json:"phase,omitempty"`
	// Files narrows a step to specific template files.
	Files []string `json:"files,omitempty"`
}

type CompletedStep struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CompletedAt time.Time `json:"completedAt"`
}

type StepError struct {
	Step      string    `json:"step"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Migration struct {
	ID             string          `json:"id"`
	StartTime      time.Time       `json:"startTime"`
	TargetPhase    string          `json:"targetPhase"`
	CurrentPhase   string          `json:"currentPhase"`
	Status         string          `json:"status"`
	TotalSteps     int             `json:"totalSteps"`
	CompletedSteps []CompletedStep `json:"completedSteps"`
	PlannedSteps   []Step          `json:"plannedSteps"`
	Errors         []StepError     `json:"errors"`
	LastUpdate     time.Time       `json:"lastUpdate"`
	PausedAt       *time.Time      `json:"pausedAt,omitempty"`
	BackupPath     string          `json:"backupPath,omitempty"`
	Timing         []TimingEntry   `json:"timing,omitempty"`
}

// Path returns the state file location for a project.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, FileName)
}

// New creates a migration with the given plan in the scheduled state.
func New(targetPhase string, steps []Step, now time.Time) *Migration {
	return &Migration{
		ID:             uuid.NewString(),
		StartTime:      now,
		TargetPhase:    targetPhase,
		CurrentPhase:   "discovery",
		Status:         StatusScheduled,
		TotalSteps:     len(steps),
		CompletedSteps: []CompletedStep{},
		PlannedSteps:   steps,
		Errors:         []StepError{},
		LastUpdate:     now,
	}
}

// Load reads the migration state. Returns ErrNoMigration if there is none.
func Load(projectRoot string) (*Migration, error) {
	data, err := os.ReadFile(Path(projectRoot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoMigration
		}
		return nil, err
	}
	var m Migration
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return &m, nil
}

// Save writes the state file.
func (m *Migration) Save(projectRoot string) error {
	return WriteJSON(Path(projectRoot), m)
}

// Remove deletes the state file. A missing file is not an error.
func Remove(projectRoot string) error {
	err := os.Remove(Path(projectRoot))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// IsDone reports whether the step with the given id has completed.
func (m *Migration) IsDone(id string) bool {
	for _, c := range m.CompletedSteps {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Remaining returns planned steps that have not completed, in plan order.
func (m *Migration) Remaining() []Step {
	var out []Step
	for _, s := range m.PlannedSteps {
		if !m.IsDone(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

// Progress returns the completed fraction of the plan.
func (m *Migration) Progress() float64 {
	if m.TotalSteps == 0 {
		return 0
	}
	return float64(len(m.CompletedSteps)) / float64(m.TotalSteps)
}

// CanResume reports whether resume may continue from the current status.
func (m *Migration) CanResume() bool {
	switch m.Status {
	case StatusScheduled, StatusPaused, StatusFailed:
		return true
	}
	return false
}

// Start moves the migration into in_progress.
func (m *Migration) Start(now time.Time) {
	m.Status = StatusInProgress
	m.PausedAt = nil
	m.LastUpdate = now
}

// Pause marks an in-progress migration as paused.
func (m *Migration) Pause(now time.Time) error {
	if m.Status != StatusInProgress {
		return fmt.Errorf("migration is %s, not %s", m.Status, StatusInProgress)
	}
	m.Status = StatusPaused
	m.PausedAt = &now
	m.LastUpdate = now
	return nil
}

// Complete records a finished step. When nothing remains the migration
// itself becomes completed.
func (m *Migration) Complete(step Step, now time.Time) {
	if !m.IsDone(step.ID) {
		m.CompletedSteps = append(m.CompletedSteps, CompletedStep{ID: step.ID, Name: step.Name, CompletedAt: now})
	}
	if step.Phase != "" {
		m.CurrentPhase = step.Phase
	}
	m.LastUpdate = now
	if len(m.Remaining()) == 0 {
		m.Status = StatusCompleted
	}
}

// Fail records a step error and marks the migration failed.
func (m *Migration) Fail(step Step, err error, now time.Time) {
	m.Errors = append(m.Errors, StepError{Step: step.ID, Message: err.Error(), Timestamp: now})
	m.Status = StatusFailed
	m.LastUpdate = now
}
