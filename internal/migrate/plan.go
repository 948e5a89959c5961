package migrate

import (
	"fmt"

	"github.com/jorge-barreto/aiflow/internal/dispatch"
	"github.com/jorge-barreto/aiflow/internal/phase"
	"github.com/jorge-barreto/aiflow/internal/state"
	"github.com/jorge-barreto/aiflow/internal/templates"
)

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Plan is the ordered list of steps a migration runs.
type Plan struct {
	Phase          phase.Phase  `json:"currentPhase"`
	Steps          []state.Step `json:"steps"`
	BackupRequired bool         `json:"backupRequired"`
	EstimatedTime  string       `json:"estimatedTime"`
	Risk           string       `json:"riskLevel"`
}

// NewPlan derives the migration plan from an analysis.
func NewPlan(a *Analysis) *Plan {
	p := &Plan{Phase: a.Phase, Steps: []state.Step{}, Risk: RiskLow}

	if len(a.Conflicts) > 0 {
		p.BackupRequired = true
		p.Risk = RiskMedium
		p.Steps = append(p.Steps, state.Step{
			ID:       dispatch.StepBackup,
			Name:     "Back up existing files",
			Priority: templates.PriorityHigh,
			Files:    a.Conflicts,
		})
	}

	for _, prio := range templates.Priorities {
		for _, cs := range a.Categories {
			if cs.Category.Priority != prio {
				continue
			}
			if len(cs.Missing) == 0 && len(cs.Conflicts) == 0 {
				continue
			}
			files := append(append([]string{}, cs.Missing...), cs.Conflicts...)
			p.Steps = append(p.Steps, state.Step{
				ID:       cs.ID,
				Name:     cs.Category.Name,
				Priority: prio,
				Files:    files,
			})
		}
	}

	if a.HasPackage {
		p.Steps = append(p.Steps, state.Step{
			ID:       dispatch.StepPackageJSON,
			Name:     "Add npm scripts",
			Priority: templates.PriorityMedium,
		})
	}

	p.EstimatedTime = EstimateTime(len(p.Steps))
	if len(p.Steps) > 10 {
		if p.Risk == RiskLow {
			p.Risk = RiskMedium
		} else {
			p.Risk = RiskHigh
		}
	}
	return p
}

// EstimateTime buckets two minutes per step.
func EstimateTime(steps int) string {
	minutes := steps * 2
	switch {
	case minutes < 10:
		return "5-10 minutes"
	case minutes < 20:
		return "10-20 minutes"
	case minutes < 40:
		return "20-40 minutes"
	}
	return "40+ minutes"
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
