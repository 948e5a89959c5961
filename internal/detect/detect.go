// Package detect estimates which workflow phase an existing project is in
// from weighted, static indicators over its files and git history.
package detect

import (
	"context"
	"sort"

	"github.com/jorge-barreto/aiflow/internal/phase"
)

const (
	CertaintyHigh   = "high"
	CertaintyMedium = "medium"

	StrategyTargeted = "targeted"
	StrategyGradual  = "gradual"

	// AlternativeMargin is the largest score gap that still counts a phase
	// as an alternative to the top one.
	AlternativeMargin = 0.2
)

// PhaseScore is the evaluated rule for one phase.
type PhaseScore struct {
	Phase      phase.Phase       `json:"phase"`
	Score      float64           `json:"score"`
	Confidence float64           `json:"confidence"`
	Prior      float64           `json:"-"`
	Indicators []IndicatorResult `json:"indicators"`
}

// Alternative is a runner-up phase.
type Alternative struct {
	Phase      phase.Phase `json:"phase"`
	Score      float64     `json:"score"`
	Confidence float64     `json:"confidence"`
}

// Recommendation is the detector verdict.
type Recommendation struct {
	Phase        phase.Phase   `json:"primaryPhase"`
	Score        float64       `json:"score"`
	Confidence   float64       `json:"confidence"`
	Certainty    string        `json:"certainty"`
	Strategy     string        `json:"migrationStrategy"`
	Alternatives []Alternative `json:"alternatives"`
	NextSteps    []string      `json:"nextSteps"`
}

// Result bundles everything a detection run produced.
type Result struct {
	Facts          *Facts         `json:"analysis"`
	Scores         []PhaseScore   `json:"scores"`
	Recommendation Recommendation `json:"recommendation"`
}

var gradualSteps = []string{
	"Several phases fit this project",
	"Confirm the phase by manual review",
	"Run aiflow migrate --analyze-only for a detailed analysis",
	"Plan a staged migration with aiflow stage schedule",
}

// Detect analyses root and recommends a phase.
func Detect(ctx context.Context, root string, threshold float64) (*Result, error) {
	facts, err := Analyze(ctx, root)
	if err != nil {
		return nil, err
	}
	scores := Score(facts)
	return &Result{
		Facts:          facts,
		Scores:         scores,
		Recommendation: Recommend(scores, threshold),
	}, nil
}

// Score evaluates every rule, returning phases in rule order.
func Score(f *Facts) []PhaseScore {
	out := make([]PhaseScore, 0, len(Rules))
	for _, rule := range Rules {
		ps := PhaseScore{Phase: rule.Phase, Prior: rule.Prior}
		var total, weights float64
		for _, ind := range rule.Indicators {
			r := Evaluate(f, ind)
			total += r.Score * ind.Weight
			weights += ind.Weight
			ps.Indicators = append(ps.Indicators, r)
		}
		if weights > 0 {
			ps.Score = total / weights
		}
		ps.Confidence = confidence(ps.Indicators)
		out = append(out, ps)
	}
	return out
}

// confidence is the mean indicator confidence damped by score variance.
func confidence(results []IndicatorResult) float64 {
	if len(results) == 0 {
		return 0
	}
	n := float64(len(results))
	var conf, mean float64
	for _, r := range results {
		conf += r.Confidence
		mean += r.Score
	}
	conf /= n
	mean /= n
	var variance float64
	for _, r := range results {
		d := r.Score - mean
		variance += d * d
	}
	variance /= n
	factor := 1 - 2*variance
	if factor < 0 {
		factor = 0
	}
	return conf * factor
}

// Ranked orders scores best first. Exact ties go to the higher prior,
// then to the earlier phase.
func Ranked(scores []PhaseScore) []PhaseScore {
	ranked := append([]PhaseScore(nil), scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Prior != b.Prior {
			return a.Prior > b.Prior
		}
		return a.Phase.Index() < b.Phase.Index()
	})
	return ranked
}

// Recommend picks the top phase and the alternatives within
// AlternativeMargin of it.
func Recommend(scores []PhaseScore, threshold float64) Recommendation {
	ranked := Ranked(scores)
	if len(ranked) == 0 {
		return Recommendation{Phase: phase.Discovery, Certainty: CertaintyMedium, Strategy: StrategyGradual, NextSteps: gradualSteps}
	}
	top := ranked[0]
	rec := Recommendation{
		Phase:        top.Phase,
		Score:        top.Score,
		Confidence:   top.Confidence,
		Alternatives: []Alternative{},
	}
	for _, ps := range ranked[1:] {
		if top.Score-ps.Score <= AlternativeMargin {
			rec.Alternatives = append(rec.Alternatives, Alternative{Phase: ps.Phase, Score: ps.Score, Confidence: ps.Confidence})
		}
	}
	if top.Confidence >= threshold {
		rec.Certainty = CertaintyHigh
		rec.Strategy = StrategyTargeted
		rec.NextSteps = top.Phase.NextSteps()
	} else {
		rec.Certainty = CertaintyMedium
		rec.Strategy = StrategyGradual
		rec.NextSteps = gradualSteps
	}
	return rec
}

// ScoreFor returns the score entry for p.
func (r *Result) ScoreFor(p phase.Phase) (PhaseScore, bool) {
	for _, ps := range r.Scores {
		if ps.Phase == p {
			return ps, true
		}
	}
	return PhaseScore{}, false
}
