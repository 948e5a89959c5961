package detect

import (
	"fmt"
	"io"

	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Print writes the human-readable detection report.
func Print(w io.Writer, r *Result, detailed bool) {
	rec := r.Recommendation
	top, _ := r.ScoreFor(rec.Phase)

	fmt.Fprintf(w, "%s🎯 Phase detection%s\n\n", ux.Bold+ux.Green, ux.Reset)
	fmt.Fprintf(w, "  %sPhase:%s      %s%s%s %s\n", ux.Cyan, ux.Reset, ux.Bold, rec.Phase.Title(), ux.Reset, rec.Phase.Emoji())
	fmt.Fprintf(w, "  %sScore:%s      %s\n", ux.Cyan, ux.Reset, ux.Percent(top.Score))
	fmt.Fprintf(w, "  %sConfidence:%s %s\n", ux.Cyan, ux.Reset, ux.Percent(top.Confidence))
	fmt.Fprintf(w, "  %sCertainty:%s  %s\n", ux.Cyan, ux.Reset, rec.Certainty)

	if detailed {
		fmt.Fprintf(w, "\n%sScores%s\n", ux.Yellow, ux.Reset)
		for _, ps := range Ranked(r.Scores) {
			fmt.Fprintf(w, "  %-15s %s %s\n", ps.Phase.Title(), ux.Bar(ps.Score, 20), ux.Percent(ps.Score))
		}
		fmt.Fprintf(w, "\n%sIndicators for %s%s\n", ux.Yellow, rec.Phase.Title(), ux.Reset)
		for _, ind := range top.Indicators {
			mark := ux.Dim + "·"
			if ind.Score > 0.5 {
				mark = ux.Green + "✓"
			}
			fmt.Fprintf(w, "  %s%s %s (%s, weight %.2f)\n", mark, ux.Reset, ind.Details, ux.Percent(ind.Score), ind.Weight)
		}
	}

	if len(rec.Alternatives) > 0 {
		fmt.Fprintf(w, "\n%s🤔 Alternatives%s\n", ux.Yellow, ux.Reset)
		for _, alt := range rec.Alternatives {
			fmt.Fprintf(w, "  • %s (score %s)\n", alt.Phase.Title(), ux.Percent(alt.Score))
		}
	}

	fmt.Fprintf(w, "\n%s📋 Strategy:%s %s\n", ux.Cyan, ux.Reset, rec.Strategy)
	fmt.Fprintf(w, "\n%s📝 Next steps%s\n", ux.Cyan, ux.Reset)
	for i, s := range rec.NextSteps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s)
	}

	if detailed {
		f := r.Facts
		fmt.Fprintf(w, "\n%s📁 Project%s\n", ux.Yellow, ux.Reset)
		fmt.Fprintf(w, "  files:        %d\n", f.FileCount)
		fmt.Fprintf(w, "  directories:  %d\n", len(f.Dirs))
		if f.HasManifest() {
			fmt.Fprintf(w, "  dependencies: %d\n", len(f.Dependencies()))
		}
		fmt.Fprintf(w, "  commits:      %d\n", f.Git.CommitCount)
		fmt.Fprintf(w, "  tags:         %d\n", len(f.Git.Tags))
	}
}
