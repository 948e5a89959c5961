package history

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/jorge-barreto/aiflow/internal/ux"
)

// Print lists the latest rows of one kind, or of every kind when kind is
// empty.
func (s *Store) Print(ctx context.Context, w io.Writer, kind string, limit int) error {
	kinds := Kinds
	if kind != "" {
		if !validKind(kind) {
			return fmt.Errorf("unknown history kind %q (valid: detections, quality, progress)", kind)
		}
		kinds = []string{kind}
	}
	for i, k := range kinds {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := s.printKind(ctx, w, k, limit); err != nil {
			return err
		}
	}
	return nil
}

func validKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (s *Store) printKind(ctx context.Context, w io.Writer, kind string, limit int) error {
	fmt.Fprintf(w, "%s%s%s\n", ux.Bold, kind, ux.Reset)
	empty := func() { fmt.Fprintf(w, "  %s(no entries)%s\n", ux.Dim, ux.Reset) }

	switch kind {
	case KindDetections:
		rows, err := s.Detections(ctx, limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			empty()
		}
		for _, d := range rows {
			fmt.Fprintf(w, "  %-16s %-15s score %.2f  confidence %s  %s\n",
				humanize.Time(d.RunAt), d.Phase, d.Score, ux.Percent(d.Confidence), d.Certainty)
		}
	case KindQuality:
		rows, err := s.QualityEvaluations(ctx, "", limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			empty()
		}
		for _, q := range rows {
			fmt.Fprintf(w, "  %-16s %-15s %s%3d%s  %s\n",
				humanize.Time(q.RunAt), q.Phase, ux.ScoreColor(float64(q.Score)), q.Score, ux.Reset, q.Grade)
		}
	case KindProgress:
		rows, err := s.ProgressSnapshots(ctx, limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			empty()
		}
		for _, p := range rows {
			fmt.Fprintf(w, "  %-16s %-24s complete %3d%%  blocked %3d%%  bottlenecks %d\n",
				humanize.Time(p.RunAt), p.Repository, p.CompletionRate, p.BlockRate, p.OpenBottlenecks)
		}
	}
	return nil
}
