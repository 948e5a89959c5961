package detect

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorge-barreto/aiflow/internal/phase"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func analyze(t *testing.T, root string, g GitFacts) *Facts {
	t.Helper()
	f, err := Analyze(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	f.Git = g
	return f
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

const fixturePackage = `{
  "name": "shop-api",
  "description": "Order service",
  "version": "0.3.0",
  "scripts": {
    "start": "node src/index.js",
    "build": "tsc",
    "test": "jest"
  },
  "dependencies": {
    "express": "^4.18.0",
    "lodash": "^4.17.0",
    "axios": "^1.6.0",
    "react": "^18.0.0",
    "react-dom": "^18.0.0",
    "dotenv": "^16.0.0",
    "cors": "^2.8.0",
    "morgan": "^1.10.0",
    "uuid": "^9.0.0",
    "chalk": "^5.0.0"
  },
  "devDependencies": {
    "jest": "^29.0.0",
    "nodemon": "^3.0.0"
  }
}
`

func fixture(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "package.json", fixturePackage)
	writeFile(t, root, "src/index.js", "console.log('hi')\n")
	writeFile(t, root, "test/app.test.js", "test('x', () => {})\n")
	return root
}

func TestScore_EmptyDirectoryIsDiscovery(t *testing.T) {
	f := analyze(t, t.TempDir(), GitFacts{})
	scores := Score(f)
	rec := Recommend(scores, 0.7)
	if rec.Phase != phase.Discovery {
		t.Fatalf("phase = %s, want discovery", rec.Phase)
	}
	if !near(rec.Score, 1) || !near(rec.Confidence, 1) {
		t.Fatalf("score = %v confidence = %v, want 1 and 1", rec.Score, rec.Confidence)
	}
	if rec.Certainty != CertaintyHigh || rec.Strategy != StrategyTargeted {
		t.Fatalf("certainty %s strategy %s", rec.Certainty, rec.Strategy)
	}
}

func TestScore_ImplementationFixture(t *testing.T) {
	f := analyze(t, fixture(t), GitFacts{CommitCount: 25})
	if f.FileCount != 3 {
		t.Fatalf("FileCount = %d, want 3", f.FileCount)
	}
	want := map[phase.Phase]float64{
		phase.Implementation: 0.96,
		phase.Testing:        0.55,
		phase.Discovery:      0.35,
		phase.Requirements:   0.2,
		phase.PoC:            0.06,
		phase.Review:         0,
		phase.Production:     0,
	}
	scores := Score(f)
	for _, ps := range scores {
		if !near(ps.Score, want[ps.Phase]) {
			t.Errorf("%s score = %v, want %v", ps.Phase, ps.Score, want[ps.Phase])
		}
	}
	rec := Recommend(scores, 0.7)
	if rec.Phase != phase.Implementation {
		t.Fatalf("phase = %s", rec.Phase)
	}
	if len(rec.Alternatives) != 0 {
		t.Fatalf("alternatives = %+v", rec.Alternatives)
	}
	if rec.Certainty != CertaintyHigh {
		t.Fatalf("confidence %v should be high", rec.Confidence)
	}
}

func TestScore_BoundsAndConfidence(t *testing.T) {
	f := analyze(t, fixture(t), GitFacts{CommitCount: 3, RecentCommits: []string{"try idea", "merge branch"}, Tags: []string{"v0.1.0"}})
	for _, ps := range Score(f) {
		if ps.Score < 0 || ps.Score > 1 {
			t.Errorf("%s score %v out of range", ps.Phase, ps.Score)
		}
		if ps.Confidence < 0 || ps.Confidence > 1 {
			t.Errorf("%s confidence %v out of range", ps.Phase, ps.Confidence)
		}
		for _, ind := range ps.Indicators {
			if ind.Score < 0 || ind.Score > 1 {
				t.Errorf("%s/%s score %v out of range", ps.Phase, ind.Target, ind.Score)
			}
		}
	}
}

func TestEvaluate_UnknownKind(t *testing.T) {
	r := Evaluate(&Facts{Root: t.TempDir()}, Indicator{Kind: "bogus", Target: "x", Weight: 1})
	if r.Score != 0 || r.Confidence != 0.5 {
		t.Fatalf("got score %v confidence %v", r.Score, r.Confidence)
	}
}

func TestEvaluate_ErrorLowersConfidence(t *testing.T) {
	root := t.TempDir()
	os.Mkdir(filepath.Join(root, "package.json"), 0755)
	r := Evaluate(&Facts{Root: root}, Indicator{Kind: FileContent, Target: "package.json", Keywords: []string{"name"}, Weight: 1})
	if r.Score != 0 || r.Confidence != 0.3 {
		t.Fatalf("got score %v confidence %v", r.Score, r.Confidence)
	}
}

func TestFilePresence_Variations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Dockerfile", "FROM scratch\n")
	writeFile(t, root, "deployment.txt", "notes\n")
	writeFile(t, root, ".github/workflows/ci.yml", "on: push\n")
	f := analyze(t, root, GitFacts{})

	tests := []struct {
		target string
		want   float64
	}{
		{"docker", 1},
		{"deployment", 1},
		{".github/workflows", 1},
		{".eslintrc", 0},
		{"prototype", 0},
	}
	for _, tt := range tests {
		if got := filePresence(f, tt.target); got != tt.want {
			t.Errorf("filePresence(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestPackageDependencies_NoManifest(t *testing.T) {
	f := &Facts{Root: t.TempDir()}
	for _, check := range []string{"few_dependencies", "substantial_dependencies", "quality_tools", "testing_frameworks"} {
		if got := packageDependencies(f, check); got != 0 {
			t.Errorf("%s = %v, want 0", check, got)
		}
	}
}

func TestAnalyze_GoModDependencies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/x\n\ngo 1.22\n\nrequire (\n\tgithub.com/a/b v1.0.0\n\tgithub.com/c/d v0.2.0\n)\n")
	f := analyze(t, root, GitFacts{})
	if len(f.GoDeps) != 2 || f.GoDeps[0] != "github.com/a/b" {
		t.Fatalf("GoDeps = %v", f.GoDeps)
	}
	if got := packageDependencies(f, "few_dependencies"); got != 1 {
		t.Fatalf("few_dependencies = %v", got)
	}
}

func TestAnalyze_SkipsHiddenAndNodeModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, ".hidden/b.txt", "b")
	writeFile(t, root, "node_modules/x/index.js", "x")
	writeFile(t, root, "lib/c.txt", "c")
	f := analyze(t, root, GitFacts{})
	if f.FileCount != 2 {
		t.Fatalf("FileCount = %d, want 2", f.FileCount)
	}
	if len(f.Dirs) != 1 || f.Dirs[0] != "lib" {
		t.Fatalf("Dirs = %v", f.Dirs)
	}
}

func TestPackageVersion_TagFallback(t *testing.T) {
	f := &Facts{Git: GitFacts{Tags: []string{"v0.9.0", "1.2.0", "nightly"}}}
	if got := packageVersion(f, "stable_version"); got != 1 {
		t.Fatalf("stable_version = %v, want 1", got)
	}
	f.Git.Tags = []string{"v0.4.1"}
	if got := packageVersion(f, "stable_version"); got != 0 {
		t.Fatalf("stable_version = %v, want 0", got)
	}
}

func TestRanked_TieBreaksOnPrior(t *testing.T) {
	scores := []PhaseScore{
		{Phase: phase.Discovery, Score: 0.5, Prior: 0.1},
		{Phase: phase.Implementation, Score: 0.5, Prior: 0.25},
		{Phase: phase.Testing, Score: 0.5, Prior: 0.1},
	}
	ranked := Ranked(scores)
	if ranked[0].Phase != phase.Implementation || ranked[1].Phase != phase.Discovery {
		t.Fatalf("ranked = %v, %v, %v", ranked[0].Phase, ranked[1].Phase, ranked[2].Phase)
	}
}

func TestRecommend_AlternativesAndGradual(t *testing.T) {
	scores := []PhaseScore{
		{Phase: phase.PoC, Score: 0.7, Confidence: 0.4, Prior: 0.2},
		{Phase: phase.Implementation, Score: 0.55, Confidence: 0.9, Prior: 0.25},
		{Phase: phase.Review, Score: 0.4, Confidence: 0.9, Prior: 0.15},
	}
	rec := Recommend(scores, 0.7)
	if rec.Phase != phase.PoC || rec.Certainty != CertaintyMedium || rec.Strategy != StrategyGradual {
		t.Fatalf("rec = %+v", rec)
	}
	if len(rec.Alternatives) != 1 || rec.Alternatives[0].Phase != phase.Implementation {
		t.Fatalf("alternatives = %+v", rec.Alternatives)
	}
}

func TestPrint_Detailed(t *testing.T) {
	f := analyze(t, fixture(t), GitFacts{CommitCount: 25})
	scores := Score(f)
	r := &Result{Facts: f, Scores: scores, Recommendation: Recommend(scores, 0.7)}
	var buf bytes.Buffer
	Print(&buf, r, true)
	out := buf.String()
	for _, want := range []string{"Implementation", "targeted", "dependencies: 12"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
