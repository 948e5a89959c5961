package phase

import "testing"

func TestParse(t *testing.T) {
	p, err := Parse(" PoC ")
	if err != nil {
		t.Fatal(err)
	}
	if p != PoC {
		t.Fatalf("Parse = %q, want poc", p)
	}
	if _, err := Parse("deploy"); err == nil {
		t.Fatal("expected error for unknown phase")
	}
}

func TestNext(t *testing.T) {
	next, ok := Requirements.Next()
	if !ok || next != PoC {
		t.Fatalf("Requirements.Next() = %q, %v", next, ok)
	}
	if _, ok := Production.Next(); ok {
		t.Fatal("production should have no next phase")
	}
}

func TestPrevious(t *testing.T) {
	prev, ok := Implementation.Previous()
	if !ok || prev != PoC {
		t.Fatalf("Implementation.Previous() = %q, %v", prev, ok)
	}
	if _, ok := Discovery.Previous(); ok {
		t.Fatal("discovery should have no previous phase")
	}
}

func TestUpto(t *testing.T) {
	got := Upto(PoC)
	want := []Phase{Discovery, Requirements, PoC}
	if len(got) != len(want) {
		t.Fatalf("Upto(poc) = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Upto(poc)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEveryPhaseHasMetadata(t *testing.T) {
	for _, p := range All {
		if p.Title() == "" || len(p.NextSteps()) == 0 || len(p.Responsibilities()) == 0 {
			t.Errorf("phase %q is missing metadata", p)
		}
	}
}

func TestIsBridge(t *testing.T) {
	if Discovery.IsBridge() || Production.IsBridge() {
		t.Fatal("discovery and production are outside the bridge flow")
	}
	if !Review.IsBridge() {
		t.Fatal("review should be a bridge phase")
	}
}
