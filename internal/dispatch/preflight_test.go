package dispatch

import (
	"strings"
	"testing"
)

func TestRequireBinaries_Found(t *testing.T) {
	if err := RequireBinaries("sh"); err != nil {
		t.Fatalf("expected sh to be found, got: %v", err)
	}
}

func TestRequireBinaries_None(t *testing.T) {
	if err := RequireBinaries(); err != nil {
		t.Fatalf("no binaries should need nothing, got: %v", err)
	}
}

func TestRequireBinaries_Missing(t *testing.T) {
	err := RequireBinaries("sh", "aiflow-definitely-missing-binary")
	if err == nil {
		t.Fatal("expected missing binary error")
	}
	if !strings.Contains(err.Error(), "aiflow-definitely-missing-binary") || strings.Contains(err.Error(), "sh,") {
		t.Fatalf("unexpected error: %v", err)
	}
}
