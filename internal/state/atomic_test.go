package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic_CreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docs", "ai-context", "summary.yml")

	if err := WriteFileAtomic(path, []byte("phases: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "phases: {}\n" {
		t.Fatalf("got %q", string(data))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file should not exist after atomic write")
	}
}

func TestWriteFileAtomic_OverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Fatalf("got %q, want %q", string(data), "new")
	}
}

func TestWriteJSON_Indents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	if err := WriteJSON(path, map[string]int{"filesCount": 2}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\n  \"filesCount\": 2\n}\n" {
		t.Fatalf("got %q", string(data))
	}
}
