package datadir

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "acai")
	d, err := New(root)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if d.Path() != root {
		t.Errorf("Path() = %q, want %q", d.Path(), root)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Errorf("root directory not created: %v", err)
	}
}

func TestLogPath(t *testing.T) {
	root := t.TempDir()
	d, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.LogPath(); got != filepath.Join(root, "acai.log") {
		t.Errorf("LogPath() = %q", got)
	}
}

func TestSaveHistory(t *testing.T) {
	d, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	history := []map[string]string{{"kind": "message", "content": "hi"}}
	path, err := d.SaveHistory(history)
	if err != nil {
		t.Fatalf("SaveHistory() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved history: %v", err)
	}
	var loaded []map[string]string
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("saved history is not valid JSON: %v", err)
	}
	if len(loaded) != 1 || loaded[0]["content"] != "hi" {
		t.Errorf("unexpected history content: %v", loaded)
	}
	if filepath.Dir(path) != filepath.Join(d.Path(), "history") {
		t.Errorf("history saved outside history/: %q", path)
	}
}
