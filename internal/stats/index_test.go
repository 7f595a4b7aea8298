package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIndex(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, indexFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	return path
}

func TestReadIndex_Valid(t *testing.T) {
	dir := t.TempDir()
	path := writeIndex(t, dir, `{
		"version": 1,
		"entries": [
			{"sessionId": "s1", "fullPath": "/tmp/p/s1.jsonl", "summary": "Fix the build", "firstPrompt": "please fix", "isSidechain": false},
			{"sessionId": "s2", "firstPrompt": "add tests", "isSidechain": true}
		]
	}`)

	idx, ok := readIndex(path)
	if !ok {
		t.Fatal("valid index reported absent")
	}
	if len(idx.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(idx.Entries))
	}
	if idx.Entries[0].title() != "Fix the build" {
		t.Errorf("title = %q, want the summary", idx.Entries[0].title())
	}
	if idx.Entries[1].title() != "add tests" {
		t.Errorf("title = %q, want the first prompt fallback", idx.Entries[1].title())
	}
	if !idx.Entries[1].IsSidechain {
		t.Error("sidechain flag lost in decode")
	}
}

func TestReadIndex_MissingFile(t *testing.T) {
	if _, ok := readIndex(filepath.Join(t.TempDir(), indexFileName)); ok {
		t.Fatal("missing index reported present")
	}
}

func TestReadIndex_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeIndex(t, dir, `{"version": 1, "entries": [`)
	if _, ok := readIndex(path); ok {
		t.Fatal("malformed index reported present")
	}
}

func TestReadIndex_BadVersion(t *testing.T) {
	dir := t.TempDir()
	path := writeIndex(t, dir, `{"version": 0, "entries": []}`)
	if _, ok := readIndex(path); ok {
		t.Fatal("version 0 index reported present")
	}
}

func TestReadIndex_DropsEntriesWithoutID(t *testing.T) {
	dir := t.TempDir()
	path := writeIndex(t, dir, `{
		"version": 1,
		"entries": [
			{"sessionId": "", "summary": "ghost"},
			{"sessionId": "s1", "summary": "real"}
		]
	}`)

	idx, ok := readIndex(path)
	if !ok {
		t.Fatal("index reported absent")
	}
	if len(idx.Entries) != 1 || idx.Entries[0].SessionID != "s1" {
		t.Fatalf("entries = %+v, want only s1", idx.Entries)
	}
}
