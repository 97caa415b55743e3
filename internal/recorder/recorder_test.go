package recorder

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecorderRotation(t *testing.T) {
	tempDir := t.TempDir()

	r, err := NewRecorder(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	// Create more than MaxRotatedFiles
	for i := 0; i < MaxRotatedFiles+2; i++ {
		if err := r.Start("test"); err != nil {
			t.Fatal(err)
		}
		r.LogSearch(SearchEvent{Query: "acme", State: "open-results", Results: 1})
		time.Sleep(10 * time.Millisecond) // Ensure different mod times and names
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	// We should only have MaxRotatedFiles
	if len(entries) != MaxRotatedFiles {
		t.Errorf("expected %d files, got %d", MaxRotatedFiles, len(entries))
	}
}

func TestRecorderLogging(t *testing.T) {
	tempDir := t.TempDir()

	r, err := NewRecorder(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Start("search"); err != nil {
		t.Fatal(err)
	}

	r.LogSearch(SearchEvent{
		Query:      "acme",
		Filters:    []string{"customer", "invoice"},
		State:      "open-results",
		Results:    3,
		PerType:    map[string]int{"customer": 2, "invoice": 1},
		DurationMs: 42,
	})
	r.LogSearch(SearchEvent{
		Query: "zzz",
		State: "open-error",
		Error: "backend unreachable",
	})

	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 trace file, got %d", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "trace_search_") || !strings.HasSuffix(name, ".jsonl") {
		t.Errorf("unexpected trace file name %q", name)
	}

	f, err := os.Open(filepath.Join(tempDir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var events []SearchEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev SearchEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode trace line: %v", err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Query != "acme" || events[0].Results != 3 {
		t.Errorf("first event = %+v", events[0])
	}
	if events[0].PerType["customer"] != 2 {
		t.Errorf("per_type = %v", events[0].PerType)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be filled in")
	}
	if events[1].Error != "backend unreachable" {
		t.Errorf("second event error = %q", events[1].Error)
	}
}

func TestLogSearchBeforeStartIsDropped(t *testing.T) {
	tempDir := t.TempDir()

	r, err := NewRecorder(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	// No Start yet; must not panic or write anything.
	r.LogSearch(SearchEvent{Query: "acme"})

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no trace files, got %d", len(entries))
	}
}
