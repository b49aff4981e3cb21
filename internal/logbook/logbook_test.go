package logbook

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	lines, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total lines = %d, want 5", total)
	}
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(lines))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if !strings.Contains(lines[idx], want) {
			t.Fatalf("line %d = %q, missing %s", idx, lines[idx], want)
		}
	}
}

func TestAppendFoldsMultilineMessages(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "logs", "journal.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.clock = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	book.Warn("stage %s\nnot found", "s-9")
	lines, total := book.Tail(10)
	if total != 1 {
		t.Fatalf("total lines = %d, want 1", total)
	}
	want := "2024-03-01T09:30:00Z WARN  stage s-9 not found"
	if lines[0] != want {
		t.Fatalf("line = %q, want %q", lines[0], want)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if lines, total := book.Tail(5); lines != nil || total != 0 {
		t.Fatalf("nil logbook tail = %v, %d", lines, total)
	}
	if book.Path() != "" {
		t.Fatalf("nil logbook path should be empty")
	}
}

func TestScopePrefixesEntries(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.clock = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	scope := book.Scope("Edit Deal #4")
	scope.Error("save deal: %s", "timeout")
	book.Scope("").Info("plain")

	lines, _ := book.Tail(10)
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want 2 entries", lines)
	}
	if want := "2024-03-01T09:30:00Z ERROR [Edit Deal #4] save deal: timeout"; lines[0] != want {
		t.Fatalf("line = %q, want %q", lines[0], want)
	}
	if strings.Contains(lines[1], "[") {
		t.Fatalf("unlabelled scope should not add a prefix: %q", lines[1])
	}

	var missing *Logbook
	missing.Scope("Create Person #1").Warn("ignored")
}
