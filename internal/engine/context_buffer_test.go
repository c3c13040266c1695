package engine

import "testing"

func TestContextBufferAppendAndRender(t *testing.T) {
	buf, err := NewContextBuffer(100, 10)
	if err != nil {
		t.Fatalf("NewContextBuffer failed: %v", err)
	}

	buf.Append("first")
	buf.Append("second")

	if buf.Len() != 2 {
		t.Errorf("Expected 2 entries, got %d", buf.Len())
	}
	if got := buf.Render(); got != "first\nsecond" {
		t.Errorf("Expected oldest-to-newest render, got %q", got)
	}
}

func TestContextBufferEvictsByCharBudget(t *testing.T) {
	buf, err := NewContextBuffer(10, 10)
	if err != nil {
		t.Fatalf("NewContextBuffer failed: %v", err)
	}

	buf.Append("abcde") // 5
	buf.Append("fgh")   // 8
	buf.Append("ijkl")  // 12, evicts "abcde"

	if buf.Len() != 2 {
		t.Fatalf("Expected 2 entries after eviction, got %d", buf.Len())
	}
	if buf.TotalChars() != 7 {
		t.Errorf("Expected 7 chars held, got %d", buf.TotalChars())
	}
	if got := buf.Render(); got != "fgh\nijkl" {
		t.Errorf("Expected oldest entry evicted, got %q", got)
	}
}

func TestContextBufferEvictsByEntryBound(t *testing.T) {
	buf, err := NewContextBuffer(100, 2)
	if err != nil {
		t.Fatalf("NewContextBuffer failed: %v", err)
	}

	buf.Append("one")
	buf.Append("two")
	buf.Append("three")

	if got := buf.Render(); got != "two\nthree" {
		t.Errorf("Expected entry bound to evict oldest, got %q", got)
	}
}

func TestContextBufferRefusesOversizeEntry(t *testing.T) {
	buf, err := NewContextBuffer(5, 10)
	if err != nil {
		t.Fatalf("NewContextBuffer failed: %v", err)
	}

	buf.Append("short")
	buf.Append("way too long for the budget")

	if buf.Len() != 1 || buf.Render() != "short" {
		t.Errorf("Expected oversize entry refused, buffer holds %q", buf.Render())
	}
}

func TestContextBufferCountsRunes(t *testing.T) {
	buf, err := NewContextBuffer(5, 10)
	if err != nil {
		t.Fatalf("NewContextBuffer failed: %v", err)
	}

	// Five runes, fifteen bytes; the budget counts runes.
	buf.Append("こんにちは")
	if buf.Len() != 1 {
		t.Fatal("Expected five-rune entry to fit a five-rune budget")
	}
	if buf.TotalChars() != 5 {
		t.Errorf("Expected 5 runes held, got %d", buf.TotalChars())
	}
}

func TestContextBufferEntriesAndClear(t *testing.T) {
	buf, err := NewContextBuffer(100, 10)
	if err != nil {
		t.Fatalf("NewContextBuffer failed: %v", err)
	}

	buf.Append("a")
	buf.Append("b")

	entries := buf.Entries()
	if len(entries) != 2 || entries[0].Seq >= entries[1].Seq {
		t.Errorf("Expected monotonic sequence numbers, got %v", entries)
	}

	buf.Clear()
	if buf.Len() != 0 || buf.TotalChars() != 0 || buf.Render() != "" {
		t.Error("Expected empty buffer after clear")
	}
}

func TestNewContextBufferRejectsNonPositiveBounds(t *testing.T) {
	if _, err := NewContextBuffer(0, 10); err == nil {
		t.Error("Expected error for zero char budget")
	}
	if _, err := NewContextBuffer(10, 0); err == nil {
		t.Error("Expected error for zero entry bound")
	}
}
