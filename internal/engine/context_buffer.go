package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxContextChars is the default character budget of the
	// context buffer; lengths count runes so CJK text is not over-billed
	DefaultMaxContextChars = 2000

	// DefaultMaxContextEntries bounds the entry count independently of
	// the character budget
	DefaultMaxContextEntries = 50

	// DefaultMinContextChars filters out short UI fragments such as
	// button labels before they enter the context; only text strictly
	// longer than this qualifies
	DefaultMinContextChars = 4
)

// ContextEntry is one accepted text in the translation context history
type ContextEntry struct {
	Text   string `json:"text"`
	Length int    `json:"length"` // In runes
	Seq    uint64 `json:"seq"`    // Monotonic acceptance counter
}

// ContextBuffer keeps a bounded, ordered history of accepted block text
// supplied to the translation provider for continuity. Oldest entries
// are evicted first when either bound would be exceeded. The buffer is
// owned by one region's engine and is not safe for concurrent use.
type ContextBuffer struct {
	entries    []ContextEntry
	totalChars int
	maxChars   int
	maxEntries int
	seq        uint64
}

// NewContextBuffer creates a buffer bounded by a total rune budget and
// an entry count. Non-positive bounds are programmer errors.
func NewContextBuffer(maxChars, maxEntries int) (*ContextBuffer, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("context buffer char budget must be positive, got %d", maxChars)
	}
	if maxEntries <= 0 {
		return nil, fmt.Errorf("context buffer entry bound must be positive, got %d", maxEntries)
	}
	return &ContextBuffer{maxChars: maxChars, maxEntries: maxEntries}, nil
}

// Append adds an accepted text to the newest end, evicting from the
// oldest end until both bounds hold. Text longer than the whole budget
// leaves the buffer holding only that text's most recent predecessor
// state, i.e. the entry is refused.
func (b *ContextBuffer) Append(text string) {
	length := utf8.RuneCountInString(text)
	if length == 0 || length > b.maxChars {
		return
	}

	b.seq++
	b.entries = append(b.entries, ContextEntry{Text: text, Length: length, Seq: b.seq})
	b.totalChars += length

	for (b.totalChars > b.maxChars || len(b.entries) > b.maxEntries) && len(b.entries) > 0 {
		b.totalChars -= b.entries[0].Length
		b.entries = b.entries[1:]
	}
}

// Render returns the buffer contents as a single ordered context string,
// oldest to newest.
func (b *ContextBuffer) Render() string {
	if len(b.entries) == 0 {
		return ""
	}
	parts := make([]string, len(b.entries))
	for i, e := range b.entries {
		parts[i] = e.Text
	}
	return strings.Join(parts, "\n")
}

// Len returns the number of entries currently held
func (b *ContextBuffer) Len() int { return len(b.entries) }

// TotalChars returns the held rune count
func (b *ContextBuffer) TotalChars() int { return b.totalChars }

// Entries returns a copy of the current entries, oldest first
func (b *ContextBuffer) Entries() []ContextEntry {
	out := make([]ContextEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Clear drops all entries, e.g. on scene change
func (b *ContextBuffer) Clear() {
	b.entries = nil
	b.totalChars = 0
}
