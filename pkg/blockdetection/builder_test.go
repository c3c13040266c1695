package blockdetection

import (
	"reflect"
	"testing"
)

func det(x, y, w, h float64, text string) TextDetection {
	return TextDetection{Text: text, Rect: NewRect(x, y, w, h), Confidence: 0.9}
}

func TestBuildGroupsSameLine(t *testing.T) {
	b := NewBuilder(DefaultDetectionConfig())

	blocks := b.Build([]TextDetection{
		det(0, 0, 20, 10, "Hello"),
		det(25, 0, 20, 10, "World"),
		det(100, 100, 20, 10, "Alone"),
	})

	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "Hello World" {
		t.Errorf("Expected joined line %q, got %q", "Hello World", blocks[0].Text)
	}
	if blocks[1].Text != "Alone" {
		t.Errorf("Expected isolated block %q, got %q", "Alone", blocks[1].Text)
	}
	if blocks[0].Ordinal() != 0 || blocks[1].Ordinal() != 1 {
		t.Errorf("Expected (y,x)-sorted ordinals, got %d and %d",
			blocks[0].Ordinal(), blocks[1].Ordinal())
	}
}

func TestBuildGroupsTransitively(t *testing.T) {
	b := NewBuilder(DefaultDetectionConfig())

	// The endpoints are far apart but chain through the middle detection.
	blocks := b.Build([]TextDetection{
		det(0, 0, 20, 10, "one"),
		det(26, 0, 20, 10, "two"),
		det(52, 0, 20, 10, "three"),
	})

	if len(blocks) != 1 {
		t.Fatalf("Expected 1 chained block, got %d", len(blocks))
	}
	if blocks[0].Text != "one two three" {
		t.Errorf("Wrong reading order: %q", blocks[0].Text)
	}
	if len(blocks[0].Members) != 3 {
		t.Errorf("Expected 3 members, got %d", len(blocks[0].Members))
	}
}

func TestBuildMultiLineReadingOrder(t *testing.T) {
	b := NewBuilder(DefaultDetectionConfig())

	blocks := b.Build([]TextDetection{
		det(25, 12, 20, 10, "now"),
		det(0, 0, 20, 10, "Hello"),
		det(25, 0, 20, 10, "World"),
		det(0, 12, 20, 10, "Bye"),
	})

	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Orientation != Horizontal {
		t.Errorf("Expected horizontal block, got %v", blocks[0].Orientation)
	}
	if blocks[0].Text != "Hello World\nBye now" {
		t.Errorf("Wrong line order: %q", blocks[0].Text)
	}
}

func TestBuildVerticalColumnsRightToLeft(t *testing.T) {
	b := NewBuilder(DefaultDetectionConfig())

	blocks := b.Build([]TextDetection{
		det(0, 0, 10, 40, "さよ"),
		det(15, 0, 10, 40, "こん"),
	})

	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Orientation != Vertical {
		t.Errorf("Expected vertical block, got %v", blocks[0].Orientation)
	}
	// Vertical text reads the rightmost column first.
	if blocks[0].Text != "こん\nさよ" {
		t.Errorf("Wrong column order: %q", blocks[0].Text)
	}
}

func TestBuildHintedOrientationOverridesGeometry(t *testing.T) {
	b := NewBuilder(DefaultDetectionConfig())

	// The union bbox is wide (geometrically horizontal), but both
	// members are hinted vertical by the provider.
	d1 := det(0, 0, 20, 20, "こん")
	d1.Hint = "vertical"
	d2 := det(22, 0, 20, 20, "にちは")
	d2.Hint = "vertical"

	blocks := b.Build([]TextDetection{d1, d2})
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Orientation != Vertical {
		t.Errorf("Expected hinted majority to win, got %v", blocks[0].Orientation)
	}
	// Vertical reading order starts at the rightmost column.
	if blocks[0].Text != "にちは\nこん" {
		t.Errorf("Wrong column order: %q", blocks[0].Text)
	}
}

func TestBuildMinorityHintFallsBackToGeometry(t *testing.T) {
	b := NewBuilder(DefaultDetectionConfig())

	// One hinted member of two is not a majority; the union bbox decides.
	d1 := det(0, 0, 20, 20, "こん")
	d1.Hint = "vertical"
	d2 := det(22, 0, 20, 20, "にちは")

	blocks := b.Build([]TextDetection{d1, d2})
	if len(blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Orientation != Horizontal {
		t.Errorf("Expected geometry fallback without a hinted majority, got %v",
			blocks[0].Orientation)
	}
	if blocks[0].Text != "こんにちは" {
		t.Errorf("Wrong reading order: %q", blocks[0].Text)
	}
}

func TestJoinRunText(t *testing.T) {
	tests := []struct {
		name     string
		texts    []string
		expected string
	}{
		{"latin words", []string{"Hello", "World"}, "Hello World"},
		{"digits and word", []string{"42", "px"}, "42 px"},
		{"cjk glyphs", []string{"こん", "にちは"}, "こんにちは"},
		{"latin then cjk", []string{"Hello", "世界"}, "Hello世界"},
		{"punctuation boundary", []string{"wait", "..."}, "wait..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := make([]TextDetection, len(tt.texts))
			for i, s := range tt.texts {
				run[i] = TextDetection{Text: s}
			}
			if got := joinRunText(run); got != tt.expected {
				t.Errorf("joinRunText(%v) = %q, expected %q", tt.texts, got, tt.expected)
			}
		})
	}
}

func TestBuildDeterministicAcrossInputOrder(t *testing.T) {
	b := NewBuilder(DefaultDetectionConfig())

	detections := []TextDetection{
		det(0, 0, 20, 10, "a"),
		det(25, 0, 20, 10, "b"),
		det(0, 12, 20, 10, "c"),
		det(100, 100, 20, 10, "d"),
		det(126, 100, 20, 10, "e"),
	}

	reversed := make([]TextDetection, len(detections))
	for i, d := range detections {
		reversed[len(detections)-1-i] = d
	}

	first := b.Build(detections)
	second := b.Build(reversed)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Build is input-order dependent:\n%v\nvs\n%v", first, second)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	b := NewBuilder(DefaultDetectionConfig())
	if blocks := b.Build(nil); blocks != nil {
		t.Errorf("Expected nil for empty input, got %v", blocks)
	}
}

func TestMedianGlyphSize(t *testing.T) {
	members := []TextDetection{
		det(0, 0, 20, 10, "a"),
		det(0, 0, 20, 14, "b"),
		det(0, 0, 20, 30, "c"),
	}
	if got := medianGlyphSize(members); got != 14 {
		t.Errorf("Expected median 14, got %v", got)
	}

	even := members[:2]
	if got := medianGlyphSize(even); got != 12 {
		t.Errorf("Expected median 12, got %v", got)
	}
}
