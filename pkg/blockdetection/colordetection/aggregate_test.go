package colordetection

import (
	"testing"

	"github.com/yomitori/yomitori/pkg/blockdetection"
)

func member(x, y, w, h float64, fg *blockdetection.ColorInfo) blockdetection.TextDetection {
	return blockdetection.TextDetection{
		Text:       "text",
		Rect:       blockdetection.NewRect(x, y, w, h),
		Foreground: fg,
	}
}

func TestAggregatePicksDominantColor(t *testing.T) {
	a := NewAggregator(DefaultMergeDistance)

	// Two nearly identical reds pool their weight and beat the single
	// heavier blue estimate.
	members := []blockdetection.TextDetection{
		member(0, 0, 10, 10, &blockdetection.ColorInfo{R: 200, G: 30, B: 30, Coverage: 1}),
		member(10, 0, 5, 10, &blockdetection.ColorInfo{R: 205, G: 32, B: 28, Coverage: 1}),
		member(20, 0, 12, 10, &blockdetection.ColorInfo{R: 20, G: 30, B: 220, Coverage: 1}),
	}

	fg, bg := a.Aggregate(members)
	if fg == nil {
		t.Fatal("Expected a foreground estimate")
	}
	if fg.R != 200 || fg.G != 30 || fg.B != 30 {
		t.Errorf("Expected the heavier red to represent the cluster, got %s", fg.Hex())
	}
	if bg != nil {
		t.Errorf("Expected no background estimate, got %s", bg.Hex())
	}

	// 150 of 270 total weight belongs to the red cluster.
	want := 150.0 / 270.0
	if diff := fg.Coverage - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Expected coverage %.4f, got %.4f", want, fg.Coverage)
	}
}

func TestAggregateNoEstimates(t *testing.T) {
	a := NewAggregator(DefaultMergeDistance)

	fg, bg := a.Aggregate([]blockdetection.TextDetection{
		member(0, 0, 10, 10, nil),
	})
	if fg != nil || bg != nil {
		t.Errorf("Expected nil estimates, got %v / %v", fg, bg)
	}
}

func TestAggregateBlockKeepsAttachedColors(t *testing.T) {
	a := NewAggregator(DefaultMergeDistance)

	attached := &blockdetection.ColorInfo{R: 1, G: 2, B: 3}
	block := &blockdetection.Block{
		Members: []blockdetection.TextDetection{
			member(0, 0, 10, 10, &blockdetection.ColorInfo{R: 200, G: 30, B: 30, Coverage: 1}),
		},
		Foreground: attached,
	}

	a.AggregateBlock(block)
	if block.Foreground != attached {
		t.Error("Expected extractor-attached foreground to survive aggregation")
	}
	if block.Background != nil {
		t.Error("Expected background to stay empty without estimates")
	}
}

func TestAggregateBlockFillsFromMembers(t *testing.T) {
	a := NewAggregator(DefaultMergeDistance)

	block := &blockdetection.Block{
		Members: []blockdetection.TextDetection{
			{
				Text:       "text",
				Rect:       blockdetection.NewRect(0, 0, 10, 10),
				Foreground: &blockdetection.ColorInfo{R: 250, G: 250, B: 250, Coverage: 0.8},
				Background: &blockdetection.ColorInfo{R: 10, G: 10, B: 10, Coverage: 0.9},
			},
		},
	}

	a.AggregateBlock(block)
	if block.Foreground == nil || block.Foreground.R != 250 {
		t.Errorf("Expected member foreground to fill in, got %v", block.Foreground)
	}
	if block.Background == nil || block.Background.R != 10 {
		t.Errorf("Expected member background to fill in, got %v", block.Background)
	}
}

func TestIsDark(t *testing.T) {
	if !IsDark(blockdetection.ColorInfo{R: 10, G: 10, B: 10}) {
		t.Error("Expected near-black to read as dark")
	}
	if IsDark(blockdetection.ColorInfo{R: 245, G: 245, B: 245}) {
		t.Error("Expected near-white to read as light")
	}
}
