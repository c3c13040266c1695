package blockdetection

import (
	"reflect"
	"testing"
)

func TestPipelineProcessCountsStages(t *testing.T) {
	p, err := NewPipeline()
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	detections := []TextDetection{
		det(0, 0, 20, 10, "Hello"),
		det(25, 0, 20, 10, "World"),
		{Text: "", Rect: NewRect(0, 40, 20, 10)}, // malformed
		det(200, 200, 5, 5, "."),                 // undersized block
		det(100, 100, 40, 12, "Container"),
	}

	blocks, stats := p.Process(detections)

	if stats.Input != 5 {
		t.Errorf("Expected 5 input, got %d", stats.Input)
	}
	if stats.Malformed != 1 {
		t.Errorf("Expected 1 malformed, got %d", stats.Malformed)
	}
	if stats.SizeDropped != 1 {
		t.Errorf("Expected 1 size-dropped, got %d", stats.SizeDropped)
	}
	if stats.OverlapDiscarded != 0 {
		t.Errorf("Expected no overlap discards, got %d", stats.OverlapDiscarded)
	}
	if stats.Blocks != len(blocks) {
		t.Errorf("Stats report %d blocks, pipeline returned %d", stats.Blocks, len(blocks))
	}
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d: %v", len(blocks), blocks)
	}
	if blocks[0].Text != "Hello World" {
		t.Errorf("Unexpected first block %q", blocks[0].Text)
	}
	if blocks[1].Text != "Container" {
		t.Errorf("Unexpected second block %q", blocks[1].Text)
	}
}

func TestPipelinePartitionsDetections(t *testing.T) {
	p, err := NewPipeline()
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	detections := []TextDetection{
		det(0, 0, 20, 10, "a"),
		det(25, 0, 20, 10, "b"),
		det(100, 0, 20, 10, "c"),
		det(0, 50, 20, 10, "d"),
	}

	blocks, _ := p.Process(detections)

	seen := map[string]int{}
	for _, b := range blocks {
		for _, m := range b.Members {
			seen[m.Text]++
		}
	}
	for _, d := range detections {
		if seen[d.Text] != 1 {
			t.Errorf("Detection %q appears in %d blocks, expected 1", d.Text, seen[d.Text])
		}
	}
}

func TestPipelineDeterministicAcrossInputOrder(t *testing.T) {
	p, err := NewPipeline()
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	detections := []TextDetection{
		det(0, 0, 20, 10, "a"),
		det(25, 0, 20, 10, "b"),
		det(0, 12, 20, 10, "c"),
		det(100, 100, 20, 10, "d"),
	}
	reversed := make([]TextDetection, len(detections))
	for i, d := range detections {
		reversed[len(detections)-1-i] = d
	}

	first, firstStats := p.Process(detections)
	second, secondStats := p.Process(reversed)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Pipeline output is input-order dependent:\n%v\nvs\n%v", first, second)
	}
	if firstStats != secondStats {
		t.Errorf("Pipeline stats are input-order dependent: %v vs %v", firstStats, secondStats)
	}
}

func TestPipelineOptions(t *testing.T) {
	p, err := NewPipeline(
		WithVerticalRatio(2.0),
		WithGroupingPower(0.25),
		WithMinBlockSize(4, 4),
		WithOverlapAllowedPercent(80),
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	config := p.Config()
	if config.VerticalRatio != 2.0 {
		t.Errorf("Expected vertical ratio 2.0, got %v", config.VerticalRatio)
	}
	if config.GroupingPower != 0.25 {
		t.Errorf("Expected grouping power 0.25, got %v", config.GroupingPower)
	}
	if config.MinBlockWidth != 4 || config.MinBlockHeight != 4 {
		t.Errorf("Expected min size 4x4, got %vx%v",
			config.MinBlockWidth, config.MinBlockHeight)
	}
}

func TestPipelineRejectsInvalidConfig(t *testing.T) {
	if _, err := NewPipeline(WithGroupingPower(1.5)); err == nil {
		t.Error("Expected error for grouping power above 1")
	}
	if _, err := NewPipeline(WithVerticalRatio(0)); err == nil {
		t.Error("Expected error for zero vertical ratio")
	}

	bad := DefaultDetectionConfig()
	bad.OverlapAllowedPercent = 150
	if _, err := NewPipelineFromConfig(bad); err == nil {
		t.Error("Expected error for overlap percent above 100")
	}
}

func TestSizeFilter(t *testing.T) {
	f := NewSizeFilter(10, 10)

	blocks := []Block{
		{Rect: NewRect(0, 0, 20, 12), Text: "keep"},
		{Rect: NewRect(0, 0, 5, 12), Text: "narrow"},
		{Rect: NewRect(0, 0, 20, 5), Text: "short"},
	}

	kept, dropped := f.Filter(blocks)
	if dropped != 2 {
		t.Errorf("Expected 2 dropped, got %d", dropped)
	}
	if len(kept) != 1 || kept[0].Text != "keep" {
		t.Errorf("Wrong survivors: %v", kept)
	}
}
