package replay

import (
	"strings"
	"testing"
)

func TestReadFramesMixedShapes(t *testing.T) {
	input := strings.Join([]string{
		`{"texts":[{"text":"こんにちは","x":10,"y":20,"width":100,"height":24,"confidence":0.93,"text_orientation":"vertical","foreground_color":{"rgb":[240,240,240],"hex":"#f0f0f0","percentage":62.5}}]}`,
		``,
		`[{"text":"Hello","x":0,"y":0,"width":50,"height":12}]`,
	}, "\n")

	frames, err := ReadFrames(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}

	first := frames[0]
	if first.Index != 0 || len(first.Detections) != 1 {
		t.Fatalf("Unexpected first frame: %+v", first)
	}

	det := first.Detections[0]
	if det.Text != "こんにちは" {
		t.Errorf("Wrong text: %q", det.Text)
	}
	if det.Rect.X != 10 || det.Rect.Y != 20 || det.Rect.Width != 100 || det.Rect.Height != 24 {
		t.Errorf("Wrong rect: %v", det.Rect)
	}
	if det.Confidence != 0.93 {
		t.Errorf("Wrong confidence: %v", det.Confidence)
	}
	if det.Hint != "vertical" {
		t.Errorf("Wrong orientation hint: %q", det.Hint)
	}
	if det.Foreground == nil {
		t.Fatal("Expected foreground color")
	}
	if det.Foreground.R != 240 || det.Foreground.Coverage != 0.625 {
		t.Errorf("Wrong foreground: %+v", det.Foreground)
	}
	if det.Background != nil {
		t.Errorf("Expected no background color, got %+v", det.Background)
	}

	second := frames[1]
	if second.Index != 1 || second.Detections[0].Text != "Hello" {
		t.Errorf("Unexpected second frame: %+v", second)
	}
}

func TestReadFramesConvertsVertices(t *testing.T) {
	input := `[{"text":"quad","x":0,"y":0,"width":10,"height":10,"vertices":[[0,0],[10,1],[10,11],[0,10]]}]`

	frames, err := ReadFrames(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}

	det := frames[0].Detections[0]
	if len(det.Vertices) != 4 {
		t.Fatalf("Expected 4 vertices, got %d", len(det.Vertices))
	}
	if det.Vertices[1].X != 10 || det.Vertices[1].Y != 1 {
		t.Errorf("Wrong vertex conversion: %v", det.Vertices)
	}
}

func TestReadFramesReportsBadLine(t *testing.T) {
	input := "[{\"text\":\"ok\",\"x\":0,\"y\":0,\"width\":10,\"height\":10}]\n{not json}"

	_, err := ReadFrames(strings.NewReader(input))
	if err == nil {
		t.Fatal("Expected error for malformed line")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected the line number in the error, got %v", err)
	}
}

func TestReadFramesEmptyInput(t *testing.T) {
	frames, err := ReadFrames(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadFrames failed: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("Expected no frames, got %d", len(frames))
	}
}

func TestWireColorClamping(t *testing.T) {
	c := &wireColor{RGB: []int{-5, 300, 128}, Percentage: 50}
	info := c.toColorInfo()
	if info.R != 0 || info.G != 255 || info.B != 128 {
		t.Errorf("Expected clamped channels, got %+v", info)
	}

	var missing *wireColor
	if missing.toColorInfo() != nil {
		t.Error("Expected nil for absent color")
	}
}
