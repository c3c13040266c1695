// Package replay decodes recorded OCR output so the engine can be fed
// captured frames without a live capture or OCR backend.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/yomitori/yomitori/pkg/blockdetection"
)

// Frame is one recorded capture cycle's detections
type Frame struct {
	Index      int
	Detections []blockdetection.TextDetection
}

// wireColor mirrors the OCR service color record
type wireColor struct {
	RGB        []int   `json:"rgb"`
	Hex        string  `json:"hex"`
	Percentage float64 `json:"percentage"`
}

// wireDetection mirrors the OCR service text record: flat geometry plus
// optional vertices, confidence, colors and orientation.
type wireDetection struct {
	Text            string      `json:"text"`
	X               float64     `json:"x"`
	Y               float64     `json:"y"`
	Width           float64     `json:"width"`
	Height          float64     `json:"height"`
	Vertices        [][]float64 `json:"vertices,omitempty"`
	Confidence      float64     `json:"confidence,omitempty"`
	Foreground      *wireColor  `json:"foreground_color,omitempty"`
	Background      *wireColor  `json:"background_color,omitempty"`
	TextOrientation string      `json:"text_orientation,omitempty"`
}

// wireFrame accepts either the OCR service response shape or a bare
// detection list.
type wireFrame struct {
	Texts []wireDetection `json:"texts"`
}

// ReadFrames decodes one frame per line from JSONL input. Lines may be
// a bare detection array or an object with a "texts" field.
func ReadFrames(r io.Reader) ([]Frame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var frames []Frame
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		detections, err := decodeLine([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("decoding frame at line %d: %w", lineNo, err)
		}
		frames = append(frames, Frame{Index: len(frames), Detections: detections})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading frames: %w", err)
	}
	return frames, nil
}

func decodeLine(line []byte) ([]blockdetection.TextDetection, error) {
	var wires []wireDetection
	if line[0] == '[' {
		if err := json.Unmarshal(line, &wires); err != nil {
			return nil, err
		}
	} else {
		var frame wireFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			return nil, err
		}
		wires = frame.Texts
	}

	detections := make([]blockdetection.TextDetection, 0, len(wires))
	for _, w := range wires {
		detections = append(detections, w.toDetection())
	}
	return detections, nil
}

func (w wireDetection) toDetection() blockdetection.TextDetection {
	det := blockdetection.TextDetection{
		Text:       w.Text,
		Rect:       blockdetection.NewRect(w.X, w.Y, w.Width, w.Height),
		Confidence: w.Confidence,
		Hint:       w.TextOrientation,
		Foreground: w.Foreground.toColorInfo(),
		Background: w.Background.toColorInfo(),
	}

	if len(w.Vertices) == 4 {
		det.Vertices = make([]blockdetection.Point, 4)
		for i, v := range w.Vertices {
			if len(v) >= 2 {
				det.Vertices[i] = blockdetection.Point{X: v[0], Y: v[1]}
			}
		}
	}
	return det
}

func (c *wireColor) toColorInfo() *blockdetection.ColorInfo {
	if c == nil || len(c.RGB) < 3 {
		return nil
	}
	return &blockdetection.ColorInfo{
		R:        clampByte(c.RGB[0]),
		G:        clampByte(c.RGB[1]),
		B:        clampByte(c.RGB[2]),
		Coverage: c.Percentage / 100,
	}
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
