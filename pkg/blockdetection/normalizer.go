package blockdetection

import (
	"log/slog"
	"math"
	"strings"
)

// Normalizer validates and cleans raw per-frame detections. Malformed
// entries are dropped, never fatal; the drop count is reported per frame
// for observability.
type Normalizer struct {
	rotationToleranceDeg float64
}

// NewNormalizer creates a normalizer with the given rotation tolerance
func NewNormalizer(rotationToleranceDeg float64) *Normalizer {
	return &Normalizer{rotationToleranceDeg: rotationToleranceDeg}
}

// Normalize returns the cleaned detection list for one frame and the
// number of detections dropped as malformed.
func (n *Normalizer) Normalize(detections []TextDetection) (cleaned []TextDetection, dropped int) {
	cleaned = make([]TextDetection, 0, len(detections))

	for _, det := range detections {
		if len(det.Vertices) == 4 {
			det.Rect = RectFromPoints(det.Vertices)
			det.RotationDeg = quadRotationDeg(det.Vertices)
			det.Rotated = math.Abs(det.RotationDeg) > n.rotationToleranceDeg
		}

		if strings.TrimSpace(det.Text) == "" {
			dropped++
			slog.Debug("dropping detection with empty text", "rect", det.Rect)
			continue
		}
		if det.Rect.Width <= 0 || det.Rect.Height <= 0 {
			dropped++
			slog.Debug("dropping detection with degenerate geometry",
				"rect", det.Rect, "text", det.Text)
			continue
		}
		if det.Confidence < 0 || det.Confidence > 1 {
			dropped++
			slog.Debug("dropping detection with out-of-range confidence",
				"confidence", det.Confidence, "text", det.Text)
			continue
		}

		cleaned = append(cleaned, det)
	}

	return cleaned, dropped
}

// quadRotationDeg measures the angle of the quad's top edge against the
// horizontal axis, normalized to (-45, 45] so that 90-degree-stepped
// quads count as axis-aligned.
func quadRotationDeg(vertices []Point) float64 {
	dx := vertices[1].X - vertices[0].X
	dy := vertices[1].Y - vertices[0].Y
	if dx == 0 && dy == 0 {
		return 0
	}

	deg := math.Atan2(dy, dx) * 180 / math.Pi
	for deg > 45 {
		deg -= 90
	}
	for deg <= -45 {
		deg += 90
	}
	return deg
}
