package blockdetection

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// ============================================================================
// Geometry Types
// ============================================================================

// Point represents a single coordinate in pixel space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in pixel space
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NewRect creates a rectangle from position and size
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// RectFromPoints creates the smallest axis-aligned rectangle covering all points
func RectFromPoints(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// MaxX returns the right edge of the rectangle
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge of the rectangle
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Area returns the rectangle area; degenerate rectangles have zero area
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Center returns the center point of the rectangle
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Intersect returns the intersection of two rectangles.
// The zero Rect is returned when they do not overlap.
func (r Rect) Intersect(other Rect) Rect {
	x1 := math.Max(r.X, other.X)
	y1 := math.Max(r.Y, other.Y)
	x2 := math.Min(r.MaxX(), other.MaxX())
	y2 := math.Min(r.MaxY(), other.MaxY())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Union returns the smallest rectangle covering both rectangles
func (r Rect) Union(other Rect) Rect {
	if r.Area() == 0 && r.Width == 0 && r.Height == 0 {
		return other
	}
	x1 := math.Min(r.X, other.X)
	y1 := math.Min(r.Y, other.Y)
	x2 := math.Max(r.MaxX(), other.MaxX())
	y2 := math.Max(r.MaxY(), other.MaxY())
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// IoU returns the intersection-over-union ratio of two rectangles (0.0-1.0)
func (r Rect) IoU(other Rect) float64 {
	inter := r.Intersect(other).Area()
	if inter == 0 {
		return 0
	}
	union := r.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// String returns a string representation of the rectangle
func (r Rect) String() string {
	return fmt.Sprintf("Rect(%.1f,%.1f %.1fx%.1f)", r.X, r.Y, r.Width, r.Height)
}

// ============================================================================
// Detection Types
// ============================================================================

// Orientation is the reading orientation of a detection or block
type Orientation int

const (
	// Horizontal text reads left-to-right, lines top-to-bottom
	Horizontal Orientation = iota

	// Vertical text reads top-to-bottom, columns right-to-left
	Vertical
)

// String returns a string representation of the orientation
func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseOrientation maps an OCR provider orientation hint to an Orientation.
// Unknown values report ok=false and the caller derives the orientation.
func ParseOrientation(s string) (o Orientation, ok bool) {
	switch strings.ToLower(s) {
	case "horizontal":
		return Horizontal, true
	case "vertical":
		return Vertical, true
	default:
		return Horizontal, false
	}
}

// ColorInfo is a color estimate for a text region with its pixel coverage
type ColorInfo struct {
	R        uint8   `json:"r"`
	G        uint8   `json:"g"`
	B        uint8   `json:"b"`
	Coverage float64 `json:"coverage"` // Fraction of region pixels matching this color (0.0-1.0)
}

// Hex returns the color as an #rrggbb string
func (c ColorInfo) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// TextDetection is one OCR-reported span of text with geometry.
// Detections are created fresh every capture cycle and never persisted.
type TextDetection struct {
	Text       string     `json:"text"`
	Rect       Rect       `json:"rect"`
	Vertices   []Point    `json:"vertices,omitempty"`   // Optional rotated quad, 4 points
	Confidence float64    `json:"confidence,omitempty"` // 0.0-1.0, zero when the provider omits it
	Foreground *ColorInfo `json:"foreground_color,omitempty"`
	Background *ColorInfo `json:"background_color,omitempty"`
	Hint       string     `json:"text_orientation,omitempty"` // Optional provider orientation hint

	// RotationDeg is the deviation of the detection quad from axis
	// alignment, filled by the normalizer. Rotated reports whether it
	// exceeds the configured tolerance.
	RotationDeg float64 `json:"rotation_deg,omitempty"`
	Rotated     bool    `json:"rotated,omitempty"`
}

// GlyphSize returns the smaller side of the detection, a proxy for the
// glyph size that is stable across horizontal and vertical text.
func (d TextDetection) GlyphSize() float64 {
	return math.Min(d.Rect.Width, d.Rect.Height)
}

// ============================================================================
// Block Types
// ============================================================================

// Block is a clustered group of detections representing one translatable
// unit, such as a speech-bubble line or paragraph. Blocks produced by the
// pipeline carry no identity; identities are assigned by the tracker.
type Block struct {
	Members     []TextDetection `json:"members"` // In reading order
	Rect        Rect            `json:"rect"`    // Union of member rects
	Orientation Orientation     `json:"orientation"`
	Text        string          `json:"text"` // Member text joined in reading order
	Confidence  float64         `json:"confidence"`
	Foreground  *ColorInfo      `json:"foreground_color,omitempty"`
	Background  *ColorInfo      `json:"background_color,omitempty"`

	// ordinal is the deterministic position of the block in the frame's
	// (y, x)-sorted candidate list, used for overlap tie-breaking.
	ordinal int
}

// Ordinal returns the block's deterministic frame-local position
func (b Block) Ordinal() int { return b.ordinal }

// TextLength returns the block text length in runes
func (b Block) TextLength() int {
	return utf8.RuneCountInString(b.Text)
}

// String returns a string representation of the block
func (b Block) String() string {
	return fmt.Sprintf("Block[%s %s members=%d text=%q]",
		b.Rect, b.Orientation, len(b.Members), b.Text)
}

// RegionProposal is a raw text-region proposal from a detection-only
// collaborator, such as a learned region detector. Proposals carry no
// text and are deduplicated with the same overlap rule as blocks.
type RegionProposal struct {
	Rect       Rect    `json:"rect"`
	Confidence float64 `json:"confidence"`
	Label      string  `json:"label,omitempty"`
}
