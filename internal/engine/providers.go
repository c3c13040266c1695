package engine

import (
	"context"
	"image"

	"github.com/google/uuid"

	"github.com/yomitori/yomitori/pkg/blockdetection"
)

// OCRProvider is the consumed OCR capability: given an image it returns
// raw text detections. Orientation hints and color fields may be absent;
// the engine derives or skips them.
type OCRProvider interface {
	Recognize(ctx context.Context, img image.Image) ([]blockdetection.TextDetection, error)
}

// CaptureFunc produces the current image of a tracked screen region.
// Capture itself is an external collaborator.
type CaptureFunc func(ctx context.Context) (image.Image, error)

// TranslationBlock is one settled block inside a translation request
type TranslationBlock struct {
	ID         uuid.UUID           `json:"id"`
	Generation uint64              `json:"generation"`
	Text       string              `json:"text"`
	Rect       blockdetection.Rect `json:"bbox"`
}

// TranslationRequest carries the settled blocks of one region together
// with the accumulated context string.
type TranslationRequest struct {
	Blocks         []TranslationBlock `json:"blocks"`
	Context        string             `json:"context"`
	TargetLanguage string             `json:"target_language"`
}

// TranslationResult is a per-block translated text keyed by block ID.
// A provider that restructures blocks simply returns text for the IDs it
// was given; restructuring surfaces as new identities on the next cycle.
type TranslationResult struct {
	ID   uuid.UUID `json:"id"`
	Text string    `json:"text"`
}

// TranslationResponse is the provider's answer to one request
type TranslationResponse struct {
	Results []TranslationResult `json:"results"`
}

// TranslationProvider is the consumed translation capability
type TranslationProvider interface {
	Translate(ctx context.Context, req TranslationRequest) (TranslationResponse, error)
}

// ColorPair is a foreground/background estimate for one region
type ColorPair struct {
	Foreground *blockdetection.ColorInfo `json:"foreground_color,omitempty"`
	Background *blockdetection.ColorInfo `json:"background_color,omitempty"`
}

// ColorExtractor is an optional capability that estimates block colors
// from the captured image, keyed by bbox. Absence attaches no color.
type ColorExtractor interface {
	ExtractColors(ctx context.Context, img image.Image, rects []blockdetection.Rect) ([]ColorPair, error)
}
