package blockdetection

import "log/slog"

// SizeFilter drops blocks below the configured minimum width or height.
// Sub-minimum blocks are OCR noise or furigana-style annotations that
// would pollute translation requests.
type SizeFilter struct {
	minWidth  float64
	minHeight float64
}

// NewSizeFilter creates a size filter with the given minimum bounds
func NewSizeFilter(minWidth, minHeight float64) *SizeFilter {
	return &SizeFilter{minWidth: minWidth, minHeight: minHeight}
}

// Filter returns the blocks meeting both minimum bounds and the number
// dropped
func (f *SizeFilter) Filter(blocks []Block) (kept []Block, dropped int) {
	kept = make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Rect.Width < f.minWidth || b.Rect.Height < f.minHeight {
			dropped++
			slog.Debug("dropping undersized block", "block", b.String())
			continue
		}
		kept = append(kept, b)
	}
	return kept, dropped
}
