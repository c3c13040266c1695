package blockdetection

// Classifier labels detections and blocks as horizontal or vertical from
// their aspect ratio. The ratio threshold is tunable; zero-width
// geometry maps to vertical as the degenerate-safe default.
type Classifier struct {
	verticalRatio float64
}

// NewClassifier creates a classifier with the given h/w ratio threshold
func NewClassifier(verticalRatio float64) *Classifier {
	return &Classifier{verticalRatio: verticalRatio}
}

// Classify returns the orientation for a width/height pair
func (c *Classifier) Classify(width, height float64) Orientation {
	if width <= 0 {
		return Vertical
	}
	if height/width > c.verticalRatio {
		return Vertical
	}
	return Horizontal
}

// ClassifyBlock returns the orientation voted by a grouped component:
// the union bbox decides, not individual members, so that a line of
// square glyphs does not fragment into mixed orientations.
func (c *Classifier) ClassifyBlock(union Rect) Orientation {
	return c.Classify(union.Width, union.Height)
}
