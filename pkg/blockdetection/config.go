package blockdetection

import "fmt"

// Algorithm Configuration Constants
// These constants define the behavior of the block detection pipeline

// Orientation Classification
const (
	// DefaultVerticalRatio is the height/width ratio above which a
	// detection or block classifies as vertical text
	DefaultVerticalRatio = 1.5
)

// Spatial Clustering
const (
	// DefaultGroupingPower scales the clustering distance threshold (0.0-1.0)
	DefaultGroupingPower = 0.5

	// DefaultBaseGroupingDistance is the base clustering distance in
	// units of the median glyph size
	DefaultBaseGroupingDistance = 0.5

	// DefaultAlignmentTolerance is the minimum overlap ratio on the
	// orthogonal axis for two detections to share a line or column (0.0-1.0)
	DefaultAlignmentTolerance = 0.4

	// DefaultRotationToleranceDeg is the angle above which a detection
	// quad counts as rotated
	DefaultRotationToleranceDeg = 5.0
)

// Overlap Resolution
const (
	// DefaultOverlapAllowedPercent is the share of the smaller block's
	// area that may be covered by another block before it is discarded
	DefaultOverlapAllowedPercent = 50.0
)

// Size Filtering
const (
	// DefaultMinBlockWidth is the minimum block width in pixels
	DefaultMinBlockWidth = 10.0

	// DefaultMinBlockHeight is the minimum block height in pixels
	DefaultMinBlockHeight = 10.0
)

// DetectionConfig holds the tunable parameters of the block pipeline
type DetectionConfig struct {
	// VerticalRatio is the h/w threshold for vertical classification
	VerticalRatio float64 `json:"vertical_ratio" toml:"vertical_ratio"`

	// GroupingPower widens the clustering distance threshold (0.0-1.0)
	GroupingPower float64 `json:"grouping_power" toml:"grouping_power"`

	// BaseGroupingDistance is multiplied by (1 + GroupingPower) and the
	// median glyph size to obtain the clustering distance threshold
	BaseGroupingDistance float64 `json:"base_grouping_distance" toml:"base_grouping_distance"`

	// AlignmentTolerance is the minimum orthogonal overlap ratio for
	// two detections to be considered on the same line or column
	AlignmentTolerance float64 `json:"alignment_tolerance" toml:"alignment_tolerance"`

	// RotationToleranceDeg marks detections rotated beyond it
	RotationToleranceDeg float64 `json:"rotation_tolerance_deg" toml:"rotation_tolerance_deg"`

	// OverlapAllowedPercent is the overlap share (of the smaller block)
	// above which the smaller of two blocks is discarded
	OverlapAllowedPercent float64 `json:"overlap_allowed_percent" toml:"overlap_allowed_percent"`

	// MinBlockWidth and MinBlockHeight drop blocks below either bound
	MinBlockWidth  float64 `json:"min_block_width" toml:"min_block_width"`
	MinBlockHeight float64 `json:"min_block_height" toml:"min_block_height"`
}

// DefaultDetectionConfig returns a configuration with default values
func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		VerticalRatio:         DefaultVerticalRatio,
		GroupingPower:         DefaultGroupingPower,
		BaseGroupingDistance:  DefaultBaseGroupingDistance,
		AlignmentTolerance:    DefaultAlignmentTolerance,
		RotationToleranceDeg:  DefaultRotationToleranceDeg,
		OverlapAllowedPercent: DefaultOverlapAllowedPercent,
		MinBlockWidth:         DefaultMinBlockWidth,
		MinBlockHeight:        DefaultMinBlockHeight,
	}
}

// Validate rejects configurations outside the algorithm's contract.
// Validation failures are programmer errors and fatal at startup.
func (c DetectionConfig) Validate() error {
	if c.VerticalRatio <= 0 {
		return fmt.Errorf("vertical_ratio must be positive, got %v", c.VerticalRatio)
	}
	if c.GroupingPower < 0 || c.GroupingPower > 1 {
		return fmt.Errorf("grouping_power must be in [0,1], got %v", c.GroupingPower)
	}
	if c.BaseGroupingDistance <= 0 {
		return fmt.Errorf("base_grouping_distance must be positive, got %v", c.BaseGroupingDistance)
	}
	if c.AlignmentTolerance < 0 || c.AlignmentTolerance > 1 {
		return fmt.Errorf("alignment_tolerance must be in [0,1], got %v", c.AlignmentTolerance)
	}
	if c.OverlapAllowedPercent < 0 || c.OverlapAllowedPercent > 100 {
		return fmt.Errorf("overlap_allowed_percent must be in [0,100], got %v", c.OverlapAllowedPercent)
	}
	if c.MinBlockWidth < 0 || c.MinBlockHeight < 0 {
		return fmt.Errorf("minimum block size must not be negative, got %vx%v",
			c.MinBlockWidth, c.MinBlockHeight)
	}
	return nil
}

// GroupingDistance returns the clustering distance threshold for the
// given median glyph size
func (c DetectionConfig) GroupingDistance(medianGlyphSize float64) float64 {
	return c.BaseGroupingDistance * (1 + c.GroupingPower) * medianGlyphSize
}
