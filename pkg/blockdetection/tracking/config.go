package tracking

import "fmt"

// Tracking Configuration Constants

const (
	// DefaultMatchIoU is the minimum bbox IoU for a current-frame block
	// to inherit a previous-frame identity
	DefaultMatchIoU = 0.5

	// DefaultSettleFrames is the number of consecutive unchanged frames
	// before a block transitions Forming -> Settled
	DefaultSettleFrames = 3

	// DefaultCenterEpsilon is the bbox center movement in pixels below
	// which a block still counts as geometrically unchanged
	DefaultCenterEpsilon = 2.0

	// DefaultGraceFrames is how many consecutive missed frames an
	// identity survives before turning Stale; this tolerates
	// single-frame OCR dropouts without flicker
	DefaultGraceFrames = 2
)

// Config holds the identity tracker's tunable parameters
type Config struct {
	// MatchIoU is the minimum IoU for identity matching (0.0-1.0)
	MatchIoU float64 `json:"match_iou" toml:"match_iou"`

	// SettleFrames is the unchanged-frame count required to settle
	SettleFrames int `json:"settle_frames" toml:"settle_frames"`

	// CenterEpsilon is the allowed bbox center drift in pixels
	CenterEpsilon float64 `json:"center_epsilon" toml:"center_epsilon"`

	// GraceFrames is the missed-frame allowance before removal
	GraceFrames int `json:"grace_frames" toml:"grace_frames"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		MatchIoU:      DefaultMatchIoU,
		SettleFrames:  DefaultSettleFrames,
		CenterEpsilon: DefaultCenterEpsilon,
		GraceFrames:   DefaultGraceFrames,
	}
}

// Validate rejects configurations outside the tracker's contract
func (c Config) Validate() error {
	if c.MatchIoU <= 0 || c.MatchIoU > 1 {
		return fmt.Errorf("match_iou must be in (0,1], got %v", c.MatchIoU)
	}
	if c.SettleFrames < 1 {
		return fmt.Errorf("settle_frames must be at least 1, got %d", c.SettleFrames)
	}
	if c.CenterEpsilon < 0 {
		return fmt.Errorf("center_epsilon must not be negative, got %v", c.CenterEpsilon)
	}
	if c.GraceFrames < 0 {
		return fmt.Errorf("grace_frames must not be negative, got %d", c.GraceFrames)
	}
	return nil
}
