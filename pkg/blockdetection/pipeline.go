package blockdetection

import (
	"fmt"
	"log/slog"
	"time"
)

// FrameStats reports what one pipeline run dropped, for observability
type FrameStats struct {
	Input            int `json:"input"`
	Malformed        int `json:"malformed"`
	OverlapDiscarded int `json:"overlap_discarded"`
	SizeDropped      int `json:"size_dropped"`
	Blocks           int `json:"blocks"`
}

// Pipeline runs the per-frame block detection stages in order:
// normalize, cluster, resolve overlaps, filter by size. It is pure with
// respect to its inputs for one frame and holds no cross-frame state, so
// it must not be shared between overlapping frames of one region but may
// be reused across regions freely.
type Pipeline struct {
	config     DetectionConfig
	normalizer *Normalizer
	builder    *Builder
	resolver   *Resolver
	filter     *SizeFilter
}

// Option configures a Pipeline
type Option func(*DetectionConfig)

// WithVerticalRatio sets the h/w threshold for vertical classification
func WithVerticalRatio(ratio float64) Option {
	return func(c *DetectionConfig) { c.VerticalRatio = ratio }
}

// WithGroupingPower sets the clustering grouping power (0.0-1.0)
func WithGroupingPower(power float64) Option {
	return func(c *DetectionConfig) { c.GroupingPower = power }
}

// WithBaseGroupingDistance sets the base clustering distance
func WithBaseGroupingDistance(d float64) Option {
	return func(c *DetectionConfig) { c.BaseGroupingDistance = d }
}

// WithAlignmentTolerance sets the orthogonal alignment tolerance
func WithAlignmentTolerance(tol float64) Option {
	return func(c *DetectionConfig) { c.AlignmentTolerance = tol }
}

// WithOverlapAllowedPercent sets the allowed overlap percentage
func WithOverlapAllowedPercent(pct float64) Option {
	return func(c *DetectionConfig) { c.OverlapAllowedPercent = pct }
}

// WithMinBlockSize sets the minimum block width and height
func WithMinBlockSize(width, height float64) Option {
	return func(c *DetectionConfig) {
		c.MinBlockWidth = width
		c.MinBlockHeight = height
	}
}

// WithRotationTolerance sets the rotation tolerance in degrees
func WithRotationTolerance(deg float64) Option {
	return func(c *DetectionConfig) { c.RotationToleranceDeg = deg }
}

// NewPipeline creates a pipeline from defaults adjusted by options.
// An invalid resulting configuration is a programmer error.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	config := DefaultDetectionConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewPipelineFromConfig(config)
}

// NewPipelineFromConfig creates a pipeline from a complete configuration
func NewPipelineFromConfig(config DetectionConfig) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	return &Pipeline{
		config:     config,
		normalizer: NewNormalizer(config.RotationToleranceDeg),
		builder:    NewBuilder(config),
		resolver:   NewResolver(config.OverlapAllowedPercent),
		filter:     NewSizeFilter(config.MinBlockWidth, config.MinBlockHeight),
	}, nil
}

// Config returns the pipeline's configuration
func (p *Pipeline) Config() DetectionConfig {
	return p.config
}

// Process turns one frame of raw detections into candidate blocks.
// Every surviving detection belongs to exactly one block; discarded
// detections belong to none.
func (p *Pipeline) Process(detections []TextDetection) ([]Block, FrameStats) {
	start := time.Now()
	stats := FrameStats{Input: len(detections)}

	cleaned, malformed := p.normalizer.Normalize(detections)
	stats.Malformed = malformed

	blocks := p.builder.Build(cleaned)
	blocks, stats.OverlapDiscarded = p.resolver.Resolve(blocks)
	blocks, stats.SizeDropped = p.filter.Filter(blocks)
	stats.Blocks = len(blocks)

	slog.Debug("frame processed",
		"input", stats.Input,
		"malformed", stats.Malformed,
		"overlap_discarded", stats.OverlapDiscarded,
		"size_dropped", stats.SizeDropped,
		"blocks", stats.Blocks,
		"duration_ms", time.Since(start).Milliseconds())

	return blocks, stats
}
