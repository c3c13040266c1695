// Package engine ties the block detection pipeline, identity tracker and
// context buffer together into one per-region controller and joins
// asynchronous provider results back onto block identities.
package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yomitori/yomitori/pkg/blockdetection"
	"github.com/yomitori/yomitori/pkg/blockdetection/colordetection"
	"github.com/yomitori/yomitori/pkg/blockdetection/tracking"
)

// Config holds one region's engine configuration
type Config struct {
	Detection blockdetection.DetectionConfig `json:"detection" toml:"detection"`
	Tracking  tracking.Config                `json:"tracking" toml:"tracking"`

	// MinContextChars is the source block length (runes) a block must
	// exceed for its translation to enter the context buffer
	MinContextChars int `json:"min_context_chars" toml:"min_context_chars"`

	// MaxContextChars and MaxContextEntries bound the context buffer
	MaxContextChars   int `json:"max_context_chars" toml:"max_context_chars"`
	MaxContextEntries int `json:"max_context_entries" toml:"max_context_entries"`

	// TargetLanguage is forwarded to the translation provider
	TargetLanguage string `json:"target_language" toml:"target_language"`

	// ColorMergeDistance is the LAB distance for color aggregation
	ColorMergeDistance float64 `json:"color_merge_distance" toml:"color_merge_distance"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		Detection:          blockdetection.DefaultDetectionConfig(),
		Tracking:           tracking.DefaultConfig(),
		MinContextChars:    DefaultMinContextChars,
		MaxContextChars:    DefaultMaxContextChars,
		MaxContextEntries:  DefaultMaxContextEntries,
		TargetLanguage:     "en",
		ColorMergeDistance: colordetection.DefaultMergeDistance,
	}
}

// EngineOption configures optional engine collaborators
type EngineOption func(*Engine)

// WithColorExtractor attaches an external color extraction capability
func WithColorExtractor(extractor ColorExtractor) EngineOption {
	return func(e *Engine) { e.colors = extractor }
}

// Engine owns the cross-cycle state of one tracked screen region. The
// tracker and context buffer are guarded by one mutex; the pipeline is
// pure per frame. Regions never share engines.
type Engine struct {
	config     Config
	pipeline   *blockdetection.Pipeline
	aggregator *colordetection.Aggregator
	ocr        OCRProvider
	translator TranslationProvider
	colors     ColorExtractor
	stats      Stats

	mu         sync.Mutex
	tracker    *tracking.Tracker
	contextBuf *ContextBuffer
	appliedSeq uint64

	captureSeq atomic.Uint64
	inflight   sync.WaitGroup
}

// New creates an engine for one region. Configuration problems are
// fatal here, never per-frame.
func New(config Config, ocr OCRProvider, translator TranslationProvider, opts ...EngineOption) (*Engine, error) {
	pipeline, err := blockdetection.NewPipelineFromConfig(config.Detection)
	if err != nil {
		return nil, err
	}
	tracker, err := tracking.NewTracker(config.Tracking)
	if err != nil {
		return nil, err
	}
	contextBuf, err := NewContextBuffer(config.MaxContextChars, config.MaxContextEntries)
	if err != nil {
		return nil, err
	}
	if config.MinContextChars < 0 {
		return nil, fmt.Errorf("min_context_chars must not be negative, got %d", config.MinContextChars)
	}

	e := &Engine{
		config:     config,
		pipeline:   pipeline,
		aggregator: colordetection.NewAggregator(config.ColorMergeDistance),
		ocr:        ocr,
		translator: translator,
		tracker:    tracker,
		contextBuf: contextBuf,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Stats returns the engine's observability counters
func (e *Engine) Stats() StatsSnapshot {
	return e.stats.Snapshot()
}

// Snapshot returns the current tracked blocks for rendering
func (e *Engine) Snapshot() []tracking.TrackedBlock {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Snapshot()
}

// Context returns the current context string, oldest to newest
func (e *Engine) Context() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contextBuf.Render()
}

// ClearContext drops the context history, e.g. on scene change
func (e *Engine) ClearContext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contextBuf.Clear()
}

// Reset drops all identities and context, rebuilding from scratch as if
// freshly started.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tracker.Reset()
	e.contextBuf.Clear()
}

// RunCycle executes one capture cycle: OCR, block pipeline, identity
// tracking, and asynchronous dispatch of any settled untranslated
// blocks. Provider failures are non-fatal; the affected blocks stay in
// their last state and are retried next cycle.
func (e *Engine) RunCycle(ctx context.Context, capture CaptureFunc) error {
	seq := e.captureSeq.Add(1)

	img, err := capture(ctx)
	if err != nil {
		e.stats.providerErrors.Add(1)
		return fmt.Errorf("capture failed: %w", err)
	}

	detections, err := e.ocr.Recognize(ctx, img)
	if err != nil {
		e.stats.providerErrors.Add(1)
		slog.Warn("ocr provider failed, retrying next cycle", "error", err)
		return nil
	}

	req, _ := e.advanceFrame(seq, detections, func(blocks []blockdetection.Block) {
		e.extractColors(ctx, img, blocks)
	})
	if req != nil {
		e.inflight.Add(1)
		go func() {
			defer e.inflight.Done()
			e.dispatch(ctx, *req)
		}()
	}
	return nil
}

// ProcessFrame runs one cycle on pre-recorded detections with a
// synchronous translation round trip. Used by replay and tests, where
// determinism matters more than latency.
func (e *Engine) ProcessFrame(ctx context.Context, detections []blockdetection.TextDetection) ([]tracking.TrackedBlock, blockdetection.FrameStats) {
	seq := e.captureSeq.Add(1)
	req, frameStats := e.advanceFrame(seq, detections, nil)
	if req != nil {
		e.dispatch(ctx, *req)
	}
	return e.Snapshot(), frameStats
}

// advanceFrame runs the pure pipeline and then the tracker transition
// under the region mutex, returning the translation request to dispatch,
// if any. Cycles that lost the race against a newer cycle are discarded.
func (e *Engine) advanceFrame(
	seq uint64,
	detections []blockdetection.TextDetection,
	attachColors func([]blockdetection.Block),
) (*TranslationRequest, blockdetection.FrameStats) {
	blocks, frameStats := e.pipeline.Process(detections)
	e.stats.malformedDetections.Add(uint64(frameStats.Malformed))
	e.stats.overlapDiscarded.Add(uint64(frameStats.OverlapDiscarded))
	e.stats.sizeDropped.Add(uint64(frameStats.SizeDropped))

	if attachColors != nil {
		attachColors(blocks)
	}
	for i := range blocks {
		e.aggregator.AggregateBlock(&blocks[i])
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if seq <= e.appliedSeq {
		// A newer cycle already advanced the tracker while this one was
		// suspended in OCR; its blocks describe a superseded frame.
		e.stats.supersededCycles.Add(1)
		slog.Debug("discarding superseded cycle", "seq", seq, "applied", e.appliedSeq)
		return nil, frameStats
	}
	e.appliedSeq = seq

	e.tracker.Update(blocks)

	pending := e.tracker.SettledUntranslated()
	if len(pending) == 0 {
		return nil, frameStats
	}

	req := TranslationRequest{
		Context:        e.contextBuf.Render(),
		TargetLanguage: e.config.TargetLanguage,
		Blocks:         make([]TranslationBlock, 0, len(pending)),
	}
	for _, tb := range pending {
		tb.DispatchedGeneration = tb.Generation
		req.Blocks = append(req.Blocks, TranslationBlock{
			ID:         tb.ID,
			Generation: tb.Generation,
			Text:       tb.Block.Text,
			Rect:       tb.Block.Rect,
		})
	}
	return &req, frameStats
}

// dispatch sends one translation request and joins the results back onto
// the blocks by identity and generation. Responses for identities whose
// generation moved on are discarded, never applied.
func (e *Engine) dispatch(ctx context.Context, req TranslationRequest) {
	resp, err := e.translator.Translate(ctx, req)
	if err != nil {
		e.stats.providerErrors.Add(1)
		slog.Warn("translation provider failed, retrying next cycle",
			"blocks", len(req.Blocks), "error", err)

		e.mu.Lock()
		for _, b := range req.Blocks {
			e.tracker.ClearDispatch(b.ID, b.Generation)
		}
		e.mu.Unlock()
		return
	}

	sent := make(map[uuid.UUID]TranslationBlock, len(req.Blocks))
	for _, b := range req.Blocks {
		sent[b.ID] = b
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, result := range resp.Results {
		dispatched, known := sent[result.ID]
		if !known {
			e.stats.staleResponses.Add(1)
			continue
		}
		if !e.tracker.ApplyTranslation(result.ID, dispatched.Generation, result.Text) {
			e.stats.staleResponses.Add(1)
			continue
		}
		e.stats.translationsApplied.Add(1)

		if utf8.RuneCountInString(dispatched.Text) > e.config.MinContextChars {
			e.contextBuf.Append(result.Text)
		}
	}
}

// Run drives capture cycles on a repeating timer until the context is
// cancelled. Each cycle runs on its own goroutine so a cycle suspended
// in a provider call never blocks the next tick; the sequence check in
// advanceFrame keeps tracker updates monotonic.
func (e *Engine) Run(ctx context.Context, interval time.Duration, capture CaptureFunc) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.inflight.Wait()
			return ctx.Err()
		case <-ticker.C:
			e.inflight.Add(1)
			go func() {
				defer e.inflight.Done()
				if err := e.RunCycle(ctx, capture); err != nil {
					slog.Warn("capture cycle failed", "error", err)
				}
			}()
		}
	}
}

// extractColors asks the optional color extractor for block colors and
// attaches them by position. Failures attach nothing.
func (e *Engine) extractColors(ctx context.Context, img image.Image, blocks []blockdetection.Block) {
	if e.colors == nil || len(blocks) == 0 {
		return
	}

	rects := make([]blockdetection.Rect, len(blocks))
	for i, b := range blocks {
		rects[i] = b.Rect
	}

	pairs, err := e.colors.ExtractColors(ctx, img, rects)
	if err != nil {
		e.stats.providerErrors.Add(1)
		slog.Warn("color extraction failed", "error", err)
		return
	}
	for i := range blocks {
		if i >= len(pairs) {
			break
		}
		blocks[i].Foreground = pairs[i].Foreground
		blocks[i].Background = pairs[i].Background
	}
}
