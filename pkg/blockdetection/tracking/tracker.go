package tracking

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/yomitori/yomitori/pkg/blockdetection"
)

// State is the lifecycle state of a tracked block identity
type State int

const (
	// Forming means the block's content is still churning; translating
	// it now would waste requests and flicker
	Forming State = iota

	// Settled means the block has been stable long enough to translate
	Settled

	// Stale means the identity vanished past its grace period and is
	// about to be removed
	Stale
)

// String returns a string representation of the state
func (s State) String() string {
	switch s {
	case Settled:
		return "settled"
	case Stale:
		return "stale"
	default:
		return "forming"
	}
}

// TrackedBlock is a block identity that persists across frames while the
// tracker recognizes it as the same on-screen text.
type TrackedBlock struct {
	ID    uuid.UUID            `json:"id"`
	Block blockdetection.Block `json:"block"`
	State State                `json:"state"`

	// SettleCount is the number of consecutive frames the block has
	// been observed geometrically and textually unchanged
	SettleCount int `json:"settle_count"`

	// Generation increments whenever the block's content changes; stale
	// asynchronous results are discarded on generation mismatch
	Generation uint64 `json:"generation"`

	// DispatchedGeneration is the generation last sent to the
	// translation provider; it suppresses duplicate requests while one
	// is still in flight
	DispatchedGeneration uint64 `json:"dispatched_generation,omitempty"`

	// Missed counts consecutive frames with no matching current block
	Missed int `json:"missed"`

	// TranslatedText is the latest accepted translation, empty until a
	// result for the current generation arrives
	TranslatedText string `json:"translated_text,omitempty"`
}

// String returns a string representation of the tracked block
func (t TrackedBlock) String() string {
	return fmt.Sprintf("TrackedBlock[%s %s gen=%d settle=%d %s]",
		shortID(t.ID), t.State, t.Generation, t.SettleCount, t.Block.Rect)
}

func shortID(id uuid.UUID) string {
	s := id.String()
	return s[:8]
}

// Tracker reconciles each frame's candidate blocks with the previous
// frame's identities by greatest bbox IoU and runs the
// Forming -> Settled -> Stale state machine per identity.
//
// A Tracker owns one region's cross-frame state and must be driven by a
// single writer; regions never share trackers.
type Tracker struct {
	config Config
	blocks []*TrackedBlock
	frame  uint64
}

// NewTracker creates a tracker from defaults; invalid configurations are
// programmer errors.
func NewTracker(config Config) (*Tracker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tracking config: %w", err)
	}
	return &Tracker{config: config}, nil
}

// Frame returns the number of frames observed so far
func (t *Tracker) Frame() uint64 { return t.frame }

// Update reconciles the current frame's blocks with the tracked
// identities and returns the live identities after the transition.
// Removed (Stale) identities are not returned.
func (t *Tracker) Update(current []blockdetection.Block) []*TrackedBlock {
	t.frame++

	matches := t.matchByIoU(current)

	next := make([]*TrackedBlock, 0, len(current))
	matchedPrev := make(map[int]bool, len(matches))

	for curIdx, block := range current {
		prevIdx, matched := matches[curIdx]
		if !matched {
			tb := &TrackedBlock{
				ID:         uuid.New(),
				Block:      block,
				State:      Forming,
				Generation: 1,
			}
			slog.Debug("new block identity", "block", tb.String())
			next = append(next, tb)
			continue
		}

		matchedPrev[prevIdx] = true
		tb := t.blocks[prevIdx]
		t.advance(tb, block)
		next = append(next, tb)
	}

	// Unmatched identities ride out the grace period before removal.
	for i, tb := range t.blocks {
		if matchedPrev[i] {
			continue
		}
		tb.Missed++
		if tb.Missed > t.config.GraceFrames {
			tb.State = Stale
			slog.Debug("block identity expired", "block", tb.String())
			continue
		}
		next = append(next, tb)
	}

	t.blocks = next
	return next
}

// advance applies one matched observation to an identity
func (t *Tracker) advance(tb *TrackedBlock, current blockdetection.Block) {
	prevCenter := tb.Block.Rect.Center()
	curCenter := current.Rect.Center()
	drift := math.Hypot(curCenter.X-prevCenter.X, curCenter.Y-prevCenter.Y)

	unchanged := current.Text == tb.Block.Text && drift < t.config.CenterEpsilon

	// Preserve colors resolved in earlier cycles when the new frame has none.
	if current.Foreground == nil {
		current.Foreground = tb.Block.Foreground
	}
	if current.Background == nil {
		current.Background = tb.Block.Background
	}

	textChanged := current.Text != tb.Block.Text
	tb.Block = current
	tb.Missed = 0

	if !unchanged {
		tb.SettleCount = 0
		if textChanged {
			tb.Generation++
			tb.TranslatedText = ""
		}
		if tb.State == Settled {
			// Content started changing again; re-settle before
			// re-translating.
			tb.State = Forming
			slog.Debug("settled block reverted to forming", "block", tb.String())
		}
		return
	}

	tb.SettleCount++
	if tb.State == Forming && tb.SettleCount >= t.config.SettleFrames {
		tb.State = Settled
		slog.Debug("block settled", "block", tb.String())
	}
}

// matchByIoU assigns each current block to at most one previous identity
// by greatest IoU above the match threshold. Pairs are considered in
// descending IoU order with (prev, current) index tie-breaks, so the
// assignment is deterministic.
func (t *Tracker) matchByIoU(current []blockdetection.Block) map[int]int {
	type pair struct {
		prev, cur int
		iou       float64
	}

	var pairs []pair
	for pi, tb := range t.blocks {
		for ci, block := range current {
			iou := tb.Block.Rect.IoU(block.Rect)
			if iou >= t.config.MatchIoU {
				pairs = append(pairs, pair{prev: pi, cur: ci, iou: iou})
			}
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].iou != pairs[j].iou {
			return pairs[i].iou > pairs[j].iou
		}
		if pairs[i].prev != pairs[j].prev {
			return pairs[i].prev < pairs[j].prev
		}
		return pairs[i].cur < pairs[j].cur
	})

	matches := make(map[int]int)
	prevTaken := make(map[int]bool)
	for _, p := range pairs {
		if prevTaken[p.prev] {
			continue
		}
		if _, taken := matches[p.cur]; taken {
			continue
		}
		matches[p.cur] = p.prev
		prevTaken[p.prev] = true
	}
	return matches
}

// ApplyTranslation attaches a translation result to an identity when its
// generation still matches. It reports false for unknown identities and
// generation mismatches; the caller counts discards for observability.
func (t *Tracker) ApplyTranslation(id uuid.UUID, generation uint64, text string) bool {
	for _, tb := range t.blocks {
		if tb.ID != id {
			continue
		}
		if tb.Generation != generation {
			slog.Debug("discarding stale translation",
				"block", tb.String(), "response_generation", generation)
			return false
		}
		tb.TranslatedText = text
		return true
	}
	return false
}

// SettledUntranslated returns the settled identities whose current
// generation has neither a translation nor a request in flight, in frame
// order. The caller marks DispatchedGeneration when it sends a request,
// so a slow provider is asked once per generation, not once per frame.
func (t *Tracker) SettledUntranslated() []*TrackedBlock {
	var out []*TrackedBlock
	for _, tb := range t.blocks {
		if tb.State == Settled && tb.TranslatedText == "" && tb.DispatchedGeneration != tb.Generation {
			out = append(out, tb)
		}
	}
	return out
}

// ClearDispatch reopens an identity for dispatch after a failed request,
// so the next frame retries its generation.
func (t *Tracker) ClearDispatch(id uuid.UUID, generation uint64) {
	for _, tb := range t.blocks {
		if tb.ID == id && tb.DispatchedGeneration == generation && tb.TranslatedText == "" {
			tb.DispatchedGeneration = 0
			return
		}
	}
}

// Snapshot returns copies of the live identities for rendering
func (t *Tracker) Snapshot() []TrackedBlock {
	out := make([]TrackedBlock, len(t.blocks))
	for i, tb := range t.blocks {
		out[i] = *tb
	}
	return out
}

// Reset drops all identities, e.g. on a scene change
func (t *Tracker) Reset() {
	t.blocks = nil
}
