package blockdetection

import "log/slog"

// Resolver removes redundant overlapping regions. When the intersection
// of two blocks exceeds the allowed share of the smaller block's area,
// the smaller block is discarded; this suppresses detectors proposing
// both a sub-line and its containing paragraph.
//
// The pairwise O(n^2) check is the contract: frames carry tens of
// blocks, and any spatial index must reproduce it exactly.
type Resolver struct {
	allowedPercent float64
}

// NewResolver creates an overlap resolver with the given allowed overlap
// percentage of the smaller region's area
func NewResolver(allowedPercent float64) *Resolver {
	return &Resolver{allowedPercent: allowedPercent}
}

// Resolve returns the surviving blocks and the number discarded.
// Ties on area break by lower confidence, then by larger frame ordinal,
// so resolution is deterministic.
func (r *Resolver) Resolve(blocks []Block) (kept []Block, discarded int) {
	dropped := make([]bool, len(blocks))

	for i := 0; i < len(blocks); i++ {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(blocks); j++ {
			if dropped[j] {
				continue
			}
			loser, ok := r.pickLoser(
				region{blocks[i].Rect, blocks[i].Confidence, blocks[i].ordinal},
				region{blocks[j].Rect, blocks[j].Confidence, blocks[j].ordinal},
			)
			if !ok {
				continue
			}
			if loser == 0 {
				dropped[i] = true
				slog.Debug("discarding overlapped block", "block", blocks[i].String())
				break
			}
			dropped[j] = true
			slog.Debug("discarding overlapped block", "block", blocks[j].String())
		}
	}

	kept = make([]Block, 0, len(blocks))
	for i, b := range blocks {
		if dropped[i] {
			discarded++
			continue
		}
		kept = append(kept, b)
	}
	return kept, discarded
}

// ResolveProposals applies the same overlap rule to raw region proposals
// from a detection-only collaborator.
func (r *Resolver) ResolveProposals(proposals []RegionProposal) (kept []RegionProposal, discarded int) {
	dropped := make([]bool, len(proposals))

	for i := 0; i < len(proposals); i++ {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(proposals); j++ {
			if dropped[j] {
				continue
			}
			loser, ok := r.pickLoser(
				region{proposals[i].Rect, proposals[i].Confidence, i},
				region{proposals[j].Rect, proposals[j].Confidence, j},
			)
			if !ok {
				continue
			}
			if loser == 0 {
				dropped[i] = true
				break
			}
			dropped[j] = true
		}
	}

	kept = make([]RegionProposal, 0, len(proposals))
	for i, p := range proposals {
		if dropped[i] {
			discarded++
			continue
		}
		kept = append(kept, p)
	}
	return kept, discarded
}

type region struct {
	rect       Rect
	confidence float64
	ordinal    int
}

// pickLoser decides which of two regions to discard: 0 for the first,
// 1 for the second, ok=false when the overlap stays within bounds.
func (r *Resolver) pickLoser(a, b region) (loser int, ok bool) {
	inter := a.rect.Intersect(b.rect).Area()
	if inter <= 0 {
		return 0, false
	}

	smaller := a.rect.Area()
	if b.rect.Area() < smaller {
		smaller = b.rect.Area()
	}
	if smaller <= 0 {
		return 0, false
	}
	if inter/smaller*100 <= r.allowedPercent {
		return 0, false
	}

	switch {
	case a.rect.Area() < b.rect.Area():
		return 0, true
	case b.rect.Area() < a.rect.Area():
		return 1, true
	case a.confidence < b.confidence:
		return 0, true
	case b.confidence < a.confidence:
		return 1, true
	case a.ordinal > b.ordinal:
		return 0, true
	default:
		return 1, true
	}
}
