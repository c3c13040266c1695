// Package colordetection aggregates per-detection color estimates into
// block-level foreground/background colors for overlay rendering.
package colordetection

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/yomitori/yomitori/pkg/blockdetection"
)

const (
	// DefaultMergeDistance is the CIE LAB distance below which two
	// color estimates count as the same color and pool their weight
	DefaultMergeDistance = 0.12
)

// Aggregator merges member color estimates into a block color pair
type Aggregator struct {
	mergeDistance float64
}

// NewAggregator creates an aggregator with the given LAB merge distance
func NewAggregator(mergeDistance float64) *Aggregator {
	if mergeDistance <= 0 {
		mergeDistance = DefaultMergeDistance
	}
	return &Aggregator{mergeDistance: mergeDistance}
}

// Aggregate returns the dominant foreground and background estimates of
// the members, or nil when no member carries the estimate. Estimates are
// weighted by member area and coverage; near-duplicates in LAB space
// pool their weight before the dominant one is picked.
func (a *Aggregator) Aggregate(members []blockdetection.TextDetection) (fg, bg *blockdetection.ColorInfo) {
	fg = a.dominant(members, func(d blockdetection.TextDetection) *blockdetection.ColorInfo {
		return d.Foreground
	})
	bg = a.dominant(members, func(d blockdetection.TextDetection) *blockdetection.ColorInfo {
		return d.Background
	})
	return fg, bg
}

// AggregateBlock fills in a block's colors from its members, keeping
// colors already attached by an external extractor.
func (a *Aggregator) AggregateBlock(block *blockdetection.Block) {
	if block.Foreground != nil && block.Background != nil {
		return
	}
	fg, bg := a.Aggregate(block.Members)
	if block.Foreground == nil {
		block.Foreground = fg
	}
	if block.Background == nil {
		block.Background = bg
	}
}

type weightedColor struct {
	color  colorful.Color
	info   blockdetection.ColorInfo
	weight float64
}

func (a *Aggregator) dominant(
	members []blockdetection.TextDetection,
	pick func(blockdetection.TextDetection) *blockdetection.ColorInfo,
) *blockdetection.ColorInfo {
	var clusters []weightedColor
	var total float64

	for _, m := range members {
		info := pick(m)
		if info == nil {
			continue
		}

		weight := m.Rect.Area()
		if info.Coverage > 0 {
			weight *= info.Coverage
		}
		if weight <= 0 {
			continue
		}
		total += weight

		c := toColorful(*info)
		merged := false
		for i := range clusters {
			if clusters[i].color.DistanceLab(c) < a.mergeDistance {
				// The heavier estimate keeps representing the cluster.
				if weight > clusters[i].weight {
					clusters[i].color = c
					clusters[i].info = *info
				}
				clusters[i].weight += weight
				merged = true
				break
			}
		}
		if !merged {
			clusters = append(clusters, weightedColor{color: c, info: *info, weight: weight})
		}
	}

	if len(clusters) == 0 || total <= 0 {
		return nil
	}

	best := clusters[0]
	for _, cl := range clusters[1:] {
		if cl.weight > best.weight {
			best = cl
		}
	}

	out := best.info
	out.Coverage = best.weight / total
	return &out
}

// IsDark reports whether a color reads as dark, for picking contrasting
// label colors in debug views.
func IsDark(c blockdetection.ColorInfo) bool {
	_, _, l := toColorful(c).Hsl()
	return l < 0.5
}

func toColorful(c blockdetection.ColorInfo) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}
