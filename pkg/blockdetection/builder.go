package blockdetection

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Builder groups normalized detections into candidate blocks via graph
// connectivity: an edge connects two detections whose separation along
// one axis is below the grouping distance while they stay aligned on the
// orthogonal axis. Connected components become blocks, so grouping is
// transitive: adjacent pairs of a long text line chain its endpoints
// together even when the endpoints alone would not qualify.
type Builder struct {
	config     DetectionConfig
	classifier *Classifier
}

// NewBuilder creates a block builder for the given configuration
func NewBuilder(config DetectionConfig) *Builder {
	return &Builder{
		config:     config,
		classifier: NewClassifier(config.VerticalRatio),
	}
}

// Build clusters one frame of detections into candidate blocks.
// Output is deterministic for a given detection set regardless of input
// order: detections are (y, x)-sorted before edges are built and the
// resulting blocks are (y, x)-sorted with frame-local ordinals.
func (b *Builder) Build(detections []TextDetection) []Block {
	if len(detections) == 0 {
		return nil
	}

	sorted := make([]TextDetection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rect.Y != sorted[j].Rect.Y {
			return sorted[i].Rect.Y < sorted[j].Rect.Y
		}
		if sorted[i].Rect.X != sorted[j].Rect.X {
			return sorted[i].Rect.X < sorted[j].Rect.X
		}
		return sorted[i].Text < sorted[j].Text
	})

	threshold := b.config.GroupingDistance(medianGlyphSize(sorted))

	uf := newUnionFind(len(sorted))
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if b.compatible(sorted[i].Rect, sorted[j].Rect, threshold) {
				uf.union(i, j)
			}
		}
	}

	components := make(map[int][]TextDetection)
	var roots []int
	for i, det := range sorted {
		root := uf.find(i)
		if _, seen := components[root]; !seen {
			roots = append(roots, root)
		}
		components[root] = append(components[root], det)
	}

	blocks := make([]Block, 0, len(roots))
	for _, root := range roots {
		blocks = append(blocks, b.assemble(components[root]))
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Rect.Y != blocks[j].Rect.Y {
			return blocks[i].Rect.Y < blocks[j].Rect.Y
		}
		return blocks[i].Rect.X < blocks[j].Rect.X
	})
	for i := range blocks {
		blocks[i].ordinal = i
	}

	return blocks
}

// compatible reports whether two detections belong to the same line or
// the same column: near along one axis, aligned on the other.
func (b *Builder) compatible(a, c Rect, threshold float64) bool {
	gapX := axisGap(a.X, a.MaxX(), c.X, c.MaxX())
	gapY := axisGap(a.Y, a.MaxY(), c.Y, c.MaxY())

	overlapX := axisOverlapRatio(a.X, a.MaxX(), c.X, c.MaxX())
	overlapY := axisOverlapRatio(a.Y, a.MaxY(), c.Y, c.MaxY())

	sameLine := gapX <= threshold && overlapY >= b.config.AlignmentTolerance
	sameColumn := gapY <= threshold && overlapX >= b.config.AlignmentTolerance

	return sameLine || sameColumn
}

// assemble orders a component's members for reading and joins their text.
// Orientation is voted by the union bbox, not per member.
func (b *Builder) assemble(members []TextDetection) Block {
	union := members[0].Rect
	for _, m := range members[1:] {
		union = union.Union(m.Rect)
	}

	orientation := b.voteOrientation(members, union)
	runTol := math.Max(1, medianGlyphSize(members)/2)

	var runs [][]TextDetection
	if orientation == Vertical {
		// Columns right-to-left, top-to-bottom within a column.
		runs = groupRuns(members, runTol,
			func(d TextDetection) float64 { return -d.Rect.Center().X },
			func(d TextDetection) float64 { return d.Rect.Y })
	} else {
		// Lines top-to-bottom, left-to-right within a line.
		runs = groupRuns(members, runTol,
			func(d TextDetection) float64 { return d.Rect.Center().Y },
			func(d TextDetection) float64 { return d.Rect.X })
	}

	ordered := make([]TextDetection, 0, len(members))
	lines := make([]string, 0, len(runs))
	for _, run := range runs {
		ordered = append(ordered, run...)
		lines = append(lines, joinRunText(run))
	}

	return Block{
		Members:     ordered,
		Rect:        union,
		Orientation: orientation,
		Text:        strings.Join(lines, "\n"),
		Confidence:  meanConfidence(ordered),
	}
}

// voteOrientation decides a component's reading orientation. When more
// than half of the members carry a provider hint agreeing on one
// orientation, the hint wins; otherwise the union bbox decides, so a
// line of square glyphs does not fragment into mixed orientations.
func (b *Builder) voteOrientation(members []TextDetection, union Rect) Orientation {
	var horizontal, vertical int
	for _, m := range members {
		o, ok := ParseOrientation(m.Hint)
		if !ok {
			continue
		}
		if o == Vertical {
			vertical++
		} else {
			horizontal++
		}
	}

	if vertical > horizontal && vertical*2 > len(members) {
		return Vertical
	}
	if horizontal > vertical && horizontal*2 > len(members) {
		return Horizontal
	}
	return b.classifier.ClassifyBlock(union)
}

// groupRuns sorts members by a major axis key, splits them into runs
// wherever consecutive keys differ by more than tol, and sorts each run
// by the minor axis key.
func groupRuns(
	members []TextDetection,
	tol float64,
	major func(TextDetection) float64,
	minor func(TextDetection) float64,
) [][]TextDetection {
	sorted := make([]TextDetection, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return major(sorted[i]) < major(sorted[j])
	})

	var runs [][]TextDetection
	var run []TextDetection
	for i, det := range sorted {
		if i > 0 && major(det)-major(run[len(run)-1]) > tol {
			runs = append(runs, run)
			run = nil
		}
		run = append(run, det)
	}
	if len(run) > 0 {
		runs = append(runs, run)
	}

	for _, r := range runs {
		sort.SliceStable(r, func(i, j int) bool {
			return minor(r[i]) < minor(r[j])
		})
	}
	return runs
}

// joinRunText concatenates member text in run order. A space is inserted
// only between two half-width alphanumeric neighbors, so Latin words
// stay separated while CJK glyph sequences join directly.
func joinRunText(run []TextDetection) string {
	var sb strings.Builder
	for i, det := range run {
		if i > 0 {
			prev, _ := utf8.DecodeLastRuneInString(run[i-1].Text)
			next, _ := utf8.DecodeRuneInString(det.Text)
			if isHalfWidthAlnum(prev) && isHalfWidthAlnum(next) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(det.Text)
	}
	return sb.String()
}

// isHalfWidthAlnum reports whether r is a half-width letter or digit
func isHalfWidthAlnum(r rune) bool {
	if isFullWidth(r) {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isFullWidth reports whether r renders full-width (CJK and friends)
func isFullWidth(r rune) bool {
	return (r >= 'ᄀ' && r <= 'ᅟ') || // Hangul Jamo
		(r >= '⺀' && r <= '〾') || // CJK radicals, punctuation
		(r >= 'ぁ' && r <= '㏿') || // Kana, CJK symbols
		(r >= '㐀' && r <= '鿿') || // CJK unified ideographs
		(r >= '가' && r <= '힣') || // Hangul syllables
		(r >= '豈' && r <= '﫿') || // CJK compatibility
		(r >= '＀' && r <= '｠') // Full-width forms
}

// medianGlyphSize returns the median of the members' glyph sizes
func medianGlyphSize(members []TextDetection) float64 {
	if len(members) == 0 {
		return 0
	}
	sizes := make([]float64, len(members))
	for i, m := range members {
		sizes[i] = m.GlyphSize()
	}
	sort.Float64s(sizes)
	mid := len(sizes) / 2
	if len(sizes)%2 == 0 {
		return (sizes[mid-1] + sizes[mid]) / 2
	}
	return sizes[mid]
}

// meanConfidence averages the confidences reported by the members;
// members without a confidence do not participate.
func meanConfidence(members []TextDetection) float64 {
	var sum float64
	var n int
	for _, m := range members {
		if m.Confidence > 0 {
			sum += m.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// axisGap returns the separation between two intervals on one axis,
// zero when they overlap
func axisGap(aMin, aMax, bMin, bMax float64) float64 {
	if aMax < bMin {
		return bMin - aMax
	}
	if bMax < aMin {
		return aMin - bMax
	}
	return 0
}

// axisOverlapRatio returns the interval overlap relative to the shorter
// interval (0.0-1.0)
func axisOverlapRatio(aMin, aMax, bMin, bMax float64) float64 {
	overlap := math.Min(aMax, bMax) - math.Max(aMin, bMin)
	if overlap <= 0 {
		return 0
	}
	shorter := math.Min(aMax-aMin, bMax-bMin)
	if shorter <= 0 {
		return 0
	}
	return overlap / shorter
}

// unionFind is a stable disjoint-set keyed by the (y, x)-sorted index,
// with path compression. Union by smaller root keeps component labels
// independent of edge discovery order.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
