// Package view renders engine block snapshots in the terminal for
// debugging recorded sessions: block rectangles scaled to the screen,
// state coloring, frame stepping and copy-to-clipboard.
package view

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/yomitori/yomitori/pkg/blockdetection"
	"github.com/yomitori/yomitori/pkg/blockdetection/tracking"
	"github.com/yomitori/yomitori/pkg/clipboard"
)

// FrameSnapshot is one frame's tracked blocks as shown by the viewer
type FrameSnapshot struct {
	Blocks []tracking.TrackedBlock
	Stats  blockdetection.FrameStats
}

// BlockView steps through frame snapshots on a tcell screen
type BlockView struct {
	frames   []FrameSnapshot
	bounds   blockdetection.Rect
	screen   tcell.Screen
	clip     *clipboard.Clipboard
	frameIdx int
	selected int
}

// New creates a viewer over the given frame snapshots. bounds is the
// source region rectangle used to scale pixel coordinates to cells.
func New(frames []FrameSnapshot, bounds blockdetection.Rect) *BlockView {
	return &BlockView{
		frames: frames,
		bounds: bounds,
		clip:   clipboard.New(),
	}
}

// Present runs the interactive viewer until the user quits
func (v *BlockView) Present() error {
	if len(v.frames) == 0 {
		return fmt.Errorf("no frames to display")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	v.screen = screen
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault)
	screen.Clear()

	for {
		v.render()
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			if v.handleKey(ev) {
				return nil
			}
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventError:
			return nil
		}
	}
}

// handleKey processes one key event; true means quit
func (v *BlockView) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		v.step(-1)
	case tcell.KeyRight:
		v.step(1)
	case tcell.KeyUp:
		v.selectBlock(-1)
	case tcell.KeyDown:
		v.selectBlock(1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'h':
			v.step(-1)
		case 'l':
			v.step(1)
		case 'k':
			v.selectBlock(-1)
		case 'j':
			v.selectBlock(1)
		case 'c':
			v.copySelected()
		}
	}
	return false
}

func (v *BlockView) step(delta int) {
	next := v.frameIdx + delta
	if next >= 0 && next < len(v.frames) {
		v.frameIdx = next
		v.selected = 0
	}
}

func (v *BlockView) selectBlock(delta int) {
	blocks := v.frames[v.frameIdx].Blocks
	next := v.selected + delta
	if next >= 0 && next < len(blocks) {
		v.selected = next
	}
}

// copySelected copies the selected block's translation, or its source
// text while no translation has arrived.
func (v *BlockView) copySelected() {
	blocks := v.frames[v.frameIdx].Blocks
	if v.selected >= len(blocks) {
		return
	}
	tb := blocks[v.selected]
	text := tb.TranslatedText
	if text == "" {
		text = tb.Block.Text
	}
	if err := v.clip.Copy(text); err != nil {
		slog.Warn("clipboard copy failed", "error", err)
	}
}

func (v *BlockView) render() {
	v.screen.Clear()
	width, height := v.screen.Size()
	canvasHeight := height - 1
	if canvasHeight < 1 || width < 2 {
		v.screen.Show()
		return
	}

	frame := v.frames[v.frameIdx]
	for i, tb := range frame.Blocks {
		v.drawBlock(tb, i == v.selected, width, canvasHeight)
	}

	v.drawStatus(frame, width, height-1)
	v.screen.Show()
}

// drawBlock draws one block's rectangle and its text label scaled from
// region pixels to screen cells.
func (v *BlockView) drawBlock(tb tracking.TrackedBlock, selected bool, width, height int) {
	x1, y1 := v.toCell(tb.Block.Rect.X, tb.Block.Rect.Y, width, height)
	x2, y2 := v.toCell(tb.Block.Rect.MaxX(), tb.Block.Rect.MaxY(), width, height)
	if x2 <= x1 {
		x2 = x1 + 1
	}
	if y2 <= y1 {
		y2 = y1 + 1
	}

	style := stateStyle(tb.State)
	if selected {
		style = style.Reverse(true)
	}

	for x := x1; x <= x2; x++ {
		v.setCell(x, y1, tcell.RuneHLine, style)
		v.setCell(x, y2, tcell.RuneHLine, style)
	}
	for y := y1; y <= y2; y++ {
		v.setCell(x1, y, tcell.RuneVLine, style)
		v.setCell(x2, y, tcell.RuneVLine, style)
	}
	v.setCell(x1, y1, tcell.RuneULCorner, style)
	v.setCell(x2, y1, tcell.RuneURCorner, style)
	v.setCell(x1, y2, tcell.RuneLLCorner, style)
	v.setCell(x2, y2, tcell.RuneLRCorner, style)

	label := tb.Block.Text
	if tb.TranslatedText != "" {
		label = tb.TranslatedText
	}
	v.drawText(x1+1, y1+1, x2-x1-1, firstLine(label), style)
}

func (v *BlockView) drawStatus(frame FrameSnapshot, width, y int) {
	var selectedState string
	if v.selected < len(frame.Blocks) {
		selectedState = frame.Blocks[v.selected].State.String()
	}
	status := fmt.Sprintf(" frame %d/%d  blocks=%d  in=%d dropped=%d  selected=%s  [h/l] frame [j/k] block [c] copy [q] quit",
		v.frameIdx+1, len(v.frames), len(frame.Blocks),
		frame.Stats.Input,
		frame.Stats.Malformed+frame.Stats.OverlapDiscarded+frame.Stats.SizeDropped,
		selectedState)
	v.drawText(0, y, width, status, tcell.StyleDefault.Reverse(true))
}

// toCell maps a region pixel coordinate to a screen cell
func (v *BlockView) toCell(px, py float64, width, height int) (int, int) {
	if v.bounds.Width <= 0 || v.bounds.Height <= 0 {
		return 0, 0
	}
	x := int((px - v.bounds.X) / v.bounds.Width * float64(width-1))
	y := int((py - v.bounds.Y) / v.bounds.Height * float64(height-1))
	return clamp(x, 0, width-1), clamp(y, 0, height-1)
}

func (v *BlockView) setCell(x, y int, r rune, style tcell.Style) {
	v.screen.SetContent(x, y, r, nil, style)
}

func stateStyle(s tracking.State) tcell.Style {
	switch s {
	case tracking.Settled:
		return tcell.StyleDefault.Foreground(tcell.ColorGreen)
	case tracking.Stale:
		return tcell.StyleDefault.Foreground(tcell.ColorGray)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorYellow)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
