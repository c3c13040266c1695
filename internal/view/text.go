package view

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// drawText writes a string at a cell position, truncated to maxWidth
// display cells. Wide runes occupy two cells.
func (v *BlockView) drawText(x, y, maxWidth int, text string, style tcell.Style) {
	if maxWidth <= 0 {
		return
	}
	if runewidth.StringWidth(text) > maxWidth {
		text = runewidth.Truncate(text, maxWidth, "…")
	}

	cur := x
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w <= 0 {
			w = 1
		}
		if cur-x+w > maxWidth {
			break
		}
		v.screen.SetContent(cur, y, r, nil, style)
		cur += w
	}
}
