package renderer

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	HoverColor     = color.RGBA{255, 255, 255, 64}
	SelectionColor = color.RGBA{255, 255, 100, 255}
	focusShift     = 60
)

// Overlay draws the hover highlight and the territory of the focused
// actor on top of a board.
type Overlay struct {
	*BoardRenderer

	hoverX, hoverY int
	focus          string
}

// NewOverlay wraps br.
func NewOverlay(br *BoardRenderer) *Overlay {
	return &Overlay{BoardRenderer: br, hoverX: -1, hoverY: -1}
}

// SetHover marks the cell under the cursor.
func (o *Overlay) SetHover(x, y int) {
	o.hoverX, o.hoverY = x, y
}

// SetFocus highlights every cell of actorID. An empty id clears it.
func (o *Overlay) SetFocus(actorID string) {
	o.focus = actorID
}

// Focus returns the highlighted actor.
func (o *Overlay) Focus() string { return o.focus }

// Draw renders the board followed by the overlays.
func (o *Overlay) Draw(screen *ebiten.Image, b Board, offX, offY, zoom float64, showTroops bool) {
	o.BoardRenderer.Draw(screen, b, offX, offY, zoom, showTroops)
	size := o.CellSize(zoom)

	if o.focus != "" {
		lighter := shiftColor(o.ColorOf(o.focus), focusShift)
		for i := range b.Cells {
			if b.Cells[i].Owner != o.focus {
				continue
			}
			x := float32(offX) + float32(i%b.Width)*size
			y := float32(offY) + float32(i/b.Width)*size
			vector.StrokeRect(screen, x, y, size, size, 1, lighter, false)
		}
	}

	if o.hoverX >= 0 && o.hoverY >= 0 && o.hoverX < b.Width && o.hoverY < b.Height {
		x := float32(offX) + float32(o.hoverX)*size
		y := float32(offY) + float32(o.hoverY)*size
		vector.DrawFilledRect(screen, x, y, size, size, HoverColor, false)
		vector.StrokeRect(screen, x, y, size, size, 2, SelectionColor, false)
	}
}
