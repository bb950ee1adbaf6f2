package renderer

import (
	"image/color"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/AIRF0X788/Op-V2/internal/common"
	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// Cell is the renderer's view of one grid unit.
type Cell struct {
	Land     bool
	Owner    string
	Troops   float64
	Building core.BuildingType
}

// Board is what one frame draws.
type Board struct {
	Width, Height int
	Cells         []Cell
	Players       []events.ActorSnapshot
}

var buildingColors = map[core.BuildingType]color.Color{
	core.BuildingCity:     color.RGBA{255, 255, 255, 255},
	core.BuildingPort:     color.RGBA{120, 200, 255, 255},
	core.BuildingOutpost:  color.RGBA{255, 200, 80, 255},
	core.BuildingBarracks: color.RGBA{255, 90, 90, 255},
}

// BoardRenderer draws the grid with a camera offset and zoom.
type BoardRenderer struct {
	cellSize    int
	defaultFont font.Face
	palette     map[string]color.Color
}

// NewBoardRenderer returns a renderer ready to use.
func NewBoardRenderer(cellSize int, f font.Face) *BoardRenderer {
	return &BoardRenderer{cellSize: cellSize, defaultFont: f, palette: make(map[string]color.Color)}
}

// CellSize is the on-screen edge of a cell at the given zoom.
func (br *BoardRenderer) CellSize(zoom float64) float32 {
	return float32(float64(br.cellSize) * zoom)
}

// Draw renders the board. Troop counts are drawn only when showTroops is
// set and cells are large enough to hold the text.
func (br *BoardRenderer) Draw(screen *ebiten.Image, b Board, offX, offY, zoom float64, showTroops bool) {
	if b.Width == 0 {
		return
	}
	br.refreshPalette(b.Players)

	size := br.CellSize(zoom)
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()

	for i := range b.Cells {
		c := &b.Cells[i]
		x := float32(offX) + float32(i%b.Width)*size
		y := float32(offY) + float32(i/b.Width)*size
		if x+size < 0 || y+size < 0 || x > float32(sw) || y > float32(sh) {
			continue
		}

		vector.DrawFilledRect(screen, x, y, size, size, br.cellColor(c), false)
		if size >= 12 {
			vector.StrokeRect(screen, x, y, size, size, 1, common.GridLineColor, false)
		}

		if c.Building != core.BuildingNone {
			m := size / 3
			vector.DrawFilledRect(screen, x+m, y+m, m, m, buildingColors[c.Building], false)
		}

		if showTroops && size >= 20 && c.Owner != core.NoOwner && br.defaultFont != nil {
			label := strconv.Itoa(int(c.Troops))
			bounds := text.BoundString(br.defaultFont, label)
			tx := int(x) + (int(size)-bounds.Dx())/2
			ty := int(y) + (int(size)+bounds.Dy())/2
			text.Draw(screen, label, br.defaultFont, tx, ty, common.TroopTextColor)
		}
	}
}

func (br *BoardRenderer) cellColor(c *Cell) color.Color {
	if !c.Land {
		return common.WaterColor
	}
	if c.Owner == core.NoOwner {
		return common.NeutralLandColor
	}
	if col, ok := br.palette[c.Owner]; ok {
		return col
	}
	return common.NeutralLandColor
}

func (br *BoardRenderer) refreshPalette(players []events.ActorSnapshot) {
	for _, p := range players {
		if _, ok := br.palette[p.ID]; ok {
			continue
		}
		if col, err := common.ParseHexColor(p.Color); err == nil {
			br.palette[p.ID] = col
		}
	}
}

// ColorOf returns the display colour of an actor.
func (br *BoardRenderer) ColorOf(actorID string) color.Color {
	if col, ok := br.palette[actorID]; ok {
		return col
	}
	return common.NeutralLandColor
}

// shiftColor returns a slightly lighter version of c.
func shiftColor(c color.Color, amount int) color.Color {
	r, g, b, a := c.RGBA()
	inc := uint32(amount) << 8 // amount*256

	r = clamp16(r + inc)
	g = clamp16(g + inc)
	b = clamp16(b + inc)
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

func clamp16(v uint32) uint32 {
	const max = 0xFFFF
	if v > max {
		return max
	}
	return v
}
