package ui

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/AIRF0X788/Op-V2/internal/common"
	"github.com/AIRF0X788/Op-V2/internal/ui/input"
	"github.com/AIRF0X788/Op-V2/internal/ui/renderer"
	"github.com/AIRF0X788/Op-V2/internal/ui/spectate"
)

const panelWidth = 240

var feedColor = color.RGBA{180, 180, 180, 255}

// Refresher asks the server for a full state resend.
type Refresher interface {
	RequestFullState() error
}

// Viewer is the ebiten game drawing a spectated room.
type Viewer struct {
	state     *spectate.State
	client    Refresher
	overlay   *renderer.Overlay
	input     *input.Handler
	face      font.Face
	width     int
	height    int
	hover     string
	lastFocus int

	statusMu sync.Mutex
	status   string
}

// NewViewer creates a viewer of the given window size.
func NewViewer(state *spectate.State, client Refresher, width, height, cellSize int) *Viewer {
	face := basicfont.Face7x13
	return &Viewer{
		state:   state,
		client:  client,
		overlay: renderer.NewOverlay(renderer.NewBoardRenderer(cellSize, face)),
		input:   input.NewHandler(),
		face:    face,
		width:   width,
		height:  height,
	}
}

// SetStatus shows a line under the room header, e.g. a lost connection.
// Safe to call from any goroutine.
func (v *Viewer) SetStatus(s string) {
	v.statusMu.Lock()
	defer v.statusMu.Unlock()
	v.status = s
}

func (v *Viewer) statusText() string {
	v.statusMu.Lock()
	defer v.statusMu.Unlock()
	return v.status
}

// Update proceeds the viewer state.
func (v *Viewer) Update() error {
	v.input.Update()
	view := v.state.View()

	if v.input.TakeRefresh() && v.client != nil {
		if err := v.client.RequestFullState(); err != nil {
			v.SetStatus("refresh failed: " + err.Error())
		}
	}

	focus := v.input.FocusIndex(len(view.Players))
	if focus != v.lastFocus {
		v.lastFocus = focus
		if focus == 0 {
			v.overlay.SetFocus("")
		} else {
			v.overlay.SetFocus(view.Players[focus-1].ID)
		}
	}

	cam := v.input.Camera()
	x, y := v.input.HoveredCell(float64(v.overlay.CellSize(cam.Zoom)))
	v.overlay.SetHover(x, y)
	v.hover = ""
	if c := view.Cell(x, y); c != nil {
		v.hover = describeCell(&view, x, y, c)
	}
	return nil
}

func describeCell(view *spectate.View, x, y int, c *spectate.CellView) string {
	if !c.Land {
		return fmt.Sprintf("(%d,%d) water", x, y)
	}
	owner := "neutral"
	if p, ok := view.Player(c.Owner); ok {
		owner = p.Name
	}
	s := fmt.Sprintf("(%d,%d) %s %.0f troops", x, y, owner, c.Troops)
	if b := c.Building.String(); b != "" {
		s += " " + b
	}
	return s
}

// Draw renders the board and the side panel.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(common.BackgroundColor)
	view := v.state.View()

	board := renderer.Board{Width: view.Width, Height: view.Height, Players: view.Players}
	board.Cells = make([]renderer.Cell, len(view.Cells))
	for i, c := range view.Cells {
		board.Cells[i] = renderer.Cell{Land: c.Land, Owner: c.Owner, Troops: c.Troops, Building: c.Building}
	}
	cam := v.input.Camera()
	v.overlay.Draw(screen, board, cam.OffsetX, cam.OffsetY, cam.Zoom, v.input.ShowTroops())

	v.drawPanel(screen, &view)
}

func (v *Viewer) drawPanel(screen *ebiten.Image, view *spectate.View) {
	px := float32(v.width - panelWidth)
	vector.DrawFilledRect(screen, px, 0, panelWidth, float32(v.height), common.PanelColor, false)

	x := v.width - panelWidth + 10
	y := 20
	line := func(s string, c color.Color) {
		text.Draw(screen, s, v.face, x, y, c)
		y += 16
	}

	line(fmt.Sprintf("Room %s", view.Code), color.White)
	line(fmt.Sprintf("%s  tick %d", view.Phase, view.Tick), color.White)
	if status := v.statusText(); status != "" {
		line(status, color.RGBA{255, 120, 120, 255})
	}
	if view.Winner != "" {
		line("Winner: "+view.Winner, color.RGBA{255, 215, 0, 255})
	}
	y += 8

	for _, p := range view.Players {
		label := fmt.Sprintf("%-12s %5d %6.0f", truncate(p.Name, 12), p.Cells, p.Troops)
		if p.ID == v.overlay.Focus() {
			label = "> " + label
		}
		line(label, v.overlay.ColorOf(p.ID))
	}
	y += 8
	for _, f := range view.Feed {
		line(truncate(f, 30), feedColor)
	}

	ebitenutil.DebugPrintAt(screen, v.hover, 5, v.height-20)
	ebitenutil.DebugPrintAt(screen, "drag: right mouse  zoom: wheel  T troops  Tab focus  R refresh", 5, 5)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}

// Layout defines the Ebitengine screen size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return v.width, v.height
}
