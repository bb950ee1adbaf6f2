package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	minZoom  = 0.25
	maxZoom  = 6
	panSpeed = 8
)

// Camera is the viewer's pan and zoom.
type Camera struct {
	OffsetX, OffsetY float64
	Zoom             float64
}

// Handler turns mouse and keyboard input into camera moves and viewer
// commands.
type Handler struct {
	mouseX, mouseY int
	dragging       bool
	dragX, dragY   int

	camera     Camera
	showTroops bool
	cycleFocus int
	refresh    bool
}

func NewHandler() *Handler {
	return &Handler{camera: Camera{Zoom: 1}, showTroops: true}
}

// Update reads this frame's input.
func (h *Handler) Update() {
	h.mouseX, h.mouseY = ebiten.CursorPosition()
	h.handleMouse()
	h.handleKeyboard()
}

func (h *Handler) handleMouse() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
		h.dragging = true
		h.dragX, h.dragY = h.mouseX, h.mouseY
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonRight) {
		h.dragging = false
	}
	if h.dragging {
		h.camera.OffsetX += float64(h.mouseX - h.dragX)
		h.camera.OffsetY += float64(h.mouseY - h.dragY)
		h.dragX, h.dragY = h.mouseX, h.mouseY
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		factor := 1.1
		if dy < 0 {
			factor = 1 / factor
		}
		h.zoomAt(float64(h.mouseX), float64(h.mouseY), factor)
	}
}

func (h *Handler) handleKeyboard() {
	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowLeft) || ebiten.IsKeyPressed(ebiten.KeyA):
		h.camera.OffsetX += panSpeed
	case ebiten.IsKeyPressed(ebiten.KeyArrowRight) || ebiten.IsKeyPressed(ebiten.KeyD):
		h.camera.OffsetX -= panSpeed
	}
	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowUp) || ebiten.IsKeyPressed(ebiten.KeyW):
		h.camera.OffsetY += panSpeed
	case ebiten.IsKeyPressed(ebiten.KeyArrowDown) || ebiten.IsKeyPressed(ebiten.KeyS):
		h.camera.OffsetY -= panSpeed
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		h.showTroops = !h.showTroops
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		h.cycleFocus++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		h.cycleFocus = 0
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		h.refresh = true
	}
	if inpututil.IsKeyJustPressed(ebiten.Key0) {
		h.camera = Camera{Zoom: 1}
	}
}

// zoomAt scales around the screen point (x,y) so it stays under the cursor.
func (h *Handler) zoomAt(x, y, factor float64) {
	next := h.camera.Zoom * factor
	if next < minZoom {
		next = minZoom
	}
	if next > maxZoom {
		next = maxZoom
	}
	scale := next / h.camera.Zoom
	h.camera.OffsetX = x - (x-h.camera.OffsetX)*scale
	h.camera.OffsetY = y - (y-h.camera.OffsetY)*scale
	h.camera.Zoom = next
}

// Camera returns the current pan and zoom.
func (h *Handler) Camera() Camera { return h.camera }

// ShowTroops reports whether troop labels are on.
func (h *Handler) ShowTroops() bool { return h.showTroops }

// FocusIndex is 0 for no focus, otherwise a 1-based position in the
// player list, wrapping at n.
func (h *Handler) FocusIndex(n int) int {
	if n == 0 {
		return 0
	}
	h.cycleFocus %= n + 1
	return h.cycleFocus
}

// TakeRefresh reports and clears a pending full state request.
func (h *Handler) TakeRefresh() bool {
	r := h.refresh
	h.refresh = false
	return r
}

// HoveredCell maps the cursor to grid coordinates for the given cell size.
func (h *Handler) HoveredCell(cellSize float64) (int, int) {
	return screenToCell(h.mouseX, h.mouseY, h.camera, cellSize)
}

func screenToCell(sx, sy int, cam Camera, cellSize float64) (int, int) {
	if cellSize <= 0 {
		return -1, -1
	}
	fx := (float64(sx) - cam.OffsetX) / cellSize
	fy := (float64(sy) - cam.OffsetY) / cellSize
	if fx < 0 || fy < 0 {
		return -1, -1
	}
	return int(fx), int(fy)
}
