package events

import "github.com/AIRF0X788/Op-V2/internal/game/core"

// ActorSnapshot is the public view of an actor sent to clients.
type ActorSnapshot struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Color         string   `json:"color"`
	IsBot         bool     `json:"isBot"`
	Difficulty    string   `json:"difficulty,omitempty"`
	Strategy      string   `json:"strategy,omitempty"`
	Gold          float64  `json:"gold"`
	Income        float64  `json:"income"`
	Troops        float64  `json:"troops"`
	Cells         int      `json:"cells"`
	Alliances     []string `json:"alliances"`
	Kills         int      `json:"kills"`
	Conquests     int      `json:"conquests"`
	HasPlacedBase bool     `json:"hasPlacedBase"`
	Eliminated    bool     `json:"eliminated"`
}

// MapSnapshot is the full grid. Terrain is a row-major string of 'L'/'W'
// and Cells lists owned or built cells only.
type MapSnapshot struct {
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Terrain string            `json:"terrain"`
	Cells   []core.CellChange `json:"cells"`
}

// RoomSnapshot is the payload of a full state sync.
type RoomSnapshot struct {
	Code          string          `json:"code"`
	HostID        string          `json:"hostId"`
	GameState     string          `json:"gameState"`
	TickCount     int             `json:"tickCount"`
	Players       []ActorSnapshot `json:"players"`
	Map           MapSnapshot     `json:"mapData"`
	PlayersPlaced []string        `json:"playersPlaced"`
}

// Standing is one row of the final statistics.
type Standing struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	IsBot     bool    `json:"isBot"`
	Cells     int     `json:"cells"`
	Troops    float64 `json:"troops"`
	Gold      float64 `json:"gold"`
	Income    float64 `json:"income"`
	Conquests int     `json:"conquests"`
	Kills     int     `json:"kills"`
}

// TradeSnapshot is the wire form of a trade offer.
type TradeSnapshot struct {
	ID          string  `json:"id"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	OfferGold   float64 `json:"offerGold"`
	RequestGold float64 `json:"requestGold"`
	CreatedAt   int64   `json:"timestamp"`
}

// NewMapSnapshot builds the full-grid view of g.
func NewMapSnapshot(g *core.Grid) MapSnapshot {
	terrain := make([]byte, len(g.C))
	var cells []core.CellChange
	for i := range g.C {
		c := &g.C[i]
		if c.Type == core.Land {
			terrain[i] = 'L'
		} else {
			terrain[i] = 'W'
		}
		if c.IsOwned() || c.HasBuilding() {
			cells = append(cells, g.ChangeOf(i))
		}
	}
	return MapSnapshot{Width: g.W, Height: g.H, Terrain: string(terrain), Cells: cells}
}
