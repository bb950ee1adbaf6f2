package spectate

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/server"
)

const maxFeed = 8

// CellView is the last known state of one cell.
type CellView struct {
	Land     bool
	Owner    string
	Troops   float64
	Building core.BuildingType
}

// View is an immutable copy of the spectated room used for one frame.
type View struct {
	Code    string
	Phase   string
	Tick    int
	Width   int
	Height  int
	Cells   []CellView
	Players []events.ActorSnapshot
	Winner  string
	Feed    []string
}

// Player returns the actor with id, if known.
func (v *View) Player(id string) (events.ActorSnapshot, bool) {
	for _, p := range v.Players {
		if p.ID == id {
			return p, true
		}
	}
	return events.ActorSnapshot{}, false
}

// Cell returns the cell at (x,y), or nil when out of bounds.
func (v *View) Cell(x, y int) *CellView {
	if x < 0 || y < 0 || x >= v.Width || y >= v.Height {
		return nil
	}
	return &v.Cells[y*v.Width+x]
}

// State folds server envelopes into the spectator's picture of the room.
// The websocket reader writes it while the render loop reads it.
type State struct {
	mu      sync.RWMutex
	code    string
	phase   string
	tick    int
	width   int
	height  int
	cells   []CellView
	players map[string]events.ActorSnapshot
	winner  string
	feed    []string
}

// NewState returns an empty state.
func NewState() *State {
	return &State{players: make(map[string]events.ActorSnapshot)}
}

type spectatingPayload struct {
	Code  string              `json:"code"`
	State events.RoomSnapshot `json:"state"`
}

type gridUpdatePayload struct {
	Tick    int                    `json:"tick"`
	Changes []core.CellChange      `json:"changes"`
	Players []events.ActorSnapshot `json:"players"`
}

type basePlacedPayload struct {
	Success  bool              `json:"success"`
	PlayerID string            `json:"playerId"`
	Cells    []core.CellChange `json:"cells"`
}

type playerJoinedPayload struct {
	Player events.ActorSnapshot `json:"player"`
}

type playerLeftPayload struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type phasePayload struct {
	Phase string `json:"phase"`
}

type eliminatedPayload struct {
	PlayerID     string `json:"playerId"`
	EliminatedBy string `json:"eliminatedBy"`
}

type combatPayload struct {
	AttackerID string `json:"attackerId"`
	DefenderID string `json:"defenderId"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
}

type gameOverPayload struct {
	Winner events.ActorSnapshot `json:"winner"`
	Tick   int                  `json:"tick"`
}

type errorPayload struct {
	Reason string `json:"reason"`
}

// Apply updates the state from one inbound envelope. Unknown types are
// ignored.
func (s *State) Apply(env server.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch env.Type {
	case server.OutSpectating:
		var p spectatingPayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		s.code = p.Code
		s.resetLocked(p.State)
	case server.OutFullState:
		var p events.RoomSnapshot
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		s.resetLocked(p)
	case server.OutGridUpdate:
		var p gridUpdatePayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		s.tick = p.Tick
		s.applyCellsLocked(p.Changes)
		for _, a := range p.Players {
			s.players[a.ID] = a
		}
	case server.OutBasePlaced:
		var p basePlacedPayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		if p.Success {
			s.applyCellsLocked(p.Cells)
			s.pushLocked(fmt.Sprintf("%s placed a base", s.nameLocked(p.PlayerID)))
		}
	case server.OutPlayerJoined:
		var p playerJoinedPayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		s.players[p.Player.ID] = p.Player
		s.pushLocked(p.Player.Name + " joined")
	case server.OutPlayerLeft:
		var p playerLeftPayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		delete(s.players, p.PlayerID)
		s.pushLocked(p.Name + " left")
	case server.OutPhaseChanged:
		var p phasePayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		s.phase = p.Phase
		s.pushLocked("phase: " + p.Phase)
	case server.OutActorEliminated:
		var p eliminatedPayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		s.pushLocked(fmt.Sprintf("%s eliminated by %s", s.nameLocked(p.PlayerID), s.nameLocked(p.EliminatedBy)))
	case server.OutCombatEvent:
		var p combatPayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		s.pushLocked(fmt.Sprintf("%s took (%d,%d) from %s", s.nameLocked(p.AttackerID), p.X, p.Y, s.nameLocked(p.DefenderID)))
	case server.OutGameOver:
		var p gameOverPayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		s.winner = p.Winner.Name
		s.tick = p.Tick
		s.pushLocked("winner: " + p.Winner.Name)
	case server.OutError:
		var p errorPayload
		if err := decodePayload(env, &p); err != nil {
			return err
		}
		s.pushLocked("error: " + p.Reason)
	}
	return nil
}

func decodePayload(env server.Envelope, into interface{}) error {
	if err := json.Unmarshal(env.Payload, into); err != nil {
		return fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return nil
}

func (s *State) resetLocked(snap events.RoomSnapshot) {
	if snap.Code != "" {
		s.code = snap.Code
	}
	s.phase = snap.GameState
	s.tick = snap.TickCount
	s.width, s.height = snap.Map.Width, snap.Map.Height
	s.cells = make([]CellView, s.width*s.height)
	for i := range s.cells {
		if i < len(snap.Map.Terrain) {
			s.cells[i].Land = snap.Map.Terrain[i] == 'L'
		}
	}
	s.applyCellsLocked(snap.Map.Cells)

	s.players = make(map[string]events.ActorSnapshot, len(snap.Players))
	for _, a := range snap.Players {
		s.players[a.ID] = a
	}
}

func (s *State) applyCellsLocked(changes []core.CellChange) {
	for _, ch := range changes {
		if ch.X < 0 || ch.Y < 0 || ch.X >= s.width || ch.Y >= s.height {
			continue
		}
		c := &s.cells[ch.Y*s.width+ch.X]
		c.Owner = ch.Owner
		c.Troops = ch.Troops
		c.Building = ch.Building
	}
}

func (s *State) nameLocked(id string) string {
	if a, ok := s.players[id]; ok {
		return a.Name
	}
	if id == "" {
		return "nobody"
	}
	return id
}

func (s *State) pushLocked(line string) {
	s.feed = append(s.feed, line)
	if len(s.feed) > maxFeed {
		s.feed = s.feed[len(s.feed)-maxFeed:]
	}
}

// View returns a copy of the current state. Players are sorted by cells,
// descending.
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Code:   s.code,
		Phase:  s.phase,
		Tick:   s.tick,
		Width:  s.width,
		Height: s.height,
		Cells:  append([]CellView(nil), s.cells...),
		Winner: s.winner,
		Feed:   append([]string(nil), s.feed...),
	}
	for _, a := range s.players {
		v.Players = append(v.Players, a)
	}
	sort.Slice(v.Players, func(i, j int) bool {
		if v.Players[i].Cells != v.Players[j].Cells {
			return v.Players[i].Cells > v.Players[j].Cells
		}
		return v.Players[i].ID < v.Players[j].ID
	})
	return v
}
