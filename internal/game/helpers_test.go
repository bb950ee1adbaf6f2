package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/game/states"
	"github.com/AIRF0X788/Op-V2/internal/testutil"
)

// recorder collects every event published on a bus.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) ID() string               { return "recorder" }
func (r *recorder) InterestedIn(string) bool { return true }

func (r *recorder) HandleEvent(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) ofType(eventType string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// fakeClock is a manually advanced clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testRules() Rules {
	r := DefaultRules()
	r.MapWidth, r.MapHeight = 30, 30
	r.BaseRadius = 3
	r.ClaimRadius = 1
	r.MinParticipants = 2
	return r
}

type fixture struct {
	room  *Room
	rec   *recorder
	clock *fakeClock
	alice string
	bob   string
}

// newLobby creates a room on an all-land 30x30 grid.
func newLobby(t *testing.T, rules Rules) *fixture {
	t.Helper()
	bus := events.NewEventBus()
	rec := &recorder{}
	bus.Subscribe(rec)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}

	room := NewRoom(RoomOptions{
		Code:   "TEST01",
		Rules:  rules,
		Logger: testutil.NopLogger(),
		Bus:    bus,
		Seed:   42,
		Grid:   core.NewLandGrid(30, 30),
		Clock:  clock.Now,
	})
	return &fixture{room: room, rec: rec, clock: clock}
}

// newPlayingRoom returns a playing room with two humans: alice based at
// (5,5) and bob at (20,20). Each holds the 5 cells within distance 1 of
// the base with 20 troops apiece.
func newPlayingRoom(t *testing.T) *fixture {
	t.Helper()
	f := newLobby(t, testRules())

	alice, err := f.room.Join("alice", "s1")
	require.NoError(t, err)
	bob, err := f.room.Join("bob", "s2")
	require.NoError(t, err)
	f.alice, f.bob = alice.ID, bob.ID

	require.NoError(t, f.room.StartGame(f.alice))
	require.True(t, f.room.PlaceBase(f.alice, 5, 5).Success)
	require.True(t, f.room.PlaceBase(f.bob, 20, 20).Success)
	require.Equal(t, states.PhasePlaying, f.room.Phase())
	f.rec.reset()
	return f
}

func (f *fixture) actor(id string) *Actor {
	return f.room.actors[id]
}

func (f *fixture) cell(x, y int) *core.Cell {
	return f.room.grid.GetCell(x, y)
}

// own assigns a cell directly and keeps derived fields consistent.
func (f *fixture) own(x, y int, owner string, troops float64) {
	c := f.cell(x, y)
	c.Owner = owner
	c.Troops = troops
	f.room.economy.RecomputeDerived(f.room.grid, f.room.actors)
}

// cellTroops sums the troops on every cell owned by id.
func cellTroops(g *core.Grid, id string) float64 {
	sum := 0.0
	for _, c := range g.PlayerCells(id) {
		sum += c.Troops
	}
	return sum
}
