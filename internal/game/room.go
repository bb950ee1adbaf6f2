package game

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AIRF0X788/Op-V2/internal/common"
	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/game/mapgen"
	"github.com/AIRF0X788/Op-V2/internal/game/rules"
	"github.com/AIRF0X788/Op-V2/internal/game/states"
)

// RoomOptions configures a new Room.
type RoomOptions struct {
	Code   string
	Rules  Rules
	Logger zerolog.Logger
	// Bus receives every room event. A private bus is created when nil.
	Bus *events.EventBus
	// Seed drives map generation, bot placement and bot randomness.
	// Zero means time-seeded.
	Seed int64
	// Grid replaces the generated map.
	Grid       *core.Grid
	BotFactory BotFactory
	Clock      func() time.Time
}

// Room is one match. All state is guarded by mu: exported methods lock it,
// and the tick loop holds it for a whole step, so bots and humans never
// mutate the grid concurrently.
//
// Events are published while mu is held. Subscribers must not call back
// into the room.
type Room struct {
	mu sync.Mutex

	code   string
	rules  Rules
	logger zerolog.Logger
	bus    *events.EventBus
	now    func() time.Time
	rng    *rand.Rand

	machine *states.StateMachine
	gctx    *states.GameContext
	victory *rules.WinConditionChecker
	economy *ProductionManager

	grid     *core.Grid
	baseline *core.Grid
	dirty    map[int]struct{}
	tick     int

	actors  map[string]*Actor
	order   []string
	hostID  string
	joins   int
	humans  int
	bots    int
	placed  map[string]bool
	botMake BotFactory

	proposals map[string]map[string]time.Time // from -> to -> proposed at
	trades    map[string]*TradeOffer

	createdAt    time.Time
	lastActivity time.Time
	started      chan struct{}
	done         chan struct{}
}

// NewRoom creates a room in the lobby phase with a freshly generated map.
func NewRoom(opts RoomOptions) *Room {
	if opts.Code == "" {
		opts.Code = uuid.NewString()[:8]
	}
	if opts.Bus == nil {
		opts.Bus = events.NewEventBus()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	grid := opts.Grid
	if grid == nil {
		grid = mapgen.NewGenerator(opts.Rules.MapConfig(), rng).GenerateMap()
	}

	logger := opts.Logger.With().Str("component", "Room").Str("room", opts.Code).Logger()
	capacity := opts.Rules.MaxPlayers
	if opts.Rules.MinParticipants > capacity {
		capacity = opts.Rules.MinParticipants
	}
	gctx := states.NewGameContext(opts.Code, capacity, opts.Logger)
	gctx.Clock = opts.Clock

	r := &Room{
		code:      opts.Code,
		rules:     opts.Rules,
		logger:    logger,
		bus:       opts.Bus,
		now:       opts.Clock,
		rng:       rng,
		gctx:      gctx,
		machine:   states.NewStateMachine(gctx, opts.Bus),
		grid:      grid,
		dirty:     make(map[int]struct{}),
		actors:    make(map[string]*Actor),
		placed:    make(map[string]bool),
		botMake:   opts.BotFactory,
		proposals: make(map[string]map[string]time.Time),
		trades:    make(map[string]*TradeOffer),
		started:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	r.economy = NewProductionManager(r.bus, r.code, &r.rules, opts.Logger)
	r.createdAt = r.now()
	r.lastActivity = r.createdAt

	logger.Info().
		Int("width", grid.W).
		Int("height", grid.H).
		Int("land", grid.CountLand()).
		Msg("Room created")
	return r
}

func (r *Room) Code() string { return r.code }

// Bus returns the event bus the room publishes on.
func (r *Room) Bus() *events.EventBus { return r.bus }

// Rules returns a copy of the room's ruleset.
func (r *Room) Rules() Rules { return r.rules }

func (r *Room) Phase() states.GamePhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.CurrentPhase()
}

func (r *Room) HostID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID
}

// Started is closed when the room enters the playing phase.
func (r *Room) Started() <-chan struct{} { return r.started }

// Done is closed when the room enters the finished phase.
func (r *Room) Done() <-chan struct{} { return r.done }

// Join adds a human in the lobby. The first human becomes host.
func (r *Room) Join(name, sessionID string) (events.ActorSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.machine.CurrentPhase().CanAddPlayers() {
		return events.ActorSnapshot{}, core.ErrWrongPhase
	}
	if r.humans >= r.rules.MaxPlayers {
		return events.ActorSnapshot{}, core.ErrRoomFull
	}
	clean, err := common.ValidatePlayerName(name)
	if err != nil {
		return events.ActorSnapshot{}, err
	}

	now := r.now()
	a := newActor(uuid.NewString(), clean, common.PlayerColor(r.humans, false),
		r.rules.StartingGoldHuman, r.joins, &Human{SessionID: sessionID, JoinedAt: now})
	r.addActor(a)
	r.humans++
	if r.hostID == "" {
		r.hostID = a.ID
	}
	r.lastActivity = now

	r.logger.Info().
		Str("actor_id", a.ID).
		Str("name", a.Name).
		Bool("host", r.hostID == a.ID).
		Msg("Player joined")

	snap := a.Snapshot()
	r.bus.Publish(events.NewActorJoinedEvent(r.code, snap, r.hostID))
	return snap, nil
}

// AddBot adds a bot in the lobby.
func (r *Room) AddBot(difficulty string) (events.ActorSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.machine.CurrentPhase().CanAddPlayers() {
		return events.ActorSnapshot{}, core.ErrWrongPhase
	}
	if len(r.actors) >= r.gctx.MaxPlayers {
		return events.ActorSnapshot{}, core.ErrRoomFull
	}
	return r.addBot(difficulty).Snapshot(), nil
}

func (r *Room) addBot(difficulty string) *Actor {
	n := r.bots + 1
	b := &Bot{Difficulty: difficulty}
	a := newActor(fmt.Sprintf("bot_%d", n), fmt.Sprintf("Bot %d", n),
		common.PlayerColor(r.bots, true), r.rules.StartingGoldBot, r.joins, b)
	if r.botMake != nil {
		b.Controller = r.botMake(a, rand.New(rand.NewSource(r.rng.Int63())))
	}
	r.addActor(a)
	r.bots++

	r.logger.Info().
		Str("actor_id", a.ID).
		Str("difficulty", difficulty).
		Msg("Bot added")
	r.bus.Publish(events.NewActorJoinedEvent(r.code, a.Snapshot(), r.hostID))
	return a
}

func (r *Room) addActor(a *Actor) {
	r.actors[a.ID] = a
	r.order = append(r.order, a.ID)
	r.joins++
	r.gctx.PlayerCount = len(r.actors)
}

// Leave removes an actor. Its cells become unowned, its diplomacy is
// dropped, and host passes to the earliest-joined remaining human.
func (r *Room) Leave(actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leave(actorID)
}

func (r *Room) leave(actorID string) error {
	a, ok := r.actors[actorID]
	if !ok {
		return core.ErrUnknownActor
	}

	released := 0
	for i := range r.grid.C {
		if r.grid.C[i].OwnedBy(actorID) {
			r.grid.C[i].Release()
			r.dirty[i] = struct{}{}
			released++
		}
	}

	delete(r.actors, actorID)
	delete(r.placed, actorID)
	for i, id := range r.order {
		if id == actorID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if a.IsBot() {
		r.bots--
	} else {
		r.humans--
	}
	r.dropDiplomacy(actorID)
	r.gctx.PlayerCount = len(r.actors)
	r.gctx.PlacedCount = len(r.placed)

	if r.hostID == actorID {
		r.hostID = ""
		for _, id := range r.order {
			if !r.actors[id].IsBot() {
				r.hostID = id
				break
			}
		}
	}
	r.lastActivity = r.now()

	r.logger.Info().
		Str("actor_id", actorID).
		Int("released_cells", released).
		Str("new_host", r.hostID).
		Msg("Player left")
	r.bus.Publish(events.NewActorLeftEvent(r.code, actorID, a.Name, r.hostID, released))

	switch r.machine.CurrentPhase() {
	case states.PhasePlacement:
		r.publishPlacementUpdate()
		if r.gctx.AllPlaced() {
			r.beginPlaying()
		}
	case states.PhasePlaying:
		r.flushDirty()
	}
	return nil
}

// dropDiplomacy removes every alliance, proposal and trade involving id.
func (r *Room) dropDiplomacy(id string) {
	for _, other := range r.actors {
		delete(other.Alliances, id)
	}
	delete(r.proposals, id)
	for _, to := range r.proposals {
		delete(to, id)
	}
	for tid, t := range r.trades {
		if t.From == id || t.To == id {
			delete(r.trades, tid)
		}
	}
}

// HumanCount returns the number of human actors.
func (r *Room) HumanCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.humans
}

// StartGame closes the lobby on behalf of the host.
func (r *Room) StartGame(actorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.machine.CurrentPhase().CanAddPlayers() {
		return core.ErrWrongPhase
	}
	if actorID != r.hostID {
		return core.ErrNotHost
	}
	return r.start("host started the game")
}

// StartWithBots closes the lobby without a host, filling the room with
// bots. Used for headless matches.
func (r *Room) StartWithBots() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.machine.CurrentPhase().CanAddPlayers() {
		return core.ErrWrongPhase
	}
	return r.start("headless start")
}

func (r *Room) start(reason string) error {
	for len(r.actors) < r.rules.MinParticipants {
		r.addBot(r.rules.BotDifficulty)
	}
	r.gctx.PlayerCount = len(r.actors)

	if err := r.machine.TransitionTo(states.PhasePlacement, reason); err != nil {
		return fmt.Errorf("failed to start room %s: %w", r.code, err)
	}
	r.victory = rules.NewWinConditionChecker(r.logger, r.rules.VictoryThreshold, len(r.actors))
	r.lastActivity = r.now()

	r.logger.Info().
		Int("humans", r.humans).
		Int("bots", r.bots).
		Msg("Game started")
	r.bus.Publish(events.NewGameStartedEvent(r.code, len(r.actors), r.bots, r.grid.W, r.grid.H))
	r.bus.Publish(events.NewFullStateEvent(r.code, r.snapshot()))

	r.publishPlacementUpdate()

	ids := append([]string(nil), r.order...)
	for _, id := range ids {
		if a, ok := r.actors[id]; ok && a.IsBot() {
			r.placeBot(a)
		}
	}
	return nil
}

// Snapshot returns the full room state.
func (r *Room) Snapshot() events.RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Room) snapshot() events.RoomSnapshot {
	placed := make([]string, 0, len(r.placed))
	for _, id := range r.order {
		if r.placed[id] {
			placed = append(placed, id)
		}
	}
	return events.RoomSnapshot{
		Code:          r.code,
		HostID:        r.hostID,
		GameState:     r.machine.CurrentPhase().String(),
		TickCount:     r.tick,
		Players:       r.actorSnapshots(),
		Map:           events.NewMapSnapshot(r.grid),
		PlayersPlaced: placed,
	}
}

func (r *Room) actorSnapshots() []events.ActorSnapshot {
	out := make([]events.ActorSnapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.actors[id].Snapshot())
	}
	return out
}

// RoomInfo is the listing view of a room.
type RoomInfo struct {
	Code      string    `json:"code"`
	Phase     string    `json:"phase"`
	HostID    string    `json:"hostId"`
	Humans    int       `json:"humans"`
	Bots      int       `json:"bots"`
	Tick      int       `json:"tick"`
	CreatedAt time.Time `json:"createdAt"`
}

func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RoomInfo{
		Code:      r.code,
		Phase:     r.machine.CurrentPhase().String(),
		HostID:    r.hostID,
		Humans:    r.humans,
		Bots:      r.bots,
		Tick:      r.tick,
		CreatedAt: r.createdAt,
	}
}

// LastActivity is the time of the last lobby change, successful action
// or game end.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// Actor returns a copy of the actor's public view.
func (r *Room) Actor(id string) (events.ActorSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actors[id]
	if !ok {
		return events.ActorSnapshot{}, false
	}
	return a.Snapshot(), true
}

// Standings returns the final statistics, sorted by cells descending.
func (r *Room) Standings() []events.Standing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.standings()
}

func (r *Room) standings() []events.Standing {
	out := make([]events.Standing, 0, len(r.actors))
	for _, id := range r.order {
		out = append(out, r.actors[id].standing())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cells > out[j].Cells })
	return out
}
