package server

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AIRF0X788/Op-V2/internal/common"
	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/game/events/subscribers"
	"github.com/AIRF0X788/Op-V2/internal/game/states"
)

// ErrAtCapacity is returned by Create when MaxRooms rooms are live.
var ErrAtCapacity = errors.New("server at capacity")

// RegistryConfig configures a MatchRegistry.
type RegistryConfig struct {
	Rules            game.Rules
	MaxRooms         int
	FinishedTTL      time.Duration
	AbandonedTimeout time.Duration
	CleanupInterval  time.Duration
	BotFactory       game.BotFactory
	// LogEvents attaches an event logger to every room bus.
	LogEvents bool
	Logger    zerolog.Logger
}

// Match is a live room with its event relay.
type Match struct {
	Room  *game.Room
	Relay *Relay

	bus    *events.EventBus
	cancel context.CancelFunc
	done   chan struct{}
}

// MatchRegistry owns every live room: creation with unique codes, lookup,
// listing, and periodic removal of finished or abandoned rooms.
type MatchRegistry struct {
	cfg RegistryConfig

	mu    sync.RWMutex
	rooms map[string]*Match
	rng   *rand.Rand
	now   func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMatchRegistry creates a registry. Room tick loops run until ctx is
// cancelled or the room is removed.
func NewMatchRegistry(ctx context.Context, cfg RegistryConfig) *MatchRegistry {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(ctx)
	return &MatchRegistry{
		cfg:    cfg,
		rooms:  make(map[string]*Match),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Create opens a new room in the lobby phase and starts its tick loop.
func (mr *MatchRegistry) Create() (*Match, error) {
	mr.mu.Lock()
	if mr.cfg.MaxRooms > 0 && len(mr.rooms) >= mr.cfg.MaxRooms {
		current := len(mr.rooms)
		mr.mu.Unlock()
		log.Warn().
			Int("current_rooms", current).
			Int("max_rooms", mr.cfg.MaxRooms).
			Msg("Rejecting room creation - server at capacity")
		return nil, fmt.Errorf("%w: %d/%d rooms active", ErrAtCapacity, current, mr.cfg.MaxRooms)
	}
	code := mr.uniqueCodeLocked()
	seed := mr.rng.Int63()
	rules := mr.cfg.Rules
	// reserve the code while the map is generated outside the lock
	mr.rooms[code] = nil
	mr.mu.Unlock()

	bus := events.NewEventBus()
	relay := NewRelay(code, mr.cfg.Logger)
	bus.Subscribe(relay)
	if mr.cfg.LogEvents {
		bus.Subscribe(subscribers.NewLoggerSubscriber("log-"+code, mr.cfg.Logger, zerolog.InfoLevel))
	}

	room := game.NewRoom(game.RoomOptions{
		Code:       code,
		Rules:      rules,
		Logger:     mr.cfg.Logger,
		Bus:        bus,
		Seed:       seed,
		BotFactory: mr.cfg.BotFactory,
	})

	ctx, cancel := context.WithCancel(mr.ctx)
	m := &Match{Room: room, Relay: relay, bus: bus, cancel: cancel, done: make(chan struct{})}

	mr.mu.Lock()
	mr.rooms[code] = m
	count := len(mr.rooms)
	mr.mu.Unlock()

	mr.wg.Add(1)
	go func() {
		defer mr.wg.Done()
		defer close(m.done)
		if err := room.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("room", code).Msg("Room loop exited")
		}
	}()

	log.Info().
		Str("room", code).
		Int("current_rooms", count).
		Int("max_rooms", mr.cfg.MaxRooms).
		Msg("Room created")
	return m, nil
}

func (mr *MatchRegistry) uniqueCodeLocked() string {
	buf := make([]byte, common.RoomCodeLength)
	for {
		for i := range buf {
			buf[i] = common.RoomCodeChars[mr.rng.Intn(len(common.RoomCodeChars))]
		}
		code := string(buf)
		if _, taken := mr.rooms[code]; !taken {
			return code
		}
	}
}

// SetRules replaces the ruleset of rooms created from now on. Running
// rooms keep the rules they started with.
func (mr *MatchRegistry) SetRules(rules game.Rules) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.cfg.Rules = rules
}

// Get looks a room up by code, case-insensitively.
func (mr *MatchRegistry) Get(code string) (*Match, bool) {
	code = common.NormalizeRoomCode(code)
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	m, ok := mr.rooms[code]
	return m, ok && m != nil
}

// Count returns the number of live rooms.
func (mr *MatchRegistry) Count() int {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return len(mr.rooms)
}

// HasCapacity reports whether Create would accept another room.
func (mr *MatchRegistry) HasCapacity() bool {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.cfg.MaxRooms <= 0 || len(mr.rooms) < mr.cfg.MaxRooms
}

// List returns the listing view of every room, sorted by code.
func (mr *MatchRegistry) List() []game.RoomInfo {
	out := make([]game.RoomInfo, 0)
	for _, m := range mr.snapshot() {
		out = append(out, m.Room.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (mr *MatchRegistry) snapshot() []*Match {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make([]*Match, 0, len(mr.rooms))
	for _, m := range mr.rooms {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// Remove stops a room, detaches its sessions and forgets it.
func (mr *MatchRegistry) Remove(code string) bool {
	mr.mu.Lock()
	m, ok := mr.rooms[code]
	if ok && m != nil {
		delete(mr.rooms, code)
	}
	mr.mu.Unlock()
	if !ok || m == nil {
		return false
	}

	m.cancel()
	<-m.done
	m.bus.Unsubscribe(m.Relay.ID())
	m.Relay.CloseAll()
	return true
}

// Run removes finished and abandoned rooms every CleanupInterval until
// ctx is cancelled.
func (mr *MatchRegistry) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Msg("Room cleanup loop panicked - restarting")
			time.Sleep(5 * time.Second)
			go mr.Run(ctx)
		}
	}()

	ticker := time.NewTicker(mr.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			mr.Cleanup()
		}
	}
}

// Cleanup removes finished rooms after FinishedTTL and any room idle for
// AbandonedTimeout with nobody connected. It returns the number of rooms
// removed.
func (mr *MatchRegistry) Cleanup() int {
	now := mr.now()
	var toDelete []string

	// Room locks are taken without holding the registry lock.
	for _, m := range mr.snapshot() {
		info := m.Room.Info()
		inactive := now.Sub(m.Room.LastActivity())

		reason := ""
		switch {
		case info.Phase == states.PhaseFinished.String() && inactive > mr.cfg.FinishedTTL:
			reason = "finished room TTL expired"
		case inactive > mr.cfg.AbandonedTimeout && m.Relay.ClientCount() == 0:
			reason = "room abandoned (no activity)"
		case info.Humans == 0 && m.Relay.ClientCount() == 0 && info.Phase == states.PhaseLobby.String() && inactive > mr.cfg.FinishedTTL:
			reason = "empty lobby"
		}
		if reason == "" {
			continue
		}

		toDelete = append(toDelete, info.Code)
		log.Info().
			Str("room", info.Code).
			Str("reason", reason).
			Dur("age", now.Sub(info.CreatedAt)).
			Dur("inactive", inactive).
			Msg("Cleaning up room")
	}

	removed := 0
	for _, code := range toDelete {
		if mr.Remove(code) {
			removed++
		}
	}
	if removed > 0 {
		log.Info().
			Int("cleaned", removed).
			Int("remaining", mr.Count()).
			Msg("Room cleanup completed")
	}
	return removed
}

// Shutdown stops every room loop and waits for them to exit.
func (mr *MatchRegistry) Shutdown() {
	mr.cancel()
	for _, m := range mr.snapshot() {
		m.Relay.CloseAll()
	}
	mr.wg.Wait()
}
