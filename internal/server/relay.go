package server

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// Relay forwards the events of one room to its connected sessions. It is
// subscribed to the room bus and runs under the room lock, so it only
// encodes and queues; it never calls back into the room.
type Relay struct {
	id     string
	logger zerolog.Logger

	mu         sync.RWMutex
	players    map[string]*Session // actorID -> session
	spectators map[string]*Session // sessionID -> session
}

// NewRelay creates the relay of room code.
func NewRelay(code string, logger zerolog.Logger) *Relay {
	return &Relay{
		id:         "relay-" + code,
		logger:     logger.With().Str("component", "Relay").Str("room", code).Logger(),
		players:    make(map[string]*Session),
		spectators: make(map[string]*Session),
	}
}

// ID implements events.Subscriber
func (r *Relay) ID() string { return r.id }

// InterestedIn implements events.Subscriber
func (r *Relay) InterestedIn(eventType string) bool {
	return eventType != events.TypeIncomeApplied
}

// HandleEvent implements events.Subscriber
func (r *Relay) HandleEvent(e events.Event) {
	env, ok, err := eventEnvelope(e)
	if err != nil {
		r.logger.Error().Err(err).Str("event_type", e.Type()).Msg("Failed to encode event")
		return
	}
	if !ok {
		return
	}

	if to := events.RecipientsOf(e); len(to) > 0 {
		for _, id := range to {
			r.SendTo(id, env)
		}
		return
	}
	r.Broadcast(env)
}

// Attach routes events for actorID to s, replacing any previous session.
func (r *Relay) Attach(actorID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[actorID] = s

	r.logger.Debug().
		Str("actor_id", actorID).
		Str("session_id", s.ID()).
		Int("total_sessions", len(r.players)+len(r.spectators)).
		Msg("Session attached")
}

// Detach stops routing events for actorID.
func (r *Relay) Detach(actorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, actorID)
}

// AddSpectator makes s receive every room-wide event.
func (r *Relay) AddSpectator(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spectators[s.ID()] = s
}

// RemoveSpectator stops sending events to s.
func (r *Relay) RemoveSpectator(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spectators, s.ID())
}

// SendTo queues env for the session of actorID. Bots and disconnected
// actors have no session and are skipped.
func (r *Relay) SendTo(actorID string, env Envelope) {
	r.mu.RLock()
	s, ok := r.players[actorID]
	r.mu.RUnlock()
	if ok {
		s.Send(env)
	}
}

// Broadcast queues env for every player and spectator.
func (r *Relay) Broadcast(env Envelope) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.players {
		s.Send(env)
	}
	for _, s := range r.spectators {
		s.Send(env)
	}
}

// ClientCount returns the number of attached sessions.
func (r *Relay) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) + len(r.spectators)
}

// CloseAll detaches every session and tells it the room is gone.
func (r *Relay) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.players)+len(r.spectators))
	for id, s := range r.players {
		sessions = append(sessions, s)
		delete(r.players, id)
	}
	for id, s := range r.spectators {
		sessions = append(sessions, s)
		delete(r.spectators, id)
	}
	r.mu.Unlock()

	closed, _ := newEnvelope(OutError, "", errorPayload{Reason: "Room closed"})
	for _, s := range sessions {
		s.unbind()
		s.Send(closed)
	}
}
