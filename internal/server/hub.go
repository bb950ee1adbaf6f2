package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// HubConfig configures a Hub.
type HubConfig struct {
	AllowedOrigins []string
	SendBuffer     int
	IdempotencyTTL time.Duration
}

// Hub accepts websocket connections and binds their sessions to rooms.
type Hub struct {
	registry   *MatchRegistry
	upgrader   websocket.Upgrader
	idem       *IdempotencyManager
	sendBuffer int
	logger     zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates a hub serving the rooms of registry.
func NewHub(registry *MatchRegistry, cfg HubConfig, logger zerolog.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 256
	}
	h := &Hub{
		registry:   registry,
		idem:       NewIdempotencyManager(cfg.IdempotencyTTL),
		sendBuffer: cfg.SendBuffer,
		logger:     logger.With().Str("component", "Hub").Logger(),
		sessions:   make(map[string]*Session),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeWS upgrades the request. ?encoding=proto selects binary frames.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote", c.ClientIP()).Msg("Websocket upgrade failed")
		return
	}
	s := h.Attach(conn, CodecFor(c.Query("encoding")))
	h.logger.Info().
		Str("session_id", s.ID()).
		Str("remote", c.ClientIP()).
		Str("encoding", s.codec.Name()).
		Msg("Session connected")
}

// Attach registers a session for conn and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, codec Codec) *Session {
	s := newSession(h, conn, codec, h.sendBuffer)

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	go s.writer()
	go s.reader()
	return s
}

// SessionCount returns the number of open sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// disconnect releases everything the session held. The actor leaves its
// room, which frees its cells.
func (h *Hub) disconnect(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()
	if !ok {
		return
	}

	h.leave(s)
	h.idem.Forget(s.id)
	s.close()
	h.logger.Info().Str("session_id", s.id).Msg("Session disconnected")
}

// leave detaches s from its room, if any.
func (h *Hub) leave(s *Session) {
	m, actorID, spectator := s.binding()
	if m == nil {
		return
	}
	s.unbind()
	if spectator {
		m.Relay.RemoveSpectator(s)
		return
	}
	m.Relay.Detach(actorID)
	if err := m.Room.Leave(actorID); err != nil {
		h.logger.Debug().Err(err).Str("actor_id", actorID).Msg("Leave failed")
	}
}

// CloseAll closes every open session.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.close()
	}
}
