package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// Session is one websocket connection. The reader goroutine dispatches
// inbound envelopes; the writer goroutine owns all writes to conn.
type Session struct {
	id     string
	conn   *websocket.Conn
	codec  Codec
	send   chan Envelope
	hub    *Hub
	logger zerolog.Logger

	mu        sync.Mutex
	match     *Match
	actorID   string
	spectator bool

	closeOnce sync.Once
	closed    chan struct{}
}

func newSession(h *Hub, conn *websocket.Conn, codec Codec, buffer int) *Session {
	id := uuid.NewString()
	return &Session{
		id:     id,
		conn:   conn,
		codec:  codec,
		send:   make(chan Envelope, buffer),
		hub:    h,
		logger: h.logger.With().Str("session_id", id).Logger(),
		closed: make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Send queues env without blocking. A full queue drops the envelope; the
// client recovers with requestFullState.
func (s *Session) Send(env Envelope) bool {
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.send <- env:
		return true
	case <-s.closed:
		return false
	default:
		s.logger.Warn().
			Str("type", env.Type).
			Msg("Session send queue full, dropping message")
		return false
	}
}

// binding returns the room the session is in, if any.
func (s *Session) binding() (*Match, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.match, s.actorID, s.spectator
}

func (s *Session) bind(m *Match, actorID string, spectator bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.match, s.actorID, s.spectator = m, actorID, spectator
}

func (s *Session) unbind() {
	s.bind(nil, "", false)
}

// close stops the writer and closes the connection. Safe to call twice.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
}

func (s *Session) reader() {
	defer s.hub.disconnect(s)

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Msg("Session read failed")
			}
			return
		}
		env, err := s.codec.Decode(messageType, data)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Dropping malformed message")
			s.sendError("", "Malformed message")
			continue
		}
		s.hub.dispatch(s, env)
	}
}

func (s *Session) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case env := <-s.send:
			if err := s.write(env); err != nil {
				s.logger.Debug().Err(err).Msg("Session write failed")
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closed:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (s *Session) write(env Envelope) error {
	messageType, data, err := s.codec.Encode(env)
	if err != nil {
		// one bad envelope must not kill the connection
		s.logger.Error().Err(err).Str("type", env.Type).Msg("Failed to encode message")
		return nil
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

func (s *Session) sendError(requestID, reason string) {
	env, err := newEnvelope(OutError, requestID, errorPayload{Reason: reason})
	if err == nil {
		s.Send(env)
	}
}
