package spectate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/AIRF0X788/Op-V2/internal/server"
)

// Client is a spectator connection feeding a State.
type Client struct {
	conn   *websocket.Conn
	codec  server.Codec
	state  *State
	logger zerolog.Logger

	writeMu sync.Mutex
	done    chan struct{}
	err     error
}

// Dial connects to url and starts spectating room code. Events are
// applied to state until the connection closes.
func Dial(ctx context.Context, url, code string, state *State, logger zerolog.Logger) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Client{
		conn:   conn,
		codec:  server.JSONCodec{},
		state:  state,
		logger: logger.With().Str("component", "SpectatorClient").Str("room", code).Logger(),
		done:   make(chan struct{}),
	}
	if err := c.send(server.MsgSpectate, map[string]string{"code": code}); err != nil {
		_ = conn.Close()
		return nil, err
	}
	go c.readLoop()
	return c, nil
}

// RequestFullState asks the server to resend the whole room.
func (c *Client) RequestFullState() error {
	return c.send(server.MsgRequestFullState, nil)
}

func (c *Client) send(msgType string, payload interface{}) error {
	env := server.Envelope{Type: msgType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", msgType, err)
		}
		env.Payload = raw
	}
	mt, data, err := c.codec.Encode(env)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(mt, data)
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.err = err
				c.logger.Warn().Err(err).Msg("Spectator connection lost")
			}
			return
		}
		env, err := c.codec.Decode(mt, data)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Dropping malformed frame")
			continue
		}
		if err := c.state.Apply(env); err != nil {
			c.logger.Warn().Err(err).Str("type", env.Type).Msg("Failed to apply update")
		}
	}
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the error that ended the connection, if any.
func (c *Client) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close ends the connection with a normal close frame.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
