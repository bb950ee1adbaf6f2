package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRules() game.Rules {
	rules := game.DefaultRules()
	rules.MapWidth = 40
	rules.MapHeight = 30
	rules.BaseRadius = 3
	rules.ClaimRadius = 1
	rules.MinParticipants = 2
	return rules
}

func newTestRegistry(t *testing.T, maxRooms int) *MatchRegistry {
	t.Helper()
	mr := NewMatchRegistry(context.Background(), RegistryConfig{
		Rules:            testRules(),
		MaxRooms:         maxRooms,
		FinishedTTL:      10 * time.Minute,
		AbandonedTimeout: 30 * time.Minute,
		CleanupInterval:  time.Minute,
		Logger:           testutil.NopLogger(),
	})
	t.Cleanup(mr.Shutdown)
	return mr
}

// testServer is a full HTTP + websocket stack on a random port.
type testServer struct {
	registry *MatchRegistry
	hub      *Hub
	http     *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	registry := NewMatchRegistry(context.Background(), RegistryConfig{
		Rules:            testRules(),
		MaxRooms:         10,
		FinishedTTL:      10 * time.Minute,
		AbandonedTimeout: 30 * time.Minute,
		CleanupInterval:  time.Minute,
		Logger:           testutil.NopLogger(),
	})
	hub := NewHub(registry, HubConfig{AllowedOrigins: []string{"*"}, SendBuffer: 512}, testutil.NopLogger())
	srv := httptest.NewServer(NewRouter(hub, registry, testutil.NopLogger()))
	t.Cleanup(func() {
		hub.CloseAll()
		registry.Shutdown()
		srv.Close()
	})
	return &testServer{registry: registry, hub: hub, http: srv}
}

func (ts *testServer) wsURL(query string) string {
	u := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

// wsClient is a test client speaking one codec.
type wsClient struct {
	t     *testing.T
	conn  *websocket.Conn
	codec Codec
}

func dial(t *testing.T, url string, codec Codec) *wsClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{t: t, conn: conn, codec: codec}
}

func (c *wsClient) send(msgType, requestID string, payload interface{}) {
	c.t.Helper()
	env, err := newEnvelope(msgType, requestID, payload)
	require.NoError(c.t, err)
	mt, data, err := c.codec.Encode(env)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteMessage(mt, data))
}

// expect reads until an envelope of type t matching accept arrives.
func (c *wsClient) expect(msgType string, accept func(Envelope) bool) Envelope {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		mt, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err, "waiting for %s", msgType)
		env, err := c.codec.Decode(mt, data)
		require.NoError(c.t, err)
		if env.Type == msgType && (accept == nil || accept(env)) {
			return env
		}
	}
}

func payloadOf[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Payload, &out))
	return out
}
