package spectate

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/server"
	"github.com/AIRF0X788/Op-V2/internal/testutil"
)

func TestClient_SpectatesLiveRoom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rules := game.DefaultRules()
	rules.MapWidth, rules.MapHeight = 30, 20
	rules.BaseRadius, rules.ClaimRadius = 3, 1
	rules.MinParticipants = 2

	registry := server.NewMatchRegistry(context.Background(), server.RegistryConfig{
		Rules:            rules,
		MaxRooms:         2,
		FinishedTTL:      time.Minute,
		AbandonedTimeout: time.Minute,
		CleanupInterval:  time.Minute,
		Logger:           testutil.NopLogger(),
	})
	hub := server.NewHub(registry, server.HubConfig{AllowedOrigins: []string{"*"}}, testutil.NopLogger())
	srv := httptest.NewServer(server.NewRouter(hub, registry, testutil.NopLogger()))
	t.Cleanup(func() {
		hub.CloseAll()
		registry.Shutdown()
		srv.Close()
	})

	m, err := registry.Create()
	require.NoError(t, err)
	_, err = m.Room.Join("Alice", "local")
	require.NoError(t, err)

	state := NewState()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, err := Dial(context.Background(), url, m.Room.Code(), state, testutil.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.Eventually(t, func() bool { return state.View().Code == m.Room.Code() }, 5*time.Second, 10*time.Millisecond)
	v := state.View()
	assert.Equal(t, "lobby", v.Phase)
	assert.Equal(t, 30, v.Width)
	require.Len(t, v.Players, 1)

	require.NoError(t, m.Room.StartWithBots())
	require.Eventually(t, func() bool { return len(state.View().Players) == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, c.RequestFullState())
	require.Eventually(t, func() bool { return state.View().Phase == "placement" }, 5*time.Second, 10*time.Millisecond)
	assert.NoError(t, c.Err())
}
