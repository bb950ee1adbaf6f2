package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

func isAction(action string) func(Envelope) bool {
	return func(env Envelope) bool {
		var p actionResultPayload
		return json.Unmarshal(env.Payload, &p) == nil && p.Action == action
	}
}

// basePair picks two land cells far enough apart for both bases.
func basePair(t *testing.T, m events.MapSnapshot, spacing int) (core.Coordinate, core.Coordinate) {
	t.Helper()
	var land []core.Coordinate
	for i, ch := range m.Terrain {
		if ch == 'L' {
			land = append(land, core.FromIndex(i, m.Width))
		}
	}
	require.NotEmpty(t, land)

	a := land[0]
	b := a
	for _, c := range land {
		if a.ChebyshevDistance(c) > a.ChebyshevDistance(b) {
			b = c
		}
	}
	require.Greater(t, a.ChebyshevDistance(b), spacing)
	return a, b
}

func TestServer_MatchFlow(t *testing.T) {
	ts := newTestServer(t)

	alice := dial(t, ts.wsURL(""), JSONCodec{})
	alice.send(MsgCreateRoom, "c1", namePayload{Name: "Alice"})
	created := payloadOf[roomJoinedPayload](t, alice.expect(OutRoomCreated, nil))
	assert.True(t, created.IsHost)
	assert.Len(t, created.Code, 6)
	assert.Equal(t, "lobby", created.State.GameState)

	bob := dial(t, ts.wsURL(""), JSONCodec{})
	bob.send(MsgJoinRoom, "j1", joinPayload{Code: created.Code, Name: "Bob"})
	joined := payloadOf[roomJoinedPayload](t, bob.expect(OutRoomJoined, nil))
	assert.False(t, joined.IsHost)
	assert.Equal(t, created.Code, joined.Code)

	pj := payloadOf[playerJoinedPayload](t, alice.expect(OutPlayerJoined, nil))
	assert.Equal(t, "Bob", pj.Player.Name)

	bob.send(MsgStartGame, "s1", nil)
	res := payloadOf[actionResultPayload](t, bob.expect(OutActionResult, isAction(MsgStartGame)))
	assert.False(t, res.Success)
	assert.Equal(t, core.Reason(core.ErrNotHost), res.Reason)

	alice.send(MsgStartGame, "s2", nil)
	res = payloadOf[actionResultPayload](t, alice.expect(OutActionResult, isAction(MsgStartGame)))
	require.True(t, res.Success)
	bob.expect(OutGameStarted, nil)

	a, b := basePair(t, created.State.Map, testRules().BaseRadius+testRules().ClaimRadius)
	alice.send(MsgPlaceBase, "p1", cellPayload{X: a.X, Y: a.Y})
	placed := payloadOf[basePlacedPayload](t, alice.expect(OutBasePlaced, nil))
	require.True(t, placed.Success)
	require.NotEmpty(t, placed.Cells)

	bob.send(MsgPlaceBase, "p2", cellPayload{X: b.X, Y: b.Y})
	bob.expect(OutActionResult, isAction(MsgPlaceBase))
	alice.expect(OutPhaseChanged, func(env Envelope) bool {
		return payloadOf[phaseChangedPayload](t, env).Phase == "playing"
	})

	// Expand next to the base. Replaying the request id returns the
	// cached success; a fresh id runs again and fails.
	target, ok := expansionTarget(created.State.Map, placed.Cells)
	require.True(t, ok)
	alice.send(MsgExpandTerritory, "e1", cellPayload{X: target.X, Y: target.Y})
	first := payloadOf[actionResultPayload](t, alice.expect(OutActionResult, isAction(MsgExpandTerritory)))
	require.True(t, first.Success, first.Reason)

	alice.send(MsgExpandTerritory, "e1", cellPayload{X: target.X, Y: target.Y})
	replay := payloadOf[actionResultPayload](t, alice.expect(OutActionResult, isAction(MsgExpandTerritory)))
	assert.True(t, replay.Success)

	alice.send(MsgExpandTerritory, "e2", cellPayload{X: target.X, Y: target.Y})
	again := payloadOf[actionResultPayload](t, alice.expect(OutActionResult, isAction(MsgExpandTerritory)))
	assert.False(t, again.Success)
	assert.Equal(t, core.Reason(core.ErrAlreadyOwned), again.Reason)

	require.NoError(t, bob.conn.Close())
	left := payloadOf[playerLeftPayload](t, alice.expect(OutPlayerLeft, nil))
	assert.Equal(t, joined.PlayerID, left.PlayerID)
	assert.Positive(t, left.ReleasedCells)
}

// expansionTarget finds an unowned land cell touching the claimed cells.
func expansionTarget(m events.MapSnapshot, claimed []core.CellChange) (core.Coordinate, bool) {
	owned := make(map[core.Coordinate]bool)
	for _, c := range claimed {
		owned[core.Coordinate{X: c.X, Y: c.Y}] = true
	}
	for _, c := range claimed {
		for _, n := range (core.Coordinate{X: c.X, Y: c.Y}).ValidNeighbors(m.Width, m.Height) {
			if !owned[n] && m.Terrain[n.ToIndex(m.Width)] == 'L' {
				return n, true
			}
		}
	}
	return core.Coordinate{}, false
}

func TestServer_ProtocolErrors(t *testing.T) {
	ts := newTestServer(t)
	c := dial(t, ts.wsURL(""), JSONCodec{})

	c.send(MsgExpandTerritory, "x1", cellPayload{X: 1, Y: 1})
	e := payloadOf[errorPayload](t, c.expect(OutError, nil))
	assert.Equal(t, "You are not in a room", e.Reason)

	c.send(MsgJoinRoom, "x2", joinPayload{Code: "NOPE00", Name: "Carol"})
	e = payloadOf[errorPayload](t, c.expect(OutError, nil))
	assert.Equal(t, core.Reason(core.ErrUnknownRoom), e.Reason)

	c.send(MsgCreateRoom, "x3", namePayload{Name: "!"})
	e = payloadOf[errorPayload](t, c.expect(OutError, nil))
	assert.Equal(t, core.Reason(core.ErrInvalidName), e.Reason)

	c.send("launchNukes", "x4", nil)
	e = payloadOf[errorPayload](t, c.expect(OutError, nil))
	assert.Equal(t, "Unknown message type", e.Reason)

	require.NoError(t, c.conn.WriteMessage(1, []byte("{not json")))
	e = payloadOf[errorPayload](t, c.expect(OutError, nil))
	assert.Equal(t, "Malformed message", e.Reason)
}

func TestServer_SpectatorAndProto(t *testing.T) {
	ts := newTestServer(t)

	host := dial(t, ts.wsURL(""), JSONCodec{})
	host.send(MsgCreateRoom, "c1", namePayload{Name: "Host"})
	created := payloadOf[roomJoinedPayload](t, host.expect(OutRoomCreated, nil))

	viewer := dial(t, ts.wsURL("encoding=proto"), ProtoCodec{})
	viewer.send(MsgSpectate, "v1", codePayload{Code: created.Code})
	spec := payloadOf[spectatingPayload](t, viewer.expect(OutSpectating, nil))
	assert.Equal(t, created.Code, spec.Code)
	assert.Equal(t, created.State.Map.Terrain, spec.State.Map.Terrain)

	viewer.send(MsgStartGame, "v2", nil)
	res := payloadOf[actionResultPayload](t, viewer.expect(OutActionResult, nil))
	assert.False(t, res.Success)
	assert.Equal(t, core.Reason(core.ErrSpectator), res.Reason)

	host.send(MsgStartGame, "s1", nil)
	viewer.expect(OutGameStarted, nil)
	viewer.expect(OutPlacementUpdate, nil)
}

func TestServer_RoomListing(t *testing.T) {
	ts := newTestServer(t)
	m, err := ts.registry.Create()
	require.NoError(t, err)

	resp, err := http.Get(ts.http.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Rooms []struct {
			Code  string `json:"code"`
			Phase string `json:"phase"`
		} `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.Rooms, 1)
	assert.Equal(t, m.Room.Code(), listing.Rooms[0].Code)
	assert.Equal(t, "lobby", listing.Rooms[0].Phase)

	one, err := http.Get(ts.http.URL + "/api/rooms/" + m.Room.Code())
	require.NoError(t, err)
	one.Body.Close()
	assert.Equal(t, http.StatusOK, one.StatusCode)

	missing, err := http.Get(ts.http.URL + "/api/rooms/ZZZZZZ")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	health, err := http.Get(ts.http.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
