package bot

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
	"github.com/AIRF0X788/Op-V2/internal/game/states"
	"github.com/AIRF0X788/Op-V2/internal/testutil"
)

// fakeActions records the calls a controller makes.
type fakeActions struct {
	calls []string
}

func (f *fakeActions) record(format string, args ...interface{}) game.ActionResult {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	return game.ActionResult{Success: true}
}

func (f *fakeActions) Expand(x, y int) game.ActionResult { return f.record("expand:%d,%d", x, y) }
func (f *fakeActions) Reinforce(x, y, count int) game.ActionResult {
	return f.record("reinforce:%d,%d:%d", x, y, count)
}
func (f *fakeActions) Build(x, y int, b core.BuildingType) game.ActionResult {
	return f.record("build:%d,%d:%s", x, y, b)
}
func (f *fakeActions) ProposeAlliance(id string) game.ActionResult { return f.record("propose:%s", id) }
func (f *fakeActions) BreakAlliance(id string) game.ActionResult   { return f.record("break:%s", id) }
func (f *fakeActions) OfferTrade(id string, gold, request float64) game.ActionResult {
	return f.record("offer:%s:%.0f:%.0f", id, gold, request)
}
func (f *fakeActions) AcceptTrade(id string) game.ActionResult { return f.record("accept:%s", id) }
func (f *fakeActions) RejectTrade(id string) game.ActionResult { return f.record("reject:%s", id) }

func newTestController(t *testing.T, allianceProbability float64) (*Controller, *game.BotTurn, *fakeActions) {
	t.Helper()
	self := &game.Actor{ID: "bot_1", Gold: 100, Kind: &game.Bot{Difficulty: Hard}}
	c := NewController(self, rand.New(rand.NewSource(1)), testutil.NopLogger())
	c.profile.AllianceProbability = allianceProbability

	rules := game.DefaultRules()
	actions := &fakeActions{}
	turn := &game.BotTurn{
		Now:     time.Unix(1_700_000_000, 0),
		Self:    self,
		Rules:   &rules,
		Actions: actions,
	}
	return c, turn, actions
}

func TestNewController_UsesActorDifficulty(t *testing.T) {
	c, _, _ := newTestController(t, 0)
	assert.Equal(t, "bot_1", c.ActorID())
	assert.Equal(t, Hard, c.Profile().Name)

	plain := NewController(&game.Actor{ID: "x"}, rand.New(rand.NewSource(1)), testutil.NopLogger())
	assert.Equal(t, Medium, plain.Profile().Name)
}

func TestController_AnswersProposalAfterThinking(t *testing.T) {
	c, turn, actions := newTestController(t, 1)
	start := turn.Now
	turn.IncomingProposals = []string{"alice"}

	c.respond(turn)
	assert.Empty(t, actions.calls, "no answer before the thinking delay")

	turn.Now = start.Add(turn.Rules.BotThinkMax)
	c.respond(turn)
	assert.Equal(t, []string{"propose:alice"}, actions.calls)

	turn.Now = turn.Now.Add(time.Minute)
	c.respond(turn)
	assert.Len(t, actions.calls, 1, "each proposal is answered once")
}

func TestController_ForgetsWithdrawnProposals(t *testing.T) {
	c, turn, actions := newTestController(t, 1)
	turn.IncomingProposals = []string{"alice"}
	turn.Now = turn.Now.Add(turn.Rules.BotThinkMax)
	c.respond(turn)
	c.respond(turn)
	require.Len(t, actions.calls, 1)

	turn.IncomingProposals = nil
	c.respond(turn)
	assert.Empty(t, c.dueAt)

	turn.IncomingProposals = []string{"alice"}
	c.respond(turn)
	turn.Now = turn.Now.Add(turn.Rules.BotThinkMax)
	c.respond(turn)
	assert.Len(t, actions.calls, 2, "a renewed proposal is considered again")
}

func TestController_DeclinesSilently(t *testing.T) {
	c, turn, actions := newTestController(t, 0)
	turn.IncomingProposals = []string{"alice"}
	turn.Now = turn.Now.Add(turn.Rules.BotThinkMax)

	c.respond(turn)
	assert.Empty(t, actions.calls)
	assert.True(t, c.decided["alliance:alice"])
}

func TestController_AnswersTrades(t *testing.T) {
	c, turn, actions := newTestController(t, 1)
	turn.IncomingTrades = []events.TradeSnapshot{
		{ID: "gift", From: "alice", To: "bot_1", OfferGold: 50},
		{ID: "costly", From: "alice", To: "bot_1", OfferGold: 500, RequestGold: 200},
		{ID: "fair", From: "alice", To: "bot_1", OfferGold: 100, RequestGold: 100},
		{ID: "robbery", From: "alice", To: "bot_1", RequestGold: 50},
	}
	turn.Now = turn.Now.Add(turn.Rules.BotThinkMax)

	c.respond(turn)

	assert.ElementsMatch(t, []string{
		"accept:gift",
		"reject:costly",
		"accept:fair",
		"reject:robbery",
	}, actions.calls)
}

func TestController_PlaysThroughRoom(t *testing.T) {
	rules := game.DefaultRules()
	rules.MinParticipants = 3
	rules.BaseRadius = 3
	rules.ClaimRadius = 1

	now := time.Unix(1_700_000_000, 0)
	room := game.NewRoom(game.RoomOptions{
		Code:       "BOTS01",
		Rules:      rules,
		Logger:     testutil.NopLogger(),
		Seed:       7,
		Grid:       core.NewLandGrid(40, 40),
		BotFactory: NewFactory(testutil.NopLogger()),
		Clock:      func() time.Time { return now },
	})
	require.NoError(t, room.StartWithBots())
	require.Equal(t, states.PhasePlaying, room.Phase())

	initial := make(map[string]int)
	for _, p := range room.Snapshot().Players {
		require.True(t, p.IsBot)
		initial[p.ID] = p.Cells
	}
	require.Len(t, initial, 3)

	for i := 0; i < 300; i++ {
		now = now.Add(rules.TickInterval)
		room.Step()
	}

	snap := room.Snapshot()
	active := false
	for _, p := range snap.Players {
		assert.NotEmpty(t, p.Strategy, "bot %s never decided", p.ID)
		if p.Cells != initial[p.ID] {
			active = true
		}
	}
	for _, c := range snap.Map.Cells {
		if c.Building != core.BuildingNone {
			active = true
		}
	}
	assert.True(t, active, "bots should expand or build within 30 seconds")
}

func TestController_MistakesPlayRandom(t *testing.T) {
	c, _, _ := newTestController(t, 0)
	small := &Situation{Cells: cells(5)}

	c.profile.MistakeRate = 1
	selected, played := c.choose(small)
	assert.Equal(t, Economic, selected, "the label keeps the intended strategy")
	assert.Equal(t, Random, played)

	c.profile.MistakeRate = 0
	selected, played = c.choose(small)
	assert.Equal(t, Economic, selected)
	assert.Equal(t, Economic, played)
}
