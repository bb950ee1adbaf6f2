package bot

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/AIRF0X788/Op-V2/internal/common"
	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// Controller drives one bot. It decides at most once per jittered
// interval and answers alliance proposals and trade offers after a
// simulated thinking delay.
type Controller struct {
	id      string
	profile Profile
	rng     *rand.Rand
	logger  zerolog.Logger

	nextPlanAt time.Time

	// pending answers keyed by "alliance:<from>" or "trade:<id>"
	dueAt   map[string]time.Time
	decided map[string]bool
}

// NewController creates the controller for actor.
func NewController(actor *game.Actor, rng *rand.Rand, logger zerolog.Logger) *Controller {
	difficulty := Medium
	if b := actor.AsBot(); b != nil {
		difficulty = b.Difficulty
	}
	profile := ProfileFor(difficulty)
	return &Controller{
		id:      actor.ID,
		profile: profile,
		rng:     rng,
		logger: logger.With().
			Str("component", "BotController").
			Str("bot", actor.ID).
			Str("difficulty", profile.Name).
			Logger(),
		dueAt:   make(map[string]time.Time),
		decided: make(map[string]bool),
	}
}

// NewFactory returns a game.BotFactory producing Controllers.
func NewFactory(logger zerolog.Logger) game.BotFactory {
	return func(actor *game.Actor, rng *rand.Rand) game.BotController {
		return NewController(actor, rng, logger)
	}
}

func (c *Controller) ActorID() string { return c.id }

// Profile returns the difficulty tier of the bot.
func (c *Controller) Profile() Profile { return c.profile }

func (c *Controller) ready(now time.Time) bool {
	return !now.Before(c.nextPlanAt)
}

func (c *Controller) planned(now time.Time) {
	c.nextPlanAt = now.Add(c.profile.NextInterval(c.rng))
}

// Step implements game.BotController.
func (c *Controller) Step(turn *game.BotTurn) {
	c.respond(turn)

	if !c.ready(turn.Now) {
		return
	}
	c.planned(turn.Now)

	s := Analyze(turn)
	selected, strategy := c.choose(s)
	if b := turn.Self.AsBot(); b != nil {
		b.Strategy = string(selected)
	}

	c.logger.Debug().
		Int("tick", turn.Tick).
		Str("strategy", string(strategy)).
		Int("cells", len(s.Cells)).
		Int("threats", len(s.Threats)).
		Int("opportunities", len(s.Opportunities)).
		Float64("gold", s.Gold).
		Msg("Bot decision")

	p := &planner{turn: turn, s: s, profile: c.profile, rng: c.rng}
	p.execute(strategy)
}

// choose returns the strategy the situation calls for and the one the
// bot will actually play, which is Random when the tier makes a mistake.
func (c *Controller) choose(s *Situation) (selected, played Strategy) {
	selected = SelectStrategy(s, c.profile, c.rng)
	if c.rng.Float64() < c.profile.MistakeRate {
		return selected, Random
	}
	return selected, selected
}

// respond answers incoming diplomacy once its thinking delay has passed.
func (c *Controller) respond(turn *game.BotTurn) {
	live := make(map[string]bool, len(turn.IncomingProposals)+len(turn.IncomingTrades))

	for _, from := range turn.IncomingProposals {
		key := "alliance:" + from
		live[key] = true
		if !c.due(key, turn) {
			continue
		}
		accept := c.rng.Float64() < c.profile.AllianceProbability
		if accept {
			turn.Actions.ProposeAlliance(from)
		}
		c.logger.Debug().Str("from", from).Bool("accepted", accept).Msg("Alliance proposal answered")
	}

	for _, offer := range turn.IncomingTrades {
		key := "trade:" + offer.ID
		live[key] = true
		if !c.due(key, turn) {
			continue
		}
		var res game.ActionResult
		accept := c.acceptTrade(turn.Self, offer)
		if accept {
			res = turn.Actions.AcceptTrade(offer.ID)
		} else {
			res = turn.Actions.RejectTrade(offer.ID)
		}
		c.logger.Debug().
			Str("trade_id", offer.ID).
			Bool("accepted", accept).
			Bool("success", res.Success).
			Msg("Trade offer answered")
	}

	for key := range c.dueAt {
		if !live[key] {
			delete(c.dueAt, key)
			delete(c.decided, key)
		}
	}
}

// due schedules key on first sight and reports whether it should be
// answered now. Each key is answered once.
func (c *Controller) due(key string, turn *game.BotTurn) bool {
	if c.decided[key] {
		return false
	}
	at, ok := c.dueAt[key]
	if !ok {
		at = turn.Now.Add(c.thinkDelay(turn.Rules))
		c.dueAt[key] = at
	}
	if turn.Now.Before(at) {
		return false
	}
	c.decided[key] = true
	return true
}

func (c *Controller) thinkDelay(r *game.Rules) time.Duration {
	spread := r.BotThinkMax - r.BotThinkMin
	if spread <= 0 {
		return r.BotThinkMin
	}
	return r.BotThinkMin + time.Duration(c.rng.Int63n(int64(spread)))
}

// acceptTrade takes gifts, refuses what it cannot pay, and otherwise
// accepts with a chance growing with the offered/requested ratio and the
// tier's openness.
func (c *Controller) acceptTrade(self *game.Actor, offer events.TradeSnapshot) bool {
	if offer.RequestGold <= 0 {
		return true
	}
	if self.Gold < offer.RequestGold {
		return false
	}
	ratio := offer.OfferGold / offer.RequestGold
	chance := common.Clamp(ratio*(0.5+c.profile.AllianceProbability), 0, 1)
	return c.rng.Float64() < chance
}
