package game

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/AIRF0X788/Op-V2/internal/game/core"
	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// TradeOffer is a pending gold exchange. It exists only until it is
// accepted, rejected or expires.
type TradeOffer struct {
	ID          string
	From        string
	To          string
	OfferGold   float64
	RequestGold float64
	CreatedAt   time.Time
}

func (t *TradeOffer) Snapshot() events.TradeSnapshot {
	return events.TradeSnapshot{
		ID:          t.ID,
		From:        t.From,
		To:          t.To,
		OfferGold:   t.OfferGold,
		RequestGold: t.RequestGold,
		CreatedAt:   t.CreatedAt.UnixMilli(),
	}
}

// diplomacyTarget validates the counterpart of a diplomatic action.
func (r *Room) diplomacyTarget(actorID, targetID string) (*Actor, *Actor, error) {
	a, err := r.actingActor(actorID)
	if err != nil {
		return nil, nil, err
	}
	if actorID == targetID {
		return nil, nil, core.ErrSelfTarget
	}
	t, ok := r.actors[targetID]
	if !ok {
		return nil, nil, core.ErrUnknownActor
	}
	if t.Eliminated {
		return nil, nil, core.ErrEliminated
	}
	return a, t, nil
}

// proposeAlliance records a one-way proposal. When the target has already
// proposed back, the alliance forms at once and both proposals are cleared.
func (r *Room) proposeAlliance(actorID, targetID string) ActionResult {
	a, t, err := r.diplomacyTarget(actorID, targetID)
	if err != nil {
		return resultOf(err)
	}
	if a.IsAlliedWith(targetID) {
		return resultOf(core.ErrAlreadyAllied)
	}
	if r.liveProposal(actorID, targetID) {
		return resultOf(core.ErrAlreadyProposed)
	}

	if r.liveProposal(targetID, actorID) {
		delete(r.proposals[targetID], actorID)
		a.Alliances[targetID] = true
		t.Alliances[actorID] = true

		r.logger.Info().
			Str("a", actorID).
			Str("b", targetID).
			Msg("Alliance formed")
		r.bus.Publish(events.NewAllianceFormedEvent(r.code, actorID, targetID))
		return ActionResult{Success: true, Message: "Alliance formed"}
	}

	if r.proposals[actorID] == nil {
		r.proposals[actorID] = make(map[string]time.Time)
	}
	r.proposals[actorID][targetID] = r.now()
	r.bus.Publish(events.NewAllianceProposedEvent(r.code, actorID, a.Name, targetID))
	return ActionResult{Success: true, Message: "Alliance proposed"}
}

// liveProposal reports whether from has a proposal to to that has not
// timed out. A timed out proposal is dropped on sight.
func (r *Room) liveProposal(from, to string) bool {
	at, ok := r.proposals[from][to]
	if !ok {
		return false
	}
	if r.now().Sub(at) > r.rules.AllianceTimeout {
		delete(r.proposals[from], to)
		return false
	}
	return true
}

func (r *Room) breakAlliance(actorID, targetID string) error {
	a, t, err := r.diplomacyTarget(actorID, targetID)
	if err != nil {
		return err
	}
	if !a.IsAlliedWith(targetID) {
		return core.ErrNotAllied
	}
	delete(a.Alliances, targetID)
	delete(t.Alliances, actorID)

	r.logger.Info().
		Str("by", actorID).
		Str("other", targetID).
		Msg("Alliance broken")
	r.bus.Publish(events.NewAllianceBrokenEvent(r.code, actorID, targetID))
	return nil
}

func (r *Room) offerTrade(actorID, targetID string, gold, requestGold float64) ActionResult {
	a, _, err := r.diplomacyTarget(actorID, targetID)
	if err != nil {
		return resultOf(err)
	}
	if gold < 0 || requestGold < 0 || (gold == 0 && requestGold == 0) {
		return resultOf(core.ErrInvalidAmount)
	}
	if a.Gold < gold {
		return resultOf(core.ErrInsufficientGold)
	}

	offer := &TradeOffer{
		ID:          uuid.NewString(),
		From:        actorID,
		To:          targetID,
		OfferGold:   gold,
		RequestGold: requestGold,
		CreatedAt:   r.now(),
	}
	r.trades[offer.ID] = offer
	r.bus.Publish(events.NewTradeOfferedEvent(r.code, offer.Snapshot(), a.Name))
	return ActionResult{Success: true, Message: "Trade offered", TradeID: offer.ID}
}

// acceptTrade performs both legs of the transfer or neither. A trade whose
// proposer can no longer pay stays pending until it expires.
func (r *Room) acceptTrade(actorID, tradeID string) error {
	to, err := r.actingActor(actorID)
	if err != nil {
		return err
	}
	offer, ok := r.trades[tradeID]
	if !ok || offer.To != actorID {
		return core.ErrUnknownTrade
	}
	if r.tradeExpired(offer) {
		r.expireTrade(offer)
		return core.ErrUnknownTrade
	}
	from, ok := r.actors[offer.From]
	if !ok {
		delete(r.trades, tradeID)
		return core.ErrUnknownActor
	}
	if from.Gold < offer.OfferGold || to.Gold < offer.RequestGold {
		return core.ErrInsufficientGold
	}

	from.Gold += offer.RequestGold - offer.OfferGold
	to.Gold += offer.OfferGold - offer.RequestGold
	delete(r.trades, tradeID)

	r.logger.Info().
		Str("trade_id", tradeID).
		Str("from", offer.From).
		Str("to", offer.To).
		Float64("gold", offer.OfferGold).
		Float64("request_gold", offer.RequestGold).
		Msg("Trade completed")
	r.bus.Publish(events.NewTradeCompletedEvent(r.code, offer.Snapshot()))
	return nil
}

func (r *Room) rejectTrade(actorID, tradeID string) error {
	if _, err := r.actingActor(actorID); err != nil {
		return err
	}
	offer, ok := r.trades[tradeID]
	if !ok || offer.To != actorID {
		return core.ErrUnknownTrade
	}
	if r.tradeExpired(offer) {
		r.expireTrade(offer)
		return nil
	}
	delete(r.trades, tradeID)
	r.bus.Publish(events.NewTradeRejectedEvent(r.code, offer.Snapshot(), false))
	return nil
}

func (r *Room) tradeExpired(offer *TradeOffer) bool {
	return r.now().Sub(offer.CreatedAt) > r.rules.TradeTimeout
}

// expireTrade drops offer and tells both sides it lapsed.
func (r *Room) expireTrade(offer *TradeOffer) {
	delete(r.trades, offer.ID)
	r.bus.Publish(events.NewTradeRejectedEvent(r.code, offer.Snapshot(), true))
}

// purgeExpired drops proposals and trades older than their timeouts.
func (r *Room) purgeExpired() {
	now := r.now()
	purged := 0
	for from, targets := range r.proposals {
		for to, at := range targets {
			if now.Sub(at) > r.rules.AllianceTimeout {
				delete(targets, to)
				purged++
			}
		}
		if len(targets) == 0 {
			delete(r.proposals, from)
		}
	}

	ids := make([]string, 0, len(r.trades))
	for id, t := range r.trades {
		if r.tradeExpired(t) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		r.expireTrade(r.trades[id])
	}

	if purged > 0 || len(ids) > 0 {
		r.logger.Debug().
			Int("proposals", purged).
			Int("trades", len(ids)).
			Msg("Expired diplomacy purged")
	}
}

// incomingProposals returns the ids of actors proposing to id, oldest
// first. Timed out proposals awaiting the purge are left out.
func (r *Room) incomingProposals(id string) []string {
	type pending struct {
		from string
		at   time.Time
	}
	now := r.now()
	var ps []pending
	for from, targets := range r.proposals {
		if at, ok := targets[id]; ok && now.Sub(at) <= r.rules.AllianceTimeout {
			ps = append(ps, pending{from, at})
		}
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].at.Equal(ps[j].at) {
			return ps[i].from < ps[j].from
		}
		return ps[i].at.Before(ps[j].at)
	})
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.from
	}
	return out
}

// incomingTrades returns the offers addressed to id, oldest first.
func (r *Room) incomingTrades(id string) []events.TradeSnapshot {
	var out []events.TradeSnapshot
	for _, t := range r.trades {
		if t.To == id && !r.tradeExpired(t) {
			out = append(out, t.Snapshot())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt == out[j].CreatedAt {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}

// PendingTrades returns the offers addressed to actorID.
func (r *Room) PendingTrades(actorID string) []events.TradeSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.incomingTrades(actorID)
}
