package server

import (
	"encoding/json"
	"errors"

	"github.com/AIRF0X788/Op-V2/internal/common"
	"github.com/AIRF0X788/Op-V2/internal/game"
	"github.com/AIRF0X788/Op-V2/internal/game/core"
)

var (
	errBadPayload  = errors.New("invalid payload")
	errNotInRoom   = errors.New("not in a room")
	errAlreadyIn   = errors.New("already in a room")
	errUnknownType = errors.New("unknown message type")
)

var dispatchReasons = map[error]string{
	errBadPayload:  "Invalid payload",
	errNotInRoom:   "You are not in a room",
	errAlreadyIn:   "Leave your current room first",
	errUnknownType: "Unknown message type",
	ErrAtCapacity:  "Server is full, try again later",
}

func reasonOf(err error) string {
	for sentinel, reason := range dispatchReasons {
		if errors.Is(err, sentinel) {
			return reason
		}
	}
	return core.Reason(err)
}

// dispatch answers one inbound envelope. A repeated requestId of the same
// session gets the cached reply and the action is not run again.
func (h *Hub) dispatch(s *Session, env Envelope) {
	if cached, ok := h.idem.Check(s.id, env.RequestID); ok {
		s.Send(cached)
		return
	}

	reply, err := h.handle(s, env)
	if err != nil {
		reply, err = newEnvelope(OutError, env.RequestID, errorPayload{Reason: reasonOf(err)})
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to encode error reply")
			return
		}
	}
	reply.RequestID = env.RequestID
	h.idem.Store(s.id, env.RequestID, reply)
	s.Send(reply)
}

func decode(env Envelope, into interface{}) error {
	if len(env.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Payload, into); err != nil {
		return errBadPayload
	}
	return nil
}

// handle runs the request and builds its reply. Room rule violations are
// answered with an actionResult; lookup and protocol failures with error.
func (h *Hub) handle(s *Session, env Envelope) (Envelope, error) {
	switch env.Type {
	case MsgCreateRoom:
		return h.createRoom(s, env)
	case MsgJoinRoom:
		return h.joinRoom(s, env)
	case MsgSpectate:
		return h.spectate(s, env)
	case MsgLeaveRoom:
		h.leave(s)
		return actionReply(env, game.ActionResult{Success: true})
	case MsgRequestFullState:
		m, _, _ := s.binding()
		if m == nil {
			return Envelope{}, errNotInRoom
		}
		return newEnvelope(OutFullState, env.RequestID, m.Room.Snapshot())
	}

	m, actorID, spectator := s.binding()
	if m == nil {
		return Envelope{}, errNotInRoom
	}
	if spectator {
		return actionReply(env, game.ActionResult{Reason: core.Reason(core.ErrSpectator), Err: core.ErrSpectator})
	}
	room := m.Room

	var res game.ActionResult
	switch env.Type {
	case MsgStartGame:
		res = resultOf(room.StartGame(actorID))
	case MsgPlaceBase:
		var p cellPayload
		if err := decode(env, &p); err != nil {
			return Envelope{}, err
		}
		res = room.PlaceBase(actorID, p.X, p.Y)
		if !res.Success {
			if failed, err := newEnvelope(OutBasePlaced, env.RequestID, basePlacedPayload{
				PlayerID: actorID,
				BaseX:    p.X,
				BaseY:    p.Y,
				Reason:   res.Reason,
			}); err == nil {
				s.Send(failed)
			}
		}
	case MsgExpandTerritory:
		var p cellPayload
		if err := decode(env, &p); err != nil {
			return Envelope{}, err
		}
		res = room.Expand(actorID, p.X, p.Y)
	case MsgReinforceCell:
		var p reinforcePayload
		if err := decode(env, &p); err != nil {
			return Envelope{}, err
		}
		res = room.Reinforce(actorID, p.X, p.Y, p.Count)
	case MsgBuildBuilding:
		var p buildPayload
		if err := decode(env, &p); err != nil {
			return Envelope{}, err
		}
		b, err := core.ParseBuilding(p.Type)
		if err != nil {
			res = resultOf(err)
			break
		}
		res = room.Build(actorID, p.X, p.Y, b)
	case MsgProposeAlliance:
		var p targetPayload
		if err := decode(env, &p); err != nil {
			return Envelope{}, err
		}
		res = room.ProposeAlliance(actorID, p.TargetID)
	case MsgBreakAlliance:
		var p targetPayload
		if err := decode(env, &p); err != nil {
			return Envelope{}, err
		}
		res = room.BreakAlliance(actorID, p.TargetID)
	case MsgCreateTradeOffer:
		var p tradePayload
		if err := decode(env, &p); err != nil {
			return Envelope{}, err
		}
		res = room.OfferTrade(actorID, p.TargetID, p.Gold, p.RequestGold)
	case MsgAcceptTrade:
		var p tradeIDPayload
		if err := decode(env, &p); err != nil {
			return Envelope{}, err
		}
		res = room.AcceptTrade(actorID, p.TradeID)
	case MsgRejectTrade:
		var p tradeIDPayload
		if err := decode(env, &p); err != nil {
			return Envelope{}, err
		}
		res = room.RejectTrade(actorID, p.TradeID)
	default:
		return Envelope{}, errUnknownType
	}
	return actionReply(env, res)
}

func resultOf(err error) game.ActionResult {
	if err != nil {
		return game.ActionResult{Reason: core.Reason(err), Err: err}
	}
	return game.ActionResult{Success: true}
}

func actionReply(env Envelope, res game.ActionResult) (Envelope, error) {
	return newEnvelope(OutActionResult, env.RequestID, actionResultPayload{
		Action:    env.Type,
		Success:   res.Success,
		Message:   res.Message,
		Reason:    res.Reason,
		Conquered: res.Conquered,
		TradeID:   res.TradeID,
	})
}

func (h *Hub) createRoom(s *Session, env Envelope) (Envelope, error) {
	var p namePayload
	if err := decode(env, &p); err != nil {
		return Envelope{}, err
	}
	if m, _, _ := s.binding(); m != nil {
		return Envelope{}, errAlreadyIn
	}
	name, err := common.ValidatePlayerName(p.Name)
	if err != nil {
		return Envelope{}, err
	}
	m, err := h.registry.Create()
	if err != nil {
		return Envelope{}, err
	}
	return h.enter(s, m, name, OutRoomCreated, env.RequestID)
}

func (h *Hub) joinRoom(s *Session, env Envelope) (Envelope, error) {
	var p joinPayload
	if err := decode(env, &p); err != nil {
		return Envelope{}, err
	}
	if m, _, _ := s.binding(); m != nil {
		return Envelope{}, errAlreadyIn
	}
	m, ok := h.registry.Get(p.Code)
	if !ok {
		return Envelope{}, core.ErrUnknownRoom
	}
	return h.enter(s, m, p.Name, OutRoomJoined, env.RequestID)
}

// enter joins the room as a new human actor and attaches the session.
func (h *Hub) enter(s *Session, m *Match, name, replyType, requestID string) (Envelope, error) {
	actor, err := m.Room.Join(name, s.id)
	if err != nil {
		return Envelope{}, err
	}
	s.bind(m, actor.ID, false)
	m.Relay.Attach(actor.ID, s)

	h.logger.Info().
		Str("session_id", s.id).
		Str("room", m.Room.Code()).
		Str("actor_id", actor.ID).
		Str("name", actor.Name).
		Msg("Player entered room")

	return newEnvelope(replyType, requestID, roomJoinedPayload{
		Code:     m.Room.Code(),
		PlayerID: actor.ID,
		IsHost:   m.Room.HostID() == actor.ID,
		State:    m.Room.Snapshot(),
		Player:   actor,
	})
}

func (h *Hub) spectate(s *Session, env Envelope) (Envelope, error) {
	var p codePayload
	if err := decode(env, &p); err != nil {
		return Envelope{}, err
	}
	if m, _, _ := s.binding(); m != nil {
		return Envelope{}, errAlreadyIn
	}
	m, ok := h.registry.Get(p.Code)
	if !ok {
		return Envelope{}, core.ErrUnknownRoom
	}
	s.bind(m, "", true)
	m.Relay.AddSpectator(s)
	return newEnvelope(OutSpectating, env.RequestID, spectatingPayload{Code: m.Room.Code(), State: m.Room.Snapshot()})
}
