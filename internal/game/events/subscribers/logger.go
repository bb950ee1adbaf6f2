package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/AIRF0X788/Op-V2/internal/game/events"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool)
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants to receive this event type
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	// If no filter is set, interested in all events
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	eventLogger := ls.logger.With().
		Str("event_type", event.Type()).
		Str("room", event.GameID()).
		Time("timestamp", event.Timestamp()).
		Logger()

	// Create the base event log
	var logEvent *zerolog.Event
	switch ls.logLevel {
	case zerolog.DebugLevel:
		logEvent = eventLogger.Debug()
	case zerolog.InfoLevel:
		logEvent = eventLogger.Info()
	case zerolog.WarnLevel:
		logEvent = eventLogger.Warn()
	case zerolog.ErrorLevel:
		logEvent = eventLogger.Error()
	default:
		logEvent = eventLogger.Info()
	}

	// Add event-specific fields based on type
	switch e := event.(type) {
	case *events.GameStartedEvent:
		logEvent.
			Int("num_actors", e.NumActors).
			Int("num_bots", e.NumBots).
			Int("map_width", e.MapWidth).
			Int("map_height", e.MapHeight)

	case *events.GameEndedEvent:
		logEvent.
			Str("winner", e.Winner.ID).
			Str("winner_name", e.Winner.Name).
			Dur("duration", e.Duration).
			Int("final_tick", e.FinalTick)

	case *events.StateTransitionEvent:
		logEvent.
			Str("from_phase", e.FromPhase).
			Str("to_phase", e.ToPhase).
			Str("reason", e.Reason)

	case *events.ActorJoinedEvent:
		logEvent.
			Str("actor_id", e.Actor.ID).
			Str("name", e.Actor.Name).
			Bool("bot", e.Actor.IsBot)

	case *events.ActorLeftEvent:
		logEvent.
			Str("actor_id", e.ActorID).
			Str("new_host", e.NewHostID).
			Int("released_cells", e.ReleasedCells)

	case *events.BasePlacedEvent:
		logEvent.
			Str("actor_id", e.ActorID).
			Int("x", e.X).
			Int("y", e.Y).
			Int("cells", len(e.Cells))

	case *events.CombatResolvedEvent:
		logEvent.
			Str("attacker_id", e.AttackerID).
			Str("defender_id", e.DefenderID).
			Int("location_x", e.Location.X).
			Int("location_y", e.Location.Y).
			Float64("attacker_troops", e.AttackerTroops).
			Float64("defender_troops", e.DefenderTroops).
			Float64("attacker_losses", e.AttackerLosses).
			Float64("garrison", e.Garrison)

	case *events.ActorEliminatedEvent:
		logEvent.
			Str("actor_id", e.ActorID).
			Str("eliminated_by", e.EliminatedBy).
			Int("tick", e.Tick)

	case *events.IncomeAppliedEvent:
		logEvent.
			Int("tick", e.Tick).
			Float64("gold", e.GoldGenerated).
			Float64("troops", e.TroopsGenerated)

	case *events.GridUpdateEvent:
		logEvent.
			Int("tick", e.Tick).
			Int("changes", len(e.Changes))

	case *events.AllianceProposedEvent:
		logEvent.Str("from", e.FromID).Str("to", e.ToID)

	case *events.AllianceFormedEvent:
		logEvent.Str("a", e.A).Str("b", e.B)

	case *events.AllianceBrokenEvent:
		logEvent.Str("broken_by", e.BrokenBy).Str("other", e.Other)

	case *events.TradeOfferedEvent:
		logTrade(logEvent, e.Offer)

	case *events.TradeCompletedEvent:
		logTrade(logEvent, e.Offer)

	case *events.TradeRejectedEvent:
		logTrade(logEvent, e.Offer).Bool("expired", e.Expired)
	}

	// In dev mode, also log the full event as JSON
	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	// Send the log
	logEvent.Msg("Game event")
}

func logTrade(e *zerolog.Event, offer events.TradeSnapshot) *zerolog.Event {
	return e.
		Str("trade_id", offer.ID).
		Str("from", offer.From).
		Str("to", offer.To).
		Float64("offer_gold", offer.OfferGold).
		Float64("request_gold", offer.RequestGold)
}
