package states

import "fmt"

// GamePhase represents the current phase of a room
type GamePhase int

const (
	// PhaseLobby - Humans joining, host may start
	PhaseLobby GamePhase = iota

	// PhasePlacement - Every actor claims exactly one base
	PhasePlacement

	// PhasePlaying - Tick loop running, actions accepted
	PhasePlaying

	// PhaseFinished - Winner declared, room frozen until cleanup
	PhaseFinished
)

// String returns the wire name of a GamePhase
func (p GamePhase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhasePlacement:
		return "placement"
	case PhasePlaying:
		return "playing"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// MarshalText encodes the phase by its wire name.
func (p GamePhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// IsTerminal returns true if no transition leaves the phase
func (p GamePhase) IsTerminal() bool {
	return p == PhaseFinished
}

// CanReceiveActions returns true if expand, reinforce, build, alliance and
// trade actions are processed in this phase
func (p GamePhase) CanReceiveActions() bool {
	return p == PhasePlaying
}

// CanAddPlayers returns true if humans can join in this phase
func (p GamePhase) CanAddPlayers() bool {
	return p == PhaseLobby
}

// CanPlaceBase returns true if base placement is accepted in this phase
func (p GamePhase) CanPlaceBase() bool {
	return p == PhasePlacement
}

// AllowedTransitions returns the valid phases this phase can transition to.
// Progression is strictly forward.
func (p GamePhase) AllowedTransitions() []GamePhase {
	switch p {
	case PhaseLobby:
		return []GamePhase{PhasePlacement}
	case PhasePlacement:
		return []GamePhase{PhasePlaying}
	case PhasePlaying:
		return []GamePhase{PhaseFinished}
	default:
		return []GamePhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p GamePhase) CanTransitionTo(target GamePhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a wire name to a GamePhase
func ParsePhase(s string) (GamePhase, error) {
	switch s {
	case "lobby":
		return PhaseLobby, nil
	case "placement":
		return PhasePlacement, nil
	case "playing":
		return PhasePlaying, nil
	case "finished":
		return PhaseFinished, nil
	default:
		return PhaseLobby, fmt.Errorf("unknown phase %q", s)
	}
}
