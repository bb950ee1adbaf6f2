package bot

import (
	"math/rand"
	"time"
)

// Difficulty names
const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
	Insane = "insane"
)

// Profile holds the parameters of one difficulty tier.
type Profile struct {
	Name string
	// Interval between two decisions, before jitter.
	Interval time.Duration
	// Jitter is the upper bound of the random delay added to Interval.
	Jitter time.Duration
	// Aggressiveness raises the strength of rivals the bot dares attack.
	Aggressiveness float64
	// ExpansionRate sets how much neutral land one decision claims.
	ExpansionRate float64
	// TroopEfficiency scales the margin required before attacking. Lower
	// values attack closer to the minimum winning strength.
	TroopEfficiency     float64
	AllianceProbability float64
	MistakeRate         float64
}

var profiles = map[string]Profile{
	Easy: {
		Name: Easy, Interval: 3 * time.Second, Jitter: time.Second,
		Aggressiveness: 0.2, ExpansionRate: 0.3, TroopEfficiency: 0.6,
		AllianceProbability: 0.1, MistakeRate: 0.3,
	},
	Medium: {
		Name: Medium, Interval: 2 * time.Second, Jitter: time.Second,
		Aggressiveness: 0.4, ExpansionRate: 0.5, TroopEfficiency: 0.8,
		AllianceProbability: 0.3, MistakeRate: 0.15,
	},
	Hard: {
		Name: Hard, Interval: time.Second, Jitter: time.Second,
		Aggressiveness: 0.6, ExpansionRate: 0.7, TroopEfficiency: 0.95,
		AllianceProbability: 0.5, MistakeRate: 0.05,
	},
	Insane: {
		Name: Insane, Interval: 500 * time.Millisecond, Jitter: time.Second,
		Aggressiveness: 0.8, ExpansionRate: 0.9, TroopEfficiency: 1.0,
		AllianceProbability: 0.7, MistakeRate: 0,
	},
}

// ProfileFor returns the named tier, falling back to medium.
func ProfileFor(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles[Medium]
}

// IsDifficulty reports whether name is a known tier.
func IsDifficulty(name string) bool {
	_, ok := profiles[name]
	return ok
}

// NextInterval returns a jittered decision interval.
func (p Profile) NextInterval(rng *rand.Rand) time.Duration {
	if p.Jitter <= 0 {
		return p.Interval
	}
	return p.Interval + time.Duration(rng.Int63n(int64(p.Jitter)))
}
