package world

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/talgya/regime-world/internal/entropy"
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/social"
)

// Spawn appends n freshly generated regimes to w and returns them.
// They are sampled against the world's current globals and get ids never
// used in this world before.
func Spawn(w *World, n int, rs rules.Rules, src *entropy.Source) []*social.Regime {
	if n <= 0 {
		return nil
	}
	// The generator needs at least two regimes to draw meaningful shares.
	batch := generateRegimes(w, max(n, 2), rs.Generator, src)[:n]
	w.Regimes = append(w.Regimes, batch...)
	slog.Info("regimes spawned", "world", w.ID, "count", n, "total", len(w.Regimes))
	return batch
}

// TopUp spawns regimes until w has at least minimum live regimes.
// It returns the number spawned.
func TopUp(w *World, minimum int, rs rules.Rules, src *entropy.Source) int {
	need := minimum - len(w.Regimes)
	if need <= 0 {
		return 0
	}
	return len(Spawn(w, need, rs, src))
}

// SeatRule selects which regime the player controls.
type SeatRule string

const (
	SeatRandom     SeatRule = "rand"
	SeatLargest    SeatRule = "largest"
	SeatWealthiest SeatRule = "wealthiest"
	SeatTechiest   SeatRule = "techiest"
)

// ParseSeatRule accepts a rule name. The empty string selects SeatRandom.
func ParseSeatRule(s string) (SeatRule, error) {
	switch r := SeatRule(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return SeatRandom, nil
	case SeatRandom, SeatLargest, SeatWealthiest, SeatTechiest:
		return r, nil
	}
	return "", fmt.Errorf("unknown seat rule %q", s)
}

// SeatPlayer picks the player's regime by rule and records the seat on w.
func SeatPlayer(w *World, rule SeatRule, src *entropy.Source) (*social.Regime, error) {
	if len(w.Regimes) == 0 {
		return nil, ErrNoRegimes
	}
	by := func(key func(*social.Regime) float64) *social.Regime {
		// First maximum wins on ties.
		return slices.MaxFunc(w.Regimes, func(a, b *social.Regime) int {
			return cmpFloat(key(a), key(b))
		})
	}

	var pick *social.Regime
	switch rule {
	case SeatLargest:
		pick = by(func(r *social.Regime) float64 { return r.Externals.LS })
	case SeatWealthiest:
		pick = by(func(r *social.Regime) float64 { return r.Wealth })
	case SeatTechiest:
		pick = by(func(r *social.Regime) float64 { return r.Externals.TA })
	default:
		rule = SeatRandom
		pick = w.Regimes[src.Intn(len(w.Regimes))]
	}
	w.Player = &Seat{ID: pick.ID, Name: pick.Name, Rule: rule, Meters: NewMeters()}
	return pick, nil
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
