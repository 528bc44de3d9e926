package engine

import (
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/social"
	"github.com/talgya/regime-world/internal/world"
)

// Fall reason texts.
const (
	ReasonStability = "state capacity collapsed (low stability)"
	ReasonWealth    = "economic output collapsed (low wealth)"
	ReasonPopLand   = "population & territory too small"
	ReasonSystemic  = "systemic failure (multiple stresses)"
)

// survives reports whether r clears every collapse threshold.
func survives(r *social.Regime, f rules.Filters) bool {
	return r.Externals.PS > f.MinPS && r.Wealth > f.MinWealth && r.PopLand() > f.MinPopLand
}

// structuralCause returns the first failed threshold in fixed order, or "".
func structuralCause(r *social.Regime, f rules.Filters) string {
	switch {
	case r.Externals.PS <= f.MinPS:
		return ReasonStability
	case r.Wealth <= f.MinWealth:
		return ReasonWealth
	case r.PopLand() <= f.MinPopLand:
		return ReasonPopLand
	}
	return ""
}

// fallReason combines the structural cause with the attacker, if any.
func fallReason(cause string, attacker social.RegimeID, attacked bool) world.FallReason {
	switch {
	case attacked && cause != "":
		return world.FallReason{Text: cause + "; defeated by " + attacker, By: attacker}
	case attacked:
		return world.FallReason{Text: "defeated by " + attacker, By: attacker}
	case cause != "":
		return world.FallReason{Text: cause}
	}
	return world.FallReason{Text: ReasonSystemic}
}

// pruneCollapsed removes regimes that fail a threshold and records why.
func (s *Simulation) pruneCollapsed() {
	w := s.World
	f := s.Rules.Filters

	kept := make([]*social.Regime, 0, len(w.Regimes))
	for _, r := range w.Regimes {
		if survives(r, f) {
			kept = append(kept, r)
			continue
		}
		attacker, attacked := w.AttackerOf(r.ID)
		w.RecordFall(r.ID, fallReason(structuralCause(r, f), attacker, attacked))
		s.Stats.Fallen = append(s.Stats.Fallen, r.ID)
	}
	w.Regimes = kept
}
