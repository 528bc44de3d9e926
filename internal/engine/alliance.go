package engine

import (
	"log/slog"

	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/social"
)

// formAlliances gives every unallied pair of recent trade partners a chance
// to ally. Alliances lower trade friction and raise stability on both sides.
// They are never dissolved here.
func (s *Simulation) formAlliances() {
	w := s.World
	ac := s.Rules.Alliance
	rs := w.Regimes

	for i := range rs {
		for j := i + 1; j < len(rs); j++ {
			a, b := rs[i], rs[j]
			if w.Allied(a.ID, b.ID) {
				continue
			}
			if !a.TradedWith(b.ID) && !b.TradedWith(a.ID) {
				continue
			}
			p := ac.Base * (1 - ac.CIWeight*(a.CI+b.CI))
			if p <= 0 || !s.Src.Bernoulli(p) {
				continue
			}
			if !w.AddAlliance(a.ID, b.ID) {
				continue
			}
			ally(a, ac.TauDelta, ac.TauMin, ac.PSBump)
			ally(b, ac.TauDelta, ac.TauMin, ac.PSBump)
			s.Stats.Alliances++
			slog.Debug("alliance formed", "world", w.ID, "step", w.Step, "a", a.ID, "b", b.ID)
		}
	}
}

func ally(r *social.Regime, tauDelta, tauMin, psBump float64) {
	for _, c := range economy.Categories {
		a := r.Market.Get(c)
		a.Tau = economy.TauBound.Clamp(max(tauMin, a.Tau-tauDelta))
	}
	r.Externals.PS = clamp01(r.Externals.PS + psBump)
}
