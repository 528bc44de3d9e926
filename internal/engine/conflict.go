// Conflict resolution. Regimes short of essentials are more likely to attack;
// stable regimes less so. A successful attack moves land from a random target.
package engine

import (
	"log/slog"

	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/world"
)

// deficit is unmet demand for one asset, floored at zero.
func deficit(a economy.Asset) float64 {
	return max(0, a.D-(a.S+0.3*a.Inv))
}

// conflictProbability is the chance that a regime with the given deficit
// score, composite index, and stability starts a conflict this turn.
func (s *Simulation) conflictProbability(score, ci, ps float64) float64 {
	cc := s.Rules.Conflict
	hawkish := 0.0
	if ci > cc.CIThreshold {
		hawkish = 1
	}
	return clamp(cc.CoefDeficit*score+cc.CoefCI*hawkish-cc.CoefPS*ps, 0, cc.PMax)
}

func (s *Simulation) resolveConflicts() {
	w := s.World
	cc := s.Rules.Conflict
	ra := s.Rules.Oscillator.RA
	w.Conflicts = []world.ConflictEvent{}

	for i, r := range w.Regimes {
		m := &r.Market
		score := deficit(m[economy.Goods]) + deficit(m[economy.Wages]) + 0.5*deficit(m[economy.Food])
		p := s.conflictProbability(score, r.CI, r.Externals.PS)
		if !s.Src.Bernoulli(p) || len(w.Regimes) < 2 {
			continue
		}

		// Uniform over every other regime.
		ti := s.Src.Intn(len(w.Regimes) - 1)
		if ti >= i {
			ti++
		}
		t := w.Regimes[ti]

		dls := min(cc.DLSMaxFrac, cc.DLSFracOfTarget*t.Externals.LS)
		r.Externals.LS = clamp(r.Externals.LS+dls, 0.01, 1)
		t.Externals.LS = clamp(t.Externals.LS-dls, 0.01, 1)
		r.Externals.PS = clamp(r.Externals.PS-cc.PSLossAttacker, 0.01, 1)
		t.Externals.PS = clamp(t.Externals.PS-cc.PSLossDefender, 0.01, 1)

		bound := economy.InventoryBound(economy.Infra)
		r.Market[economy.Infra].Inv = bound.Clamp(cc.InvHitAttacker * r.Market[economy.Infra].Inv)
		t.Market[economy.Infra].Inv = bound.Clamp(cc.InvHitDefender * t.Market[economy.Infra].Inv)

		t.LastConflictLoss += dls
		r.LastConflictLoss = max(0, r.LastConflictLoss*cc.LossDecay)

		w.Globals.RA = clamp(w.Globals.RA+cc.RABump, ra.Min, ra.Max)

		w.RecordConflict(world.ConflictEvent{At: w.Step, From: r.ID, To: t.ID, DLS: dls}, cc.LogMax)
		s.Stats.Conflicts++
		slog.Debug("conflict", "world", w.ID, "step", w.Step, "from", r.ID, "to", t.ID, "dLS", dls)
	}
}
