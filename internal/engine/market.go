// Local market update: per regime, per category shocks, one GBM price step,
// expected-return recalibration, and inventory flow. Wealth follows output.
package engine

import (
	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/social"
)

func (s *Simulation) updateLocalMarket(r *social.Regime) {
	g := s.World.Globals
	mc := s.Rules.Market
	macro := g.Macro()
	f := r.Fundamentals()

	substeps := max(1, g.Substeps)
	dt := max(mc.MinDtYears, g.TurnYears) / float64(substeps)
	shockMul := g.ShockMul
	if shockMul <= 0 {
		shockMul = 1
	}

	output := 0.0
	for _, c := range economy.Categories {
		a := r.Market.Get(c)
		a.D = economy.DemandBound.Clamp(a.D + shockMul*mc.DemandGain*economy.DemandShock(c, macro, f))
		a.S = economy.SupplyBound.Clamp(a.S + shockMul*mc.SupplyGain*economy.SupplyShock(c, macro, f))

		a.Price = economy.NextPrice(*a, g.VolMul, dt, s.Src.Normal())
		a.ER = economy.ExpectedReturn(c, macro, f.PS)

		meta := c.Meta()
		bound := economy.InventoryBound(c)
		if meta.CapLike {
			a.Inv = bound.Clamp(a.Inv + mc.CapInvStep*(f.EA+f.PS-1))
		} else {
			decay := mc.DecayDur
			if meta.Perishable {
				decay = mc.DecayPerish
			}
			net := a.Prod + 0.2*a.S - 0.2*a.D
			a.Inv = bound.Clamp(a.Inv + mc.InvFlowGain*net - decay*a.Inv)
		}

		output += min(a.S+0.2*a.Inv, a.D) * a.Price
	}

	prev := r.Wealth
	mean := output / economy.NumCategories
	r.Wealth = social.WealthBound.Clamp(mc.WealthKeep*r.Wealth + (1-mc.WealthKeep)*mean)
	r.RecordWealth(prev, s.Rules.Classifier.VolWindow)
}
