package engine

import (
	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/social"
)

// degradeAndInvest drifts infrastructure, tech, and stability.
// Infrastructure grows under stable rule and decays otherwise.
func (s *Simulation) degradeAndInvest(r *social.Regime) {
	dc := s.Rules.Degrade
	e := &r.Externals

	step := -dc.InfraInvStep
	if e.PS > dc.PSMidpoint {
		step = dc.InfraInvStep
	}
	infra := r.Market.Get(economy.Infra)
	infra.Inv = economy.InventoryBound(economy.Infra).Clamp(infra.Inv + step)

	e.TA = clamp01(e.TA + dc.TAOpenK*r.TradeOpen + dc.TASelfK*e.TA)
	e.PS = clamp(dc.PSDecay*e.PS+dc.PSMix*dc.PSTarget, 0.01, 1)
}
