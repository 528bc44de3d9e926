// Governance classification. Order and Inclusion scores vote for a bucket
// each turn; the displayed type only follows once the vote has persisted.
package engine

import (
	"math"

	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/social"
)

// scores returns the clamped Order and Inclusion scores of r.
func (s *Simulation) scores(r *social.Regime) (o, i float64) {
	cls := s.Rules.Classifier
	ow, iw := cls.Order, cls.Inclusion
	e := r.Externals
	loss := clamp01(r.LastConflictLoss)

	vol, ok := r.Volatility()
	if !ok || vol == 0 {
		vol = ow.VolMean
	}
	volZ := 0.0
	if ow.VolStd > 0 {
		volZ = (vol - ow.VolMean) / ow.VolStd
	}
	allied := 0.0
	if s.World.InAlliance(r.ID) {
		allied = 1
	}

	o = ow.PS*clamp01(e.PS) +
		ow.InfraInv*clamp01(r.Market[economy.Infra].Inv) +
		ow.TradeOpen*clamp01(r.TradeOpen) +
		ow.Ally*allied +
		ow.Loss*loss +
		ow.Vol*clamp(volZ, -1, 1)

	wpc := r.Wealth / max(1e-3, r.PopLand())
	i = iw.WPC*clamp01(math.Log1p(wpc)/math.Log1p(iw.WPCMax)) +
		iw.Civic*clamp01(r.CivicVoice) +
		iw.TradeOpen*clamp01(r.TradeOpen) +
		iw.Rents*clamp01(r.EliteRents()) +
		iw.Media*clamp01(r.MediaControl) +
		iw.Loss*loss

	return clamp01(o), clamp01(i)
}

// classify runs one step of the governance state machine and recomputes ci.
func (s *Simulation) classify(r *social.Regime) {
	cls := s.Rules.Classifier
	o, i := s.scores(r)
	bucket := social.Bucket(o, i, r.Type, cls)
	r.Type = r.Memory.Advance(bucket, r.Type, cls)
	r.CI = cls.CIOrder*o + cls.CIInclusion*i
}
