package engine

import "github.com/talgya/regime-world/internal/social"

// migrate moves population and activity from unstable regimes to stable ones.
// Each source pushes toward one uniformly chosen destination.
func (s *Simulation) migrate() {
	mc := s.Rules.Migration
	var src, dst []*social.Regime
	for _, r := range s.World.Regimes {
		if r.Externals.PS < mc.SrcPS {
			src = append(src, r)
		}
		if r.Externals.PS > mc.DstPS {
			dst = append(dst, r)
		}
	}
	if len(src) == 0 || len(dst) == 0 {
		return
	}

	for _, r := range src {
		q := dst[s.Src.Intn(len(dst))]
		flow := mc.FlowK * (mc.DstPS - r.Externals.PS)
		r.Externals.PD = clamp(r.Externals.PD*(1-flow), 0.02, 1.5)
		q.Externals.PD = clamp(q.Externals.PD*(1+flow), 0.02, 1.5)
		r.Externals.EA = clamp(r.Externals.EA-mc.EALoss*flow, 0.01, 1)
		q.Externals.EA = clamp(q.Externals.EA+mc.EAGain*flow, 0.01, 1)
		s.Stats.Migrations++
	}
}
