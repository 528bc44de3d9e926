package engine

import "github.com/talgya/regime-world/internal/rules"

// tickGlobals mean-reverts each macro signal toward its target with uniform noise.
func (s *Simulation) tickGlobals() {
	g := &s.World.Globals
	o := s.Rules.Oscillator
	g.GG = s.revert(g.GG, o.GG)
	g.IR = s.revert(g.IR, o.IR)
	g.RA = s.revert(g.RA, o.RA)
	g.ES = s.revert(g.ES, o.ES)
	g.TS = s.revert(g.TS, o.TS)
	g.CS = s.revert(g.CS, o.CS)
}

func (s *Simulation) revert(x float64, sig rules.Signal) float64 {
	next := sig.Rho*x + (1-sig.Rho)*sig.Target + sig.Sigma*s.Src.Centered()
	return clamp(next, sig.Min, sig.Max)
}
