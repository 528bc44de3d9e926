// Package engine provides the turn pipeline: one call to Step moves a world
// forward one turn, running every subsystem to completion in a fixed order.
package engine

import (
	"log/slog"

	"github.com/talgya/regime-world/internal/world"
)

// Observer receives best-effort progress notifications at phase boundaries.
// pct is an approximate completion fraction in [0, 1]. Errors and panics are
// discarded and never affect the turn.
type Observer func(pct float64, phase string) error

// Phase labels, in execution order.
const (
	PhaseStart         = "start"
	PhaseGlobals       = "globals"
	PhaseLocalMarkets  = "local_markets"
	PhaseConflicts     = "conflicts"
	PhaseTrade         = "trade"
	PhaseAlliances     = "alliances"
	PhaseMigration     = "migration"
	PhaseRegimeUpdates = "regime_updates"
	PhaseCleanup       = "cleanup"
	PhaseDone          = "done"
)

// Step advances the wrapped world by one turn and returns it.
// A nil world or a world without a regime list is a programming error and panics.
func (s *Simulation) Step(obs Observer) *world.World {
	w := s.World
	if w == nil {
		panic("engine: step on nil world")
	}
	if w.Regimes == nil {
		panic("engine: " + world.ErrNoRegimes.Error())
	}
	s.observer = obs
	defer func() { s.observer = nil }()

	s.notify(0, PhaseStart)
	w.Step++
	s.Stats = TurnStats{Step: w.Step}

	s.notify(0.05, PhaseGlobals)
	s.tickGlobals()

	n := float64(max(1, len(w.Regimes)))
	for i, r := range w.Regimes {
		s.updateLocalMarket(r)
		s.notify(0.10+0.30*float64(i+1)/n, PhaseLocalMarkets)
	}

	s.notify(0.45, PhaseConflicts)
	s.resolveConflicts()

	s.notify(0.55, PhaseTrade)
	s.clearTrades()

	s.notify(0.65, PhaseAlliances)
	s.formAlliances()

	s.notify(0.75, PhaseMigration)
	s.migrate()

	for i, r := range w.Regimes {
		s.classify(r)
		s.degradeAndInvest(r)
		s.notify(0.80+0.15*float64(i+1)/n, PhaseRegimeUpdates)
	}

	s.notify(0.96, PhaseCleanup)
	s.pruneCollapsed()
	s.Stats.Regimes = len(w.Regimes)

	s.report()
	s.notify(1, PhaseDone)
	return w
}

// notify calls the observer, swallowing any error or panic.
func (s *Simulation) notify(pct float64, phase string) {
	if s.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("progress observer panicked", "phase", phase, "panic", r)
		}
	}()
	if err := s.observer(pct, phase); err != nil {
		slog.Debug("progress observer failed", "phase", phase, "error", err)
	}
}
