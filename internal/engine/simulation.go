// Simulation ties the turn subsystems together and runs them in order.
package engine

import (
	"log/slog"

	"github.com/talgya/regime-world/internal/entropy"
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/social"
	"github.com/talgya/regime-world/internal/world"
)

// Simulation advances one world. It is not safe for concurrent use; the
// hosting layer serializes turns per world.
type Simulation struct {
	World *world.World
	Rules rules.Rules
	Src   *entropy.Source

	// Stats describes the most recent turn.
	Stats TurnStats

	observer Observer
}

// TurnStats summarizes one turn.
type TurnStats struct {
	Step       int               `json:"step"`
	Regimes    int               `json:"regimes"`
	Conflicts  int               `json:"conflicts"`
	Trades     int               `json:"trades"`
	Volume     float64           `json:"volume"`
	Alliances  int               `json:"alliances"`
	Migrations int               `json:"migrations"`
	Fallen     []social.RegimeID `json:"fallen,omitempty"`
}

// New wraps w for stepping with the given rules and random source.
func New(w *world.World, rs rules.Rules, src *entropy.Source) *Simulation {
	return &Simulation{World: w, Rules: rs, Src: src}
}

// CreateWorld generates a fresh world with n regimes (clamped to the configured range).
func CreateWorld(n int, rs rules.Rules, src *entropy.Source) *world.World {
	return world.Generate(n, rs, src)
}

// Step advances w by one turn in place and returns it.
func Step(w *world.World, rs rules.Rules, src *entropy.Source, obs Observer) *world.World {
	return New(w, rs, src).Step(obs)
}

func (s *Simulation) report() {
	st := s.Stats
	slog.Info("turn report",
		"world", s.World.ID,
		"step", st.Step,
		"regimes", st.Regimes,
		"conflicts", st.Conflicts,
		"trades", st.Trades,
		"volume", st.Volume,
		"alliances", st.Alliances,
		"migrations", st.Migrations,
		"fallen", len(st.Fallen),
		"GG", s.World.Globals.GG,
		"IR", s.World.Globals.IR,
	)
	for _, id := range st.Fallen {
		slog.Info("regime fell", "world", s.World.ID, "regime", id, "reason", s.World.FallReasons[id].Text)
	}
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}

func clamp01(x float64) float64 {
	return clamp(x, 0, 1)
}
