// Package world holds the complete state of one simulated world: the macro
// signals, the ordered regime list, alliances, conflicts, and fall records.
package world

import (
	"errors"
	"slices"

	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/social"
)

// ErrNoRegimes is returned when an operation needs at least one regime.
var ErrNoRegimes = errors.New("world has no regimes")

// Globals is the macro signal vector shared by every regime.
type Globals struct {
	GG float64 `json:"GG"` // growth
	IR float64 `json:"IR"` // interest rate
	RA float64 `json:"RA"` // risk aversion
	ES float64 `json:"ES"` // energy shock
	TS float64 `json:"TS"` // tech shock
	CS float64 `json:"CS"` // climate shock

	Substeps  int     `json:"substeps"`
	TurnYears float64 `json:"turnYears"`
	VolMul    float64 `json:"volMul"`

	// ShockMul scales the per-turn demand and supply shocks. Zero reads as 1.
	ShockMul   float64 `json:"shockMul,omitempty"`
	Difficulty string  `json:"difficulty,omitempty"`
	Points     float64 `json:"points,omitempty"`
}

// Macro projects the signal vector for the market formulas.
func (g Globals) Macro() economy.Macro {
	return economy.Macro{GG: g.GG, IR: g.IR, RA: g.RA, ES: g.ES, TS: g.TS, CS: g.CS}
}

// ApplyDifficulty copies the preset's pacing onto w's globals.
func ApplyDifficulty(w *World, d rules.Difficulty) {
	g := &w.Globals
	g.ShockMul = d.ShockMul
	g.VolMul = d.VolMul
	g.TurnYears = d.TurnYears
	g.Substeps = d.Substeps
	g.Points = d.Points
	g.Difficulty = d.Name
}

// Conflict log kinds. Land transfers leave Kind empty.
const KindCovertExposed = "covert_exposed"

// ConflictEvent records one land transfer or one exposed covert operation.
type ConflictEvent struct {
	At   int             `json:"at"`
	From social.RegimeID `json:"from"`
	To   social.RegimeID `json:"to"`
	DLS  float64         `json:"dLS"`
	Kind string          `json:"kind,omitempty"`
}

// FallReason explains why a regime was removed. By names the attacker, if any.
type FallReason struct {
	Text string          `json:"text"`
	By   social.RegimeID `json:"by,omitempty"`
}

// Meters are the player's action budgets: political capital (PC), hard
// currency (HC), and HEAT, the exposure built up by covert operations.
type Meters struct {
	PC   float64 `json:"PC"`
	HC   float64 `json:"HC"`
	HEAT float64 `json:"HEAT"`
}

// Meter ceilings.
const (
	MaxBudget = 5.0
	MaxHeat   = 4.0
)

// NewMeters returns the meters of a freshly seated player.
func NewMeters() Meters {
	return Meters{PC: 1, HC: 1}
}

// Clamp pins every meter into its range.
func (m Meters) Clamp() Meters {
	return Meters{
		PC:   clamp(m.PC, 0, MaxBudget),
		HC:   clamp(m.HC, 0, MaxBudget),
		HEAT: clamp(m.HEAT, 0, MaxHeat),
	}
}

// Seat marks the regime controlled by the player.
type Seat struct {
	ID     social.RegimeID `json:"id"`
	Name   string          `json:"name"`
	Rule   SeatRule        `json:"rule"`
	Meters Meters          `json:"meters"`
}

// Pair is an unordered pair of regime ids stored in canonical (sorted) order.
type Pair [2]social.RegimeID

// MakePair returns the canonical pair for a and b.
func MakePair(a, b social.RegimeID) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{a, b}
}

// Has reports whether id is one side of the pair.
func (p Pair) Has(id social.RegimeID) bool {
	return p[0] == id || p[1] == id
}

// World is the complete simulation state. It exclusively owns everything it references.
type World struct {
	ID      string           `json:"id"`
	Step    int              `json:"step"`
	Globals Globals          `json:"globals"`
	Regimes []*social.Regime `json:"regimes"`

	Conflicts   []ConflictEvent `json:"conflicts"`
	ConflictLog []ConflictEvent `json:"conflictLog"`
	Alliances   []Pair          `json:"alliances"`

	FallReasons map[social.RegimeID]FallReason `json:"fallReasons"`

	Player     *Seat       `json:"player,omitempty"`
	Done       bool        `json:"done,omitempty"`
	EndedAt    int         `json:"endedAt,omitempty"`
	PlayerFall *FallReason `json:"playerFall,omitempty"`
}

// Regime returns the live regime with the given id, or nil.
func (w *World) Regime(id social.RegimeID) *social.Regime {
	for _, r := range w.Regimes {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Lookup returns the live regime whose id or name is key, or nil.
func (w *World) Lookup(key string) *social.Regime {
	if r := w.Regime(key); r != nil {
		return r
	}
	for _, r := range w.Regimes {
		if r.Name == key {
			return r
		}
	}
	return nil
}

// Allied reports whether a and b share an alliance.
func (w *World) Allied(a, b social.RegimeID) bool {
	return slices.Contains(w.Alliances, MakePair(a, b))
}

// InAlliance reports whether id belongs to any alliance.
func (w *World) InAlliance(id social.RegimeID) bool {
	return slices.ContainsFunc(w.Alliances, func(p Pair) bool { return p.Has(id) })
}

// AddAlliance records an alliance between a and b. It returns false if the
// pair already exists or a and b are the same regime.
func (w *World) AddAlliance(a, b social.RegimeID) bool {
	if a == b || w.Allied(a, b) {
		return false
	}
	w.Alliances = append(w.Alliances, MakePair(a, b))
	return true
}

// RecordConflict appends ev to this turn's conflicts and to the history log,
// dropping the oldest log entries beyond logMax.
func (w *World) RecordConflict(ev ConflictEvent, logMax int) {
	w.Conflicts = append(w.Conflicts, ev)
	w.LogEvent(ev, logMax)
}

// LogEvent appends ev to the history log only.
func (w *World) LogEvent(ev ConflictEvent, logMax int) {
	w.ConflictLog = append(w.ConflictLog, ev)
	if n := len(w.ConflictLog); logMax > 0 && n > logMax {
		w.ConflictLog = append(w.ConflictLog[:0], w.ConflictLog[n-logMax:]...)
	}
}

// AttackerOf returns the first attacker that targeted id this turn.
func (w *World) AttackerOf(id social.RegimeID) (social.RegimeID, bool) {
	for _, ev := range w.Conflicts {
		if ev.To == id {
			return ev.From, true
		}
	}
	return "", false
}

// RecordFall stores the fall reason for a removed regime.
func (w *World) RecordFall(id social.RegimeID, reason FallReason) {
	if w.FallReasons == nil {
		w.FallReasons = make(map[social.RegimeID]FallReason)
	}
	w.FallReasons[id] = reason
}

// hasID reports whether any live regime uses id.
func (w *World) hasID(id social.RegimeID) bool {
	return w.Regime(id) != nil
}
