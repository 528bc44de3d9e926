// Player actions. Before a turn runs the seated player may spend political
// capital (PC) and hard currency (HC) on boosts, trades with other regimes,
// and covert operations. Costs grow with the size of each move and with HEAT.
package engine

import (
	"log/slog"
	"math"
	"strings"

	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/social"
	"github.com/talgya/regime-world/internal/world"
)

// MaxActions is the number of actions considered per turn; extras are ignored.
const MaxActions = 8

// Action kinds and their options.
const (
	ActBoost  = "boost"
	ActTrade  = "trade"
	ActCovert = "covert"

	PolicyCounterintel   = "counterintel"
	PolicyFoodSecurity   = "food_security"
	PolicyPriceStability = "price_stability"

	FocusIndustry = "industry"
	FocusServices = "services"
	FocusAgri     = "agri"

	CovertDestabilize = "destabilize"
	CovertStealTech   = "steal_tech"
)

// Per-turn cap on the volume the player may push into other regimes.
const tradeVolumeCap = 0.6

// Action is one player move. Which fields apply depends on Type.
type Action struct {
	Type string `json:"type"`

	// boost
	PS      float64 `json:"ps,omitempty"`
	TA      float64 `json:"ta,omitempty"`
	EA      float64 `json:"ea,omitempty"`
	InvestI float64 `json:"investI,omitempty"`
	Policy  string  `json:"policy,omitempty"`
	Focus   string  `json:"focus,omitempty"`

	// trade and covert; To is a regime id or name
	To      string   `json:"to,omitempty"`
	Cat     string   `json:"cat,omitempty"`
	Vol     *float64 `json:"vol,omitempty"`
	Kind    string   `json:"kind,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Stealth bool     `json:"stealth,omitempty"`
}

// ActionReport summarizes one action step.
type ActionReport struct {
	Applied  int          `json:"applied"`
	Detected int          `json:"detected"`
	Meters   world.Meters `json:"meters"`
}

// RegenMeters refills the player's meters from the seated regime's standing.
// PC follows stability, HC follows wealth and reserves net of debt, and HEAT
// cools, faster under counterintelligence.
func RegenMeters(w *world.World) {
	if w.Player == nil {
		return
	}
	me := w.Regime(w.Player.ID)
	if me == nil {
		return
	}
	const approval = 0.5 // not modelled; held neutral
	m := &w.Player.Meters
	reserves := clamp01(1 - me.Debts)
	m.PC = min(world.MaxBudget, m.PC+0.10*(0.6*me.Externals.PS+0.4*approval))
	m.HC = min(world.MaxBudget, m.HC+0.10*(0.7*me.Wealth+0.3*reserves))
	cool := 0.05
	if me.Counterintel {
		cool *= 1.5
	}
	m.HEAT = max(0, m.HEAT-cool)
}

// DetectionChance is the probability that a covert operation of size x
// against defender is exposed.
func DetectionChance(defender *social.Regime, ra, x, heat float64, stealth bool) float64 {
	p := 0.10 + 0.60*defender.Externals.PS + 0.20*ra + 0.10*(heat/world.MaxHeat)
	if stealth {
		p *= 0.65
	}
	p = clamp(p, 0.02, 0.95)
	p = clamp(p+0.5*x, 0.02, 0.98)
	if defender.Counterintel {
		p = clamp(p*1.15, 0.02, 0.98)
	}
	return p
}

// actionStep carries the meters while one batch of actions is applied.
type actionStep struct {
	s       *Simulation
	me      *social.Regime
	m       world.Meters
	heatMul float64
	traded  float64
	report  ActionReport
}

// cost is the meter cost of moving a value by dv: quadratic in hundredths,
// scaled by base and by the HEAT at the start of the step.
func (a *actionStep) cost(base, dv float64) float64 {
	u := math.Abs(dv) / 0.01
	return a.heatMul * base * (u + 0.15*u*u)
}

// ApplyActions applies up to MaxActions actions for the seated player, in
// order, before the next turn. An action the meters cannot pay for, or that
// names no valid target, is skipped. Without a live player nothing happens.
func (s *Simulation) ApplyActions(acts []Action) ActionReport {
	w := s.World
	if w.Player == nil {
		return ActionReport{}
	}
	me := w.Regime(w.Player.ID)
	if me == nil {
		return ActionReport{Meters: w.Player.Meters}
	}

	step := &actionStep{s: s, me: me, m: w.Player.Meters, heatMul: 1 + 0.25*w.Player.Meters.HEAT}
	for _, act := range acts[:min(len(acts), MaxActions)] {
		var ok bool
		switch strings.ToLower(act.Type) {
		case ActBoost:
			ok = step.boost(act)
		case ActTrade:
			ok = step.trade(act)
		case ActCovert:
			ok = step.covert(act)
		}
		if ok {
			step.report.Applied++
		}
	}

	w.Player.Meters = step.m.Clamp()
	step.report.Meters = w.Player.Meters
	slog.Debug("player actions", "world", w.ID, "regime", me.ID,
		"submitted", len(acts), "applied", step.report.Applied, "detected", step.report.Detected,
		"PC", w.Player.Meters.PC, "HC", w.Player.Meters.HC, "HEAT", w.Player.Meters.HEAT)
	return step.report
}

func (a *actionStep) boost(act Action) bool {
	ps := clamp(act.PS, 0, 0.03)
	ta := clamp(act.TA, 0, 0.03)
	ea := clamp(act.EA, 0, 0.03)
	inv := clamp(act.InvestI, 0, 0.12)
	pc := a.cost(1.0, ps) + a.cost(1.5, ta) + a.cost(1.2, ea)
	hc := a.cost(0.8, inv)
	if a.m.PC < pc || a.m.HC < hc {
		return false
	}

	me := a.me
	e := &me.Externals
	policy := strings.ToLower(act.Policy)
	if policy == PolicyPriceStability {
		ta *= 0.9
	}
	e.PS = clamp(e.PS+ps, 0.01, 1)
	e.TA = clamp01(e.TA + ta)
	e.EA = clamp01(e.EA + ea)
	addInv(me, economy.Infra, inv)

	switch policy {
	case PolicyCounterintel:
		me.Counterintel = true
	case PolicyFoodSecurity:
		addInv(me, economy.Food, inv*0.25+0.02)
	case PolicyPriceStability:
		a.m.HEAT = max(0, a.m.HEAT-0.1)
		e.PS = clamp(e.PS+0.005, 0.01, 1)
	}

	switch strings.ToLower(act.Focus) {
	case FocusIndustry:
		addInv(me, economy.Infra, 0.02)
		addInv(me, economy.Goods, 0.02)
		addInv(me, economy.Food, -0.01)
	case FocusServices:
		e.EA = clamp(e.EA+0.01, 0.01, 1)
		addInv(me, economy.Goods, 0.015)
	case FocusAgri:
		addInv(me, economy.Food, 0.03)
	}

	a.m.PC -= pc
	a.m.HC -= hc
	return true
}

// trade ships inventory of one tradable category to another regime, which
// takes at most what it lacks below one unit.
func (a *actionStep) trade(act Action) bool {
	you := a.target(act.To)
	if you == nil {
		return false
	}
	c, err := economy.ParseCategory(strings.ToUpper(strings.TrimSpace(act.Cat)))
	if err != nil || !c.Meta().Tradable {
		return false
	}

	want := 0.1
	if act.Vol != nil {
		want = clamp(*act.Vol, 0.01, 0.6)
	}
	mine, theirs := a.me.Market.Get(c), you.Market.Get(c)
	vol := min(want, clamp(mine.Inv*0.25, 0.01, 0.6))

	if theirs.Inv >= 1 {
		return false
	}
	quota := clamp(1-theirs.Inv, 0.05, 0.25)
	vol = min(vol, quota, tradeVolumeCap-a.traded)
	if vol <= 1e-6 {
		return false
	}

	hc := a.cost(0.3, vol) * 1.5
	if a.m.HC < hc {
		return false
	}
	bound := economy.InventoryBound(c)
	mine.Inv = bound.Clamp(mine.Inv - vol)
	theirs.Inv = bound.Clamp(theirs.Inv + vol)

	e := &a.me.Externals
	e.EA = clamp(e.EA+0.2*(0.5*vol*0.012), 0.01, 1)
	e.PS = clamp(e.PS+0.2*(0.5*vol*0.0025), 0.01, 1)

	a.m.HC -= hc
	a.traded += vol
	return true
}

func (a *actionStep) covert(act Action) bool {
	you := a.target(act.To)
	if you == nil {
		return false
	}
	kind := strings.ToLower(act.Kind)
	if kind == "" {
		kind = CovertDestabilize
	}
	if kind != CovertDestabilize && kind != CovertStealTech {
		return false
	}
	x := 0.005
	if act.X != nil {
		x = clamp(*act.X, 0.001, 0.02)
	}

	base := 2.0
	if kind == CovertStealTech {
		base = 3.0
	}
	if act.Stealth {
		base *= 1.25
	}
	pc := a.cost(base, x)
	if a.m.PC < pc {
		return false
	}

	w := a.s.World
	detected := a.s.Src.Bernoulli(DetectionChance(you, w.Globals.RA, x, a.m.HEAT, act.Stealth))
	units := x / 0.01

	switch kind {
	case CovertDestabilize:
		you.Externals.PS = clamp(you.Externals.PS-x, 0.01, 1)
		if detected {
			you.Externals.PS = clamp(you.Externals.PS+0.5*x, 0.01, 1)
			a.m.HEAT = min(world.MaxHeat, a.m.HEAT+0.35*units)
		}
	case CovertStealTech:
		d := 0.6 * x
		gain := 0.6
		if detected {
			gain = 0.4
		}
		you.Externals.TA = clamp01(you.Externals.TA - d)
		a.me.Externals.TA = clamp01(a.me.Externals.TA + d*gain)
		if detected {
			a.m.HEAT = min(world.MaxHeat, a.m.HEAT+0.25*units)
			you.Externals.PS = clamp(you.Externals.PS+0.25*x, 0.01, 1)
		}
	}
	if detected {
		a.report.Detected++
		w.LogEvent(world.ConflictEvent{At: w.Step, From: a.me.ID, To: you.ID, Kind: world.KindCovertExposed},
			a.s.Rules.Conflict.LogMax)
	}

	ra := a.s.Rules.Oscillator.RA
	w.Globals.RA = clamp(w.Globals.RA+0.02*units, ra.Min, ra.Max)

	heat := 0.20
	if act.Stealth {
		heat = 0.16
	}
	a.m.HEAT = min(world.MaxHeat, a.m.HEAT+heat*units)
	a.m.PC -= pc
	return true
}

// target resolves a live regime other than the player's.
func (a *actionStep) target(key string) *social.Regime {
	you := a.s.World.Lookup(strings.TrimSpace(key))
	if you == nil || you.ID == a.me.ID {
		return nil
	}
	return you
}

func addInv(r *social.Regime, c economy.Category, dv float64) {
	a := r.Market.Get(c)
	a.Inv = economy.InventoryBound(c).Clamp(a.Inv + dv)
}
