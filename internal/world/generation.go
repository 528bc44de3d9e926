// World generation by structured random sampling.
// Land, population bias, and resource endowments are Dirichlet-drawn so the
// shares across regimes always sum to 1; everything else derives from them.
package world

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/entropy"
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/social"
)

// idLen is the length of a regime id. Ids are the leading hex digits of a
// random UUID drawn from the world's source.
const idLen = 8

// Generate builds a fresh world with n regimes, clamped to the configured range.
func Generate(n int, rs rules.Rules, src *entropy.Source) *World {
	n = max(rs.Regimes.Min, min(rs.Regimes.Max, n))

	gi := rs.GlobalsInit
	w := &World{
		ID: newID(src),
		Globals: Globals{
			GG: gi.GG, IR: gi.IR, RA: gi.RA, ES: gi.ES, TS: gi.TS, CS: gi.CS,
			Substeps:  gi.Substeps,
			TurnYears: gi.TurnYears,
			VolMul:    gi.VolMul,
			ShockMul:  gi.ShockMul,
		},
		Conflicts:   []ConflictEvent{},
		ConflictLog: []ConflictEvent{},
		Alliances:   []Pair{},
		FallReasons: make(map[social.RegimeID]FallReason),
	}
	w.Regimes = generateRegimes(w, n, rs.Generator, src)

	slog.Debug("world generated", "world", w.ID, "regimes", len(w.Regimes), "seed", src.Seed())
	return w
}

// generateRegimes samples n regimes against the world's current globals.
// Ids are unique across w, including regimes that already fell.
func generateRegimes(w *World, n int, gc rules.Generator, src *entropy.Source) []*social.Regime {
	land := src.Dirichlet(n, gc.LandAlpha)
	popBias := src.Dirichlet(n, gc.PopAlpha)
	fuel := src.Dirichlet(n, gc.FuelAlpha)
	mineral := src.Dirichlet(n, gc.MineralAlpha)
	arable := src.Dirichlet(n, gc.ArableAlpha)
	water := src.Dirichlet(n, gc.WaterAlpha)

	macro := w.Globals.Macro()
	taken := make(map[social.RegimeID]bool, n)

	out := make([]*social.Regime, 0, n)
	for i := range n {
		ls := land[i]
		basePop := clamp((0.6*popBias[i]+0.4*(1-ls))*1.5, 0.05, 0.9)

		ext := social.Externals{LS: ls}
		ext.PD = gc.PD.Clamp(basePop)
		ext.EA = gc.EA.Clamp(0.3 + 0.5*src.Float() + 0.2*ext.PD)
		ext.TA = gc.TA.Clamp(0.2 + 0.5*src.Float())
		ext.PS = gc.PS.Clamp(0.4 + 0.3*src.Float())

		endow := social.Endowments{
			Fuel:    clamp(fuel[i]+0.2*ls, 0, 1),
			Mineral: clamp(mineral[i]+0.1*ls, 0, 1),
			Arable:  clamp(arable[i]+0.3*ls, 0, 1),
			Water:   clamp(water[i]+0.1*ls, 0, 1),
		}

		r := &social.Regime{
			Externals:    ext,
			Endow:        endow,
			Wealth:       1.0,
			TradeOpen:    0.2 + 0.2*src.Float(),
			Debts:        0.2 * src.Float(),
			CivicVoice:   gc.CivicVoice,
			MediaControl: gc.MediaControl,
			LastTrades:   []social.TradeRecord{},
		}
		f := r.Fundamentals()
		for _, c := range economy.Categories {
			r.Market[c] = SeedAsset(c, f, macro, gc.Risk, src)
		}

		ci := 0.45*(endow.Fuel+endow.Mineral)/2 + 0.2/max(0.15, ext.EA) + 0.1*(1-ext.PS)
		r.Type = social.TypeFromCI(ci, gc.TypeBands)
		r.CI = clamp(ci, 0, 1)

		for {
			r.ID = newRegimeID(src)
			if !taken[r.ID] && !w.idUsed(r.ID) {
				break
			}
		}
		taken[r.ID] = true
		r.Name = "R-" + r.ID

		out = append(out, r)
	}
	return out
}

// SeedAsset builds the creation-time asset for category c. Every field lands
// inside its documented range.
func SeedAsset(c economy.Category, f economy.Fundamentals, g economy.Macro, risk rules.Range, src *entropy.Source) economy.Asset {
	s, ok := economy.SeedSupply(c, f)
	if !ok {
		s = 0.2 + 0.6*src.Float()
	}
	d, ok := economy.SeedDemand(c, f, g)
	if !ok {
		d = 0.2 + 0.6*src.Float()
	}
	meta := c.Meta()
	s = economy.SupplyBound.Clamp(s)
	return economy.Asset{
		S:     s,
		D:     economy.DemandBound.Clamp(d),
		V:     meta.Volatility,
		L:     meta.Liquidity,
		Rk:    economy.RiskBound.Clamp(risk.Min + (risk.Max-risk.Min)*src.Float()),
		ER:    economy.ERBand(c).Clamp(0.02 + 0.05*src.Float()),
		Inv:   economy.SeedInventory(c),
		Prod:  economy.ProdBound.Clamp(s - 0.3),
		Tau:   economy.TauBound.Clamp(0.1 + 0.2*src.Float()),
		Price: 1.0,
	}
}

// idUsed reports whether id belongs to a live or fallen regime of w.
func (w *World) idUsed(id social.RegimeID) bool {
	if w.hasID(id) {
		return true
	}
	_, fell := w.FallReasons[id]
	return fell
}

func newID(src *entropy.Source) string {
	u, err := uuid.NewRandomFromReader(src)
	if err != nil {
		// The source never fails to read.
		panic(err)
	}
	return u.String()
}

func newRegimeID(src *entropy.Source) social.RegimeID {
	return newID(src)[:idLen]
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}
