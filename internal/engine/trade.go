// Trade clearing. Each tradable category clears independently: surplus
// regimes are matched greedily against deficit regimes, largest gap first.
package engine

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/social"
)

// tradeSide is one regime's open position in a single category's clearing.
type tradeSide struct {
	r   *social.Regime
	gap float64 // remaining absolute gap
}

// tradeGap is the surplus (positive) or deficit (negative) of an asset.
func tradeGap(a economy.Asset) float64 {
	return (a.S + 0.3*a.Inv) - a.D
}

func (s *Simulation) clearTrades() {
	w := s.World
	tc := s.Rules.Trade

	var records []social.TradeRecord
	for _, c := range economy.TradableCategories() {
		records = append(records, clearCategory(c, w.Regimes, tc)...)
	}

	for _, r := range w.Regimes {
		r.LastTrades = recentTrades(records, r.ID, tc.RecentMax)
	}

	s.Stats.Trades = len(records)
	for _, t := range records {
		s.Stats.Volume += t.Volume
	}
	slog.Debug("trade cleared", "world", w.ID, "step", w.Step, "trades", len(records), "volume", s.Stats.Volume)
}

// clearCategory matches surplus against deficit regimes for category c and
// applies each trade's effects. A matched pair trades once; afterwards the side
// with the smaller remaining gap moves on, as does any side whose gap is exhausted.
func clearCategory(c economy.Category, regimes []*social.Regime, tc rules.Trade) []social.TradeRecord {
	var sur, def []tradeSide
	for _, r := range regimes {
		gap := tradeGap(r.Market[c])
		switch {
		case gap > tc.GapThresh:
			sur = append(sur, tradeSide{r: r, gap: gap})
		case gap < -tc.GapThresh:
			def = append(def, tradeSide{r: r, gap: -gap})
		}
	}
	byGap := func(a, b tradeSide) int { return cmp.Compare(b.gap, a.gap) }
	slices.SortStableFunc(sur, byGap)
	slices.SortStableFunc(def, byGap)

	var out []social.TradeRecord
	i, j := 0, 0
	for guard := 0; i < len(sur) && j < len(def) && guard < tc.Guard; guard++ {
		seller, buyer := &sur[i], &def[j]
		vol := min(seller.gap, buyer.gap) * tc.VolFrac
		if vol <= tc.MinVolume {
			if seller.gap <= buyer.gap {
				i++
			} else {
				j++
			}
			continue
		}

		settle(c, seller.r, buyer.r, vol, tc)
		out = append(out, social.TradeRecord{Category: c, From: seller.r.ID, To: buyer.r.ID, Volume: vol})

		seller.gap -= vol
		buyer.gap -= vol
		nextSeller := seller.gap <= tc.DoneGap || seller.gap <= buyer.gap
		nextBuyer := buyer.gap <= tc.DoneGap || buyer.gap <= seller.gap
		if nextSeller {
			i++
		}
		if nextBuyer {
			j++
		}
	}
	return out
}

// settle applies one trade of vol units of c from seller to buyer.
func settle(c economy.Category, seller, buyer *social.Regime, vol float64, tc rules.Trade) {
	sa, ba := seller.Market.Get(c), buyer.Market.Get(c)
	friction := 0.5 * (sa.Tau + ba.Tau)

	bound := economy.InventoryBound(c)
	sa.Inv = bound.Clamp(sa.Inv - tc.InvShare*vol)
	ba.Inv = bound.Clamp(ba.Inv + tc.InvShare*vol)

	se, be := &seller.Externals, &buyer.Externals
	se.EA = clamp(se.EA+tc.EAFrom*vol-tc.FrictionFrom*friction, 0.05, 1)
	be.EA = clamp(be.EA+tc.EATo*vol-tc.FrictionTo*friction, 0.05, 1)
	se.PS = clamp(se.PS+tc.PSFrom*vol, 0.01, 1)
	be.PS = clamp(be.PS+tc.PSTo*vol, 0.01, 1)
	seller.TradeOpen = clamp01(seller.TradeOpen + tc.OpenFrom*vol)
	buyer.TradeOpen = clamp01(buyer.TradeOpen + tc.OpenTo*vol)

	if c.Meta().Intangible {
		be.TA = clamp01(be.TA + tc.TechGain*vol)
	}
}

// recentTrades returns the last n records involving id, oldest first.
func recentTrades(records []social.TradeRecord, id social.RegimeID, n int) []social.TradeRecord {
	out := []social.TradeRecord{}
	for _, t := range records {
		if t.From == id || t.To == id {
			out = append(out, t)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
