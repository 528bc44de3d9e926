// Package social provides regimes: their structural externals, governance
// classification, and trade history.
package social

import (
	"encoding/json"
	"math"

	"github.com/talgya/regime-world/internal/economy"
)

// RegimeID is a unique, stable identifier for a regime within a world.
type RegimeID = string

// Externals are the five slow structural variables of a regime.
type Externals struct {
	LS float64 `json:"LS"` // land share
	PD float64 `json:"PD"` // population density
	EA float64 `json:"EA"` // economic activity
	TA float64 `json:"TA"` // tech advancement
	PS float64 `json:"PS"` // political stability
}

// Endowments are fixed resource shares drawn at creation.
type Endowments struct {
	Fuel    float64 `json:"fuel"`
	Mineral float64 `json:"mineral"`
	Arable  float64 `json:"arable"`
	Water   float64 `json:"water"`
}

// TradeRecord is one cleared trade.
type TradeRecord struct {
	Category economy.Category `json:"cat"`
	From     RegimeID         `json:"from"`
	To       RegimeID         `json:"to"`
	Volume   float64          `json:"vol"`
}

// Regime is a simulated economic/political unit.
type Regime struct {
	ID   RegimeID `json:"id"`
	Name string   `json:"name"`

	Externals Externals      `json:"externals"`
	Endow     Endowments     `json:"endow"`
	Market    economy.Market `json:"market"`

	Wealth float64        `json:"wealth"` // 0.05–5.0
	CI     float64        `json:"ci"`
	Type   GovernanceType `json:"type"`
	Memory TypeMemory     `json:"_mem"`

	TradeOpen        float64 `json:"tradeOpen"`
	Debts            float64 `json:"debts"`
	LastConflictLoss float64 `json:"lastConflictLoss"`
	CivicVoice       float64 `json:"civicVoice"`
	MediaControl     float64 `json:"mediaControl"`
	Counterintel     bool    `json:"counterintel,omitempty"` // set by the player's counterintel policy

	LastTrades    []TradeRecord `json:"lastTrades"`
	WealthReturns []float64     `json:"wealthReturns,omitempty"` // recent log-returns of wealth, newest last
}

// WealthBound is the documented wealth range.
var WealthBound = economy.Bound{Min: 0.05, Max: 5.0}

// Fundamentals projects the regime onto the inputs its market formulas read.
func (r *Regime) Fundamentals() economy.Fundamentals {
	e := r.Externals
	return economy.Fundamentals{
		LS: e.LS, PD: e.PD, EA: e.EA, TA: e.TA, PS: e.PS,
		Fuel: r.Endow.Fuel, Mineral: r.Endow.Mineral, Arable: r.Endow.Arable, Water: r.Endow.Water,
	}
}

// UnmarshalJSON decodes a regime. Market categories missing from the input
// are restored from the regime's own fundamentals.
func (r *Regime) UnmarshalJSON(b []byte) error {
	type plain Regime
	if err := json.Unmarshal(b, (*plain)(r)); err != nil {
		return err
	}
	var raw struct {
		Market map[string]json.RawMessage `json:"market"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	f := r.Fundamentals()
	for _, c := range economy.Categories {
		if _, ok := raw.Market[c.String()]; !ok {
			r.Market[c] = economy.RestoreAsset(c, f, economy.Macro{})
		}
	}
	return nil
}

// PopLand is the population-weighted territory used by the collapse filter.
func (r *Regime) PopLand() float64 {
	return r.Externals.PD * r.Externals.LS
}

// TradedWith reports whether other appears in this regime's recent trades.
func (r *Regime) TradedWith(other RegimeID) bool {
	for _, t := range r.LastTrades {
		if t.From == other || t.To == other {
			return true
		}
	}
	return false
}

// RecordWealth appends the log-return from prev to the current wealth, keeping at most window samples.
func (r *Regime) RecordWealth(prev float64, window int) {
	if prev <= 0 || r.Wealth <= 0 {
		return
	}
	r.WealthReturns = append(r.WealthReturns, math.Log(r.Wealth/prev))
	if n := len(r.WealthReturns); n > window {
		r.WealthReturns = append(r.WealthReturns[:0], r.WealthReturns[n-window:]...)
	}
}

// Volatility returns the sample standard deviation of recent wealth returns.
// ok is false until at least two samples exist.
func (r *Regime) Volatility() (vol float64, ok bool) {
	n := len(r.WealthReturns)
	if n < 2 {
		return 0, false
	}
	mean := 0.0
	for _, x := range r.WealthReturns {
		mean += x
	}
	mean /= float64(n)
	ss := 0.0
	for _, x := range r.WealthReturns {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(n-1)), true
}

// EliteRents estimates rent extraction from resource prices.
func (r *Regime) EliteRents() float64 {
	return (r.Market[economy.Food].Price + r.Market[economy.Metals].Price) / 200
}
