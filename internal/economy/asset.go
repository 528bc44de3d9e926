package economy

import (
	"encoding/json"
	"fmt"
	"math"
)

// Asset is the market state for one category in one regime.
type Asset struct {
	S     float64 `json:"S"`   // supply
	D     float64 `json:"D"`   // demand
	V     float64 `json:"V"`   // volatility
	L     float64 `json:"L"`   // liquidity
	Rk    float64 `json:"Rk"`  // risk premium
	ER    float64 `json:"ER"`  // expected return
	Inv   float64 `json:"Inv"` // inventory
	Prod  float64 `json:"Prod"`
	Tau   float64 `json:"tau"` // trade friction
	Price float64 `json:"price"`
}

// Bound is a closed interval used for clamping.
type Bound struct {
	Min, Max float64
}

// Clamp pins x into b.
func (b Bound) Clamp(x float64) float64 {
	return max(b.Min, min(b.Max, x))
}

// Contains reports whether x lies within b.
func (b Bound) Contains(x float64) bool {
	return x >= b.Min && x <= b.Max
}

// Documented field ranges.
var (
	SupplyBound = Bound{0.05, 2.5}
	DemandBound = Bound{0.05, 2.0}
	RiskBound   = Bound{0, 0.8}
	ProdBound   = Bound{0.05, 2.2}
	TauBound    = Bound{0, 0.3}
	PriceFloor  = 0.01

	capInvBound   = Bound{0.1, 3.0}
	flowInvBound  = Bound{0.01, 2.0}
	bondERBand    = Bound{-0.1, 0.1}
	stockERBand   = Bound{-0.2, 0.3}
	estateERBand  = Bound{-0.1, 0.2}
	commodERBand  = Bound{-0.05, 0.05}
	defaultERBand = Bound{-0.1, 0.2}
)

// InventoryBound returns the inventory range for c.
func InventoryBound(c Category) Bound {
	if metas[c].CapLike {
		return capInvBound
	}
	return flowInvBound
}

// ERBand returns the expected-return band for c.
func ERBand(c Category) Bound {
	switch c {
	case Bonds:
		return bondERBand
	case Stocks:
		return stockERBand
	case RealEstate:
		return estateERBand
	case Commodities:
		return commodERBand
	default:
		return defaultERBand
	}
}

// CheckBounds returns an error naming the first field of a that lies outside
// its documented range for category c.
func (a Asset) CheckBounds(c Category) error {
	m := metas[c]
	checks := []struct {
		name string
		val  float64
		b    Bound
	}{
		{"S", a.S, SupplyBound},
		{"D", a.D, DemandBound},
		{"V", a.V, Bound{m.Volatility, m.Volatility}},
		{"L", a.L, Bound{m.Liquidity, m.Liquidity}},
		{"Rk", a.Rk, RiskBound},
		{"ER", a.ER, ERBand(c)},
		{"Inv", a.Inv, InventoryBound(c)},
		{"Prod", a.Prod, ProdBound},
		{"tau", a.Tau, TauBound},
		{"price", a.Price, Bound{PriceFloor, math.MaxFloat64}},
	}
	for _, ch := range checks {
		if math.IsNaN(ch.val) || !ch.b.Contains(ch.val) {
			return fmt.Errorf("%s.%s=%g outside [%g,%g]", c, ch.name, ch.val, ch.b.Min, ch.b.Max)
		}
	}
	return nil
}

// Market holds exactly one Asset per category. Full coverage is a property of the type.
type Market [NumCategories]Asset

// Get returns a pointer to the asset for c.
func (m *Market) Get(c Category) *Asset {
	return &m[c]
}

// MarshalJSON encodes the market as an object keyed by category code.
func (m Market) MarshalJSON() ([]byte, error) {
	out := make(map[string]Asset, NumCategories)
	for _, c := range Categories {
		out[c.String()] = m[c]
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a market object. Categories absent from the object
// are restored with RestoreAsset against neutral fundamentals; unknown codes
// are an error.
func (m *Market) UnmarshalJSON(b []byte) error {
	var in map[string]Asset
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	var seen [NumCategories]bool
	for code, a := range in {
		c, err := ParseCategory(code)
		if err != nil {
			return err
		}
		m[c] = a
		seen[c] = true
	}
	for _, c := range Categories {
		if !seen[c] {
			m[c] = RestoreAsset(c, Fundamentals{}, Macro{})
		}
	}
	return nil
}

// RestoreAsset rebuilds the asset for c from the creation formulas without
// random draws. Risk starts at zero; expected return and friction start at
// the middle of their seeding ranges.
func RestoreAsset(c Category, f Fundamentals, g Macro) Asset {
	s, _ := SeedSupply(c, f)
	d, _ := SeedDemand(c, f, g)
	s = SupplyBound.Clamp(s)
	m := metas[c]
	return Asset{
		S:     s,
		D:     DemandBound.Clamp(d),
		V:     m.Volatility,
		L:     m.Liquidity,
		ER:    ERBand(c).Clamp(0.045),
		Inv:   SeedInventory(c),
		Prod:  ProdBound.Clamp(s - 0.3),
		Tau:   TauBound.Clamp(0.2),
		Price: 1.0,
	}
}
