package economy

// Fundamentals is the slice of a regime's structure that drives its market:
// externals plus resource endowments.
type Fundamentals struct {
	LS, PD, EA, TA, PS           float64
	Fuel, Mineral, Arable, Water float64
}

// DemandShock is the per-turn demand impulse for c.
func DemandShock(c Category, g Macro, f Fundamentals) float64 {
	switch c {
	case Stocks:
		return 0.3*g.GG - 0.3*g.RA
	case Bonds:
		return -0.3*g.IR - 0.2*g.RA
	case RealEstate:
		return 0.2*g.GG - 0.2*g.IR
	case Food:
		return 0.2*g.GG + 0.4*g.ES
	case Goods:
		return 0.1*g.GG - 0.3*g.CS
	case Wages:
		return -0.4 * g.CS
	case Tradables:
		return 0.4 * g.TS
	case Commodities:
		return 0.2*g.RA + 0.2*(1-f.PS)
	default:
		return 0.1 * g.GG
	}
}

// SupplyShock is the per-turn supply impulse for c.
func SupplyShock(c Category, g Macro, f Fundamentals) float64 {
	switch c {
	case Food:
		return 0.3*f.Fuel - 0.3*g.ES
	case Metals:
		return 0.3 * f.Mineral
	case Goods:
		return 0.3*f.Arable - 0.3*g.CS
	case Wages:
		return 0.3*f.Water - 0.3*g.CS
	case Tradables:
		return 0.3*f.TA + 0.2*g.TS
	default:
		return 0.1 * f.EA
	}
}

// SeedSupply is the creation-time supply level for c.
// ok is false for categories without a formula; the caller draws a uniform base.
func SeedSupply(c Category, f Fundamentals) (s float64, ok bool) {
	switch c {
	case RealEstate:
		return 0.5*f.LS + 0.2*f.EA + 0.1, true
	case Stocks:
		return 0.3*f.EA + 0.3*f.TA + 0.2, true
	case Bonds:
		return 0.4*f.PS + 0.2*f.EA + 0.1, true
	case Commodities:
		return 0.5 + 0.3*f.PS, true
	case Food:
		return 0.4*f.Fuel + 0.2*f.EA, true
	case Metals:
		return 0.4*f.Mineral + 0.2*f.EA, true
	case Goods:
		return 0.5*f.Arable + 0.2*f.LS, true
	case Wages:
		return 0.4*f.Water + 0.2*f.LS, true
	case Tradables:
		return 0.3*f.TA + 0.1*f.EA, true
	case Infra:
		return 0.3*f.EA + 0.2*f.PS, true
	}
	return 0, false
}

// SeedDemand is the creation-time demand level for c.
func SeedDemand(c Category, f Fundamentals, g Macro) (d float64, ok bool) {
	switch c {
	case RealEstate:
		return 0.5*f.PD + 0.3*f.EA + 0.2, true
	case Stocks:
		return 0.4*f.EA + 0.2*f.TA + 0.2, true
	case Bonds:
		return 0.3*(1-f.PS) + 0.2*f.EA, true
	case Commodities:
		return 0.3 + 0.2*(g.RA+0.5) + 0.2*(1-f.PS), true
	case Food:
		return 0.4*f.EA + 0.1, true
	case Metals:
		return 0.3*f.EA + 0.1*f.TA, true
	case Goods:
		return 0.4*(f.PD*f.LS) + 0.2, true
	case Wages:
		return 0.4*(f.PD*f.LS) + 0.1, true
	case Tradables:
		return 0.4*f.TA + 0.2*f.EA, true
	case Infra:
		return 0.2 + 0.4*f.EA, true
	}
	return 0, false
}

// SeedInventory is the starting inventory for c.
func SeedInventory(c Category) float64 {
	switch m := metas[c]; {
	case m.CapLike:
		return 1.0
	case m.Perishable:
		return 0.2
	default:
		return 0.5
	}
}
