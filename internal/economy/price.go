package economy

import "math"

// NextPrice advances a price by one geometric Brownian motion step.
// drift µ = ER − Rk, σ = V·volMul, z is a standard normal draw.
func NextPrice(a Asset, volMul, dt, z float64) float64 {
	mu := a.ER - a.Rk
	sigma := a.V * volMul
	dt = max(dt, 1e-6)
	drift := (mu - 0.5*sigma*sigma) * dt
	shock := sigma * math.Sqrt(dt) * z
	next := a.Price * math.Exp(drift+shock)
	if math.IsNaN(next) || math.IsInf(next, 0) {
		return max(PriceFloor, a.Price)
	}
	return max(PriceFloor, next)
}

// Macro is the subset of the global signal vector the market reacts to.
type Macro struct {
	GG, IR, RA, ES, TS, CS float64
}

// ExpectedReturn recalibrates ER for c from the macro state and own stability.
func ExpectedReturn(c Category, g Macro, ps float64) float64 {
	var er float64
	switch c {
	case Bonds:
		er = 0.02 + 0.01 - g.IR - 0.01*(1-ps)
	case Stocks:
		er = 0.05 + 0.02*g.GG - 0.02*g.RA
	case RealEstate:
		er = 0.03 + 0.01*g.GG - 0.02*g.IR
	case Commodities:
		er = -0.01 + 0.5*g.IR
	default:
		er = 0.02 + 0.01*g.GG
	}
	return ERBand(c).Clamp(er)
}
