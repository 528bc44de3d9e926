// Package economy provides the per-regime market: the ten asset categories,
// their fixed metadata, and the stochastic price process.
package economy

import "fmt"

// Category indexes one of the ten fixed asset classes.
type Category uint8

const (
	RealEstate  Category = iota // RE
	Stocks                      // S
	Bonds                       // B
	Commodities                 // C
	Food                        // F
	Metals                      // M
	Goods                       // G
	Wages                       // W
	Tradables                   // T
	Infra                       // I

	NumCategories = 10
)

// Categories lists every category in canonical order.
var Categories = [NumCategories]Category{
	RealEstate, Stocks, Bonds, Commodities, Food, Metals, Goods, Wages, Tradables, Infra,
}

// Meta is the static description of a category.
type Meta struct {
	Code       string
	Label      string
	Tradable   bool
	CapLike    bool // capital stock: random-walks with stability, never traded
	Financial  bool
	Perishable bool
	Intangible bool

	Liquidity  float64
	Volatility float64
}

var metas = [NumCategories]Meta{
	RealEstate:  {Code: "RE", Label: "RealEst", CapLike: true, Liquidity: 0.2, Volatility: 0.25},
	Stocks:      {Code: "S", Label: "Stocks", Tradable: true, Financial: true, Liquidity: 0.7, Volatility: 0.4},
	Bonds:       {Code: "B", Label: "Bonds", Tradable: true, Financial: true, Liquidity: 0.7, Volatility: 0.25},
	Commodities: {Code: "C", Label: "Commodities", Tradable: true, Financial: true, Liquidity: 0.95, Volatility: 0.05},
	Food:        {Code: "F", Label: "Food", Tradable: true, Liquidity: 0.5, Volatility: 0.4},
	Metals:      {Code: "M", Label: "Metals", Tradable: true, Liquidity: 0.5, Volatility: 0.25},
	Goods:       {Code: "G", Label: "Goods", Tradable: true, Perishable: true, Liquidity: 0.5, Volatility: 0.4},
	Wages:       {Code: "W", Label: "Wages", Tradable: true, Perishable: true, Liquidity: 0.5, Volatility: 0.25},
	Tradables:   {Code: "T", Label: "Tradables", Tradable: true, Intangible: true, Liquidity: 0.5, Volatility: 0.25},
	Infra:       {Code: "I", Label: "Infra", CapLike: true, Liquidity: 0.2, Volatility: 0.25},
}

// Meta returns the static metadata for c.
func (c Category) Meta() Meta {
	return metas[c]
}

// String returns the short category code.
func (c Category) String() string {
	if int(c) >= NumCategories {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return metas[c].Code
}

// ParseCategory maps a code back to its Category.
func ParseCategory(code string) (Category, error) {
	for _, c := range Categories {
		if metas[c].Code == code {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", code)
}

// MarshalText encodes the category as its code.
func (c Category) MarshalText() ([]byte, error) {
	if int(c) >= NumCategories {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return []byte(metas[c].Code), nil
}

// UnmarshalText decodes a category code.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TradableCategories returns the categories the clearing engine runs over.
func TradableCategories() []Category {
	out := make([]Category, 0, NumCategories)
	for _, c := range Categories {
		if metas[c].Tradable {
			out = append(out, c)
		}
	}
	return out
}
