package economy

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradableCategories_ExcludesCapitalStock(t *testing.T) {
	tr := TradableCategories()
	assert.Len(t, tr, 8)
	assert.NotContains(t, tr, RealEstate)
	assert.NotContains(t, tr, Infra)
}

func TestCategory_TextRoundTrip(t *testing.T) {
	for _, c := range Categories {
		b, err := c.MarshalText()
		require.NoError(t, err)
		var got Category
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, c, got)
	}
	_, err := ParseCategory("XX")
	assert.Error(t, err)
}

func TestNextPrice_DeterministicDriftWithoutVolatility(t *testing.T) {
	a := Asset{ER: 0.05, Rk: 0.02, V: 0, Price: 2}
	got := NextPrice(a, 1, 0.5, 1.7)
	assert.InDelta(t, 2*math.Exp(0.03*0.5), got, 1e-12)
}

func TestNextPrice_Floor(t *testing.T) {
	a := Asset{ER: -0.2, Rk: 0.8, V: 0.4, Price: 0.011}
	got := NextPrice(a, 2, 1, -8)
	assert.Equal(t, PriceFloor, got)
}

func TestExpectedReturn_StaysInBand(t *testing.T) {
	extreme := Macro{GG: 10, IR: 10, RA: -10}
	for _, c := range Categories {
		er := ExpectedReturn(c, extreme, 0)
		assert.True(t, ERBand(c).Contains(er), "%s er=%g", c, er)
	}
	// Bonds fall as rates rise.
	lo := ExpectedReturn(Bonds, Macro{IR: 0.0}, 1)
	hi := ExpectedReturn(Bonds, Macro{IR: 0.05}, 1)
	assert.Greater(t, lo, hi)
}

func TestMarket_JSONRoundTrip(t *testing.T) {
	var m Market
	for i, c := range Categories {
		m[c] = Asset{S: float64(i) / 10, Price: 1 + float64(i)}
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"RE":`)

	var back Market
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, m, back)
}

func TestMarket_UnmarshalRestoresMissingCategories(t *testing.T) {
	var m Market
	require.NoError(t, json.Unmarshal([]byte(`{"RE":{"price":3,"S":0.7}}`), &m))
	assert.Equal(t, 3.0, m[RealEstate].Price)
	assert.Equal(t, 0.7, m[RealEstate].S)
	for _, c := range Categories[1:] {
		assert.Equal(t, RestoreAsset(c, Fundamentals{}, Macro{}), m[c], "%s", c)
		require.NoError(t, m[c].CheckBounds(c), "%s", c)
	}

	assert.Error(t, json.Unmarshal([]byte(`{"XX":{"price":1}}`), &m))
}

func TestRestoreAsset_InBounds(t *testing.T) {
	f := Fundamentals{LS: 0.9, PD: 0.9, EA: 0.9, TA: 0.9, PS: 0.1, Fuel: 1, Mineral: 1, Arable: 1, Water: 1}
	for _, c := range Categories {
		a := RestoreAsset(c, f, Macro{RA: 1})
		require.NoError(t, a.CheckBounds(c), "%s", c)
		assert.Equal(t, 0.0, a.Rk)
		assert.Equal(t, 1.0, a.Price)
	}
}

func TestCheckBounds(t *testing.T) {
	a := Asset{
		S: 1, D: 1, V: Stocks.Meta().Volatility, L: Stocks.Meta().Liquidity,
		Rk: 0.3, ER: 0.04, Inv: 0.5, Prod: 0.7, Tau: 0.1, Price: 1,
	}
	require.NoError(t, a.CheckBounds(Stocks))

	a.D = 2.5
	err := a.CheckBounds(Stocks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S.D")
}

func TestSeedFormulas_CoverEveryCategory(t *testing.T) {
	f := Fundamentals{LS: 0.3, PD: 0.4, EA: 0.5, TA: 0.4, PS: 0.6, Fuel: 0.2, Mineral: 0.3, Arable: 0.4, Water: 0.2}
	for _, c := range Categories {
		_, ok := SeedSupply(c, f)
		assert.True(t, ok, "supply %s", c)
		_, ok = SeedDemand(c, f, Macro{})
		assert.True(t, ok, "demand %s", c)
	}
	assert.Equal(t, 1.0, SeedInventory(Infra))
	assert.Equal(t, 0.2, SeedInventory(Goods))
	assert.Equal(t, 0.5, SeedInventory(Metals))
}
