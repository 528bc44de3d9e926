package world

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/entropy"
	"github.com/talgya/regime-world/internal/rules"
)

func TestGenerate_FourRegimes(t *testing.T) {
	w := Generate(4, rules.Default(), entropy.New(1))
	require.Len(t, w.Regimes, 4)
	assert.Equal(t, 0, w.Step)

	seen := map[string]bool{}
	landSum := 0.0
	for _, r := range w.Regimes {
		assert.Equal(t, 1.0, r.Wealth)
		assert.Len(t, r.Market, economy.NumCategories)
		assert.Equal(t, "R-"+r.ID, r.Name)
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
		landSum += r.Externals.LS

		for _, c := range economy.Categories {
			require.NoError(t, r.Market[c].CheckBounds(c))
		}
		assert.GreaterOrEqual(t, r.CI, 0.0)
		assert.LessOrEqual(t, r.CI, 1.0)
	}
	assert.InDelta(t, 1.0, landSum, 1e-9)
}

func TestGenerate_ClampsCount(t *testing.T) {
	rs := rules.Default()
	assert.Len(t, Generate(1, rs, entropy.New(2)).Regimes, rs.Regimes.Min)
	assert.Len(t, Generate(100, rs, entropy.New(2)).Regimes, rs.Regimes.Max)
}

func TestGenerate_DeterministicForSeed(t *testing.T) {
	a, err := json.Marshal(Generate(5, rules.Default(), entropy.New(42)))
	require.NoError(t, err)
	b, err := json.Marshal(Generate(5, rules.Default(), entropy.New(42)))
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestWorld_JSONRoundTrip(t *testing.T) {
	w := Generate(3, rules.Default(), entropy.New(7))
	w.AddAlliance(w.Regimes[0].ID, w.Regimes[1].ID)
	w.RecordConflict(ConflictEvent{At: 1, From: w.Regimes[0].ID, To: w.Regimes[2].ID, DLS: 0.01}, 10)
	w.RecordFall("gone", FallReason{Text: "x", By: w.Regimes[0].ID})

	b, err := json.Marshal(w)
	require.NoError(t, err)
	var back World
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, w, &back)
}

func TestAlliances_NoDuplicatePairs(t *testing.T) {
	w := &World{}
	assert.True(t, w.AddAlliance("a", "b"))
	assert.False(t, w.AddAlliance("b", "a"))
	assert.False(t, w.AddAlliance("a", "a"))
	assert.Len(t, w.Alliances, 1)
	assert.True(t, w.Allied("b", "a"))
	assert.True(t, w.InAlliance("b"))
	assert.False(t, w.InAlliance("c"))
}

func TestRecordConflict_TrimsLog(t *testing.T) {
	w := &World{}
	for i := range 7 {
		w.RecordConflict(ConflictEvent{At: i}, 3)
	}
	assert.Len(t, w.Conflicts, 7)
	require.Len(t, w.ConflictLog, 3)
	assert.Equal(t, 4, w.ConflictLog[0].At)

	from, ok := (&World{Conflicts: []ConflictEvent{{From: "x", To: "y"}}}).AttackerOf("y")
	assert.True(t, ok)
	assert.Equal(t, "x", from)
}

func TestSpawn_FreshUniqueIDs(t *testing.T) {
	rs := rules.Default()
	src := entropy.New(3)
	w := Generate(2, rs, src)
	w.RecordFall("dead0001", FallReason{Text: "gone"})

	added := Spawn(w, 3, rs, src)
	require.Len(t, added, 3)
	require.Len(t, w.Regimes, 5)

	seen := map[string]bool{}
	for _, r := range w.Regimes {
		assert.False(t, seen[r.ID])
		seen[r.ID] = true
		assert.NotEqual(t, "dead0001", r.ID)
	}

	assert.Equal(t, 0, TopUp(w, 4, rs, src))
	assert.Equal(t, 2, TopUp(w, 7, rs, src))
	assert.Len(t, w.Regimes, 7)
}

func TestSeatPlayer(t *testing.T) {
	w := Generate(6, rules.Default(), entropy.New(9))
	pick, err := SeatPlayer(w, SeatLargest, entropy.New(1))
	require.NoError(t, err)
	for _, r := range w.Regimes {
		assert.LessOrEqual(t, r.Externals.LS, pick.Externals.LS)
	}
	require.NotNil(t, w.Player)
	assert.Equal(t, pick.ID, w.Player.ID)
	assert.Equal(t, SeatLargest, w.Player.Rule)

	pick, err = SeatPlayer(w, SeatTechiest, entropy.New(1))
	require.NoError(t, err)
	for _, r := range w.Regimes {
		assert.LessOrEqual(t, r.Externals.TA, pick.Externals.TA)
	}

	_, err = SeatPlayer(&World{}, SeatRandom, entropy.New(1))
	assert.ErrorIs(t, err, ErrNoRegimes)
}

func TestParseSeatRule(t *testing.T) {
	r, err := ParseSeatRule("")
	require.NoError(t, err)
	assert.Equal(t, SeatRandom, r)
	r, err = ParseSeatRule(" Wealthiest ")
	require.NoError(t, err)
	assert.Equal(t, SeatWealthiest, r)
	_, err = ParseSeatRule("richest")
	assert.Error(t, err)
}

func TestGenerate_RiskSeededFromRange(t *testing.T) {
	rs := rules.Default()
	rs.Generator.Risk = rules.Range{Min: 0.01, Max: 0.03}
	w := Generate(6, rs, entropy.New(12))
	for _, r := range w.Regimes {
		for _, c := range economy.Categories {
			rk := r.Market[c].Rk
			assert.True(t, rk >= 0.01 && rk <= 0.03, "%s %s Rk=%g", r.ID, c, rk)
		}
	}
}
