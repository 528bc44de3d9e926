package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/regime-world/internal/economy"
	"github.com/talgya/regime-world/internal/entropy"
	"github.com/talgya/regime-world/internal/rules"
	"github.com/talgya/regime-world/internal/social"
	"github.com/talgya/regime-world/internal/world"
)

// warRules makes every regime attack every turn.
func warRules() rules.Rules {
	rs := rules.Default()
	rs.Conflict.PMax = 1
	rs.Conflict.CoefCI = 1
	rs.Conflict.CIThreshold = -1
	rs.Conflict.CoefPS = 0
	rs.Conflict.LogMax = 3
	return rs
}

func TestStep_BoundsHoldOverManyTurns(t *testing.T) {
	for _, rs := range []rules.Rules{rules.Default(), warRules()} {
		src := entropy.New(11)
		w := CreateWorld(8, rs, src)
		for range 60 {
			Step(w, rs, src, nil)
			// Keep the world populated so late turns still exercise every regime path.
			world.TopUp(w, 8, rs, src)
			require.Len(t, w.Regimes, 8)

			o := rs.Oscillator
			assert.True(t, o.GG.Min <= w.Globals.GG && w.Globals.GG <= o.GG.Max)
			assert.True(t, o.RA.Min <= w.Globals.RA && w.Globals.RA <= o.RA.Max)
			assert.LessOrEqual(t, len(w.ConflictLog), rs.Conflict.LogMax)

			pairs := map[world.Pair]bool{}
			for _, p := range w.Alliances {
				require.False(t, pairs[p], "duplicate alliance %v", p)
				pairs[p] = true
				require.Equal(t, world.MakePair(p[0], p[1]), p)
			}

			ids := map[string]bool{}
			for _, r := range w.Regimes {
				require.False(t, ids[r.ID])
				ids[r.ID] = true
				for _, c := range economy.Categories {
					require.NoError(t, r.Market[c].CheckBounds(c), "regime %s step %d", r.ID, w.Step)
				}
				require.True(t, social.WealthBound.Contains(r.Wealth))
				require.LessOrEqual(t, len(r.LastTrades), rs.Trade.RecentMax)
				for _, n := range r.Memory {
					require.True(t, n >= 0 && n <= rs.Classifier.MemoryCap)
				}
			}
		}
	}
}

func TestStep_DefaultWorldStaysPopulated(t *testing.T) {
	rs := rules.Default()
	for seed := int64(1); seed <= 5; seed++ {
		src := entropy.New(seed)
		w := CreateWorld(6, rs, src)
		for range 40 {
			Step(w, rs, src, nil)
		}
		assert.NotEmpty(t, w.Regimes, "seed %d: every regime fell by turn %d", seed, w.Step)
		for id, reason := range w.FallReasons {
			assert.NotContains(t, reason.Text, ReasonWealth, "seed %d regime %s", seed, id)
		}
	}
}

func TestStep_DefaultWealthFilterBelowFloor(t *testing.T) {
	f := rules.Default().Filters
	assert.Less(t, f.MinWealth, social.WealthBound.Min)
	r := &social.Regime{Externals: social.Externals{PS: 0.5, PD: 0.5, LS: 0.5}, Wealth: social.WealthBound.Min}
	assert.True(t, survives(r, f))
}

func TestStep_TurnCounterAndConflictReset(t *testing.T) {
	rs := warRules()
	rs.Conflict.LogMax = 100
	src := entropy.New(5)
	w := CreateWorld(4, rs, src)
	stale := world.ConflictEvent{At: -1, From: "old", To: "older", DLS: 0.01}
	w.Conflicts = []world.ConflictEvent{stale}
	w.ConflictLog = []world.ConflictEvent{stale}

	Step(w, rs, src, nil)

	assert.Equal(t, 1, w.Step)
	assert.NotEmpty(t, w.Conflicts)
	for _, ev := range w.Conflicts {
		assert.Equal(t, 1, ev.At)
	}
	assert.Equal(t, stale, w.ConflictLog[0])
	assert.Len(t, w.ConflictLog, len(w.Conflicts)+1)
}

func TestStep_PrunesUnstableRegimeWithReason(t *testing.T) {
	rs := rules.Default()
	rs.Filters.MinPS = 0.2
	src := entropy.New(21)
	w := CreateWorld(4, rs, src)
	doomed := w.Regimes[0]
	doomed.Externals.PS = 0.01

	Step(w, rs, src, nil)

	assert.Nil(t, w.Regime(doomed.ID))
	reason, ok := w.FallReasons[doomed.ID]
	require.True(t, ok)
	assert.Contains(t, reason.Text, "stability")
	if attacker, hit := w.AttackerOf(doomed.ID); hit {
		assert.Contains(t, reason.Text, "defeated by "+attacker)
		assert.Equal(t, attacker, reason.By)
	}
}

func TestStep_FallReasonCitesAttacker(t *testing.T) {
	rs := warRules()
	rs.Filters.MinPS = 0.2
	src := entropy.New(8)
	w := CreateWorld(2, rs, src)
	for _, r := range w.Regimes {
		r.Externals.LS, r.Externals.PD = 0.5, 0.5
	}
	doomed := w.Regimes[1]
	doomed.Externals.PS = 0.01
	// With two regimes at war, the other regime is the only possible attacker.
	attacker := w.Regimes[0].ID

	Step(w, rs, src, nil)

	reason := w.FallReasons[doomed.ID]
	assert.Equal(t, ReasonStability+"; defeated by "+attacker, reason.Text)
	assert.Equal(t, attacker, reason.By)
}

func TestFallReason(t *testing.T) {
	assert.Equal(t, world.FallReason{Text: "defeated by x", By: "x"}, fallReason("", "x", true))
	assert.Equal(t, world.FallReason{Text: ReasonWealth}, fallReason(ReasonWealth, "", false))
	assert.Equal(t, world.FallReason{Text: ReasonSystemic}, fallReason("", "", false))
}

func TestStep_ObserverFailuresAreIgnored(t *testing.T) {
	rs := rules.Default()
	plain := CreateWorld(5, rs, entropy.New(99))
	noisy := CreateWorld(5, rs, entropy.New(99))
	srcA, srcB := entropy.New(100), entropy.New(100)

	var phases []string
	calls := 0
	obs := func(pct float64, phase string) error {
		calls++
		phases = append(phases, phase)
		switch calls % 3 {
		case 0:
			panic("observer exploded")
		case 1:
			return errors.New("observer failed")
		}
		return nil
	}

	for range 5 {
		Step(plain, rs, srcA, nil)
		Step(noisy, rs, srcB, obs)
	}

	a, err := json.Marshal(plain)
	require.NoError(t, err)
	b, err := json.Marshal(noisy)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	require.NotEmpty(t, phases)
	assert.Equal(t, PhaseStart, phases[0])
	assert.Equal(t, PhaseDone, phases[len(phases)-1])
	assert.Contains(t, phases, PhaseTrade)
}

func TestStep_DeterministicForSeed(t *testing.T) {
	run := func() []byte {
		src := entropy.New(77)
		w := CreateWorld(6, rules.Default(), src)
		for range 10 {
			Step(w, rules.Default(), src, nil)
		}
		b, err := json.Marshal(w)
		require.NoError(t, err)
		return b
	}
	assert.JSONEq(t, string(run()), string(run()))
}

func TestStep_StructuralViolationsPanic(t *testing.T) {
	rs := rules.Default()
	assert.Panics(t, func() { Step(nil, rs, entropy.New(1), nil) })
	assert.Panics(t, func() { Step(&world.World{}, rs, entropy.New(1), nil) })
	assert.NotPanics(t, func() { Step(&world.World{Regimes: []*social.Regime{}}, rs, entropy.New(1), nil) })
}

func TestClassify_OneTurnDoesNotFlipSteadyType(t *testing.T) {
	rs := rules.Default()
	r := &social.Regime{
		ID:         "a",
		Externals:  social.Externals{LS: 0.05, PD: 1, EA: 0.5, TA: 0.5, PS: 1},
		Wealth:     5,
		TradeOpen:  1,
		CivicVoice: 1,
		Type:       social.Authoritarian,
	}
	r.Market[economy.Infra].Inv = 1
	r.Memory[social.Authoritarian] = rs.Classifier.MemoryCap
	w := &world.World{Regimes: []*social.Regime{r, {ID: "b"}}}
	w.AddAlliance("a", "b")
	s := New(w, rs, entropy.New(1))

	o, i := s.scores(r)
	require.Equal(t, social.Democratic, social.Bucket(o, i, r.Type, rs.Classifier), "o=%g i=%g", o, i)

	s.classify(r)
	assert.Equal(t, social.Authoritarian, r.Type)
	assert.Equal(t, 1, r.Memory[social.Democratic])
	assert.InDelta(t, rs.Classifier.CIOrder*o+rs.Classifier.CIInclusion*i, r.CI, 1e-12)
}

func tradeRegime(id string, s, inv, d float64) *social.Regime {
	r := &social.Regime{ID: id, Externals: social.Externals{EA: 0.5, PS: 0.5, TA: 0.5}, TradeOpen: 0.3}
	for _, c := range economy.Categories {
		r.Market[c] = economy.Asset{S: 0.5, D: 0.5, Inv: 0.5, Tau: 0.1, Price: 1}
	}
	r.Market[economy.Food] = economy.Asset{S: s, Inv: inv, D: d, Tau: 0.1, Price: 1}
	return r
}

func TestClearCategory_TwoRegimes(t *testing.T) {
	tc := rules.Default().Trade
	seller := tradeRegime("s", 2.0, 0.5, 0.15) // gap 2.0
	buyer := tradeRegime("b", 0.2, 0.5, 1.85)  // gap -1.5
	require.InDelta(t, 2.0, tradeGap(seller.Market[economy.Food]), 1e-9)
	require.InDelta(t, -1.5, tradeGap(buyer.Market[economy.Food]), 1e-9)

	sellerInv, buyerInv := seller.Market[economy.Food].Inv, buyer.Market[economy.Food].Inv
	recs := clearCategory(economy.Food, []*social.Regime{seller, buyer}, tc)

	require.Len(t, recs, 1)
	assert.Equal(t, "s", recs[0].From)
	assert.Equal(t, "b", recs[0].To)
	assert.Equal(t, economy.Food, recs[0].Category)
	total := 0.0
	for _, r := range recs {
		total += r.Volume
	}
	assert.LessOrEqual(t, total, 1.5*tc.VolFrac+1e-9)
	assert.Less(t, seller.Market[economy.Food].Inv, sellerInv)
	assert.Greater(t, buyer.Market[economy.Food].Inv, buyerInv)
	assert.Greater(t, seller.TradeOpen, 0.3)
	assert.Greater(t, buyer.TradeOpen, 0.3)
}

func TestClearCategory_TechBuyerGainsTA(t *testing.T) {
	tc := rules.Default().Trade
	seller := tradeRegime("s", 0.5, 0.5, 0.5)
	buyer := tradeRegime("b", 0.5, 0.5, 0.5)
	seller.Market[economy.Tradables] = economy.Asset{S: 1.5, Inv: 0.5, D: 0.2, Tau: 0.1, Price: 1}
	buyer.Market[economy.Tradables] = economy.Asset{S: 0.2, Inv: 0.5, D: 1.5, Tau: 0.1, Price: 1}

	recs := clearCategory(economy.Tradables, []*social.Regime{buyer, seller}, tc)
	require.NotEmpty(t, recs)
	assert.Greater(t, buyer.Externals.TA, 0.5)
	assert.Equal(t, 0.5, seller.Externals.TA)
}

func TestClearCategory_GuardBoundsWork(t *testing.T) {
	tc := rules.Default().Trade
	tc.Guard = 1
	var regimes []*social.Regime
	for i, id := range []string{"s1", "s2", "b1", "b2"} {
		if i < 2 {
			regimes = append(regimes, tradeRegime(id, 2.0, 0.5, 0.15))
		} else {
			regimes = append(regimes, tradeRegime(id, 0.2, 0.5, 1.85))
		}
	}
	assert.Len(t, clearCategory(economy.Food, regimes, tc), 1)
}

func TestRecentTrades_KeepsLastN(t *testing.T) {
	var recs []social.TradeRecord
	for i := range 8 {
		recs = append(recs, social.TradeRecord{From: "a", To: "b", Volume: float64(i)})
	}
	got := recentTrades(recs, "a", 5)
	require.Len(t, got, 5)
	assert.Equal(t, 3.0, got[0].Volume)
	assert.Empty(t, recentTrades(recs, "z", 5))
}

func TestFormAlliances_TradePartnersAlly(t *testing.T) {
	rs := rules.Default()
	rs.Alliance.Base = 1
	rs.Alliance.CIWeight = 0
	a := tradeRegime("a", 0.5, 0.5, 0.5)
	b := tradeRegime("b", 0.5, 0.5, 0.5)
	c := tradeRegime("c", 0.5, 0.5, 0.5)
	rec := social.TradeRecord{Category: economy.Food, From: "a", To: "b", Volume: 0.1}
	a.LastTrades = []social.TradeRecord{rec}
	b.LastTrades = []social.TradeRecord{rec}
	w := &world.World{Regimes: []*social.Regime{a, b, c}}
	s := New(w, rs, entropy.New(1))

	s.formAlliances()
	s.formAlliances()

	require.Equal(t, []world.Pair{{"a", "b"}}, w.Alliances)
	assert.InDelta(t, 0.1-rs.Alliance.TauDelta, a.Market[economy.Metals].Tau, 1e-12)
	assert.InDelta(t, 0.5+rs.Alliance.PSBump, b.Externals.PS, 1e-12)
	assert.Equal(t, 0.1, c.Market[economy.Metals].Tau)
}

func TestMigrate_MovesPopulationToStability(t *testing.T) {
	rs := rules.Default()
	poor := &social.Regime{ID: "p", Externals: social.Externals{PD: 0.5, EA: 0.5, PS: 0.1}}
	rich := &social.Regime{ID: "r", Externals: social.Externals{PD: 0.5, EA: 0.5, PS: 0.9}}
	w := &world.World{Regimes: []*social.Regime{poor, rich}}
	New(w, rs, entropy.New(1)).migrate()

	flow := rs.Migration.FlowK * (rs.Migration.DstPS - 0.1)
	assert.InDelta(t, 0.5*(1-flow), poor.Externals.PD, 1e-12)
	assert.InDelta(t, 0.5*(1+flow), rich.Externals.PD, 1e-12)
	assert.Less(t, poor.Externals.EA, 0.5)
	assert.Greater(t, rich.Externals.EA, 0.5)
}

func TestConflictProbability(t *testing.T) {
	s := New(&world.World{}, rules.Default(), entropy.New(1))
	assert.Equal(t, 0.0, s.conflictProbability(0, 0, 1))
	assert.Equal(t, s.Rules.Conflict.PMax, s.conflictProbability(10, 0.9, 0))
}

func TestDegradeAndInvest(t *testing.T) {
	rs := rules.Default()
	r := &social.Regime{Externals: social.Externals{PS: 0.9, TA: 0.5}, TradeOpen: 0.5}
	r.Market[economy.Infra].Inv = 1
	New(&world.World{}, rs, entropy.New(1)).degradeAndInvest(r)

	assert.InDelta(t, 1+rs.Degrade.InfraInvStep, r.Market[economy.Infra].Inv, 1e-12)
	assert.InDelta(t, rs.Degrade.PSDecay*0.9+rs.Degrade.PSMix*rs.Degrade.PSTarget, r.Externals.PS, 1e-12)
	assert.Greater(t, r.Externals.TA, 0.5)
}

func TestPlayerPredicates(t *testing.T) {
	rs := rules.Default()
	rs.Filters.MinPS = 0.2
	src := entropy.New(4)
	w := CreateWorld(4, rs, src)
	assert.True(t, IsPlayerAlive(w))
	assert.False(t, MarkGameOverIfNeeded(w))

	seat, err := world.SeatPlayer(w, world.SeatRandom, src)
	require.NoError(t, err)
	assert.True(t, IsPlayerAlive(w))

	seat.Externals.PS = 0.01
	Step(w, rs, src, nil)

	assert.False(t, IsPlayerAlive(w))
	assert.True(t, MarkGameOverIfNeeded(w))
	assert.True(t, w.Done)
	assert.Equal(t, 1, w.EndedAt)
	require.NotNil(t, w.PlayerFall)
	assert.Contains(t, w.PlayerFall.Text, "stability")

	// Once over, later turns do not move the end marker.
	Step(w, rs, src, nil)
	assert.True(t, MarkGameOverIfNeeded(w))
	assert.Equal(t, 1, w.EndedAt)
}
