// Package rules holds every tunable constant of the turn engine.
// The engine treats a Rules value as validated, read-only input.
package rules

// Rules is the full configuration consumed by world generation and the turn pipeline.
type Rules struct {
	Regimes     RegimeBounds `yaml:"regimes" json:"regimes"`
	GlobalsInit GlobalsInit  `yaml:"globals_init" json:"globals_init"`
	Oscillator  Oscillator   `yaml:"oscillator" json:"oscillator"`
	Generator   Generator    `yaml:"generator" json:"generator"`
	Market      Market       `yaml:"market" json:"market"`
	Conflict    Conflict     `yaml:"conflict" json:"conflict"`
	Trade       Trade        `yaml:"trade" json:"trade"`
	Alliance    Alliance     `yaml:"alliance" json:"alliance"`
	Migration   Migration    `yaml:"migration" json:"migration"`
	Classifier  Classifier   `yaml:"classifier" json:"classifier"`
	Degrade     Degrade      `yaml:"degrade" json:"degrade"`
	Filters     Filters      `yaml:"filters" json:"filters"`
}

// RegimeBounds clamps the requested regime count at world creation.
type RegimeBounds struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// GlobalsInit seeds the macro vector of a fresh world.
type GlobalsInit struct {
	GG        float64 `yaml:"gg" json:"gg"`
	IR        float64 `yaml:"ir" json:"ir"`
	RA        float64 `yaml:"ra" json:"ra"`
	ES        float64 `yaml:"es" json:"es"`
	TS        float64 `yaml:"ts" json:"ts"`
	CS        float64 `yaml:"cs" json:"cs"`
	Substeps  int     `yaml:"substeps" json:"substeps"`
	TurnYears float64 `yaml:"turn_years" json:"turn_years"`
	VolMul    float64 `yaml:"vol_mul" json:"vol_mul"`
	ShockMul  float64 `yaml:"shock_mul" json:"shock_mul"`
}

// Signal is the mean-reversion tuple for one macro signal.
type Signal struct {
	Target float64 `yaml:"target" json:"target"`
	Sigma  float64 `yaml:"sigma" json:"sigma"`
	Rho    float64 `yaml:"rho" json:"rho"`
	Min    float64 `yaml:"min" json:"min"`
	Max    float64 `yaml:"max" json:"max"`
}

// Oscillator configures the six macro signals.
type Oscillator struct {
	GG Signal `yaml:"gg" json:"gg"`
	IR Signal `yaml:"ir" json:"ir"`
	RA Signal `yaml:"ra" json:"ra"`
	ES Signal `yaml:"es" json:"es"`
	TS Signal `yaml:"ts" json:"ts"`
	CS Signal `yaml:"cs" json:"cs"`
}

// Range is a closed interval.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Clamp pins x into r.
func (r Range) Clamp(x float64) float64 {
	return max(r.Min, min(r.Max, x))
}

// Generator configures creation-time sampling.
type Generator struct {
	LandAlpha    float64 `yaml:"land_alpha" json:"land_alpha"`
	PopAlpha     float64 `yaml:"pop_alpha" json:"pop_alpha"`
	FuelAlpha    float64 `yaml:"fuel_alpha" json:"fuel_alpha"`
	MineralAlpha float64 `yaml:"mineral_alpha" json:"mineral_alpha"`
	ArableAlpha  float64 `yaml:"arable_alpha" json:"arable_alpha"`
	WaterAlpha   float64 `yaml:"water_alpha" json:"water_alpha"`

	PD Range `yaml:"pd" json:"pd"`
	EA Range `yaml:"ea" json:"ea"`
	TA Range `yaml:"ta" json:"ta"`
	PS Range `yaml:"ps" json:"ps"`

	// Risk is the seeding range of every asset's risk premium. Price drift is
	// ER − Rk, so this sets the long-run price trend of a fresh world.
	Risk Range `yaml:"risk" json:"risk"`

	CivicVoice   float64 `yaml:"civic_voice" json:"civic_voice"`
	MediaControl float64 `yaml:"media_control" json:"media_control"`

	// TypeBands maps generation-time CI to an initial type:
	// ci < Anarchic → aNarchic, < Democratic → Democratic, < Authoritarian → Authoritarian, else Tribal.
	TypeBands TypeBands `yaml:"type_bands" json:"type_bands"`
}

// TypeBands are ascending CI cut points.
type TypeBands struct {
	Anarchic      float64 `yaml:"anarchic" json:"anarchic"`
	Democratic    float64 `yaml:"democratic" json:"democratic"`
	Authoritarian float64 `yaml:"authoritarian" json:"authoritarian"`
}

// Market configures the local market updater.
type Market struct {
	DemandGain  float64 `yaml:"demand_gain" json:"demand_gain"`
	SupplyGain  float64 `yaml:"supply_gain" json:"supply_gain"`
	WealthKeep  float64 `yaml:"wealth_keep" json:"wealth_keep"`
	CapInvStep  float64 `yaml:"cap_inv_step" json:"cap_inv_step"`
	InvFlowGain float64 `yaml:"inv_flow_gain" json:"inv_flow_gain"`
	DecayDur    float64 `yaml:"decay_durable" json:"decay_durable"`
	DecayPerish float64 `yaml:"decay_perishable" json:"decay_perishable"`
	MinDtYears  float64 `yaml:"min_dt_years" json:"min_dt_years"`
}

// Conflict configures the conflict resolver.
type Conflict struct {
	CoefDeficit     float64 `yaml:"coef_deficit" json:"coef_deficit"`
	CoefCI          float64 `yaml:"coef_ci" json:"coef_ci"`
	CIThreshold     float64 `yaml:"ci_threshold" json:"ci_threshold"`
	CoefPS          float64 `yaml:"coef_ps" json:"coef_ps"`
	PMax            float64 `yaml:"p_max" json:"p_max"`
	DLSMaxFrac      float64 `yaml:"dls_max_frac" json:"dls_max_frac"`
	DLSFracOfTarget float64 `yaml:"dls_frac_of_target" json:"dls_frac_of_target"`
	PSLossAttacker  float64 `yaml:"ps_loss_attacker" json:"ps_loss_attacker"`
	PSLossDefender  float64 `yaml:"ps_loss_defender" json:"ps_loss_defender"`
	InvHitAttacker  float64 `yaml:"inv_hit_attacker" json:"inv_hit_attacker"`
	InvHitDefender  float64 `yaml:"inv_hit_defender" json:"inv_hit_defender"`
	LossDecay       float64 `yaml:"loss_decay" json:"loss_decay"`
	RABump          float64 `yaml:"ra_bump" json:"ra_bump"`
	LogMax          int     `yaml:"log_max" json:"log_max"`
}

// Trade configures the clearing engine.
type Trade struct {
	GapThresh    float64 `yaml:"gap_thresh" json:"gap_thresh"`
	VolFrac      float64 `yaml:"vol_frac" json:"vol_frac"`
	Guard        int     `yaml:"guard" json:"guard"`
	MinVolume    float64 `yaml:"min_volume" json:"min_volume"`
	DoneGap      float64 `yaml:"done_gap" json:"done_gap"`
	InvShare     float64 `yaml:"inv_share" json:"inv_share"`
	EAFrom       float64 `yaml:"ea_from" json:"ea_from"`
	EATo         float64 `yaml:"ea_to" json:"ea_to"`
	FrictionFrom float64 `yaml:"friction_from" json:"friction_from"`
	FrictionTo   float64 `yaml:"friction_to" json:"friction_to"`
	PSFrom       float64 `yaml:"ps_from" json:"ps_from"`
	PSTo         float64 `yaml:"ps_to" json:"ps_to"`
	OpenFrom     float64 `yaml:"open_from" json:"open_from"`
	OpenTo       float64 `yaml:"open_to" json:"open_to"`
	TechGain     float64 `yaml:"tech_gain" json:"tech_gain"`
	RecentMax    int     `yaml:"recent_max" json:"recent_max"`
}

// Alliance configures the alliance former.
type Alliance struct {
	Base     float64 `yaml:"base" json:"base"`
	CIWeight float64 `yaml:"ci_weight" json:"ci_weight"`
	TauMin   float64 `yaml:"tau_min" json:"tau_min"`
	TauDelta float64 `yaml:"tau_delta" json:"tau_delta"`
	PSBump   float64 `yaml:"ps_bump" json:"ps_bump"`
}

// Migration configures the migration flow.
type Migration struct {
	SrcPS  float64 `yaml:"src_ps" json:"src_ps"`
	DstPS  float64 `yaml:"dst_ps" json:"dst_ps"`
	FlowK  float64 `yaml:"flow_k" json:"flow_k"`
	EALoss float64 `yaml:"ea_loss" json:"ea_loss"`
	EAGain float64 `yaml:"ea_gain" json:"ea_gain"`
}

// OrderWeights weight the Order score terms.
type OrderWeights struct {
	PS        float64 `yaml:"ps" json:"ps"`
	InfraInv  float64 `yaml:"infra_inv" json:"infra_inv"`
	TradeOpen float64 `yaml:"trade_open" json:"trade_open"`
	Ally      float64 `yaml:"ally" json:"ally"`
	Loss      float64 `yaml:"loss" json:"loss"`
	Vol       float64 `yaml:"vol" json:"vol"`
	VolMean   float64 `yaml:"vol_mean" json:"vol_mean"`
	VolStd    float64 `yaml:"vol_std" json:"vol_std"`
}

// InclusionWeights weight the Inclusion score terms.
type InclusionWeights struct {
	WPC       float64 `yaml:"wpc" json:"wpc"`
	WPCMax    float64 `yaml:"wpc_max" json:"wpc_max"`
	Civic     float64 `yaml:"civic" json:"civic"`
	TradeOpen float64 `yaml:"trade_open" json:"trade_open"`
	Rents     float64 `yaml:"rents" json:"rents"`
	Media     float64 `yaml:"media" json:"media"`
	Loss      float64 `yaml:"loss" json:"loss"`
}

// MaxMemoryCap is the largest allowed classifier.memory_cap. Stored
// hysteresis counters never exceed it.
const MaxMemoryCap = 5

// Memory holds the per-type minimum counter needed before the displayed type switches.
type Memory struct {
	Democratic    int `yaml:"democratic" json:"democratic"`
	Authoritarian int `yaml:"authoritarian" json:"authoritarian"`
	Tribal        int `yaml:"tribal" json:"tribal"`
	Anarchic      int `yaml:"anarchic" json:"anarchic"`
}

// Classifier configures the governance state machine.
type Classifier struct {
	Order     OrderWeights     `yaml:"order" json:"order"`
	Inclusion InclusionWeights `yaml:"inclusion" json:"inclusion"`

	HighO    float64 `yaml:"high_o" json:"high_o"`
	HighI    float64 `yaml:"high_i" json:"high_i"`
	TribalO  float64 `yaml:"tribal_o" json:"tribal_o"`
	TribalI  float64 `yaml:"tribal_i" json:"tribal_i"`
	AnarchyO float64 `yaml:"anarchy_o" json:"anarchy_o"`
	AnarchyI float64 `yaml:"anarchy_i" json:"anarchy_i"`

	MemoryCap int    `yaml:"memory_cap" json:"memory_cap"`
	Need      Memory `yaml:"need" json:"need"`

	CIOrder     float64 `yaml:"ci_order" json:"ci_order"`
	CIInclusion float64 `yaml:"ci_inclusion" json:"ci_inclusion"`
	VolWindow   int     `yaml:"vol_window" json:"vol_window"`
}

// Degrade configures attrition and investment.
type Degrade struct {
	InfraInvStep float64 `yaml:"infra_inv_step" json:"infra_inv_step"`
	PSMidpoint   float64 `yaml:"ps_midpoint" json:"ps_midpoint"`
	TAOpenK      float64 `yaml:"ta_open_k" json:"ta_open_k"`
	TASelfK      float64 `yaml:"ta_self_k" json:"ta_self_k"`
	PSDecay      float64 `yaml:"ps_decay" json:"ps_decay"`
	PSMix        float64 `yaml:"ps_mix" json:"ps_mix"`
	PSTarget     float64 `yaml:"ps_target" json:"ps_target"`
}

// Filters are the collapse thresholds.
type Filters struct {
	MinPS      float64 `yaml:"min_ps" json:"min_ps"`
	MinWealth  float64 `yaml:"min_wealth" json:"min_wealth"`
	MinPopLand float64 `yaml:"min_pop_land" json:"min_pop_land"`
}

// Default returns the stock rule set.
func Default() Rules {
	return Rules{
		Regimes: RegimeBounds{Min: 2, Max: 12},
		GlobalsInit: GlobalsInit{
			IR:        0.02,
			Substeps:  2,
			TurnYears: 1.0,
			VolMul:    1.0,
			ShockMul:  1.0,
		},
		Oscillator: Oscillator{
			GG: Signal{Target: 0.0, Sigma: 0.12, Rho: 0.9, Min: -0.8, Max: 0.8},
			IR: Signal{Target: 0.02, Sigma: 0.02, Rho: 0.95, Min: 0.0, Max: 0.15},
			RA: Signal{Target: 0.0, Sigma: 0.15, Rho: 0.9, Min: -0.5, Max: 1.0},
			ES: Signal{Target: 0.0, Sigma: 0.2, Rho: 0.9, Min: -0.5, Max: 1.0},
			TS: Signal{Target: 0.0, Sigma: 0.2, Rho: 0.9, Min: -0.5, Max: 1.0},
			CS: Signal{Target: 0.0, Sigma: 0.2, Rho: 0.9, Min: -0.5, Max: 1.0},
		},
		Generator: Generator{
			LandAlpha:    0.8,
			PopAlpha:     1.3,
			FuelAlpha:    0.9,
			MineralAlpha: 1.0,
			ArableAlpha:  1.1,
			WaterAlpha:   1.0,
			PD:           Range{Min: 0.05, Max: 0.95},
			EA:           Range{Min: 0.2, Max: 0.95},
			TA:           Range{Min: 0.05, Max: 0.95},
			PS:           Range{Min: 0.1, Max: 0.95},
			Risk:         Range{Min: 0, Max: 0.05},
			CivicVoice:   0.4,
			MediaControl: 0.3,
			TypeBands:    TypeBands{Anarchic: 0.3, Democratic: 0.45, Authoritarian: 0.6},
		},
		Market: Market{
			DemandGain:  0.2,
			SupplyGain:  0.15,
			WealthKeep:  0.7,
			CapInvStep:  0.02,
			InvFlowGain: 0.1,
			DecayDur:    0.02,
			DecayPerish: 0.1,
			MinDtYears:  0.25,
		},
		Conflict: Conflict{
			CoefDeficit:     0.3,
			CoefCI:          0.05,
			CIThreshold:     0.6,
			CoefPS:          0.1,
			PMax:            0.25,
			DLSMaxFrac:      0.05,
			DLSFracOfTarget: 0.1,
			PSLossAttacker:  0.02,
			PSLossDefender:  0.05,
			InvHitAttacker:  0.95,
			InvHitDefender:  0.85,
			LossDecay:       0.8,
			RABump:          0.05,
			LogMax:          50,
		},
		Trade: Trade{
			GapThresh:    0.05,
			VolFrac:      0.5,
			Guard:        200,
			MinVolume:    1e-6,
			DoneGap:      0.02,
			InvShare:     0.2,
			EAFrom:       0.01,
			EATo:         0.006,
			FrictionFrom: 0.005,
			FrictionTo:   0.003,
			PSFrom:       0.004,
			PSTo:         0.002,
			OpenFrom:     0.02,
			OpenTo:       0.015,
			TechGain:     0.01,
			RecentMax:    5,
		},
		Alliance: Alliance{
			Base:     0.15,
			CIWeight: 0.3,
			TauMin:   0.02,
			TauDelta: 0.02,
			PSBump:   0.01,
		},
		Migration: Migration{
			SrcPS:  0.3,
			DstPS:  0.6,
			FlowK:  0.1,
			EALoss: 0.05,
			EAGain: 0.03,
		},
		Classifier: Classifier{
			Order: OrderWeights{
				PS: 0.4, InfraInv: 0.15, TradeOpen: 0.15, Ally: 0.1, Loss: -0.15, Vol: -0.1,
				VolMean: 0.25, VolStd: 0.1,
			},
			Inclusion: InclusionWeights{
				WPC: 0.3, WPCMax: 20, Civic: 0.3, TradeOpen: 0.2, Rents: -0.15, Media: -0.15, Loss: -0.1,
			},
			HighO:       0.55,
			HighI:       0.55,
			TribalO:     0.40,
			TribalI:     0.40,
			AnarchyO:    0.25,
			AnarchyI:    0.25,
			MemoryCap:   5,
			Need:        Memory{Democratic: 3, Authoritarian: 2, Tribal: 3, Anarchic: 4},
			CIOrder:     0.6,
			CIInclusion: 0.4,
			VolWindow:   12,
		},
		Degrade: Degrade{
			InfraInvStep: 0.01,
			PSMidpoint:   0.5,
			TAOpenK:      0.002,
			TASelfK:      0.001,
			PSDecay:      0.98,
			PSMix:        0.02,
			PSTarget:     0.5,
		},
		Filters: Filters{
			MinPS:      0.05,
			MinWealth:  0.04,
			MinPopLand: 0.002,
		},
	}
}

// Need returns the minimum counter for a type index (Democratic, Authoritarian, Tribal, aNarchic order).
func (m Memory) Need(i int) int {
	switch i {
	case 0:
		return m.Democratic
	case 1:
		return m.Authoritarian
	case 2:
		return m.Tribal
	default:
		return m.Anarchic
	}
}
