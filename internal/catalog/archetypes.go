package catalog

import "github.com/droughtwatch/droughtwatch-backend/internal/models"

func f(v float64) *float64 { return &v }

// archetypes is the canonical action list: the fifteen classical municipal
// measures plus the extended industrial/statistical set. Impact formulas carry
// a "+N days" clause used by the deterministic parameterization fallback.
var archetypes = []models.ActionArchetype{
	{
		Code:               "WATER_AUDIT",
		Title:              "Industrial water audit",
		HeuristicTag:       "industrial_persistence",
		SPIMax:             f(-0.8),
		ImpactFormula:      "+10 days to critical threshold",
		DefaultUrgencyDays: 14,
		Schema: map[string]models.ParamSpec{
			"audit_coverage_pct": {Kind: models.ParamNumeric, Min: 10, Max: 100, Default: 50.0},
			"sectors":            {Kind: models.ParamEnum, Options: []string{"industrial", "commercial", "all"}, Default: "industrial"},
		},
	},
	{
		Code:               "ENHANCED_MONITORING",
		Title:              "Enhanced hydrological monitoring",
		HeuristicTag:       "industrial_persistence",
		SPIMax:             f(-0.5),
		ImpactFormula:      "+3 days to critical threshold",
		DefaultUrgencyDays: 7,
		Schema: map[string]models.ParamSpec{
			"sampling_per_week": {Kind: models.ParamNumeric, Min: 1, Max: 14, Default: 3.0},
			"telemetry":         {Kind: models.ParamBool, Default: true},
		},
	},
	{
		Code:               "RESOURCE_PREPOSITION",
		Title:              "Preposition response resources",
		HeuristicTag:       "industrial_persistence",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+5 days to critical threshold",
		DefaultUrgencyDays: 21,
		Schema: map[string]models.ParamSpec{
			"staging_sites": {Kind: models.ParamNumeric, Min: 1, Max: 12, Default: 3.0},
		},
	},
	{
		Code:               "PRESSURE_REDUCTION",
		Title:              "Network pressure reduction",
		HeuristicTag:       "pressure_flash",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+6 days to critical threshold",
		DefaultUrgencyDays: 7,
		Schema: map[string]models.ParamSpec{
			"pressure_reduction_pct": {Kind: models.ParamNumeric, Min: 5, Max: 30, Default: 15.0},
			"night_only":             {Kind: models.ParamBool, Default: false},
		},
	},
	{
		Code:               "LEAK_DETECTION",
		Title:              "Accelerated leak detection sweep",
		HeuristicTag:       "pressure_flash",
		SPIMax:             f(-0.8),
		ImpactFormula:      "+8 days to critical threshold",
		DefaultUrgencyDays: 10,
		Schema: map[string]models.ParamSpec{
			"network_coverage_pct": {Kind: models.ParamNumeric, Min: 10, Max: 100, Default: 40.0},
		},
	},
	{
		Code:               "RAPID_RESPONSE_TEAM",
		Title:              "Rapid response repair team",
		HeuristicTag:       "pressure_flash",
		SPIMax:             f(-1.2),
		ImpactFormula:      "+4 days to critical threshold",
		DefaultUrgencyDays: 3,
		Schema: map[string]models.ParamSpec{
			"crews": {Kind: models.ParamNumeric, Min: 1, Max: 10, Default: 2.0},
		},
	},
	{
		Code:               "AWARENESS_CAMPAIGN",
		Title:              "Public awareness campaign",
		HeuristicTag:       "communication_seasonality",
		SPIMax:             f(-0.3),
		ImpactFormula:      "+3 days to critical threshold",
		DefaultUrgencyDays: 7,
		Schema: map[string]models.ParamSpec{
			"channels":  {Kind: models.ParamEnum, Options: []string{"radio", "social", "door_to_door"}, Default: "social"},
			"intensity": {Kind: models.ParamEnum, Options: []string{"low", "medium", "high"}, Default: "medium"},
		},
	},
	{
		Code:               "SCHOOL_PROGRAM",
		Title:              "School conservation program",
		HeuristicTag:       "communication_seasonality",
		SPIMax:             f(-0.5),
		ImpactFormula:      "+2 days to critical threshold",
		DefaultUrgencyDays: 30,
		Schema: map[string]models.ParamSpec{
			"schools": {Kind: models.ParamNumeric, Min: 5, Max: 500, Default: 50.0},
		},
	},
	{
		Code:               "DROUGHT_HOTLINE",
		Title:              "Drought report hotline",
		HeuristicTag:       "communication_seasonality",
		SPIMax:             f(-0.5),
		ImpactFormula:      "+1 days to critical threshold",
		DefaultUrgencyDays: 14,
		Schema: map[string]models.ParamSpec{
			"staffed_hours": {Kind: models.ParamEnum, Options: []string{"business", "extended", "around_the_clock"}, Default: "business"},
		},
	},
	{
		Code:               "LAWN_BAN",
		Title:              "Outdoor irrigation ban",
		HeuristicTag:       "restriction_phenology",
		SPIMax:             f(-1.2),
		ImpactFormula:      "+19 days to critical threshold",
		DefaultUrgencyDays: 5,
		Schema: map[string]models.ParamSpec{
			"exemptions": {Kind: models.ParamEnum, Options: []string{"none", "trees", "sports_fields"}, Default: "trees"},
			"fine_usd":   {Kind: models.ParamNumeric, Min: 50, Max: 1000, Default: 200.0},
		},
	},
	{
		Code:               "CARWASH_RESTRICTION",
		Title:              "Commercial carwash restriction",
		HeuristicTag:       "restriction_phenology",
		SPIMax:             f(-1.2),
		ImpactFormula:      "+4 days to critical threshold",
		DefaultUrgencyDays: 7,
		Schema: map[string]models.ParamSpec{
			"recycled_water_exempt": {Kind: models.ParamBool, Default: true},
		},
	},
	{
		Code:               "POOL_FILL_BAN",
		Title:              "Pool filling ban",
		HeuristicTag:       "restriction_phenology",
		SPIMax:             f(-1.5),
		ImpactFormula:      "+5 days to critical threshold",
		DefaultUrgencyDays: 7,
		Schema: map[string]models.ParamSpec{
			"public_pools_exempt": {Kind: models.ParamBool, Default: false},
		},
	},
	{
		Code:               "FOUNTAIN_SHUTDOWN",
		Title:              "Ornamental fountain shutdown",
		HeuristicTag:       "restriction_phenology",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+2 days to critical threshold",
		DefaultUrgencyDays: 3,
		Schema: map[string]models.ParamSpec{
			"scope": {Kind: models.ParamEnum, Options: []string{"municipal", "all"}, Default: "municipal"},
		},
	},
	{
		Code:               "CROP_IRRIGATION_ALERT",
		Title:              "Critical-window crop irrigation alert",
		HeuristicTag:       "restriction_phenology",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+6 days to critical threshold",
		DefaultUrgencyDays: 5,
		Schema: map[string]models.ParamSpec{
			"crops": {Kind: models.ParamEnum, Options: []string{"maize", "beans", "cotton", "all"}, Default: "all"},
		},
	},
	{
		Code:               "EMERGENCY_WELLS",
		Title:              "Emergency well activation",
		HeuristicTag:       "reallocation_statistical",
		SPIMax:             f(-1.5),
		ImpactFormula:      "+15 days to critical threshold",
		DefaultUrgencyDays: 30,
		Schema: map[string]models.ParamSpec{
			"well_count": {Kind: models.ParamNumeric, Min: 1, Max: 20, Default: 4.0},
		},
	},
	{
		Code:               "WATER_TANKERS",
		Title:              "Water tanker fleet deployment",
		HeuristicTag:       "reallocation_statistical",
		SPIMax:             f(-1.5),
		ImpactFormula:      "+7 days to critical threshold",
		DefaultUrgencyDays: 10,
		Schema: map[string]models.ParamSpec{
			"fleet_size": {Kind: models.ParamNumeric, Min: 2, Max: 50, Default: 10.0},
		},
	},
	{
		Code:               "INTERBASIN_TRANSFER",
		Title:              "Interbasin water transfer",
		HeuristicTag:       "reallocation_statistical",
		SPIMax:             f(-1.8),
		ImpactFormula:      "+30 days to critical threshold",
		DefaultUrgencyDays: 45,
		Schema: map[string]models.ParamSpec{
			"transfer_mcm": {Kind: models.ParamNumeric, Min: 1, Max: 100, Default: 10.0},
		},
	},
	{
		Code:               "PREEMPTIVE_PROCUREMENT",
		Title:              "Preemptive supply procurement",
		HeuristicTag:       "reallocation_statistical",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+12 days to critical threshold",
		DefaultUrgencyDays: 21,
		Schema: map[string]models.ParamSpec{
			"budget_usd": {Kind: models.ParamNumeric, Min: 10000, Max: 5000000, Default: 250000.0},
		},
	},
	{
		Code:               "EMERGENCY_DECLARATION",
		Title:              "Drought emergency declaration",
		HeuristicTag:       "emergency_wet_season",
		SPIMax:             f(-1.5),
		ImpactFormula:      "+20 days to critical threshold",
		DefaultUrgencyDays: 2,
		Schema: map[string]models.ParamSpec{
			"scope": {Kind: models.ParamEnum, Options: []string{"municipal", "state", "federal"}, Default: "municipal"},
		},
	},
	{
		Code:               "SUSTAINED_RESTRICTIONS",
		Title:              "Sustained use restrictions",
		HeuristicTag:       "emergency_wet_season",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+25 days to critical threshold",
		DefaultUrgencyDays: 14,
		Schema: map[string]models.ParamSpec{
			"duration_weeks": {Kind: models.ParamNumeric, Min: 4, Max: 52, Default: 12.0},
		},
	},
	{
		Code:               "PREVENTIVE_CONSERVATION",
		Title:              "Preventive conservation measures",
		HeuristicTag:       "preventive_reservoir",
		SPIMax:             f(-0.8),
		ImpactFormula:      "+8 days to critical threshold",
		DefaultUrgencyDays: 21,
		Schema: map[string]models.ParamSpec{
			"target_reduction_pct": {Kind: models.ParamNumeric, Min: 2, Max: 15, Default: 5.0},
		},
	},
	{
		Code:               "RESERVOIR_HOLD",
		Title:              "Reservoir release reduction",
		HeuristicTag:       "preventive_reservoir",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+10 days to critical threshold",
		DefaultUrgencyDays: 14,
		Schema: map[string]models.ParamSpec{
			"release_reduction_pct": {Kind: models.ParamNumeric, Min: 5, Max: 40, Default: 15.0},
		},
	},
	{
		Code:               "SUPPLY_VALIDATION",
		Title:              "Alternative supply validation",
		HeuristicTag:       "preventive_reservoir",
		SPIMax:             f(-0.8),
		ImpactFormula:      "+3 days to critical threshold",
		DefaultUrgencyDays: 10,
		Schema: map[string]models.ParamSpec{
			"sources_to_validate": {Kind: models.ParamNumeric, Min: 1, Max: 10, Default: 3.0},
		},
	},
	{
		Code:               "PUMPING_RESTRICTION",
		Title:              "Groundwater pumping restriction",
		HeuristicTag:       "critical_groundwater",
		SPIMax:             f(-1.5),
		ImpactFormula:      "+12 days to critical threshold",
		DefaultUrgencyDays: 14,
		Schema: map[string]models.ParamSpec{
			"pumping_reduction_pct": {Kind: models.ParamNumeric, Min: 10, Max: 50, Default: 20.0},
		},
	},
	{
		Code:               "AQUIFER_MONITORING",
		Title:              "Aquifer level monitoring",
		HeuristicTag:       "critical_groundwater",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+4 days to critical threshold",
		DefaultUrgencyDays: 21,
		Schema: map[string]models.ParamSpec{
			"piezometers": {Kind: models.ParamNumeric, Min: 2, Max: 40, Default: 8.0},
		},
	},
	{
		Code:               "FALSE_RECOVERY_ALERT",
		Title:              "False recovery advisory",
		HeuristicTag:       "early_warning_scales",
		SPIMax:             f(-0.3),
		ImpactFormula:      "+2 days to critical threshold",
		DefaultUrgencyDays: 5,
		Schema: map[string]models.ParamSpec{
			"audience": {Kind: models.ParamEnum, Options: []string{"officials", "public", "both"}, Default: "officials"},
		},
	},
	{
		Code:               "MAGNITUDE_RESPONSE",
		Title:              "Graduated magnitude response plan",
		HeuristicTag:       "moderate_magnitude",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+9 days to critical threshold",
		DefaultUrgencyDays: 14,
		Schema: map[string]models.ParamSpec{
			"response_stage": {Kind: models.ParamEnum, Options: []string{"one", "two", "three"}, Default: "one"},
		},
	},
	{
		Code:               "EMERGENCY_SUPPLY",
		Title:              "Emergency supply activation",
		HeuristicTag:       "short_runway_markov",
		SPIMax:             f(-1.2),
		ImpactFormula:      "+14 days to critical threshold",
		DefaultUrgencyDays: 3,
		Schema: map[string]models.ParamSpec{
			"priority_users": {Kind: models.ParamEnum, Options: []string{"hospitals", "residential", "all_critical"}, Default: "all_critical"},
		},
	},
	{
		Code:               "MAINTAIN_MEASURES",
		Title:              "Maintain current measures",
		HeuristicTag:       "stable_severe_whiplash",
		SPIMax:             f(-1.0),
		ImpactFormula:      "+6 days to critical threshold",
		DefaultUrgencyDays: 14,
		Schema: map[string]models.ParamSpec{
			"review_interval_days": {Kind: models.ParamNumeric, Min: 7, Max: 60, Default: 14.0},
		},
	},
	{
		Code:               "CONSERVATION_INCENTIVES",
		Title:              "Conservation incentive program",
		HeuristicTag:       "stable_severe_whiplash",
		SPIMax:             f(-0.8),
		ImpactFormula:      "+7 days to critical threshold",
		DefaultUrgencyDays: 21,
		Schema: map[string]models.ParamSpec{
			"rebate_usd": {Kind: models.ParamNumeric, Min: 10, Max: 500, Default: 100.0},
		},
	},
	{
		Code:               "COC_MANDATE",
		Title:              "Cooling cycles-of-concentration mandate",
		HeuristicTag:       "borderline_cooling",
		SPIMax:             f(-0.8),
		ImpactFormula:      "+11 days to critical threshold",
		DefaultUrgencyDays: 30,
		Schema: map[string]models.ParamSpec{
			"min_cycles_of_concentration": {Kind: models.ParamNumeric, Min: 4, Max: 8, Default: 5.0},
		},
	},
	{
		Code:               "NIGHT_PRESSURE_REDUCTION",
		Title:              "Night-hours pressure reduction",
		HeuristicTag:       "improving_infrastructure",
		SPIMax:             f(-0.5),
		ImpactFormula:      "+5 days to critical threshold",
		DefaultUrgencyDays: 10,
		Schema: map[string]models.ParamSpec{
			"window": {Kind: models.ParamEnum, Options: []string{"22_to_05", "23_to_06", "00_to_05"}, Default: "23_to_06"},
		},
	},
	{
		Code:               "EMERGENCY_ALL_MEASURES",
		Title:              "Full emergency response package",
		HeuristicTag:       "extreme_stepdown",
		SPIMax:             f(-2.0),
		ImpactFormula:      "+35 days to critical threshold",
		DefaultUrgencyDays: 1,
		Schema: map[string]models.ParamSpec{
			"command_center": {Kind: models.ParamBool, Default: true},
		},
	},
	{
		Code:               "PHASED_RELAXATION",
		Title:              "Phased relaxation of restrictions",
		HeuristicTag:       "extreme_stepdown",
		SPIMin:             f(0.0),
		ImpactFormula:      "+0 days to critical threshold",
		DefaultUrgencyDays: 30,
		Schema: map[string]models.ParamSpec{
			"phase": {Kind: models.ParamEnum, Options: []string{"one", "two", "three"}, Default: "one"},
		},
	},
}
