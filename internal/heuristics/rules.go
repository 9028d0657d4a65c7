package heuristics

import (
	"fmt"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

// deficitThresholdMM lets the communication rule fire inside the dry season
// when the absolute shortfall is large enough to matter anyway.
const deficitThresholdMM = 40.0

// allRules returns the registry list. Order matters: it is the tie-break for
// equal priorities. Tags repeat across rules; rule IDs are unique.
func allRules() []Rule {
	return []Rule{
		{ID: "h01_industrial_persistence", Tag: "industrial_persistence", Eval: industrialPersistence},
		{ID: "h02_flash_pressure", Tag: "pressure_flash", Eval: flashPressure},
		{ID: "h03_communication_seasonality", Tag: "communication_seasonality", Eval: communicationSeasonality},
		{ID: "h04_restriction_phenology", Tag: "restriction_phenology", Eval: restrictionPhenology},
		{ID: "h05_reallocation_statistical", Tag: "reallocation_statistical", Eval: reallocationStatistical},
		{ID: "h06_emergency_wet_season", Tag: "emergency_wet_season", Eval: emergencyWetSeason},
		{ID: "h07_preventive_reservoir", Tag: "preventive_reservoir", Eval: preventiveReservoir},
		{ID: "h08_critical_groundwater", Tag: "critical_groundwater", Eval: criticalGroundwater},
		{ID: "h09_early_warning_scales", Tag: "early_warning_scales", Eval: earlyWarningScales},
		{ID: "h10_moderate_urgent", Tag: "moderate_magnitude", Eval: moderateUrgent},
		{ID: "h10_magnitude_rank", Tag: "moderate_magnitude", Eval: magnitudeRank},
		{ID: "h11_short_runway", Tag: "short_runway_markov", Eval: shortRunway},
		{ID: "h11_markov_outlook", Tag: "short_runway_markov", Eval: markovOutlook},
		{ID: "h12_stable_severe", Tag: "stable_severe_whiplash", Eval: stableSevere},
		{ID: "h12_weather_whiplash", Tag: "stable_severe_whiplash", Eval: weatherWhiplash},
		{ID: "h13_borderline_worsening", Tag: "borderline_cooling", Eval: borderlineWorsening},
		{ID: "h13_cooling_longterm", Tag: "borderline_cooling", Eval: coolingLongTerm},
		{ID: "h14_improving_defense", Tag: "improving_infrastructure", Eval: improvingDefense},
		{ID: "h14_infrastructure_strain", Tag: "improving_infrastructure", Eval: infrastructureStrain},
		{ID: "h15_extreme", Tag: "extreme_stepdown", Eval: extremeDrought},
		{ID: "h15_stepdown", Tag: "extreme_stepdown", Eval: stepDown},
	}
}

func industrialPersistence(c *models.DroughtContext) *Result {
	if !below(c.SPI3, -1.0) || c.ConsecutiveDryPeriods < 2 {
		return nil
	}
	return &Result{
		RuleID:      "h01_industrial_persistence",
		Tag:         "industrial_persistence",
		Priority:    priority(c, 35, 0, 10),
		ActionCodes: []string{"WATER_AUDIT", "ENHANCED_MONITORING", "RESOURCE_PREPOSITION"},
		Justification: fmt.Sprintf("SPI-3 at %.2f has stayed below -1.0 for %d consecutive periods; persistent shortfall warrants demand-side audits",
			*c.SPI3, c.ConsecutiveDryPeriods),
	}
}

func flashPressure(c *models.DroughtContext) *Result {
	flash := c.FlashDrought != nil && c.FlashDrought.CategoryDrop >= 2
	window := inRange(c.SPI6, -1.8, -1.2) && c.Trend == models.TrendWorsening && daysIn(c, 30, 45)
	if !flash && !window {
		return nil
	}
	just := "SPI-6 is in the severe band and worsening with a 30-45 day runway; network losses are the fastest lever"
	if flash {
		just = fmt.Sprintf("flash drought: conditions dropped %d categories (%s to %s) within a month",
			c.FlashDrought.CategoryDrop, c.FlashDrought.FromCategory, c.FlashDrought.ToCategory)
	}
	return &Result{
		RuleID:        "h02_flash_pressure",
		Tag:           "pressure_flash",
		Priority:      priority(c, 45, 5, 0),
		ActionCodes:   []string{"PRESSURE_REDUCTION", "LEAK_DETECTION", "RAPID_RESPONSE_TEAM"},
		DefaultParams: map[string]interface{}{"pressure_reduction_pct": 15.0},
		Justification: just,
	}
}

func communicationSeasonality(c *models.DroughtContext) *Result {
	if !below(c.SPI6, -1.0) {
		return nil
	}
	bigDeficit := c.AbsoluteDeficitMM != nil && *c.AbsoluteDeficitMM > deficitThresholdMM
	if c.IsDrySeason && !bigDeficit {
		return nil
	}
	return &Result{
		RuleID:      "h03_communication_seasonality",
		Tag:         "communication_seasonality",
		Priority:    priority(c, 25, 10, 0),
		ActionCodes: []string{"AWARENESS_CAMPAIGN", "SCHOOL_PROGRAM", "DROUGHT_HOTLINE"},
		Justification: fmt.Sprintf("SPI-6 at %.2f outside the expected seasonal dry window; public communication reduces discretionary use early",
			*c.SPI6),
	}
}

func restrictionPhenology(c *models.DroughtContext) *Result {
	urgent := atMost(c.SPI6, -1.8) && daysUnder(c, 30) && c.Trend == models.TrendWorsening
	cropWindow := c.IsCriticalWindow && (below(c.SPI3, -1.5) || below(c.SPI6, -1.5))
	if !urgent && !cropWindow {
		return nil
	}
	just := "severe SPI with under 30 days of runway and a worsening trend; outdoor restrictions buy the most days"
	if cropWindow {
		just = fmt.Sprintf("drought overlaps a critical phenological window (crops: %v); restrictions protect irrigation priority",
			c.CropsAffected)
	}
	return &Result{
		RuleID:   "h04_restriction_phenology",
		Tag:      "restriction_phenology",
		Priority: priority(c, 50, 10, 0),
		ActionCodes: []string{
			"LAWN_BAN", "CARWASH_RESTRICTION", "POOL_FILL_BAN", "FOUNTAIN_SHUTDOWN", "CROP_IRRIGATION_ALERT",
		},
		DefaultParams: map[string]interface{}{"exemptions": "trees"},
		Justification: just,
	}
}

func reallocationStatistical(c *models.DroughtContext) *Result {
	critical := atMost(c.SPI6, -2.0) && daysIn(c, 15, 30)
	trending := c.SenSlopePerMonth != nil && *c.SenSlopePerMonth <= -0.1 &&
		c.MKConfidencePct != nil && *c.MKConfidencePct >= 90 &&
		c.MKDirection == "decreasing"
	if !critical && !trending {
		return nil
	}
	just := "SPI-6 at or below -2.0 with a 15-30 day runway; supply reallocation is required"
	if !critical {
		just = fmt.Sprintf("Mann-Kendall confirms a decreasing trend at %.0f%% confidence (Sen slope %.2f/month); procure supply before the decline lands",
			*c.MKConfidencePct, *c.SenSlopePerMonth)
	}
	return &Result{
		RuleID:      "h05_reallocation_statistical",
		Tag:         "reallocation_statistical",
		Priority:    priority(c, 55, 5, 5),
		ActionCodes: []string{"EMERGENCY_WELLS", "WATER_TANKERS", "INTERBASIN_TRANSFER", "PREEMPTIVE_PROCUREMENT"},
		Justification: just,
	}
}

func emergencyWetSeason(c *models.DroughtContext) *Result {
	if !c.RapidDeterioration && !c.WetSeasonLocked {
		return nil
	}
	just := "SPI is deteriorating rapidly between assessments"
	if c.WetSeasonLocked {
		just = "the last wet season failed to recharge; no natural relief expected before the next one"
	}
	return &Result{
		RuleID:        "h06_emergency_wet_season",
		Tag:           "emergency_wet_season",
		Priority:      priority(c, 50, 10, 0),
		ActionCodes:   []string{"EMERGENCY_DECLARATION", "SUSTAINED_RESTRICTIONS"},
		Justification: just,
	}
}

func preventiveReservoir(c *models.DroughtContext) *Result {
	stable := inRange(c.SPI6, -1.5, -1.0) && c.Trend == models.TrendStable && daysIn(c, 30, 50)
	greenMask := c.SPI6 != nil && c.SPI12 != nil && *c.SPI6 > *c.SPI12 && *c.SPI12 < -1.0
	lowStorage := below(c.ReservoirStoragePct, 60)
	if !stable && !greenMask && !lowStorage {
		return nil
	}
	just := "moderate drought holding stable with a month of runway; preventive measures are cheap now"
	switch {
	case lowStorage:
		just = fmt.Sprintf("reservoir storage at %.0f%% of capacity; hold releases while conditions allow", *c.ReservoirStoragePct)
	case greenMask:
		just = "short-scale recovery masks a persistent 12-month deficit; validate supply before relaxing"
	}
	return &Result{
		RuleID:        "h07_preventive_reservoir",
		Tag:           "preventive_reservoir",
		Priority:      priority(c, 30, 5, 0),
		ActionCodes:   []string{"PREVENTIVE_CONSERVATION", "RESERVOIR_HOLD", "SUPPLY_VALIDATION"},
		Justification: just,
	}
}

func criticalGroundwater(c *models.DroughtContext) *Result {
	approaching := inRange(c.SPI6, -1.85, -1.5) && c.Trend == models.TrendWorsening && daysUnder(c, 35)
	longDeficit := below(c.SPI24, -1.5) || below(c.SPI48, -1.5)
	if !approaching && !longDeficit {
		return nil
	}
	just := "SPI-6 approaching the critical threshold under a worsening trend"
	if longDeficit {
		just = "multi-year SPI below -1.5: the aquifer has been carrying the deficit and needs protection"
	}
	return &Result{
		RuleID:        "h08_critical_groundwater",
		Tag:           "critical_groundwater",
		Priority:      priority(c, 40, 0, 5),
		ActionCodes:   []string{"PUMPING_RESTRICTION", "AQUIFER_MONITORING"},
		Justification: just,
	}
}

func earlyWarningScales(c *models.DroughtContext) *Result {
	early := inRange(c.SPI6, -0.8, -0.3) && c.Trend == models.TrendWorsening
	if !early && !c.FalseRecovery {
		return nil
	}
	just := "mild but worsening conditions; early messaging is the lowest-cost intervention"
	if c.FalseRecovery {
		just = "recent rain improved short-scale SPI while the annual deficit persists; flag the apparent recovery as false"
	}
	return &Result{
		RuleID:        "h09_early_warning_scales",
		Tag:           "early_warning_scales",
		Priority:      priority(c, 20, 5, 0),
		ActionCodes:   []string{"AWARENESS_CAMPAIGN", "FALSE_RECOVERY_ALERT"},
		Justification: just,
	}
}

func moderateUrgent(c *models.DroughtContext) *Result {
	if !inRange(c.SPI6, -1.5, -1.0) || c.Trend != models.TrendWorsening || !daysIn(c, 15, 55) {
		return nil
	}
	return &Result{
		RuleID:      "h10_moderate_urgent",
		Tag:         "moderate_magnitude",
		Priority:    priority(c, 40, 5, 0),
		ActionCodes: []string{"AWARENESS_CAMPAIGN", "MAGNITUDE_RESPONSE"},
		Justification: fmt.Sprintf("moderate drought (SPI-6 %.2f) worsening with %d days of runway",
			*c.SPI6, *c.DaysToCritical),
	}
}

func magnitudeRank(c *models.DroughtContext) *Result {
	if c.Magnitude == nil || c.Magnitude.Percentile < 50 {
		return nil
	}
	return &Result{
		RuleID:      "h10_magnitude_rank",
		Tag:         "moderate_magnitude",
		Priority:    priority(c, 35, 5, 0),
		ActionCodes: []string{"AWARENESS_CAMPAIGN", "MAGNITUDE_RESPONSE"},
		Justification: fmt.Sprintf("accumulated event magnitude %.1f ranks at the %.0fth percentile of the zone's history (%s)",
			c.Magnitude.Value, c.Magnitude.Percentile, c.Magnitude.SeverityTier),
	}
}

func shortRunway(c *models.DroughtContext) *Result {
	if !below(c.SPI6, -1.2) || !daysUnder(c, 25) || c.Trend != models.TrendWorsening {
		return nil
	}
	return &Result{
		RuleID:      "h11_short_runway",
		Tag:         "short_runway_markov",
		Priority:    priority(c, 55, 5, 5),
		ActionCodes: []string{"EMERGENCY_SUPPLY", "PREEMPTIVE_PROCUREMENT"},
		Justification: fmt.Sprintf("under %d days until critical while worsening; emergency supply must activate now",
			*c.DaysToCritical),
	}
}

func markovOutlook(c *models.DroughtContext) *Result {
	if c.Markov == nil || c.Markov.ProbToSevere <= 0.60 {
		return nil
	}
	return &Result{
		RuleID:      "h11_markov_outlook",
		Tag:         "short_runway_markov",
		Priority:    priority(c, 45, 5, 5),
		ActionCodes: []string{"EMERGENCY_SUPPLY", "PREEMPTIVE_PROCUREMENT"},
		Justification: fmt.Sprintf("transition model gives %.0f%% probability of reaching severe drought within three months from the %s state",
			c.Markov.ProbToSevere*100, c.Markov.CurrentState),
	}
}

func stableSevere(c *models.DroughtContext) *Result {
	if !inRange(c.SPI6, -2.0, -1.2) || c.Trend != models.TrendStable {
		return nil
	}
	return &Result{
		RuleID:      "h12_stable_severe",
		Tag:         "stable_severe_whiplash",
		Priority:    priority(c, 35, 0, 0),
		ActionCodes: []string{"MAINTAIN_MEASURES", "CONSERVATION_INCENTIVES"},
		Justification: fmt.Sprintf("severe drought (SPI-6 %.2f) holding stable; keep current measures and incentivize structural savings",
			*c.SPI6),
	}
}

func weatherWhiplash(c *models.DroughtContext) *Result {
	if !c.WeatherWhiplash || c.MonthsSinceWet == nil || *c.MonthsSinceWet >= 12 {
		return nil
	}
	return &Result{
		RuleID:      "h12_weather_whiplash",
		Tag:         "stable_severe_whiplash",
		Priority:    priority(c, 35, 0, 0),
		ActionCodes: []string{"MAINTAIN_MEASURES", "CONSERVATION_INCENTIVES"},
		Justification: fmt.Sprintf("swing from wet to severe dry within %d months; volatile regime argues for keeping measures in place",
			*c.MonthsSinceWet),
	}
}

func borderlineWorsening(c *models.DroughtContext) *Result {
	if !inRange(c.SPI6, -1.2, -0.8) || c.Trend != models.TrendWorsening || !daysIn(c, 20, 70) {
		return nil
	}
	return &Result{
		RuleID:      "h13_borderline_worsening",
		Tag:         "borderline_cooling",
		Priority:    priority(c, 25, 0, 10),
		ActionCodes: []string{"WATER_AUDIT", "COC_MANDATE"},
		Justification: "borderline drought worsening slowly; industrial efficiency gains are available before restrictions bite",
	}
}

func coolingLongTerm(c *models.DroughtContext) *Result {
	if !below(c.SPI12, -1.5) {
		return nil
	}
	return &Result{
		RuleID:      "h13_cooling_longterm",
		Tag:         "borderline_cooling",
		Priority:    priority(c, 30, 0, 10),
		ActionCodes: []string{"WATER_AUDIT", "COC_MANDATE"},
		Justification: fmt.Sprintf("12-month SPI at %.2f; cooling-water concentration mandates address the structural deficit",
			*c.SPI12),
	}
}

func improvingDefense(c *models.DroughtContext) *Result {
	if !inRange(c.SPI6, -1.5, -0.5) || c.Trend != models.TrendImproving {
		return nil
	}
	return &Result{
		RuleID:      "h14_improving_defense",
		Tag:         "improving_infrastructure",
		Priority:    priority(c, 15, 5, 0),
		ActionCodes: []string{"AWARENESS_CAMPAIGN", "NIGHT_PRESSURE_REDUCTION"},
		Justification: "conditions improving but still in deficit; low-impact measures prevent a relapse while memory is fresh",
	}
}

func infrastructureStrain(c *models.DroughtContext) *Result {
	strained := c.DemandCapacityRatio != nil && *c.DemandCapacityRatio > 0.90
	if !below(c.SPI24, -2.0) || !strained {
		return nil
	}
	return &Result{
		RuleID:      "h14_infrastructure_strain",
		Tag:         "improving_infrastructure",
		Priority:    priority(c, 40, 5, 5),
		ActionCodes: []string{"AWARENESS_CAMPAIGN", "NIGHT_PRESSURE_REDUCTION"},
		Justification: fmt.Sprintf("two-year SPI below -2.0 with demand at %.0f%% of capacity; the network has no slack left",
			*c.DemandCapacityRatio*100),
	}
}

func extremeDrought(c *models.DroughtContext) *Result {
	if !atMost(c.SPI6, -2.0) {
		return nil
	}
	return &Result{
		RuleID:      "h15_extreme",
		Tag:         "extreme_stepdown",
		Priority:    priority(c, 60, 5, 5),
		ActionCodes: []string{"EMERGENCY_ALL_MEASURES"},
		Justification: fmt.Sprintf("extreme drought: SPI-6 at %.2f is at or below the critical threshold; all measures activate",
			*c.SPI6),
	}
}

func stepDown(c *models.DroughtContext) *Result {
	if c.AllScalesPositiveMonths < 2 {
		return nil
	}
	return &Result{
		RuleID:      "h15_stepdown",
		Tag:         "extreme_stepdown",
		Priority:    priority(c, 10, 5, 0),
		ActionCodes: []string{"PHASED_RELAXATION"},
		Justification: fmt.Sprintf("all accumulation scales positive for %d consecutive months; restrictions can be stepped down in phases",
			c.AllScalesPositiveMonths),
	}
}
