package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

func f(v float64) *float64 { return &v }
func d(v int) *int         { return &v }

// cdmxCrisis models a severe, worsening urban drought overlapping the maize
// flowering window with a recent flash intensification.
func cdmxCrisis() *models.DroughtContext {
	return &models.DroughtContext{
		ZoneSlug:       "cdmx",
		Profile:        models.ProfileGovernment,
		SPI3:           f(-1.55),
		SPI6:           f(-1.72),
		SPI12:          f(-1.10),
		RiskLevel:      models.RiskCritical,
		Trend:          models.TrendWorsening,
		DaysToCritical: d(24),
		FlashDrought: &models.FlashDroughtInfo{
			FromCategory: models.StateMild,
			ToCategory:   models.StateSevere,
			CategoryDrop: 2,
		},
		IsCriticalWindow:   true,
		CropsAffected:      []string{"maize"},
		Stages:             []string{"flowering"},
		SeverityMultiplier: 1.8,
		AbsoluteDeficitMM:  f(55),
		IsDrySeason:        false,
	}
}

func TestEvaluateCDMXCrisis(t *testing.T) {
	registry := NewRegistry(nil)
	results := registry.Evaluate(cdmxCrisis())
	require.NotEmpty(t, results)

	activated := make(map[string]bool)
	for _, r := range results {
		activated[r.RuleID] = true
	}
	assert.True(t, activated["h02_flash_pressure"], "flash drought must trigger pressure response")
	assert.True(t, activated["h03_communication_seasonality"])
	assert.True(t, activated["h04_restriction_phenology"], "crop window with severe SPI must trigger restrictions")

	codes := make(map[string]bool)
	for _, r := range results {
		for _, c := range r.ActionCodes {
			codes[c] = true
		}
	}
	assert.True(t, codes["PRESSURE_REDUCTION"])
	assert.True(t, codes["LAWN_BAN"])
	assert.True(t, codes["AWARENESS_CAMPAIGN"])
}

func TestEvaluateSortsByPriorityDescending(t *testing.T) {
	registry := NewRegistry(nil)
	results := registry.Evaluate(cdmxCrisis())
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Priority, results[i].Priority)
	}
}

func TestEvaluateQuietContext(t *testing.T) {
	registry := NewRegistry(nil)
	quiet := &models.DroughtContext{
		ZoneSlug:  "cdmx",
		Profile:   models.ProfileGovernment,
		SPI6:      f(0.4),
		RiskLevel: models.RiskLow,
		Trend:     models.TrendStable,
	}
	assert.Empty(t, registry.Evaluate(quiet))
}

func TestExtremeRuleFiresAtThreshold(t *testing.T) {
	registry := NewRegistry(nil)
	c := &models.DroughtContext{
		ZoneSlug:  "monterrey",
		Profile:   models.ProfileIndustry,
		SPI6:      f(-2.0),
		RiskLevel: models.RiskCritical,
		Trend:     models.TrendWorsening,
	}
	results := registry.Evaluate(c)
	var found *Result
	for i := range results {
		if results[i].RuleID == "h15_extreme" {
			found = &results[i]
		}
	}
	require.NotNil(t, found, "SPI-6 at -2.0 must activate the extreme rule")
	assert.Equal(t, []string{"EMERGENCY_ALL_MEASURES"}, found.ActionCodes)
}

func TestStepDownRequiresSustainedRecovery(t *testing.T) {
	registry := NewRegistry(nil)
	c := &models.DroughtContext{
		ZoneSlug:                "texas",
		Profile:                 models.ProfileGovernment,
		SPI6:                    f(0.6),
		RiskLevel:               models.RiskLow,
		Trend:                   models.TrendImproving,
		AllScalesPositiveMonths: 3,
	}
	results := registry.Evaluate(c)
	require.Len(t, results, 1)
	assert.Equal(t, "h15_stepdown", results[0].RuleID)
	assert.Equal(t, []string{"PHASED_RELAXATION"}, results[0].ActionCodes)

	c.AllScalesPositiveMonths = 1
	assert.Empty(t, registry.Evaluate(c))
}

func TestResolveClaimsCodeForStrongestRule(t *testing.T) {
	results := []Result{
		{RuleID: "a", Priority: 80, ActionCodes: []string{"AWARENESS_CAMPAIGN", "MAGNITUDE_RESPONSE"}},
		{RuleID: "b", Priority: 60, ActionCodes: []string{"AWARENESS_CAMPAIGN", "SCHOOL_PROGRAM"}},
	}
	recs := Resolve(results)
	require.Len(t, recs, 3)

	byCode := make(map[string]Recommendation)
	for _, r := range recs {
		byCode[r.ActionCode] = r
	}
	assert.Equal(t, "a", byCode["AWARENESS_CAMPAIGN"].RuleID)
	assert.Equal(t, "a", byCode["MAGNITUDE_RESPONSE"].RuleID)
	assert.Equal(t, "b", byCode["SCHOOL_PROGRAM"].RuleID)
}

func TestPriorityClampedToHundred(t *testing.T) {
	c := &models.DroughtContext{
		Profile:        models.ProfileGovernment,
		SPI6:           f(-3.5),
		Trend:          models.TrendWorsening,
		DaysToCritical: d(5),
	}
	p := priority(c, 60, 10, 0)
	assert.Equal(t, 100.0, p)
}

func TestPriorityComponents(t *testing.T) {
	c := &models.DroughtContext{
		Profile:        models.ProfileIndustry,
		SPI6:           f(-1.72),
		Trend:          models.TrendWorsening,
		DaysToCritical: d(24),
	}
	// base 35 + severity 17.2 + trend 10 + urgency 10 + industry 10 = 82.2
	assert.InDelta(t, 82.2, priority(c, 35, 0, 10), 1e-9)
}

func TestNilSafeAccessors(t *testing.T) {
	empty := &models.DroughtContext{Trend: models.TrendStable}
	assert.False(t, below(empty.SPI6, -1.0))
	assert.False(t, inRange(empty.SPI3, -2, -1))
	assert.False(t, daysUnder(empty, 30))
	assert.False(t, daysIn(empty, 0, 100))
}
