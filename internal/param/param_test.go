package param

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droughtwatch/droughtwatch-backend/internal/catalog"
	"github.com/droughtwatch/droughtwatch-backend/internal/heuristics"
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

func worseningContext() *models.DroughtContext {
	spi6 := -1.72
	return &models.DroughtContext{
		ZoneSlug: "cdmx",
		Profile:  models.ProfileGovernment,
		SPI6:     &spi6,
		Trend:    models.TrendWorsening,
	}
}

func pressureRec() heuristics.Recommendation {
	return heuristics.Recommendation{
		ActionCode:    "PRESSURE_REDUCTION",
		RuleID:        "h02_flash_pressure",
		Priority:      72,
		Justification: "network losses are the fastest lever",
	}
}

func TestFallbackDeterministicWorsening(t *testing.T) {
	p := New(nil, nil)
	inst := p.Parameterize(context.Background(), worseningContext(), pressureRec())

	assert.Equal(t, models.MethodFallback, inst.Method)
	assert.Equal(t, "PRESSURE_REDUCTION", inst.ArchetypeCode)
	// Range [5, 30] at the 75th percentile is 23.75, rounded to int 24.
	assert.Equal(t, 24, inst.Parameters["pressure_reduction_pct"])
	assert.Equal(t, true, inst.Parameters["night_only"])
	assert.Equal(t, 6.0, inst.Effect.DaysGained)
	assert.Equal(t, "low", inst.Effect.Confidence)
	assert.Equal(t, "network losses are the fastest lever", inst.Justification)
}

func TestFallbackIdenticalAcrossRuns(t *testing.T) {
	p := New(nil, nil)
	first := p.Parameterize(context.Background(), worseningContext(), pressureRec())
	second := p.Parameterize(context.Background(), worseningContext(), pressureRec())
	assert.True(t, reflect.DeepEqual(first.Parameters, second.Parameters))
	assert.Equal(t, first.Effect, second.Effect)
}

func TestFallbackTrendPercentiles(t *testing.T) {
	arch, err := catalog.ByCode("PRESSURE_REDUCTION")
	require.NoError(t, err)

	worse := fallbackParams(arch.Schema, models.TrendWorsening)
	stable := fallbackParams(arch.Schema, models.TrendStable)
	improving := fallbackParams(arch.Schema, models.TrendImproving)

	assert.Equal(t, 24, worse["pressure_reduction_pct"])
	assert.Equal(t, 18, stable["pressure_reduction_pct"]) // 5 + 25*0.50 = 17.5 -> 18
	assert.Equal(t, 11, improving["pressure_reduction_pct"])

	assert.Equal(t, true, worse["night_only"])
	assert.Equal(t, false, stable["night_only"])
	assert.Equal(t, false, improving["night_only"])
}

func TestFallbackEnumSelection(t *testing.T) {
	arch, err := catalog.ByCode("LAWN_BAN")
	require.NoError(t, err)
	spec := arch.Schema["exemptions"]
	require.Equal(t, models.ParamEnum, spec.Kind)

	assert.Equal(t, spec.Options[len(spec.Options)-1], fallbackValue(spec, models.TrendWorsening))
	assert.Equal(t, spec.Options[len(spec.Options)/2], fallbackValue(spec, models.TrendStable))
	assert.Equal(t, spec.Options[0], fallbackValue(spec, models.TrendImproving))
}

func TestAIResponseClamping(t *testing.T) {
	complete := func(ctx context.Context, system, user string) (string, error) {
		return `{"parameters":{"pressure_reduction_pct":95,"night_only":"yes"},` +
			`"justification":"cut pressure hard overnight",` +
			`"expected_effect":{"days_gained":8,"confidence":"medium"}}`, nil
	}
	p := New(complete, nil)
	inst := p.Parameterize(context.Background(), worseningContext(), pressureRec())

	assert.Equal(t, models.MethodAI, inst.Method)
	// 95 is clamped to the schema max of 30.
	assert.Equal(t, 30, inst.Parameters["pressure_reduction_pct"])
	// Non-boolean input falls back to the schema default.
	assert.Equal(t, false, inst.Parameters["night_only"])
	assert.Equal(t, 8.0, inst.Effect.DaysGained)
	assert.Equal(t, "medium", inst.Effect.Confidence)
	assert.Equal(t, "cut pressure hard overnight", inst.Justification)
}

func TestAIResponseWithFences(t *testing.T) {
	complete := func(ctx context.Context, system, user string) (string, error) {
		return "```json\n{\"parameters\":{\"pressure_reduction_pct\":20},\"justification\":\"ok\"," +
			"\"expected_effect\":{\"days_gained\":5,\"confidence\":\"high\"}}\n```", nil
	}
	p := New(complete, nil)
	inst := p.Parameterize(context.Background(), worseningContext(), pressureRec())
	assert.Equal(t, models.MethodAI, inst.Method)
	assert.Equal(t, 20, inst.Parameters["pressure_reduction_pct"])
}

func TestAIFailureFallsBack(t *testing.T) {
	complete := func(ctx context.Context, system, user string) (string, error) {
		return "", errors.New("upstream unavailable")
	}
	p := New(complete, nil)
	inst := p.Parameterize(context.Background(), worseningContext(), pressureRec())
	assert.Equal(t, models.MethodFallback, inst.Method)
	assert.Equal(t, 24, inst.Parameters["pressure_reduction_pct"])
}

func TestAIGarbageFallsBack(t *testing.T) {
	complete := func(ctx context.Context, system, user string) (string, error) {
		return "sorry, I cannot help with that", nil
	}
	p := New(complete, nil)
	inst := p.Parameterize(context.Background(), worseningContext(), pressureRec())
	assert.Equal(t, models.MethodFallback, inst.Method)
}

func TestAIInvalidEffectUsesFormula(t *testing.T) {
	complete := func(ctx context.Context, system, user string) (string, error) {
		return `{"parameters":{},"justification":"x","expected_effect":{"days_gained":-3,"confidence":"certain"}}`, nil
	}
	p := New(complete, nil)
	inst := p.Parameterize(context.Background(), worseningContext(), pressureRec())
	assert.Equal(t, models.MethodAI, inst.Method)
	assert.Equal(t, 6.0, inst.Effect.DaysGained)
	assert.Equal(t, "low", inst.Effect.Confidence)
}

func TestUnknownArchetypeFilteredFromBatch(t *testing.T) {
	p := New(nil, nil)
	recs := []heuristics.Recommendation{
		pressureRec(),
		{ActionCode: "NOT_A_REAL_ACTION", RuleID: "x", Priority: 10},
	}
	out := p.Batch(context.Background(), worseningContext(), recs)
	require.Len(t, out, 1)
	assert.Equal(t, "PRESSURE_REDUCTION", out[0].ArchetypeCode)
}

func TestBatchKeepsOrder(t *testing.T) {
	p := New(nil, nil)
	recs := []heuristics.Recommendation{
		{ActionCode: "LAWN_BAN", RuleID: "h04_restriction_phenology", Priority: 90, Justification: "a"},
		{ActionCode: "PRESSURE_REDUCTION", RuleID: "h02_flash_pressure", Priority: 72, Justification: "b"},
		{ActionCode: "AWARENESS_CAMPAIGN", RuleID: "h03_communication_seasonality", Priority: 55, Justification: "c"},
	}
	out := p.Batch(context.Background(), worseningContext(), recs)
	require.Len(t, out, 3)
	assert.Equal(t, "LAWN_BAN", out[0].ArchetypeCode)
	assert.Equal(t, "PRESSURE_REDUCTION", out[1].ArchetypeCode)
	assert.Equal(t, "AWARENESS_CAMPAIGN", out[2].ArchetypeCode)
}

func TestClampValueCoercions(t *testing.T) {
	spec := models.ParamSpec{Kind: models.ParamNumeric, Min: 5, Max: 30}
	assert.Equal(t, 5, clampValue(spec, -10, models.TrendStable))
	assert.Equal(t, 30, clampValue(spec, 1000.0, models.TrendStable))
	assert.Equal(t, 12, clampValue(spec, "12.4", models.TrendStable))
	// Unparseable input falls back to the trend percentile.
	assert.Equal(t, 18, clampValue(spec, "a lot", models.TrendStable))

	frac := models.ParamSpec{Kind: models.ParamNumeric, Min: 0, Max: 1.5}
	assert.Equal(t, 0.9, clampValue(frac, 0.9, models.TrendStable))
}
