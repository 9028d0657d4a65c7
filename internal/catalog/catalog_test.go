package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
)

func TestByCode(t *testing.T) {
	a, err := ByCode("LAWN_BAN")
	require.NoError(t, err)
	assert.Equal(t, "restriction_phenology", a.HeuristicTag)
	assert.Equal(t, 5, a.DefaultUrgencyDays)
	assert.Contains(t, a.ImpactFormula, "+19 days")

	_, err = ByCode("NOT_A_CODE")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestByTag(t *testing.T) {
	pressure := ByTag("pressure_flash")
	require.NotEmpty(t, pressure)
	codes := make(map[string]bool)
	for _, a := range pressure {
		codes[a.Code] = true
	}
	assert.True(t, codes["PRESSURE_REDUCTION"])
	assert.True(t, codes["LEAK_DETECTION"])

	assert.Empty(t, ByTag("no_such_tag"))
}

func TestEveryRuleTagHasArchetypes(t *testing.T) {
	tags := []string{
		"industrial_persistence", "pressure_flash", "communication_seasonality",
		"restriction_phenology", "reallocation_statistical", "emergency_wet_season",
		"preventive_reservoir", "critical_groundwater", "early_warning_scales",
		"moderate_magnitude", "short_runway_markov", "stable_severe_whiplash",
		"borderline_cooling", "improving_infrastructure", "extreme_stepdown",
	}
	for _, tag := range tags {
		assert.NotEmpty(t, ByTag(tag), "tag %s has no archetypes", tag)
	}
}

func TestApplicableAtHonorsOpenBounds(t *testing.T) {
	// EMERGENCY_ALL_MEASURES only applies at or below -2.0.
	found := false
	for _, a := range ApplicableAt(-2.5) {
		if a.Code == "EMERGENCY_ALL_MEASURES" {
			found = true
		}
	}
	assert.True(t, found)

	for _, a := range ApplicableAt(-1.0) {
		assert.NotEqual(t, "EMERGENCY_ALL_MEASURES", a.Code)
	}

	// PHASED_RELAXATION has a lower bound at 0 and no upper bound.
	found = false
	for _, a := range ApplicableAt(1.8) {
		if a.Code == "PHASED_RELAXATION" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSchemasAreWellFormed(t *testing.T) {
	for _, a := range All() {
		assert.NotEmpty(t, a.Code)
		assert.NotEmpty(t, a.Title)
		assert.NotEmpty(t, a.HeuristicTag)
		assert.Positive(t, a.DefaultUrgencyDays)
		for name, spec := range a.Schema {
			switch spec.Kind {
			case models.ParamNumeric:
				assert.Less(t, spec.Min, spec.Max, "%s.%s", a.Code, name)
			case models.ParamEnum:
				assert.NotEmpty(t, spec.Options, "%s.%s", a.Code, name)
			case models.ParamBool:
			default:
				t.Errorf("%s.%s has unknown kind %q", a.Code, name, spec.Kind)
			}
		}
	}
}
