package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

func TestBasicTrend(t *testing.T) {
	assert.Equal(t, models.TrendStable, BasicTrend(nil))
	assert.Equal(t, models.TrendStable, BasicTrend([]float64{-1.0}))
	assert.Equal(t, models.TrendImproving, BasicTrend([]float64{-1.5, -1.2}))
	assert.Equal(t, models.TrendWorsening, BasicTrend([]float64{-1.2, -1.5}))
	// Exactly representable deltas straddling the strict 0.1 threshold.
	assert.Equal(t, models.TrendStable, BasicTrend([]float64{-1.0, -1.0625}))
	assert.Equal(t, models.TrendWorsening, BasicTrend([]float64{-1.0, -1.125}))
	assert.Equal(t, models.TrendImproving, BasicTrend([]float64{-1.125, -1.0}))
}

func TestRapidDeterioration(t *testing.T) {
	assert.True(t, RapidDeterioration([]float64{-1.0, -1.3}))
	assert.False(t, RapidDeterioration([]float64{-1.0, -1.1}))
	assert.False(t, RapidDeterioration([]float64{0.5, -0.2}))
	assert.False(t, RapidDeterioration([]float64{-1.3, -1.0}))
}

func TestConsecutiveBelow(t *testing.T) {
	series := []float64{-0.5, -1.2, -1.5, -1.1}
	assert.Equal(t, 3, ConsecutiveBelow(series, -1.0))
	assert.Equal(t, 0, ConsecutiveBelow(series, -1.5))
	assert.Equal(t, 0, ConsecutiveBelow(nil, -1.0))
}

func TestMannKendallDirections(t *testing.T) {
	decreasing := []float64{0.5, 0.2, -0.1, -0.5, -0.9, -1.2, -1.6, -2.0}
	res, err := MannKendall(decreasing)
	require.NoError(t, err)
	assert.Equal(t, MKDecreasing, res.Direction)
	assert.Negative(t, res.S)
	assert.Negative(t, res.SenSlope)

	// Reversing the series negates S and flips the direction.
	increasing := make([]float64, len(decreasing))
	for i, v := range decreasing {
		increasing[len(decreasing)-1-i] = v
	}
	rev, err := MannKendall(increasing)
	require.NoError(t, err)
	assert.Equal(t, -res.S, rev.S)
	assert.Equal(t, MKIncreasing, rev.Direction)
	assert.InDelta(t, -res.SenSlope, rev.SenSlope, 1e-12)
}

func TestMannKendallTooShort(t *testing.T) {
	_, err := MannKendall([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestFlashSlopeDetected(t *testing.T) {
	assert.True(t, FlashSlopeDetected([]float64{0, -0.2, -0.5, -0.8, -1.2, -1.7}))
	assert.False(t, FlashSlopeDetected([]float64{-1.0, -1.05, -1.1, -1.15}))
	assert.False(t, FlashSlopeDetected([]float64{-1.0, -2.0}))
}

func TestStateFromSPIBoundaries(t *testing.T) {
	assert.Equal(t, models.StateNormal, StateFromSPI(0))
	assert.Equal(t, models.StateMild, StateFromSPI(-0.5))
	assert.Equal(t, models.StateModerate, StateFromSPI(-1.0))
	assert.Equal(t, models.StateSevere, StateFromSPI(-1.5))
	assert.Equal(t, models.StateExtreme, StateFromSPI(-2.0))
}

func TestFitMarkovRowsSumToOne(t *testing.T) {
	series := []float64{0.3, -0.2, -0.7, -1.1, -1.6, -2.1, -1.8, -1.2, -0.6, 0.1, -0.4, -0.9, -1.4, -1.9, -1.3}
	m, err := FitMarkov(series)
	require.NoError(t, err)
	for _, state := range []string{models.StateNormal, models.StateMild, models.StateModerate, models.StateSevere, models.StateExtreme} {
		row := m.Row(state)
		sum := 0.0
		for _, p := range row {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "row %s", state)
	}
}

func TestMarkovProbWorsening(t *testing.T) {
	// Deterministic worsening chain: each month drops one state.
	series := []float64{0.3, -0.7, -1.2, -1.7, -2.2}
	m, err := FitMarkov(series)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.ProbWorsening(models.StateModerate, 1), 1e-9)
	// Extreme has no worse state to transition to.
	assert.InDelta(t, 0.0, m.ProbWorsening(models.StateExtreme, 1), 0.25)
}

func TestExtractEventsAndMagnitude(t *testing.T) {
	series := []float64{
		-0.2, -1.2, -1.5, -0.8, // event 1: two months, magnitude 2.7
		0.4, 0.2,
		-1.1, -1.3, -1.8, // event 2: three months, magnitude 4.2 (trailing)
	}
	events := ExtractEvents(series)
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[0].Duration)
	assert.InDelta(t, 2.7, events[0].Magnitude, 1e-9)
	assert.Equal(t, 3, events[1].Duration)
	assert.InDelta(t, 4.2, events[1].Magnitude, 1e-9)
	assert.Equal(t, -1.8, events[1].MinSPI)

	calc, err := FitMagnitude(series)
	require.NoError(t, err)

	current := CurrentEvent(series)
	require.NotNil(t, current)
	info := calc.Assess(*current)
	assert.InDelta(t, 100, info.Percentile, 1e-9)
	assert.GreaterOrEqual(t, info.Percentile, 0.0)
	assert.LessOrEqual(t, info.Percentile, 100.0)
	assert.Equal(t, TierExtreme, info.SeverityTier)
}

func TestMagnitudeAdditivity(t *testing.T) {
	// Splitting a run into its months sums to the run magnitude.
	run := []float64{-1.2, -1.4, -1.6}
	events := ExtractEvents(run)
	require.Len(t, events, 1)
	assert.InDelta(t, 1.2+1.4+1.6, events[0].Magnitude, 1e-9)
}

func TestCurrentEventNilWhenRecovered(t *testing.T) {
	assert.Nil(t, CurrentEvent([]float64{-1.5, -1.2, 0.3}))
	assert.Nil(t, CurrentEvent(nil))
}

func TestWetSeasonLock(t *testing.T) {
	ref := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

	failed := []models.MonthlySPI{
		{Year: 2024, Month: 6, SPI: -1.3},
		{Year: 2024, Month: 7, SPI: -1.5},
		{Year: 2024, Month: 8, SPI: -1.1},
		{Year: 2024, Month: 9, SPI: -1.4},
	}
	avg, locked := WetSeasonStats("cdmx", failed, ref)
	require.NotNil(t, avg)
	assert.Less(t, *avg, -1.0)
	assert.True(t, locked, "a failed wet season must engage the lock")

	// A later neutral season (average between -1.0 and 0) keeps the lock.
	heldOver := append(failed,
		models.MonthlySPI{Year: 2025, Month: 6, SPI: -0.4},
		models.MonthlySPI{Year: 2025, Month: 7, SPI: -0.3},
		models.MonthlySPI{Year: 2025, Month: 8, SPI: -0.5},
		models.MonthlySPI{Year: 2025, Month: 9, SPI: -0.2},
	)
	_, locked = WetSeasonStats("cdmx", heldOver, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, locked, "lock releases only at a non-negative seasonal average")

	// A genuinely wet season releases it.
	recovered := append(heldOver,
		models.MonthlySPI{Year: 2026, Month: 6, SPI: 0.5},
		models.MonthlySPI{Year: 2026, Month: 7, SPI: 0.8},
		models.MonthlySPI{Year: 2026, Month: 8, SPI: 0.4},
		models.MonthlySPI{Year: 2026, Month: 9, SPI: 0.6},
	)
	_, locked = WetSeasonStats("cdmx", recovered, time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, locked)
}

func TestWetSeasonIgnoresIncompleteSeason(t *testing.T) {
	// Ref falls inside the 2024 wet season: the season must not count yet.
	series := []models.MonthlySPI{
		{Year: 2024, Month: 6, SPI: -2.0},
		{Year: 2024, Month: 7, SPI: -2.0},
	}
	avg, locked := WetSeasonStats("cdmx", series, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC))
	assert.Nil(t, avg)
	assert.False(t, locked)
}

func TestIsDrySeason(t *testing.T) {
	assert.True(t, IsDrySeason("cdmx", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsDrySeason("cdmx", time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)))
	// Unknown zones use the default northern-hemisphere config.
	assert.True(t, IsDrySeason("nowhere", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
}

func TestFalseRecoveryAndDifferential(t *testing.T) {
	assert.InDelta(t, 1.9, ScaleDifferential(0.4, -1.5), 1e-9)
	assert.True(t, FalseRecovery(0.4, -1.5))
	assert.False(t, FalseRecovery(-1.4, -1.5), "small differential is not a false recovery")
	assert.False(t, FalseRecovery(1.0, -0.5), "long scale must still be in drought")
}

func TestWeatherWhiplash(t *testing.T) {
	spi6 := []float64{1.8, 0.9, 0.1, -0.6, -1.2, -1.7}
	flag, months := WeatherWhiplash(spi6)
	require.True(t, flag)
	require.NotNil(t, months)
	assert.Equal(t, 5, *months)

	flag, _ = WeatherWhiplash([]float64{0.2, -0.4, -1.6})
	assert.False(t, flag, "no wet sample in the lookback")

	flag, _ = WeatherWhiplash([]float64{1.8, -0.4, -1.2})
	assert.False(t, flag, "current conditions must be severe")
}

func TestAllPositiveStreak(t *testing.T) {
	a := []float64{-0.2, 0.3, 0.5, 0.1}
	b := []float64{0.1, 0.2, 0.4, 0.6}
	assert.Equal(t, 3, AllPositiveStreak(a, b))
	assert.Equal(t, 0, AllPositiveStreak(a, []float64{0.1, 0.2, 0.4, -0.6}))
	assert.Equal(t, 0, AllPositiveStreak())
}

func TestFlashDroughtCategoryDrop(t *testing.T) {
	// Normal to severe within the window: a two-category drop at least.
	info := FlashDrought([]float64{0.2, 0.1, -0.3, -1.7})
	require.NotNil(t, info)
	assert.GreaterOrEqual(t, info.CategoryDrop, 2)
	assert.Equal(t, models.StateNormal, info.FromCategory)
	assert.Equal(t, models.StateSevere, info.ToCategory)

	assert.Nil(t, FlashDrought([]float64{-0.6, -0.8, -1.1}), "one-category slide is not flash")
}

func TestFlashFromWindowUsesObservedHistory(t *testing.T) {
	// Steep one-category slide: strong enough for the slope check but not a
	// two-category drop. The reported pair must come from the window itself,
	// never an assumed start at normal.
	series := []float64{-0.6, -0.88, -1.16, -1.44}
	require.True(t, FlashSlopeDetected(series))
	require.Nil(t, FlashDrought(series))

	info := flashFromWindow(series)
	assert.Equal(t, models.StateMild, info.FromCategory)
	assert.Equal(t, models.StateModerate, info.ToCategory)
	assert.Equal(t, 1, info.CategoryDrop)
}

func TestActivePhenology(t *testing.T) {
	res := ActivePhenology("cdmx", time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC))
	assert.True(t, res.IsCriticalWindow)
	assert.Contains(t, res.CropsAffected, "maize")
	assert.Contains(t, res.CropsAffected, "beans")
	assert.Equal(t, 1.8, res.SeverityMultiplier)

	res = ActivePhenology("cdmx", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	assert.False(t, res.IsCriticalWindow)
	assert.Equal(t, 1.0, res.SeverityMultiplier)

	res = ActivePhenology("unknown", time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC))
	assert.False(t, res.IsCriticalWindow)
}
