// Package analytics derives drought indicators from monthly SPI series:
// trend (basic and statistical), run-theory magnitude, Markov transitions,
// seasonality, phenology, and cross-scale signals. All analyzers are pure
// functions over their inputs.
package analytics

import (
	"math"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

const (
	trendChangeThreshold = 0.1
	rapidDropFraction    = 0.2
	dryThreshold         = -1.0
)

// BasicTrend compares the last two samples of a monthly SPI series.
// Change above +0.1 is IMPROVING, below -0.1 WORSENING, otherwise STABLE.
func BasicTrend(series []float64) string {
	if len(series) < 2 {
		return models.TrendStable
	}
	change := series[len(series)-1] - series[len(series)-2]
	switch {
	case change > trendChangeThreshold:
		return models.TrendImproving
	case change < -trendChangeThreshold:
		return models.TrendWorsening
	default:
		return models.TrendStable
	}
}

// RapidDeterioration reports whether the last value dropped by more than 20%
// of the previous (negative) value.
func RapidDeterioration(series []float64) bool {
	if len(series) < 2 {
		return false
	}
	prev := series[len(series)-2]
	last := series[len(series)-1]
	if prev >= 0 || last >= prev {
		return false
	}
	return math.Abs(last-prev) > rapidDropFraction*math.Abs(prev)
}

// ConsecutiveBelow counts trailing consecutive samples strictly below the
// threshold.
func ConsecutiveBelow(series []float64, threshold float64) int {
	count := 0
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] < threshold {
			count++
		} else {
			break
		}
	}
	return count
}

// flashWindow is the lookback (in samples, roughly weeks at sub-monthly
// cadence, months otherwise) for the category-drop check.
const flashWindow = 4

// FlashDrought detects a rapid category drop: the current drought state is
// at least two categories worse than the best state seen within the last
// flashWindow samples.
func FlashDrought(series []float64) *models.FlashDroughtInfo {
	if len(series) < 2 {
		return nil
	}
	info := flashFromWindow(series)
	if info.CategoryDrop < 2 {
		return nil
	}
	return info
}

// flashFromWindow reports the observed best-to-current category pair over the
// recent window, whatever the drop size. Used directly when the Sen-slope
// check flags a flash event the category test alone did not.
func flashFromWindow(series []float64) *models.FlashDroughtInfo {
	current := series[len(series)-1]
	currentIdx := stateIndex(StateFromSPI(current))

	start := len(series) - 1 - flashWindow
	if start < 0 {
		start = 0
	}
	bestIdx := currentIdx
	for _, v := range series[start : len(series)-1] {
		if idx := stateIndex(StateFromSPI(v)); idx < bestIdx {
			bestIdx = idx
		}
	}
	return &models.FlashDroughtInfo{
		FromCategory: markovStates[bestIdx],
		ToCategory:   markovStates[currentIdx],
		CategoryDrop: currentIdx - bestIdx,
	}
}
