package analytics

import (
	"math"
	"sort"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
)

// Severity tier percentile cut points.
const (
	tierExtremePct  = 90
	tierSeverePct   = 75
	tierModeratePct = 50
	tierMildPct     = 25
)

// Severity tiers for a drought event's magnitude percentile.
const (
	TierExtreme      = "extreme"
	TierSevere       = "severe"
	TierModerate     = "moderate"
	TierMild         = "mild"
	TierBelowAverage = "below_average"
)

// DroughtEvent is one run-theory event: a maximal run of months with
// SPI below -1.0.
type DroughtEvent struct {
	StartIndex int
	Duration   int
	Magnitude  float64 // sum of |SPI| over the run
	MinSPI     float64
}

// ExtractEvents splits a monthly SPI series into drought events.
func ExtractEvents(series []float64) []DroughtEvent {
	var events []DroughtEvent
	var current *DroughtEvent
	for i, v := range series {
		if v < dryThreshold {
			if current == nil {
				current = &DroughtEvent{StartIndex: i, MinSPI: v}
			}
			current.Duration++
			current.Magnitude += math.Abs(v)
			if v < current.MinSPI {
				current.MinSPI = v
			}
		} else if current != nil {
			events = append(events, *current)
			current = nil
		}
	}
	if current != nil {
		events = append(events, *current)
	}
	return events
}

// MagnitudeCalculator ranks a drought event against a zone's historical
// event population. Fit once per zone; Assess is cheap and read-only, so a
// fitted calculator may be cached and shared.
type MagnitudeCalculator struct {
	population []float64 // sorted historical magnitudes
}

// FitMagnitude extracts all historical events from the series and fits the
// calculator on their magnitudes.
func FitMagnitude(series []float64) (*MagnitudeCalculator, error) {
	events := ExtractEvents(series)
	if len(events) == 0 {
		return nil, apperr.E(apperr.ErrMissingData, "analytics.FitMagnitude",
			"no historical drought events below -1.0 in series")
	}
	population := make([]float64, len(events))
	for i, ev := range events {
		population[i] = ev.Magnitude
	}
	sort.Float64s(population)
	return &MagnitudeCalculator{population: population}, nil
}

// CurrentEvent returns the trailing in-progress drought event, or nil when
// the last sample is not in drought.
func CurrentEvent(series []float64) *DroughtEvent {
	if len(series) == 0 || series[len(series)-1] >= dryThreshold {
		return nil
	}
	events := ExtractEvents(series)
	last := events[len(events)-1]
	if last.StartIndex+last.Duration != len(series) {
		return nil
	}
	return &last
}

// Assess ranks an event's magnitude against the fitted population.
func (c *MagnitudeCalculator) Assess(event DroughtEvent) models.MagnitudeInfo {
	// Percentile: share of historical events with magnitude <= this one.
	idx := sort.SearchFloat64s(c.population, event.Magnitude)
	for idx < len(c.population) && c.population[idx] <= event.Magnitude {
		idx++
	}
	percentile := 100 * float64(idx) / float64(len(c.population))

	return models.MagnitudeInfo{
		Value:          event.Magnitude,
		Percentile:     percentile,
		DurationMonths: event.Duration,
		MinSPI:         event.MinSPI,
		SeverityTier:   severityTier(percentile),
	}
}

func severityTier(percentile float64) string {
	switch {
	case percentile >= tierExtremePct:
		return TierExtreme
	case percentile >= tierSeverePct:
		return TierSevere
	case percentile >= tierModeratePct:
		return TierModerate
	case percentile >= tierMildPct:
		return TierMild
	default:
		return TierBelowAverage
	}
}
