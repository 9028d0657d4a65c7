package analytics

import (
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

// SeasonConfig describes a zone's dry and wet months and the precipitation
// deficit (mm) above which dry-season communication rules still fire.
type SeasonConfig struct {
	DryMonths          map[int]bool
	WetMonths          map[int]bool
	DeficitThresholdMM float64
}

func months(ms ...int) map[int]bool {
	out := make(map[int]bool, len(ms))
	for _, m := range ms {
		out[m] = true
	}
	return out
}

// seasonTable is the process-wide read-only seasonality configuration,
// keyed by zone slug. Initialized at startup; safe for concurrent reads.
var seasonTable = map[string]SeasonConfig{
	"cdmx": {
		DryMonths:          months(11, 12, 1, 2, 3, 4),
		WetMonths:          months(6, 7, 8, 9),
		DeficitThresholdMM: 40,
	},
	"monterrey": {
		DryMonths:          months(11, 12, 1, 2, 3),
		WetMonths:          months(5, 6, 7, 8, 9),
		DeficitThresholdMM: 30,
	},
	"texas": {
		DryMonths:          months(7, 8, 12, 1),
		WetMonths:          months(4, 5, 9, 10),
		DeficitThresholdMM: 35,
	},
	"california": {
		DryMonths:          months(5, 6, 7, 8, 9, 10),
		WetMonths:          months(12, 1, 2, 3),
		DeficitThresholdMM: 50,
	},
}

// defaultSeason is used for zones without an explicit configuration:
// a generic northern-hemisphere summer wet season.
var defaultSeason = SeasonConfig{
	DryMonths:          months(12, 1, 2, 3),
	WetMonths:          months(6, 7, 8, 9),
	DeficitThresholdMM: 40,
}

// SeasonFor returns the seasonality configuration for a zone slug.
func SeasonFor(slug string) SeasonConfig {
	if cfg, ok := seasonTable[slug]; ok {
		return cfg
	}
	return defaultSeason
}

// IsDrySeason reports whether the date falls in the zone's dry season.
func IsDrySeason(slug string, date time.Time) bool {
	return SeasonFor(slug).DryMonths[int(date.Month())]
}

// WetSeasonStats walks completed wet seasons in chronological order and
// returns the most recent season's average SPI plus the lock state: the lock
// engages when a wet-season average falls below -1.0 and releases only when
// a later wet season averages at or above 0.
func WetSeasonStats(slug string, series []models.MonthlySPI, ref time.Time) (avg *float64, locked bool) {
	cfg := SeasonFor(slug)
	if len(cfg.WetMonths) == 0 || len(series) == 0 {
		return nil, false
	}

	// Group wet-month samples by year; a season is complete when the year's
	// last wet month is in the past relative to ref.
	lastWetMonth := 0
	for m := range cfg.WetMonths {
		if m > lastWetMonth {
			lastWetMonth = m
		}
	}

	type seasonAgg struct {
		year  int
		sum   float64
		count int
	}
	byYear := make(map[int]*seasonAgg)
	var years []int
	for _, s := range series {
		if !cfg.WetMonths[s.Month] {
			continue
		}
		agg, ok := byYear[s.Year]
		if !ok {
			agg = &seasonAgg{year: s.Year}
			byYear[s.Year] = agg
			years = append(years, s.Year)
		}
		agg.sum += s.SPI
		agg.count++
	}

	for _, year := range years {
		complete := year < ref.Year() ||
			(year == ref.Year() && lastWetMonth < int(ref.Month()))
		if !complete {
			continue
		}
		agg := byYear[year]
		mean := agg.sum / float64(agg.count)
		v := mean
		avg = &v
		if mean < -1.0 {
			locked = true
		} else if mean >= 0 {
			locked = false
		}
	}
	return avg, locked
}

// AbsoluteDeficit estimates the precipitation shortfall (mm) of the last
// deficitWindow months against the historical mean for the same calendar
// months, using the SPI-1 series (monthly totals).
func AbsoluteDeficit(series []models.MonthlySPI) *float64 {
	const deficitWindow = 3
	if len(series) < deficitWindow+12 {
		return nil
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, s := range series {
		sums[s.Month] += s.PrecipSum
		counts[s.Month]++
	}

	var deficit float64
	for _, s := range series[len(series)-deficitWindow:] {
		mean := sums[s.Month] / float64(counts[s.Month])
		if short := mean - s.PrecipSum; short > 0 {
			deficit += short
		}
	}
	return &deficit
}
