package analytics

import (
	"math"
	"sort"

	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/spi"
)

// Mann-Kendall trend directions.
const (
	MKIncreasing = "increasing"
	MKDecreasing = "decreasing"
	MKNoTrend    = "no_trend"
)

const (
	mkSignificance = 0.1
	// flashSlopeThreshold flags flash drought when the Sen slope over the
	// last flashSlopeSamples months is at or below this value.
	flashSlopeThreshold = -0.25
	flashSlopeSamples   = 4
)

// MKResult holds the Mann-Kendall test outcome and Sen slope.
type MKResult struct {
	S             int
	Z             float64
	PValue        float64
	ConfidencePct float64
	Direction     string
	SenSlope      float64 // SPI per month
}

// MannKendall runs the tie-corrected Mann-Kendall test with continuity
// correction and computes the Sen slope (median of pairwise slopes).
func MannKendall(series []float64) (MKResult, error) {
	n := len(series)
	if n < 4 {
		return MKResult{}, apperr.Ef(apperr.ErrMissingData, "analytics.MannKendall",
			"need at least 4 samples, have %d", n)
	}

	s := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			diff := series[j] - series[i]
			switch {
			case diff > 0:
				s++
			case diff < 0:
				s--
			}
		}
	}

	variance := mkVariance(series)
	var z float64
	if variance > 0 {
		switch {
		case s > 0:
			z = (float64(s) - 1) / math.Sqrt(variance)
		case s < 0:
			z = (float64(s) + 1) / math.Sqrt(variance)
		}
	}
	p := 2 * (1 - spi.NormalCDF(math.Abs(z)))

	direction := MKNoTrend
	if p < mkSignificance {
		if z > 0 {
			direction = MKIncreasing
		} else if z < 0 {
			direction = MKDecreasing
		}
	}

	return MKResult{
		S:             s,
		Z:             z,
		PValue:        p,
		ConfidencePct: (1 - p) * 100,
		Direction:     direction,
		SenSlope:      senSlope(series),
	}, nil
}

// mkVariance is the tie-corrected variance of S.
func mkVariance(series []float64) float64 {
	n := float64(len(series))
	variance := n * (n - 1) * (2*n + 5)

	ties := make(map[float64]int)
	for _, v := range series {
		ties[v]++
	}
	for _, t := range ties {
		if t > 1 {
			tf := float64(t)
			variance -= tf * (tf - 1) * (2*tf + 5)
		}
	}
	return variance / 18
}

// senSlope is the median of all pairwise slopes (x_j - x_i)/(j - i).
func senSlope(series []float64) float64 {
	n := len(series)
	slopes := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			slopes = append(slopes, (series[j]-series[i])/float64(j-i))
		}
	}
	if len(slopes) == 0 {
		return 0
	}
	sort.Float64s(slopes)
	mid := len(slopes) / 2
	if len(slopes)%2 == 1 {
		return slopes[mid]
	}
	return (slopes[mid-1] + slopes[mid]) / 2
}

// FlashSlopeDetected reports whether the Sen slope over the most recent
// samples indicates flash intensification.
func FlashSlopeDetected(series []float64) bool {
	if len(series) < flashSlopeSamples {
		return false
	}
	recent := series[len(series)-flashSlopeSamples:]
	return senSlope(recent) <= flashSlopeThreshold
}
