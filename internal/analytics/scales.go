package analytics

import "math"

const (
	falseRecoveryDifferential = 1.5
	whiplashDryThreshold      = -1.5
	whiplashWetThreshold      = 1.5
	whiplashLookback          = 12
)

// ScaleDifferential is |SPI-1 - SPI-12|, the divergence between short and
// long accumulation scales.
func ScaleDifferential(spi1, spi12 float64) float64 {
	return math.Abs(spi1 - spi12)
}

// FalseRecovery flags a "green drought": short-scale SPI has improved while
// the long-scale deficit persists.
func FalseRecovery(spi1, spi12 float64) bool {
	return ScaleDifferential(spi1, spi12) > falseRecoveryDifferential &&
		spi12 < -1.0 &&
		spi1 > spi12
}

// WeatherWhiplash checks the last 12 SPI-6 samples for a swing from wet
// (> +1.5) to the current severe dry (< -1.5). Returns the flag and the
// month distance to the most recent wet sample (nil when no whiplash).
func WeatherWhiplash(spi6 []float64) (bool, *int) {
	n := len(spi6)
	if n < 2 || spi6[n-1] >= whiplashDryThreshold {
		return false, nil
	}
	start := n - 1 - whiplashLookback
	if start < 0 {
		start = 0
	}
	for i := n - 2; i >= start; i-- {
		if spi6[i] > whiplashWetThreshold {
			distance := n - 1 - i
			return true, &distance
		}
	}
	return false, nil
}

// AllPositiveStreak counts trailing months in which every provided series is
// strictly positive. Series are aligned on their tails; shorter series bound
// the streak.
func AllPositiveStreak(series ...[]float64) int {
	if len(series) == 0 {
		return 0
	}
	minLen := len(series[0])
	for _, s := range series[1:] {
		if len(s) < minLen {
			minLen = len(s)
		}
	}
	streak := 0
	for offset := 1; offset <= minLen; offset++ {
		allPositive := true
		for _, s := range series {
			if s[len(s)-offset] <= 0 {
				allPositive = false
				break
			}
		}
		if !allPositive {
			break
		}
		streak++
	}
	return streak
}
