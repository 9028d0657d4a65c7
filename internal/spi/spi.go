// Package spi computes the Standardized Precipitation Index at multiple
// monthly scales from daily precipitation, using a zero-inflated gamma fit
// per calendar month.
package spi

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/metrics"
)

// Scales supported by the engine, in months.
var Scales = []int{1, 3, 6, 12, 24, 48}

const (
	// cdfFloor/cdfCeil clamp the mixed CDF before the normal quantile so the
	// SPI stays finite.
	cdfFloor = 0.001
	cdfCeil  = 0.999

	minYears  = 5
	warnYears = 30
)

// Engine computes SPI series. Different scales share no state; callers run
// the scales independently.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

type monthKey struct {
	year  int
	month int // 1..12
}

func (k monthKey) before(o monthKey) bool {
	return k.year < o.year || (k.year == o.year && k.month < o.month)
}

func (k monthKey) next() monthKey {
	if k.month == 12 {
		return monthKey{k.year + 1, 1}
	}
	return monthKey{k.year, k.month + 1}
}

// Compute derives the SPI-k series from a daily precipitation series.
// Months with fewer than scaleMonths preceding months of data are skipped.
func (e *Engine) Compute(daily []models.DailyValue, scaleMonths int) ([]models.MonthlySPI, error) {
	started := time.Now()
	defer func() {
		metrics.SPIComputeDurationSeconds.
			WithLabelValues(strconv.Itoa(scaleMonths)).
			Observe(time.Since(started).Seconds())
	}()

	if !validScale(scaleMonths) {
		return nil, apperr.Ef(apperr.ErrInvalidInput, "spi.Compute", "unsupported scale %d months", scaleMonths)
	}
	if len(daily) < scaleMonths*30 {
		return nil, apperr.Ef(apperr.ErrMissingData, "spi.Compute",
			"need at least %d daily values for SPI-%d, have %d; ingest more history first",
			scaleMonths*30, scaleMonths, len(daily))
	}

	months, sums := monthlyTotals(daily)
	rolling := rollingSums(months, sums, scaleMonths)
	if len(rolling) == 0 {
		return nil, apperr.Ef(apperr.ErrMissingData, "spi.Compute",
			"no complete %d-month windows in series; ingest more history first", scaleMonths)
	}

	years := float64(len(rolling)) / 12.0
	if years < minYears {
		return nil, apperr.Ef(apperr.ErrMissingData, "spi.Compute",
			"only %.1f years of SPI-%d samples; at least %d required", years, scaleMonths, minYears)
	}
	if years < warnYears {
		e.logger.Warn("SPI computed on short record; distribution fit may be unstable",
			"scale_months", scaleMonths, "years", fmt.Sprintf("%.1f", years))
	}

	fits := fitByCalendarMonth(rolling)

	out := make([]models.MonthlySPI, 0, len(rolling))
	for _, rs := range rolling {
		fit, ok := fits[rs.key.month]
		if !ok {
			continue
		}
		h := fit.mixedCDF(rs.sum)
		h = math.Min(math.Max(h, cdfFloor), cdfCeil)
		out = append(out, models.MonthlySPI{
			Year:      rs.key.year,
			Month:     rs.key.month,
			PrecipSum: rs.sum,
			SPI:       NormalQuantile(h),
		})
	}
	return out, nil
}

func validScale(k int) bool {
	for _, s := range Scales {
		if s == k {
			return true
		}
	}
	return false
}

type rollingSum struct {
	key monthKey
	sum float64
}

// monthlyTotals aggregates daily values into calendar-month totals, ordered.
func monthlyTotals(daily []models.DailyValue) ([]monthKey, map[monthKey]float64) {
	sums := make(map[monthKey]float64)
	for _, d := range daily {
		k := monthKey{d.Date.Year(), int(d.Date.Month())}
		sums[k] += d.ValueMM
	}
	months := make([]monthKey, 0, len(sums))
	for k := range sums {
		months = append(months, k)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].before(months[j]) })
	return months, sums
}

// rollingSums produces the k-month rolling sum ending at each month that has
// k consecutive months of data behind it.
func rollingSums(months []monthKey, sums map[monthKey]float64, k int) []rollingSum {
	var out []rollingSum
	for i := k - 1; i < len(months); i++ {
		// The window must be k consecutive calendar months.
		if !consecutive(months[i-k+1:i+1]) {
			continue
		}
		var total float64
		for _, m := range months[i-k+1 : i+1] {
			total += sums[m]
		}
		out = append(out, rollingSum{key: months[i], sum: total})
	}
	return out
}

func consecutive(window []monthKey) bool {
	for i := 1; i < len(window); i++ {
		if window[i-1].next() != window[i] {
			return false
		}
	}
	return true
}

// zeroInflatedFit is a gamma fit for one calendar month plus its zero mass.
type zeroInflatedFit struct {
	zeroProb float64
	gamma    GammaParams
	hasGamma bool
}

// mixedCDF is H(x) = q + (1-q)*G(x) for x>0, H(0) = q.
func (f zeroInflatedFit) mixedCDF(x float64) float64 {
	if x <= 0 || !f.hasGamma {
		return f.zeroProb
	}
	return f.zeroProb + (1-f.zeroProb)*GammaCDF(x, f.gamma)
}

// fitByCalendarMonth fits a zero-inflated gamma to the rolling sums of each
// calendar month across all years. Months whose fit fails entirely are
// omitted; their SPI samples are skipped rather than fabricated.
func fitByCalendarMonth(rolling []rollingSum) map[int]zeroInflatedFit {
	byMonth := make(map[int][]float64)
	for _, rs := range rolling {
		byMonth[rs.key.month] = append(byMonth[rs.key.month], rs.sum)
	}

	fits := make(map[int]zeroInflatedFit, len(byMonth))
	for month, values := range byMonth {
		var positive []float64
		zeros := 0
		for _, v := range values {
			if v > 0 {
				positive = append(positive, v)
			} else {
				zeros++
			}
		}
		fit := zeroInflatedFit{zeroProb: float64(zeros) / float64(len(values))}
		if len(positive) > 0 {
			params, err := FitGamma(positive)
			if err == nil && !math.IsNaN(params.Shape) && !math.IsNaN(params.Scale) {
				fit.gamma = params
				fit.hasGamma = true
			}
		}
		if fit.hasGamma || zeros == len(values) {
			fits[month] = fit
		}
	}
	return fits
}
