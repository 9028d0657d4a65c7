package analytics

import (
	"log/slog"
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/cache"
	"github.com/droughtwatch/droughtwatch-backend/internal/risk"
	"github.com/droughtwatch/droughtwatch-backend/internal/scenario"
	"github.com/droughtwatch/droughtwatch-backend/internal/spi"
)

// markovSteps is the horizon (months) for the severe/extreme transition
// probabilities exposed on the context.
const markovSteps = 3

// magnitudeCacheTTL bounds how long a zone's fitted historical-magnitude
// population is reused across requests.
const magnitudeCacheTTL = 24 * time.Hour

// ExternalSignals are optional scalar inputs fused into the context.
type ExternalSignals struct {
	ReservoirStoragePct *float64
	DemandCapacityRatio *float64
	IndustrialCoC       *float64
	RefDate             time.Time // zero value means "last day of the series"
}

// Builder assembles an immutable DroughtContext from a daily precipitation
// series plus optional external signals. Same inputs produce the same
// context; any analyzer that cannot produce an output contributes a nil
// field instead of aborting the build.
type Builder struct {
	spiEngine *spi.Engine
	scenario  *scenario.Engine
	magCache  *cache.TTLCache
	logger    *slog.Logger
}

func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		spiEngine: spi.NewEngine(logger),
		scenario:  scenario.NewEngine(),
		magCache:  cache.New(magnitudeCacheTTL, 256),
		logger:    logger,
	}
}

// Build runs the SPI engine across all six scales and every analyzer, then
// assembles the context. It fails only when not even SPI-6 can be computed.
func (b *Builder) Build(daily []models.DailyValue, zoneSlug, profile string, sig ExternalSignals) (*models.DroughtContext, error) {
	series := make(map[int][]models.MonthlySPI, len(spi.Scales))
	for _, scale := range spi.Scales {
		s, err := b.spiEngine.Compute(daily, scale)
		if err != nil {
			b.logger.Debug("SPI scale unavailable", "zone", zoneSlug, "scale", scale, "error", err)
			continue
		}
		series[scale] = s
	}
	spi6 := series[6]
	if len(spi6) == 0 {
		return nil, apperr.E(apperr.ErrMissingData, "analytics.Build",
			"SPI-6 could not be computed; ingest precipitation history first")
	}

	refDate := sig.RefDate
	if refDate.IsZero() && len(daily) > 0 {
		refDate = daily[len(daily)-1].Date
	}

	spi1Vals := spiValues(series[1])
	spi3Vals := spiValues(series[3])
	spi6Vals := spiValues(spi6)
	spi12Vals := spiValues(series[12])

	ctx := &models.DroughtContext{
		ZoneSlug:           zoneSlug,
		Profile:            profile,
		SPI1:               lastValue(series[1]),
		SPI3:               lastValue(series[3]),
		SPI6:               lastValue(spi6),
		SPI12:              lastValue(series[12]),
		SPI24:              lastValue(series[24]),
		SPI48:              lastValue(series[48]),
		SeverityMultiplier: 1.0,
	}

	current := spi6Vals[len(spi6Vals)-1]
	ctx.RiskLevel = risk.Classify(current)
	ctx.Trend = BasicTrend(spi6Vals)
	ctx.RapidDeterioration = RapidDeterioration(spi6Vals)
	ctx.DaysToCritical = b.scenario.DaysToCritical(current, ctx.Trend, spi6Vals)
	ctx.ConsecutiveDryPeriods = ConsecutiveBelow(spi3Vals, dryThreshold)

	if len(spi1Vals) >= 2 {
		ctx.FlashDrought = FlashDrought(spi1Vals)
		if ctx.FlashDrought == nil && FlashSlopeDetected(spi1Vals) {
			// Slope-detected flash: report the category pair actually
			// observed in the window, not an assumed drop from normal.
			ctx.FlashDrought = flashFromWindow(spi1Vals)
		}
	}

	ctx.IsDrySeason = IsDrySeason(zoneSlug, refDate)
	ctx.AbsoluteDeficitMM = AbsoluteDeficit(series[1])
	ctx.WetSeasonAvgSPI, ctx.WetSeasonLocked = WetSeasonStats(zoneSlug, series[1], refDate)

	phen := ActivePhenology(zoneSlug, refDate)
	ctx.IsCriticalWindow = phen.IsCriticalWindow
	ctx.CropsAffected = phen.CropsAffected
	ctx.Stages = phen.Stages
	ctx.SeverityMultiplier = phen.SeverityMultiplier

	b.applyStatTrend(ctx, spi6Vals)
	b.applyMagnitude(ctx, zoneSlug, spi6Vals)
	b.applyMarkov(ctx, spi6Vals, current)

	if ctx.SPI1 != nil && ctx.SPI12 != nil {
		d := ScaleDifferential(*ctx.SPI1, *ctx.SPI12)
		ctx.ScaleDifferential = &d
		ctx.FalseRecovery = FalseRecovery(*ctx.SPI1, *ctx.SPI12)
	}

	ctx.WeatherWhiplash, ctx.MonthsSinceWet = WeatherWhiplash(spi6Vals)
	ctx.AllScalesPositiveMonths = AllPositiveStreak(spi3Vals, spi6Vals, spi12Vals)

	ctx.ReservoirStoragePct = sig.ReservoirStoragePct
	ctx.DemandCapacityRatio = sig.DemandCapacityRatio
	ctx.IndustrialCoCCurrent = sig.IndustrialCoC

	return ctx, nil
}

func (b *Builder) applyStatTrend(ctx *models.DroughtContext, spi6Vals []float64) {
	defer b.recoverAnalyzer("statistical_trend", ctx.ZoneSlug)
	mk, err := MannKendall(spi6Vals)
	if err != nil {
		b.logger.Debug("Mann-Kendall skipped", "zone", ctx.ZoneSlug, "error", err)
		return
	}
	ctx.SenSlopePerMonth = &mk.SenSlope
	ctx.MKConfidencePct = &mk.ConfidencePct
	ctx.MKDirection = mk.Direction
}

func (b *Builder) applyMagnitude(ctx *models.DroughtContext, zoneSlug string, spi6Vals []float64) {
	defer b.recoverAnalyzer("magnitude", zoneSlug)
	event := CurrentEvent(spi6Vals)
	if event == nil {
		return
	}
	calc := b.magnitudeCalculator(zoneSlug, spi6Vals)
	if calc == nil {
		return
	}
	info := calc.Assess(*event)
	ctx.Magnitude = &info
}

// magnitudeCalculator returns the cached fitted population for a zone,
// fitting it when absent or expired.
func (b *Builder) magnitudeCalculator(zoneSlug string, spi6Vals []float64) *MagnitudeCalculator {
	if v, ok := b.magCache.Get(zoneSlug); ok {
		if calc, ok := v.(*MagnitudeCalculator); ok {
			return calc
		}
	}
	calc, err := FitMagnitude(spi6Vals)
	if err != nil {
		return nil
	}
	b.magCache.Set(zoneSlug, calc, 0)
	return calc
}

func (b *Builder) applyMarkov(ctx *models.DroughtContext, spi6Vals []float64, current float64) {
	defer b.recoverAnalyzer("markov", ctx.ZoneSlug)
	matrix, err := FitMarkov(spi6Vals)
	if err != nil {
		return
	}
	state := StateFromSPI(current)
	ctx.Markov = &models.MarkovInfo{
		CurrentState:  state,
		ProbToSevere:  matrix.Prob(state, models.StateSevere, markovSteps),
		ProbToExtreme: matrix.Prob(state, models.StateExtreme, markovSteps),
	}
}

// recoverAnalyzer contains numerical failures inside one analyzer so the
// other context fields still populate.
func (b *Builder) recoverAnalyzer(name, zone string) {
	if r := recover(); r != nil {
		b.logger.Error("analyzer failed; field left empty", "analyzer", name, "zone", zone, "panic", r)
	}
}

func spiValues(series []models.MonthlySPI) []float64 {
	out := make([]float64, len(series))
	for i, s := range series {
		out[i] = s.SPI
	}
	return out
}

func lastValue(series []models.MonthlySPI) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1].SPI
	return &v
}
