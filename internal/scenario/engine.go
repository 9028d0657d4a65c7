// Package scenario projects SPI trajectories with and without response
// actions and quantifies the delta between them.
package scenario

import (
	"math"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/risk"
)

const (
	criticalSPI = -2.0
	spiFloor    = -4.0
	maxDays     = 365

	defaultDeclineRate     = 0.02 // SPI per day
	defaultRampDays        = 14.0 // days until an action reaches full effect
	defaultSPIPerDayGained = 0.02 // SPI improvement per expected day gained
)

// Engine projects drought trajectories. The ramp and per-day-gained mapping
// are heuristic constants calibrated on observed deltas; both are fields so
// deployments can tune them.
type Engine struct {
	DeclineRate     float64
	RampDays        float64
	SPIPerDayGained float64
}

func NewEngine() *Engine {
	return &Engine{
		DeclineRate:     defaultDeclineRate,
		RampDays:        defaultRampDays,
		SPIPerDayGained: defaultSPIPerDayGained,
	}
}

// effectiveRate blends the base decline rate (scaled by trend) with the
// historical mean monthly decline when a history is supplied.
func (e *Engine) effectiveRate(trend string, historical []float64) float64 {
	rate := e.DeclineRate
	switch trend {
	case models.TrendWorsening:
		rate *= 1.5
	case models.TrendImproving:
		rate *= 0.5
	}

	if len(historical) >= 2 {
		var sum float64
		count := 0
		for i := 1; i < len(historical); i++ {
			change := historical[i] - historical[i-1]
			if change < 0 {
				sum += -change
				count++
			}
		}
		if count > 0 {
			histDaily := (sum / float64(count)) / 30
			rate = (rate + 2*histDaily) / 3
		}
	}
	return rate
}

// DaysToCritical estimates days until SPI reaches -2.0 under constant-rate
// decline, capped at 365. Returns nil (undefined) when the zone is improving
// and above the HIGH band.
func (e *Engine) DaysToCritical(currentSPI float64, trend string, historical []float64) *int {
	if trend == models.TrendImproving && currentSPI > -1.0 {
		return nil
	}
	rate := e.effectiveRate(trend, historical)
	if rate <= 0 {
		return nil
	}
	days := (currentSPI - criticalSPI) / rate
	if days < 0 {
		days = 0
	}
	if days > maxDays {
		days = maxDays
	}
	d := int(math.Round(days))
	return &d
}

// Project builds the no-action trajectory: day-by-day constant-rate decline
// floored at -4.0, for d = 0..projectionDays. A non-positive horizon yields
// an empty trajectory.
func (e *Engine) Project(currentSPI float64, trend string, historical []float64, projectionDays int) []models.TrajectoryPoint {
	if projectionDays <= 0 {
		return []models.TrajectoryPoint{}
	}
	rate := e.effectiveRate(trend, historical)
	points := make([]models.TrajectoryPoint, 0, projectionDays+1)
	current := currentSPI
	for d := 0; d <= projectionDays; d++ {
		points = append(points, models.TrajectoryPoint{
			Day:       d,
			SPI:       current,
			RiskLevel: risk.Classify(current),
		})
		current = math.Max(current-rate, spiFloor)
	}
	return points
}

// ActionOverlay is the per-action input to the with-action projection.
type ActionOverlay struct {
	DaysGained    float64
	ActivationDay int
}

// Overlay applies cumulative action improvements to a base trajectory. Each
// action contributes spiImprovement = daysGained * SPIPerDayGained, ramping
// linearly to full effect over RampDays after its activation day.
func (e *Engine) Overlay(base []models.TrajectoryPoint, actions []ActionOverlay) []models.TrajectoryPoint {
	if len(actions) == 0 {
		out := make([]models.TrajectoryPoint, len(base))
		copy(out, base)
		return out
	}
	out := make([]models.TrajectoryPoint, len(base))
	for i, p := range base {
		improvement := 0.0
		for _, a := range actions {
			ramp := (float64(p.Day) - float64(a.ActivationDay)) / e.RampDays
			if ramp < 0 {
				ramp = 0
			}
			if ramp > 1 {
				ramp = 1
			}
			improvement += a.DaysGained * e.SPIPerDayGained * ramp
		}
		spi := p.SPI + improvement
		out[i] = models.TrajectoryPoint{Day: p.Day, SPI: spi, RiskLevel: risk.Classify(spi)}
	}
	return out
}

// WithActionDays shifts the no-action days-to-critical by the summed
// expected days gained. Nil stays nil.
func (e *Engine) WithActionDays(baseDays *int, actions []ActionOverlay) *int {
	if baseDays == nil {
		return nil
	}
	total := 0.0
	for _, a := range actions {
		total += a.DaysGained
	}
	d := *baseDays + int(math.Round(total))
	return &d
}

// Compare computes the scenario delta between the two trajectories.
func (e *Engine) Compare(noAction, withAction []models.TrajectoryPoint, projectionDays int) models.ScenarioDelta {
	delta := models.ScenarioDelta{
		NoAction:   noAction,
		WithAction: withAction,
	}
	if len(noAction) == 0 || len(withAction) == 0 {
		return delta
	}

	noEnd := noAction[len(noAction)-1]
	withEnd := withAction[len(withAction)-1]
	delta.SPIImprovement = withEnd.SPI - noEnd.SPI
	delta.RiskImprovementSteps = models.RiskLevelRank(noEnd.RiskLevel) - models.RiskLevelRank(withEnd.RiskLevel)

	noCritical := firstCriticalDay(noAction)
	withCritical := firstCriticalDay(withAction)
	delta.ReachesCriticalNoAction = noCritical >= 0
	delta.ReachesCriticalWithAction = withCritical >= 0

	switch {
	case noCritical >= 0 && withCritical >= 0:
		delta.CriticalDelayedByDays = withCritical - noCritical
		delta.DaysGained = float64(withCritical - noCritical)
	case noCritical >= 0 && withCritical < 0:
		// Action avoids critical within the horizon entirely.
		delta.CriticalDelayedByDays = projectionDays - noCritical
		delta.DaysGained = float64(projectionDays)
	default:
		delta.DaysGained = 0
	}
	return delta
}

func firstCriticalDay(points []models.TrajectoryPoint) int {
	for _, p := range points {
		if p.SPI <= criticalSPI {
			return p.Day
		}
	}
	return -1
}
