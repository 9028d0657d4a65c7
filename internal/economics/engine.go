// Package economics estimates drought-driven generation losses for power
// plants and the replacement-power cost of a projected SPI trajectory.
package economics

import (
	"fmt"
	"log/slog"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

// Adjusted capacity loss never exceeds this share regardless of factors.
const maxAdjustedLoss = 0.80

const defaultHeatRate = 7.0 // MMBtu per MWh

// baseLoss is the capacity-loss curve keyed on SPI. Boundaries belong to the
// more severe band, matching the risk classifier.
func baseLoss(spi float64) float64 {
	switch {
	case spi > -0.5:
		return 0
	case spi > -1.0:
		return 0.05
	case spi > -1.5:
		return 0.15
	case spi > -2.0:
		return 0.30
	default:
		return 0.50
	}
}

func dependencyFactor(dep string) float64 {
	switch dep {
	case models.WaterDependencyHigh:
		return 1.0
	case models.WaterDependencyLow:
		return 0.3
	default:
		return 0.6
	}
}

func coolingFactor(cooling string) float64 {
	switch cooling {
	case models.CoolingOnceThrough:
		return 1.2
	case models.CoolingDry:
		return 0.2
	default:
		return 1.0
	}
}

// AdjustedLoss is the plant-specific capacity loss fraction at a given SPI.
func AdjustedLoss(plant models.PowerPlant, spi float64) float64 {
	loss := baseLoss(spi) * dependencyFactor(plant.WaterDependency) * coolingFactor(plant.CoolingType)
	if loss > maxAdjustedLoss {
		loss = maxAdjustedLoss
	}
	return loss
}

// Engine integrates plant losses over SPI trajectories.
type Engine struct {
	HeatRate float64 // MMBtu per MWh for emergency fuel costing
	logger   *slog.Logger
}

func NewEngine(heatRate float64, logger *slog.Logger) *Engine {
	if heatRate <= 0 {
		heatRate = defaultHeatRate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{HeatRate: heatRate, logger: logger}
}

// plantCosts integrates one plant over one trajectory. Returns replacement
// cost (USD), mean loss fraction over the horizon, and the informational
// emergency-fuel cost.
func (e *Engine) plantCosts(plant models.PowerPlant, traj []models.TrajectoryPoint, quote models.PriceQuote) (cost, meanLoss, fuelCost float64) {
	if len(traj) == 0 {
		return 0, 0, 0
	}
	var lostMWh float64
	for _, p := range traj {
		loss := AdjustedLoss(plant, p.SPI)
		meanLoss += loss
		dayMWh := plant.CapacityMW * loss * 24
		lostMWh += dayMWh
		cost += dayMWh * quote.MarginalPriceUSDMWh
	}
	meanLoss /= float64(len(traj))
	fuelCost = lostMWh * e.HeatRate * quote.FuelPriceUSDMMBtu
	return cost, meanLoss, fuelCost
}

// Compare integrates every plant over both trajectories and aggregates the
// delta. Replacement-power cost is the primary figure; emergency fuel is
// reported alongside.
func (e *Engine) Compare(plants []models.PowerPlant, noAction, withAction []models.TrajectoryPoint, quote models.PriceQuote, projectionDays int) models.EconomicDelta {
	delta := models.EconomicDelta{
		MarginalPriceUSDMWh: quote.MarginalPriceUSDMWh,
		FuelPriceUSDMMBtu:   quote.FuelPriceUSDMMBtu,
		PriceSource:         quote.Source,
		ProjectionDays:      projectionDays,
	}
	for _, plant := range plants {
		costNo, lossNo, fuelNo := e.plantCosts(plant, noAction, quote)
		costWith, lossWith, _ := e.plantCosts(plant, withAction, quote)
		delta.Plants = append(delta.Plants, models.PlantEconomicResult{
			Plant:                  plant,
			CapacityLossNoAction:   lossNo,
			CapacityLossWithAction: lossWith,
			CostNoActionUSD:        costNo,
			CostWithActionUSD:      costWith,
			SavingsUSD:             costNo - costWith,
			EmergencyFuelCostUSD:   fuelNo,
		})
		delta.TotalCostNoAction += costNo
		delta.TotalCostWithAction += costWith
	}
	delta.SavingsUSD = delta.TotalCostNoAction - delta.TotalCostWithAction
	if delta.TotalCostNoAction > 0 {
		delta.SavingsPct = delta.SavingsUSD / delta.TotalCostNoAction
	}
	delta.Summary = summarize(delta, len(plants))
	return delta
}

// summarize renders deterministic prose from the aggregate numbers.
func summarize(d models.EconomicDelta, plantCount int) string {
	if plantCount == 0 {
		return "No plants in scope; no economic impact to report."
	}
	if d.SavingsUSD <= 0 {
		return fmt.Sprintf(
			"Over %d days at %.0f USD/MWh, projected replacement-power cost across %d plants is %.0f USD; the proposed actions do not reduce it.",
			d.ProjectionDays, d.MarginalPriceUSDMWh, plantCount, d.TotalCostNoAction)
	}
	return fmt.Sprintf(
		"Over %d days at %.0f USD/MWh, doing nothing costs %.0f USD in replacement power across %d plants; the proposed actions reduce this to %.0f USD, saving %.0f USD (%.1f%%).",
		d.ProjectionDays, d.MarginalPriceUSDMWh, d.TotalCostNoAction, plantCount,
		d.TotalCostWithAction, d.SavingsUSD, d.SavingsPct*100)
}
