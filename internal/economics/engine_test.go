package economics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

func TestBaseLossCurve(t *testing.T) {
	cases := []struct {
		spi  float64
		want float64
	}{
		{0.5, 0},
		{-0.49, 0},
		{-0.5, 0.05},
		{-0.99, 0.05},
		{-1.0, 0.15},
		{-1.49, 0.15},
		{-1.5, 0.30},
		{-1.99, 0.30},
		{-2.0, 0.50},
		{-3.5, 0.50},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, baseLoss(tc.spi), "spi=%v", tc.spi)
	}
}

func TestAdjustedLossFactors(t *testing.T) {
	highOnceThrough := models.PowerPlant{
		WaterDependency: models.WaterDependencyHigh,
		CoolingType:     models.CoolingOnceThrough,
	}
	highRecirc := models.PowerPlant{
		WaterDependency: models.WaterDependencyHigh,
		CoolingType:     models.CoolingRecirculating,
	}
	mediumRecirc := models.PowerPlant{
		WaterDependency: models.WaterDependencyMedium,
		CoolingType:     models.CoolingRecirculating,
	}
	lowDry := models.PowerPlant{
		WaterDependency: models.WaterDependencyLow,
		CoolingType:     models.CoolingDry,
	}

	// Severe drought band: base loss 0.30.
	assert.InDelta(t, 0.36, AdjustedLoss(highOnceThrough, -1.72), 1e-9)
	assert.InDelta(t, 0.30, AdjustedLoss(highRecirc, -1.72), 1e-9)
	assert.InDelta(t, 0.18, AdjustedLoss(mediumRecirc, -1.72), 1e-9)
	assert.InDelta(t, 0.018, AdjustedLoss(lowDry, -1.72), 1e-9)

	// No drought, no loss regardless of plant profile.
	assert.Zero(t, AdjustedLoss(highOnceThrough, 0.2))
}

func TestAdjustedLossNeverExceedsCap(t *testing.T) {
	deps := []string{models.WaterDependencyHigh, models.WaterDependencyMedium, models.WaterDependencyLow}
	coolings := []string{models.CoolingOnceThrough, models.CoolingRecirculating, models.CoolingDry}
	for _, dep := range deps {
		for _, cooling := range coolings {
			plant := models.PowerPlant{WaterDependency: dep, CoolingType: cooling}
			for _, spi := range []float64{-0.6, -1.2, -1.7, -2.5, -4.0} {
				assert.LessOrEqual(t, AdjustedLoss(plant, spi), 0.80, "%s/%s at %v", dep, cooling, spi)
			}
		}
	}
}

func TestUnknownEnumsUseMiddleFactors(t *testing.T) {
	plant := models.PowerPlant{WaterDependency: "unset", CoolingType: "unset"}
	// medium (0.6) x recirculating (1.0) defaults.
	assert.InDelta(t, 0.18, AdjustedLoss(plant, -1.72), 1e-9)
}

func declining(from, rate float64, days int) []models.TrajectoryPoint {
	out := make([]models.TrajectoryPoint, 0, days+1)
	spi := from
	for d := 0; d <= days; d++ {
		out = append(out, models.TrajectoryPoint{Day: d, SPI: spi})
		spi -= rate
	}
	return out
}

func shifted(traj []models.TrajectoryPoint, up float64) []models.TrajectoryPoint {
	out := make([]models.TrajectoryPoint, len(traj))
	for i, p := range traj {
		out[i] = models.TrajectoryPoint{Day: p.Day, SPI: p.SPI + up}
	}
	return out
}

func TestCompareSavingsScenario(t *testing.T) {
	engine := NewEngine(7.0, nil)
	plants := []models.PowerPlant{
		{ID: "p1", Name: "Comanche Peak", Type: models.PlantNuclear, CapacityMW: 2400,
			WaterDependency: models.WaterDependencyHigh, CoolingType: models.CoolingOnceThrough},
		{ID: "p2", Name: "Martin Lake", Type: models.PlantThermoelectric, CapacityMW: 2250,
			WaterDependency: models.WaterDependencyHigh, CoolingType: models.CoolingRecirculating},
		{ID: "p3", Name: "Permian Peaker", Type: models.PlantThermoelectric, CapacityMW: 400,
			WaterDependency: models.WaterDependencyLow, CoolingType: models.CoolingDry},
	}
	quote := models.PriceQuote{MarginalPriceUSDMWh: 65, FuelPriceUSDMMBtu: 3.2, Source: PriceSourceEIA}

	noAction := declining(-1.72, 0.015, 90)
	withAction := shifted(noAction, 0.45)

	delta := engine.Compare(plants, noAction, withAction, quote, 90)

	require.Len(t, delta.Plants, 3)
	assert.Positive(t, delta.TotalCostNoAction)
	assert.Positive(t, delta.SavingsUSD)
	assert.Greater(t, delta.SavingsPct, 0.05)
	assert.Less(t, delta.SavingsPct, 0.60)
	assert.InDelta(t, delta.TotalCostNoAction-delta.TotalCostWithAction, delta.SavingsUSD, 1e-6)
	assert.Contains(t, delta.Summary, "saving")

	for _, p := range delta.Plants {
		assert.LessOrEqual(t, p.CapacityLossWithAction, p.CapacityLossNoAction, p.Plant.Name)
		assert.InDelta(t, p.CostNoActionUSD-p.CostWithActionUSD, p.SavingsUSD, 1e-6)
		assert.Positive(t, p.EmergencyFuelCostUSD)
	}
}

func TestCompareNoPlants(t *testing.T) {
	engine := NewEngine(0, nil)
	delta := engine.Compare(nil, declining(-1.5, 0.02, 30), declining(-1.5, 0.02, 30),
		models.PriceQuote{MarginalPriceUSDMWh: 100}, 30)
	assert.Zero(t, delta.TotalCostNoAction)
	assert.Zero(t, delta.SavingsPct)
	assert.Equal(t, "No plants in scope; no economic impact to report.", delta.Summary)
}

func TestCompareNoImprovement(t *testing.T) {
	engine := NewEngine(7.0, nil)
	plants := []models.PowerPlant{{ID: "p1", CapacityMW: 500,
		WaterDependency: models.WaterDependencyHigh, CoolingType: models.CoolingRecirculating}}
	traj := declining(-1.6, 0.01, 30)
	delta := engine.Compare(plants, traj, traj, models.PriceQuote{MarginalPriceUSDMWh: 80}, 30)
	assert.Zero(t, delta.SavingsUSD)
	assert.Contains(t, delta.Summary, "do not reduce")
}

func TestCompareEmptyTrajectories(t *testing.T) {
	engine := NewEngine(7.0, nil)
	plants := []models.PowerPlant{{ID: "p1", CapacityMW: 500,
		WaterDependency: models.WaterDependencyHigh, CoolingType: models.CoolingRecirculating}}
	delta := engine.Compare(plants, nil, nil, models.PriceQuote{MarginalPriceUSDMWh: 80}, 0)
	assert.Zero(t, delta.TotalCostNoAction)
	assert.Zero(t, delta.SavingsUSD)
}
