package models

import "time"

// Power plant types.
const (
	PlantThermoelectric = "thermoelectric"
	PlantNuclear        = "nuclear"
	PlantHydroelectric  = "hydroelectric"
)

// Water dependency levels.
const (
	WaterDependencyHigh   = "high"
	WaterDependencyMedium = "medium"
	WaterDependencyLow    = "low"
)

// Cooling technologies.
const (
	CoolingOnceThrough   = "once_through"
	CoolingRecirculating = "recirculating"
	CoolingDry           = "dry"
)

// PowerPlant is a water-cooled generation asset inside a zone.
type PowerPlant struct {
	ID              string    `json:"id" db:"id"`
	ZoneID          string    `json:"zone_id" db:"zone_id"`
	Name            string    `json:"name" db:"name"`
	Type            string    `json:"type" db:"type"`
	CapacityMW      float64   `json:"capacity_mw" db:"capacity_mw"`
	WaterDependency string    `json:"water_dependency" db:"water_dependency"`
	CoolingType     string    `json:"cooling_type" db:"cooling_type"`
	Status          string    `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// EconomicSimulation is one persisted per-plant economic outcome.
type EconomicSimulation struct {
	ID                      string    `json:"id" db:"id"`
	PlantID                 string    `json:"plant_id" db:"plant_id"`
	CapacityLossNoAction    float64   `json:"capacity_loss_pct_no_action" db:"capacity_loss_pct_no_action"`
	CapacityLossWithAction  float64   `json:"capacity_loss_pct_with_action" db:"capacity_loss_pct_with_action"`
	CostNoActionUSD         float64   `json:"cost_no_action_usd" db:"cost_no_action_usd"`
	CostWithActionUSD       float64   `json:"cost_with_action_usd" db:"cost_with_action_usd"`
	SavingsUSD              float64   `json:"savings_usd" db:"savings_usd"`
	MarginalPriceUSDMWh     float64   `json:"marginal_price_usd_mwh" db:"marginal_price_usd_mwh"`
	FuelPriceUSDMMBtu       float64   `json:"fuel_price_usd_mmbtu" db:"fuel_price_usd_mmbtu"`
	EmergencyFuelCostUSD    float64   `json:"emergency_fuel_cost_usd" db:"emergency_fuel_cost_usd"`
	ProjectionDays          int       `json:"projection_days" db:"projection_days"`
	CreatedAt               time.Time `json:"created_at" db:"created_at"`
}

// PlantEconomicResult is the per-plant breakdown returned to callers.
type PlantEconomicResult struct {
	Plant                  PowerPlant `json:"plant"`
	CapacityLossNoAction   float64    `json:"capacity_loss_pct_no_action"`
	CapacityLossWithAction float64    `json:"capacity_loss_pct_with_action"`
	CostNoActionUSD        float64    `json:"cost_no_action_usd"`
	CostWithActionUSD      float64    `json:"cost_with_action_usd"`
	SavingsUSD             float64    `json:"savings_usd"`
	EmergencyFuelCostUSD   float64    `json:"emergency_fuel_cost_usd"`
}

// EconomicDelta aggregates plant results for one economic simulation run.
type EconomicDelta struct {
	Plants              []PlantEconomicResult `json:"plants"`
	TotalCostNoAction   float64               `json:"total_cost_no_action_usd"`
	TotalCostWithAction float64               `json:"total_cost_with_action_usd"`
	SavingsUSD          float64               `json:"savings_usd"`
	SavingsPct          float64               `json:"savings_pct"`
	MarginalPriceUSDMWh float64               `json:"marginal_price_usd_mwh"`
	FuelPriceUSDMMBtu   float64               `json:"fuel_price_usd_mmbtu"`
	PriceSource         string                `json:"price_source"` // zone, eia, fallback
	ProjectionDays      int                   `json:"projection_days"`
	Summary             string                `json:"summary"`
}

// PriceQuote is a regional electricity/fuel price pair with cache validity.
type PriceQuote struct {
	MarginalPriceUSDMWh float64   `json:"marginal_price_usd_mwh" db:"marginal_price_usd_mwh"`
	FuelPriceUSDMMBtu   float64   `json:"fuel_price_usd_mmbtu" db:"fuel_price_usd_mmbtu"`
	Source              string    `json:"source" db:"source"`
	Region              string    `json:"region" db:"region"`
	ValidUntil          time.Time `json:"valid_until" db:"valid_until"`
}
