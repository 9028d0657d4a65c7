package models

import "time"

// Scenario types.
const (
	ScenarioNoAction   = "no_action"
	ScenarioWithAction = "with_action"
)

// TrajectoryPoint is one day of a projected SPI trajectory.
type TrajectoryPoint struct {
	Day       int     `json:"day"`
	SPI       float64 `json:"projected_spi"`
	RiskLevel string  `json:"risk_level"`
}

// Simulation is a persisted scenario outcome for a zone.
type Simulation struct {
	ID              string            `json:"id" db:"id"`
	ZoneID          string            `json:"zone_id" db:"zone_id"`
	ScenarioType    string            `json:"scenario_type" db:"scenario_type"` // no_action, with_action
	SnapshotID      string            `json:"input_snapshot_id" db:"input_snapshot_id"`
	ActionIDs       []string          `json:"included_action_instances" db:"-"`
	FutureSPI       []TrajectoryPoint `json:"future_spi" db:"-"`
	FutureRiskLevel string            `json:"future_risk_level" db:"future_risk_level"`
	DaysToCritical  *int              `json:"days_to_critical,omitempty" db:"days_to_critical"`
	ProjectionDays  int               `json:"projection_days" db:"projection_days"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

// ScenarioDelta quantifies the difference between acting and not acting.
type ScenarioDelta struct {
	DaysGained                float64           `json:"days_gained"`
	SPIImprovement            float64           `json:"spi_improvement"`
	RiskImprovementSteps      int               `json:"risk_improvement_steps"`
	ReachesCriticalNoAction   bool              `json:"reaches_critical_no_action"`
	ReachesCriticalWithAction bool              `json:"reaches_critical_with_action"`
	CriticalDelayedByDays     int               `json:"critical_delayed_by_days"`
	NoAction                  []TrajectoryPoint `json:"no_action_trajectory"`
	WithAction                []TrajectoryPoint `json:"with_action_trajectory"`
}
