package models

import "time"

// Risk levels ordered from least to most severe.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// Trend directions derived from the last two SPI samples.
const (
	TrendImproving = "IMPROVING"
	TrendStable    = "STABLE"
	TrendWorsening = "WORSENING"
)

// RiskLevelRank maps a risk level to its severity ordinal (LOW=0..CRITICAL=3).
func RiskLevelRank(level string) int {
	switch level {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return 0
}

// RiskSnapshot is an append-only assessment of a zone at a point in time.
// DaysToCritical is nil when the estimate is undefined (improving and above
// the HIGH band).
type RiskSnapshot struct {
	ID             string    `json:"id" db:"id"`
	ZoneID         string    `json:"zone_id" db:"zone_id"`
	SPI6M          float64   `json:"spi_6m" db:"spi_6m"`
	RiskLevel      string    `json:"risk_level" db:"risk_level"`
	Trend          string    `json:"trend" db:"trend"`
	DaysToCritical *int      `json:"days_to_critical,omitempty" db:"days_to_critical"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
