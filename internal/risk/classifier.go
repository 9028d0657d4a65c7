// Package risk maps SPI values to discrete drought risk levels.
package risk

import "github.com/droughtwatch/droughtwatch-backend/internal/models"

// Classify maps an SPI value to a risk level. Boundaries belong to the more
// severe class: -1.0 is HIGH, -2.0 is CRITICAL.
func Classify(spi float64) string {
	switch {
	case spi > -0.5:
		return models.RiskLow
	case spi > -1.0:
		return models.RiskMedium
	case spi > -1.5:
		return models.RiskHigh
	default:
		return models.RiskCritical
	}
}
