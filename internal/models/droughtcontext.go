package models

// Markov drought states, from SPI cut points (-0.5, -1.0, -1.5, -2.0).
const (
	StateNormal   = "normal"
	StateMild     = "mild"
	StateModerate = "moderate"
	StateSevere   = "severe"
	StateExtreme  = "extreme"
)

// FlashDroughtInfo records a rapid SPI category drop.
type FlashDroughtInfo struct {
	FromCategory string `json:"from_category"`
	ToCategory   string `json:"to_category"`
	CategoryDrop int    `json:"category_drop"`
}

// MagnitudeInfo is the run-theory characterization of the current drought
// event, ranked against the zone's historical event population.
type MagnitudeInfo struct {
	Value          float64 `json:"value"`
	Percentile     float64 `json:"historical_percentile"` // 0..100
	DurationMonths int     `json:"duration_months"`
	MinSPI         float64 `json:"min_spi"`
	SeverityTier   string  `json:"severity_tier"` // extreme, severe, moderate, mild, below_average
}

// MarkovInfo holds transition probabilities from the current drought state.
type MarkovInfo struct {
	CurrentState  string  `json:"current_state"`
	ProbToSevere  float64 `json:"prob_to_severe"`
	ProbToExtreme float64 `json:"prob_to_extreme"`
}

// DroughtContext is the immutable snapshot every heuristic evaluates.
// Pointer fields distinguish "analyzer could not produce a value" from zero.
// It is constructed once by the context builder and never mutated afterwards,
// so it is safe to share between concurrent rule evaluations.
type DroughtContext struct {
	ZoneSlug string `json:"zone_slug"`
	Profile  string `json:"profile"` // government, industry

	SPI1  *float64 `json:"spi_1,omitempty"`
	SPI3  *float64 `json:"spi_3,omitempty"`
	SPI6  *float64 `json:"spi_6,omitempty"`
	SPI12 *float64 `json:"spi_12,omitempty"`
	SPI24 *float64 `json:"spi_24,omitempty"`
	SPI48 *float64 `json:"spi_48,omitempty"`

	RiskLevel      string `json:"risk_level"`
	Trend          string `json:"trend"`
	DaysToCritical *int   `json:"days_to_critical,omitempty"`

	RapidDeterioration    bool              `json:"rapid_deterioration"`
	ConsecutiveDryPeriods int               `json:"consecutive_dry_periods"`
	FlashDrought          *FlashDroughtInfo `json:"flash_drought,omitempty"`

	IsDrySeason       bool     `json:"is_dry_season"`
	AbsoluteDeficitMM *float64 `json:"absolute_deficit_mm,omitempty"`
	WetSeasonAvgSPI   *float64 `json:"wet_season_avg_spi,omitempty"`
	WetSeasonLocked   bool     `json:"wet_season_locked"`

	IsCriticalWindow   bool     `json:"is_critical_phenological_window"`
	CropsAffected      []string `json:"crops_affected,omitempty"`
	Stages             []string `json:"stages,omitempty"`
	SeverityMultiplier float64  `json:"severity_multiplier"`

	SenSlopePerMonth *float64 `json:"sen_slope_per_month,omitempty"`
	MKConfidencePct  *float64 `json:"mk_confidence_pct,omitempty"`
	MKDirection      string   `json:"mk_direction,omitempty"` // increasing, decreasing, no_trend

	Magnitude *MagnitudeInfo `json:"magnitude,omitempty"`
	Markov    *MarkovInfo    `json:"markov,omitempty"`

	ScaleDifferential *float64 `json:"scale_differential,omitempty"`
	FalseRecovery     bool     `json:"false_recovery"`

	WeatherWhiplash bool `json:"weather_whiplash"`
	MonthsSinceWet  *int `json:"months_since_wet,omitempty"`

	IndustrialCoCCurrent    *float64 `json:"industrial_coc_current,omitempty"`
	DemandCapacityRatio     *float64 `json:"demand_capacity_ratio,omitempty"`
	ReservoirStoragePct     *float64 `json:"reservoir_storage_pct,omitempty"`
	AllScalesPositiveMonths int      `json:"all_scales_positive_months"`
}

// SPIAt returns the SPI at the given scale in months, or nil when unknown.
func (c *DroughtContext) SPIAt(scale int) *float64 {
	switch scale {
	case 1:
		return c.SPI1
	case 3:
		return c.SPI3
	case 6:
		return c.SPI6
	case 12:
		return c.SPI12
	case 24:
		return c.SPI24
	case 48:
		return c.SPI48
	}
	return nil
}
