package models

import "time"

// VariablePrecipitation is the only climate variable currently stored.
const VariablePrecipitation = "precipitation"

// Known upstream source tags.
const (
	SourceOpenMeteo = "openmeteo"
	SourceNOAA      = "noaa"
)

// PrecipitationRecord is one daily precipitation observation for a zone.
// Primary key: (zone_id, variable, date, source). Upserts are idempotent.
type PrecipitationRecord struct {
	ZoneID   string    `json:"zone_id" db:"zone_id"`
	Variable string    `json:"variable" db:"variable"`
	Date     time.Time `json:"date" db:"date"`
	ValueMM  float64   `json:"value_mm" db:"value_mm"`
	Source   string    `json:"source" db:"source"`
}

// DailyValue is a (date, mm) pair as returned by upstream climate sources.
type DailyValue struct {
	Date    time.Time `json:"date" db:"date"`
	ValueMM float64   `json:"value_mm" db:"value_mm"`
}

// Ingestion statuses per (zone, source) pair.
const (
	IngestStatusSuccess  = "success"
	IngestStatusUpToDate = "up_to_date"
	IngestStatusNoData   = "no_data"
	IngestStatusError    = "error"
)

// IngestReport describes the outcome of ingesting one (zone, source) pair.
type IngestReport struct {
	ZoneSlug     string     `json:"zone_slug"`
	Source       string     `json:"source"`
	Status       string     `json:"status"` // success, up_to_date, no_data, error
	RecordsAdded int        `json:"records_added"` // new rows only; overwrites of existing keys are not counted
	From         *time.Time `json:"from,omitempty"`
	To           *time.Time `json:"to,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// MonthlySPI is one derived SPI sample. Not persisted.
type MonthlySPI struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"` // 1..12
	PrecipSum float64 `json:"precip_sum_mm"`
	SPI       float64 `json:"spi"`
}
