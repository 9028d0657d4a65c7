package models

import "time"

// Zone represents a monitored geography. Identity fields are immutable after
// creation; the price and code fields may be updated later.
type Zone struct {
	ID          string    `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Name        string    `json:"name" db:"name"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	CountryCode string    `json:"country_code,omitempty" db:"country_code"`
	StateCode   string    `json:"state_code,omitempty" db:"state_code"`
	// Local prices override regional lookups in the economic engine.
	ElectricityPriceUSDMWh *float64  `json:"electricity_price_usd_mwh,omitempty" db:"electricity_price_usd_mwh"`
	FuelPriceUSDMMBtu      *float64  `json:"fuel_price_usd_mmbtu,omitempty" db:"fuel_price_usd_mmbtu"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}
