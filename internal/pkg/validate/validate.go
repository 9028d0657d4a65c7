// Package validate provides input validation for API path and body parameters.
package validate

import (
	"regexp"
	"time"
)

// SlugMaxLen is the maximum allowed length for a zone slug (stored in DB, used in paths).
const SlugMaxLen = 64

// Zone slug: lowercase alphanumeric with single hyphen/underscore separators.
var slugRe = regexp.MustCompile(`^[a-z0-9]+([_-][a-z0-9]+)*$`)

// Slug validates a zone slug.
func Slug(slug string) bool {
	if slug == "" || len(slug) > SlugMaxLen {
		return false
	}
	return slugRe.MatchString(slug)
}

// Latitude validates a latitude in decimal degrees.
func Latitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// Longitude validates a longitude in decimal degrees.
func Longitude(lon float64) bool {
	return lon >= -180 && lon <= 180
}

// DateRange validates that from <= to and neither is in the far future.
func DateRange(from, to time.Time) bool {
	if from.After(to) {
		return false
	}
	return !to.After(time.Now().AddDate(0, 0, 1))
}

// Capacity validates a plant capacity in MW.
func Capacity(mw float64) bool {
	return mw > 0 && mw < 100000
}

// Profile validates a user profile string.
func Profile(p string) bool {
	return p == "government" || p == "industry"
}

// ProjectionDays validates a projection horizon.
func ProjectionDays(d int) bool {
	return d >= 0 && d <= 3650
}
