package analytics

import "time"

// PhenologyWindow is a calendar interval of a crop's growth stage during
// which water stress is disproportionately damaging.
type PhenologyWindow struct {
	Crop               string
	Stage              string
	StartMonth         int
	StartDay           int
	EndMonth           int
	EndDay             int
	SeverityMultiplier float64
}

// phenologyTable is the process-wide read-only crop calendar keyed by zone
// slug. Initialized at startup; safe for concurrent reads.
var phenologyTable = map[string][]PhenologyWindow{
	"cdmx": {
		{Crop: "maize", Stage: "flowering", StartMonth: 7, StartDay: 1, EndMonth: 8, EndDay: 15, SeverityMultiplier: 1.8},
		{Crop: "maize", Stage: "grain_fill", StartMonth: 8, StartDay: 16, EndMonth: 9, EndDay: 30, SeverityMultiplier: 1.4},
		{Crop: "beans", Stage: "pod_set", StartMonth: 7, StartDay: 15, EndMonth: 8, EndDay: 31, SeverityMultiplier: 1.5},
	},
	"texas": {
		{Crop: "cotton", Stage: "boll_development", StartMonth: 7, StartDay: 1, EndMonth: 8, EndDay: 31, SeverityMultiplier: 1.6},
		{Crop: "sorghum", Stage: "heading", StartMonth: 6, StartDay: 1, EndMonth: 7, EndDay: 15, SeverityMultiplier: 1.3},
	},
	"california": {
		{Crop: "almond", Stage: "kernel_fill", StartMonth: 5, StartDay: 1, EndMonth: 7, EndDay: 15, SeverityMultiplier: 1.7},
		{Crop: "grape", Stage: "veraison", StartMonth: 7, StartDay: 15, EndMonth: 8, EndDay: 31, SeverityMultiplier: 1.4},
	},
}

// PhenologyResult summarizes active critical windows on a date.
type PhenologyResult struct {
	IsCriticalWindow   bool
	CropsAffected      []string
	Stages             []string
	SeverityMultiplier float64
}

func (w PhenologyWindow) contains(date time.Time) bool {
	md := int(date.Month())*100 + date.Day()
	start := w.StartMonth*100 + w.StartDay
	end := w.EndMonth*100 + w.EndDay
	if start <= end {
		return md >= start && md <= end
	}
	// Window wraps the year boundary.
	return md >= start || md <= end
}

// ActivePhenology returns the critical windows containing the date for a
// zone. The severity multiplier is the maximum among active windows, 1.0
// when none are active.
func ActivePhenology(slug string, date time.Time) PhenologyResult {
	result := PhenologyResult{SeverityMultiplier: 1.0}
	for _, w := range phenologyTable[slug] {
		if !w.contains(date) {
			continue
		}
		result.IsCriticalWindow = true
		result.CropsAffected = appendUnique(result.CropsAffected, w.Crop)
		result.Stages = appendUnique(result.Stages, w.Stage)
		if w.SeverityMultiplier > result.SeverityMultiplier {
			result.SeverityMultiplier = w.SeverityMultiplier
		}
	}
	return result
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
