package models

import "time"

// Parameter kinds for action archetype schemas.
const (
	ParamNumeric = "numeric"
	ParamEnum    = "enum"
	ParamBool    = "bool"
)

// ParamSpec is one entry of an archetype's parameter schema. Exactly one
// variant applies per Kind: numeric ranges carry Min/Max, enumerations carry
// Options, booleans carry only the optional default.
type ParamSpec struct {
	Kind    string      `json:"kind"` // numeric, enum, bool
	Min     float64     `json:"min,omitempty"`
	Max     float64     `json:"max,omitempty"`
	Options []string    `json:"options,omitempty"`
	Default interface{} `json:"default,omitempty"`
}

// IntegerBounds reports whether a numeric spec has integer min and max, in
// which case produced values are coerced to int.
func (p ParamSpec) IntegerBounds() bool {
	if p.Kind != ParamNumeric {
		return false
	}
	return p.Min == float64(int(p.Min)) && p.Max == float64(int(p.Max))
}

// ActionArchetype is a catalogued response action. SPIMin nil means no lower
// bound (the legacy -999 sentinel maps to nil here).
type ActionArchetype struct {
	Code               string               `json:"code"`
	Title              string               `json:"title"`
	HeuristicTag       string               `json:"heuristic_tag"`
	SPIMin             *float64             `json:"spi_min,omitempty"`
	SPIMax             *float64             `json:"spi_max,omitempty"`
	ImpactFormula      string               `json:"impact_formula"`
	DefaultUrgencyDays int                  `json:"default_urgency_days"`
	Schema             map[string]ParamSpec `json:"parameter_schema"`
}

// User profiles for recommendations.
const (
	ProfileGovernment = "government"
	ProfileIndustry   = "industry"
)

// Parameterization methods.
const (
	MethodAI       = "ai"
	MethodFallback = "fallback"
)

// ExpectedEffect is the projected benefit of an action instance.
type ExpectedEffect struct {
	DaysGained float64 `json:"days_gained"`
	Confidence string  `json:"confidence"` // low, medium, high
}

// ActionInstance is an archetype bound to a zone, profile and parameter set.
type ActionInstance struct {
	ID            string                 `json:"id" db:"id"`
	ArchetypeCode string                 `json:"archetype_code" db:"archetype_code"`
	ZoneID        string                 `json:"zone_id" db:"zone_id"`
	Profile       string                 `json:"profile" db:"profile"`
	Parameters    map[string]interface{} `json:"parameters" db:"-"`
	Justification string                 `json:"justification" db:"justification"`
	Effect        ExpectedEffect         `json:"expected_effect" db:"-"`
	PriorityScore float64                `json:"priority_score" db:"priority_score"`
	Method        string                 `json:"method" db:"method"` // ai, fallback
	CreatedAt     time.Time              `json:"created_at" db:"created_at"`
}
