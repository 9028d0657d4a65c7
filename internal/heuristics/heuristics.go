// Package heuristics holds the activation rules that turn a drought context
// into prioritized action recommendations. Rules are pure functions over a
// read-only context; the registry evaluates all of them, sorts by priority,
// and resolves action-code collisions in favor of the stronger rule.
package heuristics

import (
	"log/slog"
	"sort"

	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/metrics"
)

// Result is one activated rule.
type Result struct {
	RuleID        string                 `json:"rule_id"`
	Tag           string                 `json:"tag"`
	Priority      float64                `json:"priority"`
	ActionCodes   []string               `json:"action_codes"`
	DefaultParams map[string]interface{} `json:"default_parameters,omitempty"`
	Justification string                 `json:"justification"`
}

// Recommendation is an action code claimed by its highest-priority rule.
type Recommendation struct {
	ActionCode    string                 `json:"action_code"`
	RuleID        string                 `json:"rule_id"`
	Priority      float64                `json:"priority"`
	Justification string                 `json:"justification"`
	Defaults      map[string]interface{} `json:"default_parameters,omitempty"`
}

// Rule is a single heuristic. Eval must not mutate the context and must
// return nil when the rule does not activate.
type Rule struct {
	ID   string
	Tag  string
	Eval func(c *models.DroughtContext) *Result
}

// Registry evaluates a fixed rule list. The list order is the tie-break for
// equal priorities.
type Registry struct {
	rules  []Rule
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{rules: allRules(), logger: logger}
}

// Evaluate runs every rule against the context and returns activated results
// sorted by priority descending. Equal priorities keep registry order.
func (r *Registry) Evaluate(c *models.DroughtContext) []Result {
	var out []Result
	for _, rule := range r.rules {
		res := rule.Eval(c)
		if res == nil {
			continue
		}
		metrics.HeuristicActivationsTotal.WithLabelValues(res.RuleID).Inc()
		out = append(out, *res)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	r.logger.Debug("heuristics evaluated", "zone", c.ZoneSlug, "activated", len(out))
	return out
}

// Resolve collapses activated results into one recommendation per action
// code. When two rules emit the same code the higher-priority result wins and
// the weaker rule's rationale for that code is dropped.
func Resolve(results []Result) []Recommendation {
	claimed := make(map[string]bool)
	var out []Recommendation
	for _, res := range results {
		for _, code := range res.ActionCodes {
			if claimed[code] {
				continue
			}
			claimed[code] = true
			out = append(out, Recommendation{
				ActionCode:    code,
				RuleID:        res.RuleID,
				Priority:      res.Priority,
				Justification: res.Justification,
				Defaults:      res.DefaultParams,
			})
		}
	}
	return out
}

// priority combines the rule base with severity, trend, urgency and profile
// components, capped to [0, 100].
func priority(c *models.DroughtContext, base, govBonus, indBonus float64) float64 {
	p := base
	if c.SPI6 != nil && *c.SPI6 < 0 {
		sev := -*c.SPI6 * 10
		if sev > 30 {
			sev = 30
		}
		p += sev
	}
	switch c.Trend {
	case models.TrendWorsening:
		p += 10
	case models.TrendImproving:
		p -= 10
	}
	if c.DaysToCritical != nil {
		switch d := *c.DaysToCritical; {
		case d < 15:
			p += 15
		case d < 30:
			p += 10
		case d < 45:
			p += 5
		}
	}
	switch c.Profile {
	case models.ProfileGovernment:
		p += govBonus
	case models.ProfileIndustry:
		p += indBonus
	}
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}

// Nil-safe accessors. Missing values fail range checks.

func inRange(v *float64, lo, hi float64) bool {
	return v != nil && *v >= lo && *v <= hi
}

func below(v *float64, threshold float64) bool {
	return v != nil && *v < threshold
}

func atMost(v *float64, threshold float64) bool {
	return v != nil && *v <= threshold
}

func daysIn(c *models.DroughtContext, lo, hi int) bool {
	return c.DaysToCritical != nil && *c.DaysToCritical >= lo && *c.DaysToCritical <= hi
}

func daysUnder(c *models.DroughtContext, limit int) bool {
	return c.DaysToCritical != nil && *c.DaysToCritical < limit
}
