// Package param turns recommended actions into parameterized ActionInstances,
// via the LLM when one is configured and via a deterministic fallback
// otherwise. Fallback output depends only on the archetype schema and the
// context trend, so repeated runs produce identical instances.
package param

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/droughtwatch/droughtwatch-backend/internal/catalog"
	"github.com/droughtwatch/droughtwatch-backend/internal/heuristics"
	"github.com/droughtwatch/droughtwatch-backend/internal/llm"
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/metrics"
)

// daysGainedRe extracts the "+N days" clause from an impact formula.
var daysGainedRe = regexp.MustCompile(`\+(\d+)\s*days`)

// Parameterizer binds recommendations to concrete parameter values. A nil
// complete function disables the AI path entirely.
type Parameterizer struct {
	complete llm.CompletionFunc
	logger   *slog.Logger
}

func New(complete llm.CompletionFunc, logger *slog.Logger) *Parameterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parameterizer{complete: complete, logger: logger}
}

// aiResponse is the JSON shape the LLM is asked to produce.
type aiResponse struct {
	Parameters     map[string]interface{} `json:"parameters"`
	Justification  string                 `json:"justification"`
	ExpectedEffect struct {
		DaysGained float64 `json:"days_gained"`
		Confidence string  `json:"confidence"`
	} `json:"expected_effect"`
}

// Parameterize produces one ActionInstance for a recommendation. AI failures
// degrade silently to the deterministic fallback.
func (p *Parameterizer) Parameterize(ctx context.Context, dctx *models.DroughtContext, rec heuristics.Recommendation) models.ActionInstance {
	arch, err := catalog.ByCode(rec.ActionCode)
	if err != nil {
		// Rules only emit catalogued codes; an unknown code is a registry bug.
		p.logger.Error("recommendation references unknown archetype", "code", rec.ActionCode, "error", err)
		return models.ActionInstance{}
	}

	inst := models.ActionInstance{
		ArchetypeCode: arch.Code,
		Profile:       dctx.Profile,
		PriorityScore: rec.Priority,
		CreatedAt:     time.Now().UTC(),
	}

	if p.complete != nil && ctx.Err() == nil {
		if ok := p.parameterizeAI(ctx, dctx, arch, rec, &inst); ok {
			metrics.LLMCallsTotal.WithLabelValues(models.MethodAI).Inc()
			return inst
		}
	}

	inst.Method = models.MethodFallback
	inst.Parameters = fallbackParams(arch.Schema, dctx.Trend)
	inst.Justification = rec.Justification
	inst.Effect = fallbackEffect(arch.ImpactFormula)
	metrics.LLMCallsTotal.WithLabelValues(models.MethodFallback).Inc()
	return inst
}

func (p *Parameterizer) parameterizeAI(ctx context.Context, dctx *models.DroughtContext, arch models.ActionArchetype, rec heuristics.Recommendation, inst *models.ActionInstance) bool {
	content, err := p.complete(ctx, systemPrompt, buildUserPrompt(dctx, arch, rec))
	if err != nil {
		p.logger.Warn("LLM call failed, using fallback", "action", arch.Code, "error", err)
		return false
	}
	var resp aiResponse
	if err := json.Unmarshal([]byte(llm.StripFences(content)), &resp); err != nil {
		p.logger.Warn("unparseable LLM response, using fallback", "action", arch.Code, "error", err)
		return false
	}

	inst.Method = models.MethodAI
	inst.Parameters = clampParams(arch.Schema, resp.Parameters, rec.Defaults, dctx.Trend)
	inst.Justification = resp.Justification
	if inst.Justification == "" {
		inst.Justification = rec.Justification
	}
	inst.Effect = models.ExpectedEffect{
		DaysGained: resp.ExpectedEffect.DaysGained,
		Confidence: resp.ExpectedEffect.Confidence,
	}
	if inst.Effect.DaysGained < 0 || !validConfidence(inst.Effect.Confidence) {
		inst.Effect = fallbackEffect(arch.ImpactFormula)
	}
	return true
}

// Batch parameterizes independent recommendations in parallel. When the
// request deadline expires mid-batch, remaining actions fall back without
// waiting on the LLM.
func (p *Parameterizer) Batch(ctx context.Context, dctx *models.DroughtContext, recs []heuristics.Recommendation) []models.ActionInstance {
	out := make([]models.ActionInstance, len(recs))
	var wg sync.WaitGroup
	for i, rec := range recs {
		wg.Add(1)
		go func(i int, rec heuristics.Recommendation) {
			defer wg.Done()
			out[i] = p.Parameterize(ctx, dctx, rec)
		}(i, rec)
	}
	wg.Wait()

	kept := out[:0]
	for _, inst := range out {
		if inst.ArchetypeCode != "" {
			kept = append(kept, inst)
		}
	}
	return kept
}

// clampParams validates AI-proposed values against the schema: numerics are
// clamped to [min, max] (coerced to int for integer bounds), enumerations
// outside options fall back to the declared default or first option, and
// missing schema parameters are filled from heuristic defaults, then the
// schema default, then the trend fallback.
func clampParams(schema map[string]models.ParamSpec, raw, heuristicDefaults map[string]interface{}, trend string) map[string]interface{} {
	out := make(map[string]interface{}, len(schema))
	for name, spec := range schema {
		v, ok := raw[name]
		if !ok {
			if hv, hok := heuristicDefaults[name]; hok {
				v, ok = hv, true
			} else if spec.Default != nil {
				v, ok = spec.Default, true
			}
		}
		if !ok {
			out[name] = fallbackValue(spec, trend)
			continue
		}
		out[name] = clampValue(spec, v, trend)
	}
	return out
}

func clampValue(spec models.ParamSpec, v interface{}, trend string) interface{} {
	switch spec.Kind {
	case models.ParamNumeric:
		f, ok := asFloat(v)
		if !ok {
			return fallbackValue(spec, trend)
		}
		if f < spec.Min {
			f = spec.Min
		}
		if f > spec.Max {
			f = spec.Max
		}
		if spec.IntegerBounds() {
			return int(math.Round(f))
		}
		return f
	case models.ParamEnum:
		s, ok := v.(string)
		if ok {
			for _, opt := range spec.Options {
				if s == opt {
					return s
				}
			}
		}
		if d, ok := spec.Default.(string); ok {
			return d
		}
		if len(spec.Options) > 0 {
			return spec.Options[0]
		}
		return ""
	case models.ParamBool:
		if b, ok := v.(bool); ok {
			return b
		}
		if d, ok := spec.Default.(bool); ok {
			return d
		}
		return trend == models.TrendWorsening
	}
	return v
}

// fallbackParams derives the deterministic parameter set from the trend:
// WORSENING picks the 75th percentile of each range, STABLE the midpoint,
// IMPROVING the 25th.
func fallbackParams(schema map[string]models.ParamSpec, trend string) map[string]interface{} {
	out := make(map[string]interface{}, len(schema))
	for name, spec := range schema {
		out[name] = fallbackValue(spec, trend)
	}
	return out
}

func fallbackValue(spec models.ParamSpec, trend string) interface{} {
	pct := 0.50
	switch trend {
	case models.TrendWorsening:
		pct = 0.75
	case models.TrendImproving:
		pct = 0.25
	}
	switch spec.Kind {
	case models.ParamNumeric:
		v := spec.Min + (spec.Max-spec.Min)*pct
		if spec.IntegerBounds() {
			return int(math.Round(v))
		}
		return v
	case models.ParamEnum:
		if len(spec.Options) == 0 {
			return ""
		}
		switch trend {
		case models.TrendWorsening:
			return spec.Options[len(spec.Options)-1]
		case models.TrendImproving:
			return spec.Options[0]
		default:
			return spec.Options[len(spec.Options)/2]
		}
	case models.ParamBool:
		return trend == models.TrendWorsening
	}
	return nil
}

// fallbackEffect reads the expected benefit from the archetype's impact
// formula; confidence is always low without the LLM.
func fallbackEffect(impactFormula string) models.ExpectedEffect {
	effect := models.ExpectedEffect{Confidence: "low"}
	if m := daysGainedRe.FindStringSubmatch(impactFormula); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			effect.DaysGained = float64(n)
		}
	}
	return effect
}

func validConfidence(c string) bool {
	return c == "low" || c == "medium" || c == "high"
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
