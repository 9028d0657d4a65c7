package param

import (
	"fmt"
	"sort"
	"strings"

	"github.com/droughtwatch/droughtwatch-backend/internal/heuristics"
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
)

const systemPrompt = `You are a drought response planning assistant. Given the
current drought context and one response action, choose concrete parameter
values inside the declared ranges. Respond with a single JSON object:
{"parameters": {...}, "justification": "...", "expected_effect": {"days_gained": N, "confidence": "low|medium|high"}}
Do not include any text outside the JSON object.`

// buildUserPrompt renders the context summary, archetype metadata, schema
// ranges and heuristic defaults. Sections are ordered and keys sorted so the
// same inputs always produce the same prompt.
func buildUserPrompt(dctx *models.DroughtContext, arch models.ActionArchetype, rec heuristics.Recommendation) string {
	var b strings.Builder

	b.WriteString("## Drought context\n")
	fmt.Fprintf(&b, "zone: %s, profile: %s\n", dctx.ZoneSlug, dctx.Profile)
	fmt.Fprintf(&b, "risk: %s, trend: %s\n", dctx.RiskLevel, dctx.Trend)
	for _, s := range []struct {
		name string
		val  *float64
	}{
		{"SPI-1", dctx.SPI1}, {"SPI-3", dctx.SPI3}, {"SPI-6", dctx.SPI6},
		{"SPI-12", dctx.SPI12}, {"SPI-24", dctx.SPI24}, {"SPI-48", dctx.SPI48},
	} {
		if s.val != nil {
			fmt.Fprintf(&b, "%s: %.2f\n", s.name, *s.val)
		}
	}
	if dctx.DaysToCritical != nil {
		fmt.Fprintf(&b, "days to critical: %d\n", *dctx.DaysToCritical)
	}
	if dctx.IsCriticalWindow {
		fmt.Fprintf(&b, "critical crop window: %s\n", strings.Join(dctx.CropsAffected, ", "))
	}

	b.WriteString("\n## Action\n")
	fmt.Fprintf(&b, "code: %s\ntitle: %s\nimpact: %s\nactivate within: %d days\n",
		arch.Code, arch.Title, arch.ImpactFormula, arch.DefaultUrgencyDays)
	fmt.Fprintf(&b, "rule rationale: %s\n", rec.Justification)

	b.WriteString("\n## Parameter schema\n")
	names := make([]string, 0, len(arch.Schema))
	for name := range arch.Schema {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		spec := arch.Schema[name]
		switch spec.Kind {
		case models.ParamNumeric:
			fmt.Fprintf(&b, "%s: numeric in [%g, %g]", name, spec.Min, spec.Max)
		case models.ParamEnum:
			fmt.Fprintf(&b, "%s: one of [%s]", name, strings.Join(spec.Options, ", "))
		case models.ParamBool:
			fmt.Fprintf(&b, "%s: boolean", name)
		}
		if d, ok := rec.Defaults[name]; ok {
			fmt.Fprintf(&b, " (suggested: %v)", d)
		} else if spec.Default != nil {
			fmt.Fprintf(&b, " (default: %v)", spec.Default)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
