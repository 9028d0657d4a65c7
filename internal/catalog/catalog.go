// Package catalog holds the static table of response action archetypes.
// The table is process-wide, read-only after init, and safe to share across
// concurrent requests without locks.
package catalog

import (
	"github.com/droughtwatch/droughtwatch-backend/internal/models"
	"github.com/droughtwatch/droughtwatch-backend/internal/pkg/apperr"
)

var (
	byCode map[string]models.ActionArchetype
	byTag  map[string][]models.ActionArchetype
)

func init() {
	byCode = make(map[string]models.ActionArchetype, len(archetypes))
	byTag = make(map[string][]models.ActionArchetype)
	for _, a := range archetypes {
		byCode[a.Code] = a
		byTag[a.HeuristicTag] = append(byTag[a.HeuristicTag], a)
	}
}

// ByCode looks up an archetype by its unique code.
func ByCode(code string) (models.ActionArchetype, error) {
	a, ok := byCode[code]
	if !ok {
		return models.ActionArchetype{}, apperr.Ef(apperr.ErrNotFound, "catalog.ByCode",
			"no action archetype with code %q", code)
	}
	return a, nil
}

// ByTag returns all archetypes for a heuristic tag.
func ByTag(tag string) []models.ActionArchetype {
	return byTag[tag]
}

// ApplicableAt returns archetypes whose SPI applicability range contains the
// given SPI. A nil SPIMin means no lower bound, nil SPIMax no upper bound.
func ApplicableAt(spi float64) []models.ActionArchetype {
	var out []models.ActionArchetype
	for _, a := range archetypes {
		if a.SPIMin != nil && spi < *a.SPIMin {
			continue
		}
		if a.SPIMax != nil && spi > *a.SPIMax {
			continue
		}
		out = append(out, a)
	}
	return out
}

// All returns the full catalog in declaration order.
func All() []models.ActionArchetype {
	out := make([]models.ActionArchetype, len(archetypes))
	copy(out, archetypes)
	return out
}
