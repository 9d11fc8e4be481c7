package catalog

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/remoterob/fish-bingo/internal/domain/slug"
)

// Edit-distance limits for Suggest.
const (
	suggestMaxDistance     = 2
	suggestLongMaxDistance = 3
	suggestLongIdentifier  = 10
)

// Suggest returns the species whose alias is closest to raw by edit distance,
// for reporting likely typos in unresolved claims. It never participates in
// scoring. Ties go to the earlier catalog entry.
func (x *SpeciesIndex) Suggest(raw string) (SpeciesEntry, bool) {
	forms := slug.Aliases(raw)
	if len(forms) == 0 {
		return SpeciesEntry{}, false
	}
	limit := suggestMaxDistance
	if utf8.RuneCountInString(forms[0]) >= suggestLongIdentifier {
		limit = suggestLongMaxDistance
	}

	best, bestDist := -1, limit+1
	for i, e := range x.table.entries {
		for _, a := range e.Aliases {
			for _, f := range forms {
				if d := levenshtein.ComputeDistance(f, a); d < bestDist {
					best, bestDist = i, d
				}
			}
		}
	}
	if best < 0 {
		return SpeciesEntry{}, false
	}
	return x.table.entries[best], true
}
