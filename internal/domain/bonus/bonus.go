// Package bonus decides how far a diver has progressed through each themed
// bonus, by resolving the bonus's required species names against the species
// catalog and checking them off against the diver's claimed slugs.
package bonus

import (
	"slices"

	"github.com/remoterob/fish-bingo/internal/domain/catalog"
	"github.com/remoterob/fish-bingo/internal/domain/model"
	"github.com/remoterob/fish-bingo/internal/domain/slug"
)

// SpeciesLookup is the read side of a species index.
type SpeciesLookup interface {
	Lookup(raw string) (catalog.SpeciesEntry, bool)
	Entries() []catalog.SpeciesEntry
}

// SlugSet holds normalised slugs a diver has claimed.
type SlugSet map[string]struct{}

// NewSlugSet normalises and collects slugs. Blank values are dropped.
func NewSlugSet(slugs ...string) SlugSet {
	s := make(SlugSet, len(slugs))
	for _, raw := range slugs {
		s.Add(raw)
	}
	return s
}

// Add inserts the canonical form of raw.
func (s SlugSet) Add(raw string) {
	if n := slug.Normalize(raw); n != "" {
		s[n] = struct{}{}
	}
}

// Has reports whether raw, in any alias form, is in the set.
func (s SlugSet) Has(raw string) bool {
	for _, a := range slug.Aliases(raw) {
		if _, ok := s[a]; ok {
			return true
		}
	}
	return false
}

// ClaimedSlugs collects the canonical slugs of every resolved claim.
func ClaimedSlugs(scored []model.ScoredClaim) SlugSet {
	s := make(SlugSet, len(scored))
	for _, sc := range scored {
		if sc.Resolution.Resolved() {
			s.Add(sc.Resolution.Slug)
		}
	}
	return s
}

// Requirement is one required species name and what it resolved to.
type Requirement struct {
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	Loose     bool   `json:"loose,omitempty"` // matched by token subset rather than alias
	Satisfied bool   `json:"satisfied"`
}

// Status is a diver's progress on one bonus.
type Status struct {
	Slug           string        `json:"slug"`
	Title          string        `json:"title"`
	Points         int           `json:"points"`
	Month          int           `json:"month,omitempty"`
	Requirements   []Requirement `json:"requirements"`
	RequiredSlugs  []string      `json:"required_slugs"`
	Unresolved     []string      `json:"unresolved"`
	SatisfiedCount int           `json:"satisfied_count"`
	Complete       bool          `json:"complete"`
	Claimed        bool          `json:"claimed"`
}

// Resolve evaluates entry against the claimed set. A required name that
// resolves to nothing is left out of RequiredSlugs but keeps the bonus from
// completing, since it can never be satisfied.
func Resolve(entry catalog.BonusEntry, claimed SlugSet, species SpeciesLookup) Status {
	st := Status{
		Slug:          entry.Slug,
		Title:         entry.Title,
		Points:        entry.Points,
		Month:         entry.Month,
		Requirements:  make([]Requirement, 0, len(entry.RequiredNames)),
		RequiredSlugs: []string{},
		Unresolved:    []string{},
		Claimed:       claimed.Has(entry.Slug),
	}

	var entries []catalog.SpeciesEntry
	for _, name := range entry.RequiredNames {
		req := Requirement{Name: name}
		if e, ok := species.Lookup(name); ok {
			req.Slug = e.Slug
		} else {
			if entries == nil {
				entries = species.Entries()
			}
			if e, ok := matchTokens(name, entries); ok {
				req.Slug = e.Slug
				req.Loose = true
			}
		}

		if req.Slug == "" {
			st.Unresolved = append(st.Unresolved, name)
		} else {
			st.RequiredSlugs = append(st.RequiredSlugs, req.Slug)
			if claimed.Has(req.Slug) {
				req.Satisfied = true
				st.SatisfiedCount++
			}
		}
		st.Requirements = append(st.Requirements, req)
	}

	st.Complete = len(st.RequiredSlugs) > 0 &&
		st.SatisfiedCount == len(st.RequiredSlugs) &&
		len(st.Unresolved) == 0
	return st
}

// ResolveAll evaluates every bonus in the index in catalog order.
func ResolveAll(index *catalog.Index, claimed SlugSet) []Status {
	return ResolveEntries(index.Bonuses().Entries(), claimed, index.Species())
}

// ResolveEntries evaluates a chosen subset of bonuses, such as one month's rows.
func ResolveEntries(entries []catalog.BonusEntry, claimed SlugSet, species SpeciesLookup) []Status {
	out := make([]Status, 0, len(entries))
	for _, b := range entries {
		out = append(out, Resolve(b, claimed, species))
	}
	return out
}

// matchTokens returns the first entry whose display name contains every
// whitespace token of name.
// TODO: single-token names such as "Snapper" also match "Golden Snapper";
// restrict to entries whose name has the same token count once catalogs
// stop relying on partial names.
func matchTokens(name string, entries []catalog.SpeciesEntry) (catalog.SpeciesEntry, bool) {
	want := slug.Tokens(name)
	if len(want) == 0 {
		return catalog.SpeciesEntry{}, false
	}
	for _, e := range entries {
		have := slug.Tokens(e.Name)
		if containsAll(have, want) {
			return e, true
		}
	}
	return catalog.SpeciesEntry{}, false
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}
