// Package scoring resolves claim identifiers against the catalog and computes
// the points each claim is worth.
package scoring

import (
	"github.com/remoterob/fish-bingo/internal/domain/catalog"
	"github.com/remoterob/fish-bingo/internal/domain/model"
	"github.com/remoterob/fish-bingo/internal/domain/slug"
)

// FirstTimeMultiplier is applied to species claims flagged as a diver's first.
const FirstTimeMultiplier = 2

// ResolutionOrder is the order in which indices are consulted. The first hit
// wins, so an identifier present in both catalogs always scores as a bonus.
var ResolutionOrder = []model.ResolutionKind{model.BonusResolution, model.SpeciesResolution}

// DefaultExemptSlugs lists species that never earn the first-time multiplier.
var DefaultExemptSlugs = []string{"rescue", "dishes"}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithExemptSlugs replaces the set of species excluded from the first-time
// multiplier. Slugs are normalised; blank values are dropped.
func WithExemptSlugs(slugs ...string) Option {
	return func(s *Scorer) {
		s.exempt = exemptSet(slugs)
	}
}

// Scorer computes claim points against one catalog index. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	index  *catalog.Index
	exempt map[string]struct{}
}

// New creates a Scorer over index.
func New(index *catalog.Index, opts ...Option) *Scorer {
	s := &Scorer{
		index:  index,
		exempt: exemptSet(DefaultExemptSlugs),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the catalog index the scorer resolves against.
func (s *Scorer) Index() *catalog.Index { return s.index }

// Resolve looks raw up following ResolutionOrder.
func (s *Scorer) Resolve(raw string) (model.Resolution, int) {
	if slug.Normalize(raw) == "" || s.index == nil {
		return model.Resolution{Kind: model.Unresolved}, 0
	}
	for _, kind := range ResolutionOrder {
		switch kind {
		case model.BonusResolution:
			if b, ok := s.index.Bonuses().Lookup(raw); ok {
				return model.Resolution{Kind: kind, Slug: b.Slug, Name: b.Title}, b.Points
			}
		case model.SpeciesResolution:
			if e, ok := s.index.Species().Lookup(raw); ok {
				return model.Resolution{Kind: kind, Slug: e.Slug, Name: e.Name}, e.Points
			}
		}
	}
	return model.Resolution{Kind: model.Unresolved}, 0
}

// Score computes the points for a single claim. Unknown identifiers score zero
// and are reported as unresolved; they are never an error.
func (s *Scorer) Score(c model.Claim) model.ScoredClaim {
	res, base := s.Resolve(c.Identifier)
	out := model.ScoredClaim{Claim: c, Resolution: res, Points: base}
	if res.Kind == model.SpeciesResolution && c.FirstTime && s.multiplies(c.Identifier, res.Slug) {
		out.Points = base * FirstTimeMultiplier
		out.Doubled = true
	}
	return out
}

// ScoreAll scores claims in order.
func (s *Scorer) ScoreAll(claims []model.Claim) []model.ScoredClaim {
	out := make([]model.ScoredClaim, len(claims))
	for i, c := range claims {
		out[i] = s.Score(c)
	}
	return out
}

// Exempt reports whether raw names a species excluded from the multiplier.
func (s *Scorer) Exempt(raw string) bool {
	for _, a := range slug.Aliases(raw) {
		if _, ok := s.exempt[a]; ok {
			return true
		}
	}
	return false
}

func (s *Scorer) multiplies(raw, canonical string) bool {
	if slug.HasBonusPrefix(raw) {
		return false
	}
	return !s.Exempt(raw) && !s.Exempt(canonical)
}

func exemptSet(slugs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(slugs)*2)
	for _, raw := range slugs {
		for _, a := range slug.Aliases(raw) {
			set[a] = struct{}{}
		}
	}
	return set
}
