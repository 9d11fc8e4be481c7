// Package catalog builds the immutable species and bonus lookup indices the
// scoring engine resolves claim identifiers against.
//
// Catalog files arrive in several shapes (arrays of entries, objects keyed by
// slug, arbitrarily nested bonus groupings) and spell identity with different
// field names. Build folds all of them into two alias tables keyed by every
// normalised spelling of every identity field. The first entry to claim an
// alias keeps it.
package catalog

import (
	"fmt"
	"math"
	"slices"

	"github.com/remoterob/fish-bingo/internal/domain/slug"
)

// Field priority lists. Order matters: the first non-empty identity field
// becomes the canonical slug and the first numeric point field the value.
var (
	speciesIdentityFields = []string{"slug", "key", "species_slug", "species", "name", "common_name", "title"}
	speciesPointFields    = []string{"points", "score", "base_points", "basePoints"}
	speciesNameFields     = []string{"common_name", "name", "title"}

	bonusIdentityFields = []string{"bonus_slug", "bonusSlug", "slug", "key", "name", "title"}
	bonusPointFields    = []string{"points", "score", "bonus", "value"}
	bonusTitleFields    = []string{"title", "name"}
	bonusAliasFields    = append(slices.Clone(bonusIdentityFields), "id")
	bonusRequiredFields = []string{"species", "required", "required_species"}
)

// SpeciesEntry is a claimable species. Slices are shared with the index and
// must be treated as read-only.
type SpeciesEntry struct {
	Slug    string   `json:"slug"`
	Name    string   `json:"name"`
	Points  int      `json:"points"`
	Aliases []string `json:"aliases"`
}

// BonusEntry is a themed challenge worth a fixed number of points once every
// required species has been claimed. RequiredNames holds display names as
// written in the catalog; they are resolved against the species index lazily.
type BonusEntry struct {
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Points        int      `json:"points"`
	RequiredNames []string `json:"required_names"`
	Month         int      `json:"month,omitempty"`
	Aliases       []string `json:"aliases"`
}

// Diagnostics summarises how a build went, for catalog authors.
type Diagnostics struct {
	SpeciesEntries    int `json:"species_entries"`
	BonusEntries      int `json:"bonus_entries"`
	SpeciesCollisions int `json:"species_collisions"`
	BonusCollisions   int `json:"bonus_collisions"`
	SkippedSpecies    int `json:"skipped_species"`
}

// aliasTable maps alias keys to entries with first-writer-wins semantics.
type aliasTable[E any] struct {
	byAlias    map[string]int
	entries    []E
	collisions int
}

func newAliasTable[E any]() aliasTable[E] {
	return aliasTable[E]{byAlias: make(map[string]int)}
}

// add appends e and registers each alias that is still free. Aliases already
// owned by an earlier entry are left alone and counted as collisions.
func (t *aliasTable[E]) add(e E, aliases []string) {
	idx := len(t.entries)
	t.entries = append(t.entries, e)
	for _, a := range aliases {
		owner, taken := t.byAlias[a]
		if !taken {
			t.byAlias[a] = idx
			continue
		}
		if owner != idx {
			t.collisions++
		}
	}
}

func (t *aliasTable[E]) lookup(raw string) (E, bool) {
	for _, a := range slug.Aliases(raw) {
		if idx, ok := t.byAlias[a]; ok {
			return t.entries[idx], true
		}
	}
	var zero E
	return zero, false
}

// SpeciesIndex resolves identifiers to species entries.
type SpeciesIndex struct {
	table aliasTable[SpeciesEntry]
}

// Lookup resolves raw through its alias forms.
func (x *SpeciesIndex) Lookup(raw string) (SpeciesEntry, bool) {
	return x.table.lookup(raw)
}

// Entries returns the species in catalog order.
func (x *SpeciesIndex) Entries() []SpeciesEntry {
	return slices.Clone(x.table.entries)
}

// Len returns the number of species entries.
func (x *SpeciesIndex) Len() int { return len(x.table.entries) }

// BonusIndex resolves identifiers to bonus entries.
type BonusIndex struct {
	table aliasTable[BonusEntry]
}

// Lookup resolves raw through its alias forms.
func (x *BonusIndex) Lookup(raw string) (BonusEntry, bool) {
	return x.table.lookup(raw)
}

// Entries returns the bonuses in catalog order.
func (x *BonusIndex) Entries() []BonusEntry {
	return slices.Clone(x.table.entries)
}

// Len returns the number of bonus entries.
func (x *BonusIndex) Len() int { return len(x.table.entries) }

// ForMonth returns the monthly bonus rows for calendar month m (1-12).
func (x *BonusIndex) ForMonth(m int) []BonusEntry {
	var out []BonusEntry
	for _, e := range x.table.entries {
		if e.Month == m && m != 0 {
			out = append(out, e)
		}
	}
	return out
}

// Index bundles the species and bonus indices built from one catalog snapshot.
// It is never mutated after Build returns; rebuild to pick up catalog changes.
type Index struct {
	species     *SpeciesIndex
	bonus       *BonusIndex
	diagnostics Diagnostics
}

// Species returns the species index.
func (x *Index) Species() *SpeciesIndex { return x.species }

// Bonuses returns the bonus index.
func (x *Index) Bonuses() *BonusIndex { return x.bonus }

// Diagnostics reports entry, collision and skip counts from the build.
func (x *Index) Diagnostics() Diagnostics { return x.diagnostics }

// Build constructs an Index from parsed species and bonus sources. A nil
// source is a construction failure: an empty index would quietly score every
// claim as unresolved.
func Build(species, bonus Node) (*Index, error) {
	if species == nil {
		return nil, fmt.Errorf("%w: species source is nil", ErrMalformedSource)
	}
	if bonus == nil {
		return nil, fmt.Errorf("%w: bonus source is nil", ErrMalformedSource)
	}

	sb := speciesBuilder{table: newAliasTable[SpeciesEntry]()}
	if rec, ok := species.(*Record); ok && firstIdentity(rec, speciesIdentityFields) != "" {
		// A lone entry object rather than a collection of them.
		sb.add(rec, "")
	} else {
		sb.collect(species)
	}
	if len(sb.table.entries) == 0 && !isEmpty(species) {
		return nil, fmt.Errorf("%w: species source has no usable entries", ErrMalformedSource)
	}

	bb := bonusBuilder{table: newAliasTable[BonusEntry]()}
	bb.visit(bonus)

	return &Index{
		species: &SpeciesIndex{table: sb.table},
		bonus:   &BonusIndex{table: bb.table},
		diagnostics: Diagnostics{
			SpeciesEntries:    len(sb.table.entries),
			BonusEntries:      len(bb.table.entries),
			SpeciesCollisions: sb.table.collisions,
			BonusCollisions:   bb.table.collisions,
			SkippedSpecies:    sb.skipped,
		},
	}, nil
}

// BuildJSON parses both catalog documents and builds the index.
func BuildJSON(speciesJSON, bonusJSON []byte, opts ...Option) (*Index, error) {
	species, err := ParseJSON(speciesJSON, opts...)
	if err != nil {
		return nil, fmt.Errorf("species catalog: %w", err)
	}
	bonus, err := ParseJSON(bonusJSON, opts...)
	if err != nil {
		return nil, fmt.Errorf("bonus catalog: %w", err)
	}
	return Build(species, bonus)
}

// BuildFromValues converts decoded Go values and builds the index.
func BuildFromValues(species, bonus any, opts ...Option) (*Index, error) {
	s, err := FromValue(species, opts...)
	if err != nil {
		return nil, fmt.Errorf("species catalog: %w", err)
	}
	b, err := FromValue(bonus, opts...)
	if err != nil {
		return nil, fmt.Errorf("bonus catalog: %w", err)
	}
	return Build(s, b)
}

type speciesBuilder struct {
	table   aliasTable[SpeciesEntry]
	skipped int
}

// collect walks the species source. Records directly under a mapping are
// entries keyed by their mapping key; sequences (at the root or under a
// grouping key) hold unkeyed entries.
func (b *speciesBuilder) collect(n Node) {
	switch t := n.(type) {
	case *Sequence:
		for _, item := range t.Items {
			switch it := item.(type) {
			case *Record:
				b.add(it, "")
			case *Sequence:
				b.collect(it)
			}
		}
	case *Record:
		for _, child := range t.Children {
			switch c := child.(type) {
			case *Record:
				b.add(c, c.Key)
			case *Sequence:
				b.collect(c)
			}
		}
	}
}

func (b *speciesBuilder) add(rec *Record, mapKey string) {
	identity := firstIdentity(rec, speciesIdentityFields)
	if identity == "" && slug.Normalize(mapKey) != "" {
		identity = mapKey
	}
	if identity == "" {
		b.skipped++
		return
	}

	name := firstText(rec, speciesNameFields)
	if name == "" {
		name = identity
	}

	keys := make([]string, 0, len(speciesIdentityFields)+2)
	keys = append(keys, identity)
	for _, f := range speciesIdentityFields {
		keys = append(keys, rec.Text(f))
	}
	keys = append(keys, mapKey)

	aliases := aliasesOf(keys)
	b.table.add(SpeciesEntry{
		Slug:    slug.Normalize(identity),
		Name:    name,
		Points:  firstPoints(rec, speciesPointFields),
		Aliases: aliases,
	}, aliases)
}

type bonusBuilder struct {
	table aliasTable[BonusEntry]
}

// visit walks the bonus tree depth-first in document order. Any record with
// both an identity and a point-like field is a bonus; its children are still
// visited so bonuses may nest under other bonuses or arbitrary groupings.
func (b *bonusBuilder) visit(n Node) {
	switch t := n.(type) {
	case *Sequence:
		for _, item := range t.Items {
			b.visit(item)
		}
	case *Record:
		b.add(t)
		for _, child := range t.Children {
			b.visit(child)
		}
	}
}

func (b *bonusBuilder) add(rec *Record) {
	identity := firstIdentity(rec, bonusIdentityFields)
	if identity == "" || !hasAny(rec, bonusPointFields) {
		return
	}

	title := firstText(rec, bonusTitleFields)
	if title == "" {
		title = identity
	}

	var required []string
	for _, f := range bonusRequiredFields {
		if names := rec.Strings(f); len(names) > 0 {
			required = names
			break
		}
	}

	month := 0
	if m, ok := rec.Number("month"); ok && m >= 1 && m <= 12 {
		month = int(m)
	}

	keys := []string{identity}
	for _, f := range bonusAliasFields {
		keys = append(keys, rec.Text(f))
	}

	aliases := aliasesOf(keys)
	b.table.add(BonusEntry{
		Slug:          slug.Normalize(identity),
		Title:         title,
		Points:        firstPoints(rec, bonusPointFields),
		RequiredNames: required,
		Month:         month,
		Aliases:       aliases,
	}, aliases)
}

func firstIdentity(rec *Record, fields []string) string {
	for _, f := range fields {
		if v := rec.Text(f); slug.Normalize(v) != "" {
			return v
		}
	}
	return ""
}

func firstText(rec *Record, fields []string) string {
	for _, f := range fields {
		if v := rec.Text(f); v != "" {
			return v
		}
	}
	return ""
}

func hasAny(rec *Record, fields []string) bool {
	for _, f := range fields {
		if rec.Has(f) {
			return true
		}
	}
	return false
}

// MaxPoints caps catalog point values so doubling and summing stay in range.
const MaxPoints = math.MaxInt32

// firstPoints returns the first numeric value among fields, rounded and
// clamped to [0, MaxPoints]. Missing or non-numeric values fall through to 0.
func firstPoints(rec *Record, fields []string) int {
	for _, f := range fields {
		if v, ok := rec.Number(f); ok {
			switch {
			case math.IsNaN(v), v <= 0:
				return 0
			case v >= MaxPoints:
				return MaxPoints
			}
			return int(math.Round(v))
		}
	}
	return 0
}

// isEmpty reports whether n holds no items, fields or children.
func isEmpty(n Node) bool {
	switch t := n.(type) {
	case *Sequence:
		return len(t.Items) == 0 && len(t.Values) == 0
	case *Record:
		return len(t.scalars) == 0 && len(t.seqs) == 0 && len(t.Children) == 0
	}
	return true
}

// aliasesOf expands every non-empty key into its alias forms, de-duplicated in
// first-seen order.
func aliasesOf(keys []string) []string {
	seen := make(map[string]struct{}, len(keys)*2)
	out := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		for _, a := range slug.Aliases(k) {
			if _, dup := seen[a]; dup {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}
