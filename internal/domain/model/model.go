// Package model contains domain models passed between layers.
package model

import "time"

// Defaults applied when demographic data is missing.
const (
	Unknown            = "Unknown"
	DefaultDisplayName = "Diver"
)

// Claim is a single logged catch or bonus as supplied by storage.
// Claims are read-only inside the engine.
type Claim struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"user_id"`
	Identifier string    `json:"species_slug"` // species or bonus slug as asserted by the caller
	FirstTime  bool      `json:"first_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile carries the demographic attributes joined onto leaderboard rows.
type Profile struct {
	UserID      string `json:"id"`
	DisplayName string `json:"display_name"`
	Gender      string `json:"gender"`
	Club        string `json:"club"`
	AgeGroup    string `json:"age_group"`
}

// ResolutionKind tells which catalog a claim identifier resolved against.
type ResolutionKind int

// Resolution kinds.
const (
	Unresolved ResolutionKind = iota
	SpeciesResolution
	BonusResolution
)

func (k ResolutionKind) String() string {
	switch k {
	case SpeciesResolution:
		return "species"
	case BonusResolution:
		return "bonus"
	default:
		return "unresolved"
	}
}

// MarshalText renders the kind by name in JSON payloads.
func (k ResolutionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Resolution is the catalog identity a claim resolved to.
type Resolution struct {
	Kind ResolutionKind `json:"kind"`
	Slug string         `json:"slug,omitempty"`
	Name string         `json:"name,omitempty"`
}

// Resolved reports whether the claim matched a catalog entry.
func (r Resolution) Resolved() bool { return r.Kind != Unresolved }

// ScoredClaim is a claim together with its resolution and point value.
type ScoredClaim struct {
	Claim      Claim      `json:"claim"`
	Resolution Resolution `json:"resolution"`
	Points     int        `json:"points"`
	Doubled    bool       `json:"doubled"` // first-time multiplier applied
}

// LeaderboardRow is one participant's aggregated standing. Rank is not stored;
// it is the row's 1-based position in a sorted slice.
type LeaderboardRow struct {
	UserID   string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Claims   int    `json:"claims"`
	Gender   string `json:"gender"`
	Club     string `json:"club"`
	AgeGroup string `json:"age_group"`
}

// ClubSummary is a club's standing. Average is nil while the club is below the
// member threshold, in which case Missing says how many members it still needs.
type ClubSummary struct {
	Club     string `json:"club"`
	Count    int    `json:"count"`
	Average  *int   `json:"avg_score"`
	Missing  int    `json:"missing,omitempty"`
	Eligible bool   `json:"ok"`
}
