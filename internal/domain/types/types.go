// Package types contains the read shapes shared by the service and the API.
package types

import (
	"github.com/remoterob/fish-bingo/internal/domain/bonus"
	"github.com/remoterob/fish-bingo/internal/domain/leaderboard"
	"github.com/remoterob/fish-bingo/internal/domain/model"
)

// Entry is a leaderboard row with its 1-based position.
type Entry struct {
	Rank int `json:"rank"`
	model.LeaderboardRow
}

// Ranked numbers rows by position.
func Ranked(rows []model.LeaderboardRow) []Entry {
	out := make([]Entry, len(rows))
	for i, r := range rows {
		out[i] = Entry{Rank: i + 1, LeaderboardRow: r}
	}
	return out
}

// Group is one demographic bucket. Rank is the position within the bucket.
type Group struct {
	Key     string  `json:"key"`
	Entries []Entry `json:"entries"`
}

// Diver is everything known about one participant.
type Diver struct {
	Entry
	Card leaderboard.DiverCard `json:"card"`
}

// DiverBonuses is a participant's progress through every bonus.
type DiverBonuses struct {
	UserID  string         `json:"id"`
	Month   int            `json:"month,omitempty"` // 0 when every bonus is listed
	Bonuses []bonus.Status `json:"bonuses"`
}

// Suggestion names the catalog species an unresolved identifier most
// likely meant.
type Suggestion struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Unresolved is one identifier that matched nothing in the catalogs.
type Unresolved struct {
	Identifier string      `json:"identifier"`
	Count      int         `json:"count"`
	Users      int         `json:"users"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
}
