// Package leaderboard folds scored claims into per-diver standings and derives
// the grouped, club and per-diver views from them.
//
// Every function here is a pure transformation over its inputs: running it
// twice over the same snapshot yields identical output.
package leaderboard

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/remoterob/fish-bingo/internal/domain/model"
	"github.com/remoterob/fish-bingo/internal/domain/scoring"
)

// Demographics supplies profile data joined onto leaderboard rows.
type Demographics interface {
	Lookup(userID string) (model.Profile, bool)
}

// ProfileMap is a Demographics backed by a map keyed by user id.
type ProfileMap map[string]model.Profile

// Lookup implements Demographics.
func (m ProfileMap) Lookup(userID string) (model.Profile, bool) {
	p, ok := m[userID]
	return p, ok
}

// NewProfileMap indexes profiles by user id. Later duplicates replace earlier ones.
func NewProfileMap(profiles []model.Profile) ProfileMap {
	m := make(ProfileMap, len(profiles))
	for _, p := range profiles {
		if p.UserID != "" {
			m[p.UserID] = p
		}
	}
	return m
}

// DemographicsFunc adapts a function to the Demographics interface.
type DemographicsFunc func(userID string) (model.Profile, bool)

// Lookup implements Demographics.
func (f DemographicsFunc) Lookup(userID string) (model.Profile, bool) { return f(userID) }

// Result is the outcome of an aggregation pass.
type Result struct {
	Rows []model.LeaderboardRow
	// Skipped counts claims dropped for lack of a user id.
	Skipped int
}

// Aggregate scores claims and folds them into sorted leaderboard rows.
func Aggregate(claims []model.Claim, scorer *scoring.Scorer, demo Demographics) Result {
	return AggregateScored(scorer.ScoreAll(claims), demo)
}

// AggregateScored folds already scored claims into sorted leaderboard rows.
// Unresolved claims add nothing to the score but still count as claims.
func AggregateScored(scored []model.ScoredClaim, demo Demographics) Result {
	type tally struct{ score, claims int }

	var (
		order   []string
		tallies = make(map[string]*tally)
		skipped int
	)
	for _, sc := range scored {
		uid := strings.TrimSpace(sc.Claim.UserID)
		if uid == "" {
			skipped++
			continue
		}
		t, ok := tallies[uid]
		if !ok {
			t = &tally{}
			tallies[uid] = t
			order = append(order, uid)
		}
		t.score += sc.Points
		t.claims++
	}

	rows := make([]model.LeaderboardRow, 0, len(order))
	for _, uid := range order {
		t := tallies[uid]
		row := model.LeaderboardRow{UserID: uid, Score: t.score, Claims: t.claims}
		var p model.Profile
		if demo != nil {
			p, _ = demo.Lookup(uid)
		}
		row.Name = orDefault(p.DisplayName, model.DefaultDisplayName)
		row.Gender = orDefault(p.Gender, model.Unknown)
		row.Club = orDefault(p.Club, model.Unknown)
		row.AgeGroup = orDefault(p.AgeGroup, model.Unknown)
		rows = append(rows, row)
	}

	SortRows(rows)
	return Result{Rows: rows, Skipped: skipped}
}

// SortRows orders rows by score descending, then display name using English
// collation, then user id so ties are always broken the same way.
func SortRows(rows []model.LeaderboardRow) {
	// Collators keep internal buffers and are not safe to share.
	c := collate.New(language.English)
	slices.SortStableFunc(rows, func(a, b model.LeaderboardRow) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if n := c.CompareString(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.UserID, b.UserID)
	})
}

// RankOf returns the 1-based position of userID in sorted rows.
func RankOf(rows []model.LeaderboardRow, userID string) (int, bool) {
	for i, r := range rows {
		if r.UserID == userID {
			return i + 1, true
		}
	}
	return 0, false
}

// Top returns at most n leading rows. A non-positive n returns every row.
func Top(rows []model.LeaderboardRow, n int) []model.LeaderboardRow {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
