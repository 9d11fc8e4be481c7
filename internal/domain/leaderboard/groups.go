package leaderboard

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/remoterob/fish-bingo/internal/domain/model"
)

// Attribute is a demographic field rows can be partitioned by.
type Attribute string

// Supported grouping attributes.
const (
	AttrGender   Attribute = "gender"
	AttrClub     Attribute = "club"
	AttrAgeGroup Attribute = "age_group"
)

// MinClubMembers is how many members a club needs before its average is published.
const MinClubMembers = 6

// ParseAttribute maps a query value to an Attribute.
func ParseAttribute(s string) (Attribute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gender":
		return AttrGender, nil
	case "club":
		return AttrClub, nil
	case "agegroup", "age_group", "age-group":
		return AttrAgeGroup, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
}

func (a Attribute) of(r model.LeaderboardRow) string {
	var v string
	switch a {
	case AttrGender:
		v = r.Gender
	case AttrClub:
		v = r.Club
	case AttrAgeGroup:
		v = r.AgeGroup
	}
	return orDefault(v, model.Unknown)
}

// GroupBy partitions rows by attr. Each partition keeps the leaderboard order.
func GroupBy(rows []model.LeaderboardRow, attr Attribute) map[string][]model.LeaderboardRow {
	groups := make(map[string][]model.LeaderboardRow)
	for _, r := range rows {
		k := attr.of(r)
		groups[k] = append(groups[k], r)
	}
	for _, g := range groups {
		SortRows(g)
	}
	return groups
}

// SortedKeys returns the group keys in ascending order.
func SortedKeys(groups map[string][]model.LeaderboardRow) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TopPerGroup trims every group to its first n rows.
func TopPerGroup(groups map[string][]model.LeaderboardRow, n int) map[string][]model.LeaderboardRow {
	out := make(map[string][]model.LeaderboardRow, len(groups))
	for k, g := range groups {
		out[k] = slices.Clone(Top(g, n))
	}
	return out
}

// RankClubs summarises clubs from leaderboard rows. Rows without a club are
// ignored. Clubs with at least MinClubMembers members get a rounded average and
// are listed first by average; the rest follow alphabetically with the number
// of members they are still missing.
func RankClubs(rows []model.LeaderboardRow) []model.ClubSummary {
	type agg struct{ sum, count int }

	var names []string
	clubs := make(map[string]*agg)
	for _, r := range rows {
		name := strings.TrimSpace(r.Club)
		if name == "" || strings.EqualFold(name, model.Unknown) {
			continue
		}
		a, ok := clubs[name]
		if !ok {
			a = &agg{}
			clubs[name] = a
			names = append(names, name)
		}
		a.sum += r.Score
		a.count++
	}

	out := make([]model.ClubSummary, 0, len(names))
	for _, name := range names {
		a := clubs[name]
		s := model.ClubSummary{Club: name, Count: a.count}
		if a.count >= MinClubMembers {
			avg := int(math.Round(float64(a.sum) / float64(a.count)))
			s.Average = &avg
			s.Eligible = true
		} else {
			s.Missing = MinClubMembers - a.count
		}
		out = append(out, s)
	}

	c := collate.New(language.English)
	slices.SortStableFunc(out, func(a, b model.ClubSummary) int {
		if a.Eligible != b.Eligible {
			if a.Eligible {
				return -1
			}
			return 1
		}
		if a.Eligible && *a.Average != *b.Average {
			if *a.Average > *b.Average {
				return -1
			}
			return 1
		}
		if n := c.CompareString(a.Club, b.Club); n != 0 {
			return n
		}
		return strings.Compare(a.Club, b.Club)
	})
	return out
}
