package leaderboard

import (
	"strings"

	"github.com/remoterob/fish-bingo/internal/domain/model"
)

// DiverCard is one diver's claims split by how they resolved.
type DiverCard struct {
	UserID        string              `json:"id"`
	Catches       []model.ScoredClaim `json:"catches"`
	Bonuses       []model.ScoredClaim `json:"bonuses"`
	Unresolved    []model.ScoredClaim `json:"unresolved"`
	SpeciesPoints int                 `json:"species_points"`
	BonusPoints   int                 `json:"bonus_points"`
	Total         int                 `json:"total"`
}

// Claims returns the number of claims on the card.
func (d DiverCard) Claims() int {
	return len(d.Catches) + len(d.Bonuses) + len(d.Unresolved)
}

// Breakdown collects userID's scored claims into a DiverCard, keeping input
// order within each section. Its Total always matches the diver's
// leaderboard score over the same claims.
func Breakdown(userID string, scored []model.ScoredClaim) DiverCard {
	uid := strings.TrimSpace(userID)
	card := DiverCard{
		UserID:     uid,
		Catches:    []model.ScoredClaim{},
		Bonuses:    []model.ScoredClaim{},
		Unresolved: []model.ScoredClaim{},
	}
	if uid == "" {
		return card
	}
	for _, sc := range scored {
		if strings.TrimSpace(sc.Claim.UserID) != uid {
			continue
		}
		switch sc.Resolution.Kind {
		case model.SpeciesResolution:
			card.Catches = append(card.Catches, sc)
			card.SpeciesPoints += sc.Points
		case model.BonusResolution:
			card.Bonuses = append(card.Bonuses, sc)
			card.BonusPoints += sc.Points
		default:
			card.Unresolved = append(card.Unresolved, sc)
		}
	}
	card.Total = card.SpeciesPoints + card.BonusPoints
	return card
}
