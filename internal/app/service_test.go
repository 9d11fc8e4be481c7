package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/remoterob/fish-bingo/internal/adapters/repository"
	service "github.com/remoterob/fish-bingo/internal/app"
	"github.com/remoterob/fish-bingo/internal/domain/leaderboard"
	"github.com/remoterob/fish-bingo/internal/domain/model"
	"github.com/remoterob/fish-bingo/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const speciesJSON = `[
  {"slug": "snapper", "name": "Snapper", "points": 10},
  {"slug": "butterfish", "name": "Butterfish", "points": 20},
  {"slug": "kingfish", "name": "Kingfish", "points": 40},
  {"slug": "rescue", "name": "Rescue", "points": 5}
]`

const bonusJSON = `[
  {"slug": "bonus-pair", "title": "Pair", "points": 40, "species": ["Snapper", "Butterfish"]}
]`

// mutableCatalog lets a test edit the catalog under a running service.
type mutableCatalog struct {
	mu      sync.Mutex
	species string
	bonuses string
	err     error
}

func (m *mutableCatalog) Read(_ context.Context) (repository.CatalogSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return repository.CatalogSnapshot{}, m.err
	}
	return repository.NewSnapshot([]byte(m.species), []byte(m.bonuses)), nil
}

func (m *mutableCatalog) set(species string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.species = species
}

func newStore() *repository.MemoryStore {
	var mu sync.Mutex
	at := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	return repository.NewMemoryStore(repository.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		at = at.Add(time.Minute)
		return at
	}))
}

// seed stores a small season: u1 and u2 tie on 80, u3 trails on 5.
func seed(ctx context.Context, store repository.Store) {
	claims := []model.Claim{
		{UserID: "u1", Identifier: "snapper", FirstTime: true},
		{UserID: "u1", Identifier: "Butterfish"},
		{UserID: "u1", Identifier: "bonus-pair"},
		{UserID: "u2", Identifier: "kingfish", FirstTime: true},
		{UserID: "u2", Identifier: "snaper"},
		{UserID: "u3", Identifier: "rescue", FirstTime: true},
		{UserID: "u3", Identifier: "snaper"},
		{UserID: "u2", Identifier: "Zzzz"},
	}
	for _, c := range claims {
		_, err := store.InsertClaim(ctx, c)
		So(err, ShouldBeNil)
	}
	profiles := []model.Profile{
		{UserID: "u1", DisplayName: "Aroha", Gender: "F", Club: "Reef"},
		{UserID: "u2", DisplayName: "Ben", Gender: "M", Club: "Reef"},
		{UserID: "u3", DisplayName: "Cal"},
	}
	for _, p := range profiles {
		So(store.UpsertProfile(ctx, p), ShouldBeNil)
	}
}

func startService(ctx context.Context, opts ...service.Option) (*service.Service, *mutableCatalog) {
	source := &mutableCatalog{species: speciesJSON, bonuses: bonusJSON}
	store := newStore()
	seed(ctx, store)
	opts = append([]service.Option{
		service.WithLogger(logger.Nop()),
		service.WithStore(store),
		service.WithCatalog(source),
	}, opts...)
	svc := service.New(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc, source
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.MaxLeaderboardLimit(), ShouldEqual, service.DefaultMaxLeaderboardLimit)
		})

		Convey("Then starting without a catalog fails", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, service.ErrNoCatalog), ShouldBeTrue)
		})

		Convey("Then reads before start fail", func() {
			_, err := svc.Leaderboard(context.Background(), 10)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a catalog that does not build", t, func() {
		svc := service.New(
			service.WithLogger(logger.Nop()),
			service.WithCatalog(repository.NewStaticCatalog([]byte(`{oops`), nil)),
		)

		Convey("Then Start reports the build failure", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, service.ErrCatalogBuild), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc, _ := startService(ctx)

		Convey("Then stats describe the catalog", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["catalogFingerprint"], ShouldNotBeEmpty)
			So(stats["catalog"], ShouldNotBeNil)
		})

		Convey("Then starting twice is a no-op", func() {
			So(svc.Start(ctx), ShouldBeNil)
		})

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx := context.Background()
		svc, _ := startService(ctx)
		defer svc.Stop()

		Convey("When reading the whole leaderboard", func() {
			entries, err := svc.Leaderboard(ctx, 0)
			So(err, ShouldBeNil)

			Convey("Then rows are ranked by score then name", func() {
				So(entries, ShouldHaveLength, 3)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].UserID, ShouldEqual, "u1")
				So(entries[0].Score, ShouldEqual, 80)
				So(entries[0].Claims, ShouldEqual, 3)
				So(entries[1].UserID, ShouldEqual, "u2")
				So(entries[1].Score, ShouldEqual, 80)
				So(entries[1].Claims, ShouldEqual, 3)
				So(entries[2].UserID, ShouldEqual, "u3")
				So(entries[2].Score, ShouldEqual, 5)
				So(entries[2].Gender, ShouldEqual, model.Unknown)
			})
		})

		Convey("When a limit is given", func() {
			entries, err := svc.Leaderboard(ctx, 2)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
		})

		Convey("When reading twice", func() {
			first, err := svc.Leaderboard(ctx, 0)
			So(err, ShouldBeNil)
			second, err := svc.Leaderboard(ctx, 0)
			So(err, ShouldBeNil)
			So(second, ShouldResemble, first)
		})
	})

	Convey("Given a service with a small leaderboard cap", t, func() {
		ctx := context.Background()
		svc, _ := startService(ctx, service.WithMaxLeaderboardLimit(1))
		defer svc.Stop()

		entries, err := svc.Leaderboard(ctx, 50)
		So(err, ShouldBeNil)
		So(entries, ShouldHaveLength, 1)
	})

	Convey("Given a service with no exempt species", t, func() {
		ctx := context.Background()
		svc, _ := startService(ctx, service.WithExemptSlugs([]string{}))
		defer svc.Stop()

		entries, err := svc.Leaderboard(ctx, 0)
		So(err, ShouldBeNil)
		So(entries[2].UserID, ShouldEqual, "u3")
		So(entries[2].Score, ShouldEqual, 10)
	})
}

func TestService_GroupsAndClubs(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx := context.Background()
		svc, _ := startService(ctx)
		defer svc.Stop()

		Convey("When grouping by gender", func() {
			groups, err := svc.Groups(ctx, leaderboard.AttrGender, 0)
			So(err, ShouldBeNil)

			Convey("Then groups come back in key order with their own ranks", func() {
				So(groups, ShouldHaveLength, 3)
				So(groups[0].Key, ShouldEqual, "F")
				So(groups[1].Key, ShouldEqual, "M")
				So(groups[2].Key, ShouldEqual, model.Unknown)
				So(groups[1].Entries[0].UserID, ShouldEqual, "u2")
				So(groups[1].Entries[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When grouping by club with one row per group", func() {
			groups, err := svc.Groups(ctx, leaderboard.AttrClub, 1)
			So(err, ShouldBeNil)
			So(groups, ShouldHaveLength, 2)
			So(groups[0].Key, ShouldEqual, "Reef")
			So(groups[0].Entries, ShouldHaveLength, 1)
			So(groups[0].Entries[0].UserID, ShouldEqual, "u1")
		})

		Convey("When reading the club table", func() {
			clubs, err := svc.Clubs(ctx)
			So(err, ShouldBeNil)

			Convey("Then the unknown club is left out and small clubs are ineligible", func() {
				So(clubs, ShouldHaveLength, 1)
				So(clubs[0].Club, ShouldEqual, "Reef")
				So(clubs[0].Count, ShouldEqual, 2)
				So(clubs[0].Eligible, ShouldBeFalse)
				So(clubs[0].Missing, ShouldEqual, leaderboard.MinClubMembers-2)
			})
		})
	})
}

func TestService_Diver(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx := context.Background()
		svc, _ := startService(ctx)
		defer svc.Stop()

		Convey("When reading a diver", func() {
			diver, err := svc.Diver(ctx, " u1 ")
			So(err, ShouldBeNil)

			Convey("Then the card total matches the leaderboard score", func() {
				So(diver.Rank, ShouldEqual, 1)
				So(diver.Name, ShouldEqual, "Aroha")
				So(diver.Card.Total, ShouldEqual, diver.Score)
				So(diver.Card.Catches, ShouldHaveLength, 2)
				So(diver.Card.Bonuses, ShouldHaveLength, 1)
				So(diver.Card.Unresolved, ShouldBeEmpty)
			})
		})

		Convey("When reading an unknown diver", func() {
			_, err := svc.Diver(ctx, "nobody")
			So(errors.Is(err, service.ErrUnknownDiver), ShouldBeTrue)

			_, err = svc.Bonuses(ctx, "nobody", 0)
			So(errors.Is(err, service.ErrUnknownDiver), ShouldBeTrue)
		})

		Convey("When reading bonus progress", func() {
			done, err := svc.Bonuses(ctx, "u1", 0)
			So(err, ShouldBeNil)
			pending, err := svc.Bonuses(ctx, "u2", 0)
			So(err, ShouldBeNil)

			Convey("Then only the diver's own claims count", func() {
				So(done.Bonuses, ShouldHaveLength, 1)
				So(done.Bonuses[0].Slug, ShouldEqual, "bonus-pair")
				So(done.Bonuses[0].Complete, ShouldBeTrue)
				So(done.Bonuses[0].Claimed, ShouldBeTrue)

				So(pending.Bonuses[0].Complete, ShouldBeFalse)
				So(pending.Bonuses[0].Claimed, ShouldBeFalse)
				So(pending.Bonuses[0].SatisfiedCount, ShouldEqual, 0)
			})
		})
	})
}

func TestService_Claims(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx := context.Background()
		svc, _ := startService(ctx)
		defer svc.Stop()

		Convey("When scoring a claim without storing it", func() {
			sc, err := svc.ScoreClaim(ctx, model.Claim{UserID: "u9", Identifier: "Snapper", FirstTime: true})
			So(err, ShouldBeNil)
			So(sc.Points, ShouldEqual, 20)
			So(sc.Doubled, ShouldBeTrue)

			entries, err := svc.Leaderboard(ctx, 0)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 3)
		})

		Convey("When submitting a first-time bonus claim", func() {
			sc, err := svc.SubmitClaim(ctx, model.Claim{UserID: "u3", Identifier: "bonus-pair", FirstTime: true})
			So(err, ShouldBeNil)

			Convey("Then it is stored without the first-time flag", func() {
				So(sc.Claim.ID, ShouldNotBeEmpty)
				So(sc.Claim.FirstTime, ShouldBeFalse)
				So(sc.Points, ShouldEqual, 40)
				So(sc.Resolution.Kind, ShouldEqual, model.BonusResolution)

				diver, err := svc.Diver(ctx, "u3")
				So(err, ShouldBeNil)
				So(diver.Score, ShouldEqual, 45)
			})
		})

		Convey("When submitting a bonus claim by title", func() {
			sc, err := svc.SubmitClaim(ctx, model.Claim{UserID: "u3", Identifier: "Pair", FirstTime: true})
			So(err, ShouldBeNil)
			So(sc.Claim.FirstTime, ShouldBeFalse)
			So(sc.Points, ShouldEqual, 40)
		})

		Convey("When submitting a claim for a new diver", func() {
			_, err := svc.SubmitClaim(ctx, model.Claim{UserID: "u4", Identifier: "kingfish", FirstTime: true})
			So(err, ShouldBeNil)
			_, err = svc.SubmitClaim(ctx, model.Claim{UserID: "u4", Identifier: "snapper"})
			So(err, ShouldBeNil)
			So(svc.UpsertProfile(ctx, model.Profile{UserID: "u4", DisplayName: "Dee"}), ShouldBeNil)

			Convey("Then the diver leads the board", func() {
				entries, err := svc.Leaderboard(ctx, 1)
				So(err, ShouldBeNil)
				So(entries[0].UserID, ShouldEqual, "u4")
				So(entries[0].Name, ShouldEqual, "Dee")
				So(entries[0].Score, ShouldEqual, 90)
			})
		})

		Convey("When submitting an invalid claim", func() {
			_, err := svc.SubmitClaim(ctx, model.Claim{Identifier: "snapper"})
			So(errors.Is(err, repository.ErrInvalidClaim), ShouldBeTrue)
		})
	})
}

func TestService_Unresolved(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx := context.Background()
		svc, _ := startService(ctx)
		defer svc.Stop()

		Convey("When auditing unresolved identifiers", func() {
			report, err := svc.Unresolved(ctx)
			So(err, ShouldBeNil)

			Convey("Then the most frequent comes first with a suggestion", func() {
				So(report, ShouldHaveLength, 2)
				So(report[0].Identifier, ShouldEqual, "snaper")
				So(report[0].Count, ShouldEqual, 2)
				So(report[0].Users, ShouldEqual, 2)
				So(report[0].Suggestion, ShouldNotBeNil)
				So(report[0].Suggestion.Slug, ShouldEqual, "snapper")

				So(report[1].Identifier, ShouldEqual, "Zzzz")
				So(report[1].Count, ShouldEqual, 1)
				So(report[1].Suggestion, ShouldBeNil)
			})
		})
	})
}

func TestService_CatalogRefresh(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		svc, source := startService(ctx)
		defer svc.Stop()
		before := svc.GetStats()["catalogFingerprint"]

		Convey("When the catalog changes", func() {
			source.set(`[
  {"slug": "snapper", "name": "Snapper", "points": 15},
  {"slug": "butterfish", "name": "Butterfish", "points": 20},
  {"slug": "kingfish", "name": "Kingfish", "points": 40},
  {"slug": "rescue", "name": "Rescue", "points": 5}
]`)

			Convey("Then the next read uses the new points", func() {
				sc, err := svc.ScoreClaim(ctx, model.Claim{UserID: "u1", Identifier: "snapper"})
				So(err, ShouldBeNil)
				So(sc.Points, ShouldEqual, 15)
				So(svc.GetStats()["catalogFingerprint"], ShouldNotEqual, before)
			})
		})

		Convey("When the catalog breaks", func() {
			source.set(`[{"slug": `)

			Convey("Then the previous index keeps serving", func() {
				for i := 0; i < 2; i++ {
					sc, err := svc.ScoreClaim(ctx, model.Claim{UserID: "u1", Identifier: "snapper"})
					So(err, ShouldBeNil)
					So(sc.Points, ShouldEqual, 10)
				}
				So(svc.GetStats()["catalogFingerprint"], ShouldEqual, before)
			})
		})

		Convey("When the catalog cannot be read", func() {
			source.mu.Lock()
			source.err = fmt.Errorf("%w: disk gone", repository.ErrCatalogSource)
			source.mu.Unlock()

			Convey("Then the previous index keeps serving", func() {
				entries, err := svc.Leaderboard(ctx, 0)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
			})
		})
	})
}

const monthlyBonusJSON = `{
  "evergreen": [{"slug": "bonus-pair", "title": "Pair", "points": 40, "species": ["Snapper", "Butterfish"]}],
  "monthly": [
    {"slug": "bonus-month-august", "title": "August", "month": 8, "points": 150, "species": ["Snapper", "Kingfish"]},
    {"slug": "bonus-month-september", "title": "September", "month": 9, "points": 150, "species": ["Rescue"]}
  ]
}`

func TestService_MonthlyBonuses(t *testing.T) {
	Convey("Given a catalog with monthly bonus rows and a clock in August", t, func() {
		ctx := context.Background()
		store := newStore()
		seed(ctx, store)
		svc := service.New(
			service.WithLogger(logger.Nop()),
			service.WithStore(store),
			service.WithCatalog(&mutableCatalog{species: speciesJSON, bonuses: monthlyBonusJSON}),
			service.WithClock(func() time.Time { return time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC) }),
		)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When every bonus is asked for", func() {
			all, err := svc.Bonuses(ctx, "u1", 0)
			So(err, ShouldBeNil)
			So(all.Month, ShouldEqual, 0)
			So(all.Bonuses, ShouldHaveLength, 3)
		})

		Convey("When the current month is asked for", func() {
			got, err := svc.Bonuses(ctx, "u1", service.CurrentMonth)
			So(err, ShouldBeNil)

			Convey("Then only August rows are resolved against the diver's claims", func() {
				So(got.Month, ShouldEqual, 8)
				So(got.Bonuses, ShouldHaveLength, 1)
				So(got.Bonuses[0].Slug, ShouldEqual, "bonus-month-august")
				So(got.Bonuses[0].SatisfiedCount, ShouldEqual, 1)
				So(got.Bonuses[0].Complete, ShouldBeFalse)
			})
		})

		Convey("When another month is asked for", func() {
			got, err := svc.Bonuses(ctx, "u3", 9)
			So(err, ShouldBeNil)
			So(got.Bonuses, ShouldHaveLength, 1)
			So(got.Bonuses[0].Complete, ShouldBeTrue)

			none, err := svc.Bonuses(ctx, "u3", 1)
			So(err, ShouldBeNil)
			So(none.Bonuses, ShouldBeEmpty)
		})

		Convey("When the month is out of range", func() {
			_, err := svc.Bonuses(ctx, "u1", 13)
			So(errors.Is(err, service.ErrInvalidMonth), ShouldBeTrue)
		})
	})
}
