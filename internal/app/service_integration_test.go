package service_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/remoterob/fish-bingo/internal/adapters/repository"
	service "github.com/remoterob/fish-bingo/internal/app"
	"github.com/remoterob/fish-bingo/internal/domain/model"
	"github.com/remoterob/fish-bingo/pkg/logger"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service over sqlite and catalog files", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		dir := t.TempDir()
		speciesPath := filepath.Join(dir, "species.json")
		bonusPath := filepath.Join(dir, "bonuses.json")
		So(os.WriteFile(speciesPath, []byte(speciesJSON), 0o600), ShouldBeNil)
		So(os.WriteFile(bonusPath, []byte(bonusJSON), 0o600), ShouldBeNil)

		store, err := repository.OpenSQL(ctx, repository.DriverSQLite, filepath.Join(dir, "bingo.db"))
		So(err, ShouldBeNil)

		svc := service.New(
			service.WithLogger(logger.Nop()),
			service.WithStore(store),
			service.WithCatalog(repository.NewFileCatalog(speciesPath, bonusPath)),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When claims are submitted concurrently", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 20)
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					uid := "u1"
					if i%2 == 1 {
						uid = "u2"
					}
					_, err := svc.SubmitClaim(ctx, model.Claim{UserID: uid, Identifier: "snapper"})
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				So(err, ShouldBeNil)
			}

			Convey("Then every claim is counted", func() {
				entries, err := svc.Leaderboard(ctx, 0)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Claims, ShouldEqual, 10)
				So(entries[0].Score, ShouldEqual, 100)
				So(entries[1].Score, ShouldEqual, 100)
			})
		})

		Convey("When a diver completes a bonus", func() {
			for _, c := range []model.Claim{
				{UserID: "u1", Identifier: "Snapper", FirstTime: true},
				{UserID: "u1", Identifier: "butter fish"},
				{UserID: "u1", Identifier: "bonus-pair", FirstTime: true},
			} {
				_, err := svc.SubmitClaim(ctx, c)
				So(err, ShouldBeNil)
			}
			So(svc.UpsertProfile(ctx, model.Profile{UserID: "u1", DisplayName: "Aroha", Club: "Reef"}), ShouldBeNil)

			Convey("Then the stored claims rebuild the same view", func() {
				diver, err := svc.Diver(ctx, "u1")
				So(err, ShouldBeNil)
				So(diver.Score, ShouldEqual, 80)
				So(diver.Name, ShouldEqual, "Aroha")
				So(diver.Club, ShouldEqual, "Reef")

				progress, err := svc.Bonuses(ctx, "u1", 0)
				So(err, ShouldBeNil)
				So(progress.Bonuses[0].Complete, ShouldBeTrue)
			})

			Convey("Then editing the catalog file rescores stored claims", func() {
				So(os.WriteFile(speciesPath, []byte(`[
  {"slug": "snapper", "name": "Snapper", "points": 1},
  {"slug": "butterfish", "name": "Butterfish", "points": 1}
]`), 0o600), ShouldBeNil)

				diver, err := svc.Diver(ctx, "u1")
				So(err, ShouldBeNil)
				So(diver.Score, ShouldEqual, 43)
			})
		})
	})
}
