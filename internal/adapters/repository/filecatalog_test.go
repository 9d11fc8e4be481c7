package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/remoterob/fish-bingo/internal/adapters/repository"
)

func TestFileCatalog(t *testing.T) {
	Convey("Given catalog files on disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		speciesPath := filepath.Join(dir, "species.json")
		bonusPath := filepath.Join(dir, "bonuses.json")
		So(os.WriteFile(speciesPath, []byte(`[{"slug":"snapper","points":5}]`), 0o600), ShouldBeNil)
		So(os.WriteFile(bonusPath, []byte(`[]`), 0o600), ShouldBeNil)

		source := repository.NewFileCatalog(speciesPath, bonusPath)

		Convey("Read returns both documents", func() {
			snap, err := source.Read(ctx)
			So(err, ShouldBeNil)
			So(string(snap.SpeciesJSON), ShouldContainSubstring, "snapper")
			So(string(snap.BonusJSON), ShouldEqual, "[]")
			So(snap.Fingerprint, ShouldNotEqual, 0)
		})

		Convey("The fingerprint is stable until a file changes", func() {
			first, err := source.Read(ctx)
			So(err, ShouldBeNil)
			second, err := source.Read(ctx)
			So(err, ShouldBeNil)
			So(second.Fingerprint, ShouldEqual, first.Fingerprint)

			So(os.WriteFile(bonusPath, []byte(`[{"slug":"bonus-x"}]`), 0o600), ShouldBeNil)
			third, err := source.Read(ctx)
			So(err, ShouldBeNil)
			So(third.Fingerprint, ShouldNotEqual, first.Fingerprint)
		})

		Convey("A missing file is a source error", func() {
			_, err := repository.NewFileCatalog(filepath.Join(dir, "nope.json"), bonusPath).Read(ctx)
			So(errors.Is(err, repository.ErrCatalogSource), ShouldBeTrue)

			_, err = repository.NewFileCatalog(speciesPath, filepath.Join(dir, "nope.json")).Read(ctx)
			So(errors.Is(err, repository.ErrCatalogSource), ShouldBeTrue)
		})

		Convey("An empty bonus path means no bonus catalog", func() {
			snap, err := repository.NewFileCatalog(speciesPath, "").Read(ctx)
			So(err, ShouldBeNil)
			So(snap.BonusJSON, ShouldBeNil)
		})
	})

	Convey("Snapshots separate the two documents", t, func() {
		a := repository.NewSnapshot([]byte("ab"), []byte("c"))
		b := repository.NewSnapshot([]byte("a"), []byte("bc"))
		So(a.Fingerprint, ShouldNotEqual, b.Fingerprint)

		static := repository.NewStaticCatalog([]byte("ab"), []byte("c"))
		snap, err := static.Read(context.Background())
		So(err, ShouldBeNil)
		So(snap.Fingerprint, ShouldEqual, a.Fingerprint)
	})
}
