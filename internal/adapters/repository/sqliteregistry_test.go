package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ffbrank/ffbrank/internal/adapters/repository"
	"github.com/ffbrank/ffbrank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLiteRegistry(t *testing.T) {
	Convey("Given a SQLite registry file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "db", "registry.db")
		store, err := repository.OpenSQLite(ctx, path)
		So(err, ShouldBeNil)

		Convey("When entries are saved twice", func() {
			So(store.Save(ctx, sampleEntries()), ShouldBeNil)
			So(store.Save(ctx, sampleEntries()[:1]), ShouldBeNil)
			So(store.Close(), ShouldBeNil)

			Convey("Then a reopened store sees only the latest full replacement", func() {
				again, err := repository.OpenSQLite(ctx, path)
				So(err, ShouldBeNil)
				defer again.Close()
				got, err := again.Load(ctx)
				So(err, ShouldBeNil)
				So(cmp.Diff(sampleEntries()[:1], got), ShouldBeEmpty)
			})
		})

		Convey("When duplicate identities are saved", func() {
			dup := append(sampleEntries(), sampleEntries()[0])
			err := store.Save(ctx, dup)

			Convey("Then the save fails and the previous content stays", func() {
				So(err, ShouldNotBeNil)
				got, lerr := store.Load(ctx)
				So(lerr, ShouldBeNil)
				So(got, ShouldBeEmpty)
				So(store.Close(), ShouldBeNil)
			})
		})
	})
}

func TestMemoryRegistry(t *testing.T) {
	Convey("Given a seeded memory registry", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryRegistry(sampleEntries()...)

		Convey("When loaded entries are modified", func() {
			got, err := store.Load(ctx)
			So(err, ShouldBeNil)
			got[0].ExpertName = "changed"

			Convey("Then the store is unaffected", func() {
				again, _ := store.Load(ctx)
				So(again[0].ExpertName, ShouldEqual, "Scott Pianowski")
			})
		})

		Convey("When saved", func() {
			So(store.Save(ctx, []model.RegistryEntry{}), ShouldBeNil)

			Convey("Then saves are counted and content replaced", func() {
				So(store.Saves(), ShouldEqual, 1)
				got, _ := store.Load(ctx)
				So(got, ShouldBeEmpty)
			})
		})
	})
}
