package registry_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/registry"
	"github.com/ffbrank/ffbrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type memStore struct {
	mu      sync.Mutex
	entries []model.RegistryEntry
	saves   int
	loadErr error
	saveErr error
}

func (s *memStore) Load(context.Context) ([]model.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]model.RegistryEntry(nil), s.entries...), nil
}

func (s *memStore) Save(_ context.Context, entries []model.RegistryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.entries = append([]model.RegistryEntry(nil), entries...)
	s.saves++
	return nil
}

type countingLocker struct {
	locks, unlocks int
	err            error
}

func (l *countingLocker) Lock(context.Context) (func() error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locks++
	return func() error { l.unlocks++; return nil }, nil
}

func TestRegistryApply(t *testing.T) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		t.Fatal(err)
	}

	Convey("Given a registry over an empty store", t, func() {
		store := &memStore{}
		locker := &countingLocker{}
		reg := registry.New(store, registry.WithLocker(locker), registry.WithOrder(model.LexicalOrder{}))
		ctx := context.Background()

		Convey("When a batch is applied", func() {
			out, err := reg.Apply(ctx, []model.ExpertIdentity{
				seen(9, "Scott Pianowski", "Yahoo", t1),
				seen(9, "Scott Pianowski", "Yahoo", t2),
				seen(4, "Andy Behrens", "Yahoo", t2),
			}, "2019_draft")

			Convey("Then the store holds the merged registry", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, registry.Outcome{Observed: 3, Inserted: 2, Entries: 2})
				So(store.saves, ShouldEqual, 1)
				So(store.entries[1].FirstSeen, ShouldEqual, t1)
				So(locker.locks, ShouldEqual, 1)
				So(locker.unlocks, ShouldEqual, 1)
			})

			Convey("And entries are read back", func() {
				entries, err := reg.Entries(ctx)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 2)
			})
		})

		Convey("When the store holds a corrupt registry", func() {
			store.entries = []model.RegistryEntry{
				{ExpertID: 1, ExpertName: "A", Site: "x", FirstSeen: t1, LastSeen: t1, FirstAppearance: "2019_draft", LastAppearance: "2019_draft"},
				{ExpertID: 1, ExpertName: "A", Site: "x", FirstSeen: t1, LastSeen: t1, FirstAppearance: "2019_draft", LastAppearance: "2019_draft"},
			}
			_, err := reg.Apply(ctx, []model.ExpertIdentity{seen(2, "B", "y", t2)}, "2019_week1")

			Convey("Then nothing is persisted", func() {
				So(errors.Is(err, registry.ErrDataIntegrity), ShouldBeTrue)
				So(store.saves, ShouldEqual, 0)
				So(len(store.entries), ShouldEqual, 2)
				So(locker.unlocks, ShouldEqual, locker.locks)
			})

			Convey("And reading it fails too", func() {
				_, err := reg.Entries(ctx)
				So(errors.Is(err, registry.ErrDataIntegrity), ShouldBeTrue)
			})
		})

		Convey("When loading fails", func() {
			store.loadErr = errors.New("disk gone")
			_, err := reg.Apply(ctx, nil, "2019_draft")

			Convey("Then the error is wrapped", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "load registry")
				So(errors.Is(err, store.loadErr), ShouldBeTrue)
			})
		})

		Convey("When saving fails", func() {
			store.saveErr = errors.New("read-only")
			_, err := reg.Apply(ctx, []model.ExpertIdentity{seen(2, "B", "y", t2)}, "2019_draft")

			Convey("Then the error is wrapped", func() {
				So(err.Error(), ShouldContainSubstring, "save registry")
			})
		})

		Convey("When the lock cannot be taken", func() {
			locker.err = errors.New("busy")
			_, err := reg.Apply(ctx, nil, "2019_draft")

			Convey("Then the store is not touched", func() {
				So(err.Error(), ShouldContainSubstring, "lock registry")
				So(store.saves, ShouldEqual, 0)
			})
		})

		Convey("When the context is cancelled before persisting", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := reg.Apply(cctx, []model.ExpertIdentity{seen(2, "B", "y", t2)}, "2019_draft")

			Convey("Then nothing is written", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(store.saves, ShouldEqual, 0)
			})
		})

		Convey("When batches are applied concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, _ = reg.Apply(ctx, []model.ExpertIdentity{seen(100+i, "E", "s", t1)}, "2019_draft")
				}(i)
			}
			wg.Wait()

			Convey("Then no batch is lost", func() {
				So(len(store.entries), ShouldEqual, 10)
				So(store.saves, ShouldEqual, 10)
			})
		})
	})
}
