package registry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/registry"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	t1 = time.Date(2019, 8, 20, 9, 30, 0, 0, time.UTC)
	t2 = time.Date(2019, 9, 3, 18, 5, 0, 0, time.UTC)
)

func seen(id int, name, site string, at time.Time) model.ExpertIdentity {
	return model.ExpertIdentity{ExpertID: id, ExpertName: name, Site: site, ObservedAt: at}
}

func TestMergeScenario(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		Convey("When Scott Pianowski is observed in the draft", func() {
			first, err := registry.Merge(nil, []model.ExpertIdentity{seen(9, "Scott Pianowski", "Yahoo", t1)}, "2019_draft", nil)
			So(err, ShouldBeNil)

			Convey("Then one entry is created with both ends equal", func() {
				So(first, ShouldResemble, []model.RegistryEntry{{
					ExpertID: 9, ExpertName: "Scott Pianowski", Site: "Yahoo",
					FirstSeen: t1, LastSeen: t1,
					FirstAppearance: "2019_draft", LastAppearance: "2019_draft",
				}})
			})

			Convey("And he is seen again in week 1", func() {
				second, err := registry.Merge(first, []model.ExpertIdentity{seen(9, "Scott Pianowski", "Yahoo", t2)}, "2019_week1", nil)
				So(err, ShouldBeNil)

				Convey("Then only the last_* fields move", func() {
					So(second, ShouldResemble, []model.RegistryEntry{{
						ExpertID: 9, ExpertName: "Scott Pianowski", Site: "Yahoo",
						FirstSeen: t1, LastSeen: t2,
						FirstAppearance: "2019_draft", LastAppearance: "2019_week1",
					}})
				})

				Convey("And the input slice is left alone", func() {
					So(first[0].LastSeen, ShouldEqual, t1)
				})
			})

			Convey("And his site changes", func() {
				second, err := registry.Merge(first, []model.ExpertIdentity{seen(9, "Scott Pianowski", "Yahoo! Sports", t2)}, "2019_week1", nil)
				So(err, ShouldBeNil)

				Convey("Then a second identity is created beside the first", func() {
					So(len(second), ShouldEqual, 2)
					So(second[0].Site, ShouldEqual, "Yahoo")
					So(second[0].LastSeen, ShouldEqual, t1)
					So(second[1].Site, ShouldEqual, "Yahoo! Sports")
					So(second[1].FirstAppearance, ShouldEqual, "2019_week1")
				})
			})
		})
	})
}

func TestMergeProperties(t *testing.T) {
	Convey("Given a populated registry", t, func() {
		existing, err := registry.Merge(nil, []model.ExpertIdentity{
			seen(30, "Pat Fitzmaurice", "FantasyPros", t1),
			seen(9, "Scott Pianowski", "Yahoo", t1),
			seen(12, "Sean Koerner", "STATS", t1.Add(time.Hour)),
		}, "2019_week2", nil)
		So(err, ShouldBeNil)
		batch := []model.ExpertIdentity{
			seen(12, "Sean Koerner", "STATS", t2),
			seen(12, "Sean Koerner", "STATS", t1),
			seen(44, "Jody Smith", "Fantasy Guru", t2),
		}

		Convey("Then it is sorted by id", func() {
			So(existing[0].ExpertID, ShouldEqual, 9)
			So(existing[1].ExpertID, ShouldEqual, 12)
			So(existing[2].ExpertID, ShouldEqual, 30)
		})

		Convey("When the same batch is merged twice", func() {
			once, err := registry.Merge(existing, batch, "2019_week3", nil)
			So(err, ShouldBeNil)
			twice, err := registry.Merge(once, batch, "2019_week3", nil)
			So(err, ShouldBeNil)

			Convey("Then the second merge changes nothing", func() {
				So(twice, ShouldResemble, once)
			})

			Convey("Then duplicate observations collapse to the earliest", func() {
				So(len(once), ShouldEqual, 4)
				So(once[1].ExpertID, ShouldEqual, 12)
				So(once[1].FirstSeen, ShouldEqual, t1)
				So(once[1].LastSeen, ShouldEqual, t1.Add(time.Hour))
			})
		})

		Convey("When an empty batch is merged", func() {
			chrono, err := registry.Merge(existing, nil, "2019_week3", model.ChronologicalOrder{})
			So(err, ShouldBeNil)
			lexical, err := registry.Merge(existing, []model.ExpertIdentity{}, "2019_week3", model.LexicalOrder{})
			So(err, ShouldBeNil)

			Convey("Then the registry comes back unchanged", func() {
				So(chrono, ShouldResemble, existing)
				So(lexical, ShouldResemble, existing)
			})
		})

		Convey("When a batch omits existing identities", func() {
			out, err := registry.Merge(existing, batch[2:], "2019_week3", nil)
			So(err, ShouldBeNil)

			Convey("Then none are deleted and the unobserved are untouched", func() {
				So(len(out), ShouldEqual, len(existing)+1)
				for _, e := range existing {
					found := false
					for _, o := range out {
						if o == e {
							found = true
						}
					}
					So(found, ShouldBeTrue)
				}
			})
		})

		Convey("When an older period and time are merged", func() {
			out, err := registry.Merge(existing, []model.ExpertIdentity{seen(9, "Scott Pianowski", "Yahoo", t1.Add(-time.Hour))}, "2019_draft", nil)
			So(err, ShouldBeNil)

			Convey("Then only the first_* fields move earlier", func() {
				So(out[0].FirstSeen, ShouldEqual, t1.Add(-time.Hour))
				So(out[0].LastSeen, ShouldEqual, t1)
				So(out[0].FirstAppearance, ShouldEqual, "2019_draft")
				So(out[0].LastAppearance, ShouldEqual, "2019_week2")
			})
		})

		Convey("When an observation falls inside the known range", func() {
			out, err := registry.Merge(existing, []model.ExpertIdentity{seen(9, "Scott Pianowski", "Yahoo", t1)}, "2019_week2", nil)
			So(err, ShouldBeNil)

			Convey("Then the entry is unchanged", func() {
				So(out, ShouldResemble, existing)
			})
		})
	})
}

func TestMergeOrdering(t *testing.T) {
	Convey("Given an entry last seen in week 9", t, func() {
		existing := []model.RegistryEntry{{
			ExpertID: 1, ExpertName: "A", Site: "x",
			FirstSeen: t1, LastSeen: t1,
			FirstAppearance: "2019_week9", LastAppearance: "2019_week9",
		}}
		batch := []model.ExpertIdentity{seen(1, "A", "x", t2)}

		Convey("When week 10 is merged chronologically", func() {
			out, err := registry.Merge(existing, batch, "2019_week10", model.ChronologicalOrder{})
			So(err, ShouldBeNil)

			Convey("Then week 10 becomes the last appearance", func() {
				So(out[0].LastAppearance, ShouldEqual, "2019_week10")
				So(out[0].FirstAppearance, ShouldEqual, "2019_week9")
			})
		})

		Convey("When week 10 is merged lexically", func() {
			out, err := registry.Merge(existing, batch, "2019_week10", model.LexicalOrder{})
			So(err, ShouldBeNil)

			Convey("Then the legacy string order applies", func() {
				So(out[0].FirstAppearance, ShouldEqual, "2019_week10")
				So(out[0].LastAppearance, ShouldEqual, "2019_week9")
			})
		})
	})
}

func TestMergeIntegrity(t *testing.T) {
	good := model.RegistryEntry{
		ExpertID: 1, ExpertName: "A", Site: "x",
		FirstSeen: t1, LastSeen: t2,
		FirstAppearance: "2019_draft", LastAppearance: "2019_week1",
	}
	batch := []model.ExpertIdentity{seen(2, "B", "y", t2)}

	Convey("Given merge inputs that cannot be trusted", t, func() {
		cases := []struct {
			name     string
			existing []model.RegistryEntry
			observed []model.ExpertIdentity
			label    string
		}{
			{name: "bad batch label", existing: []model.RegistryEntry{good}, observed: batch, label: "week3"},
			{name: "empty batch label", observed: batch, label: ""},
			{name: "duplicate identities", existing: []model.RegistryEntry{good, good}, observed: batch, label: "2019_week2"},
			{name: "zero observation", observed: []model.ExpertIdentity{seen(2, "B", "y", time.Time{})}, label: "2019_week2"},
			{name: "zero stored time", existing: []model.RegistryEntry{func() model.RegistryEntry {
				e := good
				e.FirstSeen = time.Time{}
				return e
			}()}, observed: batch, label: "2019_week2"},
			{name: "bad stored label", existing: []model.RegistryEntry{func() model.RegistryEntry {
				e := good
				e.LastAppearance = "last week"
				return e
			}()}, observed: batch, label: "2019_week2"},
			{name: "inverted range", existing: []model.RegistryEntry{func() model.RegistryEntry {
				e := good
				e.FirstSeen, e.LastSeen = t2, t1
				return e
			}()}, observed: batch, label: "2019_week2"},
		}

		for _, tc := range cases {
			Convey("When the input has a "+tc.name, func() {
				out, err := registry.Merge(tc.existing, tc.observed, tc.label, model.ChronologicalOrder{})

				Convey("Then the merge fails with a data integrity error", func() {
					So(out, ShouldBeNil)
					So(errors.Is(err, registry.ErrDataIntegrity), ShouldBeTrue)
					var die *registry.DataIntegrityError
					So(errors.As(err, &die), ShouldBeTrue)
				})
			})
		}

		Convey("When a stored label is not parseable but ordering is lexical", func() {
			e := good
			e.FirstAppearance, e.LastAppearance = "a", "b"
			out, err := registry.Merge([]model.RegistryEntry{e}, batch, "c", model.LexicalOrder{})

			Convey("Then the merge succeeds", func() {
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 2)
			})
		})

		Convey("When a registry written in string order spans week 9 and week 10", func() {
			legacy := model.RegistryEntry{
				ExpertID: 1, ExpertName: "A", Site: "s", FirstSeen: t1, LastSeen: t2,
				FirstAppearance: "2019_week10", LastAppearance: "2019_week9",
			}
			_, chronoErr := registry.Merge([]model.RegistryEntry{legacy}, nil, "2019_week11", model.ChronologicalOrder{})
			out, lexErr := registry.Merge([]model.RegistryEntry{legacy}, nil, "2019_week11", model.LexicalOrder{})

			Convey("Then the chronological error names the lexical setting", func() {
				So(errors.Is(chronoErr, registry.ErrDataIntegrity), ShouldBeTrue)
				So(chronoErr.Error(), ShouldContainSubstring, "last_appearance before first_appearance")
				So(chronoErr.Error(), ShouldContainSubstring, "FFBRANK_PERIOD_ORDERING=lexical")
			})

			Convey("Then lexical ordering loads it", func() {
				So(lexErr, ShouldBeNil)
				So(out, ShouldResemble, []model.RegistryEntry{legacy})
			})
		})

		Convey("When a range is inverted in both orders", func() {
			e := good
			e.FirstAppearance, e.LastAppearance = "2019_week3", "2019_draft"
			_, err := registry.Merge([]model.RegistryEntry{e}, nil, "2019_week4", model.ChronologicalOrder{})

			Convey("Then no ordering hint is given", func() {
				So(errors.Is(err, registry.ErrDataIntegrity), ShouldBeTrue)
				So(err.Error(), ShouldNotContainSubstring, "FFBRANK_PERIOD_ORDERING")
			})
		})

		Convey("When a batch label is unparseable", func() {
			_, err := registry.Merge(nil, batch, "2019_wk2", model.ChronologicalOrder{})

			Convey("Then the cause is kept", func() {
				So(errors.Is(err, model.ErrInvalidPeriod), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "2019_wk2")
			})
		})
	})
}

func TestLatestPerExpert(t *testing.T) {
	Convey("Given an expert with two identities", t, func() {
		entries := []model.RegistryEntry{
			{ExpertID: 9, ExpertName: "Scott Pianowski", Site: "Yahoo! Sports", LastSeen: t2},
			{ExpertID: 9, ExpertName: "Scott Pianowski", Site: "Yahoo", LastSeen: t1},
			{ExpertID: 3, ExpertName: "Mike Tagliere", Site: "FantasyPros", LastSeen: t1},
		}

		Convey("When the latest per expert is taken", func() {
			got := registry.LatestPerExpert(entries)

			Convey("Then one entry per id remains, the most recently seen", func() {
				So(len(got), ShouldEqual, 2)
				So(got[0].ExpertID, ShouldEqual, 3)
				So(got[1].Site, ShouldEqual, "Yahoo! Sports")
			})
		})
	})
}
