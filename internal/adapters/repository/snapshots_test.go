package repository_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ffbrank/ffbrank/internal/adapters/repository"
	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func readAll(path string) [][]string {
	f, err := os.Open(path)
	So(err, ShouldBeNil)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	So(err, ShouldBeNil)
	return rows
}

func TestLayout(t *testing.T) {
	Convey("Given a layout rooted at /data", t, func() {
		l := repository.Layout{Base: "/data"}
		week1, _ := model.WeeklyPeriod(1)
		expert := model.Identity{ExpertID: 9, ExpertName: "Scott Pianowski", Site: "Yahoo! Sports"}

		Convey("Then paths follow the legacy directory scheme", func() {
			So(l.MasterFile(), ShouldEqual, filepath.FromSlash("/data/experts/master_expert_list.csv"))
			So(l.ListingFile(2019, model.DraftPeriod(), scoring.Slice{Position: scoring.ALL, Scoring: scoring.STD}),
				ShouldEqual, filepath.FromSlash("/data/experts/2019/draft/2019_expert_list_draft_OVERALL_STD.csv"))
			So(l.ListingFile(2019, week1, scoring.Slice{Position: scoring.RB, Scoring: scoring.PPR}),
				ShouldEqual, filepath.FromSlash("/data/experts/2019/weekly/week1/2019_expert_list_week1_RB_PPR.csv"))
			So(l.RankingFile(2019, model.DraftPeriod(), expert, scoring.Slice{Position: scoring.ALL, Scoring: scoring.STD}),
				ShouldEqual, filepath.FromSlash("/data/rankings/2019/draft/2019_draft_9_Scott Pianowski_Yahoo! Sports_OVERALL_STD.csv"))
			So(l.RankingFile(2019, week1, expert, scoring.Slice{Position: scoring.QBFlex, Scoring: scoring.HALF}),
				ShouldEqual, filepath.FromSlash("/data/rankings/2019/weekly/week1/2019_week1_9_Scott Pianowski_Yahoo! Sports_QB-FLEX_HALF.csv"))
		})

		Convey("Then slashes in names cannot escape the directory", func() {
			odd := model.Identity{ExpertID: 1, ExpertName: "A/B", Site: "../x"}
			p := l.RankingFile(2019, model.DraftPeriod(), odd, scoring.Slice{Position: scoring.K, Scoring: scoring.STD})
			So(filepath.Dir(p), ShouldEqual, filepath.FromSlash("/data/rankings/2019/draft"))
			So(filepath.Base(p), ShouldEqual, "2019_draft_1_A-B_..-x_K_STD.csv")
		})
	})
}

func TestSnapshots(t *testing.T) {
	Convey("Given a snapshot writer", t, func() {
		base := t.TempDir()
		snaps := repository.NewCSVSnapshots(base, repository.WithLocation(time.UTC))
		ctx := context.Background()
		at := time.Date(2019, 9, 5, 14, 0, 0, 0, time.UTC)

		Convey("When a ranking is saved", func() {
			key := repository.RankingKey{
				Year:   2019,
				Period: model.DraftPeriod(),
				Expert: model.Identity{ExpertID: 9, ExpertName: "Scott Pianowski", Site: "Yahoo"},
				Slice:  scoring.Slice{Position: scoring.RB, Scoring: scoring.PPR},
			}
			path, err := snaps.SaveRanking(ctx, key, []model.RankingEntry{
				{ExpertID: 9, PlayerID: "1", PlayerName: "Saquon Barkley", Team: "NYG", Position: "RB", Rank: 1, PosRank: "RB1", Timestamp: at},
				{ExpertID: 9, PlayerID: "2", PlayerName: "Christian McCaffrey", Team: "CAR", Position: "RB", Rank: 2, PosRank: "RB2", Timestamp: at},
			})

			Convey("Then the file holds header and rows in rank order", func() {
				So(err, ShouldBeNil)
				So(path, ShouldEqual, filepath.Join(base, "rankings", "2019", "draft", "2019_draft_9_Scott Pianowski_Yahoo_RB_PPR.csv"))
				rows := readAll(path)
				So(rows[0], ShouldResemble, []string{"expert_id", "player_id", "player_name", "team", "pos", "rank", "pos_rank", "timestamp"})
				So(rows[2], ShouldResemble, []string{"9", "2", "Christian McCaffrey", "CAR", "RB", "2", "RB2", "2019-09-05 14:00:00"})
			})
		})

		Convey("When a listing is saved", func() {
			week2, _ := model.WeeklyPeriod(2)
			path, err := snaps.SaveListing(ctx, repository.ListingKey{
				Year:   2019,
				Period: week2,
				Slice:  scoring.Slice{Position: scoring.QB, Scoring: scoring.STD},
			}, []model.ExpertIdentity{
				{ExpertID: 9, ExpertName: "Scott Pianowski", Site: "Yahoo", Included: true, Updated: "9/10", ObservedAt: at},
			})

			Convey("Then it lands in the weekly folder", func() {
				So(err, ShouldBeNil)
				So(path, ShouldEqual, filepath.Join(base, "experts", "2019", "weekly", "week2", "2019_expert_list_week2_QB_STD.csv"))
				rows := readAll(path)
				So(len(rows), ShouldEqual, 2)
				So(rows[1], ShouldResemble, []string{"9", "Scott Pianowski", "Yahoo", "true", "9/10", "2019-09-05 14:00:00"})
			})
		})
	})
}

func TestFileLock(t *testing.T) {
	Convey("Given a file lock", t, func() {
		path := filepath.Join(t.TempDir(), "experts", ".registry.lock")
		first := repository.NewFileLock(path)
		second := repository.NewFileLock(path)

		Convey("When it is held", func() {
			unlock, err := first.Lock(context.Background())
			So(err, ShouldBeNil)

			Convey("Then a second holder times out", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
				defer cancel()
				_, err := second.Lock(ctx)
				So(err, ShouldNotBeNil)
				So(unlock(), ShouldBeNil)
			})

			Convey("Then it can be taken again after release", func() {
				So(unlock(), ShouldBeNil)
				unlock2, err := second.Lock(context.Background())
				So(err, ShouldBeNil)
				So(unlock2(), ShouldBeNil)
			})
		})
	})
}
