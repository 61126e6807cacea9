package fetch_test

import (
	"errors"
	"testing"

	"github.com/ffbrank/ffbrank/internal/adapters/fetch"
	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteURLs(t *testing.T) {
	Convey("Given the default site", t, func() {
		site := fetch.NewSite("", "", 0)
		week3, err := model.WeeklyPeriod(3)
		So(err, ShouldBeNil)

		Convey("Then draft listing pages follow the cheat sheet naming", func() {
			cases := []struct {
				slice scoring.Slice
				want  string
			}{
				{scoring.Slice{Position: scoring.ALL, Scoring: scoring.STD}, "consensus-cheatsheets.php"},
				{scoring.Slice{Position: scoring.ALL, Scoring: scoring.HALF}, "half-point-ppr-cheatsheets.php"},
				{scoring.Slice{Position: scoring.ALL, Scoring: scoring.PPR}, "ppr-cheatsheets.php"},
				{scoring.Slice{Position: scoring.QB, Scoring: scoring.STD}, "qb-cheatsheets.php"},
				{scoring.Slice{Position: scoring.RB, Scoring: scoring.HALF}, "half-point-ppr-rb-cheatsheets.php"},
				{scoring.Slice{Position: scoring.WR, Scoring: scoring.PPR}, "ppr-wr-cheatsheets.php"},
			}
			for _, tc := range cases {
				url, query, err := site.ListingURL(2019, model.DraftPeriod(), tc.slice)
				So(err, ShouldBeNil)
				So(url, ShouldEqual, fetch.DefaultSiteBaseURL+tc.want)
				So(query, ShouldResemble, map[string]string{"year": "2019"})
			}
		})

		Convey("Then weekly listing pages carry the week", func() {
			url, query, err := site.ListingURL(2019, week3, scoring.Slice{Position: scoring.QBFlex, Scoring: scoring.PPR})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, fetch.DefaultSiteBaseURL+"ppr-qb-flex.php")
			So(query, ShouldResemble, map[string]string{"year": "2019", "week": "3"})
		})

		Convey("Then positions outside the period are rejected", func() {
			_, _, err := site.ListingURL(2019, model.DraftPeriod(), scoring.Slice{Position: scoring.FLEX, Scoring: scoring.STD})
			So(errors.Is(err, scoring.ErrInvalidPosition), ShouldBeTrue)
			_, _, err = site.ListingURL(2019, week3, scoring.Slice{Position: scoring.ALL, Scoring: scoring.STD})
			So(errors.Is(err, scoring.ErrInvalidPosition), ShouldBeTrue)
		})

		Convey("Then the API query maps positions and the draft week", func() {
			q := site.RankingsQuery(2019, model.DraftPeriod(), scoring.Slice{Position: scoring.QBFlex, Scoring: scoring.HALF}, 9)
			So(q, ShouldResemble, map[string]string{
				"sport":    "NFL",
				"year":     "2019",
				"week":     "0",
				"id":       "1054",
				"position": "OP",
				"type":     "ST",
				"scoring":  "HALF",
				"filters":  "9",
				"export":   "json",
			})

			q = site.RankingsQuery(2019, week3, scoring.Slice{Position: scoring.FLEX, Scoring: scoring.STD}, 9)
			So(q["position"], ShouldEqual, "FLX")
			So(q["week"], ShouldEqual, "3")
		})

		Convey("Then the week probe is the weekly QB page", func() {
			So(site.WeekProbeURL(), ShouldEqual, fetch.DefaultSiteBaseURL+"qb.php")
		})
	})

	Convey("Given a custom base without trailing slash", t, func() {
		site := fetch.NewSite("http://localhost:9999/nfl", "http://localhost:9999/api", 7)

		Convey("Then URLs are joined correctly", func() {
			url, _, err := site.ListingURL(2020, model.DraftPeriod(), scoring.Slice{Position: scoring.K, Scoring: scoring.STD})
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://localhost:9999/nfl/k-cheatsheets.php")
			So(site.RankingsQuery(2020, model.DraftPeriod(), scoring.Slice{Position: scoring.K, Scoring: scoring.STD}, 1)["id"], ShouldEqual, "7")
		})
	})
}
