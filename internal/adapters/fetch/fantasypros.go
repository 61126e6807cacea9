package fetch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/scoring"
)

// Default endpoints.
const (
	DefaultSiteBaseURL = "https://www.fantasypros.com/nfl/rankings/"
	DefaultAPIURL      = "https://partners.fantasypros.com/api/v1/consensus-rankings.php"
	DefaultSourceID    = 1054
)

var formatPrefix = map[scoring.Format]string{
	scoring.STD:  "",
	scoring.HALF: "half-point-ppr-",
	scoring.PPR:  "ppr-",
}

var draftOverallPage = map[scoring.Format]string{
	scoring.STD:  "consensus-cheatsheets.php",
	scoring.HALF: "half-point-ppr-cheatsheets.php",
	scoring.PPR:  "ppr-cheatsheets.php",
}

// apiPosition maps positions to the tags the rankings API expects.
var apiPosition = map[scoring.Position]string{
	scoring.FLEX:   "FLX",
	scoring.QBFlex: "OP",
}

// Site builds listing URLs and ranking API queries.
type Site struct {
	BaseURL  string
	APIURL   string
	SourceID int
}

// NewSite returns a Site, filling empty fields with defaults.
func NewSite(baseURL, apiURL string, sourceID int) Site {
	s := Site{BaseURL: baseURL, APIURL: apiURL, SourceID: sourceID}
	if s.BaseURL == "" {
		s.BaseURL = DefaultSiteBaseURL
	}
	if !strings.HasSuffix(s.BaseURL, "/") {
		s.BaseURL += "/"
	}
	if s.APIURL == "" {
		s.APIURL = DefaultAPIURL
	}
	if s.SourceID == 0 {
		s.SourceID = DefaultSourceID
	}
	return s
}

// ListingURL returns the expert listing page and its query for a slice.
func (s Site) ListingURL(year int, period model.Period, slice scoring.Slice) (string, map[string]string, error) {
	prefix, ok := formatPrefix[slice.Scoring]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown format %q", scoring.ErrInvalidScoring, slice.Scoring)
	}
	pos := strings.ToLower(string(slice.Position))
	query := map[string]string{"year": strconv.Itoa(year)}

	if period.IsDraft() {
		if err := scoring.CheckDraftPosition(slice.Position); err != nil {
			return "", nil, err
		}
		if slice.Position == scoring.ALL {
			return s.BaseURL + draftOverallPage[slice.Scoring], query, nil
		}
		return s.BaseURL + prefix + pos + "-cheatsheets.php", query, nil
	}

	if err := scoring.CheckWeeklyPosition(slice.Position); err != nil {
		return "", nil, err
	}
	query["week"] = strconv.Itoa(period.Week())
	return s.BaseURL + prefix + pos + ".php", query, nil
}

// RankingsQuery returns the rankings API query for one expert and slice.
func (s Site) RankingsQuery(year int, period model.Period, slice scoring.Slice, expertID int) map[string]string {
	pos, ok := apiPosition[slice.Position]
	if !ok {
		pos = string(slice.Position)
	}
	return map[string]string{
		"sport":    "NFL",
		"year":     strconv.Itoa(year),
		"week":     strconv.Itoa(period.Week()),
		"id":       strconv.Itoa(s.SourceID),
		"position": pos,
		"type":     "ST",
		"scoring":  string(slice.Scoring),
		"filters":  strconv.Itoa(expertID),
		"export":   "json",
	}
}

// WeekProbeURL is the page whose title carries the current week.
func (s Site) WeekProbeURL() string {
	return s.BaseURL + "qb.php"
}
