package repository

import (
	"context"
	"os"
	"strconv"

	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/scoring"
	"github.com/ffbrank/ffbrank/pkg/logger"
)

var (
	rankingHeader = []string{"expert_id", "player_id", "player_name", "team", "pos", "rank", "pos_rank", "timestamp"}
	listingHeader = []string{"expert_id", "expert_name", "site", "checked", "updated_date", "timestamp"}
)

// RankingKey identifies one ranking snapshot.
type RankingKey struct {
	Year   int
	Period model.Period
	Expert model.Identity
	Slice  scoring.Slice
}

// ListingKey identifies one expert listing snapshot.
type ListingKey struct {
	Year   int
	Period model.Period
	Slice  scoring.Slice
}

// CSVSnapshots writes ranking and listing snapshots below a base directory.
// Snapshots are written once per key and never read back.
type CSVSnapshots struct {
	layout Layout
	settings
}

// NewCSVSnapshots returns a snapshot writer rooted at base.
func NewCSVSnapshots(base string, opts ...Option) *CSVSnapshots {
	return &CSVSnapshots{layout: Layout{Base: base}, settings: newSettings("snapshots", opts)}
}

// SaveRanking writes one expert's ranking for a slice and returns the path.
func (s *CSVSnapshots) SaveRanking(ctx context.Context, key RankingKey, entries []model.RankingEntry) (string, error) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.ExpertID),
			e.PlayerID,
			e.PlayerName,
			e.Team,
			e.Position,
			strconv.Itoa(e.Rank),
			e.PosRank,
			e.Timestamp.In(s.location).Format(TimestampLayout),
		})
	}
	path := s.layout.RankingFile(key.Year, key.Period, key.Expert, key.Slice)
	if err := writeCSV(path, os.FileMode(s.perm), rankingHeader, rows); err != nil {
		return "", err
	}
	s.log.Debug(ctx, "ranking written", logger.String("path", path), logger.Int("players", len(entries)))
	return path, nil
}

// SaveListing writes the experts observed on one listing page and returns
// the path.
func (s *CSVSnapshots) SaveListing(ctx context.Context, key ListingKey, experts []model.ExpertIdentity) (string, error) {
	rows := make([][]string, 0, len(experts))
	for _, e := range experts {
		rows = append(rows, []string{
			strconv.Itoa(e.ExpertID),
			e.ExpertName,
			e.Site,
			strconv.FormatBool(e.Included),
			e.Updated,
			e.ObservedAt.In(s.location).Format(TimestampLayout),
		})
	}
	path := s.layout.ListingFile(key.Year, key.Period, key.Slice)
	if err := writeCSV(path, os.FileMode(s.perm), listingHeader, rows); err != nil {
		return "", err
	}
	s.log.Debug(ctx, "listing written", logger.String("path", path), logger.Int("experts", len(experts)))
	return path, nil
}
