// Package repository persists the expert registry, ranking snapshots and
// per-slice expert listings.
package repository

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/scoring"
)

// Directory names under the base directory.
const (
	ExpertDir      = "experts"
	RankingDir     = "rankings"
	MasterFileName = "master_expert_list.csv"
)

// TimestampLayout is how timestamps are written to CSV files.
const TimestampLayout = "2006-01-02 15:04:05"

// Layout maps snapshot keys to paths below Base.
type Layout struct {
	Base string
}

// MasterFile is the registry CSV.
func (l Layout) MasterFile() string {
	return filepath.Join(l.Base, ExpertDir, MasterFileName)
}

// ListingFile is the expert list of one slice, e.g.
// experts/2019/weekly/week1/2019_expert_list_week1_RB_STD.csv.
func (l Layout) ListingFile(year int, period model.Period, slice scoring.Slice) string {
	y := strconv.Itoa(year)
	name := y + "_expert_list_" + period.Slug() + "_" + slice.String() + ".csv"
	return filepath.Join(l.periodDir(ExpertDir, y, period), name)
}

// RankingFile is one expert's ranking for a slice, e.g.
// rankings/2019/draft/2019_draft_9_Scott Pianowski_Yahoo! Sports_OVERALL_STD.csv.
func (l Layout) RankingFile(year int, period model.Period, expert model.Identity, slice scoring.Slice) string {
	y := strconv.Itoa(year)
	name := strings.Join([]string{
		period.Label(year),
		strconv.Itoa(expert.ExpertID),
		sanitize(expert.ExpertName),
		sanitize(expert.Site),
		slice.String(),
	}, "_") + ".csv"
	return filepath.Join(l.periodDir(RankingDir, y, period), name)
}

func (l Layout) periodDir(root, year string, period model.Period) string {
	if period.IsDraft() {
		return filepath.Join(l.Base, root, year, "draft")
	}
	return filepath.Join(l.Base, root, year, "weekly", period.Slug())
}

// sanitize keeps names usable as a single path element.
func sanitize(s string) string {
	return strings.NewReplacer("/", "-", "\\", "-", "\x00", "").Replace(s)
}
