// Package ranking turns one expert's raw player list into a ranked table.
package ranking

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ffbrank/ffbrank/internal/domain/model"
)

// Keys read from each raw player record.
const (
	KeyPlayerID   = "player_id"
	KeyPlayerName = "player_name"
	KeyTeam       = "player_team_id"
	KeyPosition   = "player_position_id"
)

// Normalize ranks raw players in input order. Records without a player
// name or position are dropped and take no rank. Ranks run 1..N over the
// kept records and PosRank is the upper-cased position followed by a
// counter per position, e.g. "RB7". Every entry carries observedAt.
//
// It returns the entries and the number of dropped records. An empty
// input yields an empty, non-nil slice.
func Normalize(raw []model.RawPlayer, expertID int, observedAt time.Time) ([]model.RankingEntry, int) {
	out := make([]model.RankingEntry, 0, len(raw))
	perPosition := make(map[string]int)
	dropped := 0

	for _, rec := range raw {
		name, ok := text(rec, KeyPlayerName)
		if !ok {
			dropped++
			continue
		}
		pos, ok := text(rec, KeyPosition)
		if !ok {
			dropped++
			continue
		}
		pos = strings.ToUpper(pos)
		id, _ := text(rec, KeyPlayerID)
		team, _ := text(rec, KeyTeam)

		perPosition[pos]++
		out = append(out, model.RankingEntry{
			ExpertID:   expertID,
			PlayerID:   id,
			PlayerName: name,
			Team:       team,
			Position:   pos,
			Rank:       len(out) + 1,
			PosRank:    pos + strconv.Itoa(perPosition[pos]),
			Timestamp:  observedAt,
		})
	}
	return out, dropped
}

// text reads key as a trimmed, non-empty string. Numbers are formatted
// without exponent so numeric ids survive.
func text(rec model.RawPlayer, key string) (string, bool) {
	var s string
	switch v := rec[key].(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
