package model

import "time"

// RawPlayer is one loosely typed player record from the rankings API.
type RawPlayer = map[string]any

// RankingEntry is one row of an expert's normalized ranking.
type RankingEntry struct {
	ExpertID   int
	PlayerID   string
	PlayerName string
	Team       string
	Position   string
	// Rank is the 1-based position in the expert's list.
	Rank int
	// PosRank is the position-relative rank, e.g. "RB7".
	PosRank   string
	Timestamp time.Time
}
