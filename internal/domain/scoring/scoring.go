// Package scoring holds the static table of scoring formats offered per
// position and the slices (position x scoring) a scrape walks through.
package scoring

import (
	"fmt"
	"slices"
	"strings"
)

// Position is a ranking position tag as used by the ranking site.
type Position string

const (
	QB     Position = "QB"
	RB     Position = "RB"
	WR     Position = "WR"
	TE     Position = "TE"
	FLEX   Position = "FLEX"
	QBFlex Position = "QB-FLEX"
	DST    Position = "DST"
	K      Position = "K"
	// ALL is the overall (all positions) ranking.
	ALL Position = "ALL"
)

// Format is a scoring format.
type Format string

const (
	STD  Format = "STD"
	HALF Format = "HALF"
	PPR  Format = "PPR"
)

var (
	allFormats  = []Format{STD, HALF, PPR}
	stdOnly     = []Format{STD}
	positionSeq = []Position{QB, RB, WR, TE, FLEX, QBFlex, DST, K, ALL}
)

// ParsePosition parses a position tag case-insensitively.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(positionSeq, p) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return p, nil
}

// ParseFormat parses a scoring format case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	if !slices.Contains(allFormats, f) {
		return "", fmt.Errorf("%w: unknown format %q", ErrInvalidScoring, s)
	}
	return f, nil
}

// FileTag is the position as it appears in output file names. The overall
// ranking is written as OVERALL.
func (p Position) FileTag() string {
	if p == ALL {
		return "OVERALL"
	}
	return string(p)
}

// Policy answers which scoring formats a position supports.
type Policy struct {
	allowed map[Position][]Format
}

// Option configures a Policy.
type Option func(*Policy)

// WithRule replaces the formats allowed for one position.
func WithRule(p Position, formats ...Format) Option {
	return func(pol *Policy) {
		if len(formats) > 0 {
			pol.allowed[p] = slices.Clone(formats)
		}
	}
}

// NewPolicy returns the default policy: QB, DST and K score STD only,
// every other position offers STD, HALF and PPR.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{allowed: map[Position][]Format{
		QB:     stdOnly,
		RB:     allFormats,
		WR:     allFormats,
		TE:     allFormats,
		FLEX:   allFormats,
		QBFlex: allFormats,
		DST:    stdOnly,
		K:      stdOnly,
		ALL:    allFormats,
	}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsValid reports whether scoring is offered for position.
func (p *Policy) IsValid(position Position, scoring Format) bool {
	return slices.Contains(p.allowed[position], scoring)
}

// AllowedScorings returns the formats offered for position, nil if the
// position is unknown.
func (p *Policy) AllowedScorings(position Position) []Format {
	return slices.Clone(p.allowed[position])
}

// Validate returns an *InvalidScoringError for a rejected pair.
func (p *Policy) Validate(position Position, scoring Format) error {
	if !p.IsValid(position, scoring) {
		return &InvalidScoringError{Position: position, Scoring: scoring}
	}
	return nil
}

// Slice is one (position, scoring) combination of a scrape.
type Slice struct {
	Position Position
	Scoring  Format
}

func (s Slice) String() string {
	return s.Position.FileTag() + "_" + string(s.Scoring)
}

// Slices expands positions into every valid slice, in position order then
// format order.
func (p *Policy) Slices(positions []Position) []Slice {
	var out []Slice
	for _, pos := range positions {
		for _, f := range p.allowed[pos] {
			out = append(out, Slice{Position: pos, Scoring: f})
		}
	}
	return out
}

// DraftPositions lists positions offered for draft rankings, overall first.
func DraftPositions() []Position {
	return []Position{ALL, QB, RB, WR, TE, DST, K}
}

// WeeklyPositions lists positions offered for weekly rankings.
func WeeklyPositions() []Position {
	return []Position{QB, RB, WR, TE, FLEX, QBFlex, DST, K}
}

// CheckDraftPosition rejects positions without draft rankings.
func CheckDraftPosition(p Position) error {
	if !slices.Contains(DraftPositions(), p) {
		return fmt.Errorf("%w: %s has no draft rankings", ErrInvalidPosition, p)
	}
	return nil
}

// CheckWeeklyPosition rejects positions without weekly rankings.
func CheckWeeklyPosition(p Position) error {
	if !slices.Contains(WeeklyPositions(), p) {
		return fmt.Errorf("%w: %s has no weekly rankings", ErrInvalidPosition, p)
	}
	return nil
}
