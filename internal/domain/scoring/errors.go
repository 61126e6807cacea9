package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidScoring marks a (position, scoring) pair the policy rejects.
	ErrInvalidScoring = errors.New("invalid scoring")
	// ErrInvalidPosition marks a position that is unknown or not offered
	// for the requested ranking period.
	ErrInvalidPosition = errors.New("invalid position")
)

// InvalidScoringError names the rejected pair.
type InvalidScoringError struct {
	Position Position
	Scoring  Format
}

func (e *InvalidScoringError) Error() string {
	return fmt.Sprintf("%s is not a valid scoring option for %s", e.Scoring, e.Position)
}

func (e *InvalidScoringError) Unwrap() error { return ErrInvalidScoring }
