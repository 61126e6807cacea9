package model

import "errors"

// ErrEmptyResult signals a slice that produced no data. It is a soft
// condition: callers record it and move on.
var ErrEmptyResult = errors.New("empty result")

// ErrInvalidPeriod is returned for unusable period inputs or labels.
var ErrInvalidPeriod = errors.New("invalid period")
