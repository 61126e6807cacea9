package repository

import (
	"time"

	"github.com/ffbrank/ffbrank/pkg/logger"
)

type settings struct {
	log      logger.Logger
	location *time.Location
	perm     uint32
}

// Option configures the file backed stores.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithLocation sets the zone CSV timestamps are written and read in.
// Defaults to UTC. Pass time.Local only for trees already written in local
// wall time; such files break across a DST fall-back.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithFileMode sets the permission bits of created files.
func WithFileMode(perm uint32) Option {
	return func(s *settings) {
		if perm != 0 {
			s.perm = perm
		}
	}
}

func newSettings(component string, opts []Option) settings {
	s := settings{location: time.UTC, perm: 0o644}
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = logger.Named(component)
	}
	return s
}
