package service

import (
	"time"

	"github.com/ffbrank/ffbrank/internal/adapters/fetch"
	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/scoring"
	"github.com/ffbrank/ffbrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of concurrent fetch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the task queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithFetchers sets the listing page and rankings API fetchers.
func WithFetchers(docs DocumentFetcher, api APIFetcher) Option {
	return func(s *Service) {
		s.docs = docs
		s.api = api
	}
}

// WithSnapshots sets where listings and rankings are written.
func WithSnapshots(snaps Snapshots) Option {
	return func(s *Service) { s.snaps = snaps }
}

// WithCalendar sets the season and week source.
func WithCalendar(cal Calendar) Option {
	return func(s *Service) { s.cal = cal }
}

// WithSite sets the URL and query builders for the rankings site.
func WithSite(site fetch.Site) Option {
	return func(s *Service) { s.site = site }
}

// WithPolicy replaces the scoring policy.
func WithPolicy(p *scoring.Policy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithOrder sets the ordering used to report the latest appearance.
func WithOrder(o model.LabelOrder) Option {
	return func(s *Service) {
		if o != nil {
			s.order = o
		}
	}
}

// WithClock overrides the time source for observation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
