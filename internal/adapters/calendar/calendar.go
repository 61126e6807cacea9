// Package calendar supplies the current season and ranking week.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrWeekUnavailable is returned when the current week cannot be read.
var ErrWeekUnavailable = errors.New("current week unavailable")

// DocumentFetcher returns a parsed page, or nil on a non-success status.
type DocumentFetcher interface {
	Document(ctx context.Context, url string, query map[string]string) (*goquery.Document, error)
}

// SeasonOf returns the season year for t: the calendar year from March on,
// the previous year in January and February.
func SeasonOf(t time.Time) int {
	if t.Month() > time.February {
		return t.Year()
	}
	return t.Year() - 1
}

// Service answers calendar questions.
type Service struct {
	fetcher  DocumentFetcher
	probeURL string
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service that reads the current week from the page at
// probeURL.
func New(fetcher DocumentFetcher, probeURL string, opts ...Option) *Service {
	s := &Service{fetcher: fetcher, probeURL: probeURL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentSeason returns the season for the service clock.
func (s *Service) CurrentSeason() int {
	return SeasonOf(s.now())
}

// CurrentWeek reads the week number from the probe page title, which
// starts with "Week N".
func (s *Service) CurrentWeek(ctx context.Context) (int, error) {
	doc, err := s.fetcher.Document(ctx, s.probeURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWeekUnavailable, err)
	}
	if doc == nil {
		return 0, fmt.Errorf("%w: %s did not load", ErrWeekUnavailable, s.probeURL)
	}
	return WeekFromTitle(doc.Find("title").First().Text())
}

// WeekFromTitle parses titles like "Week 1 QB Rankings ...".
func WeekFromTitle(title string) (int, error) {
	fields := strings.Fields(title)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "week") {
		return 0, fmt.Errorf("%w: title %q", ErrWeekUnavailable, title)
	}
	week, err := strconv.Atoi(fields[1])
	if err != nil || week < 0 {
		return 0, fmt.Errorf("%w: title %q", ErrWeekUnavailable, title)
	}
	return week, nil
}
