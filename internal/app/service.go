// Package service orchestrates expert and ranking scrapes and answers
// read-only queries over the expert registry.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/ffbrank/ffbrank/internal/adapters/extract"
	"github.com/ffbrank/ffbrank/internal/adapters/fetch"
	"github.com/ffbrank/ffbrank/internal/adapters/mq/queue"
	"github.com/ffbrank/ffbrank/internal/adapters/mq/worker"
	"github.com/ffbrank/ffbrank/internal/adapters/repository"
	"github.com/ffbrank/ffbrank/internal/domain/dedupe"
	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/ranking"
	"github.com/ffbrank/ffbrank/internal/domain/registry"
	"github.com/ffbrank/ffbrank/internal/domain/scoring"
	"github.com/ffbrank/ffbrank/pkg/logger"
	"github.com/ffbrank/ffbrank/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	defaultQueueSize        = 1024
)

// DocumentFetcher loads an HTML page. A nil document means the page did
// not load.
type DocumentFetcher interface {
	Document(ctx context.Context, url string, query map[string]string) (*goquery.Document, error)
}

// APIFetcher loads a JSON object. A nil object means the call failed softly.
type APIFetcher interface {
	JSON(ctx context.Context, url string, query map[string]string) (map[string]any, error)
}

// Registry is the durable expert registry.
type Registry interface {
	Apply(ctx context.Context, observed []model.ExpertIdentity, label string) (registry.Outcome, error)
	Entries(ctx context.Context) ([]model.RegistryEntry, error)
}

// Snapshots persists listing and ranking snapshots and returns their paths.
type Snapshots interface {
	SaveListing(ctx context.Context, key repository.ListingKey, experts []model.ExpertIdentity) (string, error)
	SaveRanking(ctx context.Context, key repository.RankingKey, entries []model.RankingEntry) (string, error)
}

// Calendar reports the current season and week. Week 0 is the draft.
type Calendar interface {
	CurrentSeason() int
	CurrentWeek(ctx context.Context) (int, error)
}

// ExpertsRequest describes one expert scrape batch.
type ExpertsRequest struct {
	Year   int
	Period model.Period
	// UpdateMaster merges the observed identities into the registry.
	UpdateMaster bool
	// Positions and Scorings narrow the batch. Empty means every slice
	// the period offers.
	Positions []scoring.Position
	Scorings  []scoring.Format
}

// RankingsRequest describes one ranking scrape batch.
type RankingsRequest struct {
	Year   int
	Period model.Period
	// StartExpert skips experts with a lower id.
	StartExpert int
	Positions   []scoring.Position
	Scorings    []scoring.Format
}

// Report summarizes a batch.
type Report struct {
	RunID  uuid.UUID
	Year   int
	Period model.Period
	Slices int
	Tasks  worker.Stats
	// Observed is the number of distinct identities seen.
	Observed int
	Experts  int
	Skipped  int
	Dropped  int
	Files    []string
	// Merge is nil when the registry was not updated.
	Merge      *registry.Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Stats describes the registry contents.
type Stats struct {
	Entries          int            `json:"entries"`
	Experts          int            `json:"experts"`
	Sites            map[string]int `json:"sites"`
	LatestAppearance string         `json:"latest_appearance,omitempty"`
}

// Service runs scrape batches and serves registry queries.
type Service struct {
	registry Registry
	docs     DocumentFetcher
	api      APIFetcher
	snaps    Snapshots
	cal      Calendar
	site     fetch.Site
	policy   *scoring.Policy
	order    model.LabelOrder

	workerCount int
	queueSize   int
	now         func() time.Time

	logger logger.Logger
}

// New creates a service over reg.
func New(reg Registry, opts ...Option) *Service {
	s := &Service{
		registry:    reg,
		site:        fetch.NewSite("", "", 0),
		policy:      scoring.NewPolicy(),
		order:       model.ChronologicalOrder{},
		workerCount: runtime.NumCPU() * defaultWorkerMultiplier,
		queueSize:   defaultQueueSize,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	return s
}

// Resolve fills a non-positive year with the current season and a
// negative week with the current week, then maps week to a Period.
func (s *Service) Resolve(ctx context.Context, year, week int) (int, model.Period, error) {
	if (year <= 0 || week < 0) && s.cal == nil {
		return 0, model.Period{}, fmt.Errorf("%w: calendar", ErrNotConfigured)
	}
	if year <= 0 {
		year = s.cal.CurrentSeason()
	}
	if week < 0 {
		w, err := s.cal.CurrentWeek(ctx)
		if err != nil {
			return 0, model.Period{}, err
		}
		week = w
	}
	p, err := model.ResolveWeek(week)
	if err != nil {
		return 0, model.Period{}, err
	}
	return year, p, nil
}

// ScrapeExperts reads every listing page of the batch, writes one listing
// file per slice and, when asked, merges the identities into the registry
// once at the end. Slices that fail to load are counted and skipped.
func (s *Service) ScrapeExperts(ctx context.Context, req ExpertsRequest) (Report, error) {
	if s.docs == nil || s.snaps == nil {
		return Report{}, fmt.Errorf("%w: document fetcher and snapshots", ErrNotConfigured)
	}
	slices, err := s.plan(req.Year, req.Period, req.Positions, req.Scorings)
	if err != nil {
		return Report{}, err
	}

	report := s.newReport(req.Year, req.Period, len(slices))
	log := s.logger.With(logger.String("run_id", report.RunID.String()))
	log.Info(ctx, "expert scrape started",
		logger.String("label", req.Period.Label(req.Year)),
		logger.Int("slices", len(slices)),
	)

	observedAt := report.StartedAt
	collector := dedupe.NewCollector()
	t := &tally{}

	tasks := make([]queue.Task, 0, len(slices))
	for _, slice := range slices {
		tasks = append(tasks, queue.Task{
			Name: "experts " + slice.String(),
			Run: func(ctx context.Context) error {
				return s.scrapeListing(ctx, req.Year, req.Period, slice, observedAt, collector, t)
			},
		})
	}

	stats, err := s.runBatch(ctx, tasks)
	t.fill(&report, stats)
	observed := collector.Snapshot()
	report.Observed = len(observed)
	if err != nil {
		report.FinishedAt = s.now()
		return report, err
	}

	if req.UpdateMaster && len(observed) > 0 {
		out, err := s.registry.Apply(ctx, observed, req.Period.Label(req.Year))
		if err != nil {
			report.FinishedAt = s.now()
			return report, err
		}
		report.Merge = &out
	}

	report.FinishedAt = s.now()
	log.Info(ctx, "expert scrape finished",
		logger.Int("observed", report.Observed),
		logger.Int64("empty", stats.Empty),
		logger.Int64("failed", stats.Failed),
		logger.Bool("merged", report.Merge != nil),
		logger.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (s *Service) scrapeListing(ctx context.Context, year int, period model.Period, slice scoring.Slice,
	observedAt time.Time, collector dedupe.Collector, t *tally,
) error {
	url, query, err := s.site.ListingURL(year, period, slice)
	if err != nil {
		return err
	}
	doc, err := s.docs.Document(ctx, url, query)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.RecordEmptyResult(fetch.KindDocument)
		return fmt.Errorf("listing %s: %w: %w", slice, model.ErrEmptyResult, err)
	}
	if doc == nil {
		metrics.RecordEmptyResult(fetch.KindDocument)
		return fmt.Errorf("listing %s: %w", slice, model.ErrEmptyResult)
	}

	res := extract.Extract(doc, observedAt)
	metrics.RecordSkippedRows(res.Skipped)
	metrics.RecordExpertsExtracted(len(res.Experts))
	t.skip(res.Skipped)
	collector.Record(ctx, res.Experts...)

	// a page that loaded but listed nobody still leaves a header-only file
	path, err := s.snaps.SaveListing(ctx, repository.ListingKey{Year: year, Period: period, Slice: slice}, res.Experts)
	if err != nil {
		return fmt.Errorf("save listing %s: %w", slice, err)
	}
	t.file(path)
	if len(res.Experts) == 0 {
		metrics.RecordEmptyResult(fetch.KindDocument)
		return fmt.Errorf("listing %s has no experts: %w", slice, model.ErrEmptyResult)
	}
	return nil
}

// ScrapeRankings fetches every registered expert's ranking for each slice
// and writes the non-empty ones. A corrupt registry aborts the batch
// before any request is made.
func (s *Service) ScrapeRankings(ctx context.Context, req RankingsRequest) (Report, error) {
	if s.api == nil || s.snaps == nil {
		return Report{}, fmt.Errorf("%w: api fetcher and snapshots", ErrNotConfigured)
	}
	slices, err := s.plan(req.Year, req.Period, req.Positions, req.Scorings)
	if err != nil {
		return Report{}, err
	}
	entries, err := s.registry.Entries(ctx)
	if err != nil {
		return Report{}, err
	}
	experts := selectExperts(entries, req.StartExpert)

	report := s.newReport(req.Year, req.Period, len(slices))
	report.Experts = len(experts)
	log := s.logger.With(logger.String("run_id", report.RunID.String()))
	log.Info(ctx, "ranking scrape started",
		logger.String("label", req.Period.Label(req.Year)),
		logger.Int("experts", len(experts)),
		logger.Int("slices", len(slices)),
	)

	observedAt := report.StartedAt
	t := &tally{}
	tasks := make([]queue.Task, 0, len(experts)*len(slices))
	for _, e := range experts {
		for _, slice := range slices {
			tasks = append(tasks, queue.Task{
				Name: fmt.Sprintf("rankings %d %s", e.ExpertID, slice),
				Run: func(ctx context.Context) error {
					return s.scrapeRanking(ctx, req.Year, req.Period, slice, e, observedAt, t)
				},
			})
		}
	}

	stats, err := s.runBatch(ctx, tasks)
	t.fill(&report, stats)
	report.FinishedAt = s.now()
	if err != nil {
		return report, err
	}
	log.Info(ctx, "ranking scrape finished",
		logger.Int("files", len(report.Files)),
		logger.Int64("empty", stats.Empty),
		logger.Int64("failed", stats.Failed),
		logger.Int("dropped", report.Dropped),
		logger.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, nil
}

func (s *Service) scrapeRanking(ctx context.Context, year int, period model.Period, slice scoring.Slice,
	e model.RegistryEntry, observedAt time.Time, t *tally,
) error {
	query := s.site.RankingsQuery(year, period, slice, e.ExpertID)
	payload, err := s.api.JSON(ctx, s.site.APIURL, query)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.RecordEmptyResult(fetch.KindAPI)
		return fmt.Errorf("rankings %d %s: %w: %w", e.ExpertID, slice, model.ErrEmptyResult, err)
	}

	raw, malformed := players(payload)
	entries, dropped := ranking.Normalize(raw, e.ExpertID, observedAt)
	dropped += malformed
	metrics.RecordDroppedPlayers(dropped)
	t.drop(dropped)
	if len(entries) == 0 {
		metrics.RecordEmptyResult(fetch.KindAPI)
		return fmt.Errorf("rankings %d %s: %w", e.ExpertID, slice, model.ErrEmptyResult)
	}

	key := repository.RankingKey{Year: year, Period: period, Expert: e.Identity(), Slice: slice}
	path, err := s.snaps.SaveRanking(ctx, key, entries)
	if err != nil {
		return fmt.Errorf("save rankings %d %s: %w", e.ExpertID, slice, err)
	}
	metrics.RecordRankingWritten()
	t.file(path)
	return nil
}

// players pulls the player records out of a rankings payload. Items that
// are not objects are counted as malformed.
func players(payload map[string]any) ([]model.RawPlayer, int) {
	list, ok := payload["players"].([]any)
	if !ok {
		return nil, 0
	}
	out := make([]model.RawPlayer, 0, len(list))
	malformed := 0
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			malformed++
			continue
		}
		out = append(out, rec)
	}
	return out, malformed
}

// selectExperts keeps the most recently seen entry per expert id, skipping
// ids below start.
func selectExperts(entries []model.RegistryEntry, start int) []model.RegistryEntry {
	latest := registry.LatestPerExpert(entries)
	out := latest[:0]
	for _, e := range latest {
		if e.ExpertID >= start {
			out = append(out, e)
		}
	}
	return out
}

// Experts returns the registry, optionally limited to one site.
func (s *Service) Experts(ctx context.Context, site string) ([]model.RegistryEntry, error) {
	entries, err := s.registry.Entries(ctx)
	if err != nil {
		return nil, err
	}
	site = strings.TrimSpace(site)
	if site == "" {
		return entries, nil
	}
	out := make([]model.RegistryEntry, 0)
	for _, e := range entries {
		if strings.EqualFold(e.Site, site) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Expert returns every registry entry recorded for an expert id.
func (s *Service) Expert(ctx context.Context, id int) ([]model.RegistryEntry, error) {
	entries, err := s.registry.Entries(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.RegistryEntry
	for _, e := range entries {
		if e.ExpertID == id {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return out, nil
}

// Stats summarizes the registry.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	entries, err := s.registry.Entries(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Entries: len(entries), Sites: map[string]int{}}
	ids := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		ids[e.ExpertID] = struct{}{}
		st.Sites[e.Site]++
		if st.LatestAppearance == "" {
			st.LatestAppearance = e.LastAppearance
			continue
		}
		if c, err := s.order.Compare(e.LastAppearance, st.LatestAppearance); err == nil && c > 0 {
			st.LatestAppearance = e.LastAppearance
		}
	}
	st.Experts = len(ids)
	return st, nil
}

// plan expands a request into slices, rejecting positions the period does
// not offer and scoring formats the policy does not allow.
func (s *Service) plan(year int, period model.Period, positions []scoring.Position, formats []scoring.Format) ([]scoring.Slice, error) {
	if year <= 0 {
		return nil, fmt.Errorf("%w: year must be positive, got %d", model.ErrInvalidPeriod, year)
	}
	check := scoring.CheckWeeklyPosition
	if period.IsDraft() {
		check = scoring.CheckDraftPosition
	}
	if len(positions) == 0 {
		if period.IsDraft() {
			positions = scoring.DraftPositions()
		} else {
			positions = scoring.WeeklyPositions()
		}
	}

	var out []scoring.Slice
	for _, pos := range positions {
		if err := check(pos); err != nil {
			return nil, err
		}
		if len(formats) == 0 {
			out = append(out, s.policy.Slices([]scoring.Position{pos})...)
			continue
		}
		for _, f := range formats {
			if err := s.policy.Validate(pos, f); err != nil {
				return nil, err
			}
			out = append(out, scoring.Slice{Position: pos, Scoring: f})
		}
	}
	return out, nil
}

// runBatch pushes tasks through a bounded queue into a worker pool sized
// for the batch and waits for them to finish.
func (s *Service) runBatch(ctx context.Context, tasks []queue.Task) (worker.Stats, error) {
	if len(tasks) == 0 {
		return worker.Stats{}, ctx.Err()
	}
	q := queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	pool := worker.NewPool(min(s.workerCount, len(tasks)), q)
	pool.Start(ctx)

	var putErr error
	for _, t := range tasks {
		if putErr = q.Put(ctx, t); putErr != nil {
			break
		}
	}
	_ = q.Close()
	stats := pool.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, putErr
}

func (s *Service) newReport(year int, period model.Period, slices int) Report {
	return Report{
		RunID:     uuid.New(),
		Year:      year,
		Period:    period,
		Slices:    slices,
		StartedAt: s.now().Truncate(time.Second),
	}
}

// tally collects per-task counters for a report.
type tally struct {
	mu      sync.Mutex
	files   []string
	skipped int
	dropped int
}

func (t *tally) file(path string) {
	t.mu.Lock()
	t.files = append(t.files, path)
	t.mu.Unlock()
}

func (t *tally) skip(n int) {
	t.mu.Lock()
	t.skipped += n
	t.mu.Unlock()
}

func (t *tally) drop(n int) {
	t.mu.Lock()
	t.dropped += n
	t.mu.Unlock()
}

func (t *tally) fill(r *Report, stats worker.Stats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r.Tasks = stats
	r.Files = append([]string(nil), t.files...)
	sort.Strings(r.Files)
	r.Skipped = t.skipped
	r.Dropped = t.dropped
}
