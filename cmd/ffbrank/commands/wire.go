package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ffbrank/ffbrank/internal/adapters/calendar"
	"github.com/ffbrank/ffbrank/internal/adapters/fetch"
	"github.com/ffbrank/ffbrank/internal/adapters/repository"
	service "github.com/ffbrank/ffbrank/internal/app"
	"github.com/ffbrank/ffbrank/internal/config"
	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/internal/domain/registry"
	"github.com/ffbrank/ffbrank/internal/domain/scoring"
)

// openStore returns the registry store selected by the configuration and a
// function that releases it.
func openStore(ctx context.Context, c *config.Config) (registry.Store, func() error, error) {
	noop := func() error { return nil }
	layout := repository.Layout{Base: c.BaseDir}

	switch c.RegistryBackend {
	case config.BackendSQLite:
		path := c.SQLitePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.BaseDir, path)
		}
		db, err := repository.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case config.BackendMemory:
		return repository.NewMemoryRegistry(), noop, nil
	default:
		return repository.NewCSVRegistry(layout.MasterFile()), noop, nil
	}
}

// newService wires the orchestrator from configuration.
func newService(ctx context.Context, c *config.Config) (*service.Service, func() error, error) {
	order, err := model.OrderByName(c.PeriodOrdering)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openStore(ctx, c)
	if err != nil {
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}

	regOpts := []registry.Option{registry.WithOrder(order)}
	if c.RegistryBackend != config.BackendMemory {
		lockPath := repository.Layout{Base: c.BaseDir}.MasterFile() + ".lock"
		regOpts = append(regOpts, registry.WithLocker(repository.NewFileLock(lockPath)))
	}

	client := fetch.NewClient(
		fetch.WithTimeout(c.HTTPTimeout()),
		fetch.WithRetries(c.FetchRetries),
		fetch.WithUserAgent(c.UserAgent),
		fetch.WithRateLimit(c.RequestsPerSecond, c.RequestBurst),
	)
	site := fetch.NewSite(c.SiteBaseURL, c.APIURL, c.APISourceID)

	svc := service.New(registry.New(store, regOpts...),
		service.WithFetchers(client, client),
		service.WithSnapshots(repository.NewCSVSnapshots(c.BaseDir)),
		service.WithCalendar(calendar.New(client, site.WeekProbeURL())),
		service.WithSite(site),
		service.WithOrder(order),
		service.WithWorkerCount(c.WorkerCount),
		service.WithQueueSize(c.QueueSize),
	)
	return svc, closeStore, nil
}

func parsePositions(raw []string) ([]scoring.Position, error) {
	out := make([]scoring.Position, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		p, err := scoring.ParsePosition(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parseScorings(raw []string) ([]scoring.Format, error) {
	out := make([]scoring.Format, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		f, err := scoring.ParseFormat(r)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
