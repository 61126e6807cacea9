package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ffbrank/ffbrank/internal/domain/model"
	"github.com/ffbrank/ffbrank/pkg/logger"
	"github.com/ffbrank/ffbrank/pkg/metrics"
)

// Store loads and persists the full registry. Load returns an empty set
// when nothing was persisted yet. Save replaces the whole registry.
type Store interface {
	Load(ctx context.Context) ([]model.RegistryEntry, error)
	Save(ctx context.Context, entries []model.RegistryEntry) error
}

// Locker grants exclusive access to the persisted registry across
// processes.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// Outcome summarizes one applied batch.
type Outcome struct {
	Observed int
	Inserted int
	Entries  int
}

// Registry applies observation batches to a Store: load, merge, persist,
// all under exclusive access.
type Registry struct {
	store  Store
	locker Locker
	order  model.LabelOrder
	log    logger.Logger
	mu     sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLocker adds cross-process locking around Apply.
func WithLocker(l Locker) Option {
	return func(r *Registry) { r.locker = l }
}

// WithOrder selects how period labels compare.
func WithOrder(o model.LabelOrder) Option {
	return func(r *Registry) {
		if o != nil {
			r.order = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// New creates a Registry over store.
func New(store Store, opts ...Option) *Registry {
	r := &Registry{store: store, order: model.ChronologicalOrder{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("registry")
	}
	return r
}

// Apply merges observed into the stored registry and persists the result.
// Nothing is written unless the merge succeeds.
func (r *Registry) Apply(ctx context.Context, observed []model.ExpertIdentity, label string) (Outcome, error) {
	start := time.Now()
	out, err := r.apply(ctx, observed, label)
	ms := float64(time.Since(start).Milliseconds())
	if err != nil {
		kind := "error"
		if errors.Is(err, ErrDataIntegrity) {
			kind = "data_integrity"
		}
		metrics.RecordRegistryMerge(kind, ms)
		metrics.RecordErrorByComponent("registry", kind)
		r.log.Error(ctx, "registry merge failed", logger.String("label", label), logger.Error(err))
		return Outcome{}, err
	}
	metrics.RecordRegistryMerge("ok", ms)
	metrics.UpdateRegistryEntries(out.Entries)
	r.log.Info(ctx, "registry merged",
		logger.String("label", label),
		logger.Int("observed", out.Observed),
		logger.Int("inserted", out.Inserted),
		logger.Int("entries", out.Entries),
	)
	return out, nil
}

func (r *Registry) apply(ctx context.Context, observed []model.ExpertIdentity, label string) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("lock registry: %w", err)
		}
		defer func() {
			if uerr := unlock(); uerr != nil {
				r.log.Warn(ctx, "registry unlock failed", logger.Error(uerr))
			}
		}()
	}

	existing, err := r.store.Load(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("load registry: %w", err)
	}
	merged, err := Merge(existing, observed, label, r.order)
	if err != nil {
		return Outcome{}, err
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if err := r.store.Save(ctx, merged); err != nil {
		return Outcome{}, fmt.Errorf("save registry: %w", err)
	}
	return Outcome{
		Observed: len(observed),
		Inserted: len(merged) - len(existing),
		Entries:  len(merged),
	}, nil
}

// Entries returns the stored registry after validating it.
func (r *Registry) Entries(ctx context.Context) ([]model.RegistryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	if err := Validate(entries, r.order); err != nil {
		return nil, err
	}
	return entries, nil
}
