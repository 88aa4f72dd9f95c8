// Package syncrun pushes everything the local store changed since the last
// completed run to the webshop, one kind at a time in dependency order.
package syncrun

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"webshopsync/internal/entity"
	"webshopsync/internal/metrics"
	"webshopsync/internal/repository"
)

// Source is the local source of truth.
type Source interface {
	Countries(ctx context.Context, c Changes) ([]entity.Country, error)
	Authors(ctx context.Context, c Changes) ([]entity.Author, error)
	Bindings(ctx context.Context, c Changes) ([]entity.Binding, error)
	Manufacturers(ctx context.Context, c Changes) ([]entity.Manufacturer, error)
	Suppliers(ctx context.Context, c Changes) ([]entity.Supplier, error)
	ProductSeries(ctx context.Context, c Changes) ([]entity.ProductSeries, error)
	ProductCategories(ctx context.Context, c Changes) ([]entity.ProductCategory, error)
	Customers(ctx context.Context, c Changes) ([]entity.Customer, error)
	Products(ctx context.Context, c Changes) ([]entity.Product, error)

	SaveCustomerWebshopID(ctx context.Context, storeID, webshopID int64) error
	MarkPicturesUploaded(ctx context.Context, productID int64, names []string) error
}

type Config struct {
	// Concurrency bounds the entities of one kind pushed at once.
	Concurrency int
}

type Service struct {
	source Source
	runs   RunStore
	remote *repository.Set
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(source Source, runs RunStore, remote *repository.Set, cfg Config, log zerolog.Logger) *Service {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Service{
		source: source,
		runs:   runs,
		remote: remote,
		cfg:    cfg,
		log:    log,
		now:    time.Now,
	}
}

// Run pushes every change made after since. A zero since resumes from the
// start of the last completed run. Entities the webshop refuses are
// recorded as failures and do not stop the run; the next run pushes them
// again.
func (s *Service) Run(ctx context.Context, since time.Time) (run *Run, err error) {
	last, err := s.runs.LastCompletedRun(ctx)
	if err != nil {
		return nil, err
	}
	var retry map[entity.Kind][]int64
	if last != nil {
		if since.IsZero() {
			since = last.StartedAt
		}
		if last.Failed > 0 {
			if retry, err = s.retryKeys(ctx, last.ID); err != nil {
				return nil, err
			}
		}
	}

	run = &Run{
		ID:        uuid.NewString(),
		StartedAt: s.now().UTC(),
		Status:    StatusRunning,
		Since:     since.UTC(),
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	log := s.log.With().Str("run_id", run.ID).Time("since", run.Since).Logger()
	log.Info().Msg("sync run started")

	defer func() {
		now := s.now().UTC()
		run.FinishedAt = &now
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			run.Status = StatusCanceled
		case err != nil:
			run.Status = StatusFailed
		default:
			run.Status = StatusCompleted
		}
		if err != nil && run.Error == "" {
			run.Error = err.Error()
		}
		if updateErr := s.runs.UpdateRun(context.WithoutCancel(ctx), run); updateErr != nil {
			log.Error().Err(updateErr).Msg("failed to update sync run")
		}
		log.Info().
			Str("status", string(run.Status)).
			Int("pushed", run.Pushed).
			Int("failed", run.Failed).
			Msg("sync run finished")
	}()

	b := &batch{Service: s, run: run, since: run.Since, retry: retry, log: log}
	for _, kind := range entity.Kinds {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		if err := b.syncKind(ctx, kind); err != nil {
			return run, fmt.Errorf("sync %s: %w", kind, err)
		}
	}
	return run, nil
}

// retryKeys returns the keys of the entities runID failed to push, by kind.
func (s *Service) retryKeys(ctx context.Context, runID string) (map[entity.Kind][]int64, error) {
	failures, err := s.runs.Failures(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failures of run %s: %w", runID, err)
	}

	keys := make(map[entity.Kind][]int64)
	for _, f := range failures {
		id, err := strconv.ParseInt(f.Key, 10, 64)
		if err != nil {
			s.log.Warn().Str("kind", f.Kind.String()).Str("key", f.Key).Msg("skipping failure with a non numeric key")
			continue
		}
		keys[f.Kind] = append(keys[f.Kind], id)
	}
	return keys, nil
}

// batch is the state of one run. Counters are guarded by mu.
type batch struct {
	*Service
	run   *Run
	since time.Time
	retry map[entity.Kind][]int64
	log   zerolog.Logger
	mu    sync.Mutex
}

func (b *batch) syncKind(ctx context.Context, kind entity.Kind) error {
	r := b.remote
	switch kind {
	case entity.KindCountry:
		return pushAll(ctx, b, kind, b.source.Countries,
			func(c entity.Country) string { return strconv.FormatInt(c.ID, 10) },
			update(r.Countries.Update))
	case entity.KindAuthor:
		return pushAll(ctx, b, kind, b.source.Authors,
			func(a entity.Author) string { return strconv.FormatInt(a.ID, 10) },
			update(r.Authors.Update))
	case entity.KindBinding:
		return pushAll(ctx, b, kind, b.source.Bindings,
			func(v entity.Binding) string { return strconv.FormatInt(v.ID, 10) },
			update(r.Bindings.Update))
	case entity.KindManufacturer:
		return pushAll(ctx, b, kind, b.source.Manufacturers,
			func(m entity.Manufacturer) string { return strconv.FormatInt(m.ID, 10) },
			update(r.Manufacturers.Update))
	case entity.KindSupplier:
		return pushAll(ctx, b, kind, b.source.Suppliers,
			func(v entity.Supplier) string { return strconv.FormatInt(v.ID, 10) },
			update(r.Suppliers.Update))
	case entity.KindProductSeries:
		return pushAll(ctx, b, kind, b.source.ProductSeries,
			func(v entity.ProductSeries) string { return strconv.FormatInt(v.ID, 10) },
			update(r.ProductSeries.Update))
	case entity.KindProductCategory:
		return pushAll(ctx, b, kind, b.source.ProductCategories,
			func(c entity.ProductCategory) string { return strconv.FormatInt(c.ID, 10) },
			update(r.ProductCategories.Update))
	case entity.KindCustomer:
		return pushAll(ctx, b, kind, b.source.Customers,
			func(c entity.Customer) string { return strconv.FormatInt(c.StoreID, 10) },
			b.pushCustomer)
	case entity.KindProduct:
		return pushAll(ctx, b, kind, b.source.Products,
			func(p entity.Product) string { return strconv.FormatInt(p.ID, 10) },
			b.pushProduct)
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}
}

func update[T any](fn func(context.Context, T) (*T, error)) func(context.Context, T) error {
	return func(ctx context.Context, v T) error {
		_, err := fn(ctx, v)
		return err
	}
}

// pushCustomer upserts by StoreID and then stores the WebshopID the
// webshop holds for it.
func (b *batch) pushCustomer(ctx context.Context, c entity.Customer) error {
	if _, err := b.remote.Customers.Update(ctx, c); err != nil {
		return err
	}
	remote, err := b.remote.Customers.GetByStoreID(ctx, c.StoreID)
	if err != nil {
		return fmt.Errorf("resolve webshop id: %w", err)
	}
	if remote.WebshopID == c.WebshopID {
		return nil
	}
	return b.source.SaveCustomerWebshopID(ctx, c.StoreID, remote.WebshopID)
}

func (b *batch) pushProduct(ctx context.Context, p entity.Product) error {
	rep, err := b.remote.Products.Push(ctx, &p)
	if err != nil {
		return err
	}
	if len(rep.Uploaded) == 0 {
		return nil
	}
	return b.source.MarkPicturesUploaded(ctx, p.ID, rep.Uploaded)
}

func pushAll[T any](
	ctx context.Context,
	b *batch,
	kind entity.Kind,
	load func(context.Context, Changes) ([]T, error),
	key func(T) string,
	push func(context.Context, T) error,
) error {
	items, err := load(ctx, Changes{Since: b.since, Retry: b.retry[kind]})
	if err != nil {
		return fmt.Errorf("load changes: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	b.log.Info().Str("kind", kind.String()).Int("count", len(items)).Msg("pushing changes")

	var g errgroup.Group
	g.SetLimit(b.cfg.Concurrency)
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// g.Go may have waited for a slot past the cancellation
			if ctx.Err() != nil {
				return nil
			}
			// an entity already in flight finishes even if the run is canceled
			err := push(context.WithoutCancel(ctx), item)
			b.record(ctx, kind, key(item), err)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

func (b *batch) record(ctx context.Context, kind entity.Kind, key string, err error) {
	metrics.RecordSyncEntity(kind.String(), err)

	b.mu.Lock()
	if err == nil {
		b.run.Pushed++
	} else {
		b.run.Failed++
	}
	b.mu.Unlock()

	if err == nil {
		b.log.Debug().Str("kind", kind.String()).Str("key", key).Msg("pushed")
		return
	}

	b.log.Warn().Err(err).Str("kind", kind.String()).Str("key", key).Msg("push failed")
	f := Failure{RunID: b.run.ID, Kind: kind, Key: key, Reason: err.Error()}
	if recErr := b.runs.RecordFailure(context.WithoutCancel(ctx), f); recErr != nil {
		b.log.Error().Err(recErr).Str("kind", kind.String()).Str("key", key).Msg("failed to record failure")
	}
}
