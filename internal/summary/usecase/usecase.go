package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/summary"
	"github.com/fekuna/omnipos-inventory-service/internal/summary/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LedgerReader is the read side of inventory.Repository used by the summary.
type LedgerReader interface {
	ListAll(ctx context.Context) ([]model.Inventory, error)
	MovementTotals(ctx context.Context, productIDs []string) (map[string]model.MovementTotals, error)
}

type Config struct {
	TTL time.Duration
	// OpTimeout bounds each cache round trip.
	OpTimeout time.Duration
	// ComputeTimeout bounds a shared computation, which outlives any single caller's context.
	ComputeTimeout time.Duration
}

type summaryUseCase struct {
	ledger  LedgerReader
	catalog catalog.Gateway
	cache   summary.Cache
	cfg     Config
	logger  logger.ZapLogger

	group  singleflight.Group
	tracer trace.Tracer
	hits   metric.Int64Counter
	misses metric.Int64Counter
}

func NewSummaryUseCase(ledger LedgerReader, gw catalog.Gateway, cache summary.Cache, cfg Config, log logger.ZapLogger) summary.UseCase {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Minute
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 2 * time.Second
	}
	if cfg.ComputeTimeout <= 0 {
		cfg.ComputeTimeout = 30 * time.Second
	}

	meter := otel.Meter("inventory.summary")
	hits, err := meter.Int64Counter("inventory.summary.cache.hits")
	if err != nil {
		log.Warn("failed to create cache hit counter", zap.Error(err))
	}
	misses, err := meter.Int64Counter("inventory.summary.cache.misses")
	if err != nil {
		log.Warn("failed to create cache miss counter", zap.Error(err))
	}

	return &summaryUseCase{
		ledger:  ledger,
		catalog: gw,
		cache:   cache,
		cfg:     cfg,
		logger:  log,
		tracer:  otel.Tracer("inventory.summary"),
		hits:    hits,
		misses:  misses,
	}
}

func (uc *summaryUseCase) Summarize(ctx context.Context, q dto.SummaryQuery) (*dto.SummaryResult, error) {
	q = summary.Normalize(q)
	ctx, span := uc.tracer.Start(ctx, "summary.Summarize", trace.WithAttributes(
		attribute.String("summary.filter", q.Filter),
		attribute.Int("summary.page", q.Page),
		attribute.Int("summary.limit", q.Limit),
	))
	defer span.End()

	result, err := uc.summarize(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

func (uc *summaryUseCase) summarize(ctx context.Context, q dto.SummaryQuery) (*dto.SummaryResult, error) {
	records, err := uc.ledger.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ProductID)
	}

	totals, err := uc.ledger.MovementTotals(ctx, ids)
	if err != nil {
		return nil, err
	}

	// A catalog failure fails the whole summary; zero-filled lines would undercount.
	details, err := uc.catalog.GetProductDetailsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return aggregate(records, totals, details, q), nil
}

func (uc *summaryUseCase) GetSummary(ctx context.Context, q dto.SummaryQuery) (*dto.SummaryResult, error) {
	q = summary.Normalize(q)
	if !summary.Cacheable(q) {
		return uc.Summarize(ctx, q)
	}
	key := summary.CacheKey(q)

	if cached, ok := uc.lookup(ctx, key); ok {
		uc.count(ctx, uc.hits)
		return cached, nil
	}
	uc.count(ctx, uc.misses)

	// Waiters on the same key share one computation; each waiter gives up on its own context.
	ch := uc.group.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.ComputeTimeout)
		defer cancel()

		generation, genErr := uc.generation(ctx)

		result, err := uc.Summarize(ctx, q)
		if err != nil {
			return nil, err
		}
		if genErr == nil {
			uc.store(ctx, key, result, generation)
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dto.SummaryResult), nil
	}
}

func (uc *summaryUseCase) Invalidate(ctx context.Context, q dto.SummaryQuery) error {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.OpTimeout)
	defer cancel()
	return uc.cache.Delete(ctx, summary.CacheKey(q))
}

func (uc *summaryUseCase) InvalidateAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.OpTimeout)
	defer cancel()
	if err := uc.cache.InvalidateAll(ctx); err != nil {
		return err
	}
	uc.logger.Debug("summary cache invalidated")
	return nil
}

// Cache failures degrade to a recompute; the cache is derived state.
func (uc *summaryUseCase) lookup(ctx context.Context, key string) (*dto.SummaryResult, bool) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.OpTimeout)
	defer cancel()

	cached, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("summary cache read failed", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	return cached, ok
}

func (uc *summaryUseCase) generation(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.OpTimeout)
	defer cancel()

	gen, err := uc.cache.Generation(ctx)
	if err != nil {
		uc.logger.Warn("summary cache generation read failed", zap.Error(err))
	}
	return gen, err
}

func (uc *summaryUseCase) store(ctx context.Context, key string, result *dto.SummaryResult, generation int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.OpTimeout)
	defer cancel()

	stored, err := uc.cache.SetIfGeneration(ctx, key, result, generation, uc.cfg.TTL)
	switch {
	case err != nil:
		uc.logger.Warn("summary cache write failed", zap.String("cache_key", key), zap.Error(err))
	case !stored:
		uc.logger.Debug("summary invalidated during compute, not cached", zap.String("cache_key", key))
	}
}

func (uc *summaryUseCase) count(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}
