package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/summary/dto"
)

const (
	KeyPrefix     = "inventory_summary:"
	DefaultPage   = 1
	DefaultLimit  = 10
	allFilterName = "all"
)

type UseCase interface {
	// Summarize always recomputes from the ledger and the catalog.
	Summarize(ctx context.Context, q dto.SummaryQuery) (*dto.SummaryResult, error)
	// GetSummary serves from cache and computes on a miss.
	GetSummary(ctx context.Context, q dto.SummaryQuery) (*dto.SummaryResult, error)
	Invalidate(ctx context.Context, q dto.SummaryQuery) error
	InvalidateAll(ctx context.Context) error
}

// Cache stores computed summaries. Every InvalidateAll advances the generation; SetIfGeneration
// refuses to store a value computed under an older generation.
type Cache interface {
	Get(ctx context.Context, key string) (*dto.SummaryResult, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetIfGeneration(ctx context.Context, key string, value *dto.SummaryResult, generation int64, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	InvalidateAll(ctx context.Context) error
}

// Normalize applies the default page and limit to non-positive values.
func Normalize(q dto.SummaryQuery) dto.SummaryQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	return q
}

// Cacheable reports whether q has a key of its own. A literal "all" filter would share the
// unfiltered query's key, so it is always computed.
func Cacheable(q dto.SummaryQuery) bool {
	return q.Filter != allFilterName
}

// CacheKey builds inventory_summary:<filter|all>:<page>:<limit> for a normalized query.
func CacheKey(q dto.SummaryQuery) string {
	q = Normalize(q)
	filter := q.Filter
	if filter == "" {
		filter = allFilterName
	}
	return fmt.Sprintf("%s%s:%d:%d", KeyPrefix, filter, q.Page, q.Limit)
}
