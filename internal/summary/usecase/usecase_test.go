package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/summary"
	summarycache "github.com/fekuna/omnipos-inventory-service/internal/summary/cache"
	"github.com/fekuna/omnipos-inventory-service/internal/summary/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLedger struct {
	mu      sync.Mutex
	records []model.Inventory
	totals  map[string]model.MovementTotals
}

func (l *memLedger) ListAll(context.Context) ([]model.Inventory, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Inventory(nil), l.records...), nil
}

func (l *memLedger) MovementTotals(context.Context, []string) (map[string]model.MovementTotals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]model.MovementTotals, len(l.totals))
	for k, v := range l.totals {
		out[k] = v
	}
	return out, nil
}

// receive applies an IN movement to both the projection and the rollup.
func (l *memLedger) receive(productID string, n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.records[i].ProductID == productID {
			l.records[i].QuantityAvailable += n
		}
	}
	t := l.totals[productID]
	t.ProductID = productID
	t.InQty += n
	l.totals[productID] = t
}

type stubCatalog struct {
	details []catalog.ProductDetail
	err     error
	calls   atomic.Int32
	// gate, when set, blocks each call until closed or the call's context ends.
	gate chan struct{}
}

func (s *stubCatalog) GetProductDetailsByIDs(ctx context.Context, _ []string) ([]catalog.ProductDetail, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.details, s.err
}

func (s *stubCatalog) GetProductsByIDs(context.Context, []string) (map[string]string, error) {
	return nil, errors.New("not used")
}

func name(s string) *string { return &s }

func seedLedger() *memLedger {
	return &memLedger{
		records: []model.Inventory{
			{ProductID: "P1", QuantityAvailable: 100},
			{ProductID: "P2", QuantityAvailable: 40},
			{ProductID: "P3", QuantityAvailable: 7},
			{ProductID: "P4", QuantityAvailable: 3, ProductName: name("Loose Widget Kit")},
		},
		totals: map[string]model.MovementTotals{
			"P1": {ProductID: "P1", InQty: 120, OutQty: 20},
			"P2": {ProductID: "P2", InQty: 40},
			"P3": {ProductID: "P3", InQty: 10, OutQty: 3},
		},
	}
}

func seedCatalog() *stubCatalog {
	return &stubCatalog{details: []catalog.ProductDetail{
		{ProductID: "P1", ProductName: "Blue Widget", BaseUnit: "pcs", SellingPrice: decimal.RequireFromString("12.50"), Category: "Hardware"},
		{ProductID: "P2", ProductName: "Red Widget", BaseUnit: "pcs", SellingPrice: decimal.RequireFromString("9.99"), Category: "Hardware"},
		{ProductID: "P3", ProductName: "Green Tea", BaseUnit: "box", SellingPrice: decimal.RequireFromString("4.00"), Category: "Beverages"},
	}}
}

func newCachedUseCase(t *testing.T, ledger *memLedger, gw catalog.Gateway) (summary.UseCase, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	uc := NewSummaryUseCase(ledger, gw, summarycache.NewRedisSummaryCache(client), Config{TTL: time.Minute}, logger.NewNop())
	return uc, mr
}

func TestSummarizeGroupsByCategory(t *testing.T) {
	uc, _ := newCachedUseCase(t, seedLedger(), seedCatalog())

	res, err := uc.Summarize(context.Background(), dto.SummaryQuery{})
	require.NoError(t, err)

	assert.Equal(t, int64(150), res.OverallTotalQuantity)
	assert.Equal(t, int64(170), res.OverallTotalInQty)
	assert.Equal(t, int64(23), res.OverallTotalOutQty)
	assert.Equal(t, 3, res.TotalCategories)
	require.Len(t, res.Categories, 3)

	assert.Equal(t, "Beverages", res.Categories[0].Category)
	assert.Equal(t, "Hardware", res.Categories[1].Category)
	assert.Equal(t, "Uncategorized", res.Categories[2].Category)

	hw := res.Categories[1]
	assert.Equal(t, int64(140), hw.SubTotal)
	assert.Equal(t, int64(160), hw.TotalInQty)
	assert.Equal(t, int64(20), hw.TotalOutQty)
	require.Len(t, hw.Products, 2)
	assert.Equal(t, "Blue Widget", hw.Products[0].ProductName)
	assert.Equal(t, "pcs", hw.Products[0].Unit)
	assert.True(t, decimal.RequireFromString("12.5").Equal(hw.Products[0].Price))

	// P4 is missing from the catalog; its denormalized name is used.
	un := res.Categories[2]
	require.Len(t, un.Products, 1)
	assert.Equal(t, "Loose Widget Kit", un.Products[0].ProductName)
	assert.Equal(t, int64(0), un.Products[0].InQty)
}

func TestSummarizeFilterIsCaseInsensitive(t *testing.T) {
	uc, _ := newCachedUseCase(t, seedLedger(), seedCatalog())

	res, err := uc.Summarize(context.Background(), dto.SummaryQuery{Filter: "WIDGET"})
	require.NoError(t, err)

	require.Len(t, res.Categories, 2)
	for _, g := range res.Categories {
		for _, p := range g.Products {
			assert.Contains(t, p.ProductName, "Widget")
		}
	}
	assert.Equal(t, int64(143), res.OverallTotalQuantity)
	assert.Equal(t, int64(160), res.OverallTotalInQty)
	assert.Equal(t, int64(20), res.OverallTotalOutQty)
}

func TestSummarizePaginatesCategories(t *testing.T) {
	uc, _ := newCachedUseCase(t, seedLedger(), seedCatalog())

	res, err := uc.Summarize(context.Background(), dto.SummaryQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Categories, 1)
	assert.Equal(t, "Uncategorized", res.Categories[0].Category)
	// Grand totals are not paginated.
	assert.Equal(t, int64(150), res.OverallTotalQuantity)

	res, err = uc.Summarize(context.Background(), dto.SummaryQuery{Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, res.Categories)
	assert.Equal(t, 3, res.TotalCategories)
}

func TestSummarizeHugePageIsEmpty(t *testing.T) {
	uc, _ := newCachedUseCase(t, seedLedger(), seedCatalog())

	for _, q := range []dto.SummaryQuery{
		{Page: math.MaxInt/2 + 2, Limit: 2},
		{Page: math.MaxInt, Limit: math.MaxInt},
		{Page: 2, Limit: math.MaxInt},
	} {
		res, err := uc.GetSummary(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, res.Categories)
		assert.Equal(t, 3, res.TotalCategories)
		assert.Equal(t, int64(150), res.OverallTotalQuantity)
	}

	res, err := uc.Summarize(context.Background(), dto.SummaryQuery{Page: 1, Limit: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, res.Categories, 3)
}

func TestSummarizeFailsWhenCatalogUnavailable(t *testing.T) {
	gw := seedCatalog()
	gw.err = apperror.Upstream(context.DeadlineExceeded, "catalog timed out")
	uc, mr := newCachedUseCase(t, seedLedger(), gw)

	res, err := uc.GetSummary(context.Background(), dto.SummaryQuery{})
	assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)
	assert.Nil(t, res)
	assert.False(t, mr.Exists("inventory_summary:all:1:10"))
}

func TestGetSummaryServesFromCache(t *testing.T) {
	gw := seedCatalog()
	uc, mr := newCachedUseCase(t, seedLedger(), gw)
	ctx := context.Background()

	first, err := uc.GetSummary(ctx, dto.SummaryQuery{})
	require.NoError(t, err)
	assert.True(t, mr.Exists("inventory_summary:all:1:10"))

	second, err := uc.GetSummary(ctx, dto.SummaryQuery{Page: 0, Limit: -1})
	require.NoError(t, err)
	assert.Equal(t, first.OverallTotalQuantity, second.OverallTotalQuantity)
	assert.Equal(t, int32(1), gw.calls.Load())
}

func TestMutationAfterCacheHitIsVisible(t *testing.T) {
	ledger := seedLedger()
	uc, _ := newCachedUseCase(t, ledger, seedCatalog())
	ctx := context.Background()

	before, err := uc.GetSummary(ctx, dto.SummaryQuery{})
	require.NoError(t, err)
	_, err = uc.GetSummary(ctx, dto.SummaryQuery{})
	require.NoError(t, err)

	ledger.receive("P1", 100)
	require.NoError(t, uc.InvalidateAll(ctx))

	after, err := uc.GetSummary(ctx, dto.SummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, before.OverallTotalQuantity+100, after.OverallTotalQuantity)
	assert.Equal(t, before.OverallTotalInQty+100, after.OverallTotalInQty)
}

func TestStaleComputationIsNotCached(t *testing.T) {
	ledger := seedLedger()
	gw := seedCatalog()
	gw.gate = make(chan struct{})
	uc, mr := newCachedUseCase(t, ledger, gw)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := uc.GetSummary(ctx, dto.SummaryQuery{})
		done <- err
	}()

	// Wait for the computation to reach the catalog, then invalidate underneath it.
	require.Eventually(t, func() bool { return gw.calls.Load() == 1 }, time.Second, time.Millisecond)
	ledger.receive("P1", 5)
	require.NoError(t, uc.InvalidateAll(ctx))
	close(gw.gate)
	require.NoError(t, <-done)

	assert.False(t, mr.Exists("inventory_summary:all:1:10"))

	res, err := uc.GetSummary(ctx, dto.SummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(155), res.OverallTotalQuantity)
}

func TestConcurrentMissesComputeOnce(t *testing.T) {
	gw := seedCatalog()
	gw.gate = make(chan struct{})
	uc, _ := newCachedUseCase(t, seedLedger(), gw)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.GetSummary(context.Background(), dto.SummaryQuery{})
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return gw.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gw.gate)
	wg.Wait()

	assert.Equal(t, int32(1), gw.calls.Load())
}

func TestCacheOutageFallsBackToCompute(t *testing.T) {
	gw := seedCatalog()
	uc, mr := newCachedUseCase(t, seedLedger(), gw)
	mr.Close()

	res, err := uc.GetSummary(context.Background(), dto.SummaryQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(150), res.OverallTotalQuantity)
	assert.Error(t, uc.InvalidateAll(context.Background()))
}

func TestInvalidateSingleQuery(t *testing.T) {
	uc, mr := newCachedUseCase(t, seedLedger(), seedCatalog())
	ctx := context.Background()

	_, err := uc.GetSummary(ctx, dto.SummaryQuery{Filter: "widget"})
	require.NoError(t, err)
	_, err = uc.GetSummary(ctx, dto.SummaryQuery{})
	require.NoError(t, err)

	require.NoError(t, uc.Invalidate(ctx, dto.SummaryQuery{Filter: "widget"}))
	assert.False(t, mr.Exists("inventory_summary:widget:1:10"))
	assert.True(t, mr.Exists("inventory_summary:all:1:10"))
}

func TestCancelledCallerDoesNotFailSharedComputation(t *testing.T) {
	gw := seedCatalog()
	gw.gate = make(chan struct{})
	uc, mr := newCachedUseCase(t, seedLedger(), gw)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := uc.GetSummary(leaderCtx, dto.SummaryQuery{})
		leaderDone <- err
	}()
	require.Eventually(t, func() bool { return gw.calls.Load() == 1 }, time.Second, time.Millisecond)

	type outcome struct {
		res *dto.SummaryResult
		err error
	}
	followerDone := make(chan outcome, 1)
	go func() {
		res, err := uc.GetSummary(context.Background(), dto.SummaryQuery{})
		followerDone <- outcome{res, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	select {
	case err := <-leaderDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(gw.gate)
	got := <-followerDone
	require.NoError(t, got.err)
	assert.Equal(t, int64(150), got.res.OverallTotalQuantity)
	assert.Equal(t, int32(1), gw.calls.Load())
	assert.True(t, mr.Exists("inventory_summary:all:1:10"))
}

func TestLiteralAllFilterBypassesCache(t *testing.T) {
	gw := seedCatalog()
	uc, mr := newCachedUseCase(t, seedLedger(), gw)
	ctx := context.Background()

	unfiltered, err := uc.GetSummary(ctx, dto.SummaryQuery{})
	require.NoError(t, err)
	require.Equal(t, 3, unfiltered.TotalCategories)

	// No product name contains "all", so serving the cached unfiltered page would be wrong.
	filtered, err := uc.GetSummary(ctx, dto.SummaryQuery{Filter: "all"})
	require.NoError(t, err)
	assert.Equal(t, 0, filtered.TotalCategories)
	assert.Equal(t, int32(2), gw.calls.Load())

	mr.FlushAll()
	_, err = uc.GetSummary(ctx, dto.SummaryQuery{Filter: "all"})
	require.NoError(t, err)
	assert.False(t, mr.Exists("inventory_summary:all:1:10"))
}
