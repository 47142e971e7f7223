package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// memRepo serializes transactions with txMu, standing in for the row lock.
type memRepo struct {
	txMu sync.Mutex

	mu        sync.Mutex
	records   map[string]model.Inventory
	movements []model.StockMovement

	baselineResets int

	// beforeInsert runs inside Insert, before the conflict check.
	beforeInsert func(r *memRepo)
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]model.Inventory{}}
}

func (r *memRepo) put(inv model.Inventory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[inv.ProductID] = inv
}

func (r *memRepo) record(productID string) (model.Inventory, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.records[productID]
	return inv, ok
}

func (r *memRepo) movementCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.movements)
}

func (r *memRepo) GetByProduct(_ context.Context, productID string) (*model.Inventory, error) {
	inv, ok := r.record(productID)
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *memRepo) ListAll(_ context.Context) ([]model.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]model.Inventory, 0, len(r.records))
	for _, inv := range r.records {
		items = append(items, inv)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

func (r *memRepo) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.Inventory, int, error) {
	all, _ := r.ListAll(ctx)
	matched := []model.Inventory{}
	for _, inv := range all {
		if f.ProductID != "" && inv.ProductID != f.ProductID {
			continue
		}
		if f.LowStock && inv.QuantityAvailable >= inv.LowStockThreshold {
			continue
		}
		matched = append(matched, inv)
	}
	total := len(matched)
	if f.PageSize > 0 {
		start := (f.Page - 1) * f.PageSize
		if start > len(matched) {
			start = len(matched)
		}
		end := start + f.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *memRepo) DeleteByProduct(_ context.Context, productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[productID]; !ok {
		return false, nil
	}
	delete(r.records, productID)
	return true, nil
}

func (r *memRepo) MovementTotals(_ context.Context, productIDs []string) (map[string]model.MovementTotals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := map[string]model.MovementTotals{}
	for _, m := range r.movements {
		t := totals[m.ProductID]
		t.ProductID = m.ProductID
		if m.Type == model.MovementTypeIn {
			t.InQty += m.Quantity
		} else {
			t.OutQty += m.Quantity
		}
		totals[m.ProductID] = t
	}
	return totals, nil
}

func (r *memRepo) ListMovements(_ context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []model.StockMovement{}
	for _, m := range r.movements {
		if f.ProductID != "" && m.ProductID != f.ProductID {
			continue
		}
		if f.ActivatedBy != "" && m.ActivatedBy != f.ActivatedBy {
			continue
		}
		items = append(items, m)
	}
	return items, len(items), nil
}

func (r *memRepo) LedgerBalances(_ context.Context) ([]model.LedgerBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.LedgerBalance{}
	for _, inv := range r.records {
		b := model.LedgerBalance{
			ProductID:         inv.ProductID,
			QuantityAvailable: inv.QuantityAvailable,
			BaselineQuantity:  inv.BaselineQuantity,
		}
		for _, m := range r.movements {
			if m.ProductID != inv.ProductID || !m.CreatedAt.After(inv.BaselineAt) {
				continue
			}
			if m.Type == model.MovementTypeIn {
				b.InQty += m.Quantity
			} else {
				b.OutQty += m.Quantity
			}
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *memRepo) WithinTx(_ context.Context, fn func(tx inventory.TxRepository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &memTx{repo: r, staged: map[string]model.Inventory{}}
	if err := fn(tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, inv := range tx.staged {
		r.records[id] = inv
	}
	r.movements = append(r.movements, tx.movements...)
	r.baselineResets += tx.baselineResets
	return nil
}

type memTx struct {
	repo      *memRepo
	staged    map[string]model.Inventory
	movements []model.StockMovement

	baselineResets int
}

func (t *memTx) GetForUpdate(_ context.Context, productID string) (*model.Inventory, error) {
	if inv, ok := t.staged[productID]; ok {
		return &inv, nil
	}
	inv, ok := t.repo.record(productID)
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (t *memTx) Insert(_ context.Context, inv *model.Inventory) (bool, error) {
	if t.repo.beforeInsert != nil {
		t.repo.beforeInsert(t.repo)
	}
	if _, ok := t.repo.record(inv.ProductID); ok {
		return false, nil
	}
	t.staged[inv.ProductID] = *inv
	return true, nil
}

func (t *memTx) Update(_ context.Context, inv *model.Inventory) error {
	t.staged[inv.ProductID] = *inv
	return nil
}

func (t *memTx) ResetBaseline(_ context.Context, inv *model.Inventory) error {
	t.baselineResets++
	staged := t.staged[inv.ProductID]
	staged.BaselineQuantity = inv.BaselineQuantity
	staged.BaselineAt = inv.BaselineAt
	t.staged[inv.ProductID] = staged
	return nil
}

func (t *memTx) InsertMovement(_ context.Context, m *model.StockMovement) error {
	t.movements = append(t.movements, *m)
	return nil
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeInvalidator) InvalidateAll(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeInvalidator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCatalog struct {
	names map[string]string
	err   error
	asked []string
}

func (f *fakeCatalog) GetProductDetailsByIDs(context.Context, []string) ([]catalog.ProductDetail, error) {
	return nil, f.err
}

func (f *fakeCatalog) GetProductsByIDs(_ context.Context, ids []string) (map[string]string, error) {
	f.asked = append(f.asked, ids...)
	if f.err != nil {
		return nil, f.err
	}
	return f.names, nil
}

// tickingClock returns strictly increasing times so ledger ordering is deterministic.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[string]string
	released int
}

func (l *fakeLocker) AcquireLock(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]string{}
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = value
	return true, nil
}

func (l *fakeLocker) ReleaseLock(_ context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == value {
		delete(l.held, key)
		l.released++
	}
	return nil
}
