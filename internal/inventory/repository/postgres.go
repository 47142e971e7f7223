package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
)

var _ inventory.Repository = (*PGRepository)(nil)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByProduct(ctx context.Context, productID string) (*model.Inventory, error) {
	var inv model.Inventory
	err := r.DB.GetContext(ctx, &inv, `SELECT * FROM inventory WHERE product_id = $1`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) ListAll(ctx context.Context) ([]model.Inventory, error) {
	items := []model.Inventory{}
	err := r.DB.SelectContext(ctx, &items, `SELECT * FROM inventory ORDER BY product_id`)
	return items, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.Inventory, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.LowStock {
		conditions = append(conditions, "quantity_available < low_stock_threshold")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := r.namedGet(ctx, &count, "SELECT count(*) FROM inventory"+whereClause, args); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM inventory" + whereClause + " ORDER BY quantity_available ASC, product_id ASC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, pageOffset(f.Page, f.PageSize))
	}

	items := []model.Inventory{}
	if err := r.namedSelect(ctx, &items, query, args); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (r *PGRepository) DeleteByProduct(ctx context.Context, productID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM inventory WHERE product_id = $1`, productID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) MovementTotals(ctx context.Context, productIDs []string) (map[string]model.MovementTotals, error) {
	totals := make(map[string]model.MovementTotals, len(productIDs))
	if len(productIDs) == 0 {
		return totals, nil
	}

	query, args, err := sqlx.In(`
        SELECT product_id,
               COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE 0 END), 0) AS in_qty,
               COALESCE(SUM(CASE WHEN type = 'OUT' THEN quantity ELSE 0 END), 0) AS out_qty
        FROM stock_movements
        WHERE product_id IN (?)
        GROUP BY product_id
    `, productIDs)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var rows []model.MovementTotals
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		totals[row.ProductID] = row
	}
	return totals, nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.ActivatedBy != "" {
		conditions = append(conditions, "activated_by = :activated_by")
		args["activated_by"] = f.ActivatedBy
	}
	if f.StartDate != nil {
		conditions = append(conditions, "movement_date >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "movement_date <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := r.namedGet(ctx, &count, "SELECT count(*) FROM stock_movements"+whereClause, args); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY movement_date DESC, created_at DESC"
	if f.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, pageOffset(f.Page, f.PageSize))
	}

	items := []model.StockMovement{}
	if err := r.namedSelect(ctx, &items, query, args); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

// pageOffset saturates instead of wrapping for out-of-range pages.
func pageOffset(page, size int) int64 {
	if page <= 1 || size <= 0 {
		return 0
	}
	if int64(page-1) > math.MaxInt64/int64(size) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(size)
}

// LedgerBalances replays, per record, the movements written after its baseline. Both
// created_at and baseline_at are stamped by the database clock.
func (r *PGRepository) LedgerBalances(ctx context.Context) ([]model.LedgerBalance, error) {
	rows := []model.LedgerBalance{}
	err := r.DB.SelectContext(ctx, &rows, `
        SELECT i.product_id, i.quantity_available, i.baseline_quantity,
               COALESCE(SUM(CASE WHEN m.type = 'IN' THEN m.quantity ELSE 0 END), 0) AS in_qty,
               COALESCE(SUM(CASE WHEN m.type = 'OUT' THEN m.quantity ELSE 0 END), 0) AS out_qty
        FROM inventory i
        LEFT JOIN stock_movements m ON m.product_id = i.product_id AND m.created_at > i.baseline_at
        GROUP BY i.product_id, i.quantity_available, i.baseline_quantity
        ORDER BY i.product_id
    `)
	return rows, err
}

func (r *PGRepository) WithinTx(ctx context.Context, fn func(tx inventory.TxRepository) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txRepository{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *PGRepository) namedGet(ctx context.Context, dest interface{}, query string, args map[string]interface{}) error {
	q, a, err := sqlx.Named(query, args)
	if err != nil {
		return err
	}
	return r.DB.GetContext(ctx, dest, r.DB.Rebind(q), a...)
}

func (r *PGRepository) namedSelect(ctx context.Context, dest interface{}, query string, args map[string]interface{}) error {
	q, a, err := sqlx.Named(query, args)
	if err != nil {
		return err
	}
	return r.DB.SelectContext(ctx, dest, r.DB.Rebind(q), a...)
}

type txRepository struct {
	tx *sqlx.Tx
}

func (t *txRepository) GetForUpdate(ctx context.Context, productID string) (*model.Inventory, error) {
	var inv model.Inventory
	err := t.tx.GetContext(ctx, &inv, `SELECT * FROM inventory WHERE product_id = $1 FOR UPDATE`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

// Insert reports false when a concurrent writer created the row first. baseline_at is taken
// from the database clock.
func (t *txRepository) Insert(ctx context.Context, inv *model.Inventory) (bool, error) {
	query := `
        INSERT INTO inventory (
            product_id, quantity_available, low_stock_threshold, last_restocked,
            product_code, product_name, baseline_quantity, baseline_at,
            created_at, updated_at
        )
        VALUES (
            :product_id, :quantity_available, :low_stock_threshold, :last_restocked,
            :product_code, :product_name, :baseline_quantity, clock_timestamp(),
            :created_at, :updated_at
        )
        ON CONFLICT (product_id) DO NOTHING
        RETURNING baseline_at
    `
	q, args, err := t.tx.BindNamed(query, inv)
	if err != nil {
		return false, err
	}
	if err := t.tx.QueryRowxContext(ctx, q, args...).Scan(&inv.BaselineAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert inventory: %w", err)
	}
	return true, nil
}

func (t *txRepository) Update(ctx context.Context, inv *model.Inventory) error {
	query := `
        UPDATE inventory SET
            quantity_available = :quantity_available,
            low_stock_threshold = :low_stock_threshold,
            last_restocked = :last_restocked,
            product_code = :product_code,
            product_name = :product_name,
            updated_at = :updated_at
        WHERE product_id = :product_id
    `
	if _, err := t.tx.NamedExecContext(ctx, query, inv); err != nil {
		return fmt.Errorf("failed to update inventory: %w", err)
	}
	return nil
}

// ResetBaseline moves the reconciliation baseline to inv.BaselineQuantity as of the database
// clock, so it orders consistently with movement created_at regardless of replica clocks.
func (t *txRepository) ResetBaseline(ctx context.Context, inv *model.Inventory) error {
	query := `
        UPDATE inventory SET
            baseline_quantity = $2,
            baseline_at = clock_timestamp()
        WHERE product_id = $1
        RETURNING baseline_at
    `
	if err := t.tx.QueryRowxContext(ctx, query, inv.ProductID, inv.BaselineQuantity).Scan(&inv.BaselineAt); err != nil {
		return fmt.Errorf("failed to reset baseline: %w", err)
	}
	return nil
}

func (t *txRepository) InsertMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, product_id, variant_id, type, quantity, reason,
            movement_date, activated_by, created_at
        )
        VALUES (
            :id, :product_id, :variant_id, :type, :quantity, :reason,
            :movement_date, :activated_by, clock_timestamp()
        )
        RETURNING created_at
    `
	q, args, err := t.tx.BindNamed(query, m)
	if err != nil {
		return err
	}
	if err := t.tx.QueryRowxContext(ctx, q, args...).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}
	return nil
}
