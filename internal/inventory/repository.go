package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type Repository interface {
	// Inventory records
	GetByProduct(ctx context.Context, productID string) (*model.Inventory, error)
	ListAll(ctx context.Context) ([]model.Inventory, error)
	FindAll(ctx context.Context, filters *dto.InventoryFilters) ([]model.Inventory, int, error)
	DeleteByProduct(ctx context.Context, productID string) (bool, error)

	// Ledger reads
	MovementTotals(ctx context.Context, productIDs []string) (map[string]model.MovementTotals, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	LedgerBalances(ctx context.Context) ([]model.LedgerBalance, error)

	// WithinTx runs fn in a single transaction, committing only when fn returns nil.
	WithinTx(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository is bound to an open transaction. GetForUpdate holds the row lock until commit.
// Update leaves the reconciliation baseline alone; ResetBaseline moves it.
type TxRepository interface {
	GetForUpdate(ctx context.Context, productID string) (*model.Inventory, error)
	Insert(ctx context.Context, inv *model.Inventory) (bool, error)
	Update(ctx context.Context, inv *model.Inventory) error
	ResetBaseline(ctx context.Context, inv *model.Inventory) error
	InsertMovement(ctx context.Context, m *model.StockMovement) error
}
