package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	RecordMovement(ctx context.Context, input *dto.RecordMovementInput) (*model.StockMovement, error)
	GetProductInventory(ctx context.Context, productID string) (*model.Inventory, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]dto.MovementView, int, error)
	ListLowStock(ctx context.Context, page, pageSize int) ([]model.Inventory, int, error)
	Reconcile(ctx context.Context) (*dto.ReconcileReport, error)

	// Catalog lifecycle
	UpsertFromCatalog(ctx context.Context, input *dto.CatalogProductInput) (*model.Inventory, error)
	RemoveFromCatalog(ctx context.Context, productID string) error
}

// SummaryInvalidator drops cached summaries after the ledger changes.
type SummaryInvalidator interface {
	InvalidateAll(ctx context.Context) error
}
