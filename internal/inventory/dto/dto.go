package dto

import (
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type InventoryFilters struct {
	ProductID string
	LowStock  bool // quantity_available < low_stock_threshold
	Page      int
	PageSize  int
}

type MovementFilters struct {
	ProductID   string
	ActivatedBy string
	StartDate   *time.Time // inclusive, on movement_date
	EndDate     *time.Time // inclusive, on movement_date
	Page        int
	PageSize    int
}

// MovementView is a ledger entry with the product name resolved from the catalog.
type MovementView struct {
	model.StockMovement
	ProductName string `json:"productName"`
}

type Discrepancy struct {
	ProductID string `json:"productId"`
	Projected int64  `json:"projected"`
	Expected  int64  `json:"expected"`
}

type ReconcileReport struct {
	Checked       int           `json:"checked"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}
