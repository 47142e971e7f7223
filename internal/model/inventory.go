package model

import "time"

const (
	MovementTypeIn  = "IN"
	MovementTypeOut = "OUT"
)

// Inventory is the on-hand projection for a single product.
type Inventory struct {
	ProductID         string     `db:"product_id" json:"productId"`
	QuantityAvailable int64      `db:"quantity_available" json:"quantityAvailable"`
	LowStockThreshold int64      `db:"low_stock_threshold" json:"lowStockThreshold"`
	LastRestocked     *time.Time `db:"last_restocked" json:"lastRestocked,omitempty"`
	ProductCode       *string    `db:"product_code" json:"productCode,omitempty"`
	ProductName       *string    `db:"product_name" json:"productName,omitempty"`
	// Baseline is the quantity last set by the catalog; reconciliation replays movements after BaselineAt.
	BaselineQuantity int64     `db:"baseline_quantity" json:"-"`
	BaselineAt       time.Time `db:"baseline_at" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// StockMovement is an immutable ledger entry.
type StockMovement struct {
	ID           string    `db:"id" json:"id"`
	ProductID    string    `db:"product_id" json:"productId"`
	VariantID    *string   `db:"variant_id" json:"variantId,omitempty"`
	Type         string    `db:"type" json:"type"`
	Quantity     int64     `db:"quantity" json:"quantity"`
	Reason       *string   `db:"reason" json:"reason,omitempty"`
	MovementDate time.Time `db:"movement_date" json:"movementDate"`
	ActivatedBy  string    `db:"activated_by" json:"activatedBy"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// MovementTotals is the per-product rollup of the ledger.
type MovementTotals struct {
	ProductID string `db:"product_id"`
	InQty     int64  `db:"in_qty"`
	OutQty    int64  `db:"out_qty"`
}

// LedgerBalance pairs the projection with the quantity replayed from the ledger.
type LedgerBalance struct {
	ProductID         string `db:"product_id"`
	QuantityAvailable int64  `db:"quantity_available"`
	BaselineQuantity  int64  `db:"baseline_quantity"`
	InQty             int64  `db:"in_qty"`
	OutQty            int64  `db:"out_qty"`
}

func (b LedgerBalance) Expected() int64 {
	return b.BaselineQuantity + b.InQty - b.OutQty
}
