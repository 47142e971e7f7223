package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProductDetail is the catalog's view of a product used by the inventory summary.
type ProductDetail struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	BaseUnit      string          `json:"baseUnit"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Specification string          `json:"specification"`
	Category      string          `json:"category,omitempty"`
}

// Gateway is the outbound contract to the remote product catalog. Implementations must bound
// every call with a timeout and report failures as apperror.ErrUpstreamUnavailable.
type Gateway interface {
	GetProductDetailsByIDs(ctx context.Context, productIDs []string) ([]ProductDetail, error)
	GetProductsByIDs(ctx context.Context, productIDs []string) (map[string]string, error)
}
