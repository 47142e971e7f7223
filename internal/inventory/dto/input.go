package dto

import "time"

type RecordMovementInput struct {
	ProductID    string
	VariantID    *string
	Type         string // IN or OUT
	Quantity     int64
	Reason       *string
	MovementDate *time.Time // defaults to now
	ActivatedBy  string
}

// CatalogProductInput is the payload of product.created / product.updated.
type CatalogProductInput struct {
	ProductID   string
	ProductCode *string
	ProductName *string
	OpeningQty  *int64
}
