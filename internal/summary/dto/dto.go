package dto

import "github.com/shopspring/decimal"

// SummaryQuery selects a summary page. Filter matches product names case-insensitively.
type SummaryQuery struct {
	Filter string
	Page   int
	Limit  int
}

type ProductLine struct {
	ProductID         string          `json:"productId"`
	ProductName       string          `json:"productName"`
	Unit              string          `json:"unit"`
	Price             decimal.Decimal `json:"price"`
	Specification     string          `json:"specification"`
	QuantityAvailable int64           `json:"quantityAvailable"`
	InQty             int64           `json:"inQty"`
	OutQty            int64           `json:"outQty"`
}

type CategoryGroup struct {
	Category    string        `json:"category"`
	SubTotal    int64         `json:"subTotal"`
	TotalInQty  int64         `json:"totalInQty"`
	TotalOutQty int64         `json:"totalOutQty"`
	Products    []ProductLine `json:"products"`
}

// SummaryResult carries grand totals over every matching category; Categories holds only the
// requested page.
type SummaryResult struct {
	OverallTotalQuantity int64           `json:"overallTotalQuantity"`
	OverallTotalInQty    int64           `json:"overallTotalInQty"`
	OverallTotalOutQty   int64           `json:"overallTotalOutQty"`
	TotalCategories      int             `json:"totalCategories"`
	Categories           []CategoryGroup `json:"categories"`
}
