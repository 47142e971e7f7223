package usecase

import (
	"sort"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/summary/dto"
)

const (
	uncategorized      = "Uncategorized"
	unknownProductName = "N/A"
)

// aggregate groups records by catalog category. Grand totals cover every matching category;
// only the category list is paginated.
func aggregate(
	records []model.Inventory,
	totals map[string]model.MovementTotals,
	details []catalog.ProductDetail,
	q dto.SummaryQuery,
) *dto.SummaryResult {
	byID := make(map[string]catalog.ProductDetail, len(details))
	for _, d := range details {
		byID[d.ProductID] = d
	}
	filter := strings.ToLower(q.Filter)

	groups := map[string]*dto.CategoryGroup{}
	for _, rec := range records {
		line := productLine(rec, byID)
		if filter != "" && !strings.Contains(strings.ToLower(line.ProductName), filter) {
			continue
		}
		t := totals[rec.ProductID]
		line.InQty = t.InQty
		line.OutQty = t.OutQty

		category := uncategorized
		if d, ok := byID[rec.ProductID]; ok && d.Category != "" {
			category = d.Category
		}
		g, ok := groups[category]
		if !ok {
			g = &dto.CategoryGroup{Category: category, Products: []dto.ProductLine{}}
			groups[category] = g
		}
		g.SubTotal += line.QuantityAvailable
		g.TotalInQty += line.InQty
		g.TotalOutQty += line.OutQty
		g.Products = append(g.Products, line)
	}

	ordered := make([]dto.CategoryGroup, 0, len(groups))
	result := &dto.SummaryResult{}
	for _, g := range groups {
		sort.Slice(g.Products, func(i, j int) bool {
			if g.Products[i].ProductName != g.Products[j].ProductName {
				return g.Products[i].ProductName < g.Products[j].ProductName
			}
			return g.Products[i].ProductID < g.Products[j].ProductID
		})
		result.OverallTotalQuantity += g.SubTotal
		result.OverallTotalInQty += g.TotalInQty
		result.OverallTotalOutQty += g.TotalOutQty
		ordered = append(ordered, *g)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Category < ordered[j].Category })

	result.TotalCategories = len(ordered)
	result.Categories = paginate(ordered, q.Page, q.Limit)
	return result
}

// productLine prefers catalog data and falls back to the record's denormalized fields.
func productLine(rec model.Inventory, byID map[string]catalog.ProductDetail) dto.ProductLine {
	line := dto.ProductLine{
		ProductID:         rec.ProductID,
		QuantityAvailable: rec.QuantityAvailable,
	}
	if d, ok := byID[rec.ProductID]; ok {
		line.ProductName = d.ProductName
		line.Unit = d.BaseUnit
		line.Price = d.SellingPrice
		line.Specification = d.Specification
	}
	if line.ProductName == "" && rec.ProductName != nil {
		line.ProductName = *rec.ProductName
	}
	if line.ProductName == "" {
		line.ProductName = unknownProductName
	}
	return line
}

// paginate bounds-checks before multiplying so caller-supplied page and limit cannot overflow.
func paginate(groups []dto.CategoryGroup, page, limit int) []dto.CategoryGroup {
	if len(groups) == 0 || page < 1 || limit < 1 || page-1 > (len(groups)-1)/limit {
		return []dto.CategoryGroup{}
	}
	offset := (page - 1) * limit
	end := len(groups)
	if limit < end-offset {
		end = offset + limit
	}
	return groups[offset:end]
}
