package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	invdto "github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	sumdto "github.com/fekuna/omnipos-inventory-service/internal/summary/dto"
)

var (
	movementHeader = []string{"Date", "Product", "Type", "Quantity", "Reason", "Activated By"}
	summaryHeader  = []string{"Category", "Product", "Unit", "Price", "Specification", "Available", "In", "Out"}
)

func MovementsCSV(items []invdto.MovementView, at time.Time) (*File, error) {
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, movementHeader)
	for _, m := range items {
		rows = append(rows, []string{
			m.MovementDate.Format(dateLayout),
			m.ProductName,
			m.Type,
			strconv.FormatInt(m.Quantity, 10),
			deref(m.Reason),
			m.ActivatedBy,
		})
	}
	return writeCSV("stock_movements", rows, at)
}

// SummaryCSV writes one line per product, a subtotal line per category and a grand total.
func SummaryCSV(s *sumdto.SummaryResult, at time.Time) (*File, error) {
	rows := [][]string{summaryHeader}
	for _, g := range s.Categories {
		for _, p := range g.Products {
			rows = append(rows, []string{
				g.Category,
				p.ProductName,
				p.Unit,
				p.Price.StringFixed(2),
				p.Specification,
				strconv.FormatInt(p.QuantityAvailable, 10),
				strconv.FormatInt(p.InQty, 10),
				strconv.FormatInt(p.OutQty, 10),
			})
		}
		rows = append(rows, []string{
			g.Category, "Subtotal", "", "", "",
			strconv.FormatInt(g.SubTotal, 10),
			strconv.FormatInt(g.TotalInQty, 10),
			strconv.FormatInt(g.TotalOutQty, 10),
		})
	}
	rows = append(rows, []string{
		"", "Total", "", "", "",
		strconv.FormatInt(s.OverallTotalQuantity, 10),
		strconv.FormatInt(s.OverallTotalInQty, 10),
		strconv.FormatInt(s.OverallTotalOutQty, 10),
	})
	return writeCSV("inventory_summary", rows, at)
}

func writeCSV(kind string, rows [][]string, at time.Time) (*File, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return &File{
		Filename:    filename(kind, "csv", at),
		ContentType: ContentTypeCSV,
		Content:     buf.Bytes(),
	}, nil
}
