package report

import (
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	invdto "github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	sumdto "github.com/fekuna/omnipos-inventory-service/internal/summary/dto"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// column is one table cell: grid width (out of 12), value and alignment.
type column struct {
	size  int
	value string
	align align.Type
}

func newDocument(title string) core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(title, true).
		Build()
	return maroto.New(cfg)
}

func titleRows(title string, at time.Time) []core.Row {
	return []core.Row{
		row.New(10).Add(col.New(12).Add(text.New(title, props.Text{
			Style: fontstyle.Bold, Size: 13, Color: colorPrimary,
		}))),
		row.New(6).Add(col.New(12).Add(text.New("Generated "+at.Format("2006-01-02 15:04"), props.Text{
			Size: 8, Color: colorGray,
		}))),
		line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.4}),
	}
}

func tableRow(cols []column, bold bool) core.Row {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	r := row.New(7)
	for _, c := range cols {
		r.Add(col.New(c.size).Add(text.New(c.value, props.Text{
			Style: style, Size: 8, Align: c.align, Top: 1, Left: 1, Right: 1,
		})))
	}
	return r
}

func render(m core.Maroto, kind string, at time.Time) (*File, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate %s pdf: %w", kind, err)
	}
	return &File{
		Filename:    filename(kind, "pdf", at),
		ContentType: ContentTypePDF,
		Content:     doc.GetBytes(),
	}, nil
}

func MovementsPDF(items []invdto.MovementView, at time.Time) (*File, error) {
	m := newDocument("Stock Movements")
	m.AddRows(titleRows("Stock Movements", at)...)
	m.AddRows(tableRow([]column{
		{2, "Date", align.Left},
		{3, "Product", align.Left},
		{1, "Type", align.Center},
		{1, "Qty", align.Right},
		{3, "Reason", align.Left},
		{2, "By", align.Left},
	}, true))

	for _, mv := range items {
		m.AddRows(tableRow([]column{
			{2, mv.MovementDate.Format(dateLayout), align.Left},
			{3, mv.ProductName, align.Left},
			{1, mv.Type, align.Center},
			{1, strconv.FormatInt(mv.Quantity, 10), align.Right},
			{3, deref(mv.Reason), align.Left},
			{2, mv.ActivatedBy, align.Left},
		}, false))
	}
	return render(m, "stock_movements", at)
}

func SummaryPDF(s *sumdto.SummaryResult, at time.Time) (*File, error) {
	m := newDocument("Inventory Summary")
	m.AddRows(titleRows("Inventory Summary", at)...)

	header := []column{
		{4, "Product", align.Left},
		{1, "Unit", align.Center},
		{2, "Price", align.Right},
		{2, "Available", align.Right},
		{1, "In", align.Right},
		{2, "Out", align.Right},
	}
	for _, g := range s.Categories {
		m.AddRows(row.New(8).Add(col.New(12).Add(text.New(g.Category, props.Text{
			Style: fontstyle.Bold, Size: 10, Color: colorPrimary, Top: 2,
		}))))
		m.AddRows(tableRow(header, true))
		for _, p := range g.Products {
			m.AddRows(tableRow([]column{
				{4, p.ProductName, align.Left},
				{1, p.Unit, align.Center},
				{2, p.Price.StringFixed(2), align.Right},
				{2, strconv.FormatInt(p.QuantityAvailable, 10), align.Right},
				{1, strconv.FormatInt(p.InQty, 10), align.Right},
				{2, strconv.FormatInt(p.OutQty, 10), align.Right},
			}, false))
		}
		m.AddRows(tableRow([]column{
			{7, "Subtotal", align.Left},
			{2, strconv.FormatInt(g.SubTotal, 10), align.Right},
			{1, strconv.FormatInt(g.TotalInQty, 10), align.Right},
			{2, strconv.FormatInt(g.TotalOutQty, 10), align.Right},
		}, true))
	}

	m.AddRows(line.NewRow(2, props.Line{Color: colorPrimary, Thickness: 0.4}))
	m.AddRows(tableRow([]column{
		{7, "Total", align.Left},
		{2, strconv.FormatInt(s.OverallTotalQuantity, 10), align.Right},
		{1, strconv.FormatInt(s.OverallTotalInQty, 10), align.Right},
		{2, strconv.FormatInt(s.OverallTotalOutQty, 10), align.Right},
	}, true))
	return render(m, "inventory_summary", at)
}
