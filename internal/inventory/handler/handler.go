package handler

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/report"
	inventoryv1 "github.com/fekuna/omnipos-inventory-service/internal/rpc/inventoryv1"
	"github.com/fekuna/omnipos-inventory-service/internal/summary"
	sumdto "github.com/fekuna/omnipos-inventory-service/internal/summary/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	errorDomain = "inventory"
	// exportPageSize is the page size used to walk every matching movement for an export.
	exportPageSize = 500
)

var _ inventoryv1.InventoryServiceServer = (*InventoryHandler)(nil)

type InventoryHandler struct {
	uc      inventory.UseCase
	summary summary.UseCase
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewInventoryHandler(uc inventory.UseCase, summaryUC summary.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:      uc,
		summary: summaryUC,
		logger:  log,
		now:     time.Now,
	}
}

func (h *InventoryHandler) RecordMovement(ctx context.Context, req *inventoryv1.RecordMovementRequest) (*model.StockMovement, error) {
	activatedBy := req.ActivatedBy
	if activatedBy == "" {
		activatedBy = auth.GetActor(ctx)
	}

	m, err := h.uc.RecordMovement(ctx, &dto.RecordMovementInput{
		ProductID:    req.ProductID,
		VariantID:    req.VariantID,
		Type:         req.Type,
		Quantity:     req.Quantity,
		Reason:       req.Reason,
		MovementDate: req.MovementDate,
		ActivatedBy:  activatedBy,
	})
	if err != nil {
		return nil, h.toStatus(err)
	}
	return m, nil
}

func (h *InventoryHandler) GetProductInventory(ctx context.Context, req *inventoryv1.GetProductInventoryRequest) (*model.Inventory, error) {
	inv, err := h.uc.GetProductInventory(ctx, req.ProductID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return inv, nil
}

func (h *InventoryHandler) GetSummary(ctx context.Context, req *inventoryv1.GetSummaryRequest) (*sumdto.SummaryResult, error) {
	res, err := h.summary.GetSummary(ctx, summaryQuery(req))
	if err != nil {
		return nil, h.toStatus(err)
	}
	return res, nil
}

func (h *InventoryHandler) GetMovements(ctx context.Context, req *inventoryv1.GetMovementsRequest) (*inventoryv1.GetMovementsResponse, error) {
	items, total, err := h.uc.ListMovements(ctx, movementFilters(req))
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &inventoryv1.GetMovementsResponse{Data: items, Total: total}, nil
}

func (h *InventoryHandler) ListLowStock(ctx context.Context, req *inventoryv1.ListLowStockRequest) (*inventoryv1.ListLowStockResponse, error) {
	items, total, err := h.uc.ListLowStock(ctx, req.Page, req.Limit)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &inventoryv1.ListLowStockResponse{Items: items, Total: total}, nil
}

func (h *InventoryHandler) Reconcile(ctx context.Context, _ *inventoryv1.ReconcileRequest) (*dto.ReconcileReport, error) {
	rep, err := h.uc.Reconcile(ctx)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return rep, nil
}

func (h *InventoryHandler) InvalidateSummary(ctx context.Context, req *inventoryv1.InvalidateSummaryRequest) (*inventoryv1.InvalidateSummaryResponse, error) {
	var err error
	if req.All {
		err = h.summary.InvalidateAll(ctx)
	} else {
		err = h.summary.Invalidate(ctx, sumdto.SummaryQuery{Filter: req.Filter, Page: req.Page, Limit: req.Limit})
	}
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &inventoryv1.InvalidateSummaryResponse{Invalidated: true}, nil
}

func (h *InventoryHandler) ExportMovementsCsv(ctx context.Context, req *inventoryv1.GetMovementsRequest) (*inventoryv1.ExportResponse, error) {
	return h.exportMovements(ctx, req, report.MovementsCSV)
}

func (h *InventoryHandler) ExportMovementsPdf(ctx context.Context, req *inventoryv1.GetMovementsRequest) (*inventoryv1.ExportResponse, error) {
	return h.exportMovements(ctx, req, report.MovementsPDF)
}

func (h *InventoryHandler) ExportSummaryCsv(ctx context.Context, req *inventoryv1.GetSummaryRequest) (*inventoryv1.ExportResponse, error) {
	return h.exportSummary(ctx, req, report.SummaryCSV)
}

func (h *InventoryHandler) ExportSummaryPdf(ctx context.Context, req *inventoryv1.GetSummaryRequest) (*inventoryv1.ExportResponse, error) {
	return h.exportSummary(ctx, req, report.SummaryPDF)
}

// exportMovements renders every matching movement; paging fields of the request are ignored.
func (h *InventoryHandler) exportMovements(ctx context.Context, req *inventoryv1.GetMovementsRequest, render func([]dto.MovementView, time.Time) (*report.File, error)) (*report.File, error) {
	filters := movementFilters(req)
	filters.PageSize = exportPageSize

	var all []dto.MovementView
	for page := 1; ; page++ {
		filters.Page = page
		items, total, err := h.uc.ListMovements(ctx, filters)
		if err != nil {
			return nil, h.toStatus(err)
		}
		all = append(all, items...)
		if len(items) == 0 || len(all) >= total {
			break
		}
	}

	file, err := render(all, h.now())
	if err != nil {
		return nil, h.toStatus(err)
	}
	return file, nil
}

func (h *InventoryHandler) exportSummary(ctx context.Context, req *inventoryv1.GetSummaryRequest, render func(*sumdto.SummaryResult, time.Time) (*report.File, error)) (*report.File, error) {
	res, err := h.summary.GetSummary(ctx, summaryQuery(req))
	if err != nil {
		return nil, h.toStatus(err)
	}
	file, err := render(res, h.now())
	if err != nil {
		return nil, h.toStatus(err)
	}
	return file, nil
}

func summaryQuery(req *inventoryv1.GetSummaryRequest) sumdto.SummaryQuery {
	return sumdto.SummaryQuery{Filter: req.Filter, Page: req.Page, Limit: req.Limit}
}

func movementFilters(req *inventoryv1.GetMovementsRequest) *dto.MovementFilters {
	return &dto.MovementFilters{
		ProductID:   req.ProductID,
		ActivatedBy: req.ActivatedBy,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Page:        req.Page,
		PageSize:    req.Limit,
	}
}

// toStatus maps the error kind to a gRPC code and attaches an ErrorInfo naming the kind.
// Internal errors are logged and their text is not sent to the caller.
func (h *InventoryHandler) toStatus(err error) error {
	kind := apperror.KindOf(err)

	var code codes.Code
	msg := apperror.Message(err)
	switch kind {
	case apperror.KindValidation:
		code = codes.InvalidArgument
	case apperror.KindNotFound:
		code = codes.NotFound
	case apperror.KindInsufficientStock:
		code = codes.FailedPrecondition
	case apperror.KindUpstreamUnavailable:
		code = codes.Unavailable
	default:
		switch {
		case errors.Is(err, context.Canceled):
			code = codes.Canceled
		case errors.Is(err, context.DeadlineExceeded):
			code = codes.DeadlineExceeded
		default:
			code = codes.Internal
		}
		h.logger.Error("request failed", zap.Error(err))
		msg = "internal error"
	}

	st := status.New(code, msg)
	if detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: string(kind), Domain: errorDomain}); derr == nil {
		st = detailed
	}
	return st.Err()
}
