// Package inventoryv1 declares the inventory RPC contract served by this service.
package inventoryv1

import (
	"context"
	"time"

	invdto "github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/report"
	"github.com/fekuna/omnipos-inventory-service/internal/rpc"
	sumdto "github.com/fekuna/omnipos-inventory-service/internal/summary/dto"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.inventory.v1.InventoryService"

const (
	RecordMovementFullMethod      = "/" + ServiceName + "/RecordMovement"
	GetProductInventoryFullMethod = "/" + ServiceName + "/GetProductInventory"
	GetSummaryFullMethod          = "/" + ServiceName + "/GetSummary"
	GetMovementsFullMethod        = "/" + ServiceName + "/GetMovements"
	ListLowStockFullMethod        = "/" + ServiceName + "/ListLowStock"
	ReconcileFullMethod           = "/" + ServiceName + "/Reconcile"
	InvalidateSummaryFullMethod   = "/" + ServiceName + "/InvalidateSummary"
	ExportMovementsCsvFullMethod  = "/" + ServiceName + "/ExportMovementsCsv"
	ExportMovementsPdfFullMethod  = "/" + ServiceName + "/ExportMovementsPdf"
	ExportSummaryCsvFullMethod    = "/" + ServiceName + "/ExportSummaryCsv"
	ExportSummaryPdfFullMethod    = "/" + ServiceName + "/ExportSummaryPdf"
)

type RecordMovementRequest struct {
	ProductID    string     `json:"productId"`
	VariantID    *string    `json:"variantId,omitempty"`
	Type         string     `json:"type"`
	Quantity     int64      `json:"quantity"`
	Reason       *string    `json:"reason,omitempty"`
	MovementDate *time.Time `json:"movementDate,omitempty"`
	// ActivatedBy defaults to the x-user-id of the caller.
	ActivatedBy string `json:"activatedBy,omitempty"`
}

type GetProductInventoryRequest struct {
	ProductID string `json:"productId"`
}

type GetSummaryRequest struct {
	Filter string `json:"filter,omitempty"`
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type GetMovementsRequest struct {
	ProductID   string     `json:"productId,omitempty"`
	ActivatedBy string     `json:"activatedBy,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Page        int        `json:"page,omitempty"`
	Limit       int        `json:"limit,omitempty"`
}

type GetMovementsResponse struct {
	Data  []invdto.MovementView `json:"data"`
	Total int                   `json:"total"`
}

type ListLowStockRequest struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type ListLowStockResponse struct {
	Items []model.Inventory `json:"items"`
	Total int               `json:"total"`
}

type ReconcileRequest struct{}

// InvalidateSummaryRequest drops one cached page, or the whole namespace when All is set.
type InvalidateSummaryRequest struct {
	All    bool   `json:"all,omitempty"`
	Filter string `json:"filter,omitempty"`
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type InvalidateSummaryResponse struct {
	Invalidated bool `json:"invalidated"`
}

type ExportResponse = report.File

type InventoryServiceServer interface {
	RecordMovement(context.Context, *RecordMovementRequest) (*model.StockMovement, error)
	GetProductInventory(context.Context, *GetProductInventoryRequest) (*model.Inventory, error)
	GetSummary(context.Context, *GetSummaryRequest) (*sumdto.SummaryResult, error)
	GetMovements(context.Context, *GetMovementsRequest) (*GetMovementsResponse, error)
	ListLowStock(context.Context, *ListLowStockRequest) (*ListLowStockResponse, error)
	Reconcile(context.Context, *ReconcileRequest) (*invdto.ReconcileReport, error)
	InvalidateSummary(context.Context, *InvalidateSummaryRequest) (*InvalidateSummaryResponse, error)
	ExportMovementsCsv(context.Context, *GetMovementsRequest) (*ExportResponse, error)
	ExportMovementsPdf(context.Context, *GetMovementsRequest) (*ExportResponse, error)
	ExportSummaryCsv(context.Context, *GetSummaryRequest) (*ExportResponse, error)
	ExportSummaryPdf(context.Context, *GetSummaryRequest) (*ExportResponse, error)
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&InventoryService_ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodDesc.
func unaryHandler[Req any, Resp any](fullMethod string, call func(InventoryServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InventoryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(InventoryServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var InventoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RecordMovement", Handler: unaryHandler(RecordMovementFullMethod, InventoryServiceServer.RecordMovement)},
		{MethodName: "GetProductInventory", Handler: unaryHandler(GetProductInventoryFullMethod, InventoryServiceServer.GetProductInventory)},
		{MethodName: "GetSummary", Handler: unaryHandler(GetSummaryFullMethod, InventoryServiceServer.GetSummary)},
		{MethodName: "GetMovements", Handler: unaryHandler(GetMovementsFullMethod, InventoryServiceServer.GetMovements)},
		{MethodName: "ListLowStock", Handler: unaryHandler(ListLowStockFullMethod, InventoryServiceServer.ListLowStock)},
		{MethodName: "Reconcile", Handler: unaryHandler(ReconcileFullMethod, InventoryServiceServer.Reconcile)},
		{MethodName: "InvalidateSummary", Handler: unaryHandler(InvalidateSummaryFullMethod, InventoryServiceServer.InvalidateSummary)},
		{MethodName: "ExportMovementsCsv", Handler: unaryHandler(ExportMovementsCsvFullMethod, InventoryServiceServer.ExportMovementsCsv)},
		{MethodName: "ExportMovementsPdf", Handler: unaryHandler(ExportMovementsPdfFullMethod, InventoryServiceServer.ExportMovementsPdf)},
		{MethodName: "ExportSummaryCsv", Handler: unaryHandler(ExportSummaryCsvFullMethod, InventoryServiceServer.ExportSummaryCsv)},
		{MethodName: "ExportSummaryPdf", Handler: unaryHandler(ExportSummaryPdfFullMethod, InventoryServiceServer.ExportSummaryPdf)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/inventory/v1/inventory.json",
}

// InventoryServiceClient is used by callers and by the end-to-end tests.
type InventoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryServiceClient(cc grpc.ClientConnInterface) *InventoryServiceClient {
	return &InventoryServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in interface{}, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{rpc.CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryServiceClient) RecordMovement(ctx context.Context, in *RecordMovementRequest, opts ...grpc.CallOption) (*model.StockMovement, error) {
	return invoke[model.StockMovement](ctx, c.cc, RecordMovementFullMethod, in, opts)
}

func (c *InventoryServiceClient) GetProductInventory(ctx context.Context, in *GetProductInventoryRequest, opts ...grpc.CallOption) (*model.Inventory, error) {
	return invoke[model.Inventory](ctx, c.cc, GetProductInventoryFullMethod, in, opts)
}

func (c *InventoryServiceClient) GetSummary(ctx context.Context, in *GetSummaryRequest, opts ...grpc.CallOption) (*sumdto.SummaryResult, error) {
	return invoke[sumdto.SummaryResult](ctx, c.cc, GetSummaryFullMethod, in, opts)
}

func (c *InventoryServiceClient) GetMovements(ctx context.Context, in *GetMovementsRequest, opts ...grpc.CallOption) (*GetMovementsResponse, error) {
	return invoke[GetMovementsResponse](ctx, c.cc, GetMovementsFullMethod, in, opts)
}

func (c *InventoryServiceClient) ListLowStock(ctx context.Context, in *ListLowStockRequest, opts ...grpc.CallOption) (*ListLowStockResponse, error) {
	return invoke[ListLowStockResponse](ctx, c.cc, ListLowStockFullMethod, in, opts)
}

func (c *InventoryServiceClient) Reconcile(ctx context.Context, in *ReconcileRequest, opts ...grpc.CallOption) (*invdto.ReconcileReport, error) {
	return invoke[invdto.ReconcileReport](ctx, c.cc, ReconcileFullMethod, in, opts)
}

func (c *InventoryServiceClient) InvalidateSummary(ctx context.Context, in *InvalidateSummaryRequest, opts ...grpc.CallOption) (*InvalidateSummaryResponse, error) {
	return invoke[InvalidateSummaryResponse](ctx, c.cc, InvalidateSummaryFullMethod, in, opts)
}

func (c *InventoryServiceClient) ExportMovementsCsv(ctx context.Context, in *GetMovementsRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, ExportMovementsCsvFullMethod, in, opts)
}

func (c *InventoryServiceClient) ExportMovementsPdf(ctx context.Context, in *GetMovementsRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, ExportMovementsPdfFullMethod, in, opts)
}

func (c *InventoryServiceClient) ExportSummaryCsv(ctx context.Context, in *GetSummaryRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, ExportSummaryCsvFullMethod, in, opts)
}

func (c *InventoryServiceClient) ExportSummaryPdf(ctx context.Context, in *GetSummaryRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, ExportSummaryPdfFullMethod, in, opts)
}
