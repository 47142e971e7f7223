package client

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/rpc/catalogv1"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

var _ catalog.Gateway = (*GRPCGateway)(nil)

// GRPCGateway talks to the catalog service over gRPC.
type GRPCGateway struct {
	client  catalogv1.CatalogServiceClient
	timeout time.Duration
	tracer  trace.Tracer
	logger  logger.ZapLogger
}

func Dial(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func NewGRPCGateway(cc grpc.ClientConnInterface, timeout time.Duration, log logger.ZapLogger) *GRPCGateway {
	return &GRPCGateway{
		client:  catalogv1.NewCatalogServiceClient(cc),
		timeout: timeout,
		tracer:  otel.Tracer("inventory.catalog"),
		logger:  log,
	}
}

func (g *GRPCGateway) GetProductDetailsByIDs(ctx context.Context, productIDs []string) ([]catalog.ProductDetail, error) {
	if len(productIDs) == 0 {
		return []catalog.ProductDetail{}, nil
	}

	ctx, span := g.tracer.Start(ctx, "catalog.GetProductDetailsByIds",
		trace.WithAttributes(attribute.Int("catalog.ids", len(productIDs))))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.GetProductDetailsByIds(ctx, &catalogv1.GetProductDetailsByIdsRequest{ProductIDs: productIDs})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog call failed")
		return nil, g.upstreamError("GetProductDetailsByIds", err)
	}
	return resp.Products, nil
}

func (g *GRPCGateway) GetProductsByIDs(ctx context.Context, productIDs []string) (map[string]string, error) {
	if len(productIDs) == 0 {
		return map[string]string{}, nil
	}

	ctx, span := g.tracer.Start(ctx, "catalog.GetProductsByIds",
		trace.WithAttributes(attribute.Int("catalog.ids", len(productIDs))))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.GetProductsByIds(ctx, &catalogv1.GetProductsByIdsRequest{ProductIDs: productIDs})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog call failed")
		return nil, g.upstreamError("GetProductsByIds", err)
	}
	if resp.Names == nil {
		return map[string]string{}, nil
	}
	return resp.Names, nil
}

func (g *GRPCGateway) upstreamError(method string, err error) error {
	g.logger.Error("catalog call failed", zap.String("method", method), zap.Error(err))
	if status.Code(err) == grpccodes.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return apperror.Upstream(err, "catalog %s timed out after %s", method, g.timeout)
	}
	return apperror.Upstream(err, "catalog %s failed", method)
}
