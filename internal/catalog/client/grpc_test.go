package client

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/rpc/catalogv1"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

type fakeCatalogServer struct {
	delay    time.Duration
	err      error
	products map[string]catalog.ProductDetail
	calls    atomic.Int32
}

func (f *fakeCatalogServer) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeCatalogServer) GetProductDetailsByIds(ctx context.Context, in *catalogv1.GetProductDetailsByIdsRequest) (*catalogv1.GetProductDetailsByIdsResponse, error) {
	f.calls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	out := &catalogv1.GetProductDetailsByIdsResponse{}
	for _, id := range in.ProductIDs {
		if p, ok := f.products[id]; ok {
			out.Products = append(out.Products, p)
		}
	}
	return out, nil
}

func (f *fakeCatalogServer) GetProductsByIds(ctx context.Context, in *catalogv1.GetProductsByIdsRequest) (*catalogv1.GetProductsByIdsResponse, error) {
	f.calls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	out := &catalogv1.GetProductsByIdsResponse{Names: map[string]string{}}
	for _, id := range in.ProductIDs {
		if p, ok := f.products[id]; ok {
			out.Names[id] = p.ProductName
		}
	}
	return out, nil
}

func startCatalog(t *testing.T, srv *fakeCatalogServer, timeout time.Duration) *GRPCGateway {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	catalogv1.RegisterCatalogServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewGRPCGateway(conn, timeout, logger.NewNop())
}

func sampleProducts() map[string]catalog.ProductDetail {
	return map[string]catalog.ProductDetail{
		"P1": {ProductID: "P1", ProductName: "Blue Widget", BaseUnit: "pcs", SellingPrice: decimal.RequireFromString("12.50"), Category: "Widgets"},
		"P2": {ProductID: "P2", ProductName: "Bolt M8", BaseUnit: "box", SellingPrice: decimal.NewFromInt(3)},
	}
}

func TestGRPCGatewayGetProductDetails(t *testing.T) {
	gw := startCatalog(t, &fakeCatalogServer{products: sampleProducts()}, time.Second)

	got, err := gw.GetProductDetailsByIDs(context.Background(), []string{"P1", "P2", "P404"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Blue Widget", got[0].ProductName)
	assert.True(t, got[0].SellingPrice.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "Widgets", got[0].Category)
	assert.Empty(t, got[1].Category)
}

func TestGRPCGatewayGetProductNames(t *testing.T) {
	gw := startCatalog(t, &fakeCatalogServer{products: sampleProducts()}, time.Second)

	names, err := gw.GetProductsByIDs(context.Background(), []string{"P1", "P2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"P1": "Blue Widget", "P2": "Bolt M8"}, names)
}

func TestGRPCGatewayEmptyIDsSkipsCall(t *testing.T) {
	srv := &fakeCatalogServer{}
	gw := startCatalog(t, srv, time.Second)

	got, err := gw.GetProductDetailsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, srv.calls.Load())
}

func TestGRPCGatewayTimeoutIsUpstreamUnavailable(t *testing.T) {
	gw := startCatalog(t, &fakeCatalogServer{delay: 500 * time.Millisecond, products: sampleProducts()}, 50*time.Millisecond)

	_, err := gw.GetProductDetailsByIDs(context.Background(), []string{"P1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "timed out")
}

func TestGRPCGatewayServerErrorIsUpstreamUnavailable(t *testing.T) {
	gw := startCatalog(t, &fakeCatalogServer{err: errors.New("catalog db down")}, time.Second)

	_, err := gw.GetProductsByIDs(context.Background(), []string{"P1"})
	assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)
}
