// Package catalogv1 declares the product catalog RPC contract consumed by this service.
package catalogv1

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/internal/rpc"
	"google.golang.org/grpc"
)

const (
	ServiceName                       = "omnipos.catalog.v1.CatalogService"
	GetProductDetailsByIdsFullMethod = "/" + ServiceName + "/GetProductDetailsByIds"
	GetProductsByIdsFullMethod       = "/" + ServiceName + "/GetProductsByIds"
)

type GetProductDetailsByIdsRequest struct {
	ProductIDs []string `json:"productIds"`
}

type GetProductDetailsByIdsResponse struct {
	Products []catalog.ProductDetail `json:"products"`
}

type GetProductsByIdsRequest struct {
	ProductIDs []string `json:"productIds"`
}

type GetProductsByIdsResponse struct {
	// Names maps productId to productName.
	Names map[string]string `json:"products"`
}

type CatalogServiceClient interface {
	GetProductDetailsByIds(ctx context.Context, in *GetProductDetailsByIdsRequest, opts ...grpc.CallOption) (*GetProductDetailsByIdsResponse, error)
	GetProductsByIds(ctx context.Context, in *GetProductsByIdsRequest, opts ...grpc.CallOption) (*GetProductsByIdsResponse, error)
}

type catalogServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogServiceClient(cc grpc.ClientConnInterface) CatalogServiceClient {
	return &catalogServiceClient{cc: cc}
}

func (c *catalogServiceClient) GetProductDetailsByIds(ctx context.Context, in *GetProductDetailsByIdsRequest, opts ...grpc.CallOption) (*GetProductDetailsByIdsResponse, error) {
	out := new(GetProductDetailsByIdsResponse)
	opts = append([]grpc.CallOption{rpc.CallOption()}, opts...)
	if err := c.cc.Invoke(ctx, GetProductDetailsByIdsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *catalogServiceClient) GetProductsByIds(ctx context.Context, in *GetProductsByIdsRequest, opts ...grpc.CallOption) (*GetProductsByIdsResponse, error) {
	out := new(GetProductsByIdsResponse)
	opts = append([]grpc.CallOption{rpc.CallOption()}, opts...)
	if err := c.cc.Invoke(ctx, GetProductsByIdsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CatalogServiceServer is implemented by the catalog service; this repo only implements it in tests.
type CatalogServiceServer interface {
	GetProductDetailsByIds(context.Context, *GetProductDetailsByIdsRequest) (*GetProductDetailsByIdsResponse, error)
	GetProductsByIds(context.Context, *GetProductsByIdsRequest) (*GetProductsByIdsResponse, error)
}

func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&CatalogService_ServiceDesc, srv)
}

func _CatalogService_GetProductDetailsByIds_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetProductDetailsByIdsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).GetProductDetailsByIds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetProductDetailsByIdsFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServiceServer).GetProductDetailsByIds(ctx, req.(*GetProductDetailsByIdsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _CatalogService_GetProductsByIds_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetProductsByIdsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServiceServer).GetProductsByIds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetProductsByIdsFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServiceServer).GetProductsByIds(ctx, req.(*GetProductsByIdsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var CatalogService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProductDetailsByIds", Handler: _CatalogService_GetProductDetailsByIds_Handler},
		{MethodName: "GetProductsByIds", Handler: _CatalogService_GetProductsByIds_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/catalog/v1/catalog.json",
}
