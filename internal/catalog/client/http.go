package client

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/apperror"
	"github.com/fekuna/omnipos-inventory-service/internal/catalog"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var _ catalog.Gateway = (*HTTPGateway)(nil)

// HTTPGateway talks to the catalog's REST facade.
type HTTPGateway struct {
	client *resty.Client
	logger logger.ZapLogger
}

type idsRequest struct {
	ProductIDs []string `json:"productIds"`
}

func NewHTTPGateway(baseURL string, timeout time.Duration, log logger.ZapLogger) *HTTPGateway {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &HTTPGateway{client: c, logger: log}
}

func (g *HTTPGateway) GetProductDetailsByIDs(ctx context.Context, productIDs []string) ([]catalog.ProductDetail, error) {
	if len(productIDs) == 0 {
		return []catalog.ProductDetail{}, nil
	}

	var out []catalog.ProductDetail
	if err := g.post(ctx, "/products/details", productIDs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) GetProductsByIDs(ctx context.Context, productIDs []string) (map[string]string, error) {
	if len(productIDs) == 0 {
		return map[string]string{}, nil
	}

	out := map[string]string{}
	if err := g.post(ctx, "/products/names", productIDs, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, ids []string, result interface{}) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(idsRequest{ProductIDs: ids}).
		SetResult(result).
		Post(path)
	if err != nil {
		g.logger.Error("catalog request failed", zap.String("path", path), zap.Error(err))
		return apperror.Upstream(err, "catalog %s failed", path)
	}
	if resp.IsError() {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode())
		g.logger.Error("catalog request rejected", zap.String("path", path), zap.Int("status", resp.StatusCode()))
		return apperror.Upstream(err, "catalog %s failed", path)
	}
	return nil
}
