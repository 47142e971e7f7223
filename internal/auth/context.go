package auth

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/pkg/middleware"
	"google.golang.org/grpc/metadata"
)

// GetActor returns the caller identity recorded as a movement's activatedBy.
func GetActor(ctx context.Context) string {
	// Populated by middleware.ContextInterceptor
	if v := middleware.UserID(ctx); v != "" {
		return v
	}

	// Fallback to metadata
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get("x-user-id"); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
