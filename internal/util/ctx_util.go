package util

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/model"
)

func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, constants.IdentityKey, identity)
}

// GetIdentityFromContext 沒有登入時回傳 nil
func GetIdentityFromContext(ctx context.Context) *model.Identity {
	if v, ok := ctx.Value(constants.IdentityKey).(*model.Identity); ok {
		return v
	}
	return nil
}

func GetRequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(constants.RequestIDKey).(string); ok {
		return v
	}
	return "unknown"
}
