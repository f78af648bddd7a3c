package middleware

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/apperr"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/RoyceAzure/lab/storefront/internal/util"
	"github.com/rs/zerolog"
)

// IdentityMiddleware 解析呼叫者放進 context，沒有身分時照常往下
func IdentityMiddleware(resolver service.IIdentityResolver) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity, err := resolver.Resolve(ctx, r)
			if err != nil {
				api.ErrorJSON(w, r, err)
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", identity.ID)
			})
			next.ServeHTTP(w, r.WithContext(util.WithIdentity(ctx, identity)))
		})
	}
}

// AuthMiddleware 驗證 ctx 是否有呼叫者身分
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if util.GetIdentityFromContext(r.Context()) == nil {
			api.ErrorJSON(w, r, apperr.New(apperr.Unauthorized, "unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
