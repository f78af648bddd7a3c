package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/api"
	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	m "github.com/RoyceAzure/lab/storefront/internal/api/middleware"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/RoyceAzure/lab/storefront/internal/metrics"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type Options struct {
	Resolver           service.IIdentityResolver
	Logger             *zerolog.Logger
	Metrics            *metrics.Metrics
	AllowedOrigins     []string
	LoginRatePerMinute int
}

func SetupRouter(server *handler.Server, opts Options) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// 全局中間件
	r.Use(middleware.RealIP)
	r.Use(m.RequestIdMiddleware)
	r.Use(m.LoggerMiddleware(opts.Logger))
	r.Use(m.RecoverMiddleware)
	r.Use(m.MetricsMiddleware(opts.Metrics))
	// 配置 CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", constants.LegacyUserIDHeader, constants.RequestIDHeader},
		ExposedHeaders: []string{constants.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(m.IdentityMiddleware(opts.Resolver))

	// 子 router 會繼承這兩個 handler，需在掛路由前設定
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.StatusJSON(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.StatusJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", server.HealthHandler.Healthz)
	r.Handle("/metrics", opts.Metrics.Handler())

	loginLimiter := m.NewIPRateLimiter(opts.LoginRatePerMinute)

	// API 路由
	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", server.HealthHandler.Healthz)

		r.Route("/users", func(r chi.Router) {
			r.With(m.RateLimitMiddleware(loginLimiter)).Post("/", server.UserHandler.UserAction)
			r.With(m.AuthMiddleware).Get("/me", server.UserHandler.Me)
		})

		// /cars 為車輛版前端沿用的路徑
		products := func(r chi.Router) {
			r.Get("/", server.ProductHandler.Get)
			r.Post("/", server.ProductHandler.Create)
			r.Patch("/", server.ProductHandler.Update)
			r.Delete("/", server.ProductHandler.Delete)
		}
		r.Route("/products", products)
		r.Route("/cars", products)

		r.Group(func(r chi.Router) {
			r.Use(m.AuthMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", server.CartHandler.Get)
				r.Post("/", server.CartHandler.Add)
				r.Put("/", server.CartHandler.SetQty)
				r.Delete("/", server.CartHandler.Remove)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", server.OrderHandler.Get)
				r.Post("/", server.OrderHandler.Checkout)
				r.Patch("/", server.OrderHandler.Cancel)
				r.Delete("/", server.OrderHandler.Delete)
			})
			r.Route("/address", func(r chi.Router) {
				r.Get("/", server.AddressHandler.Get)
				r.Post("/", server.AddressHandler.Upsert)
			})
		})
	})

	if opts.Logger != nil && opts.Logger.GetLevel() <= zerolog.DebugLevel {
		_ = chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			opts.Logger.Debug().Str("method", method).Str("route", route).Msg("route registered")
			return nil
		})
	}
	return r
}
