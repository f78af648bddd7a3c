package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/api/handler"
	"github.com/RoyceAzure/lab/storefront/internal/api/router"
	"github.com/RoyceAzure/lab/storefront/internal/appcontext"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/constants"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start http server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		return err
	}
	logger := app.Logger

	if app.Cf.DbAutoMigrate {
		if err := app.Bootstrap(context.Background()); err != nil {
			_ = app.Shutdown(context.Background())
			return err
		}
	}

	// 初始化 handler
	server := handler.NewServer(
		handler.NewUserHandler(app.AuthService),
		handler.NewProductHandler(app.ProductService),
		handler.NewCartHandler(app.CartService),
		handler.NewOrderHandler(app.OrderService),
		handler.NewAddressHandler(app.AddressService),
		handler.NewHealthHandler(app.DbDao),
	)

	// 設置路由
	r := router.SetupRouter(server, router.Options{
		Resolver:           app.IdentityResolver,
		Logger:             logger,
		Metrics:            app.Metrics,
		AllowedOrigins:     app.Cf.CorsAllowedOrigins,
		LoginRatePerMinute: app.Cf.LoginRatePerMinute,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutdownCompleted := make(chan struct{}, 1)
	go func() {
		<-sigChan
		logger.Info().Msg("received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown error")
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("application shutdown error")
		}
		shutdownCompleted <- struct{}{}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		_ = app.Shutdown(context.Background())
		return err
	}
	<-shutdownCompleted
	logger.Info().Msg("closed completed")
	return nil
}
