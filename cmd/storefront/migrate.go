package main

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/appcontext"
	"github.com/RoyceAzure/lab/storefront/internal/bootstrap"
	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "database schema migration",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *appcontext.ApplicationContext) error {
			if err := db.MigrateUp(app.DbConn); err != nil {
				return err
			}
			app.Logger.Info().Msg("migrate up completed")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *appcontext.ApplicationContext) error {
			if err := db.MigrateDown(app.DbConn); err != nil {
				return err
			}
			app.Logger.Info().Msg("migrate down completed")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "create admin account and sample products if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *appcontext.ApplicationContext) error {
			return bootstrap.NewSeeder(app.DbDao, app.Logger, app.Cf.SeedAdminUsername, app.Cf.SeedAdminPassword).Seed(cmd.Context())
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

// withApp 建立 application context，執行完 fn 後關閉
func withApp(ctx context.Context, fn func(app *appcontext.ApplicationContext) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := appcontext.NewApplicationContext(config.GetConfig())
	if err != nil {
		return err
	}
	defer func() { _ = app.Shutdown(ctx) }()
	return fn(app)
}
