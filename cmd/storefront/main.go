package main

import (
	"fmt"
	"os"

	"github.com/RoyceAzure/lab/storefront/internal/config"
	"github.com/spf13/cobra"
)

// @title storefront
// @version 1.0
// @description 電商前台 API，商品、購物車、訂單與收件地址
// @BasePath  /api

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.

var configPath string

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "storefront backend",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.SetConfigFile(configPath)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (yaml/json/env), default reads environment only")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
