package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cppla/nailgrow/config"
	"github.com/cppla/nailgrow/routes"
	"github.com/cppla/nailgrow/utils"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (overrides APP_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if servePort != "" {
		cfg.AppPort = servePort
		config.Set(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := newApp(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	r := routes.SetupRouter(a.services)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	return utils.GraceServer(":"+cfg.AppPort, r)
}
