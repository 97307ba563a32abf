package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/office-admin/pkg/config"
	"github.com/noah-isme/office-admin/pkg/logger"
)

// app is what every command shares once the root has loaded configuration.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "officeadmin",
		Short:         "Office administration console",
		Long:          "officeadmin serves the web console over the office REST API and offers the same collections from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logr
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.AddCommand(
		newServeCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newStatusCommand(a),
		newListCommand(a),
		newExportCommand(a),
	)

	if err := root.Execute(); err != nil {
		log.Printf("officeadmin: %v", err)
		os.Exit(1)
	}
}
