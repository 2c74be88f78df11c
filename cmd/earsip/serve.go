package main

import (
	"github.com/spf13/cobra"

	"earsip/internal/config"
	httpserver "earsip/internal/http"
)

func newServeCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the archive HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := httpserver.NewServer(cfg)
			if err != nil {
				return err
			}
			return srv.Run()
		},
	}
}
