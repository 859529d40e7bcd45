package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"splinemi/adapters/api"
	"splinemi/internal"
	"splinemi/internal/config"
)

func newServeCmd(cfg *config.Config, logger *internal.Logger) *cobra.Command {
	var flags estimatorFlags
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MI estimates over HTTP",
		Long: `Start an HTTP server exposing POST /api/v1/mi.

Example: splinemi serve --port 8080 --nbins 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := api.NewServer(flags.registry(logger), flags.method, logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, ":"+port)
		},
	}

	flags.register(cmd, cfg.Estimator)
	cmd.Flags().StringVar(&port, "port", cfg.Server.Port, "HTTP listen port")

	return cmd
}
