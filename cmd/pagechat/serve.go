package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pagechat/backend/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for the side panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig("INFO")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.AppPort = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			return a.Serve(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from APP_PORT)")
	return cmd
}
