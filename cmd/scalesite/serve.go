package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"scalesite/internal/serve"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve normalized content as a JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if addr != "" {
				cfg.Serve.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := serve.New(cfg, serve.Options{ConfigPath: a.configPath}, a.log)
			defer s.Close()
			return s.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides serve.addr")
	return cmd
}
