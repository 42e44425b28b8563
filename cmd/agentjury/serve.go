package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentjury/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the debate API over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		addr = v
	}

	var jury server.Jury
	if a.jury != nil {
		jury = a.jury
	}

	srv := server.New(jury, func(o *server.Options) {
		o.ModelOptions = a.cfg.Models.Options
		o.RateLimit = a.cfg.RateLimit.Max
		o.RateWindow = a.cfg.RateLimit.Window
		o.RequestTimeout = a.cfg.Server.RequestTimeout
		o.ReadHeaderTimeout = a.cfg.Server.ReadHeaderTimeout
		o.ShutdownTimeout = a.cfg.Server.ShutdownTimeout
		o.TruncateLength = a.cfg.Logging.TruncateLength
		o.Logger = a.logger
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, addr)
}
