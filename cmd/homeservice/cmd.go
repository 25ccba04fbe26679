package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/viant/homeservice"
	"github.com/viant/homeservice/tracing"
)

type flags struct {
	config string
	addr   string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "homeservice",
		Short:         "Home service appointment approval workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.config, "config", os.Getenv("HOMESERVICE_CONFIG"), "config file URL (YAML)")
	root.PersistentFlags().StringVar(&f.addr, "addr", "", "listen address, overrides http.addr")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the requester and operator API with the engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "engine",
		Short: "Serve the workflow engine routes only",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f, homeservice.WithEngineOnly())
		},
	})
	return root
}

func run(ctx context.Context, f *flags, options ...homeservice.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := homeservice.LoadConfig(ctx, f.config)
	if err != nil {
		return err
	}
	if f.addr != "" {
		config.HTTP.Addr = f.addr
	}
	logger, err := homeservice.NewLogger(os.Stderr, config.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	defer func() { _ = tracing.Shutdown(context.Background()) }()

	srv, err := homeservice.NewFromConfig(ctx, config, append([]homeservice.Option{homeservice.WithLogger(logger)}, options...)...)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	return srv.Runtime().Serve(ctx)
}
