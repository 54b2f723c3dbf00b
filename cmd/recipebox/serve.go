package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipebox/internal/app"
	"recipebox/internal/telemetry"
	"recipebox/internal/validation"
)

const shutdownTimeout = 15 * time.Second

var servePort string

// initTracing is swapped in tests.
var initTracing = telemetry.Init

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := initTracing(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = errors.Join(err, shutdownTracing(tctx))
	}()

	backends, err := app.OpenBackends(ctx, cfg, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	v := validation.New()
	srv, err := app.NewServer(cfg, app.ServerDeps{
		Recipes:   app.NewRecipeService(cfg, backends, v),
		Validator: v,
		Health:    backends.Health,
		Log:       log,
		Registry:  reg,
	})
	if err != nil {
		_ = backends.Close(context.Background())
		return err
	}

	port := cfg.Port
	if servePort != "" {
		port = servePort
	}
	addr := ":" + port

	listenErr := make(chan error, 1)
	go func() {
		log.Info("server_listening", zap.String("addr", addr), zap.String("app_host", cfg.AppHost))
		listenErr <- srv.Listen(addr)
	}()

	select {
	case err = <-listenErr:
	case <-ctx.Done():
		log.Info("server_shutting_down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := []error{err}
	errs = append(errs, srv.ShutdownWithContext(shutdownCtx))
	errs = append(errs, backends.Close(shutdownCtx))
	return errors.Join(errs...)
}
