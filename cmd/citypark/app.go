package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"city-parking/internal/config"
	"city-parking/internal/logging"
	"city-parking/internal/parking"
	"city-parking/internal/server"
	"city-parking/internal/snapshot"
)

type mode int

const (
	modeShell mode = 1 << iota
	modeServe
)

func run(parent context.Context, m mode) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.HTTP.Port = port
	}

	telemetry, err := parking.NewTelemetryProvider(ctx, cfg.TelemetryOptions())
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(telemetry)

	logging.Init(logging.Options{
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Environment,
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      logOutput(m),
		DisableOTel: !cfg.Telemetry.ExportOTLP,
	})

	core, err := newService(cfg)
	if err != nil {
		return err
	}
	service, err := parking.NewInstrumentedService(core, telemetry)
	if err != nil {
		return fmt.Errorf("instrument service: %w", err)
	}

	occupancy := core.Occupancy()
	logging.Info(ctx, "parking lot ready",
		"site", core.Name(),
		"floors", cfg.Site.Floors,
		"slots", occupancy.Total,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Snapshot.Enabled {
		exporter := snapshot.NewExporter(core, cfg.Snapshot.Path, cfg.Snapshot.Interval)
		g.Go(func() error {
			return exporter.Run(gctx)
		})
	}

	if m&modeServe != 0 {
		srv := server.NewServer(service, telemetry, server.Options{
			Port:      cfg.HTTP.Port,
			RateLimit: cfg.HTTP.RateLimit,
			RateBurst: cfg.HTTP.RateBurst,
		})
		g.Go(func() error {
			return srv.Run(gctx, cfg.HTTP.ShutdownTimeout)
		})
	}

	if m&modeShell != 0 {
		// The console blocks on stdin, so it stays outside the group and
		// ends the process when the operator exits.
		go func() {
			shell := parking.NewShell(service, telemetry, os.Stdin, os.Stdout)
			shell.Run(gctx)
			logging.Info(gctx, "console exited")
			cancel()
		}()
	}

	<-gctx.Done()
	if err := g.Wait(); err != nil {
		logging.Error(ctx, "shutdown with error", "error", err)
		return err
	}
	return nil
}

func newService(cfg *config.Config) (*parking.Service, error) {
	rates, err := cfg.RateCard()
	if err != nil {
		return nil, err
	}
	lot, err := parking.NewLotFromLayout(cfg.Site.Name, cfg.Layout())
	if err != nil {
		return nil, err
	}
	return parking.NewService(lot, rates), nil
}

// logOutput keeps structured logs off stdout while the console owns it.
func logOutput(m mode) *os.File {
	if m&modeShell != 0 {
		return os.Stderr
	}
	return os.Stdout
}

func shutdownTelemetry(telemetry *parking.TelemetryProvider) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error shutting down telemetry: %v\n", err)
	}
}
