// Marshal is the coordinator endpoint: it applies every write it
// receives and fans it out to every soldier (the originating one
// included) and to the replica, unless the replica sent it.
//
// Usage:
//
//	go run ./cmd/marshal
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/config"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/observability"
	"github.com/revolution-robotics/control-plane/controlplane/role"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

func main() {
	heartPeriod := flag.Duration("heart-period", config.DefaultRuntimeConfig().HeartPeriod, "heart tick period")
	otlpEndpoint := flag.String("otlp-endpoint", "", "OTLP gRPC collector endpoint; empty disables tracing export")
	flag.Parse()

	logger := logging.NewStdLogger(topology.Marshal)
	cfg := config.New(config.WithHeartPeriod(*heartPeriod))

	if *otlpEndpoint != "" {
		shutdown, err := observability.InitTracer(topology.Marshal, *otlpEndpoint)
		if err != nil {
			logger.Error("tracer_init_failed", "err", err)
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	a, err := app.New(topology.Marshal, logger, cfg)
	if err != nil {
		logger.Error("marshal_construction_failed", "err", err)
		os.Exit(1)
	}
	if err := a.Setup(); err != nil {
		logger.Error("marshal_setup_failed", "err", err)
		os.Exit(1)
	}

	marshalRole := role.NewMarshal(logger)
	a.SetRole(marshalRole)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runDone := make(chan error, 1)
	go func() { runDone <- a.Run() }()

	if err := marshalRole.BootSync(a); err != nil {
		logger.Warn("marshal_boot_sync_failed", "err", err)
	}

	logger.Info("marshal_ready")

	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal_received", "signal", sig.String())
		a.RequestStop()
		<-runDone
	case err := <-runDone:
		if err != nil {
			logger.Error("marshal_run_exited_with_error", "err", err)
			os.Exit(1)
		}
	}
	logger.Info("marshal_stopped")
}
