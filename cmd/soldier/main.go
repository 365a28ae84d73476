// Soldier is the generic peripheral-controller binary: pass --name to
// select which topology endpoint it binds to (display, miscellaneous,
// motor, power_sensor, telemeter, voltage).
//
// Usage:
//
//	go run ./cmd/soldier --name motor
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/config"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/role"
)

func main() {
	name := flag.String("name", "", "endpoint name (display, miscellaneous, motor, power_sensor, telemeter, voltage)")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "soldier: --name is required")
		os.Exit(2)
	}

	logger := logging.NewStdLogger(*name)
	cfg := config.New()

	a, err := app.New(*name, logger, cfg)
	if err != nil {
		logger.Error("soldier_construction_failed", "endpoint", *name, "err", err)
		os.Exit(1)
	}
	if err := a.Setup(); err != nil {
		logger.Error("soldier_setup_failed", "endpoint", *name, "err", err)
		os.Exit(1)
	}

	peripheral := role.NewPeripheralBase(logger)
	a.SetRole(peripheral)
	peripheral.InstallStatusHandler(a)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runDone := make(chan error, 1)
	go func() { runDone <- a.Run() }()

	if err := peripheral.BootSync(a); err != nil {
		logger.Warn("soldier_boot_sync_failed", "endpoint", *name, "err", err)
	}

	logger.Info("soldier_ready", "endpoint", *name)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal_received", "signal", sig.String())
		a.RequestStop()
		<-runDone
	case err := <-runDone:
		if err != nil {
			logger.Error("soldier_run_exited_with_error", "endpoint", *name, "err", err)
			os.Exit(1)
		}
	}
	logger.Info("soldier_stopped", "endpoint", *name)
}
