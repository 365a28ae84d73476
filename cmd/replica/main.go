// Replica is the persistence endpoint: it mirrors state like any
// soldier and periodically pushes its full state to the marshal so the
// marshal's view survives restarts.
//
// Usage:
//
//	go run ./cmd/replica
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/config"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/role"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

func main() {
	syncPeriod := flag.Duration("sync-period", 500*time.Millisecond, "full-state dump period")
	flag.Parse()

	logger := logging.NewStdLogger(topology.Replica)
	cfg := config.New(config.WithReplicaSyncPeriod(*syncPeriod))

	a, err := app.New(topology.Replica, logger, cfg)
	if err != nil {
		logger.Error("replica_construction_failed", "err", err)
		os.Exit(1)
	}
	if err := a.Setup(); err != nil {
		logger.Error("replica_setup_failed", "err", err)
		os.Exit(1)
	}

	replicaRole := role.NewReplica(*syncPeriod, logger)
	a.SetRole(replicaRole)
	stopDump := replicaRole.StartPeriodicDump(a)
	defer stopDump()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runDone := make(chan error, 1)
	go func() { runDone <- a.Run() }()

	logger.Info("replica_ready")

	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal_received", "signal", sig.String())
		a.RequestStop()
		<-runDone
	case err := <-runDone:
		if err != nil {
			logger.Error("replica_run_exited_with_error", "err", err)
			os.Exit(1)
		}
	}
	logger.Info("replica_stopped")
}
