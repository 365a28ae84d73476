// Echo is a trivial loop-back diagnostic endpoint: it replies to every
// header in echoedHeaders by echoing its data back reversed. Useful for
// validating the transport before bringing up the full topology. It is
// wired to the shared app.Application rather than a bespoke standalone
// loop, so it exercises the real dispatch/reply path.
//
// Usage:
//
//	go run ./cmd/echo --name echo
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/revolution-robotics/control-plane/controlplane/app"
	"github.com/revolution-robotics/control-plane/controlplane/config"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/message"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

// echoedHeaders lists every header echo overrides with reverse-echo
// behavior. response/heartbeat/hang/exit/abort keep their built-in
// semantics: echoing those would break correlation, liveness, or shutdown.
var echoedHeaders = []string{
	topology.HeaderStatus, topology.HeaderGet, topology.HeaderRead,
	topology.HeaderSet, topology.HeaderWrite, topology.HeaderReset,
	topology.HeaderSync, topology.HeaderGPIO, topology.HeaderPWM,
	topology.HeaderSPI, topology.HeaderUART, topology.HeaderState,
	topology.HeaderData,
}

func reverseEcho(a *app.Application, msg message.Message) ([]string, error) {
	out := make([]string, len(msg.Data))
	for i, v := range msg.Data {
		out[len(out)-1-i] = v
	}
	return out, nil
}

func main() {
	name := flag.String("name", "echo", "this endpoint's own name")
	flag.Parse()

	logger := logging.NewStdLogger(*name)
	cfg := config.New()

	a, err := app.New(*name, logger, cfg)
	if err != nil {
		logger.Error("echo_construction_failed", "err", err)
		os.Exit(1)
	}
	if err := a.Setup(); err != nil {
		logger.Error("echo_setup_failed", "err", err)
		os.Exit(1)
	}
	for _, h := range echoedHeaders {
		a.RegisterHandler(h, reverseEcho)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runDone := make(chan error, 1)
	go func() { runDone <- a.Run() }()

	logger.Info("echo_ready", "endpoint", *name)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal_received", "signal", sig.String())
		a.RequestStop()
		<-runDone
	case err := <-runDone:
		if err != nil {
			logger.Error("echo_run_exited_with_error", "err", err)
			os.Exit(1)
		}
	}
	logger.Info("echo_stopped", "endpoint", *name)
}
