// Client is the generic manual probe tool for the control plane: it
// reads lines of the form "header [data...]" from stdin, sends each as a
// message to --recipient, and prints replies as they arrive on a
// background goroutine. Typing "exit" quits the client (it does not send
// an `exit` message).
//
// Usage:
//
//	go run ./cmd/client --name probe --recipient marshal
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/revolution-robotics/control-plane/controlplane/config"
	"github.com/revolution-robotics/control-plane/controlplane/logging"
	"github.com/revolution-robotics/control-plane/controlplane/messenger"
)

func main() {
	name := flag.String("name", "client", "this client's own endpoint name")
	recipient := flag.String("recipient", "marshal", "default recipient for sent messages")
	flag.Parse()

	logger := logging.NewStdLogger(*name)
	cfg := config.New()

	m, err := messenger.Open(*name, cfg.QueueOptions(*name))
	if err != nil {
		logger.Error("client_open_failed", "err", err)
		os.Exit(1)
	}
	defer m.Close()

	var exiting atomic.Bool

	go func() {
		for !exiting.Load() {
			msg, ok, err := m.TimedReceive(time.Now().Add(200 * time.Millisecond))
			if err != nil {
				continue
			}
			if ok {
				fmt.Printf("< %s %s %v\n", msg.Sender, msg.Header, msg.Data)
			}
		}
	}()

	fmt.Printf("client %q ready, default recipient %q. Type \"header data...\"; \"exit\" to quit.\n", *name, *recipient)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			exiting.Store(true)
			break
		}
		fields := strings.Fields(line)
		header := fields[0]
		data := fields[1:]
		if _, err := m.Send(*recipient, header, data, 0); err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		}
	}
}
