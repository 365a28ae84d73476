// Unlinker unlinks the queues named on the command line, rather than the
// whole default topology.
//
// Usage:
//
//	go run ./cmd/unlinker motor replica
package main

import (
	"fmt"
	"os"

	"github.com/revolution-robotics/control-plane/controlplane/resetter"
)

func main() {
	names := os.Args[1:]
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "unlinker: at least one queue name is required")
		os.Exit(2)
	}
	if err := resetter.Unlink(names...); err != nil {
		fmt.Fprintf(os.Stderr, "unlinker: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("unlinker: unlinked %v\n", names)
}
