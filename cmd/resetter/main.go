// Resetter is the offline utility that unlinks every queue in the default
// topology. Run before first boot so a fresh process does not absorb
// stale messages left behind by a prior crashed run.
//
// Usage:
//
//	go run ./cmd/resetter
package main

import (
	"fmt"
	"os"

	"github.com/revolution-robotics/control-plane/controlplane/resetter"
)

func main() {
	if err := resetter.ResetAll(); err != nil {
		fmt.Fprintf(os.Stderr, "resetter: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("resetter: all topology queues unlinked")
}
