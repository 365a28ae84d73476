// Package resetter implements the offline queue-purging utilities:
// ResetAll unlinks every queue in the topology, Unlink unlinks specified
// names. These run before first boot so a fresh process does not absorb
// stale messages left by a prior crashed run.
package resetter

import (
	"fmt"

	"github.com/revolution-robotics/control-plane/controlplane/queue"
	"github.com/revolution-robotics/control-plane/controlplane/topology"
)

// ResetAll unlinks every endpoint queue named in the default topology.
func ResetAll() error {
	return Unlink(topology.All()...)
}

// Unlink removes the named queues from the host namespace. Every name is
// attempted even after one fails; the first error is returned. A queue
// that does not exist is not an error.
func Unlink(names ...string) error {
	var firstErr error
	for _, name := range names {
		if err := queue.Unlink(name); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("resetter: unlink %q: %w", name, err)
			}
		}
	}
	return firstErr
}
