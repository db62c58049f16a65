// Package procaffinity pins the calling OS thread to a single CPU, for
// the fake-server's multi-process launch mode: rather than N worker
// goroutines in one process, each with its own socket on a shared port,
// each child process listens on its own port and pins the thread that
// calls Pin to its own core.
package procaffinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its current OS thread and restricts
// that thread to cpu. Callers should invoke Pin from the goroutine that
// will run the process's actual work (typically early in main), since
// the lock is only meaningful for the thread it's called from.
func Pin(cpu int) error {
	if cpu < 0 {
		return fmt.Errorf("procaffinity: invalid cpu %d", cpu)
	}

	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return fmt.Errorf("procaffinity: SchedSetaffinity(cpu=%d): %w", cpu, err)
	}
	return nil
}
