//go:build linux

package sandbox

import "golang.org/x/sys/unix"

// HostRSSBytes returns the resident set size of the host process running
// this engine, read via getrusage(2). It has nothing to do with any one
// instance's ResourceLimits (there is no per-instance OS process to
// measure, since instances share the engine's address space), but it gives
// an operator a sanity check against the sum of every instance's reported
// memory-page usage when many instances run concurrently in one process.
func HostRSSBytes() (int64, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, err
	}
	// Linux reports Maxrss in kilobytes.
	return ru.Maxrss * 1024, nil
}
