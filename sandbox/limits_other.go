//go:build !linux

package sandbox

import wasmerrors "wasmguard/errors"

// HostRSSBytes is only implemented on Linux, where it reads getrusage(2)
// via golang.org/x/sys/unix.
func HostRSSBytes() (int64, error) {
	return 0, wasmerrors.WrapWithDetail(nil, wasmerrors.ErrInternal, "host_rss", "not supported on this platform")
}
