//go:build linux

//lint:file-ignore U1000 Platform-specific stub functions (required for Windows/Darwin compatibility)

package aeon

import (
	"golang.org/x/sys/unix"
)

const (
	EFD_CLOEXEC  = unix.EFD_CLOEXEC
	EFD_NONBLOCK = unix.EFD_NONBLOCK
)

// createWakeFd creates an eventfd for wake-up notifications (Linux).
// Returns the single eventfd as both read and write ends.
func createWakeFd(initval uint, flags int) (int, int, error) {
	fd, err := unix.Eventfd(initval, flags)
	return fd, fd, err
}

// closeWakeFd closes the wake eventfd on Linux.
func closeWakeFd(wakeFd, wakeWriteFd int) error {
	if wakeFd >= 0 {
		_ = unix.Close(wakeFd)
	}
	return nil
}

// isWakeFdSupported returns true on Linux (eventfd mechanism).
func isWakeFdSupported() bool {
	return true
}

// drainWakeUpPipe drains every pending wake-up on fd, a previously
// created wake eventfd. The reactor owns fd and calls this after a
// RunOnce that observed the wake fd become readable.
func drainWakeUpPipe(fd int) error {
	if fd < 0 {
		return nil
	}
	var buf [8]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err != nil {
			break
		}
	}
	return nil
}

// submitGenericWakeup is a stub for Darwin/Linux.
// This function name exists on Windows for PostQueuedCompletionStatus.
// On Darwin/Linux, Reactor.Wakeup writes to the wake fd instead.
//
// Note: Reactor.Wakeup reaches this only while its wakeWriteFd is < 0
// (no wake fd created yet), so this is a safety stub only.
func submitGenericWakeup(_ uintptr) error {
	// Darwin/Linux: Reactor.Wakeup writes to wakeWriteFd instead
	// This stub exists for function name compatibility with Windows
	return nil
}
