//go:build windows

package aeon

import (
	"errors"
	"syscall"
)

// closeFD closes a socket/file handle on Windows.
func closeFD(fd int) error {
	if fd < 0 {
		// The wake mechanism has no real fd on Windows (it uses
		// PostQueuedCompletionStatus instead); closing a negative
		// sentinel is a no-op rather than an error.
		return nil
	}
	return syscall.Close(syscall.Handle(fd))
}

// readFD reads from a socket/file handle on Windows.
func readFD(fd int, buf []byte) (int, error) {
	if fd < 0 {
		return 0, nil
	}
	return syscall.Read(syscall.Handle(fd), buf)
}

// writeFD writes to a socket/file handle on Windows.
func writeFD(fd int, buf []byte) (int, error) {
	if fd < 0 {
		return 0, nil
	}
	return syscall.Write(syscall.Handle(fd), buf)
}

// acceptFD accepts one pending connection on the listening socket fd,
// returning the new connection's socket handle.
func acceptFD(fd int) (int, error) {
	nfd, _, err := syscall.Accept(syscall.Handle(fd))
	return int(nfd), err
}

// connectCheckFD reports the result of a previously-issued non-blocking
// connect on fd by reading SO_ERROR, mirroring the Unix getsockopt
// idiom for the same check.
func connectCheckFD(fd int) error {
	errno, err := syscall.GetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return syscall.Errno(errno)
	}
	return nil
}

// isAgain reports whether err is the platform's "operation would block,
// try again once the poller reports readiness" sentinel.
func isAgain(err error) bool {
	return errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN)
}
