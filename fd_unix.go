//go:build linux || darwin

package aeon

import (
	"golang.org/x/sys/unix"
)

// closeFD closes a file descriptor on Unix systems.
func closeFD(fd int) error {
	return unix.Close(fd)
}

// readFD reads from a file descriptor on Unix systems.
func readFD(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

// writeFD writes to a file descriptor on Unix systems.
func writeFD(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

// acceptFD accepts one pending connection on the listening socket fd,
// returning the new connection's socket fd.
func acceptFD(fd int) (int, error) {
	nfd, _, err := unix.Accept(fd)
	return nfd, err
}

// connectCheckFD reports the result of a previously-issued non-blocking
// connect(2) on fd by reading SO_ERROR, the standard idiom for
// completing a non-blocking connect once the fd reports writable.
func connectCheckFD(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

// isAgain reports whether err is EAGAIN/EWOULDBLOCK: the fd was
// reported ready by the poller but the syscall itself had nothing to
// transfer (a spurious wake under level-triggered epoll, or a
// readable-for-accept fd whose single pending connection another
// goroutine already claimed).
func isAgain(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
