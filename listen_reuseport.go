//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package livetune

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenConfig returns the ListenConfig both servers bind with. reusePort
// sets SO_REUSEPORT, so several processes may bind the same address and a
// replacement can take over before the old process shuts down.
func listenConfig(reusePort bool) (net.ListenConfig, error) {
	if !reusePort {
		return net.ListenConfig{}, nil
	}
	return net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var serr error
			err := c.Control(func(fd uintptr) {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return serr
		},
	}, nil
}
