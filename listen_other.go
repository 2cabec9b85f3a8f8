//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package livetune

import "net"

func listenConfig(reusePort bool) (net.ListenConfig, error) {
	if reusePort {
		return net.ListenConfig{}, ErrReusePortUnsupported
	}
	return net.ListenConfig{}, nil
}
