//go:build linux

// File: transport/sockopt_linux.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux socket tuning for upgraded connections. Message-protocol traffic
// is latency sensitive, so Nagle's algorithm is disabled on the raw fd.

package transport

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// tuneConn disables Nagle on TCP connections. Failures are ignored: tuning
// is an optimization, never a correctness requirement.
func tuneConn(conn net.Conn) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return
	}
	_ = raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
}
