//go:build !linux

// File: transport/sockopt_stub.go
// Package transport
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "net"

// tuneConn is a no-op on platforms without the Linux sockopt path.
func tuneConn(net.Conn) {}
