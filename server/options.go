// File: server/options.go
// Package server defines configuration and functional options.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/momentics/wsbridge/api"
	"github.com/momentics/wsbridge/appctx"
)

// Config holds container configuration parameters.
type Config struct {
	ListenAddr     string // TCP bind address, e.g. ":9000"
	RegistryShards int    // shard count for the in-memory registry
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     ":9000",
		RegistryShards: 16,
	}
}

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithRegistry injects a registry implementation, e.g. the Redis-mirrored
// one for clustered deployments.
func WithRegistry(r api.Registry) ServerOption {
	return func(s *Server) {
		s.registry = r
	}
}

// WithApplicationContext sets the application execution context swapped in
// around endpoint callbacks.
func WithApplicationContext(ctx api.Context) ServerOption {
	return func(s *Server) {
		s.appCtx = ctx
	}
}

// WithContextHolder injects the holder tracking the active context,
// shared when several containers run in one process.
func WithContextHolder(h *appctx.Holder) ServerOption {
	return func(s *Server) {
		s.holder = h
	}
}
