// File: server/server.go
// Package server hosts upgraded endpoints behind an HTTP handshake.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The server performs the protocol-switch handshake with gobwas/ws,
// captures the handshake metadata snapshot from the HTTP request, wraps
// the hijacked connection in the notification transport, and hands it to
// an upgrade bridge. One application context holder serves the whole
// container.

package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gobwas/ws"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/wsbridge/api"
	"github.com/momentics/wsbridge/appctx"
	"github.com/momentics/wsbridge/bridge"
	"github.com/momentics/wsbridge/metrics"
	"github.com/momentics/wsbridge/registry"
	"github.com/momentics/wsbridge/transport"
)

// EndpointFactory builds one endpoint instance per accepted connection.
type EndpointFactory func() api.Endpoint

type endpointEntry struct {
	template []string // path split into segments, "{name}" marks a parameter
	factory  EndpointFactory
	cfg      *api.EndpointConfig
}

// Server is the container facade.
type Server struct {
	cfg      *Config
	registry api.Registry
	holder   *appctx.Holder
	appCtx   api.Context
	metrics  *metrics.Registry

	mu        sync.RWMutex
	endpoints []*endpointEntry
}

// NewServer builds the container with the given configuration and options.
func NewServer(cfg *Config, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:     cfg,
		appCtx:  appctx.NewContext(),
		metrics: metrics.NewRegistry(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.registry == nil {
		s.registry = registry.NewInMemory(cfg.RegistryShards)
	}
	if s.holder == nil {
		s.holder = appctx.NewHolder(nil)
	}
	return s
}

// Registry exposes the container's connection registry.
func (s *Server) Registry() api.Registry { return s.registry }

// Metrics exposes the container's counter registry.
func (s *Server) Metrics() *metrics.Registry { return s.metrics }

// RegisterEndpoint mounts an endpoint variant on a path template.
// Templates may contain parameter segments, e.g. "/chat/{room}".
func (s *Server) RegisterEndpoint(path string, factory EndpointFactory, cfg *api.EndpointConfig) error {
	if factory == nil {
		return fmt.Errorf("%w: nil endpoint factory for %q", api.ErrConfiguration, path)
	}
	if cfg == nil {
		cfg = &api.EndpointConfig{}
	}
	if cfg.Name == "" {
		cfg.Name = path
	}
	s.mu.Lock()
	s.endpoints = append(s.endpoints, &endpointEntry{
		template: splitPath(path),
		factory:  factory,
		cfg:      cfg,
	})
	s.mu.Unlock()
	return nil
}

// ServeHTTP upgrades matching requests and bridges them.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entry, pathParams := s.match(r.URL.Path)
	if entry == nil {
		http.NotFound(w, r)
		return
	}

	// Snapshot before the connection is hijacked; the request is not
	// usable afterwards.
	meta := snapshotMetadata(r, pathParams)

	upgrader := ws.HTTPUpgrader{
		Protocol: func(offered string) bool {
			for _, p := range entry.cfg.Subprotocols {
				if p == offered {
					meta.Subprotocol = offered
					return true
				}
			}
			return false
		},
	}
	conn, _, _, err := upgrader.Upgrade(r, w)
	if err != nil {
		s.metrics.Inc("upgrade_failures")
		log.Printf("[server] upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}

	tr := transport.NewNetConn(conn)
	b := bridge.New(entry.factory(), entry.cfg, meta, s.registry, s.holder, s.appCtx)
	if err := b.Initialize(tr); err != nil {
		s.metrics.Inc("bridge_init_failures")
		log.Printf("[server] bridge init failed for %s: %v", r.RemoteAddr, err)
		_ = tr.Close()
		return
	}
	s.metrics.Inc("upgrades")
}

// Run serves until ctx is cancelled, coordinating the listener lifetime
// with the supplied errgroup.
func (s *Server) Run(ctx context.Context, g *errgroup.Group) (net.Addr, error) {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return nil, err
	}

	httpSrv := &http.Server{Handler: s}

	go func() {
		<-ctx.Done()
		_ = httpSrv.Close()
		_ = ln.Close()
	}()

	g.Go(func() error {
		err := httpSrv.Serve(ln)
		if err == http.ErrServerClosed || ctx.Err() != nil {
			return nil
		}
		return err
	})

	log.Printf("[server] listening on %s", ln.Addr())
	return ln.Addr(), nil
}

// match finds the endpoint entry for a request path and extracts path
// parameters from template segments.
func (s *Server) match(path string) (*endpointEntry, map[string]string) {
	segments := splitPath(path)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.endpoints {
		if params, ok := matchTemplate(e.template, segments); ok {
			return e, params
		}
	}
	return nil, nil
}

// snapshotMetadata captures the immutable handshake record from the
// request.
func snapshotMetadata(r *http.Request, pathParams map[string]string) *api.HandshakeMetadata {
	params := make(map[string][]string, len(r.URL.Query()))
	for k, v := range r.URL.Query() {
		params[k] = append([]string(nil), v...)
	}
	principal := ""
	if user, _, ok := r.BasicAuth(); ok {
		principal = user
	}
	if pathParams == nil {
		pathParams = map[string]string{}
	}
	return &api.HandshakeMetadata{
		URI:            r.URL,
		QueryString:    r.URL.RawQuery,
		ParameterMap:   params,
		Principal:      principal,
		PathParameters: pathParams,
		Secure:         r.TLS != nil,
	}
}

// splitPath breaks a path into its non-empty segments.
func splitPath(p string) []string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		return nil
	}
	return parts
}

// matchTemplate matches path segments against a template, collecting
// "{name}" parameters.
func matchTemplate(template, segments []string) (map[string]string, bool) {
	if len(template) != len(segments) {
		return nil, false
	}
	var params map[string]string
	for i, t := range template {
		if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
			if params == nil {
				params = make(map[string]string)
			}
			params[t[1:len(t)-1]] = segments[i]
			continue
		}
		if t != segments[i] {
			return nil, false
		}
	}
	return params, true
}
