// File: registry/redis.go
// Package registry
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Redis-backed registry: sessions stay process-local, but presence is
// mirrored into a Redis set per endpoint variant so every node of a
// cluster can see which connections exist where. Mirror writes are
// best-effort against the local registration, which is authoritative.

package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/momentics/wsbridge/api"
)

// DefaultPresenceTTL bounds how stale a crashed node's presence entries
// can get before Redis expires them.
const DefaultPresenceTTL = 5 * time.Minute

// Redis implements api.Registry on top of an in-process registry plus a
// Redis presence mirror.
type Redis struct {
	client *redis.Client
	local  *InMemory
	prefix string
	ttl    time.Duration
	opTime time.Duration
}

var _ api.Registry = (*Redis)(nil)

// NewRedis builds a Redis-mirrored registry. prefix namespaces the
// presence keys, e.g. "wsbridge:chat".
func NewRedis(client *redis.Client, prefix string, shardCount int) *Redis {
	return &Redis{
		client: client,
		local:  NewInMemory(shardCount),
		prefix: prefix,
		ttl:    DefaultPresenceTTL,
		opTime: 2 * time.Second,
	}
}

// key builds the presence set key for a variant.
func (r *Redis) key(variant string) string {
	return fmt.Sprintf("%s:sessions:%s", r.prefix, variant)
}

// Register adds the session locally and mirrors its id into Redis.
func (r *Redis) Register(variant string, s api.Session) error {
	if err := r.local.Register(variant, s); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opTime)
	defer cancel()

	key := r.key(variant)
	p := r.client.Pipeline()
	p.SAdd(ctx, key, s.ID())
	p.Expire(ctx, key, r.ttl)
	if _, err := p.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mirror session %s into %s: %w", s.ID(), key, err)
	}
	return nil
}

// Unregister removes the session locally and from the Redis mirror.
func (r *Redis) Unregister(variant string, s api.Session) {
	r.local.Unregister(variant, s)

	ctx, cancel := context.WithTimeout(context.Background(), r.opTime)
	defer cancel()
	r.client.SRem(ctx, r.key(variant), s.ID())
}

// Sessions returns the local sessions for variant.
func (r *Redis) Sessions(variant string) []api.Session {
	return r.local.Sessions(variant)
}

// Len returns the local session count.
func (r *Redis) Len() int {
	return r.local.Len()
}

// PresentIDs returns the cluster-wide session ids registered under
// variant, including sessions owned by other nodes.
func (r *Redis) PresentIDs(ctx context.Context, variant string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.key(variant)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presence for %s: %w", variant, err)
	}
	return ids, nil
}
