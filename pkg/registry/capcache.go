package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// CapCache stores the best-effort capability/identity record discovered in
// remote preparation step 2. It is informational, not session state: losing
// it only means identity discovery runs again next time a device is used.
type CapCache interface {
	Get(ctx context.Context, deviceID string) (*Capability, bool, error)
	Set(ctx context.Context, deviceID string, cap Capability) error
}

// MemCapCache keeps the capability record on the Device struct itself, as
// the base spec requires. It is the default and needs no backing store.
type MemCapCache struct {
	reg *Registry
}

// NewMemCapCache returns a CapCache backed by the Device values in reg.
func NewMemCapCache(reg *Registry) *MemCapCache {
	return &MemCapCache{reg: reg}
}

func (c *MemCapCache) Get(_ context.Context, deviceID string) (*Capability, bool, error) {
	d := c.reg.Lookup(deviceID)
	if d == nil || d.Capability == nil {
		return nil, false, nil
	}
	cap := *d.Capability
	return &cap, true, nil
}

func (c *MemCapCache) Set(_ context.Context, deviceID string, cap Capability) error {
	d := c.reg.Lookup(deviceID)
	if d == nil {
		return fmt.Errorf("capcache: unknown device %q", deviceID)
	}
	c.reg.SetCapability(d, cap)
	return nil
}

// RedisCapCache backs CapCache with one JSON-encoded Redis string per device
// key, expiring after the configured TTL. It lets a deployer share capability discovery across
// orchestrator restarts or multiple orchestrator processes; capability
// caching is purely informational and is never the source of truth for
// whether a session exists.
type RedisCapCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCapCache connects to addr (host:port) and returns a RedisCapCache.
// ttl of zero disables expiry.
func NewRedisCapCache(addr string, db int, ttl time.Duration) *RedisCapCache {
	return &RedisCapCache{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		ttl:    ttl,
		prefix: "remotedbg:capcache:",
	}
}

func (c *RedisCapCache) key(deviceID string) string {
	return c.prefix + deviceID
}

func (c *RedisCapCache) Get(ctx context.Context, deviceID string) (*Capability, bool, error) {
	raw, err := c.client.Get(ctx, c.key(deviceID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("capcache: redis get %q: %w", deviceID, err)
	}
	var cap Capability
	if err := json.Unmarshal(raw, &cap); err != nil {
		return nil, false, fmt.Errorf("capcache: decode %q: %w", deviceID, err)
	}
	return &cap, true, nil
}

func (c *RedisCapCache) Set(ctx context.Context, deviceID string, cap Capability) error {
	cap.LastSeen = time.Now()
	raw, err := json.Marshal(cap)
	if err != nil {
		return fmt.Errorf("capcache: encode %q: %w", deviceID, err)
	}
	if err := c.client.Set(ctx, c.key(deviceID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("capcache: redis set %q: %w", deviceID, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (c *RedisCapCache) Close() error {
	return c.client.Close()
}
