package leads

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InFlightGuard prevents the same submitter from running two submissions at once.
type InFlightGuard interface {
	// Acquire reports false when key already holds an in-flight submission.
	// The returned token must be passed to Release.
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	// Release clears key only while it still holds token.
	Release(ctx context.Context, key, token string) error
}

// MemoryGuard is a process-local guard.
type MemoryGuard struct {
	mu       sync.Mutex
	inFlight map[string]string
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inFlight: make(map[string]string)}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[key]; busy {
		return "", false, nil
	}
	token := uuid.NewString()
	g.inFlight[key] = token
	return token, true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key, token string) error {
	g.mu.Lock()
	if g.inFlight[key] == token {
		delete(g.inFlight, key)
	}
	g.mu.Unlock()
	return nil
}

// releaseScript deletes the marker only if it still carries the caller's token,
// so a request that outlived its TTL cannot clear a newer submission's marker.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard shares in-flight markers across API replicas. The TTL bounds how
// long a crashed request can block its submitter.
type RedisGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if client == nil {
		panic("leads: redis client required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisGuard{client: client, prefix: "leads:submit:", ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.prefix+key, token, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("leads: acquire submit guard: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (g *RedisGuard) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.prefix + key}, token).Err(); err != nil {
		return fmt.Errorf("leads: release submit guard: %w", err)
	}
	return nil
}

var (
	_ InFlightGuard = (*MemoryGuard)(nil)
	_ InFlightGuard = (*RedisGuard)(nil)
)
