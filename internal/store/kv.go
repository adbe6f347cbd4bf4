package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// KV is the persistent key-value storage the local backend and theme
// preference are written to. Values are opaque blobs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func OpenKV(ctx context.Context, opts LocalOptions) (KV, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("sqlite store: missing path")
		}
		return OpenSQLiteKV(ctx, opts.Path)
	case DriverRedis:
		addr := strings.TrimSpace(opts.RedisAddr)
		if addr == "" {
			addr = "127.0.0.1:6379"
		}
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return NewRedisKV(client, ""), nil
	case DriverMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown local store driver %q (expected sqlite|redis|memory)", opts.Driver)
	}
}

type MemoryKV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: map[string][]byte{}}
}

func (kv *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (kv *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	kv.m[key] = append([]byte(nil), value...)
	kv.mu.Unlock()
	return nil
}

func (kv *MemoryKV) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	delete(kv.m, key)
	kv.mu.Unlock()
	return nil
}

func (kv *MemoryKV) Close() error { return nil }
