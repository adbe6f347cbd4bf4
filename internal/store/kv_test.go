package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())
	return client, mr
}

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "projects")
	require.NoError(t, err)
	assert.False(t, ok, "missing key should report !ok")

	require.NoError(t, kv.Set(ctx, "projects", []byte(`[]`)))
	require.NoError(t, kv.Set(ctx, "projects", []byte(`[{"name":"X"}]`)))

	v, ok, err := kv.Get(ctx, "projects")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"name":"X"}]`, string(v))

	require.NoError(t, kv.Delete(ctx, "projects"))
	_, ok, err = kv.Get(ctx, "projects")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryKV(t *testing.T) {
	exerciseKV(t, NewMemoryKV())
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portfolio.sqlite")
	kv, err := OpenSQLiteKV(context.Background(), path)
	require.NoError(t, err)
	defer kv.Close()

	exerciseKV(t, kv)
}

func TestSQLiteKV_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "portfolio.sqlite")

	kv, err := OpenSQLiteKV(ctx, path)
	require.NoError(t, err)
	b := NewLocalBackend(kv, "", nil)
	created, err := b.Create(ctx, sampleProject("persisted"))
	require.NoError(t, err)
	require.NoError(t, kv.Close())

	kv2, err := OpenSQLiteKV(ctx, path)
	require.NoError(t, err)
	defer kv2.Close()
	got, err := NewLocalBackend(kv2, "", nil).List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created, got[0])
}

func TestRedisKV(t *testing.T) {
	client, mr := setupTestRedis(t)
	kv := NewRedisKV(client, "")
	defer kv.Close()

	exerciseKV(t, kv)

	require.NoError(t, kv.Set(context.Background(), "theme", []byte("dark")))
	got, err := mr.Get("portfolio:theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", got)
}

func TestOpenKV_UnknownDriver(t *testing.T) {
	_, err := OpenKV(context.Background(), LocalOptions{Driver: "etcd"})
	assert.Error(t, err)
}

func TestOpenKV_Redis(t *testing.T) {
	_, mr := setupTestRedis(t)
	kv, err := OpenKV(context.Background(), LocalOptions{Driver: DriverRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	defer kv.Close()
	exerciseKV(t, kv)
}
