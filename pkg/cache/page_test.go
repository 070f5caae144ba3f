package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/config"
)

func newStore(t *testing.T) (*PageStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPageStore(client, ""), mr
}

func TestPageStoreRoundTripAndExpiry(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "GET /")
	assert.ErrorIs(t, err, ErrMiss)

	want := &Entry{Status: 200, ContentType: "text/html; charset=utf-8", Body: []byte("<main>hi</main>")}
	require.NoError(t, store.Set(ctx, "GET /", want, time.Second))
	assert.True(t, mr.Exists("page:GET /"))

	got, err := store.Get(ctx, "GET /")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	mr.FastForward(time.Second)
	_, err = store.Get(ctx, "GET /")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestPageStoreCorruptPayload(t *testing.T) {
	store, mr := newStore(t)
	require.NoError(t, mr.Set("page:bad", "not-json"))

	_, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
