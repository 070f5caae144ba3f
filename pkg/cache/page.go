package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// Entry 一次完整的页面响应
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// PageStore 固定 TTL 的页面缓存，过期即失效，不做写时失效
type PageStore struct {
	client redis.Cmdable
	prefix string
}

func NewPageStore(client redis.Cmdable, prefix string) *PageStore {
	if prefix == "" {
		prefix = "page"
	}
	return &PageStore{client: client, prefix: prefix}
}

func (s *PageStore) key(k string) string { return s.prefix + ":" + k }

func (s *PageStore) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PageStore) Set(ctx context.Context, key string, e *Entry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), payload, ttl).Err()
}
