package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Typed 同一类值共用一个 key 前缀，值以 JSON 存储
type Typed[V any] struct {
	c      *Cache
	prefix string
	ttl    time.Duration
}

func NewTyped[V any](c *Cache, prefix string, ttl time.Duration) *Typed[V] {
	return &Typed[V]{c: c, prefix: prefix, ttl: ttl}
}

func (t *Typed[V]) Key(id string) string { return t.prefix + id }

// Load 未命中时回源并回写；load 的错误原样返回且不缓存，因此 404 每次都回源。
// 缓存内容无法解码时删除该 key 再回源一次
func (t *Typed[V]) Load(ctx context.Context, id string, load func(context.Context) (V, error)) (V, error) {
	var zero V
	key := t.Key(id)
	fetch := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}
	b, err := t.c.GetOrLoad(ctx, key, t.ttl, fetch)
	if err != nil {
		return zero, err
	}
	var out V
	if err := json.Unmarshal(b, &out); err == nil {
		return out, nil
	}
	_ = t.c.Del(ctx, key)
	return load(ctx)
}

// Forget 写操作后失效
func (t *Typed[V]) Forget(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, t.Key(id))
	}
	return t.c.Del(ctx, keys...)
}
