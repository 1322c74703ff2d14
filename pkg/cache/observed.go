package cache

import (
	"context"
	"time"

	"github.com/matzehuels/orgchart/pkg/observability"
)

// observed reports traffic of an inner cache to hooks.
type observed struct {
	Cache
	hooks observability.CacheHooks
}

// Observe wraps c so that every Get and Set is reported to hooks. A nil
// hooks value uses the globally registered ones at call time.
func Observe(c Cache, hooks observability.CacheHooks) Cache {
	return &observed{Cache: c, hooks: hooks}
}

func (o *observed) h() observability.CacheHooks {
	if o.hooks != nil {
		return o.hooks
	}
	return observability.Cache()
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := o.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			o.h().OnCacheHit(ctx, KeyType(key))
		} else {
			o.h().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := o.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		o.h().OnCacheSet(ctx, KeyType(key), len(data))
	}
	return err
}
