package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
)

var (
	ErrCacheMiss           = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrSerializationFailed = errors.New(errors.ErrCodeSerialization, "cache value is not valid JSON")
)

// nullMarker is stored for keys whose loader found nothing.
const nullMarker = "__null__"

const (
	defaultKeyPrefix   = "treatiq:"
	defaultEntryTTL    = 10 * time.Minute
	defaultNegativeTTL = 30 * time.Second
	defaultTTLJitter   = 0.1
	scanBatch          = 100
)

// Cache stores JSON values under a common key prefix.  Absent values can be
// cached with SetNull; loads through GetOrSet are collapsed per key.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// SetNull records that key has no value, for the negative TTL.
	SetNull(ctx context.Context, key string) error
	// MGet returns the raw values of the keys present in the cache.  Keys
	// cached as absent map to a nil slice; uncached keys are left out.
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	Ping(ctx context.Context) error
}

type CacheOption func(*jsonCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *jsonCache) { c.prefix = prefix }
}

// WithDefaultTTL applies to Set calls with a zero ttl.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *jsonCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithTTLJitter spreads expiries by up to ±fraction of the TTL so entries
// written together do not expire together.  Zero disables it.
func WithTTLJitter(fraction float64) CacheOption {
	return func(c *jsonCache) { c.jitter = fraction }
}

func WithNegativeTTL(ttl time.Duration) CacheOption {
	return func(c *jsonCache) { c.negativeTTL = ttl }
}

type jsonCache struct {
	client      *Client
	log         logging.Logger
	prefix      string
	ttl         time.Duration
	negativeTTL time.Duration
	jitter      float64
	loads       singleflight.Group
}

// NewRedisCache returns a Cache backed by client.
func NewRedisCache(client *Client, log logging.Logger, opts ...CacheOption) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &jsonCache{
		client:      client,
		log:         log.Named("cache"),
		prefix:      defaultKeyPrefix,
		ttl:         defaultEntryTTL,
		negativeTTL: defaultNegativeTTL,
		jitter:      defaultTTLJitter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *jsonCache) key(k string) string { return c.prefix + k }

func (c *jsonCache) keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = c.prefix + k
	}
	return out
}

func (c *jsonCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || c.jitter <= 0 {
		return ttl
	}
	spread := float64(ttl) * c.jitter
	return ttl + time.Duration(spread*(2*rand.Float64()-1))
}

func (c *jsonCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	switch {
	case err == redis.Nil:
		return ErrCacheMiss
	case err != nil:
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache get failed").WithDetail(key)
	case string(raw) == nullMarker:
		return ErrCacheMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return ErrSerializationFailed.WithCause(err).WithDetail(key)
	}
	return nil
}

func (c *jsonCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return ErrSerializationFailed.WithCause(err).WithDetail(key)
	}
	return c.put(ctx, key, string(raw), ttl)
}

func (c *jsonCache) put(ctx context.Context, key, raw string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	if err := c.client.Set(ctx, c.key(key), raw, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache set failed").WithDetail(key)
	}
	return nil
}

func (c *jsonCache) SetNull(ctx context.Context, key string) error {
	if err := c.client.Set(ctx, c.key(key), nullMarker, c.negativeTTL).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache set failed").WithDetail(key)
	}
	return nil
}

func (c *jsonCache) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	found := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return found, nil
	}
	vals, err := c.client.MGet(ctx, c.keys(keys)...).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "cache mget failed")
	}
	for i, v := range vals {
		s, ok := v.(string)
		switch {
		case !ok:
		case s == nullMarker:
			found[keys[i]] = nil
		default:
			found[keys[i]] = []byte(s)
		}
	}
	return found, nil
}

func (c *jsonCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, c.keys(keys)...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

// DeleteByPrefix removes every key under prefix, one SCAN page at a time,
// and returns how many keys were deleted before any error.
func (c *jsonCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		deleted int64
		cursor  uint64
		pattern = c.key(prefix) + "*"
	)
	for {
		page, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "cache scan failed").WithDetail(pattern)
		}
		if len(page) > 0 {
			if err := c.client.Del(ctx, page...).Err(); err != nil {
				return deleted, errors.Wrap(err, errors.ErrCodeCacheError, "cache delete failed").WithDetail(pattern)
			}
			deleted += int64(len(page))
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

// GetOrSet reads key into dest, calling loader at most once per key across
// concurrent callers on a miss.  The loader runs without the caller's
// cancellation; a cancelled caller stops waiting and returns ctx.Err().  A
// nil loader result is cached as absent and reported as ErrCacheMiss.
// Failing to store the loaded value is logged, not returned.
func (c *jsonCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err != ErrCacheMiss {
		return err
	}

	ch := c.loads.DoChan(key, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if loaded == nil {
			if err := c.SetNull(ctx, key); err != nil {
				c.log.Warn("negative cache write failed", logging.String("key", key), logging.Err(err))
			}
			return nil, nil
		}
		raw, err := json.Marshal(loaded)
		if err != nil {
			return nil, ErrSerializationFailed.WithCause(err).WithDetail(key)
		}
		if err := c.put(ctx, key, string(raw), ttl); err != nil {
			c.log.Warn("cache write failed", logging.String("key", key), logging.Err(err))
		}
		return raw, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return res.Err
	}
	v := res.Val
	if v == nil {
		return ErrCacheMiss
	}
	return json.Unmarshal(v.([]byte), dest)
}

func (c *jsonCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

//Personal.AI order the ending
