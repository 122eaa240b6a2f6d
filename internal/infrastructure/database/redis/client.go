// Package redis provides the Redis client, a JSON cache over it and a
// read-through cache in front of the treatment record store.
package redis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/TreatIQ-Intelligence/internal/config"
	"github.com/turtacn/TreatIQ-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/TreatIQ-Intelligence/pkg/errors"
)

const (
	defaultPoolSize    = 10
	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 3 * time.Second
)

var (
	ErrClientClosed     = errors.New(errors.ErrCodeCacheError, "redis client is closed")
	ErrConnectionFailed = errors.New(errors.ErrCodeStoreUnavailable, "redis connection failed")
)

// Client is the subset of go-redis the catalog cache needs.  Commands issued
// after Close fail with ErrClientClosed instead of reaching the pool.
type Client struct {
	rdb    redis.UniversalClient
	log    logging.Logger
	closed atomic.Bool
}

// NewClient dials the standalone server in cfg and verifies it answers PING
// within the dial timeout.
func NewClient(ctx context.Context, cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	opts := clientOptions(cfg)
	c := newClientWithRDB(redis.NewClient(opts), log)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := c.rdb.Ping(pingCtx).Err(); err != nil {
		_ = c.rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err).WithDetail(opts.Addr)
	}
	c.log.Info("redis connected", logging.String("addr", opts.Addr), logging.Int("db", opts.DB))
	return c, nil
}

func newClientWithRDB(rdb redis.UniversalClient, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{rdb: rdb, log: log.Named("redis")}
}

func clientOptions(cfg config.RedisConfig) *redis.Options {
	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = defaultPoolSize
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultIOTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultIOTimeout
	}
	return opts
}

// failed returns cmd already carrying ErrClientClosed.
func failed[C interface{ SetErr(error) }](cmd C) C {
	cmd.SetErr(ErrClientClosed)
	return cmd
}

func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// HealthCheck backs the readiness probe.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "redis health check failed")
	}
	return nil
}

// Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		c.log.Error("redis close failed", logging.Err(err))
		return err
	}
	c.log.Info("redis closed")
	return nil
}

// PoolStats reports connection pool usage.
func (c *Client) PoolStats() *redis.PoolStats {
	return c.rdb.PoolStats()
}

func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	if c.closed.Load() {
		return failed(redis.NewStringCmd(ctx))
	}
	return c.rdb.Get(ctx, key)
}

func (c *Client) MGet(ctx context.Context, keys ...string) *redis.SliceCmd {
	if c.closed.Load() {
		return failed(redis.NewSliceCmd(ctx))
	}
	return c.rdb.MGet(ctx, keys...)
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	if c.closed.Load() {
		return failed(redis.NewStatusCmd(ctx))
	}
	return c.rdb.Set(ctx, key, value, ttl)
}

func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if c.closed.Load() {
		return failed(redis.NewIntCmd(ctx))
	}
	return c.rdb.Del(ctx, keys...)
}

func (c *Client) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	if c.closed.Load() {
		return failed(redis.NewScanCmd(ctx, nil))
	}
	return c.rdb.Scan(ctx, cursor, match, count)
}

//Personal.AI order the ending
