package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boiler360/storefront-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

const keyNamespace = "storefront"

// incrWithTTL bumps a counter and arms its expiry atomically on first use.
// A plain INCR+EXPIRE pair can leave an immortal key when the process dies
// between the two commands.
var incrWithTTL = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 and tonumber(ARGV[1]) > 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// Client is the storefront's Redis handle. It currently backs the auth
// rate-limit counters; keys are namespaced so the instance can be shared.
type Client struct {
	rdb *redis.Client
}

// New connects using either a redis:// URL or discrete address fields and
// verifies the connection before handing the client out.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password, DB: cfg.DB}
	default:
		return nil, errors.New("redis url or address is required")
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// IncrWithTTL increments the namespaced counter, arming ttl when the key is
// created. Returns the post-increment count.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if c == nil || c.rdb == nil {
		return 0, errors.New("redis client not initialized")
	}
	namespaced := keyNamespace + ":" + key
	return incrWithTTL.Run(ctx, c.rdb, []string{namespaced}, ttl.Milliseconds()).Int64()
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return errors.New("redis client not initialized")
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
