package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultPoolSize = 10
	// commandTimeout bounds the limiter and lock round trips that sit on the
	// request path.
	commandTimeout = time.Second
)

// ErrDisabled is returned by Ping when the service runs without Redis.
var ErrDisabled = errors.New("redis disabled")

// Config captures the settings for the shared Redis used by rate limits and
// scheduler job locks.
type Config struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	ClientName string // shows up in CLIENT LIST, e.g. "auth-service"
	Timeout    time.Duration
}

func options(cfg Config) *redis.Options {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pool := cfg.PoolSize
	if pool <= 0 {
		pool = defaultPoolSize
	}
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   cfg.ClientName,
		PoolSize:     pool,
		DialTimeout:  timeout,
		ReadTimeout:  commandTimeout,
		WriteTimeout: commandTimeout,
	}
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts := options(cfg)
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	if err := Ping(pingCtx, client); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Ping checks the connection. A nil client reports ErrDisabled.
func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return ErrDisabled
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
