package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultRedisChannel = "blockify:messages"
	DefaultTimeout      = 5 * time.Second
	DefaultRetries      = 3
)

// RedisConfig configures the Redis publisher
type RedisConfig struct {
	// URL format: redis://[:password@]host:port[/db]
	URL      string
	Channel  string
	Encoding Encoding
	Timeout  time.Duration
	Retries  int
}

// Redis publishes events with PUBLISH, retrying with exponential backoff
type Redis struct {
	config RedisConfig
	client *goredis.Client
}

// NewRedis creates a Redis publisher. The URL is required.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis publisher requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis publisher: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultRedisChannel
	}
	if cfg.Encoding == "" {
		cfg.Encoding = EncodingJSON
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Redis{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Publish sends ev to the configured channel
func (r *Redis) Publish(ctx context.Context, ev *Event) error {
	body, err := Encode(r.config.Encoding, ev)
	if err != nil {
		return fmt.Errorf("redis: encode event: %w", err)
	}

	var lastErr error
	attempts := 1 + r.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}

		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("redis: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		publishCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		lastErr = r.client.Publish(publishCtx, r.config.Channel, body).Err()
		cancel()

		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// Close releases the client
func (r *Redis) Close() error {
	return r.client.Close()
}

var _ Publisher = (*Redis)(nil)
