// Package cache keeps recently read companies in Redis. Every failure is
// treated as a miss; a circuit breaker stops calling Redis while it is down.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"cnpjd/internal/company/models"
	id "cnpjd/pkg/domain"
	"cnpjd/pkg/platform/circuit"
)

const keyPrefix = "cnpjd:company:"

// RedisCache stores companies as JSON under their short-form CNPJ.
type RedisCache struct {
	client  redis.Cmdable
	ttl     time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*RedisCache)

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *RedisCache) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *RedisCache) {
		c.logger = logger
	}
}

func New(client redis.Cmdable, ttl time.Duration, opts ...Option) *RedisCache {
	c := &RedisCache{
		client:  client,
		ttl:     ttl,
		breaker: circuit.New("company-cache"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func key(cnpj id.CNPJ) string {
	return keyPrefix + cnpj.Short()
}

// Get returns the cached company, or false on a miss or any cache failure.
func (c *RedisCache) Get(ctx context.Context, cnpj id.CNPJ) (*models.Company, bool) {
	if !c.breaker.Allow() {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(cnpj)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.recordSuccess()
		return nil, false
	}
	if err != nil {
		c.recordFailure(ctx, "get", err)
		return nil, false
	}
	c.recordSuccess()
	return c.decode(ctx, raw)
}

// GetMany fetches every cnpj in one round trip. Misses are absent from the map.
func (c *RedisCache) GetMany(ctx context.Context, cnpjs []id.CNPJ) map[id.CNPJ]*models.Company {
	out := make(map[id.CNPJ]*models.Company, len(cnpjs))
	if len(cnpjs) == 0 || !c.breaker.Allow() {
		return out
	}
	keys := make([]string, len(cnpjs))
	for i, cnpj := range cnpjs {
		keys[i] = key(cnpj)
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.recordFailure(ctx, "mget", err)
		return out
	}
	c.recordSuccess()
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if company, ok := c.decode(ctx, []byte(s)); ok {
			out[cnpjs[i]] = company
		}
	}
	return out
}

// Set caches company for the configured TTL. Failures are logged, not returned.
func (c *RedisCache) Set(ctx context.Context, company *models.Company) {
	if !c.breaker.Allow() {
		return
	}
	raw, err := json.Marshal(company)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to encode company for cache", "error", err)
		return
	}
	if err := c.client.Set(ctx, key(company.CNPJ), raw, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, "set", err)
		return
	}
	c.recordSuccess()
}

func (c *RedisCache) decode(ctx context.Context, raw []byte) (*models.Company, bool) {
	var company models.Company
	if err := json.Unmarshal(raw, &company); err != nil {
		c.logger.WarnContext(ctx, "discarding undecodable cache entry", "error", err)
		return nil, false
	}
	return &company, true
}

func (c *RedisCache) recordFailure(ctx context.Context, op string, err error) {
	_, change := c.breaker.RecordFailure()
	if change.Opened {
		c.logger.WarnContext(ctx, "company cache circuit opened",
			"breaker", c.breaker.Name(),
			"op", op,
			"error", err,
		)
		return
	}
	c.logger.DebugContext(ctx, "company cache error", "op", op, "error", err)
}

func (c *RedisCache) recordSuccess() {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("company cache circuit closed", "breaker", c.breaker.Name())
	}
}
