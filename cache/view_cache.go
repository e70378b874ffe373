package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ViewCache stores JSON-encoded values of type T in redis under a key prefix.
// A zero ttl keeps keys until they are deleted.
type ViewCache[T any] struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewViewCache creates a ViewCache storing values under prefix.
func NewViewCache[T any](client redis.Cmdable, prefix string, ttl time.Duration, log logrus.FieldLogger) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl, log: log}
}

// Get returns (nil, false) on a miss, a redis error or a value that no longer decodes.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).WithField("key", c.prefix+key).Warn("ViewCache.Get.Error")
		}
		return nil, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.WithError(err).WithField("key", c.prefix+key).Warn("ViewCache.Get.Decode")
		return nil, false
	}
	return &v, true
}

// Set never fails the caller; write errors are logged.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.WithError(err).WithField("key", c.prefix+key).Warn("ViewCache.Set.Encode")
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", c.prefix+key).Warn("ViewCache.Set.Error")
	}
}

// Delete removes key; errors are logged, never returned.
func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.log.WithError(err).WithField("key", c.prefix+key).Warn("ViewCache.Delete.Error")
	}
}
