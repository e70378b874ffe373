package nessie

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Kamiltczarnik/Lira/cache"
	"github.com/Kamiltczarnik/Lira/models"
)

const profileKeyPrefix = "profile:view:"

// CachedRecords puts a read-through profile cache in front of another Records.
// Login and Signup always go to the wrapped service.
type CachedRecords struct {
	next  Records
	cache *cache.ViewCache[models.CustomerProfile]
}

// NewCachedRecords wraps next with a profile cache.
func NewCachedRecords(next Records, profiles *cache.ViewCache[models.CustomerProfile]) *CachedRecords {
	return &CachedRecords{next: next, cache: profiles}
}

// Login passes through to the wrapped service.
func (c *CachedRecords) Login(ctx context.Context, username string) (string, error) {
	return c.next.Login(ctx, username)
}

// Profile serves from the cache and fills it on a miss. Errors are never cached.
func (c *CachedRecords) Profile(ctx context.Context, customerID string) (*models.CustomerProfile, error) {
	if profile, ok := c.cache.Get(ctx, customerID); ok {
		return profile, nil
	}

	profile, err := c.next.Profile(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, customerID, profile)
	return profile, nil
}

// Refresh drops any cached copy of the profile and reads it again from the wrapped service.
func (c *CachedRecords) Refresh(ctx context.Context, customerID string) (*models.CustomerProfile, error) {
	c.cache.Delete(ctx, customerID)
	return c.Profile(ctx, customerID)
}

// Signup passes through to the wrapped service.
func (c *CachedRecords) Signup(ctx context.Context, signup models.Signup) (*models.SignupResult, error) {
	return c.next.Signup(ctx, signup)
}

// ProfileCache builds the ViewCache CachedRecords expects.
func ProfileCache(client redis.Cmdable, ttl time.Duration, log logrus.FieldLogger) *cache.ViewCache[models.CustomerProfile] {
	return cache.NewViewCache[models.CustomerProfile](client, profileKeyPrefix, ttl, log)
}
