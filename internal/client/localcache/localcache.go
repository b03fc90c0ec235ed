// Package localcache is the device-local snapshot of every collection and
// the user profile. Reads and writes are synchronous and never fail: missing
// or corrupt entries read as empty values, and failed writes are logged and
// leave the previous value in place.
package localcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/repositories/cache"
	"github.com/dmitrijs2005/mediminder/internal/logging"
)

const opTimeout = 5 * time.Second

type Cache struct {
	repo   cache.Repository
	logger logging.Logger
}

func New(repo cache.Repository, logger logging.Logger) *Cache {
	return &Cache{repo: repo, logger: logger.With("component", "localcache")}
}

// Read decodes the value stored under key into dst. It reports false when
// the key is missing or cannot be decoded; dst is left untouched then.
func (c *Cache) Read(key string, dst any) bool {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := c.repo.Get(ctx, key)
	if err != nil {
		c.logger.Error(ctx, "cache read failed", "key", key, "error", err)
		return false
	}
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn(ctx, "corrupt cache entry ignored", "key", key, "error", err)
		return false
	}
	return true
}

// Write stores v under key as JSON.
func (c *Cache) Write(key string, v any) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Error(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.repo.Set(ctx, key, raw); err != nil {
		c.logger.Error(ctx, "cache write failed", "key", key, "error", err)
	}
}

// ReadCollection returns the stored records of col, or an empty slice.
func (c *Cache) ReadCollection(col models.Collection) []json.RawMessage {
	var items []json.RawMessage
	if !c.Read(col.CacheKey(), &items) || items == nil {
		return []json.RawMessage{}
	}
	return items
}

func (c *Cache) WriteCollection(col models.Collection, items []json.RawMessage) {
	if items == nil {
		items = []json.RawMessage{}
	}
	c.Write(col.CacheKey(), items)
}

// ReadProfile returns the stored profile, or the default placeholder.
func (c *Cache) ReadProfile() models.UserProfile {
	var p models.UserProfile
	if !c.Read(models.UserKey, &p) {
		return models.DefaultProfile()
	}
	return p
}

func (c *Cache) WriteProfile(p models.UserProfile) {
	c.Write(models.UserKey, p)
}

// Reset drops every stored key, so collections read as empty and the
// profile as the default placeholder. When the store cannot be cleared the
// keys are overwritten one by one instead.
func (c *Cache) Reset() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	err := c.repo.Clear(ctx)
	if err == nil {
		return
	}
	c.logger.Error(ctx, "cache clear failed", "error", err)
	for _, col := range models.AllCollections() {
		c.WriteCollection(col, nil)
	}
	c.WriteProfile(models.DefaultProfile())
}
