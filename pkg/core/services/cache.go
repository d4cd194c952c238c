package services

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jakechorley/parish-roster/pkg/core/model"
)

// PreviewCache keeps recent preview results per period. A nil cache caches nothing.
type PreviewCache struct {
	items *cache.Cache
}

// NewPreviewCache returns a cache whose entries expire after ttl, or nil when ttl <= 0
func NewPreviewCache(ttl time.Duration) *PreviewCache {
	if ttl <= 0 {
		return nil
	}
	return &PreviewCache{items: cache.New(ttl, 2*ttl)}
}

// Get returns the cached preview of a period
func (c *PreviewCache) Get(period model.Period) (*GenerateRosterResult, bool) {
	if c == nil {
		return nil, false
	}
	value, ok := c.items.Get(period.Key())
	if !ok {
		return nil, false
	}
	result, ok := value.(*GenerateRosterResult)
	return result, ok
}

// Set stores a preview with the default expiration
func (c *PreviewCache) Set(period model.Period, result *GenerateRosterResult) {
	if c == nil {
		return
	}
	c.items.SetDefault(period.Key(), result)
}

// Invalidate drops the cached preview of a period
func (c *PreviewCache) Invalidate(period model.Period) {
	if c == nil {
		return
	}
	c.items.Delete(period.Key())
}

// Flush drops every cached preview
func (c *PreviewCache) Flush() {
	if c == nil {
		return
	}
	c.items.Flush()
}
