package books

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	bookKeyPrefix = "book:"
	recentKey     = "books:recent"
	cacheTTL      = 5 * time.Minute
)

// Cache is a Redis-backed read-through cache for hot catalog reads.
// Every method is best effort: a Redis error counts as a miss.
type Cache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewCache wraps a Redis client.
func NewCache(client *redis.Client, log *zap.Logger) *Cache {
	return &Cache{client: client, log: log}
}

// GetBook returns a cached book and whether the lookup hit.
func (c *Cache) GetBook(ctx context.Context, bookID string) (*Book, bool) {
	raw, err := c.client.Get(ctx, bookKeyPrefix+bookID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("book cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var b Book
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, false
	}
	return &b, true
}

// SetBook stores a book under its id key.
func (c *Cache) SetBook(ctx context.Context, b *Book) {
	raw, err := json.Marshal(b)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, bookKeyPrefix+b.BookID, raw, cacheTTL).Err(); err != nil {
		c.log.Debug("book cache write failed", zap.Error(err))
	}
}

// GetRecent returns the cached recent listing and whether the lookup hit.
func (c *Cache) GetRecent(ctx context.Context) ([]Book, bool) {
	raw, err := c.client.Get(ctx, recentKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("recent cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var bs []Book
	if err := json.Unmarshal(raw, &bs); err != nil {
		return nil, false
	}
	return bs, true
}

// SetRecent stores the recent listing.
func (c *Cache) SetRecent(ctx context.Context, bs []Book) {
	raw, err := json.Marshal(bs)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, recentKey, raw, cacheTTL).Err(); err != nil {
		c.log.Debug("recent cache write failed", zap.Error(err))
	}
}

// Invalidate drops the book's entry and the recent listing after a write.
func (c *Cache) Invalidate(ctx context.Context, bookID string) {
	if err := c.client.Del(ctx, bookKeyPrefix+bookID, recentKey).Err(); err != nil {
		c.log.Debug("cache invalidation failed", zap.Error(err))
	}
}
