package gamma

import (
	"context"
	"time"

	"github.com/polytrade/polybot/pkg/cache"
	"github.com/polytrade/polybot/pkg/types"
)

// BookFetcher fetches order books by CLOB token id.
type BookFetcher interface {
	FetchOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error)
}

// CachedClient wraps a BookFetcher with a short-TTL cache so strategies
// scanning the same market within one cycle reuse the fetched book.
type CachedClient struct {
	inner BookFetcher
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedClient creates a caching wrapper around a book fetcher.
func NewCachedClient(inner BookFetcher, c cache.Cache, ttl time.Duration) *CachedClient {
	return &CachedClient{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

// FetchOrderBook returns a cached book when fresh, otherwise fetches and
// caches it.
func (c *CachedClient) FetchOrderBook(ctx context.Context, tokenID string) (*types.OrderBook, error) {
	key := "book:" + tokenID

	if cached, found := c.cache.Get(key); found {
		if book, ok := cached.(*types.OrderBook); ok {
			return book, nil
		}
	}

	book, err := c.inner.FetchOrderBook(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, book, c.ttl)

	return book, nil
}
