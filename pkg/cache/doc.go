// Package cache stores listings API pages in Redis.
//
// Pages are cached under a deterministic key built from the endpoint and its
// query parameters (the skip page index included), so repeated report runs
// within the freshness window do not hit the upstream API.
//
// - Freshness from the Expires header or Cache-Control max-age, falling back to a default TTL
// - Stale entries are retained for revalidation with If-None-Match / If-Modified-Since
// - A 304 Not Modified response refreshes the entry without re-downloading the page
// - Prometheus metrics for hits, misses, revalidations and errors
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient,
//		cache.WithDefaultTTL(5*time.Minute),
//		cache.WithStaleRetention(time.Hour),
//	)
//
//	key := cache.PageKey{
//		Endpoint:    "api.example.com/listings/list-agencies",
//		QueryParams: url.Values{"skip": []string{"3"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	switch {
//	case errors.Is(err, cache.ErrCacheMiss):
//		// fetch from upstream, then manager.Set
//	case entry.IsExpired():
//		cache.AddConditionalHeaders(req, entry)
//	default:
//		// serve entry.Data
//	}
//
// # Metrics
//
//   - listings_cache_hits_total{freshness} - Cache hits (fresh, stale)
//   - listings_cache_misses_total - Cache misses
//   - listings_cache_errors_total{operation} - Cache operation errors
//   - listings_conditional_requests_total - Revalidation requests sent
//   - listings_304_responses_total - Revalidations answered with 304
package cache
