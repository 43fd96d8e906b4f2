// Package httputil downloads remote resources for image directives.
//
// # Overview
//
//   - [Client]: GET with response caching, size limits, and retry
//   - [Retry]: automatic retry with exponential backoff
//
// # Caching
//
// [Client] stores response bodies in any [cache.Cache] (file cache for the
// CLI, Redis for the server), keyed by namespace and URL:
//
//	c := httputil.NewClient(fileCache, "images", cache.TTLHTTP, nil)
//	data, err := c.Fetch(ctx, "https://example.com/logo.png")
//
// # Retry
//
// Transient failures are wrapped in [RetryableError] and retried:
//
//   - network errors and timeouts
//   - 5xx server errors
//   - 429 rate limit responses, honoring Retry-After
//
// 404 and other 4xx responses fail immediately.
//
// # Configuration
//
//   - Request timeout: 15 seconds ([Client.SetTimeout])
//   - Max body size: 20 MiB
//   - Max attempts: 3
//   - Base backoff: 1 second
package httputil
