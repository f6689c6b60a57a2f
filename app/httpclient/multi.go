package httpclient

import (
	"context"
	"sync"
)

// GetMulti fetches a set of URLs concurrently and returns a map of
// url -> FetchResult. The cache is bypassed entirely: batch discovery
// checks want live answers, not snapshots. A slow URL extends the
// total wall time up to its own timeout but does not block faster
// peers from completing.
func (c *Client) GetMulti(ctx context.Context, urls []string, opts Options) map[string]FetchResult {
	merged := c.merged(opts)
	merged.UseCache = false

	results := make(map[string]FetchResult, len(urls))
	seen := make(map[string]bool, len(urls))

	// Only the workers write results; dedup happens up front so the
	// map is never touched from two goroutines without the lock.
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, rawURL := range urls {
		if seen[rawURL] {
			continue
		}
		seen[rawURL] = true

		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			res := c.fetch(ctx, "GET", u, merged)
			mu.Lock()
			results[u] = res
			mu.Unlock()
		}(rawURL)
	}
	wg.Wait()

	return results
}
