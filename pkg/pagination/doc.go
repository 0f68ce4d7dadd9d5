// Package pagination provides parallel fetching of numbered pages from a
// paging source.
//
// The listings API is addressed by a zero-based page index (the skip query
// parameter) and carries no total page count, so the caller supplies the last
// page to fetch. Three strategies share one worker-pool implementation:
//
//   - sequential: one worker, pages fetched in order
//   - bounded: MaxConcurrency workers (default 10)
//   - unbounded: one worker per page
//
// Example usage:
//
//	fetcher := pagination.NewBatchFetcher(fetchPage, pagination.DefaultConfig())
//	err := fetcher.FetchPages(ctx, 12, func(res pagination.PageResult[[]byte]) error {
//		// runs on the calling goroutine, one result at a time
//		return nil
//	})
//
// The batch fetcher:
//   - Queues pages 0..lastPage
//   - Spawns the worker pool for the configured strategy
//   - Hands every result, failed or not, to a single collector
//   - Cancels in-flight fetches when the collector returns an error
package pagination
