// Package report builds agency summary reports from a paging listings source.
//
// A report counts agency service entries per region and service group. Each
// record returned by the source is assigned to exactly one region (the first
// of its locations whose country code is in the region catalog, or the
// OTHERS catch-all) and every one of its service entries increments the
// matching service group, or the others catch-all.
//
// # Basic Usage
//
//	gen, err := report.NewGenerator(fetcher, report.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	summaries, err := gen.Generate(ctx)
//
// # Page Failures
//
// Config.OnPageError selects what a failed page fetch does to the run:
//
//   - OnPageErrorAbort: cancel outstanding fetches and return a *PageError
//   - OnPageErrorSkip: log the failure, leave the counts untouched, continue
//
// In both cases counts from a failed page are never partially applied.
//
// # Concurrency
//
// Pages are fetched through pagination.BatchFetcher. Records are classified
// on the fetching goroutine into a per-page tally, and tallies are merged into
// the run's Report by a single collector, so the result is independent of
// page completion order.
package report
