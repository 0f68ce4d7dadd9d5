package pagination

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Strategy selects how many page requests may be in flight at once.
type Strategy string

const (
	// StrategySequential fetches one page at a time.
	StrategySequential Strategy = "sequential"

	// StrategyBounded fetches up to MaxConcurrency pages at a time.
	StrategyBounded Strategy = "bounded"

	// StrategyUnbounded fetches every page at once.
	StrategyUnbounded Strategy = "unbounded"
)

var (
	// ErrUnknownStrategy is returned for strategy names other than sequential, bounded or unbounded.
	ErrUnknownStrategy = errors.New("unknown fetch strategy")

	// ErrInvalidRange is returned when the last page index is negative.
	ErrInvalidRange = errors.New("last page must be >= 0")
)

// ParseStrategy converts a configuration string to a Strategy.
// An empty string selects StrategyBounded.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(StrategyBounded):
		return StrategyBounded, nil
	case string(StrategySequential):
		return StrategySequential, nil
	case string(StrategyUnbounded):
		return StrategyUnbounded, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Config holds batch fetcher configuration
type Config struct {
	// Strategy selects the concurrency model
	Strategy Strategy
	// MaxConcurrency is the maximum number of parallel requests for StrategyBounded
	// Recommendation: 10 workers keeps the listings API responsive
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration for the listings API
func DefaultConfig() Config {
	return Config{
		Strategy:       StrategyBounded,
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

// workers returns the pool size used to fetch total pages.
func (c Config) workers(total int) int {
	n := total
	switch c.Strategy {
	case StrategySequential:
		n = 1
	case StrategyBounded:
		if c.MaxConcurrency < n {
			n = c.MaxConcurrency
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// FetchFunc fetches a single page by its zero-based index.
type FetchFunc[T any] func(ctx context.Context, page int) (T, error)

// PageResult represents the result of fetching a single page
type PageResult[T any] struct {
	PageNumber int
	Data       T
	Error      error
}

// BatchFetcher handles parallel fetching of multiple pages
type BatchFetcher[T any] struct {
	fetch  FetchFunc[T]
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetch FetchFunc[T], config Config) *BatchFetcher[T] {
	if config.Strategy == "" {
		config.Strategy = StrategyBounded
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher[T]{
		fetch:  fetch,
		config: config,
	}
}

// Config returns the effective configuration after defaults were applied.
func (bf *BatchFetcher[T]) Config() Config {
	return bf.config
}

// FetchPages fetches pages 0 through lastPage (inclusive) and passes every
// result to collect. collect is only ever called from the calling goroutine,
// so it may mutate state without locking.
//
// If collect returns an error, outstanding fetches are cancelled, the
// remaining workers are drained and that error is returned. If ctx is
// done when the last result arrives, ctx.Err() is returned even when every
// page was delivered, since results of a cancelled run may be failures
// caused by the cancellation itself.
func (bf *BatchFetcher[T]) FetchPages(ctx context.Context, lastPage int, collect func(PageResult[T]) error) error {
	if lastPage < 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidRange, lastPage)
	}
	start := time.Now()
	total := lastPage + 1
	workers := bf.config.workers(total)

	log.Debug().
		Str("strategy", string(bf.config.Strategy)).
		Int("total_pages", total).
		Int("workers", workers).
		Msg("Starting page fetch")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Queue every page up front; the channel is sized to never block
	pageQueue := make(chan int, total)
	for page := 0; page <= lastPage; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	pageResults := make(chan PageResult[T], workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(runCtx, pageQueue, pageResults, &wg, i)
	}

	// Close results channel when all workers done
	go func() {
		wg.Wait()
		close(pageResults)
	}()

	var collectErr error
	delivered := 0
	for result := range pageResults {
		if collectErr != nil {
			// Aborted: drain so workers can exit
			continue
		}
		if err := collect(result); err != nil {
			collectErr = err
			cancel()
			continue
		}
		delivered++

		if delivered%50 == 0 {
			log.Debug().
				Int("delivered", delivered).
				Int("total", total).
				Float64("progress_pct", float64(delivered)/float64(total)*100).
				Msg("Fetch progress")
		}
	}

	if collectErr != nil {
		log.Debug().
			Err(collectErr).
			Int("delivered", delivered).
			Int("total_pages", total).
			Msg("Page fetch aborted")
		return collectErr
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("fetch cancelled after %d/%d pages: %w", delivered, total, err)
	}

	log.Debug().
		Int("pages", delivered).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return nil
}

// worker processes pages from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageQueue <-chan int, results chan<- PageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		// Check context cancellation
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		// Fetch page with timeout
		pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		data, err := bf.fetch(pageCtx, pageNum)
		cancel()

		select {
		case results <- PageResult[T]{
			PageNumber: pageNum,
			Data:       data,
			Error:      err,
		}:
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled after fetch)")
			return
		}

		pagesProcessed++
	}

	if pagesProcessed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}
