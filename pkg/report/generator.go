package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/agency-report/pkg/logging"
	"github.com/Sternrassler/agency-report/pkg/pagination"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OnPageError selects how a failed page fetch affects a run.
type OnPageError string

const (
	// OnPageErrorAbort cancels the run and returns the failure.
	OnPageErrorAbort OnPageError = "abort"

	// OnPageErrorSkip drops the failed page and continues.
	OnPageErrorSkip OnPageError = "skip"
)

// ParseOnPageError converts a configuration string to an OnPageError.
// An empty string selects OnPageErrorAbort.
func ParseOnPageError(s string) (OnPageError, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OnPageErrorAbort):
		return OnPageErrorAbort, nil
	case string(OnPageErrorSkip), "skipandcontinue", "skip_and_continue":
		return OnPageErrorSkip, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// PageFetcher returns the records of one page of the listings source.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]Record, error)
}

// FetchFunc adapts a function to PageFetcher.
type FetchFunc func(ctx context.Context, page int) ([]Record, error)

// FetchPage implements PageFetcher.
func (f FetchFunc) FetchPage(ctx context.Context, page int) ([]Record, error) {
	return f(ctx, page)
}

// Config holds the generator configuration.
type Config struct {
	// Regions is the ordered region catalog; OTHERS is appended if absent
	Regions []string

	// ServiceGroups is the ordered service-group catalog; others is appended if absent
	ServiceGroups []string

	// PageBound is the last page index fetched (pages 0..PageBound)
	PageBound int

	// OnPageError selects abort or skip on page fetch failure
	OnPageError OnPageError

	// Fetch configures the page fetch strategy and concurrency
	Fetch pagination.Config
}

// DefaultConfig returns the default report configuration.
func DefaultConfig() Config {
	return Config{
		Regions:       DefaultRegions(),
		ServiceGroups: DefaultServiceGroups(),
		PageBound:     12,
		OnPageError:   OnPageErrorAbort,
		Fetch:         pagination.DefaultConfig(),
	}
}

// Validate checks the configuration after defaults were applied.
func (c Config) Validate() error {
	if c.PageBound < 0 {
		return fmt.Errorf("%w (got %d)", ErrInvalidPageBound, c.PageBound)
	}
	if _, err := ParseOnPageError(string(c.OnPageError)); err != nil {
		return err
	}
	if _, err := pagination.ParseStrategy(string(c.Fetch.Strategy)); err != nil {
		return err
	}
	return nil
}

// withDefaults fills empty catalogs and policies from DefaultConfig.
func (c Config) withDefaults() Config {
	if len(c.Regions) == 0 {
		c.Regions = DefaultRegions()
	}
	if len(c.ServiceGroups) == 0 {
		c.ServiceGroups = DefaultServiceGroups()
	}
	if c.OnPageError == "" {
		c.OnPageError = OnPageErrorAbort
	}
	if c.Fetch.Strategy == "" {
		c.Fetch.Strategy = pagination.StrategyBounded
	}
	return c
}

// Result is the outcome of a successful run.
type Result struct {
	RunID        string
	Report       *Report
	PagesFetched int
	SkippedPages []int
	Duration     time.Duration
}

// Summaries returns the run's report in catalog order.
func (r *Result) Summaries() []RegionSummary {
	return r.Report.Summaries()
}

// Generator fetches listing pages and accumulates them into a Report.
type Generator struct {
	fetcher PageFetcher
	config  Config
	regions Catalog
	groups  Catalog
	logger  zerolog.Logger
}

// NewGenerator creates a generator. Empty catalogs fall back to the defaults.
func NewGenerator(fetcher PageFetcher, cfg Config) (*Generator, error) {
	if fetcher == nil {
		return nil, ErrNilFetcher
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, _ := ParseOnPageError(string(cfg.OnPageError))
	cfg.OnPageError = policy

	return &Generator{
		fetcher: fetcher,
		config:  cfg,
		regions: NewRegionCatalog(cfg.Regions),
		groups:  NewServiceCatalog(cfg.ServiceGroups),
		logger:  logging.NewLogger("report-generator"),
	}, nil
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.config
}

// Generate runs the generator and returns the report summaries.
func (g *Generator) Generate(ctx context.Context) ([]RegionSummary, error) {
	res, err := g.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res.Summaries(), nil
}

// Run fetches pages 0..PageBound, classifies every record and merges the
// per-page tallies. No partial report is returned on failure.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:  uuid.NewString(),
		Report: NewReport(g.regions, g.groups),
	}
	logger := g.logger.With().Str("run_id", res.RunID).Logger()

	logger.Info().
		Strs("regions", g.regions.Names()).
		Strs("service_groups", g.groups.Names()).
		Int("page_bound", g.config.PageBound).
		Str("on_page_error", string(g.config.OnPageError)).
		Str("strategy", string(g.config.Fetch.Strategy)).
		Msg("Report run started")

	batch := pagination.NewBatchFetcher(g.fetchTally, g.config.Fetch)
	err := batch.FetchPages(ctx, g.config.PageBound, func(page pagination.PageResult[*Report]) error {
		if page.Error != nil {
			if err := ctx.Err(); err != nil || errors.Is(page.Error, context.Canceled) {
				// A cancelled run is never a skipped page
				PagesTotal.WithLabelValues("failed").Inc()
				if err == nil {
					err = page.Error
				}
				return fmt.Errorf("run cancelled at page %d: %w", page.PageNumber, err)
			}

			logger.Warn().
				Err(page.Error).
				Int("page", page.PageNumber).
				Msg("Page fetch failed")

			if g.config.OnPageError == OnPageErrorAbort {
				PagesTotal.WithLabelValues("failed").Inc()
				return &PageError{Page: page.PageNumber, Err: page.Error}
			}
			PagesTotal.WithLabelValues("skipped").Inc()
			res.SkippedPages = append(res.SkippedPages, page.PageNumber)
			return nil
		}

		res.Report.Merge(page.Data)
		res.PagesFetched++
		PagesTotal.WithLabelValues("ok").Inc()
		return nil
	})

	if err == nil {
		err = ctx.Err()
	}

	res.Duration = time.Since(start)
	RunDuration.Observe(res.Duration.Seconds())

	if err != nil {
		RunsTotal.WithLabelValues("failed").Inc()
		logger.Error().
			Err(err).
			Dur("duration", res.Duration).
			Msg("Report run failed")
		return nil, err
	}

	RunsTotal.WithLabelValues("success").Inc()
	RecordsTotal.Add(float64(res.Report.Records()))
	logger.Info().
		Int("pages_fetched", res.PagesFetched).
		Ints("skipped_pages", res.SkippedPages).
		Int("records", res.Report.Records()).
		Dur("duration", res.Duration).
		Msg("Report run finished")

	return res, nil
}

// fetchTally fetches one page and classifies it into a page-local report.
func (g *Generator) fetchTally(ctx context.Context, page int) (*Report, error) {
	records, err := g.fetcher.FetchPage(ctx, page)
	if err != nil {
		return nil, err
	}
	tally := NewReport(g.regions, g.groups)
	tally.AddRecords(records)

	g.logger.Debug().
		Int("page", page).
		Int("records", len(records)).
		Msg("Page classified")
	return tally, nil
}
