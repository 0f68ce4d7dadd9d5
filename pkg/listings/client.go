// Package listings fetches agency pages from the listings API.
//
// A page is requested with GET <endpoint>?skip=<page>. The response is a
// JSON array whose first element holds the page's agency records. Non-2xx
// statuses, transport failures and malformed payloads surface as
// *FetchError; server and network failures are retried with exponential
// backoff. With a cache.Manager configured, pages are served from Redis
// while fresh and revalidated with conditional requests once stale.
package listings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/agency-report/pkg/cache"
	"github.com/Sternrassler/agency-report/pkg/logging"
	"github.com/Sternrassler/agency-report/pkg/report"
	"github.com/rs/zerolog"
)

// DefaultEndpoint is the public listings endpoint.
const DefaultEndpoint = "https://api.app.studiospace.com/listings/list-agencies"

// Client fetches listings pages. It satisfies report.PageFetcher.
type Client struct {
	httpClient *http.Client
	endpoint   *url.URL
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Endpoint is the listings URL; the skip parameter is added per page
	Endpoint string

	// UserAgent header sent with every request
	UserAgent string

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Retry controls backoff for transient failures
	Retry RetryConfig

	// Cache is optional; nil disables page caching
	Cache *cache.Manager
}

// DefaultConfig returns a default configuration for the public endpoint.
func DefaultConfig() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		UserAgent: "agency-report/0.1.0",
		Timeout:   30 * time.Second,
		Retry:     DefaultRetryConfig(),
	}
}

// New creates a new listings client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	endpoint, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("endpoint must be an http(s) URL (got %q)", cfg.Endpoint)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.Retry = cfg.Retry.withDefaults()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint: endpoint,
		cache:    cfg.Cache,
		config:   cfg,
		logger:   logging.NewLogger("listings-client"),
	}, nil
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// pageURL returns the endpoint with skip set to page.
func (c *Client) pageURL(page int) *url.URL {
	u := *c.endpoint
	q := u.Query()
	q.Set("skip", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return &u
}

// FetchPage returns the agency records of one page.
func (c *Client) FetchPage(ctx context.Context, page int) ([]report.Record, error) {
	if page < 0 {
		return nil, &FetchError{Page: page, Class: ErrorClassClient, Message: "negative page index"}
	}

	startTime := time.Now()
	defer func() {
		requestDuration.Observe(time.Since(startTime).Seconds())
	}()

	u := c.pageURL(page)
	key := cache.KeyForURL(u)
	logger := c.logger.With().Int("page", page).Logger()

	// Step 1: Check Cache
	var cached *cache.PageEntry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil && !entry.IsExpired():
			records, decodeErr := decodePage(page, entry.Data)
			if decodeErr == nil {
				logger.Debug().Int("records", len(records)).Msg("Serving page from cache")
				return records, nil
			}
			logger.Warn().Err(decodeErr).Msg("Dropping undecodable cache entry")
			_ = c.cache.Delete(ctx, key)
		case err == nil:
			cached = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			logger.Warn().Err(err).Msg("Cache get error")
		}
	}

	// Step 2: Fetch with retry
	var (
		data        []byte
		fresh       *cache.PageEntry
		notModified bool
		respHeader  http.Header
	)
	err := retryWithBackoff(ctx, c.config.Retry, func() error {
		var attemptErr error
		data, fresh, notModified, respHeader, attemptErr = c.do(ctx, page, u, cached)
		return attemptErr
	}, classOf)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			// The page deadline expired; report it like any other slow upstream
			err = &FetchError{
				Page:    page,
				Class:   ErrorClassNetwork,
				Message: "page deadline exceeded",
				Err:     err,
			}
		}
		if cls := classOf(err); cls != "" {
			errorsTotal.WithLabelValues(string(cls)).Inc()
		}
		return nil, err
	}

	// Step 3: 304 Not Modified
	if notModified {
		logger.Debug().Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()
		newExpires := cache.FreshUntil(respHeader, c.cache.DefaultTTL())
		if err := c.cache.Refresh(ctx, key, cached, newExpires); err != nil {
			logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		data = cached.Data
	}

	records, err := decodePage(page, data)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		logger.Warn().Err(err).Msg("Malformed listings page")
		return nil, err
	}

	// Step 4: Update Cache on success
	if fresh != nil {
		if err := c.cache.Set(ctx, key, fresh); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache page")
		} else {
			logger.Debug().Dur("ttl", fresh.TTL()).Msg("Cached page")
		}
	}

	logger.Debug().Int("records", len(records)).Msg("Fetched listings page")
	return records, nil
}

// do performs one HTTP attempt. On 200 it returns the body and, when caching
// is enabled, the entry to store. A 304 against cached reports notModified.
func (c *Client) do(ctx context.Context, page int, u *url.URL, cached *cache.PageEntry) ([]byte, *cache.PageEntry, bool, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, false, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	if cached != nil {
		cache.AddConditionalHeaders(req, cached)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Int("page", page).
			Str("etag", cached.ETag).
			Msg("Making conditional request")
	}

	c.logger.Debug().
		Int("page", page).
		Str("url", u.String()).
		Msg("Executing listings request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation is not a page failure and is never retried
			return nil, nil, false, nil, ctx.Err()
		}
		requestsTotal.WithLabelValues("network_error").Inc()
		c.logger.Warn().Err(err).Int("page", page).Msg("HTTP request failed")
		return nil, nil, false, nil, &FetchError{
			Page:    page,
			Class:   ErrorClassNetwork,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		return nil, nil, true, resp.Header, nil
	}

	if class := classifyStatus(resp.StatusCode); class != "" {
		c.logger.Warn().
			Int("page", page).
			Int("status", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Listings request error")
		return nil, nil, false, nil, &FetchError{
			Page:       page,
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp, c.cache.DefaultTTL())
		if err != nil {
			return nil, nil, false, nil, &FetchError{
				Page:       page,
				StatusCode: resp.StatusCode,
				Class:      ErrorClassNetwork,
				Message:    "read body",
				Err:        err,
			}
		}
		return entry.Data, entry, false, resp.Header, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, false, nil, &FetchError{
			Page:       page,
			StatusCode: resp.StatusCode,
			Class:      ErrorClassNetwork,
			Message:    "read body",
			Err:        err,
		}
	}
	return body, nil, false, resp.Header, nil
}

// decodePage extracts the records from a page payload: a JSON array whose
// first element is the record list. A null first element is an empty page.
func decodePage(page int, data []byte) ([]report.Record, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &FetchError{Page: page, Class: ErrorClassDecode, Message: "payload is not a JSON array", Err: err}
	}
	if len(top) == 0 {
		return nil, &FetchError{Page: page, Class: ErrorClassDecode, Message: "payload array is empty"}
	}

	first := bytes.TrimSpace(top[0])
	if bytes.Equal(first, []byte("null")) {
		return []report.Record{}, nil
	}
	if len(first) == 0 || first[0] != '[' {
		return nil, &FetchError{Page: page, Class: ErrorClassDecode, Message: "first element is not a record list"}
	}

	var records []report.Record
	if err := json.Unmarshal(first, &records); err != nil {
		return nil, &FetchError{Page: page, Class: ErrorClassDecode, Message: "decode records", Err: err}
	}
	return records, nil
}
