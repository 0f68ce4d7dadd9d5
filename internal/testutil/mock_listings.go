// Package testutil provides testing utilities for the agency report packages.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PageResponse defines the behavior of the mock listings endpoint for one page.
type PageResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockListings is a configurable mock listings server. Pages are keyed by
// the skip query parameter; unknown pages return an empty page.
type MockListings struct {
	server *httptest.Server
	mu     sync.RWMutex
	pages  map[int]PageResponse

	// Tracking
	requestCount     int
	conditionalCount int
	inFlight         int
	maxInFlight      int
	requestedPages   map[int]int
	lastHeader       http.Header
}

// ListingsPath is the path served by the mock.
const ListingsPath = "/listings/list-agencies"

// NewMockListings creates and starts a mock listings server.
func NewMockListings() *MockListings {
	mock := &MockListings{
		pages:          make(map[int]PageResponse),
		requestedPages: make(map[int]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server base URL.
func (m *MockListings) URL() string {
	return m.server.URL
}

// Endpoint returns the full listings endpoint URL.
func (m *MockListings) Endpoint() string {
	return m.server.URL + ListingsPath
}

// Close shuts down the mock server.
func (m *MockListings) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockListings) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.maxInFlight = 0
	m.requestedPages = make(map[int]int)
	m.lastHeader = nil
}

// SetPage configures the response for a page.
func (m *MockListings) SetPage(page int, resp PageResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = resp
}

// SetRecords configures page to return the given record JSON objects.
func (m *MockListings) SetRecords(page int, records ...string) {
	m.SetPage(page, PageResponse{
		StatusCode: http.StatusOK,
		Body:       PageBody(records...),
	})
}

// RequestCount returns the number of requests served.
func (m *MockListings) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of conditional requests served.
func (m *MockListings) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// MaxInFlight returns the highest number of concurrent requests observed.
func (m *MockListings) MaxInFlight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxInFlight
}

// PageRequests returns how often page was requested.
func (m *MockListings) PageRequests(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestedPages[page]
}

// LastHeader returns the headers of the most recent request.
func (m *MockListings) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

func (m *MockListings) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != ListingsPath {
		http.NotFound(w, r)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("skip"))
	if err != nil {
		http.Error(w, "invalid skip", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requestCount++
	m.requestedPages[page]++
	m.lastHeader = r.Header.Clone()
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.conditionalCount++
	}
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	resp, ok := m.pages[page]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if !ok {
		resp = PageResponse{StatusCode: http.StatusOK, Body: PageBody()}
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	// Honor validators when the configured page carries an ETag
	if etag := resp.Headers["ETag"]; etag != "" && r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// PageBody builds a listings payload: a JSON array whose first element is
// the list of records, followed by the total count.
func PageBody(records ...string) string {
	return fmt.Sprintf("[[%s],%d]", strings.Join(records, ","), len(records))
}

// AgencyJSON builds one agency record with the given country codes and
// service group names.
func AgencyJSON(countries []string, groups ...string) string {
	type serviceGroup struct {
		Name string `json:"name"`
	}
	type service struct {
		ServiceGroup serviceGroup `json:"serviceGroup"`
	}
	type agencyService struct {
		Service service `json:"service"`
	}
	type country struct {
		Code string `json:"code"`
	}
	type location struct {
		Country country `json:"country"`
	}
	rec := struct {
		Locations      []location      `json:"locations"`
		AgencyServices []agencyService `json:"agencyService"`
	}{
		Locations:      []location{},
		AgencyServices: []agencyService{},
	}
	for _, c := range countries {
		rec.Locations = append(rec.Locations, location{Country: country{Code: c}})
	}
	for _, g := range groups {
		rec.AgencyServices = append(rec.AgencyServices, agencyService{Service: service{ServiceGroup: serviceGroup{Name: g}}})
	}

	data, err := json.Marshal(rec)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// ErrorResponse returns a plain error page response.
func ErrorResponse(status int) PageResponse {
	return PageResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"error":%q}`, http.StatusText(status)),
	}
}
