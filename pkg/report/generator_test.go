package report

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/agency-report/pkg/logging"
	"github.com/Sternrassler/agency-report/pkg/pagination"
)

// pageSource serves fixed pages and records which pages were requested.
type pageSource struct {
	mu        sync.Mutex
	pages     map[int][]Record
	failPages map[int]error
	delay     func(page int) time.Duration
	requested []int
}

func (s *pageSource) FetchPage(ctx context.Context, page int) ([]Record, error) {
	s.mu.Lock()
	s.requested = append(s.requested, page)
	s.mu.Unlock()

	if s.delay != nil {
		select {
		case <-time.After(s.delay(page)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := s.failPages[page]; ok {
		return nil, err
	}
	return s.pages[page], nil
}

func (s *pageSource) requestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requested)
}

func TestParseOnPageError(t *testing.T) {
	tests := []struct {
		input    string
		expected OnPageError
		wantErr  bool
	}{
		{"", OnPageErrorAbort, false},
		{"abort", OnPageErrorAbort, false},
		{"ABORT", OnPageErrorAbort, false},
		{"skip", OnPageErrorSkip, false},
		{"skipAndContinue", OnPageErrorSkip, false},
		{"skip_and_continue", OnPageErrorSkip, false},
		{"retry", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOnPageError(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownPolicy) {
					t.Errorf("error = %v, want ErrUnknownPolicy", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ParseOnPageError(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PageBound != 12 {
		t.Errorf("PageBound = %d, want 12", cfg.PageBound)
	}
	if cfg.OnPageError != OnPageErrorAbort {
		t.Errorf("OnPageError = %q, want abort", cfg.OnPageError)
	}
	if cfg.Fetch.MaxConcurrency != 10 {
		t.Errorf("Fetch.MaxConcurrency = %d, want 10", cfg.Fetch.MaxConcurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	src := &pageSource{}

	tests := []struct {
		name    string
		fetcher PageFetcher
		config  Config
		wantErr error
	}{
		{"nil fetcher", nil, DefaultConfig(), ErrNilFetcher},
		{"negative page bound", src, Config{PageBound: -1}, ErrInvalidPageBound},
		{"unknown policy", src, Config{OnPageError: "retry"}, ErrUnknownPolicy},
		{"unknown strategy", src, Config{Fetch: pagination.Config{Strategy: "burst"}}, pagination.ErrUnknownStrategy},
		{"zero config", src, Config{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.fetcher, tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gen == nil {
				t.Fatal("generator is nil")
			}
		})
	}
}

func TestNewGenerator_EmptyCatalogsUseDefaults(t *testing.T) {
	gen, err := NewGenerator(&pageSource{}, Config{})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	if got := gen.regions.Names(); !reflect.DeepEqual(got, DefaultRegions()) {
		t.Errorf("regions = %v, want %v", got, DefaultRegions())
	}
	if got := gen.groups.Names(); !reflect.DeepEqual(got, DefaultServiceGroups()) {
		t.Errorf("service groups = %v, want %v", got, DefaultServiceGroups())
	}
	if gen.Config().OnPageError != OnPageErrorAbort {
		t.Errorf("OnPageError = %q, want abort", gen.Config().OnPageError)
	}
}

func TestGenerator_ConcreteScenario(t *testing.T) {
	src := &pageSource{pages: map[int][]Record{
		0: {record([]string{"AU"}, "X", "Y")},
	}}
	gen, err := NewGenerator(src, Config{
		Regions:       []string{"AU", "OTHERS"},
		ServiceGroups: []string{"X", "others"},
		PageBound:     0,
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	got, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := []RegionSummary{
		{RegionCode: "AU", Services: []ServiceCount{{"X", 1}, {"others", 1}}},
		{RegionCode: "OTHERS", Services: []ServiceCount{{"X", 0}, {"others", 0}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Generate() = %+v, want %+v", got, want)
	}
	if src.requestCount() != 1 {
		t.Errorf("fetched %d pages, want exactly 1 for page bound 0", src.requestCount())
	}
}

func TestGenerator_FetchesPagesThroughBound(t *testing.T) {
	src := &pageSource{}
	gen, err := NewGenerator(src, Config{PageBound: 12})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	res, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if src.requestCount() != 13 {
		t.Errorf("fetched %d pages, want 13", src.requestCount())
	}
	if res.PagesFetched != 13 {
		t.Errorf("PagesFetched = %d, want 13", res.PagesFetched)
	}
	if res.RunID == "" {
		t.Error("RunID is empty")
	}
	// Every configured bucket is present even with no records
	if len(res.Summaries()) != 4 {
		t.Errorf("got %d regions, want 4", len(res.Summaries()))
	}
}

func TestGenerator_ResultIndependentOfStrategy(t *testing.T) {
	pages := map[int][]Record{
		0: {record([]string{"AU"}, "Advertising, Brand & Creative"), record([]string{"FR"}, "Q")},
		1: {record([]string{"GB", "US"}, "Media, PR & Events", "Media, PR & Events")},
		2: {record(nil, "Advertising, Brand & Creative")},
		3: {record([]string{"US"}), record([]string{"US"}, "Q", "Advertising, Brand & Creative")},
		4: {},
		5: {record([]string{"DE", "AU"}, "Media, PR & Events")},
	}

	var baseline []RegionSummary
	for _, strategy := range []pagination.Strategy{
		pagination.StrategySequential,
		pagination.StrategyBounded,
		pagination.StrategyUnbounded,
	} {
		t.Run(string(strategy), func(t *testing.T) {
			src := &pageSource{
				pages: pages,
				// Later pages finish first
				delay: func(page int) time.Duration { return time.Duration(6-page) * 5 * time.Millisecond },
			}
			gen, err := NewGenerator(src, Config{
				PageBound: 5,
				Fetch:     pagination.Config{Strategy: strategy, MaxConcurrency: 2},
			})
			if err != nil {
				t.Fatalf("NewGenerator failed: %v", err)
			}

			got, err := gen.Generate(context.Background())
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if baseline == nil {
				baseline = got
				return
			}
			if !reflect.DeepEqual(got, baseline) {
				t.Errorf("strategy %s: report = %+v, want %+v", strategy, got, baseline)
			}
		})
	}
}

func TestGenerator_AbortOnPageError(t *testing.T) {
	fetchErr := errors.New("status 500")
	src := &pageSource{
		pages:     map[int][]Record{0: {record([]string{"AU"}, "X")}},
		failPages: map[int]error{3: fetchErr},
	}
	gen, err := NewGenerator(src, Config{
		PageBound:   5,
		OnPageError: OnPageErrorAbort,
		Fetch:       pagination.Config{Strategy: pagination.StrategySequential},
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	res, err := gen.Run(context.Background())
	if res != nil {
		t.Error("expected no result on abort")
	}

	var pageErr *PageError
	if !errors.As(err, &pageErr) {
		t.Fatalf("error = %v, want *PageError", err)
	}
	if pageErr.Page != 3 {
		t.Errorf("PageError.Page = %d, want 3", pageErr.Page)
	}
	if !errors.Is(err, fetchErr) {
		t.Error("PageError should unwrap to the fetch error")
	}
	if src.requestCount() < 4 {
		t.Errorf("fetched %d pages, want at least 4", src.requestCount())
	}
}

func TestGenerator_SkipOnPageError(t *testing.T) {
	src := &pageSource{
		pages: map[int][]Record{
			0: {record([]string{"AU"}, "X")},
			2: {record([]string{"AU"}, "X", "X")},
		},
		failPages: map[int]error{1: errors.New("timeout")},
	}
	gen, err := NewGenerator(src, Config{
		Regions:       []string{"AU"},
		ServiceGroups: []string{"X"},
		PageBound:     2,
		OnPageError:   OnPageErrorSkip,
	})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	res, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !reflect.DeepEqual(res.SkippedPages, []int{1}) {
		t.Errorf("SkippedPages = %v, want [1]", res.SkippedPages)
	}
	if res.PagesFetched != 2 {
		t.Errorf("PagesFetched = %d, want 2", res.PagesFetched)
	}
	if got := res.Report.Count("AU", "X"); got != 3 {
		t.Errorf("Count(AU, X) = %d, want 3", got)
	}
}

func TestGenerator_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen, err := NewGenerator(&pageSource{}, Config{PageBound: 3})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	if _, err := gen.Generate(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestGenerator_ContextCancelledWithSkipPolicy(t *testing.T) {
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		fetch := FetchFunc(func(fctx context.Context, _ int) ([]Record, error) {
			time.AfterFunc(time.Millisecond, cancel)
			<-fctx.Done()
			return nil, fctx.Err()
		})

		gen, err := NewGenerator(fetch, Config{PageBound: 0, OnPageError: OnPageErrorSkip})
		if err != nil {
			t.Fatalf("NewGenerator failed: %v", err)
		}

		res, err := gen.Run(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("iteration %d: error = %v, want context.Canceled", i, err)
		}
		if res != nil {
			t.Fatalf("iteration %d: cancelled run returned a result: pages=%d skipped=%v",
				i, res.PagesFetched, res.SkippedPages)
		}
		cancel()
	}
}

func TestGenerator_PageTimeoutIsSkipped(t *testing.T) {
	src := &pageSource{
		pages: map[int][]Record{1: {record([]string{"AU"}, "X")}},
		delay: func(page int) time.Duration {
			if page == 0 {
				return time.Second
			}
			return 0
		},
	}
	cfg := Config{
		Regions:       []string{"AU"},
		ServiceGroups: []string{"X"},
		PageBound:     1,
		OnPageError:   OnPageErrorSkip,
		Fetch:         pagination.Config{Strategy: pagination.StrategySequential, Timeout: 20 * time.Millisecond},
	}
	gen, err := NewGenerator(src, cfg)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	res, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("a per-page timeout should be skipped, got %v", err)
	}
	if !reflect.DeepEqual(res.SkippedPages, []int{0}) {
		t.Errorf("SkippedPages = %v, want [0]", res.SkippedPages)
	}
	if got := res.Report.Count("AU", "X"); got != 1 {
		t.Errorf("AU/X = %d, want 1", got)
	}
}

func TestGenerator_LogsWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logging.Setup(logging.Config{Level: logging.LevelInfo, Output: &buf})
	t.Cleanup(func() { logging.Setup(logging.DefaultConfig()) })

	gen, err := NewGenerator(&pageSource{}, Config{PageBound: 0})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if _, err := gen.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !strings.Contains(buf.String(), `"component":"report-generator"`) {
		t.Errorf("run logs lack the component field:\n%s", buf.String())
	}
}

func TestFetchFunc(t *testing.T) {
	called := false
	var f PageFetcher = FetchFunc(func(_ context.Context, page int) ([]Record, error) {
		called = true
		return []Record{{}}, nil
	})

	recs, err := f.FetchPage(context.Background(), 0)
	if err != nil || len(recs) != 1 || !called {
		t.Errorf("FetchFunc did not delegate: recs=%v err=%v called=%v", recs, err, called)
	}
}
