package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/agency-report/internal/config"
	"github.com/Sternrassler/agency-report/internal/testutil"
	"github.com/Sternrassler/agency-report/pkg/report"
)

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestReportCommand(t *testing.T) {
	mock := testutil.NewMockListings()
	defer mock.Close()
	mock.SetRecords(0,
		testutil.AgencyJSON([]string{"AU"}, "Media, PR & Events", "Media, PR & Events"),
		testutil.AgencyJSON([]string{"NZ"}, "Advertising, Brand & Creative"),
	)
	mock.SetRecords(1, testutil.AgencyJSON([]string{"NZ", "AU"}, "Software"))

	t.Setenv("AGENCY_REPORT_LISTINGS_ENDPOINT", mock.Endpoint())

	out, err := runCmd(t, "report", "--skip", "1", "--region", "AU", "--region", "NZ", "--strategy", "sequential")
	require.NoError(t, err)

	var summaries []report.RegionSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries), "output is not a JSON report:\n%s", out)
	assert.Contains(t, out, "\n    {", "output should be indented")

	require.Len(t, summaries, 3, "want AU, NZ, OTHERS")
	au, nz := summaries[0], summaries[1]
	assert.Equal(t, "AU", au.RegionCode)
	assert.Equal(t, 2, au.Services[1].Count, "two Media, PR & Events entries")
	assert.Equal(t, "NZ", nz.RegionCode)
	assert.Equal(t, 1, nz.Services[0].Count)
	assert.Equal(t, 1, nz.Services[2].Count)
	assert.Equal(t, 2, mock.RequestCount())
}

func TestReportCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"strategy", []string{"report", "--strategy", "burst"}, "--strategy"},
		{"policy", []string{"report", "--on-page-error", "ignore"}, "--on-page-error"},
		{"skip", []string{"report", "--skip", "-2"}, "--skip"},
		{"concurrency", []string{"report", "--max-concurrency", "0"}, "--max-concurrency"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReportCommand_UpstreamFailure(t *testing.T) {
	mock := testutil.NewMockListings()
	defer mock.Close()
	mock.SetPage(0, testutil.ErrorResponse(http.StatusForbidden))

	t.Setenv("AGENCY_REPORT_LISTINGS_ENDPOINT", mock.Endpoint())

	out, err := runCmd(t, "report", "--skip", "0")
	var pageErr *report.PageError
	require.True(t, errors.As(err, &pageErr), "expected *report.PageError, got %v", err)
	assert.Equal(t, 0, pageErr.Page)
	assert.Empty(t, out, "no partial report expected")
}

func TestReportCommand_ConfigFile(t *testing.T) {
	mock := testutil.NewMockListings()
	defer mock.Close()
	mock.SetRecords(0, testutil.AgencyJSON([]string{"GB"}, "Tech"))

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listings:\n  endpoint: " + mock.Endpoint() + "\nreport:\n  page_bound: 0\n  service_groups: [Tech]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	out, err := runCmd(t, "report", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Tech"`, "config service groups not applied")
	assert.Equal(t, 1, mock.RequestCount())
}

func TestLoadEnvFile(t *testing.T) {
	const key = "AGENCY_REPORT_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=loaded\n"), 0o600))

	require.NoError(t, loadEnvFile(path, true))
	assert.Equal(t, "loaded", os.Getenv(key))

	missing := filepath.Join(t.TempDir(), "missing.env")
	assert.NoError(t, loadEnvFile(missing, false), "missing default env file should be ignored")
	assert.Error(t, loadEnvFile(missing, true), "missing explicit env file should fail")
}

func TestNewDeps_RedisUnavailable(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = newDeps(ctx, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestNewDeps_WithoutRedis(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	d, err := newDeps(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()

	require.NotNil(t, d.client, "listings client not created")
	assert.Nil(t, d.ready(), "readiness check should be nil without redis")
}

func TestRunServer_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
