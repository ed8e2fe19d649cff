package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollutantsai/aianalysis/internal/analysis"
	"github.com/pollutantsai/aianalysis/internal/analysis/apiclient"
	"github.com/pollutantsai/aianalysis/internal/clierr"
)

type analysisCall struct {
	siteID      int64
	pollutantID int64
	dates       analysis.DateRange
}

// stubSource serves canned data and records analysis calls.
type stubSource struct {
	mu    sync.Mutex
	calls []analysisCall

	sites  []analysis.Site
	points []analysis.ChartDataPoint
	err    error
}

func (s *stubSource) FetchSites(context.Context) ([]analysis.Site, error) {
	return s.sites, s.err
}

func (s *stubSource) FetchPollutants(context.Context) ([]analysis.Pollutant, error) {
	return nil, s.err
}

func (s *stubSource) FetchAnalysis(_ context.Context, siteID, pollutantID int64, r analysis.DateRange) ([]analysis.ChartDataPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, analysisCall{siteID: siteID, pollutantID: pollutantID, dates: r})
	return s.points, s.err
}

func runWithSource(t *testing.T, src analysis.Source, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, env := range []string{"ANALYSIS_API_BASE", "ANALYSIS_OUTPUT", "ANALYSIS_LOG_LEVEL", "OTEL_ENABLED"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr, "test")
	a.source = src
	code := a.execute(context.Background(), args)
	return code, stdout.String(), stderr.String()
}

func TestAnalysis_PassesFlagsToSource(t *testing.T) {
	src := &stubSource{points: []analysis.ChartDataPoint{
		{Date: "2024-03-01", Hour: 0, Timestamp: "2024-03-01 00:00", TifValue: analysis.NewNullFloat(4.5)},
	}}

	code, stdout, stderr := runWithSource(t, src, "analysis", "-o", "json",
		"--site", "7", "--pollutant", "3", "--start", "2024-03-01", "--end", "2024-03-31")
	require.Equal(t, 0, code, stderr)

	require.Len(t, src.calls, 1)
	assert.Equal(t, analysisCall{
		siteID:      7,
		pollutantID: 3,
		dates:       analysis.DateRange{StartDate: "2024-03-01", EndDate: "2024-03-31"},
	}, src.calls[0])

	var env struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	require.Len(t, env.Data, 1)
	assert.Nil(t, env.Data[0]["stationValue"])
	assert.Equal(t, 4.5, env.Data[0]["tifValue"])
}

func TestSites_NilFromSourceIsEmptyTable(t *testing.T) {
	code, stdout, stderr := runWithSource(t, &stubSource{}, "sites")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "(no rows)")
}

func TestSourceErrors_MapToExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"decode", &apiclient.DecodeError{Op: "fetch sites", Err: errors.New("bad")}, clierr.ExitDecode},
		{"status", &apiclient.HTTPStatusError{Op: "fetch sites", StatusCode: 502}, clierr.ExitStatus},
		{"transport", &apiclient.TransportError{Op: "fetch sites", Err: context.DeadlineExceeded}, clierr.ExitTransport},
		{"other", errors.New("boom"), clierr.ExitInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runWithSource(t, &stubSource{err: tt.err}, "sites")
			assert.Equal(t, tt.code, code)
			assert.Contains(t, stderr, "Error:")
		})
	}
}
