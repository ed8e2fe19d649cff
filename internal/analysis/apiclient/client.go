// Package apiclient provides a client for the pollutant analysis REST API.
package apiclient

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
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pollutantsai/aianalysis/internal/analysis"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:8000/api"

	// DefaultTimeout bounds every request, including reading the body.
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries a per-request correlation ID.
	RequestIDHeader = "X-Request-Id"
)

// Config holds configuration for the analysis API client.
type Config struct {
	// BaseURL is the API base URL (defaults to DefaultBaseURL).
	BaseURL string

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration

	// HTTPClient is the HTTP client to use.
	// If nil, an otelhttp-instrumented client is created.
	HTTPClient HTTPDoer

	// Logger receives debug events per request. The zero value is silent.
	Logger zerolog.Logger
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Health is the body returned by the backend health check.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Client is an analysis API client. It holds no mutable state and is safe
// for concurrent use.
type Client struct {
	baseURL    string
	rootURL    string
	timeout    time.Duration
	httpClient HTTPDoer
	logger     zerolog.Logger
}

var _ analysis.Source = (*Client)(nil)

// NewClient creates a new analysis API client.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	root := url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		baseURL:    baseURL,
		rootURL:    root.String(),
		timeout:    timeout,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}, nil
}

// BaseURL returns the prefix every API request is sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchSites retrieves all monitoring sites.
func (c *Client) FetchSites(ctx context.Context) ([]analysis.Site, error) {
	var sites []analysis.Site
	if err := c.getJSON(ctx, "fetch sites", c.baseURL+"/sites", &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// FetchPollutants retrieves all pollutants.
func (c *Client) FetchPollutants(ctx context.Context) ([]analysis.Pollutant, error) {
	var pollutants []analysis.Pollutant
	if err := c.getJSON(ctx, "fetch pollutants", c.baseURL+"/pollutants", &pollutants); err != nil {
		return nil, err
	}
	return pollutants, nil
}

// FetchAnalysis retrieves the hourly station/TIF comparison for a site and
// pollutant. Arguments are passed through unchecked.
func (c *Client) FetchAnalysis(ctx context.Context, siteID, pollutantID int64, r analysis.DateRange) ([]analysis.ChartDataPoint, error) {
	var points []analysis.ChartDataPoint
	if err := c.getJSON(ctx, "fetch analysis", c.analysisURL(siteID, pollutantID, r), &points); err != nil {
		return nil, err
	}
	return points, nil
}

// analysisURL keeps the parameter order fixed, which url.Values.Encode would sort.
func (c *Client) analysisURL(siteID, pollutantID int64, r analysis.DateRange) string {
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("/analysis?site_id=")
	b.WriteString(strconv.FormatInt(siteID, 10))
	b.WriteString("&pollutant_id=")
	b.WriteString(strconv.FormatInt(pollutantID, 10))
	b.WriteString("&start_date=")
	b.WriteString(url.QueryEscape(r.StartDate))
	b.WriteString("&end_date=")
	b.WriteString(url.QueryEscape(r.EndDate))
	return b.String()
}

// Ping calls the backend health check at the server root.
func (c *Client) Ping(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, "ping", c.rootURL, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// WaitReady pings the backend until it answers, pausing between attempts
// according to b. It returns the last ping error once b or ctx gives up.
func (c *Client) WaitReady(ctx context.Context, b backoff.BackOff) (*Health, error) {
	var (
		health  *Health
		lastErr error
	)
	attempt := 0
	operation := func() error {
		attempt++
		h, err := c.Ping(ctx)
		if err != nil {
			lastErr = err
			return err
		}
		health = h
		return nil
	}
	notify := func(err error, next time.Duration) {
		c.logger.Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("next_in", next).
			Msg("analysis api not ready")
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		// backoff reports a context that ends between attempts as bare ctx.Err().
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, &TransportError{Op: "wait ready", URL: c.rootURL, Err: err}
	}
	return health, nil
}

// getJSON performs one GET request and decodes a 2xx JSON body into out.
func (c *Client) getJSON(ctx context.Context, op, rawURL string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	requestID := "req_" + uuid.New().String()[:22]
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	logEvent := func(status int, err error) {
		c.logger.Debug().
			Str("op", op).
			Str("url", rawURL).
			Str("request_id", requestID).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("analysis api request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logEvent(0, err)
		return &TransportError{Op: op, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &HTTPStatusError{
			Op:         op,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
		logEvent(resp.StatusCode, statusErr)
		return statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logEvent(resp.StatusCode, err)
		return &TransportError{Op: op, URL: rawURL, Err: err}
	}

	if err := decodeStrict(body, out); err != nil {
		decodeErr := &DecodeError{Op: op, Err: err}
		logEvent(resp.StatusCode, decodeErr)
		return decodeErr
	}

	logEvent(resp.StatusCode, nil)
	return nil
}

// decodeStrict decodes exactly one JSON value into out. Fields the target type
// does not declare and trailing data are errors, so a payload of the wrong
// shape cannot decode into zero values.
func decodeStrict(body []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}
