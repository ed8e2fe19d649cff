// Package analysistest provides an in-process fake of the analysis backend
// for tests.
package analysistest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pollutantsai/aianalysis/internal/analysis"
)

// APIPrefix is the path the backend mounts its routes under.
const APIPrefix = "/api"

// Fixtures is the data served by the fake backend.
type Fixtures struct {
	Sites      []analysis.Site
	Pollutants []analysis.Pollutant
	Points     []analysis.ChartDataPoint
}

// DefaultFixtures returns a small, realistic data set.
func DefaultFixtures() Fixtures {
	return Fixtures{
		Sites: []analysis.Site{
			{SiteID: 1, SiteName: "Beijing Dongsi", Longitude: 116.417, Latitude: 39.929},
			{SiteID: 2, SiteName: "Beijing Tiantan", Longitude: 116.407, Latitude: 39.886},
		},
		Pollutants: []analysis.Pollutant{
			{PollutantID: 1, PollutantName: "NO2"},
			{PollutantID: 2, PollutantName: "PM2.5"},
		},
		Points: []analysis.ChartDataPoint{
			{Date: "2024-01-01", Hour: 0, Timestamp: "2024-01-01 00:00", StationValue: analysis.NewNullFloat(31.2), TifValue: analysis.NewNullFloat(28.9)},
			{Date: "2024-01-01", Hour: 1, Timestamp: "2024-01-01 01:00", TifValue: analysis.NewNullFloat(27.4)},
			{Date: "2024-01-01", Hour: 2, Timestamp: "2024-01-01 02:00", StationValue: analysis.NewNullFloat(0)},
		},
	}
}

// Request is a request seen by the fake backend.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
}

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	fixtures Fixtures

	mu        sync.Mutex
	requests  []Request
	overrides map[string]http.HandlerFunc
}

// NewServer starts a fake backend serving fixtures. It is closed when the
// test finishes.
func NewServer(t testing.TB, fixtures Fixtures) *Server {
	t.Helper()

	s := &Server{
		fixtures:  fixtures,
		overrides: make(map[string]http.HandlerFunc),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the API base URL clients should be configured with.
func (s *Server) BaseURL() string {
	return s.URL + APIPrefix
}

// Override replaces the handler for a path such as "/api/sites" or "/".
func (s *Server) Override(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = h
}

// Requests returns every request received so far, in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestCount returns how many requests hit path.
func (s *Server) RequestCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/", s.route("/", s.health))
	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/sites", s.route(APIPrefix+"/sites", s.sites))
		r.Get("/pollutants", s.route(APIPrefix+"/pollutants", s.pollutants))
		r.Get("/analysis", s.route(APIPrefix+"/analysis", s.analysis))
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:   r.Method,
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
			Header:   r.Header.Clone(),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) route(path string, fallback http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		h, ok := s.overrides[path]
		s.mu.Unlock()
		if ok {
			h(w, r)
			return
		}
		fallback(w, r)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "pollutants analysis api online",
	})
}

func (s *Server) sites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.fixtures.Sites)
}

func (s *Server) pollutants(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.fixtures.Pollutants)
}

// analysis answers 422 when a query parameter is missing or malformed. A
// reversed range passes parameter validation and fails inside the handler,
// which the backend reports as a plain-text 500.
func (s *Server) analysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, name := range []string{"site_id", "pollutant_id"} {
		if _, err := strconv.ParseInt(q.Get(name), 10, 64); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"detail": "invalid query parameter " + name,
			})
			return
		}
	}
	var dates [2]time.Time
	for i, name := range []string{"start_date", "end_date"} {
		d, err := time.Parse(time.DateOnly, q.Get(name))
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"detail": "invalid query parameter " + name,
			})
			return
		}
		dates[i] = d
	}
	if dates[1].Before(dates[0]) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.fixtures.Points)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
