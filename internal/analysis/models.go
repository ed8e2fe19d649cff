// Package analysis defines the data shapes served by the pollutant analysis API.
package analysis

import (
	"context"
	"errors"
)

// Error kinds reported by Source implementations. Concrete errors carry more
// detail and match these with errors.Is.
var (
	ErrTransport        = errors.New("analysis api unreachable")
	ErrUnexpectedStatus = errors.New("unexpected status from analysis api")
	ErrDecode           = errors.New("malformed analysis api response")
)

// Site is a physical monitoring location.
type Site struct {
	SiteID    int64   `json:"site_id"`
	SiteName  string  `json:"site_name"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Pollutant is a measured substance type.
type Pollutant struct {
	PollutantID   int64  `json:"pollutant_id"`
	PollutantName string `json:"pollutant_name"`
}

// ChartDataPoint pairs the observed station value with the modeled TIF value
// for one hour. Either value may be missing.
type ChartDataPoint struct {
	// Date is formatted as YYYY-MM-DD.
	Date string `json:"date"`

	// Hour of day, 0-23.
	Hour int `json:"hour"`

	Timestamp    string    `json:"timestamp"`
	StationValue NullFloat `json:"stationValue"`
	TifValue     NullFloat `json:"tifValue"`
}

// DateRange is an inclusive date bound for analysis queries.
// Both ends are passed to the backend as-is.
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Source fetches analysis data from a backend.
type Source interface {
	// FetchSites returns every monitoring site known to the backend.
	FetchSites(ctx context.Context) ([]Site, error)

	// FetchPollutants returns every pollutant known to the backend.
	FetchPollutants(ctx context.Context) ([]Pollutant, error)

	// FetchAnalysis returns the hourly station/TIF comparison for a site and
	// pollutant within the given range.
	FetchAnalysis(ctx context.Context, siteID, pollutantID int64, r DateRange) ([]ChartDataPoint, error)
}
