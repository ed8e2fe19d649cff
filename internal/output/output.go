// Package output renders analysis results as a table, JSON or CSV.
package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pollutantsai/aianalysis/internal/analysis"
)

// Table is a result set ready for tabular rendering.
type Table struct {
	Headers []string
	Rows    [][]string
}

// SitesTable lays out sites one per row.
func SitesTable(sites []analysis.Site) Table {
	t := Table{Headers: []string{"site_id", "site_name", "longitude", "latitude"}}
	for _, s := range sites {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(s.SiteID, 10),
			s.SiteName,
			formatFloat(s.Longitude),
			formatFloat(s.Latitude),
		})
	}
	return t
}

// PollutantsTable lays out pollutants one per row.
func PollutantsTable(pollutants []analysis.Pollutant) Table {
	t := Table{Headers: []string{"pollutant_id", "pollutant_name"}}
	for _, p := range pollutants {
		t.Rows = append(t.Rows, []string{strconv.FormatInt(p.PollutantID, 10), p.PollutantName})
	}
	return t
}

// ChartTable lays out chart points one per row. Missing values are empty cells.
func ChartTable(points []analysis.ChartDataPoint) Table {
	t := Table{Headers: []string{"date", "hour", "timestamp", "stationValue", "tifValue"}}
	for _, p := range points {
		t.Rows = append(t.Rows, []string{
			p.Date,
			strconv.Itoa(p.Hour),
			p.Timestamp,
			p.StationValue.String(),
			p.TifValue.String(),
		})
	}
	return t
}

// Write renders a result in the given format. data is the value encoded in
// JSON mode; table is used for the table and csv formats.
func Write(w io.Writer, format, command string, data any, table Table) error {
	switch format {
	case "json":
		return NewJSONFormatter(w).WriteSuccess(command, data, map[string]any{"count": len(table.Rows)})
	case "csv":
		return WriteCSV(w, table)
	case "table", "":
		return WriteTable(w, table)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
