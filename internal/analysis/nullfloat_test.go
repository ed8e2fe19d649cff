package analysis_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollutantsai/aianalysis/internal/analysis"
)

func TestChartDataPoint_DecodeNullableValues(t *testing.T) {
	payload := `{"date":"2024-01-01","hour":3,"timestamp":"2024-01-01T03:00:00Z","stationValue":null,"tifValue":12.5}`

	var p analysis.ChartDataPoint
	require.NoError(t, json.Unmarshal([]byte(payload), &p))

	assert.Equal(t, "2024-01-01", p.Date)
	assert.Equal(t, 3, p.Hour)
	assert.Equal(t, "2024-01-01T03:00:00Z", p.Timestamp)

	_, ok := p.StationValue.Float64()
	assert.False(t, ok, "null station value must stay absent")

	v, ok := p.TifValue.Float64()
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)
}

func TestChartDataPoint_MissingKeyIsAbsent(t *testing.T) {
	var p analysis.ChartDataPoint
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-01-01","hour":0,"timestamp":"x"}`), &p))

	assert.False(t, p.StationValue.Valid)
	assert.False(t, p.TifValue.Valid)
}

func TestNullFloat_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
		wantErr   bool
	}{
		{"null", "null", false, 0, false},
		{"padded null", " null ", false, 0, false},
		{"zero stays present", "0", true, 0, false},
		{"negative", "-3.25", true, -3.25, false},
		{"integer", "42", true, 42, false},
		{"string rejected", `"12.5"`, false, 0, true},
		{"bool rejected", "true", false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n analysis.NullFloat
			err := n.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, n.Valid)
			assert.Equal(t, tt.wantValue, n.Value)
		})
	}
}

func TestNullFloat_MarshalJSON(t *testing.T) {
	p := analysis.ChartDataPoint{
		Date:         "2024-01-01",
		Hour:         5,
		Timestamp:    "2024-01-01 05:00",
		StationValue: analysis.NewNullFloat(0),
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"date":"2024-01-01","hour":5,"timestamp":"2024-01-01 05:00","stationValue":0,"tifValue":null}`,
		string(data))
}

func TestNullFloat_String(t *testing.T) {
	assert.Equal(t, "", analysis.NullFloat{}.String())
	assert.Equal(t, "12.5", analysis.NewNullFloat(12.5).String())
	assert.Equal(t, "0", analysis.NewNullFloat(0).String())
}
