package analysis

import (
	"bytes"
	"encoding/json"
	"strconv"
)

var jsonNull = []byte("null")

// NullFloat is a float64 that may be absent. The zero value is absent.
type NullFloat struct {
	Value float64
	Valid bool
}

// NewNullFloat returns a present value.
func NewNullFloat(v float64) NullFloat {
	return NullFloat{Value: v, Valid: true}
}

// Float64 returns the value and whether it is present.
func (n NullFloat) Float64() (float64, bool) {
	return n.Value, n.Valid
}

// String formats the value, or returns "" when absent.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// MarshalJSON encodes an absent value as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON decodes null as absent and any number as present, including 0.
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		*n = NullFloat{}
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = NewNullFloat(v)
	return nil
}
