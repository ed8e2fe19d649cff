package output

import (
	"encoding/json"
	"io"
	"time"
)

// JSONFormatter writes results in a stable envelope for scripting.
type JSONFormatter struct {
	writer io.Writer
	now    func() time.Time
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w, now: time.Now}
}

// Envelope is the JSON output schema shared by every command.
type Envelope struct {
	Success   bool           `json:"success"`
	Timestamp string         `json:"timestamp"`
	Command   string         `json:"command,omitempty"`
	Data      any            `json:"data"`
	Error     *ErrorOutput   `json:"error,omitempty"`
	Summary   map[string]any `json:"summary,omitempty"`
}

// ErrorOutput describes a failed command.
type ErrorOutput struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Write encodes env, stamping the timestamp if unset.
func (j *JSONFormatter) Write(env Envelope) error {
	if env.Timestamp == "" {
		env.Timestamp = j.now().UTC().Format(time.RFC3339)
	}
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// WriteSuccess writes a successful result.
func (j *JSONFormatter) WriteSuccess(command string, data any, summary map[string]any) error {
	return j.Write(Envelope{
		Success: true,
		Command: command,
		Data:    data,
		Summary: summary,
	})
}

// WriteError writes a failed result.
func (j *JSONFormatter) WriteError(command string, e ErrorOutput) error {
	return j.Write(Envelope{
		Success: false,
		Command: command,
		Error:   &e,
	})
}
