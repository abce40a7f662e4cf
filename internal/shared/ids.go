package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ID is a backend identifier that may arrive as a JSON string or number.
type ID string

// UnmarshalJSON accepts both `"abc"` and `42`.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("shared: invalid id %s", data)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Timestamp parses backend datetimes with or without a zone designator.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON accepts RFC3339 and naive ISO-8601 values.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
			ts.Time = time.Time{}
			return nil
		}
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		ts.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			ts.Time = t
			return nil
		}
	}
	return fmt.Errorf("shared: unsupported timestamp %q", raw)
}

// MarshalJSON writes RFC3339.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339))
}
