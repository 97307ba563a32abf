package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Record is any entity row returned by the remote API. Every record carries a
// numeric server-assigned id.
type Record interface {
	RecordID() int64
}

// Text decodes a JSON string, number or null into a plain string. The API
// is not consistent about a few descriptive fields.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Text(n.String())
		return nil
	}
	*t = Text(data)
	return nil
}

// String returns t as a string.
func (t Text) String() string { return string(t) }

// ParseID converts a path or form value into a record id.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
