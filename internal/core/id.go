package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an identifier issued by the platform. Most endpoints return strings,
// some return numbers. The ID remembers which form it was read in and is
// written back the same way.
type ID struct {
	value  string
	number bool
}

// NewID returns an ID encoded as a JSON string.
func NewID(value string) ID {
	return ID{value: value}
}

// NumericID returns an ID encoded as a JSON number.
func NumericID(n int64) ID {
	return ID{value: strconv.FormatInt(n, 10), number: true}
}

func (id ID) String() string {
	return id.value
}

// IsZero reports whether the ID is empty. Fields tagged omitzero rely on it.
func (id ID) IsZero() bool {
	return id.value == ""
}

// Equal compares value and encoding.
func (id ID) Equal(other ID) bool {
	return id == other
}

// MarshalJSON writes numeric IDs as numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.number && id.value != "" {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s", data)
	}
	*id = ID{value: n.String(), number: true}
	return nil
}
