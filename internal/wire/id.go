// Package wire holds types shared between the HTTP server and client for the
// JSON representations of domain values.
package wire

import (
	"bytes"
	"fmt"
	"strconv"
)

// ID is a numeric identifier that tolerates both quoted and unquoted JSON
// forms on the wire. Form-driven clients send ids as strings; the stored form
// is always numeric.
type ID int64

func (id ID) Int64() int64 {
	return int64(id)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(id), 10)), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*id = 0
		return nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", s, err)
	}

	*id = ID(n)
	return nil
}

// ParseID normalizes a decimal identifier arriving as query or path text.
func ParseID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return n, nil
}
