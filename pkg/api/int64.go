package api

import (
	"bytes"
	"fmt"
	"strconv"
)

// Int64 is a 64-bit integer field. It is written as a decimal string, which
// JavaScript clients can hold without losing precision, and read from either
// a string or a bare JSON number.
type Int64 int64

func (n Int64) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, strconv.FormatInt(int64(n), 10)), nil
}

func (n *Int64) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("int64 field: %w", err)
		}
		s = unquoted
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("int64 field: %w", err)
	}
	*n = Int64(v)
	return nil
}
