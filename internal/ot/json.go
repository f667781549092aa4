package ot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// The wire form of an operation is a JSON array whose elements are
// positive integers (retain), negative integers (delete that many
// characters) or strings (insert). Decoding rebuilds the operation
// through the builder so canonical form is re-imposed.

// MarshalJSON encodes the operation in wire form.
func (o *Operation) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, 0, len(o.comps))
	for _, c := range o.comps {
		switch c := c.(type) {
		case Retain:
			vals = append(vals, int(c))
		case Insert:
			vals = append(vals, string(c))
		case Delete:
			vals = append(vals, -int(c))
		}
	}
	return json.Marshal(vals)
}

// UnmarshalJSON decodes a wire-form operation. Non-integer numbers,
// zeroes and any other element type are rejected.
func (o *Operation) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode op: %v: %w", err, ErrDecode)
	}

	rebuilt := New()
	for _, v := range raw {
		switch v := v.(type) {
		case string:
			rebuilt.Insert(v)
		case json.Number:
			n, err := strconv.Atoi(v.String())
			if err != nil {
				return fmt.Errorf("decode op: non-integer %q: %w", v.String(), ErrDecode)
			}
			switch {
			case n > 0:
				rebuilt.Retain(n)
			case n < 0:
				rebuilt.Delete(-n)
			default:
				return fmt.Errorf("decode op: zero component: %w", ErrDecode)
			}
		default:
			return fmt.Errorf("decode op: element %T: %w", v, ErrDecode)
		}
	}
	*o = *rebuilt
	return nil
}
