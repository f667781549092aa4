package store

import (
	"encoding/json"
	"fmt"

	"github.com/MKJM2/cs2620-final-prototype/internal/ot"
)

// history entries are persisted in the op wire form, one JSON array
// string per operation

func encodeOps(ops []*ot.Operation) ([]string, error) {
	out := make([]string, len(ops))
	for i, op := range ops {
		b, err := json.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("encode op %d: %w", i, err)
		}
		out[i] = string(b)
	}
	return out, nil
}

func decodeOps(vals []string) ([]*ot.Operation, error) {
	out := make([]*ot.Operation, len(vals))
	for i, v := range vals {
		op := ot.New()
		if err := json.Unmarshal([]byte(v), op); err != nil {
			return nil, fmt.Errorf("decode op %d: %w", i, err)
		}
		out[i] = op
	}
	return out, nil
}
