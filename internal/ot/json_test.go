package ot

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
)

func TestMarshalWireForm(t *testing.T) {
	op := New().Retain(1).Insert("X").Delete(2).Retain(3)
	b, err := json.Marshal(op)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `[1,"X",-2,3]` {
		t.Fatalf("Marshal() = %s, want %s", b, `[1,"X",-2,3]`)
	}
}

func TestUnmarshalRebuildsCanonical(t *testing.T) {
	// adjacent retains and a trailing delete-insert pair are
	// renormalised by the builder
	var op Operation
	if err := json.Unmarshal([]byte(`[1,2,-1,"X"]`), &op); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := New().Retain(3).Insert("X").Delete(1)
	if !op.Equals(want) {
		t.Fatalf("got %v, want %v", &op, want)
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	cases := []string{
		`[true]`,
		`[null]`,
		`[0]`,
		`[1.5]`,
		`[{"retain":1}]`,
		`[[1]]`,
		`"not an array"`,
	}
	for _, c := range cases {
		var op Operation
		err := json.Unmarshal([]byte(c), &op)
		if err == nil {
			t.Errorf("Unmarshal(%s) accepted", c)
			continue
		}
		if !errors.Is(err, ErrDecode) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrDecode", c, err)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	for i := 0; i < 200; i++ {
		doc := randDoc(r, r.Intn(40))
		op := randOp(r, doc)

		b, err := json.Marshal(op)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		back := New()
		if err := json.Unmarshal(b, back); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", b, err)
		}
		if !back.Equals(op) {
			t.Fatalf("round trip %v -> %s -> %v", op, b, back)
		}
	}
}
