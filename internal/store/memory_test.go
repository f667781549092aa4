package store

import (
	"context"
	"errors"
	"testing"

	"github.com/MKJM2/cs2620-final-prototype/internal/ot"
)

func TestMemoryLoadSave(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	op1 := ot.New().Insert("ab")
	if err := m.Save(ctx, "d", "ab", 1, []*ot.Operation{op1}); err != nil {
		t.Fatal(err)
	}
	op2 := ot.New().Retain(2).Insert("c")
	if err := m.Save(ctx, "d", "abc", 2, []*ot.Operation{op2}); err != nil {
		t.Fatal(err)
	}

	doc, err := m.Load(ctx, "d")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Content != "abc" || doc.Revision != 2 {
		t.Fatalf("loaded (%q, %d)", doc.Content, doc.Revision)
	}
	if len(doc.History) != 2 || !doc.History[1].Equals(op2) {
		t.Fatalf("history = %v", doc.History)
	}

	// the loaded history is a copy
	doc.History[0] = nil
	again, err := m.Load(ctx, "d")
	if err != nil {
		t.Fatal(err)
	}
	if again.History[0] == nil {
		t.Fatal("load aliases stored history")
	}

	ids, err := m.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "d" {
		t.Fatalf("list = %v", ids)
	}
}

func TestOpCodec(t *testing.T) {
	ops := []*ot.Operation{
		ot.New().Retain(1).Insert("x").Delete(2),
		ot.New().Insert("héllo"),
	}
	encoded, err := encodeOps(ops)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := decodeOps(encoded)
	if err != nil {
		t.Fatal(err)
	}
	for i := range ops {
		if !decoded[i].Equals(ops[i]) {
			t.Fatalf("op %d: %v != %v", i, decoded[i], ops[i])
		}
	}

	if _, err := decodeOps([]string{`[true]`}); err == nil {
		t.Fatal("malformed stored op accepted")
	}
}
