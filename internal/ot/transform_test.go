package ot

import (
	"math/rand"
	"testing"
)

func TestTransformDisjointInserts(t *testing.T) {
	a := New().Retain(1).Insert("X").Retain(5)
	b := New().Retain(4).Insert("Y").Retain(2)

	ap, bp, err := Transform(a, b)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	one, err := a.Compose(bp)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	got, err := one.Apply("abcdef")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "aXbcdYef" {
		t.Fatalf("converged to %q, want %q", got, "aXbcdYef")
	}

	two, err := b.Compose(ap)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !one.Equals(two) {
		t.Fatalf("compositions differ: %v vs %v", one, two)
	}
}

func TestTransformOverlappingDeletes(t *testing.T) {
	// "abcdef": a deletes "bcd", b deletes "cde"; only "af" survives
	a := New().Retain(1).Delete(3).Retain(2)
	b := New().Retain(2).Delete(3).Retain(1)

	ap, bp, err := Transform(a, b)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	// b transformed over a deletes the one char a left behind
	wantBp := New().Retain(1).Delete(1).Retain(1)
	if !bp.Equals(wantBp) {
		t.Fatalf("b' = %v, want %v", bp, wantBp)
	}

	one, err := a.Compose(bp)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	got, err := one.Apply("abcdef")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "af" {
		t.Fatalf("converged to %q, want %q", got, "af")
	}

	two, err := b.Compose(ap)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !one.Equals(two) {
		t.Fatalf("compositions differ: %v vs %v", one, two)
	}
}

// when both sides insert at the same position, a's insert
// lands first in both converged documents
func TestTransformInsertTieBreak(t *testing.T) {
	a := New().Insert("A")
	b := New().Insert("B")

	ap, bp, err := Transform(a, b)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	one, err := a.Compose(bp)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	got, err := one.Apply("")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "AB" {
		t.Fatalf("a-side converged to %q, want %q", got, "AB")
	}

	two, err := b.Compose(ap)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	got, err = two.Apply("")
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got != "AB" {
		t.Fatalf("b-side converged to %q, want %q", got, "AB")
	}
}

func TestTransformBaseMismatch(t *testing.T) {
	if _, _, err := Transform(New().Retain(2), New().Retain(3)); err == nil {
		t.Fatal("Transform() accepted mismatched bases")
	}
}

// transformed pairs converge, structurally and when
// applied
func TestTransformConvergence(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 300; i++ {
		doc := randDoc(r, r.Intn(40))
		a := randOp(r, doc)
		b := randOp(r, doc)

		ap, bp, err := Transform(a, b)
		if err != nil {
			t.Fatalf("Transform() error = %v (a %v, b %v)", err, a, b)
		}
		if ap.BaseLen() != b.TargetLen() || bp.BaseLen() != a.TargetLen() {
			t.Fatalf("transformed bases (%d, %d), want (%d, %d)",
				ap.BaseLen(), bp.BaseLen(), b.TargetLen(), a.TargetLen())
		}

		one, err := a.Compose(bp)
		if err != nil {
			t.Fatalf("Compose() error = %v", err)
		}
		two, err := b.Compose(ap)
		if err != nil {
			t.Fatalf("Compose() error = %v", err)
		}
		if !one.Equals(two) {
			t.Fatalf("compositions differ (a %v, b %v): %v vs %v", a, b, one, two)
		}

		left, err := one.Apply(doc)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		right, err := two.Apply(doc)
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if left != right {
			t.Fatalf("diverged: %q vs %q (a %v, b %v over %q)", left, right, a, b, doc)
		}
	}
}
