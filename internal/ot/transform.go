package ot

import "fmt"

// Transform reconciles two concurrent operations over the same base
// document. It returns (a', b') such that a.Compose(b') equals
// b.Compose(a'), and applying either composition to the base yields the
// same document.
//
// When both operations insert at the same position, a's insert lands
// first. Callers must therefore pass the operation that was serialised
// earlier as a: the server passes the history entry first, the client
// passes the incoming server operation first.
func Transform(a, b *Operation) (*Operation, *Operation, error) {
	if a.baseLen != b.baseLen {
		return nil, nil, fmt.Errorf("transform: base %d vs %d: %w", a.baseLen, b.baseLen, ErrLengthMismatch)
	}

	ap, bp := New(), New()
	as, bs := a.comps, b.comps
	var i, j int
	x := head(as, &i)
	y := head(bs, &j)

	for {
		if x == nil && y == nil {
			return ap, bp, nil
		}

		if ins, ok := x.(Insert); ok {
			ap.Insert(string(ins))
			bp.Retain(insertLen(ins))
			x = head(as, &i)
			continue
		}
		if ins, ok := y.(Insert); ok {
			ap.Retain(insertLen(ins))
			bp.Insert(string(ins))
			y = head(bs, &j)
			continue
		}

		if x == nil || y == nil {
			return nil, nil, fmt.Errorf("transform: residual components: %w", ErrLengthMismatch)
		}

		switch xv := x.(type) {
		case Retain:
			switch yv := y.(type) {
			case Retain:
				m := minInt(int(xv), int(yv))
				ap.Retain(m)
				bp.Retain(m)
				x, y = shrinkRetain(xv, m, as, &i), shrinkRetain(yv, m, bs, &j)
			case Delete:
				m := minInt(int(xv), int(yv))
				bp.Delete(m)
				x, y = shrinkRetain(xv, m, as, &i), shrinkDelete(yv, m, bs, &j)
			}
		case Delete:
			switch yv := y.(type) {
			case Retain:
				m := minInt(int(xv), int(yv))
				ap.Delete(m)
				x, y = shrinkDelete(xv, m, as, &i), shrinkRetain(yv, m, bs, &j)
			case Delete:
				// both sides removed the same text
				m := minInt(int(xv), int(yv))
				x, y = shrinkDelete(xv, m, as, &i), shrinkDelete(yv, m, bs, &j)
			}
		}
	}
}
