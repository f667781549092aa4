package ot

import (
	"fmt"
	"unicode/utf8"
)

// Compose fuses a followed by b into a single operation, so that for
// every valid doc, composed.Apply(doc) == b.Apply(a.Apply(doc)).
// Requires a.TargetLen() == b.BaseLen().
func (a *Operation) Compose(b *Operation) (*Operation, error) {
	if a.targetLen != b.baseLen {
		return nil, fmt.Errorf("compose: target %d vs base %d: %w", a.targetLen, b.baseLen, ErrLengthMismatch)
	}

	out := New()
	as, bs := a.comps, b.comps
	var i, j int
	x := head(as, &i)
	y := head(bs, &j)

	for {
		if x == nil && y == nil {
			return out, nil
		}

		// a's deletes consume base text b never sees
		if d, ok := x.(Delete); ok {
			out.Delete(int(d))
			x = head(as, &i)
			continue
		}
		// b's inserts emit text a never produced
		if ins, ok := y.(Insert); ok {
			out.Insert(string(ins))
			y = head(bs, &j)
			continue
		}

		if x == nil || y == nil {
			return nil, fmt.Errorf("compose: residual components: %w", ErrLengthMismatch)
		}

		switch xv := x.(type) {
		case Retain:
			yd, isDel := y.(Delete)
			yr, _ := y.(Retain)
			switch {
			case isDel:
				m := minInt(int(xv), int(yd))
				out.Delete(m)
				x, y = shrinkRetain(xv, m, as, &i), shrinkDelete(yd, m, bs, &j)
			default:
				m := minInt(int(xv), int(yr))
				out.Retain(m)
				x, y = shrinkRetain(xv, m, as, &i), shrinkRetain(yr, m, bs, &j)
			}
		case Insert:
			runes := []rune(string(xv))
			switch yv := y.(type) {
			case Delete:
				// the second pass deletes freshly inserted text
				m := minInt(len(runes), int(yv))
				x, y = shrinkInsert(runes, m, as, &i), shrinkDelete(yv, m, bs, &j)
			case Retain:
				m := minInt(len(runes), int(yv))
				out.Insert(string(runes[:m]))
				x, y = shrinkInsert(runes, m, as, &i), shrinkRetain(yv, m, bs, &j)
			}
		}
	}
}

func head(comps []Component, i *int) Component {
	if *i >= len(comps) {
		return nil
	}
	c := comps[*i]
	*i++
	return c
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func shrinkRetain(r Retain, m int, comps []Component, i *int) Component {
	if int(r) > m {
		return r - Retain(m)
	}
	return head(comps, i)
}

func shrinkDelete(d Delete, m int, comps []Component, i *int) Component {
	if int(d) > m {
		return d - Delete(m)
	}
	return head(comps, i)
}

func shrinkInsert(runes []rune, m int, comps []Component, i *int) Component {
	if len(runes) > m {
		return Insert(string(runes[m:]))
	}
	return head(comps, i)
}

func insertLen(ins Insert) int {
	return utf8.RuneCountInString(string(ins))
}
