package ot

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Component is a single step of an operation. There are exactly three
// kinds: Retain advances the cursor over base text, Insert emits new
// text, Delete consumes base text without emitting it.
type Component interface {
	isComponent()
}

// Retain keeps n characters of the base document.
type Retain int

// Insert adds text at the cursor.
type Insert string

// Delete removes n characters of the base document.
type Delete int

func (Retain) isComponent() {}
func (Insert) isComponent() {}
func (Delete) isComponent() {}

// Operation is a canonical sequence of components turning a document of
// BaseLen characters into one of TargetLen characters. All lengths and
// positions count runes, not bytes.
//
// Canonical form: no zero-length component, no two adjacent components
// of the same kind, and a Delete is never immediately followed by an
// Insert (the builder slides inserts in front of a trailing delete).
type Operation struct {
	comps     []Component
	baseLen   int
	targetLen int
}

// New returns an empty operation.
func New() *Operation {
	return &Operation{}
}

// BaseLen is the required length of a document this operation applies to.
func (o *Operation) BaseLen() int { return o.baseLen }

// TargetLen is the length of the document after applying this operation.
func (o *Operation) TargetLen() int { return o.targetLen }

// Components returns the canonical component sequence.
func (o *Operation) Components() []Component {
	return append([]Component(nil), o.comps...)
}

// Retain appends a retain of n characters. n must not be negative.
func (o *Operation) Retain(n int) *Operation {
	if n < 0 {
		panic(fmt.Sprintf("ot: negative retain %d", n))
	}
	if n == 0 {
		return o
	}
	o.baseLen += n
	o.targetLen += n

	if l := len(o.comps); l > 0 {
		if r, ok := o.comps[l-1].(Retain); ok {
			o.comps[l-1] = r + Retain(n)
			return o
		}
	}
	o.comps = append(o.comps, Retain(n))
	return o
}

// Insert appends an insertion of s.
func (o *Operation) Insert(s string) *Operation {
	if s == "" {
		return o
	}
	o.targetLen += utf8.RuneCountInString(s)

	l := len(o.comps)
	if l > 0 {
		if ins, ok := o.comps[l-1].(Insert); ok {
			o.comps[l-1] = Insert(string(ins) + s)
			return o
		}
		if _, ok := o.comps[l-1].(Delete); ok {
			// inserts go in front of an adjacent delete so the pair
			// always reads insert-then-delete
			if l > 1 {
				if ins, ok := o.comps[l-2].(Insert); ok {
					o.comps[l-2] = Insert(string(ins) + s)
					return o
				}
			}
			o.comps = append(o.comps, nil)
			copy(o.comps[l:], o.comps[l-1:])
			o.comps[l-1] = Insert(s)
			return o
		}
	}
	o.comps = append(o.comps, Insert(s))
	return o
}

// Delete appends a deletion of n characters. n must not be negative.
func (o *Operation) Delete(n int) *Operation {
	if n < 0 {
		panic(fmt.Sprintf("ot: negative delete %d", n))
	}
	if n == 0 {
		return o
	}
	o.baseLen += n

	if l := len(o.comps); l > 0 {
		if d, ok := o.comps[l-1].(Delete); ok {
			o.comps[l-1] = d + Delete(n)
			return o
		}
	}
	o.comps = append(o.comps, Delete(n))
	return o
}

// NewEdit builds the operation for an editor delta on a document of
// docLen characters: delete del characters at pos, then insert ins there.
func NewEdit(docLen, pos, del int, ins string) *Operation {
	return New().Retain(pos).Delete(del).Insert(ins).Retain(docLen - pos - del)
}

// Apply runs the operation over doc and returns the new document.
func (o *Operation) Apply(doc string) (string, error) {
	runes := []rune(doc)
	if len(runes) != o.baseLen {
		return "", fmt.Errorf("apply: doc length %d, operation base %d: %w", len(runes), o.baseLen, ErrLengthMismatch)
	}

	var b strings.Builder
	i := 0
	for _, c := range o.comps {
		switch c := c.(type) {
		case Retain:
			if i+int(c) > len(runes) {
				return "", fmt.Errorf("apply: retain past end: %w", ErrLengthMismatch)
			}
			b.WriteString(string(runes[i : i+int(c)]))
			i += int(c)
		case Insert:
			b.WriteString(string(c))
		case Delete:
			if i+int(c) > len(runes) {
				return "", fmt.Errorf("apply: delete past end: %w", ErrLengthMismatch)
			}
			i += int(c)
		}
	}
	if i != len(runes) {
		return "", fmt.Errorf("apply: %d characters left unconsumed: %w", len(runes)-i, ErrLengthMismatch)
	}
	return b.String(), nil
}

// Invert returns the operation that undoes o when applied to the result
// of o. doc must be the document o applies to.
func (o *Operation) Invert(doc string) (*Operation, error) {
	runes := []rune(doc)
	if len(runes) != o.baseLen {
		return nil, fmt.Errorf("invert: doc length %d, operation base %d: %w", len(runes), o.baseLen, ErrLengthMismatch)
	}

	inv := New()
	i := 0
	for _, c := range o.comps {
		switch c := c.(type) {
		case Retain:
			inv.Retain(int(c))
			i += int(c)
		case Insert:
			inv.Delete(utf8.RuneCountInString(string(c)))
		case Delete:
			inv.Insert(string(runes[i : i+int(c)]))
			i += int(c)
		}
	}
	return inv, nil
}

// IsNoop reports whether the operation changes nothing: it is empty or
// a single retain.
func (o *Operation) IsNoop() bool {
	if len(o.comps) == 0 {
		return true
	}
	if len(o.comps) == 1 {
		_, ok := o.comps[0].(Retain)
		return ok
	}
	return false
}

// Equals reports canonical-sequence equality.
func (o *Operation) Equals(other *Operation) bool {
	if o.baseLen != other.baseLen || o.targetLen != other.targetLen {
		return false
	}
	if len(o.comps) != len(other.comps) {
		return false
	}
	for i, c := range o.comps {
		if c != other.comps[i] {
			return false
		}
	}
	return true
}

func (o *Operation) String() string {
	var b strings.Builder
	for i, c := range o.comps {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch c := c.(type) {
		case Retain:
			fmt.Fprintf(&b, "retain(%d)", int(c))
		case Insert:
			fmt.Fprintf(&b, "insert(%q)", string(c))
		case Delete:
			fmt.Fprintf(&b, "delete(%d)", int(c))
		}
	}
	return b.String()
}
