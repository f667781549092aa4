// Package store abstracts persistence of document state. A save must be
// atomic with respect to concurrent loads of the same document.
package store

import (
	"context"
	"errors"

	"github.com/MKJM2/cs2620-final-prototype/internal/ot"
)

// ErrNotFound is returned by Load for unknown documents.
var ErrNotFound = errors.New("document not found")

// Doc is a loaded document: its content, the number of operations
// applied since creation, and those operations in order.
type Doc struct {
	Content  string
	Revision int
	History  []*ot.Operation
}

// Store persists documents. Save replaces content and revision and
// appends the given operations to the stored history.
type Store interface {
	Load(ctx context.Context, docID string) (Doc, error)
	Save(ctx context.Context, docID, content string, revision int, appended []*ot.Operation) error
	List(ctx context.Context) ([]string, error)
}
