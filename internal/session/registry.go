package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKJM2/cs2620-final-prototype/internal/store"
)

// Registry is the process-wide docID to session map. Unknown ids are
// admitted as fresh empty documents.
type Registry struct {
	store store.Store

	mu   sync.RWMutex
	docs map[string]*Session
}

func NewRegistry(st store.Store) *Registry {
	return &Registry{
		store: st,
		docs:  make(map[string]*Session),
	}
}

// Get returns the live session for docID, loading it from the store or
// creating an empty revision-0 document on first touch.
func (r *Registry) Get(ctx context.Context, docID string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.docs[docID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	doc, err := r.store.Load(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		doc = store.Doc{}
		if err := r.store.Save(ctx, docID, "", 0, nil); err != nil {
			return nil, fmt.Errorf("create %s: %w", docID, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open %s: %w", docID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.docs[docID]; ok {
		// lost the race, keep the session that won
		return s, nil
	}
	s = New(docID, doc, r.store)
	r.docs[docID] = s
	return s, nil
}

// Seed writes initial content for a well-known document unless it
// already exists. The seeded text is the revision-0 state.
func (r *Registry) Seed(ctx context.Context, docID, text string) error {
	_, err := r.store.Load(ctx, docID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return r.store.Save(ctx, docID, text, 0, nil)
}

// List returns the known document ids.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	return r.store.List(ctx)
}
