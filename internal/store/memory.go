package store

import (
	"context"
	"sort"
	"sync"

	"github.com/MKJM2/cs2620-final-prototype/internal/ot"
)

// Memory is an in-process store, used in tests and for running without
// a backend.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Doc
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]Doc)}
}

func (m *Memory) Load(_ context.Context, docID string) (Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.docs[docID]
	if !ok {
		return Doc{}, ErrNotFound
	}
	d.History = append([]*ot.Operation(nil), d.History...)
	return d, nil
}

func (m *Memory) Save(_ context.Context, docID, content string, revision int, appended []*ot.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.docs[docID]
	d.Content = content
	d.Revision = revision
	d.History = append(d.History, appended...)
	m.docs[docID] = d
	return nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
