// Package session holds the authoritative server-side state of each
// document. All pushes and pulls on one document run under its mutex,
// so there is a total order of mutating operations per document while
// different documents proceed in parallel.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"unicode/utf8"

	"github.com/MKJM2/cs2620-final-prototype/internal/ot"
	"github.com/MKJM2/cs2620-final-prototype/internal/store"
	"github.com/MKJM2/cs2620-final-prototype/internal/wire"
)

var (
	// ErrInvalidRevision is a recoverable client error: the pushed or
	// pulled revision lies outside [0, revision].
	ErrInvalidRevision = errors.New("revision out of range")

	// ErrHistoryInconsistency means a transform precondition failed
	// against stored history. The document refuses writes until it is
	// rehydrated from the store.
	ErrHistoryInconsistency = errors.New("history inconsistent")

	// ErrDegraded rejects writes on a document that previously hit an
	// inconsistency.
	ErrDegraded = errors.New("document degraded, awaiting rehydration")
)

// Subscriber receives server messages for one connected session.
// Send must not block.
type Subscriber interface {
	ID() string
	Send(msg wire.Msg)
}

// Session owns (content, revision, history) for one document.
type Session struct {
	docID string
	store store.Store

	mu       sync.Mutex
	content  string
	revision int
	history  []*ot.Operation
	subs     map[string]Subscriber
	degraded bool
}

func New(docID string, doc store.Doc, st store.Store) *Session {
	return &Session{
		docID:    docID,
		store:    st,
		content:  doc.Content,
		revision: doc.Revision,
		history:  append([]*ot.Operation(nil), doc.History...),
		subs:     make(map[string]Subscriber),
	}
}

// Subscribe registers sub for update broadcasts and returns the state
// for its InitialState message.
func (s *Session) Subscribe(sub Subscriber) (doc string, revision int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[sub.ID()] = sub
	return s.content, s.revision
}

func (s *Session) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Push serialises one client operation claimed against revision: it is
// transformed over every history entry the client had not seen, applied,
// persisted, acked to the pusher and broadcast to everyone else. The
// ack is not sent until the save succeeded; a failed save rolls the
// in-memory state back.
func (s *Session) Push(ctx context.Context, from Subscriber, revision int, op *ot.Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		return ErrDegraded
	}
	if revision < 0 || revision > s.revision {
		return fmt.Errorf("push at %d, document at %d: %w", revision, s.revision, ErrInvalidRevision)
	}

	c := op
	for i, h := range s.history[revision:] {
		if c.BaseLen() != h.BaseLen() {
			s.degrade(revision + i)
			return ErrHistoryInconsistency
		}
		// the history entry was serialised first, so it goes in as the
		// first argument and only the transformed client op survives
		_, c2, err := ot.Transform(h, c)
		if err != nil {
			s.degrade(revision + i)
			return ErrHistoryInconsistency
		}
		c = c2
	}

	if c.BaseLen() != utf8.RuneCountInString(s.content) {
		s.degrade(s.revision)
		return ErrHistoryInconsistency
	}
	applied, err := c.Apply(s.content)
	if err != nil {
		s.degrade(s.revision)
		return ErrHistoryInconsistency
	}

	prevContent := s.content
	s.content = applied
	s.revision++
	s.history = append(s.history, c)

	if err := s.store.Save(ctx, s.docID, s.content, s.revision, []*ot.Operation{c}); err != nil {
		s.content = prevContent
		s.revision--
		s.history = s.history[:len(s.history)-1]
		return fmt.Errorf("persist %s: %w", s.docID, err)
	}

	from.Send(wire.Ack(s.revision))
	update := wire.Update(s.revision, c)
	for id, sub := range s.subs {
		if id == from.ID() {
			continue
		}
		sub.Send(update)
	}
	return nil
}

// Pull returns the history since revision. An out-of-range revision
// gets the entire history as a full reset, startRevision 1.
func (s *Session) Pull(revision int) wire.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()

	if revision < 0 || revision > s.revision {
		return wire.History(1, append([]*ot.Operation(nil), s.history...), s.revision, s.content)
	}
	ops := append([]*ot.Operation(nil), s.history[revision:]...)
	return wire.History(revision+1, ops, s.revision, s.content)
}

// Snapshot returns the current content and revision.
func (s *Session) Snapshot() (string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content, s.revision
}

// Rehydrate reloads the document from the store and lifts the degraded
// flag.
func (s *Session) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.store.Load(ctx, s.docID)
	if err != nil {
		return fmt.Errorf("rehydrate %s: %w", s.docID, err)
	}
	s.content = doc.Content
	s.revision = doc.Revision
	s.history = append([]*ot.Operation(nil), doc.History...)
	s.degraded = false
	return nil
}

func (s *Session) degrade(at int) {
	s.degraded = true
	log.Printf("doc %s degraded: transform precondition failed near revision %d", s.docID, at)
}
