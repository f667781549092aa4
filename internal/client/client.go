// Package client implements the synchronisation state machine that sits
// between a local editor and the server. Local edits compose into a
// buffered operation, a periodic push sends it, and remote updates are
// transformed over whatever is outstanding or buffered so every replica
// converges on the server's document.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MKJM2/cs2620-final-prototype/internal/ot"
)

// State of the sync machine.
type State int

const (
	Initializing State = iota
	Synchronized
	Dirty
	AwaitingPush
	AwaitingPull
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case Synchronized:
		return "Synchronized"
	case Dirty:
		return "Dirty"
	case AwaitingPush:
		return "AwaitingPush"
	case AwaitingPull:
		return "AwaitingPull"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Transport carries client messages to the server. Implementations must
// not block; both methods may be called while client state is locked.
type Transport interface {
	Push(revision int, op *ot.Operation)
	Pull(revision int)
}

// ErrNotReady is returned for edits made before the initial state
// arrived.
var ErrNotReady = errors.New("client not initialised")

// ErrBadEdit is returned for editor deltas outside the document bounds.
var ErrBadEdit = errors.New("edit out of bounds")

type queuedUpdate struct {
	revision int
	op       *ot.Operation
}

// Client holds the per-connection sync state. All methods are safe to
// call from editor callbacks, timer ticks and socket readers; the whole
// state sits behind one mutex.
type Client struct {
	mu sync.Mutex

	transport Transport

	// OnChange, if set, is called with the new visible document after a
	// remote change lands. Local edits do not trigger it. It runs with
	// the state lock held, so keep it cheap and do not call back in.
	OnChange func(doc string)

	state       State
	synced      string // server content at serverRev
	virtual     string // synced + outstanding + buffered, the editor view
	serverRev   int
	outstanding *ot.Operation
	buffered    *ot.Operation
	queue       []queuedUpdate // updates deferred while AwaitingPull
}

func New(t Transport) *Client {
	return &Client{
		transport: t,
		state:     Initializing,
	}
}

// State returns the current machine state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Value returns the editor-visible document.
func (c *Client) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.virtual
}

// Revision returns the last known server revision.
func (c *Client) Revision() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverRev
}

// HandleInitialState installs the server's ground truth. On a
// reconnect this discards any outstanding or buffered edits.
func (c *Client) HandleInitialState(doc string, revision int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.synced = doc
	c.virtual = doc
	c.serverRev = revision
	c.outstanding = nil
	c.buffered = nil
	c.queue = nil
	c.state = Synchronized
	c.changed()
}

// Edit folds one editor delta into the buffered operation: delete del
// characters at pos, insert ins there. The visible document updates
// immediately; the edit travels on the next push.
func (c *Client) Edit(pos, del int, ins string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Initializing {
		return ErrNotReady
	}
	docLen := utf8.RuneCountInString(c.virtual)
	if pos < 0 || del < 0 || pos+del > docLen {
		return fmt.Errorf("edit at %d..%d of %d: %w", pos, pos+del, docLen, ErrBadEdit)
	}

	d := ot.NewEdit(docLen, pos, del, ins)
	if d.IsNoop() {
		return nil
	}

	if c.buffered == nil {
		c.buffered = d
	} else {
		composed, err := c.buffered.Compose(d)
		if err != nil {
			c.pull()
			return err
		}
		c.buffered = composed
	}

	virtual, err := d.Apply(c.virtual)
	if err != nil {
		c.pull()
		return err
	}
	c.virtual = virtual

	if c.buffered.IsNoop() {
		c.buffered = nil
	}
	// pushes and pulls in flight keep their state
	if c.state == Synchronized || c.state == Dirty {
		c.reevaluate()
	}
	return nil
}

// Flush snapshots the buffered operation into the outstanding slot and
// pushes it. It is the push-tick body and may also be called directly
// for a user-triggered push.
func (c *Client) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Synchronized && c.state != Dirty {
		return
	}
	if c.buffered == nil || c.buffered.IsNoop() {
		return
	}

	c.outstanding = c.buffered
	c.buffered = nil
	c.state = AwaitingPush
	c.transport.Push(c.serverRev, c.outstanding)
}

// AutoPush runs Flush on the given interval until ctx is cancelled.
func (c *Client) AutoPush(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Flush()
		}
	}
}

// HandleAck confirms the outstanding push: the server applied it as the
// acked revision.
func (c *Client) HandleAck(revision int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != AwaitingPush || c.outstanding == nil {
		c.pull()
		return
	}
	if revision != c.serverRev+1 {
		c.pull()
		return
	}

	// outstanding has been re-transformed by every update received
	// since the push, so it now equals the op the server applied
	synced, err := c.outstanding.Apply(c.synced)
	if err != nil {
		c.pull()
		return
	}
	c.synced = synced
	c.outstanding = nil
	c.serverRev = revision
	c.reevaluate()
}

// HandleUpdate folds a broadcast operation from another client into
// local state. Updates arriving during a pull wait in the queue; an
// out-of-order revision or a failed transform triggers a pull.
func (c *Client) HandleUpdate(revision int, op *ot.Operation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Initializing:
		// ground truth arrives with InitialState
		return
	case AwaitingPull:
		c.queue = append(c.queue, queuedUpdate{revision, op})
		return
	}

	if err := c.applyUpdate(revision, op); err != nil {
		c.pull()
		return
	}
	c.reevaluate()
	c.changed()
}

// HandleHistory resolves a pull. If the history does not line up with
// the local revision, or any transform fails, the authoritative
// document state replaces everything local.
func (c *Client) HandleHistory(start int, ops []*ot.Operation, currentRev int, currentDoc string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != AwaitingPull {
		return
	}

	if start != c.serverRev+1 {
		c.reset(currentDoc, currentRev)
		return
	}
	for i, op := range ops {
		if err := c.applyUpdate(start+i, op); err != nil {
			c.reset(currentDoc, currentRev)
			return
		}
	}

	// drain updates that arrived while the pull was in flight; entries
	// at or below the history's end are already accounted for
	queue := c.queue
	c.queue = nil
	for _, u := range queue {
		if u.revision <= c.serverRev {
			continue
		}
		if err := c.applyUpdate(u.revision, u.op); err != nil {
			c.reset(currentDoc, currentRev)
			return
		}
	}

	c.reevaluate()
	c.changed()
}

// HandleError reacts to a server-side protocol error by pulling; the
// returned history decides whether local state survives.
func (c *Client) HandleError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pull()
}

// applyUpdate is the transform core shared by update handling, queue
// draining and history application. The incoming op is based on the
// server content at serverRev, which is exactly synced; it advances
// synced first and is then transformed over outstanding and buffered
// for the editor view.
func (c *Client) applyUpdate(revision int, op *ot.Operation) error {
	if revision != c.serverRev+1 {
		return fmt.Errorf("update %d while at %d: %w", revision, c.serverRev, ot.ErrLengthMismatch)
	}
	s := op
	if s.BaseLen() != utf8.RuneCountInString(c.synced) {
		return ot.ErrLengthMismatch
	}
	synced, err := s.Apply(c.synced)
	if err != nil {
		return err
	}

	// nothing is committed until every step succeeds
	outstanding, buffered := c.outstanding, c.buffered
	if outstanding != nil {
		if outstanding.BaseLen() != s.BaseLen() {
			return ot.ErrLengthMismatch
		}
		// the server op was serialised before our outstanding push
		s, outstanding, err = ot.Transform(s, outstanding)
		if err != nil {
			return err
		}
	}
	if buffered != nil {
		if buffered.BaseLen() != s.BaseLen() {
			return ot.ErrLengthMismatch
		}
		s, buffered, err = ot.Transform(s, buffered)
		if err != nil {
			return err
		}
	}

	virtual, err := s.Apply(c.virtual)
	if err != nil {
		return err
	}

	c.synced = synced
	c.virtual = virtual
	c.outstanding = outstanding
	c.buffered = buffered
	c.serverRev = revision
	return nil
}

// reset replaces all local state with the authoritative document. Any
// unsent local edits are lost, which the editor shows as a revert.
func (c *Client) reset(doc string, revision int) {
	c.synced = doc
	c.virtual = doc
	c.serverRev = revision
	c.outstanding = nil
	c.buffered = nil
	c.queue = nil
	c.state = Synchronized
	c.changed()
}

// pull transitions to AwaitingPull and requests history. Auto-push is
// paused by the state itself: Flush only fires from Synchronized or
// Dirty.
//
// An in-flight push can no longer be tracked once the pull starts, so
// its edits fold back into the buffer and resend after the history
// resolves, the same way a reconnect folds an implicitly cancelled
// push.
func (c *Client) pull() {
	if c.state == AwaitingPull {
		return
	}
	if c.outstanding != nil {
		if c.buffered == nil {
			c.buffered = c.outstanding
		} else if composed, err := c.outstanding.Compose(c.buffered); err == nil {
			c.buffered = composed
		} else {
			// pending edits are already unrecoverable, let the
			// history reset decide
			c.buffered = nil
			c.virtual = c.synced
		}
		c.outstanding = nil
	}
	c.state = AwaitingPull
	c.transport.Pull(c.serverRev)
}

func (c *Client) reevaluate() {
	switch {
	case c.outstanding != nil:
		c.state = AwaitingPush
	case c.buffered != nil || c.virtual != c.synced:
		c.state = Dirty
	default:
		c.state = Synchronized
	}
}

func (c *Client) changed() {
	if c.OnChange != nil {
		c.OnChange(c.virtual)
	}
}
