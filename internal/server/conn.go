package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MKJM2/cs2620-final-prototype/internal/ot"
	"github.com/MKJM2/cs2620-final-prototype/internal/session"
	"github.com/MKJM2/cs2620-final-prototype/internal/wire"
)

const sendBuffer = 64

// Conn is one websocket session bound to a document. It implements
// session.Subscriber: Send enqueues without blocking and a slow
// consumer loses the connection, resyncing on reconnect.
type Conn struct {
	id   string
	sess *session.Session
	sock *websocket.Conn

	send chan wire.Msg
	done chan struct{}
	once sync.Once
}

func newConn(sock *websocket.Conn, sess *session.Session) *Conn {
	return &Conn{
		id:   uuid.NewString(),
		sess: sess,
		sock: sock,
		send: make(chan wire.Msg, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) Send(msg wire.Msg) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.close()
	}
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.sock.Close()
	})
}

func (c *Conn) writeLoop() {
	for {
		select {
		case msg := <-c.send:
			if err := c.sock.WriteJSON(msg); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// interact subscribes, hands the client its initial state and serves
// pushes and pulls until the socket dies.
func (c *Conn) interact(ctx context.Context) {
	go c.writeLoop()
	defer c.close()
	defer c.sess.Unsubscribe(c.id)

	doc, rev := c.sess.Subscribe(c)
	c.Send(wire.InitialState(doc, rev))

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			return
		}

		var msg wire.Msg
		if err := json.Unmarshal(data, &msg); err != nil {
			// malformed frames are a client problem, not a session one
			c.Send(wire.Error("bad message: " + err.Error()))
			continue
		}

		switch msg.Type {
		case wire.TypePush:
			if msg.Op == nil {
				c.Send(wire.Error("push without op"))
				continue
			}
			if err := c.sess.Push(ctx, c, msg.Revision, msg.Op); err != nil {
				if !errors.Is(err, session.ErrInvalidRevision) && !errors.Is(err, ot.ErrDecode) {
					log.Printf("conn %s: push: %v", c.id, err)
				}
				c.Send(wire.Error(err.Error()))
			}
		case wire.TypePull:
			c.Send(c.sess.Pull(msg.Revision))
		default:
			c.Send(wire.Error("unknown message type " + msg.Type))
		}
	}
}
