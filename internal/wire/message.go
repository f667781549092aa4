// Package wire defines the message envelopes exchanged between client
// and server. Operations ride inside them in the compact array form
// implemented by the ot package.
package wire

import "github.com/MKJM2/cs2620-final-prototype/internal/ot"

const (
	TypePush         = "Push"
	TypePull         = "Pull"
	TypeAck          = "Ack"
	TypeUpdate       = "Update"
	TypeHistory      = "History"
	TypeInitialState = "InitialState"
	TypeError        = "Error"
)

// Msg is the single envelope for every message. Type selects which
// fields are meaningful.
type Msg struct {
	Type     string        `json:"type"`
	Revision int           `json:"revision,omitempty"`
	Op       *ot.Operation `json:"op,omitempty"`

	// History
	StartRevision   int             `json:"startRevision,omitempty"`
	Ops             []*ot.Operation `json:"ops,omitempty"`
	CurrentRevision int             `json:"currentRevision,omitempty"`
	CurrentDocState string          `json:"currentDocState,omitempty"`

	// InitialState
	Doc string `json:"doc,omitempty"`

	// Error
	Message string `json:"message,omitempty"`
}

func Push(revision int, op *ot.Operation) Msg {
	return Msg{Type: TypePush, Revision: revision, Op: op}
}

func Pull(revision int) Msg {
	return Msg{Type: TypePull, Revision: revision}
}

func Ack(revision int) Msg {
	return Msg{Type: TypeAck, Revision: revision}
}

func Update(revision int, op *ot.Operation) Msg {
	return Msg{Type: TypeUpdate, Revision: revision, Op: op}
}

func History(start int, ops []*ot.Operation, current int, doc string) Msg {
	return Msg{
		Type:            TypeHistory,
		StartRevision:   start,
		Ops:             ops,
		CurrentRevision: current,
		CurrentDocState: doc,
	}
}

func InitialState(doc string, revision int) Msg {
	return Msg{Type: TypeInitialState, Doc: doc, Revision: revision}
}

func Error(message string) Msg {
	return Msg{Type: TypeError, Message: message}
}
