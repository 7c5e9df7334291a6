package service

import "github.com/google/uuid"

// Listener is the consumer of delete outcomes, usually a screen.
// Exactly one of the two methods is called for every dispatched request.
type Listener interface {
	OnDeleteSuccess()
	OnDeleteFailure(err error)
}

// RequestListener is a Listener that tracks several requests at once. The
// interactor calls OnDeleteOutcome in place of OnDeleteSuccess and
// OnDeleteFailure; a nil err means success.
type RequestListener interface {
	Listener
	OnDeleteOutcome(requestID uuid.UUID, err error)
}

// ListenerFuncs adapts two plain functions to Listener. Nil functions are skipped.
type ListenerFuncs struct {
	Success func()
	Failure func(err error)
}

func (l ListenerFuncs) OnDeleteSuccess() {
	if l.Success != nil {
		l.Success()
	}
}

func (l ListenerFuncs) OnDeleteFailure(err error) {
	if l.Failure != nil {
		l.Failure(err)
	}
}

// Outcome is a single listener notification. A nil Err means success.
type Outcome struct {
	Err error
}

// ChanListener forwards outcomes to a channel for callers that block on the result.
type ChanListener chan Outcome

// NewChanListener buffers size outcomes so the delivering cell never waits on the reader.
func NewChanListener(size int) ChanListener {
	return make(ChanListener, size)
}

func (l ChanListener) OnDeleteSuccess() {
	l.send(Outcome{})
}

func (l ChanListener) OnDeleteFailure(err error) {
	l.send(Outcome{Err: err})
}

func (l ChanListener) send(o Outcome) {
	select {
	case l <- o:
	default:
		// Reader is gone; dropping beats blocking the identity cell.
	}
}
