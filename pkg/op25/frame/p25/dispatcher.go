package p25

import "sync/atomic"

// MessageHandler consumes dispatched messages.  It is called on the decoding
// goroutine.
type MessageHandler interface {
	HandleMessage(*Message)
}

type MessageHandlerFunc func(*Message)

func (f MessageHandlerFunc) HandleMessage(m *Message) {
	f(m)
}

// Dispatcher forwards valid messages in completion order.  Voice frames are
// forwarded even when invalid so a call's audio stream never has holes.
type Dispatcher struct {
	handler   MessageHandler
	forwarded atomic.Uint64
	dropped   atomic.Uint64
}

func NewDispatcher(handler MessageHandler) *Dispatcher {
	return &Dispatcher{handler: handler}
}

func shouldForward(m *Message) bool {
	return m.Valid || m.FrameType.IsVoice()
}

// Dispatch reports whether the message was handed on.
func (d *Dispatcher) Dispatch(m *Message) bool {
	if !shouldForward(m) {
		d.dropped.Add(1)
		return false
	}
	d.forwarded.Add(1)
	if d.handler != nil {
		d.handler.HandleMessage(m)
	}
	return true
}

func (d *Dispatcher) Forwarded() uint64 {
	return d.forwarded.Load()
}

func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}
