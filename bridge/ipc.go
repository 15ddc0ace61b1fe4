package bridge

import (
	"sync"

	"github.com/rs/zerolog"
)

// Listener handles a message received from the content script. The argument is
// the message payload, already validated for its channel.
type Listener func(payload string)

// Subscription identifies one (channel, listener) registration so it can be
// removed individually.
type Subscription struct {
	chann Channel
	fn    Listener
}

// Channel returns the channel this subscription listens on.
func (s *Subscription) Channel() Channel { return s.chann }

// IPC routes typed messages between the app and at most one attached
// content-script context. Sending with no context attached is logged and
// dropped, never an error; receiving listeners are independent of the attached
// sender and live until forgotten or disposed.
type IPC struct {
	log zerolog.Logger

	mu        sync.Mutex
	sender    Context
	listeners map[Channel][]*Subscription
}

// New creates an empty IPC bridge.
func New(log zerolog.Logger) *IPC {
	return &IPC{
		log:       log.With().Str("component", "ipc").Logger(),
		listeners: make(map[Channel][]*Subscription),
	}
}

// Attach binds ctx as the current send target, replacing any previous one.
func (i *IPC) Attach(ctx Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.log.Debug().Str("context", ctx.ID()).Msg("attach sender context")
	i.sender = ctx
}

// Detach unbinds ctx. A detach of a context that is not the current sender is
// a no-op; a stale detach from a just-replaced window must not clobber the new
// attachment.
func (i *IPC) Detach(ctx Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.sender == nil || i.sender.ID() != ctx.ID() {
		return
	}
	i.log.Debug().Str("context", ctx.ID()).Msg("detach sender context")
	i.sender = nil
}

// Send delivers a message to the attached context. With none attached the
// message is dropped with a log entry; sending to a closed window must never
// fail the caller.
func (i *IPC) Send(chann Channel, payload string) {
	msg := Message{Channel: chann, Payload: payload}
	if err := msg.Validate(); err != nil {
		i.log.Error().Err(err).Str("channel", string(chann)).Msg("refusing to send malformed message")
		return
	}

	i.mu.Lock()
	sender := i.sender
	i.mu.Unlock()

	if sender == nil {
		i.log.Warn().Str("channel", string(chann)).Str("payload", payload).Msg("cannot send message: no sender context attached")
		return
	}
	i.log.Debug().Str("channel", string(chann)).Str("context", sender.ID()).Msg("send message")
	if err := sender.Send(msg); err != nil {
		i.log.Warn().Err(err).Str("channel", string(chann)).Msg("failed to deliver message")
	}
}

// On registers a listener for messages arriving on chann and returns its
// subscription handle.
func (i *IPC) On(chann Channel, fn Listener) *Subscription {
	sub := &Subscription{chann: chann, fn: fn}
	i.mu.Lock()
	i.listeners[chann] = append(i.listeners[chann], sub)
	i.mu.Unlock()
	i.log.Debug().Str("channel", string(chann)).Msg("listen on channel")
	return sub
}

// Forget removes a previously registered subscription. Forgetting one that is
// no longer registered is logged and ignored since multiple teardown paths may
// race to clean up the same listener.
func (i *IPC) Forget(sub *Subscription) {
	if sub == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	subs := i.listeners[sub.chann]
	for n, s := range subs {
		if s == sub {
			i.listeners[sub.chann] = append(subs[:n:n], subs[n+1:]...)
			i.log.Debug().Str("channel", string(sub.chann)).Msg("forget channel listener")
			return
		}
	}
	i.log.Warn().Str("channel", string(sub.chann)).Msg("no listener found to forget")
}

// Dispatch validates an inbound message and fans it out to the listeners
// registered for its channel. Malformed messages are dropped with a log entry;
// content-script failures never propagate as errors across the boundary.
func (i *IPC) Dispatch(msg Message) {
	if err := msg.Validate(); err != nil {
		i.log.Warn().Err(err).Msg("dropping malformed inbound message")
		return
	}

	i.mu.Lock()
	subs := append([]*Subscription(nil), i.listeners[msg.Channel]...)
	i.mu.Unlock()

	if len(subs) == 0 {
		i.log.Debug().Str("channel", string(msg.Channel)).Msg("no listener for inbound message")
		return
	}
	for _, sub := range subs {
		sub.fn(msg.Payload)
	}
}

// Dispose removes every registered listener. Idempotent.
func (i *IPC) Dispose() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.listeners = make(map[Channel][]*Subscription)
	i.log.Debug().Msg("removed all channel listeners")
}
