package bridge

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingContext struct {
	id   string
	sent []Message
	err  error
}

func (c *recordingContext) ID() string { return c.id }

func (c *recordingContext) Send(msg Message) error {
	c.sent = append(c.sent, msg)
	return c.err
}

func newTestIPC() *IPC {
	return New(zerolog.Nop())
}

func TestIPCSendToAttachedContext(t *testing.T) {
	ipc := newTestIPC()
	ctx := &recordingContext{id: "a"}
	ipc.Attach(ctx)

	ipc.Send(ChanOpen, "https://mobile.twitter.com/compose/tweet")

	require.Len(t, ctx.sent, 1)
	assert.Equal(t, ChanOpen, ctx.sent[0].Channel)
	assert.Equal(t, "https://mobile.twitter.com/compose/tweet", ctx.sent[0].Payload)
}

func TestIPCSendWithoutContextIsDropped(t *testing.T) {
	ipc := newTestIPC()
	// Must not panic or fail; the message is logged and dropped.
	ipc.Send(ChanOpen, "https://mobile.twitter.com/compose/tweet")
}

func TestIPCSendMalformedIsDropped(t *testing.T) {
	ipc := newTestIPC()
	ctx := &recordingContext{id: "a"}
	ipc.Attach(ctx)

	ipc.Send(ChanOpen, "")
	ipc.Send(ChanLogin, "unexpected")

	assert.Empty(t, ctx.sent)
}

func TestIPCAttachReplacesSender(t *testing.T) {
	ipc := newTestIPC()
	first := &recordingContext{id: "a"}
	second := &recordingContext{id: "b"}

	ipc.Attach(first)
	ipc.Attach(second)
	ipc.Send(ChanScreenName, "Linda_pp")

	assert.Empty(t, first.sent)
	require.Len(t, second.sent, 1)
}

func TestIPCStaleDetachKeepsNewSender(t *testing.T) {
	ipc := newTestIPC()
	old := &recordingContext{id: "old"}
	fresh := &recordingContext{id: "fresh"}

	ipc.Attach(old)
	ipc.Attach(fresh)
	// The old window's teardown races the new window's attach; its detach
	// must not clobber the fresh context.
	ipc.Detach(old)

	ipc.Send(ChanScreenName, "Linda_pp")
	require.Len(t, fresh.sent, 1)
}

func TestIPCDetachCurrentSender(t *testing.T) {
	ipc := newTestIPC()
	ctx := &recordingContext{id: "a"}
	ipc.Attach(ctx)
	ipc.Detach(ctx)

	ipc.Send(ChanScreenName, "Linda_pp")
	assert.Empty(t, ctx.sent)
}

func TestIPCDispatchFansOut(t *testing.T) {
	ipc := newTestIPC()
	var got []string
	ipc.On(ChanPrevTweetID, func(payload string) { got = append(got, "first:"+payload) })
	ipc.On(ChanPrevTweetID, func(payload string) { got = append(got, "second:"+payload) })

	ipc.Dispatch(Message{Channel: ChanPrevTweetID, Payload: "114514"})

	assert.Equal(t, []string{"first:114514", "second:114514"}, got)
}

func TestIPCDispatchMalformedIsDropped(t *testing.T) {
	ipc := newTestIPC()
	called := false
	ipc.On(ChanPrevTweetID, func(string) { called = true })

	ipc.Dispatch(Message{Channel: ChanPrevTweetID})
	ipc.Dispatch(Message{Channel: "tweetapp:nope", Payload: "x"})

	assert.False(t, called)
}

func TestIPCForget(t *testing.T) {
	ipc := newTestIPC()
	var calls int
	sub := ipc.On(ChanResetWindow, func(string) { calls++ })
	keep := ipc.On(ChanResetWindow, func(string) {})

	ipc.Forget(sub)
	ipc.Dispatch(Message{Channel: ChanResetWindow})
	assert.Zero(t, calls)

	// Forgetting again, or forgetting nil, is ignored.
	ipc.Forget(sub)
	ipc.Forget(nil)
	_ = keep
}

func TestIPCDisposeRemovesAllListeners(t *testing.T) {
	ipc := newTestIPC()
	var calls int
	ipc.On(ChanExitApp, func(string) { calls++ })
	ipc.On(ChanResetWindow, func(string) { calls++ })

	ipc.Dispose()
	ipc.Dispatch(Message{Channel: ChanExitApp})
	ipc.Dispatch(Message{Channel: ChanResetWindow})
	assert.Zero(t, calls)

	ipc.Dispose()
}

func TestIPCListenersSurviveDetach(t *testing.T) {
	ipc := newTestIPC()
	ctx := &recordingContext{id: "a"}
	var got string
	ipc.On(ChanPrevTweetID, func(payload string) { got = payload })

	ipc.Attach(ctx)
	ipc.Detach(ctx)
	ipc.Dispatch(Message{Channel: ChanPrevTweetID, Payload: "42"})

	assert.Equal(t, "42", got)
}
