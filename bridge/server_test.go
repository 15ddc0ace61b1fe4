package bridge

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestServer(t *testing.T) (*Server, *IPC) {
	t.Helper()
	ipc := New(zerolog.Nop())
	server, err := NewServer(ipc, zerolog.Nop())
	require.NoError(t, err)
	go func() { _ = server.Serve() }()
	t.Cleanup(server.Close)
	return server, ipc
}

func TestServerRoundTrip(t *testing.T) {
	server, ipc := startTestServer(t)

	inbound := make(chan string, 1)
	ipc.On(ChanPrevTweetID, func(payload string) { inbound <- payload })

	client, err := Dial(server.URL(), zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	outbound := make(chan string, 1)
	client.On(ChanOpen, func(payload string) { outbound <- payload })
	go func() { _ = client.Run() }()

	// Content script to app.
	require.NoError(t, client.Send(Message{Channel: ChanPrevTweetID, Payload: "114514"}))
	select {
	case got := <-inbound:
		assert.Equal(t, "114514", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound message")
	}

	// App to content script. The connection became the attached sender, but
	// attachment happens on the server goroutine so wait for it.
	require.Eventually(t, func() bool {
		ipc.Send(ChanOpen, "https://mobile.twitter.com/compose/tweet")
		select {
		case got := <-outbound:
			return got == "https://mobile.twitter.com/compose/tweet"
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServerDropsMalformedInbound(t *testing.T) {
	server, ipc := startTestServer(t)

	inbound := make(chan string, 1)
	ipc.On(ChanPrevTweetID, func(payload string) { inbound <- payload })

	client, err := Dial(server.URL(), zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	// The client refuses to send a malformed message in the first place.
	assert.Error(t, client.Send(Message{Channel: ChanPrevTweetID}))

	require.NoError(t, client.Send(Message{Channel: ChanPrevTweetID, Payload: "1"}))
	select {
	case got := <-inbound:
		assert.Equal(t, "1", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for inbound message")
	}
}

func TestServerDisconnectDetachesSender(t *testing.T) {
	server, ipc := startTestServer(t)

	client, err := Dial(server.URL(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, client.Send(Message{Channel: ChanExitApp}))
	require.NoError(t, client.Close())

	// After disconnect the send is dropped rather than delivered; nothing to
	// observe beyond it not panicking.
	time.Sleep(50 * time.Millisecond)
	ipc.Send(ChanOpen, "https://mobile.twitter.com/compose/tweet")
}
