package bridge

import "fmt"

// Channel names a typed IPC channel between the app process and the content
// script running inside the hosted page. The names are a wire contract; both
// sides must agree on them exactly.
type Channel string

// Channels sent from the app to the content script.
const (
	ChanActionAfterTweet Channel = "tweetapp:action-after-tweet"
	ChanScreenName       Channel = "tweetapp:screen-name"
	ChanOpen             Channel = "tweetapp:open"
	ChanClickTweetButton Channel = "tweetapp:click-tweet-button"
	ChanCancelTweet      Channel = "tweetapp:cancel-tweet"
	ChanSentTweet        Channel = "tweetapp:sent-tweet"
	ChanUnlinkTweet      Channel = "tweetapp:unlink-tweet"
	ChanLogin            Channel = "tweetapp:login"
)

// Channels sent from the content script to the app.
const (
	ChanPrevTweetID  Channel = "tweetapp:prev-tweet-id"
	ChanOnlineStatus Channel = "tweetapp:online-status"
	ChanExitApp      Channel = "tweetapp:exit-app"
	ChanResetWindow  Channel = "tweetapp:reset-window"
)

// Online status payload values for ChanOnlineStatus.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Message is the wire format crossing the bridge. Payloads are plain strings;
// which channels carry one is fixed by Validate.
type Message struct {
	Channel Channel `json:"channel"`
	Payload string  `json:"payload,omitempty"`
}

// Validate checks that the channel is known and its payload has the expected
// shape. Called on both ends of the bridge before a message is handled.
func (m Message) Validate() error {
	switch m.Channel {
	case ChanOpen, ChanSentTweet, ChanScreenName, ChanPrevTweetID:
		if m.Payload == "" {
			return fmt.Errorf("channel %q requires a payload", m.Channel)
		}
		return nil
	case ChanOnlineStatus:
		if m.Payload != StatusOnline && m.Payload != StatusOffline {
			return fmt.Errorf("channel %q payload must be %q or %q, got %q", m.Channel, StatusOnline, StatusOffline, m.Payload)
		}
		return nil
	case ChanActionAfterTweet:
		// Payload may be empty when no action is configured.
		return nil
	case ChanClickTweetButton, ChanCancelTweet, ChanUnlinkTweet, ChanLogin, ChanExitApp, ChanResetWindow:
		if m.Payload != "" {
			return fmt.Errorf("channel %q does not carry a payload", m.Channel)
		}
		return nil
	default:
		return fmt.Errorf("unknown channel %q", m.Channel)
	}
}

// Context is an attached content-script execution context the bridge can send
// messages to. Implemented by the websocket transport and by the platform's
// web contents.
type Context interface {
	ID() string
	Send(msg Message) error
}
