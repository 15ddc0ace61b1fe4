package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageValidate(t *testing.T) {
	t.Run("payload required", func(t *testing.T) {
		for _, chann := range []Channel{ChanOpen, ChanSentTweet, ChanScreenName, ChanPrevTweetID} {
			assert.Error(t, Message{Channel: chann}.Validate(), string(chann))
			assert.NoError(t, Message{Channel: chann, Payload: "x"}.Validate(), string(chann))
		}
	})

	t.Run("payload forbidden", func(t *testing.T) {
		for _, chann := range []Channel{ChanClickTweetButton, ChanCancelTweet, ChanUnlinkTweet, ChanLogin, ChanExitApp, ChanResetWindow} {
			assert.NoError(t, Message{Channel: chann}.Validate(), string(chann))
			assert.Error(t, Message{Channel: chann, Payload: "x"}.Validate(), string(chann))
		}
	})

	t.Run("action after tweet may be empty", func(t *testing.T) {
		assert.NoError(t, Message{Channel: ChanActionAfterTweet}.Validate())
		assert.NoError(t, Message{Channel: ChanActionAfterTweet, Payload: "close"}.Validate())
	})

	t.Run("online status enum", func(t *testing.T) {
		assert.NoError(t, Message{Channel: ChanOnlineStatus, Payload: StatusOnline}.Validate())
		assert.NoError(t, Message{Channel: ChanOnlineStatus, Payload: StatusOffline}.Validate())
		assert.Error(t, Message{Channel: ChanOnlineStatus, Payload: "away"}.Validate())
		assert.Error(t, Message{Channel: ChanOnlineStatus}.Validate())
	})

	t.Run("unknown channel", func(t *testing.T) {
		err := Message{Channel: "tweetapp:nope", Payload: "x"}.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown channel")
	})
}
