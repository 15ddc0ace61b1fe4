package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAfterTweet(t *testing.T) {
	for _, valid := range []string{"", "new tweet", "reply previous", "close", "quit"} {
		got, err := ParseAfterTweet(valid)
		require.NoError(t, err, valid)
		assert.Equal(t, valid, got)
	}

	got, err := ParseAfterTweet("  QUIT ")
	require.NoError(t, err)
	assert.Equal(t, AfterTweetQuit, got)

	_, err = ParseAfterTweet("explode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explode")
}

func TestSplitHashtags(t *testing.T) {
	assert.Nil(t, SplitHashtags(""))
	assert.Equal(t, []string{"go"}, SplitHashtags("go"))
	assert.Equal(t, []string{"go", "news"}, SplitHashtags("#go, #news"))
	assert.Equal(t, []string{"a", "b"}, SplitHashtags("a,,b,"))
}
