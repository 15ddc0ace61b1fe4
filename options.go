package main

import (
	"fmt"
	"strings"
)

// Action-after-tweet values shared by config and command line.
const (
	AfterTweetNew   = "new tweet"
	AfterTweetReply = "reply previous"
	AfterTweetClose = "close"
	AfterTweetQuit  = "quit"
)

// CommandLineOptions is the structured value the argument boundary hands to
// the core. A second invocation of the app forwards a fresh value through
// Lifecycle.Restart.
type CommandLineOptions struct {
	// Text is the initial tweet text (positional arguments, joined).
	Text string
	// Hashtags are appended to composed tweets.
	Hashtags []string
	// AfterTweet overrides the configured post-completion action.
	AfterTweet string
	// Reply opens the reply form instead of the new-tweet form.
	Reply bool
	// NoDetach keeps the launcher process in the foreground. Consumed by the
	// launcher, carried here untouched.
	NoDetach bool
	// Debug enables verbose logging and the debug menu entries.
	Debug bool
}

// ParseAfterTweet normalizes and validates an action-after-tweet value.
// An empty string is valid and means "use the configured default".
func ParseAfterTweet(value string) (string, error) {
	action := strings.ToLower(strings.TrimSpace(value))
	switch action {
	case "", AfterTweetNew, AfterTweetReply, AfterTweetClose, AfterTweetQuit:
		return action, nil
	default:
		return "", fmt.Errorf("invalid --after-tweet value %q: must be one of %q, %q, %q, %q",
			value, AfterTweetNew, AfterTweetReply, AfterTweetClose, AfterTweetQuit)
	}
}

// SplitHashtags parses a comma-separated hashtag list, dropping empty entries
// and leading # sigils.
func SplitHashtags(value string) []string {
	if value == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(value, ",") {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
