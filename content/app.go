package content

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tweetgo/bridge"
)

// Transport is the content-script side of the IPC bridge.
type Transport interface {
	Send(msg bridge.Message) error
	On(chann bridge.Channel, fn bridge.Listener)
}

var _ Transport = (*bridge.Client)(nil)

// Labels used to locate controls when the stable test-id is missing. The host
// page localizes button text, so both English and Japanese variants are
// matched.
var (
	tweetButtonLabels = []string{"Tweet", "Tweet All", "Reply", "ツイート", "すべてツイート", "返信"}
	backControlLabels = []string{"Back", "戻る"}
)

// Test ids of the discard confirmation sheet that may appear when cancelling
// a tweet with unsaved text.
const (
	testIDTweetButton   = "tweetButton"
	testIDDiscardButton = "confirmationSheetConfirm"
	testIDSaveButton    = "confirmationSheetCancel"
)

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultMaxAttempts  = 40
)

// App drives the hosted page once per load. It subscribes to the inbound
// bridge channels, discovers UI elements with test-id first and text or
// aria-label fallbacks, and reports detected tweets and connectivity upstream.
type App struct {
	doc Document
	ipc Transport
	log zerolog.Logger

	// Poll budget for post-id discovery after a tweet is sent.
	pollInterval time.Duration
	maxAttempts  int
	wait         func(time.Duration)

	mu         sync.Mutex
	afterTweet string
	screenName string
}

// NewApp creates a controller for one loaded page.
func NewApp(doc Document, ipc Transport, log zerolog.Logger) *App {
	return &App{
		doc:          doc,
		ipc:          ipc,
		log:          log.With().Str("component", "content").Logger(),
		pollInterval: defaultPollInterval,
		maxAttempts:  defaultMaxAttempts,
		wait:         time.Sleep,
		afterTweet:   "new tweet",
	}
}

// Start subscribes to the inbound channels, blocks the page's Escape handler
// and reports the initial connectivity state.
func (a *App) Start() {
	a.ipc.On(bridge.ChanActionAfterTweet, a.onActionAfterTweet)
	a.ipc.On(bridge.ChanScreenName, a.onScreenName)
	a.ipc.On(bridge.ChanOpen, a.onOpen)
	a.ipc.On(bridge.ChanClickTweetButton, a.onClickTweetButton)
	a.ipc.On(bridge.ChanCancelTweet, a.onCancelTweet)
	a.ipc.On(bridge.ChanSentTweet, a.onSentTweet)
	a.ipc.On(bridge.ChanUnlinkTweet, a.onUnlinkTweet)
	a.ipc.On(bridge.ChanLogin, a.onLogin)

	a.doc.BlockEscapeKey()
	a.OnlineStatusChanged(a.doc.IsOnline())
}

// OnlineStatusChanged reports a connectivity transition upstream. The page
// bootstrap wires the browser's online/offline events to this method.
func (a *App) OnlineStatusChanged(online bool) {
	status := bridge.StatusOffline
	if online {
		status = bridge.StatusOnline
	}
	a.log.Debug().Str("status", status).Msg("report online status")
	a.send(bridge.Message{Channel: bridge.ChanOnlineStatus, Payload: status})
}

func (a *App) onActionAfterTweet(action string) {
	if action == "" {
		return
	}
	a.log.Debug().Str("action", action).Msg("action after tweet configured")
	a.mu.Lock()
	a.afterTweet = action
	a.mu.Unlock()
}

func (a *App) onScreenName(name string) {
	a.log.Debug().Str("screen_name", name).Msg("screen name received")
	a.mu.Lock()
	a.screenName = name
	a.mu.Unlock()
}

func (a *App) onOpen(url string) {
	a.log.Debug().Str("url", url).Msg("navigate by request")
	a.doc.Navigate(url)
}

func (a *App) onClickTweetButton(string) {
	btn := a.findTweetButton()
	if btn == nil {
		return
	}
	a.log.Debug().Msg("click tweet button")
	btn.Click()
}

// onCancelTweet clicks the back control and arranges a window reset. The host
// page may show a discard/save confirmation sheet when unsaved text exists; if
// neither button is present the reset is requested immediately.
func (a *App) onCancelTweet(string) {
	if back := a.findBackControl(); back != nil {
		back.Click()
	}

	requestReset := func() {
		a.send(bridge.Message{Channel: bridge.ChanResetWindow})
	}

	discard := a.doc.ElementByTestID(testIDDiscardButton)
	save := a.doc.ElementByTestID(testIDSaveButton)
	if discard == nil && save == nil {
		a.log.Debug().Msg("no confirmation sheet; reset window immediately")
		requestReset()
		return
	}
	if discard != nil {
		discard.OnceClick(requestReset)
	}
	if save != nil {
		save.OnceClick(requestReset)
	}
}

// onSentTweet runs after the app observed a successful tweet request. With a
// bound account it covers the viewport and polls for the freshly rendered
// status anchor to learn the new tweet's id before moving on.
func (a *App) onSentTweet(nextURL string) {
	a.mu.Lock()
	screenName := a.screenName
	afterTweet := a.afterTweet
	a.mu.Unlock()

	if screenName == "" {
		a.log.Debug().Str("url", nextURL).Msg("no screen name; navigate without id discovery")
		a.doc.Navigate(nextURL)
		return
	}

	a.doc.AppendCover()

	prefix := "/" + screenName + "/status/"
	var anchor Element
	for attempt := 0; ; attempt++ {
		anchor = a.doc.AnchorByHrefPrefix(prefix)
		if anchor != nil {
			break
		}
		if attempt >= a.maxAttempts {
			a.log.Warn().Str("url", nextURL).Msg("cannot find previous tweet id in timeline; falling back to default tweet form")
			a.doc.Navigate(nextURL)
			return
		}
		a.wait(a.pollInterval)
	}

	href := anchor.Href()
	statusID := href[strings.LastIndex(href, "/")+1:]
	a.send(bridge.Message{Channel: bridge.ChanPrevTweetID, Payload: statusID})

	if afterTweet == "reply previous" {
		if strings.Contains(nextURL, "?") {
			nextURL += "&in_reply_to=" + statusID
		} else {
			nextURL += "?in_reply_to=" + statusID
		}
	}

	a.log.Debug().Str("url", nextURL).Str("id", statusID).Msg("navigate after tweet")
	a.doc.Navigate(nextURL)
}

// onLogin speculatively fills the username field after a login flow was
// detected. Both preconditions may be missing; this path stays silent-safe.
func (a *App) onLogin(string) {
	a.mu.Lock()
	screenName := a.screenName
	a.mu.Unlock()

	input := a.doc.InputByNameContains("username_or_email")
	if input == nil || screenName == "" {
		a.log.Warn().Str("screen_name", screenName).Msg("cannot fill login input")
		return
	}
	input.InsertText(screenName)
	if password := a.doc.InputByNameContains("password"); password != nil {
		password.Focus()
	}
}

func (a *App) onUnlinkTweet(string) {
	selection := a.doc.SelectionText()
	if selection == "" {
		a.log.Debug().Msg("no selection to unlink")
		return
	}
	a.doc.ReplaceSelection(UnlinkText(selection))
}

// findTweetButton locates the submit control: test-id first, then a scan of
// role=button elements matched against the localized label table.
func (a *App) findTweetButton() Element {
	if btn := a.doc.ElementByTestID(testIDTweetButton); btn != nil {
		return btn
	}
	for _, btn := range a.doc.Buttons() {
		label := btn.Text()
		for _, want := range tweetButtonLabels {
			if label == want {
				return btn
			}
		}
	}
	a.log.Warn().Msg("could not find tweet button")
	return nil
}

// findBackControl locates the back affordance by its localized aria-label.
func (a *App) findBackControl() Element {
	for _, btn := range a.doc.Buttons() {
		label := btn.AriaLabel()
		for _, want := range backControlLabels {
			if label == want {
				return btn
			}
		}
	}
	a.log.Warn().Msg("could not find back control")
	return nil
}

func (a *App) send(msg bridge.Message) {
	if err := a.ipc.Send(msg); err != nil {
		a.log.Warn().Err(err).Str("channel", string(msg.Channel)).Msg("failed to send message upstream")
	}
}
