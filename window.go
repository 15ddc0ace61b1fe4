package main

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"tweetgo/bridge"
)

// Hosted site endpoints. The embedded browser engine talks to these; this
// code only observes them.
const (
	hostOrigin         = "https://mobile.twitter.com"
	composeURL         = hostOrigin + "/compose/tweet"
	loginURL           = hostOrigin + "/login"
	accountSettingsURL = hostOrigin + "/settings/account"
	apiUpdateURL       = "https://api.twitter.com/1.1/statuses/update.json"
	apiDestroyURL      = "https://api.twitter.com/1.1/statuses/destroy.json"
	analyticsPattern   = "https://www.google-analytics.com/r/*"
)

// Permissions embedded content may ask for after an explicit user dialog.
// Everything else is denied outright.
var allowedPermissions = []string{"media", "geolocation"}

// Back affordances are detected by aria-label in two languages since the
// host page localizes them.
var backAriaLabels = []string{"Back", "戻る"}

// TweetWindow owns one native window bound to one isolated browsing session
// for one account. At most one TweetWindow may have an open native window at
// a time because the IPC bridge sends to a single attached target.
type TweetWindow struct {
	// ScreenName is the bound account without the @ prefix, or "" for an
	// anonymous session.
	ScreenName string

	partition string
	config    *Config
	ipc       *bridge.IPC
	platform  Platform
	menu      *MenuTemplate
	log       zerolog.Logger
	icon      []byte
	iconSize  int

	wantToQuit *signal

	mu           sync.Mutex
	win          NativeWindow
	didClose     *signal
	prevTweetID  string
	hashtags     string
	afterTweet   string
	onlineStatus string
}

// NewTweetWindow constructs a closed window for screenName. A leading @ in
// the name is stripped; an empty name yields an anonymous default session.
func NewTweetWindow(screenName string, config *Config, ipc *bridge.IPC, opts *CommandLineOptions, platform Platform, menu *MenuTemplate, log zerolog.Logger) *TweetWindow {
	name := strings.TrimPrefix(screenName, "@")
	icon, iconSize, _ := CreateIconRGBA()
	w := &TweetWindow{
		ScreenName: name,
		config:     config,
		ipc:        ipc,
		platform:   platform,
		menu:       menu,
		log:        log.With().Str("component", "window").Str("screen_name", name).Logger(),
		icon:       icon,
		iconSize:   iconSize,
		wantToQuit: newSignal(),
		didClose:   newFiredSignal(),
		// Assume network is available at start.
		onlineStatus: bridge.StatusOnline,
	}
	if name != "" {
		w.partition = "persist:tweet:" + name
	}
	w.UpdateOptions(opts)
	return w
}

// UpdateOptions merges new hashtags and action-after-tweet into the current
// state without recreating the window. Called when a second invocation of the
// app forwards fresh command-line options.
func (w *TweetWindow) UpdateOptions(opts *CommandLineOptions) {
	action := opts.AfterTweet
	if action == "" {
		action = w.config.AfterTweet
	}
	w.mu.Lock()
	w.hashtags = strings.Join(opts.Hashtags, ",")
	w.afterTweet = strings.ToLower(action)
	w.mu.Unlock()
}

// OpenNewTweet opens (or reuses) the window with the new-tweet form.
func (w *TweetWindow) OpenNewTweet(text string) error {
	return w.open(false, text, false)
}

// OpenReply opens (or reuses) the window with the reply form targeting the
// previously detected tweet.
func (w *TweetWindow) OpenReply(text string) error {
	return w.open(true, text, false)
}

// Close requests the native window to close if open and returns the closed
// signal, already resolved when no window is open. Idempotent.
func (w *TweetWindow) Close() <-chan struct{} {
	w.mu.Lock()
	win := w.win
	closed := w.didClose
	w.mu.Unlock()
	if win != nil {
		w.log.Debug().Msg("will close window")
		win.Close()
	} else {
		w.log.Debug().Msg("window was already closed")
	}
	return closed.done()
}

// Closed returns the signal resolved when the current native window fully
// closes.
func (w *TweetWindow) Closed() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.didClose.done()
}

// WantToQuit resolves when the configured post-completion action is "quit"
// and a tweet was posted.
func (w *TweetWindow) WantToQuit() <-chan struct{} {
	return w.wantToQuit.done()
}

// IsOpen reports whether a native window currently exists.
func (w *TweetWindow) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.win != nil
}

// PrevTweetID returns the id of the most recent detected tweet, or "".
func (w *TweetWindow) PrevTweetID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.prevTweetID
}

// SetPrevTweetID seeds the reply target, used to restore state when switching
// back to an account.
func (w *TweetWindow) SetPrevTweetID(id string) {
	w.mu.Lock()
	w.prevTweetID = id
	w.mu.Unlock()
}

// UnlinkSelection asks the content script to break auto-linking in the
// current text selection. No-op while no window is open.
func (w *TweetWindow) UnlinkSelection() {
	if !w.IsOpen() {
		w.log.Debug().Msg("no window open; nothing to unlink")
		return
	}
	w.ipc.Send(bridge.ChanUnlinkTweet, "")
}

// OpenPreviousTweet shows the status page of the last detected tweet. The
// same preconditions as replying apply, surfaced as dialogs.
func (w *TweetWindow) OpenPreviousTweet() error {
	w.log.Info().Str("prev_tweet_id", w.PrevTweetID()).Msg("open previous tweet")

	if w.ScreenName == "" {
		w.requireConfigDialog("open previous tweet page")
		return nil
	}
	id := w.PrevTweetID()
	if id == "" {
		w.notifyTweetFirstDialog("open previous tweet page")
		return nil
	}

	w.mu.Lock()
	win := w.win
	w.mu.Unlock()
	if win == nil {
		if err := w.OpenNewTweet(""); err != nil {
			return err
		}
		w.mu.Lock()
		win = w.win
		w.mu.Unlock()
		if win == nil {
			return nil
		}
	} else if win.IsMinimized() {
		win.Restore()
	}

	statusURL := fmt.Sprintf("%s/%s/status/%s", hostOrigin, w.ScreenName, id)
	return w.navigate(win.Contents(), statusURL)
}

// open routes both compose and reply requests. Reply preconditions resolve
// via dialogs, then reply proceeds with a fallback URL rather than failing;
// the user already saw the explanation.
func (w *TweetWindow) open(reply bool, text string, force bool) error {
	if reply {
		if w.ScreenName == "" {
			w.requireConfigDialog("reply to previous tweet")
		} else if w.PrevTweetID() == "" {
			w.notifyTweetFirstDialog("reply to previous tweet")
		}
	}

	w.mu.Lock()
	win := w.win
	w.mu.Unlock()

	if win != nil {
		if win.IsMinimized() {
			win.Restore()
		}
		win.Focus()
		target := w.composeTweetURL(reply, text)
		if !force && win.Contents().URL() == target {
			w.log.Info().Str("url", target).Msg("skip reopening content since URL is unchanged")
			return nil
		}
		w.log.Info().Str("url", target).Msg("window is already open; reopening content")
		return w.navigate(win.Contents(), target)
	}

	return w.create(reply, text)
}

// navigate tells the content script to load a URL and waits for a single
// DOM-ready acknowledgement, or for the window to close.
func (w *TweetWindow) navigate(contents WebContents, target string) error {
	ready := make(chan struct{})
	contents.OnceDOMReady(func() { close(ready) })
	w.ipc.Send(bridge.ChanOpen, target)
	select {
	case <-ready:
		w.log.Debug().Str("url", target).Msg("content reopened")
	case <-w.Closed():
		w.log.Debug().Str("url", target).Msg("window closed while waiting for content")
	}
	return nil
}

// create constructs the native window, wires its lifetime and network hooks
// and loads the initial URL.
func (w *TweetWindow) create(reply bool, text string) error {
	state := loadWindowState()
	winOpts := WindowOptions{
		Width:                  w.config.Window.Width,
		Height:                 w.config.Window.Height,
		Zoom:                   w.config.Window.Zoom,
		X:                      state.X,
		Y:                      state.Y,
		Resizable:              false,
		Frameless:              true,
		AutoHideMenuBar:        w.config.Window.AutoHideMenuBar,
		VisibleOnAllWorkspaces: w.config.Window.VisibleOnAllWorkspaces,
		Partition:              w.partition,
		Sandbox:                true,
		AllowInsecureContent:   false,
		AllowPopups:            false,
		Icon:                   w.icon,
		IconSize:               w.iconSize,
	}
	w.log.Debug().Interface("options", winOpts).Msg("creating native window")

	win, err := w.platform.NewWindow(winOpts)
	if err != nil {
		return fmt.Errorf("cannot create native window: %w", err)
	}
	contents := win.Contents()
	sess := contents.Session()

	if w.platform.Name() != "darwin" {
		win.SetMenu(w.menu)
	}

	w.ipc.Attach(contents)

	win.OnceReadyToShow(func() {
		w.log.Debug().Msg("window is ready to show")
		win.Show()
	})

	// Window-scoped receivers, removed again in the close teardown.
	subs := []*bridge.Subscription{
		w.ipc.On(bridge.ChanPrevTweetID, w.onPrevTweetID),
		w.ipc.On(bridge.ChanOnlineStatus, w.onOnlineStatus),
		w.ipc.On(bridge.ChanResetWindow, w.onResetWindow),
	}

	win.OnceClose(func() {
		// Teardown must run synchronously with the close event so no
		// handler leaks onto the next window.
		w.log.Debug().Msg("window is closing")
		x, y := win.Position()
		if err := saveWindowState(x, y); err != nil {
			w.log.Debug().Err(err).Msg("cannot persist window position")
		}
		w.ipc.Detach(contents)
		for _, sub := range subs {
			w.ipc.Forget(sub)
		}
		contents.RemoveAllListeners()
		sess.SetPermissionHandler(nil)
		sess.OnBeforeRequest(nil, nil)
		sess.OnRequestCompleted(nil, nil)
	})

	closed := newSignal()
	win.OnceClosed(func() {
		w.log.Debug().Msg("window closed")
		win.RemoveAllListeners()
		w.mu.Lock()
		w.win = nil
		w.mu.Unlock()
		closed.fire()
		if !w.platform.QuitsOnLastWindowClose() {
			w.platform.HideApp()
		}
	})

	contents.OnWillNavigate(func(target string) bool {
		if isHostURL(target) {
			return true
		}
		w.log.Warn().Str("url", target).Msg("blocked navigation outside the host site")
		return false
	})

	contents.OnNewWindow(func(target string) bool {
		w.log.Warn().Str("url", target).Msg("blocked new window creation")
		return false
	})

	contents.OnDidFinishLoad(func() {
		contents.InsertCSS(w.hideChromeCSS())
	})

	contents.OnDOMReady(func() {
		if w.ScreenName != "" {
			w.ipc.Send(bridge.ChanScreenName, w.ScreenName)
		}
		w.ipc.Send(bridge.ChanActionAfterTweet, w.afterTweetAction())
	})

	sess.OnRequestCompleted([]string{apiUpdateURL, apiDestroyURL}, w.onRequestCompleted)
	w.armLoginProbe(sess)
	sess.SetPermissionHandler(w.onPermissionRequest)

	ready := make(chan struct{})
	contents.OnceDOMReady(func() { close(ready) })

	target := w.composeTweetURL(reply, text)
	w.log.Info().Str("url", target).Msg("opening")
	contents.LoadURL(target)

	w.mu.Lock()
	w.win = win
	w.didClose = closed
	w.mu.Unlock()

	select {
	case <-ready:
	case <-closed.done():
	}
	w.log.Info().Msg("created window")
	return nil
}

// onRequestCompleted drives the local state machine off the two observed
// endpoint families: tweet created and tweet deleted.
func (w *TweetWindow) onRequestCompleted(d RequestDetails) {
	if d.StatusCode != 200 || d.FromCache {
		return
	}

	if strings.HasSuffix(d.URL, "/destroy.json") {
		// Staying on a deleted tweet's page would dead-end.
		w.SetPrevTweetID("")
		next := w.composeTweetURL(false, "")
		w.log.Info().Str("request", d.URL).Str("next", next).Msg("tweet deleted; reopening compose form")
		w.ipc.Send(bridge.ChanOpen, next)
		return
	}

	switch w.afterTweetAction() {
	case AfterTweetClose:
		w.log.Info().Msg("closing window since action after tweet is 'close'")
		w.Close()
	case AfterTweetQuit:
		w.log.Info().Msg("requesting quit since action after tweet is 'quit'")
		w.wantToQuit.fire()
	default:
		next := w.composeTweetURL(false, "")
		w.log.Info().Str("request", d.URL).Str("next", next).Msg("tweet posted")
		w.ipc.Send(bridge.ChanSentTweet, next)
	}
}

// armLoginProbe watches for the first tweet request (user already logged in)
// or a request coming out of the login flow. Single-shot per window either
// way to avoid redundant signaling.
func (w *TweetWindow) armLoginProbe(sess WebSession) {
	var once sync.Once
	sess.OnBeforeRequest([]string{analyticsPattern, apiUpdateURL}, func(d RequestDetails) {
		if d.URL == apiUpdateURL {
			once.Do(func() { sess.OnBeforeRequest(nil, nil) })
			return
		}
		if d.Referrer == loginURL {
			once.Do(func() {
				w.log.Debug().Str("url", d.URL).Msg("login flow detected")
				w.ipc.Send(bridge.ChanLogin, "")
				sess.OnBeforeRequest(nil, nil)
			})
		}
	})
}

// onPermissionRequest gates permission asks from embedded content. Nothing is
// ever granted silently.
func (w *TweetWindow) onPermissionRequest(req PermissionRequest) bool {
	if !isHostURL(req.OriginURL) {
		w.log.Info().Str("permission", req.Permission).Str("origin", req.OriginURL).Msg("denied permission request from foreign origin")
		return false
	}
	allowed := false
	for _, p := range allowedPermissions {
		if req.Permission == p {
			allowed = true
			break
		}
	}
	if !allowed {
		w.log.Info().Str("permission", req.Permission).Strs("allowed", allowedPermissions).Msg("denied not allow-listed permission")
		return false
	}

	buttons := []string{"Allow", "Deny"}
	idx := w.platform.ShowMessageBox(MessageBoxOptions{
		Type:    "question",
		Title:   "Permission request",
		Message: fmt.Sprintf("The page asks for the %q permission", req.Permission),
		Detail:  "Allow only if you trust the page currently shown.",
		Buttons: buttons,
		Icon:    w.icon,
	})
	return idx == 0
}

func (w *TweetWindow) onPrevTweetID(id string) {
	w.log.Info().Str("id", id).Msg("previous tweet detected")
	w.SetPrevTweetID(id)
}

func (w *TweetWindow) onOnlineStatus(status string) {
	w.mu.Lock()
	previous := w.onlineStatus
	if previous == status {
		w.mu.Unlock()
		w.log.Debug().Str("status", status).Msg("online status unchanged")
		return
	}
	w.onlineStatus = status
	win := w.win
	w.mu.Unlock()

	w.log.Info().Str("status", status).Str("previous", previous).Msg("online status changed")
	if win == nil {
		w.log.Info().Msg("no window shown; nothing to do for online status change")
		return
	}

	if status == bridge.StatusOnline {
		next := w.composeTweetURL(false, "")
		w.log.Info().Str("url", next).Msg("network is back; reloading compose form")
		win.Contents().LoadURL(next)
		return
	}
	win.Contents().LoadHTML(offlineHTML)
	w.log.Debug().Msg("opened offline page")
}

// onResetWindow force-reloads the compose form, requested by the content
// script after a cancelled tweet.
func (w *TweetWindow) onResetWindow(string) {
	w.log.Debug().Msg("resetting window content")
	go func() {
		if err := w.open(false, "", true); err != nil {
			w.log.Warn().Err(err).Msg("window reset failed")
		}
	}()
}

// requireConfigDialog explains that configuration is needed and offers to
// open the config file. Resolves once dismissed, never fails the caller.
func (w *TweetWindow) requireConfigDialog(doing string) {
	buttons := []string{"Edit Config", "OK"}
	idx := w.platform.ShowMessageBox(MessageBoxOptions{
		Type:    "info",
		Title:   "Config is required",
		Message: fmt.Sprintf("Configuration is required to %s", doing),
		Detail:  "Click 'Edit Config', set your @screen_name in the 'default_account' field and restart the app",
		Buttons: buttons,
		Icon:    w.icon,
	})
	if idx >= 0 && idx < len(buttons) && buttons[idx] == "Edit Config" {
		if err := OpenConfig(w.platform, w.log); err != nil {
			w.log.Warn().Err(err).Msg("cannot open config file")
		}
	}
}

// notifyTweetFirstDialog explains that a tweet must exist before the action
// can work.
func (w *TweetWindow) notifyTweetFirstDialog(doing string) {
	w.platform.ShowMessageBox(MessageBoxOptions{
		Type:    "info",
		Title:   fmt.Sprintf("Cannot %s", doing),
		Message: fmt.Sprintf("To %s, at least one tweet must be posted before", doing),
		Detail:  "Choose 'New Tweet' from the menu and post a new tweet first",
		Buttons: []string{"OK"},
		Icon:    w.icon,
	})
}

func (w *TweetWindow) afterTweetAction() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.afterTweet
}

func (w *TweetWindow) hashtagsCSV() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hashtags
}

func (w *TweetWindow) composeNewTweetURL(text string) string {
	var queries []string
	if text != "" {
		queries = append(queries, "text="+queryEscape(text))
	}
	if tags := w.hashtagsCSV(); tags != "" {
		queries = append(queries, "hashtags="+queryEscape(tags))
	}
	target := composeURL
	if len(queries) > 0 {
		target += "?" + strings.Join(queries, "&")
	}
	return target
}

func (w *TweetWindow) composeTweetURL(reply bool, text string) string {
	target := w.composeNewTweetURL(text)
	if !reply {
		return target
	}
	id := w.PrevTweetID()
	if id == "" {
		w.log.Warn().Msg("falling back to new tweet form since no previous tweet is known")
		return target
	}
	if strings.Contains(target, "?") {
		target += "&in_reply_to=" + id
	} else {
		target += "?in_reply_to=" + id
	}
	return target
}

// hideChromeCSS hides the host page's leave-the-compose-form affordances:
// home links, the localized back control and, with a bound account, the link
// to the account's own profile.
func (w *TweetWindow) hideChromeCSS() string {
	lines := []string{
		"body {-webkit-app-region: drag;}",
		`a[href="/"] { display: none !important; }`,
		`a[href="/home"] { display: none !important; }`,
	}
	for _, label := range backAriaLabels {
		lines = append(lines, fmt.Sprintf(`[aria-label="%s"] { display: none !important; }`, label))
	}
	if w.ScreenName != "" {
		lines = append(lines, fmt.Sprintf(`a[href="/%s"] { display: none !important; }`, w.ScreenName))
	}
	return strings.Join(lines, "\n")
}

func isHostURL(target string) bool {
	return target == hostOrigin || strings.HasPrefix(target, hostOrigin+"/")
}

// queryEscape matches the escaping the host site expects in compose URLs:
// percent-encoded spaces, not plus signs.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
