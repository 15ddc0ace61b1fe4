package main

import (
	"errors"
	"strings"
	"sync"

	cache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"tweetgo/bridge"
)

// ErrSwitchInProgress is returned when an account switch is requested while a
// previous switch has not finished yet.
var ErrSwitchInProgress = errors.New("account switch already in progress")

// Lifecycle owns the current TweetWindow, the account roster and the global
// quit/restart/switch protocol. One instance lives for the whole process run.
type Lifecycle struct {
	config   *Config
	platform Platform
	ipc      *bridge.IPC
	log      zerolog.Logger
	menu     *MenuTemplate
	accounts []string

	// prevIDs keeps each account's last detected tweet id across switches so
	// returning to an account restores its reply target.
	prevIDs *cache.Cache

	didQuit  *signal
	quitOnce sync.Once

	mu      sync.Mutex
	opts    *CommandLineOptions
	current *TweetWindow
	// switchDone is non-nil while an account switch is in flight. The
	// close-vs-quit loop waits on it instead of quitting.
	switchDone chan struct{}
}

// NewLifecycle builds the controller: account roster, global menu and the
// initial (not yet opened) window for the default account.
func NewLifecycle(config *Config, opts *CommandLineOptions, platform Platform, ipc *bridge.IPC, log zerolog.Logger) *Lifecycle {
	l := &Lifecycle{
		config:   config,
		platform: platform,
		ipc:      ipc,
		log:      log.With().Str("component", "lifecycle").Logger(),
		prevIDs:  cache.New(cache.NoExpiration, 0),
		didQuit:  newSignal(),
		opts:     opts,
	}

	if config.DefaultAccount != "" {
		l.accounts = append(l.accounts, strings.TrimPrefix(config.DefaultAccount, "@"))
		for _, account := range config.OtherAccounts {
			l.accounts = append(l.accounts, strings.TrimPrefix(account, "@"))
		}
	}
	l.log.Debug().Strs("accounts", l.accounts).Msg("account roster built")

	l.menu = buildMenu(config, l.accounts, opts.Debug)
	l.current = l.newWindow(config.DefaultAccount)

	ipc.On(bridge.ChanExitApp, func(string) { go l.Quit() })
	return l
}

// DidQuit resolves exactly once, when the process should terminate.
func (l *Lifecycle) DidQuit() <-chan struct{} {
	return l.didQuit.done()
}

// RunUntilQuit wires the global affordances, opens the initial window and
// blocks until the quit signal fires.
func (l *Lifecycle) RunUntilQuit() error {
	l.platform.SetApplicationMenu(l.menu, l)

	if l.config.HotKey != "" {
		hotkey := l.config.HotKey
		err := l.platform.RegisterHotkey(hotkey, func() {
			go func() {
				if err := l.ToggleWindow(); err != nil {
					l.log.Warn().Err(err).Msg("toggle window failed")
				}
			}()
		})
		if err != nil {
			l.log.Warn().Err(err).Str("hotkey", hotkey).Msg("cannot register global hotkey")
		}
	}

	switch l.platform.Name() {
	case "darwin":
		l.platform.SetDockMenu(dockMenu(), l)
	case "windows":
		l.platform.SetUserTasks(userTasks())
	}

	// Only one window may be open at a time: the IPC channel from the
	// content script broadcasts to a single attached target.
	if err := l.currentWindow().OpenNewTweet(l.currentOpts().Text); err != nil {
		return err
	}
	l.log.Info().Msg("app has started")

	if l.quitsOnClose() {
		l.awaitCloseOrQuit()
	}

	<-l.didQuit.done()
	l.log.Info().Msg("app has quit")
	return nil
}

// awaitCloseOrQuit turns "the user closed the window" into quit, while
// ignoring closes that are part of an in-flight account switch. The switch
// flag must be re-checked every wake: switching closes the old window before
// opening the new one, which otherwise looks identical to closing the app.
func (l *Lifecycle) awaitCloseOrQuit() {
	for {
		win := l.currentWindow()
		select {
		case <-l.didQuit.done():
			return
		case <-win.Closed():
		}

		l.mu.Lock()
		switching := l.switchDone
		replaced := l.current != win
		l.mu.Unlock()

		if switching != nil {
			<-switching
			continue
		}
		if replaced {
			// The close belonged to a switch that already finished.
			continue
		}
		l.Quit()
		return
	}
}

// Restart is invoked when a second invocation of the app is forwarded to this
// process. Without options it just reopens the current window; with options
// it updates them and reloads content, never recreating the window so the
// session and cookies survive.
func (l *Lifecycle) Restart(newOpts *CommandLineOptions) error {
	l.log.Info().Msg("reopening window content for new invocation")
	win := l.currentWindow()
	if newOpts == nil {
		return win.OpenNewTweet("")
	}
	win.UpdateOptions(newOpts)
	l.mu.Lock()
	l.opts = newOpts
	l.mu.Unlock()
	if newOpts.Reply {
		return win.OpenReply(newOpts.Text)
	}
	return win.OpenNewTweet(newOpts.Text)
}

// SwitchAccount replaces the current window with one bound to screenName.
// Switching to the already-bound account is a no-op; a switch during a switch
// is rejected with ErrSwitchInProgress.
func (l *Lifecycle) SwitchAccount(screenName string) error {
	screenName = strings.TrimPrefix(screenName, "@")

	l.mu.Lock()
	if l.current.ScreenName == screenName {
		l.mu.Unlock()
		l.log.Debug().Str("screen_name", screenName).Msg("skip switching account: already current")
		return nil
	}
	if l.switchDone != nil {
		l.mu.Unlock()
		l.log.Warn().Str("screen_name", screenName).Msg("rejecting switch: another switch is in flight")
		return ErrSwitchInProgress
	}
	done := make(chan struct{})
	l.switchDone = done
	old := l.current
	l.mu.Unlock()

	// The flag must clear even if opening the new window fails, or the
	// close loop deadlocks.
	defer func() {
		l.mu.Lock()
		l.switchDone = nil
		l.mu.Unlock()
		close(done)
	}()

	l.log.Info().Str("from", old.ScreenName).Str("to", screenName).Msg("switching account")
	<-old.Close()
	if old.ScreenName != "" {
		l.prevIDs.Set(old.ScreenName, old.PrevTweetID(), cache.NoExpiration)
	}

	win := l.newWindow(screenName)
	l.mu.Lock()
	l.current = win
	l.mu.Unlock()

	return win.OpenNewTweet("")
}

// ToggleWindow opens the window when closed and closes it when open.
func (l *Lifecycle) ToggleWindow() error {
	win := l.currentWindow()
	if win.IsOpen() {
		<-win.Close()
		return nil
	}
	return win.OpenNewTweet("")
}

// Quit closes the current window, disposes the bridge and fires the quit
// signal. Guarded so the cleanup runs exactly once.
func (l *Lifecycle) Quit() {
	l.quitOnce.Do(func() {
		l.log.Debug().Msg("will close window and quit")
		<-l.currentWindow().Close()
		l.ipc.Dispose()
		l.platform.UnregisterHotkeys()
		l.didQuit.fire()
	})
}

// Dispatch receives menu, dock, hotkey and jump-list activations by action
// name. Blocking operations run off the caller's goroutine so platform event
// delivery is never stalled.
func (l *Lifecycle) Dispatch(action Action, arg string) {
	switch action {
	case ActionNewTweet:
		go l.openLogged(func(w *TweetWindow) error { return w.OpenNewTweet("") })
	case ActionReplyToPrevTweet:
		go l.openLogged(func(w *TweetWindow) error { return w.OpenReply("") })
	case ActionClickTweetButton:
		// Forwarded without local validation; the content script decides.
		l.ipc.Send(bridge.ChanClickTweetButton, "")
	case ActionCancelTweet:
		l.ipc.Send(bridge.ChanCancelTweet, "")
	case ActionUnlinkTweet:
		l.currentWindow().UnlinkSelection()
	case ActionAccountSettings:
		l.ipc.Send(bridge.ChanOpen, accountSettingsURL)
	case ActionOpenPreviousTweet:
		go l.openLogged(func(w *TweetWindow) error { return w.OpenPreviousTweet() })
	case ActionEditConfig:
		if err := OpenConfig(l.platform, l.log); err != nil {
			l.log.Warn().Err(err).Msg("cannot open config file")
		}
	case ActionToggleWindow:
		go func() {
			if err := l.ToggleWindow(); err != nil {
				l.log.Warn().Err(err).Msg("toggle window failed")
			}
		}()
	case ActionSwitchAccount:
		go func() {
			if err := l.SwitchAccount(arg); err != nil {
				l.log.Warn().Err(err).Str("screen_name", arg).Msg("account switch failed")
			}
		}()
	case ActionOpenProfileDebug:
		target := hostOrigin
		if name := l.currentWindow().ScreenName; name != "" {
			target += "/" + name
		}
		l.ipc.Send(bridge.ChanOpen, target)
	case ActionQuit:
		go l.Quit()
	default:
		l.log.Warn().Str("action", string(action)).Msg("unknown action")
	}
}

func (l *Lifecycle) openLogged(op func(*TweetWindow) error) {
	if err := op(l.currentWindow()); err != nil {
		l.log.Warn().Err(err).Msg("window operation failed")
	}
}

// newWindow constructs a TweetWindow for screenName, restoring any snapshotted
// previous-tweet id and wiring its want-to-quit signal to Quit.
func (l *Lifecycle) newWindow(screenName string) *TweetWindow {
	win := NewTweetWindow(screenName, l.config, l.ipc, l.currentOpts(), l.platform, l.menu, l.log)
	if win.ScreenName != "" {
		if v, ok := l.prevIDs.Get(win.ScreenName); ok {
			if id, ok := v.(string); ok && id != "" {
				win.SetPrevTweetID(id)
			}
		}
	}
	go func() {
		select {
		case <-win.WantToQuit():
			l.Quit()
		case <-l.didQuit.done():
		}
	}()
	return win
}

func (l *Lifecycle) currentWindow() *TweetWindow {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func (l *Lifecycle) currentOpts() *CommandLineOptions {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts
}

// quitsOnClose reports whether closing the last window should quit the app:
// the platform convention, unless quit_on_close forces it.
func (l *Lifecycle) quitsOnClose() bool {
	return l.platform.QuitsOnLastWindowClose() || l.config.QuitOnClose
}
