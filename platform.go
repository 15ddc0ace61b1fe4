package main

import "tweetgo/bridge"

// Platform abstracts OS-specific UI operations (windows, dialogs, menus,
// hotkeys). The core never talks to a GUI toolkit directly; backends implement
// this interface and the headless one below backs tests and development.
type Platform interface {
	// Name is the platform identifier ("darwin", "windows", "linux", "headless").
	Name() string
	// NewWindow creates a native window bound to an isolated browsing session.
	NewWindow(opts WindowOptions) (NativeWindow, error)
	// ShowMessageBox shows a blocking modal dialog and returns the index of
	// the chosen button.
	ShowMessageBox(opts MessageBoxOptions) int
	// SetApplicationMenu installs the global menu; clicks are reported to the
	// dispatcher by action name.
	SetApplicationMenu(menu *MenuTemplate, dispatch ActionDispatcher)
	// SetDockMenu installs the dock menu where the platform has a dock.
	SetDockMenu(menu *MenuTemplate, dispatch ActionDispatcher)
	// SetUserTasks installs taskbar jump-list tasks where supported.
	SetUserTasks(tasks []UserTask)
	// RegisterHotkey binds a global accelerator to fn.
	RegisterHotkey(accelerator string, fn func()) error
	// UnregisterHotkeys removes every registered global accelerator.
	UnregisterHotkeys()
	// OpenExternal opens a URL in the default browser.
	OpenExternal(url string) error
	// OpenItem opens a file with its default application.
	OpenItem(path string) error
	// HideApp hides the application from the foreground.
	HideApp()
	// QuitsOnLastWindowClose reports whether the platform convention is to
	// quit when the last window closes (false on macOS).
	QuitsOnLastWindowClose() bool
}

// ActionDispatcher receives menu, dock and hotkey activations.
type ActionDispatcher interface {
	Dispatch(action Action, arg string)
}

// NativeWindow is one open native window.
type NativeWindow interface {
	Show()
	Close()
	Focus()
	Restore()
	IsMinimized() bool
	Position() (x, y int)
	SetMenu(menu *MenuTemplate)
	// OnceReadyToShow runs fn once the window can be painted.
	OnceReadyToShow(fn func())
	// OnceClose runs fn when closing starts, before destruction.
	OnceClose(fn func())
	// OnceClosed runs fn after the window is fully destroyed.
	OnceClosed(fn func())
	RemoveAllListeners()
	Contents() WebContents
}

// WebContents is the browsing context hosted by a window. It doubles as the
// bridge send target for the content script injected into the page.
type WebContents interface {
	bridge.Context

	URL() string
	LoadURL(url string)
	// LoadHTML renders literal markup instead of a remote document.
	LoadHTML(html string)
	InsertCSS(css string)
	// OnDOMReady runs fn on every DOM-ready; the returned func unregisters it.
	OnDOMReady(fn func()) (cancel func())
	// OnceDOMReady runs fn on the next DOM-ready only.
	OnceDOMReady(fn func())
	// OnWillNavigate consults fn before each navigation; returning false
	// cancels it.
	OnWillNavigate(fn func(url string) bool)
	// OnNewWindow consults fn before a popup window opens; returning false
	// denies it.
	OnNewWindow(fn func(url string) bool)
	// OnDidFinishLoad runs fn after each completed page load.
	OnDidFinishLoad(fn func())
	RemoveAllListeners()
	Session() WebSession
}

// WebSession exposes the network-event hooks of the window's isolated
// browsing session. Passing a nil handler clears the hook.
type WebSession interface {
	OnRequestCompleted(urlPatterns []string, fn func(RequestDetails))
	OnBeforeRequest(urlPatterns []string, fn func(RequestDetails))
	SetPermissionHandler(fn func(req PermissionRequest) bool)
}

// RequestDetails describes one intercepted network request.
type RequestDetails struct {
	URL        string
	Referrer   string
	StatusCode int
	FromCache  bool
}

// PermissionRequest is a permission ask from embedded content.
type PermissionRequest struct {
	Permission string
	OriginURL  string
}

// WindowOptions configures a new native window and its browsing session.
type WindowOptions struct {
	Width  int
	Height int
	Zoom   float64
	// X/Y restore a persisted position when non-nil.
	X *int
	Y *int
	Resizable              bool
	Frameless              bool
	AutoHideMenuBar        bool
	VisibleOnAllWorkspaces bool
	// Partition keys the isolated cookie/storage session. Empty means the
	// default session.
	Partition string
	// Sandbox disables general script injection into the hosted page; only
	// the explicit content script runs.
	Sandbox bool
	// AllowInsecureContent permits mixed content when true.
	AllowInsecureContent bool
	// AllowPopups permits secondary window creation when true.
	AllowPopups bool
	// Icon is RGBA pixel data, IconSize pixels square.
	Icon     []byte
	IconSize int
}

// MessageBoxOptions configures a modal dialog.
type MessageBoxOptions struct {
	Type    string // "info", "question" or "error"
	Title   string
	Message string
	Detail  string
	Buttons []string
	Icon    []byte
}

// MenuItem is one entry of a menu template. Items either carry a
// platform-native Role, or an Action dispatched back to the controller.
type MenuItem struct {
	Label       string
	Accelerator string
	Role        string
	Action      Action
	// Arg is passed with the action (e.g. the screen name to switch to).
	Arg       string
	Separator bool
	Submenu   []MenuItem
}

// MenuTemplate is a full menu handed to the platform for construction.
type MenuTemplate struct {
	Items []MenuItem
}

// UserTask is a taskbar jump-list entry.
type UserTask struct {
	Title       string
	Description string
	Args        []string
}
