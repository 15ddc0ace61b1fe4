package main

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"tweetgo/bridge"
)

// HeadlessPlatform is an in-memory Platform backend. It simulates windows,
// dialogs and session network events and records everything it is asked to
// do, which makes it the backend for automated tests and terminal-only runs.
type HeadlessPlatform struct {
	// OSName is what Name reports; defaults to "headless".
	OSName string
	// KeepAliveOnClose mimics the macOS convention of the app surviving the
	// last window close.
	KeepAliveOnClose bool
	// DialogChoice picks the button index for ShowMessageBox. When nil the
	// last button is chosen, which is always the passive one.
	DialogChoice func(opts MessageBoxOptions) int

	mu          sync.Mutex
	windows     []*HeadlessWindow
	dialogs     []MessageBoxOptions
	menu        *MenuTemplate
	dock        *MenuTemplate
	tasks       []UserTask
	dispatch    ActionDispatcher
	hotkeys     map[string]func()
	openedItems []string
	openedURLs  []string
	hideCount   int
}

func NewHeadlessPlatform() *HeadlessPlatform {
	return &HeadlessPlatform{hotkeys: make(map[string]func())}
}

func (p *HeadlessPlatform) Name() string {
	if p.OSName != "" {
		return p.OSName
	}
	return "headless"
}

func (p *HeadlessPlatform) NewWindow(opts WindowOptions) (NativeWindow, error) {
	win := &HeadlessWindow{platform: p, opts: opts}
	if opts.X != nil {
		win.x = *opts.X
	}
	if opts.Y != nil {
		win.y = *opts.Y
	}
	win.contents = &HeadlessContents{
		id:       uuid.NewString(),
		win:      win,
		session:  &HeadlessSession{},
		domReady: make(map[int]func()),
	}
	p.mu.Lock()
	p.windows = append(p.windows, win)
	p.mu.Unlock()
	return win, nil
}

func (p *HeadlessPlatform) ShowMessageBox(opts MessageBoxOptions) int {
	p.mu.Lock()
	p.dialogs = append(p.dialogs, opts)
	choice := p.DialogChoice
	p.mu.Unlock()
	if choice != nil {
		return choice(opts)
	}
	return len(opts.Buttons) - 1
}

func (p *HeadlessPlatform) SetApplicationMenu(menu *MenuTemplate, dispatch ActionDispatcher) {
	p.mu.Lock()
	p.menu = menu
	p.dispatch = dispatch
	p.mu.Unlock()
}

func (p *HeadlessPlatform) SetDockMenu(menu *MenuTemplate, dispatch ActionDispatcher) {
	p.mu.Lock()
	p.dock = menu
	p.dispatch = dispatch
	p.mu.Unlock()
}

func (p *HeadlessPlatform) SetUserTasks(tasks []UserTask) {
	p.mu.Lock()
	p.tasks = tasks
	p.mu.Unlock()
}

func (p *HeadlessPlatform) RegisterHotkey(accelerator string, fn func()) error {
	p.mu.Lock()
	p.hotkeys[accelerator] = fn
	p.mu.Unlock()
	return nil
}

func (p *HeadlessPlatform) UnregisterHotkeys() {
	p.mu.Lock()
	p.hotkeys = make(map[string]func())
	p.mu.Unlock()
}

func (p *HeadlessPlatform) OpenExternal(url string) error {
	p.mu.Lock()
	p.openedURLs = append(p.openedURLs, url)
	p.mu.Unlock()
	return nil
}

func (p *HeadlessPlatform) OpenItem(path string) error {
	p.mu.Lock()
	p.openedItems = append(p.openedItems, path)
	p.mu.Unlock()
	return nil
}

func (p *HeadlessPlatform) HideApp() {
	p.mu.Lock()
	p.hideCount++
	p.mu.Unlock()
}

func (p *HeadlessPlatform) QuitsOnLastWindowClose() bool {
	return !p.KeepAliveOnClose
}

// Introspection helpers used by tests.

func (p *HeadlessPlatform) Dialogs() []MessageBoxOptions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]MessageBoxOptions(nil), p.dialogs...)
}

func (p *HeadlessPlatform) Windows() []*HeadlessWindow {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*HeadlessWindow(nil), p.windows...)
}

func (p *HeadlessPlatform) LastWindow() *HeadlessWindow {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.windows) == 0 {
		return nil
	}
	return p.windows[len(p.windows)-1]
}

func (p *HeadlessPlatform) Menu() *MenuTemplate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.menu
}

func (p *HeadlessPlatform) DockMenu() *MenuTemplate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dock
}

func (p *HeadlessPlatform) UserTasks() []UserTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]UserTask(nil), p.tasks...)
}

func (p *HeadlessPlatform) OpenedItems() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.openedItems...)
}

func (p *HeadlessPlatform) HiddenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hideCount
}

// ClickMenuAction simulates activating a menu item by action name.
func (p *HeadlessPlatform) ClickMenuAction(action Action, arg string) {
	p.mu.Lock()
	dispatch := p.dispatch
	p.mu.Unlock()
	if dispatch != nil {
		dispatch.Dispatch(action, arg)
	}
}

// PressHotkey simulates a global accelerator press.
func (p *HeadlessPlatform) PressHotkey(accelerator string) {
	p.mu.Lock()
	fn := p.hotkeys[accelerator]
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// HeadlessWindow is a window that exists only as state. Paint-related events
// fire immediately; Close runs the close sequence synchronously.
type HeadlessWindow struct {
	platform *HeadlessPlatform
	opts     WindowOptions

	mu         sync.Mutex
	shown      bool
	minimized  bool
	focusCount int
	x, y       int
	menu       *MenuTemplate
	closed     bool
	onceClose  []func()
	onceClosed []func()
	contents   *HeadlessContents
}

func (w *HeadlessWindow) Show() {
	w.mu.Lock()
	w.shown = true
	w.mu.Unlock()
}

func (w *HeadlessWindow) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	closing := w.onceClose
	closed := w.onceClosed
	w.onceClose = nil
	w.onceClosed = nil
	w.mu.Unlock()

	for _, fn := range closing {
		fn()
	}
	for _, fn := range closed {
		fn()
	}
}

func (w *HeadlessWindow) Focus() {
	w.mu.Lock()
	w.focusCount++
	w.minimized = false
	w.mu.Unlock()
}

func (w *HeadlessWindow) Restore() {
	w.mu.Lock()
	w.minimized = false
	w.mu.Unlock()
}

func (w *HeadlessWindow) IsMinimized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.minimized
}

func (w *HeadlessWindow) Position() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x, w.y
}

func (w *HeadlessWindow) SetMenu(menu *MenuTemplate) {
	w.mu.Lock()
	w.menu = menu
	w.mu.Unlock()
}

// OnceReadyToShow fires immediately: an in-memory window can always paint.
func (w *HeadlessWindow) OnceReadyToShow(fn func()) {
	fn()
}

func (w *HeadlessWindow) OnceClose(fn func()) {
	w.mu.Lock()
	w.onceClose = append(w.onceClose, fn)
	w.mu.Unlock()
}

func (w *HeadlessWindow) OnceClosed(fn func()) {
	w.mu.Lock()
	w.onceClosed = append(w.onceClosed, fn)
	w.mu.Unlock()
}

func (w *HeadlessWindow) RemoveAllListeners() {
	w.mu.Lock()
	w.onceClose = nil
	w.onceClosed = nil
	w.mu.Unlock()
}

func (w *HeadlessWindow) Contents() WebContents {
	return w.contents
}

// Test helpers.

func (w *HeadlessWindow) IsShown() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shown
}

func (w *HeadlessWindow) IsClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *HeadlessWindow) SetMinimized(v bool) {
	w.mu.Lock()
	w.minimized = v
	w.mu.Unlock()
}

func (w *HeadlessWindow) FocusCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focusCount
}

func (w *HeadlessWindow) HeadlessContents() *HeadlessContents {
	return w.contents
}

func (w *HeadlessWindow) HeadlessSession() *HeadlessSession {
	return w.contents.session
}

// HeadlessContents simulates the browsing context. It is also the bridge send
// target: a message on the open channel behaves like the content script
// navigating the page, so loads and DOM-ready events happen synchronously.
type HeadlessContents struct {
	id      string
	win     *HeadlessWindow
	session *HeadlessSession

	mu            sync.Mutex
	url           string
	html          string
	css           []string
	sent          []bridge.Message
	domReady      map[int]func()
	nextDOMKey    int
	onceDOMReady  []func()
	willNavigate  func(string) bool
	newWindow     func(string) bool
	didFinishLoad []func()
}

func (c *HeadlessContents) ID() string { return c.id }

func (c *HeadlessContents) Send(msg bridge.Message) error {
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()

	// The content script navigates when told to open a URL. That navigation
	// goes through the will-navigate gate, unlike a direct LoadURL.
	if msg.Channel == bridge.ChanOpen {
		c.mu.Lock()
		gate := c.willNavigate
		c.mu.Unlock()
		if gate != nil && !gate(msg.Payload) {
			return nil
		}
		c.load(msg.Payload, "")
	}
	return nil
}

func (c *HeadlessContents) URL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.url
}

func (c *HeadlessContents) LoadURL(url string) {
	c.load(url, "")
}

func (c *HeadlessContents) LoadHTML(html string) {
	c.load("", html)
}

// load commits a navigation and fires DOM-ready and finish-load handlers
// synchronously, outside the contents lock so handlers may re-enter.
func (c *HeadlessContents) load(url, html string) {
	c.mu.Lock()
	c.url = url
	c.html = html
	persistent := make([]func(), 0, len(c.domReady))
	for _, fn := range c.domReady {
		persistent = append(persistent, fn)
	}
	once := c.onceDOMReady
	c.onceDOMReady = nil
	finished := append([]func(){}, c.didFinishLoad...)
	c.mu.Unlock()

	for _, fn := range persistent {
		fn()
	}
	for _, fn := range once {
		fn()
	}
	for _, fn := range finished {
		fn()
	}
}

func (c *HeadlessContents) InsertCSS(css string) {
	c.mu.Lock()
	c.css = append(c.css, css)
	c.mu.Unlock()
}

func (c *HeadlessContents) OnDOMReady(fn func()) func() {
	c.mu.Lock()
	key := c.nextDOMKey
	c.nextDOMKey++
	c.domReady[key] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.domReady, key)
		c.mu.Unlock()
	}
}

func (c *HeadlessContents) OnceDOMReady(fn func()) {
	c.mu.Lock()
	c.onceDOMReady = append(c.onceDOMReady, fn)
	c.mu.Unlock()
}

func (c *HeadlessContents) OnWillNavigate(fn func(url string) bool) {
	c.mu.Lock()
	c.willNavigate = fn
	c.mu.Unlock()
}

func (c *HeadlessContents) OnNewWindow(fn func(url string) bool) {
	c.mu.Lock()
	c.newWindow = fn
	c.mu.Unlock()
}

func (c *HeadlessContents) OnDidFinishLoad(fn func()) {
	c.mu.Lock()
	c.didFinishLoad = append(c.didFinishLoad, fn)
	c.mu.Unlock()
}

func (c *HeadlessContents) RemoveAllListeners() {
	c.mu.Lock()
	c.domReady = make(map[int]func())
	c.onceDOMReady = nil
	c.willNavigate = nil
	c.newWindow = nil
	c.didFinishLoad = nil
	c.mu.Unlock()
}

func (c *HeadlessContents) Session() WebSession {
	return c.session
}

// Test helpers.

func (c *HeadlessContents) SentMessages() []bridge.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bridge.Message(nil), c.sent...)
}

// SentOn returns the payloads of every message sent on chann, in order.
func (c *HeadlessContents) SentOn(chann bridge.Channel) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var payloads []string
	for _, msg := range c.sent {
		if msg.Channel == chann {
			payloads = append(payloads, msg.Payload)
		}
	}
	return payloads
}

func (c *HeadlessContents) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html
}

func (c *HeadlessContents) InsertedCSS() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.css...)
}

// TryNavigate simulates an in-page navigation attempt, returning whether the
// will-navigate gate let it through.
func (c *HeadlessContents) TryNavigate(url string) bool {
	c.mu.Lock()
	gate := c.willNavigate
	c.mu.Unlock()
	if gate != nil && !gate(url) {
		return false
	}
	c.load(url, "")
	return true
}

// TryOpenWindow simulates the page attempting to open a popup.
func (c *HeadlessContents) TryOpenWindow(url string) bool {
	c.mu.Lock()
	gate := c.newWindow
	c.mu.Unlock()
	return gate != nil && gate(url)
}

// HeadlessSession simulates the per-partition network event hooks.
type HeadlessSession struct {
	mu            sync.Mutex
	completedPats []string
	completedFn   func(RequestDetails)
	beforePats    []string
	beforeFn      func(RequestDetails)
	permissionFn  func(PermissionRequest) bool
}

func (s *HeadlessSession) OnRequestCompleted(urlPatterns []string, fn func(RequestDetails)) {
	s.mu.Lock()
	s.completedPats = urlPatterns
	s.completedFn = fn
	s.mu.Unlock()
}

func (s *HeadlessSession) OnBeforeRequest(urlPatterns []string, fn func(RequestDetails)) {
	s.mu.Lock()
	s.beforePats = urlPatterns
	s.beforeFn = fn
	s.mu.Unlock()
}

func (s *HeadlessSession) SetPermissionHandler(fn func(req PermissionRequest) bool) {
	s.mu.Lock()
	s.permissionFn = fn
	s.mu.Unlock()
}

// Test helpers to feed simulated network events.

func (s *HeadlessSession) FireRequestCompleted(d RequestDetails) {
	s.mu.Lock()
	pats, fn := s.completedPats, s.completedFn
	s.mu.Unlock()
	if fn != nil && matchAnyPattern(pats, d.URL) {
		fn(d)
	}
}

func (s *HeadlessSession) FireBeforeRequest(d RequestDetails) {
	s.mu.Lock()
	pats, fn := s.beforePats, s.beforeFn
	s.mu.Unlock()
	if fn != nil && matchAnyPattern(pats, d.URL) {
		fn(d)
	}
}

func (s *HeadlessSession) HasBeforeRequestHook() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beforeFn != nil
}

// AskPermission runs the installed permission handler; no handler denies.
func (s *HeadlessSession) AskPermission(req PermissionRequest) bool {
	s.mu.Lock()
	fn := s.permissionFn
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	return fn(req)
}

// matchAnyPattern matches URL filter patterns: literal URLs plus a trailing
// asterisk wildcard.
func matchAnyPattern(patterns []string, url string) bool {
	for _, p := range patterns {
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(url, strings.TrimSuffix(p, "*")) {
				return true
			}
		} else if p == url {
			return true
		}
	}
	return false
}
