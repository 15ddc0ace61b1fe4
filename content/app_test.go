package content

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetgo/bridge"
)

type fakeTransport struct {
	sent     []bridge.Message
	handlers map[bridge.Channel][]bridge.Listener
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[bridge.Channel][]bridge.Listener)}
}

func (t *fakeTransport) Send(msg bridge.Message) error {
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) On(chann bridge.Channel, fn bridge.Listener) {
	t.handlers[chann] = append(t.handlers[chann], fn)
}

func (t *fakeTransport) deliver(chann bridge.Channel, payload string) {
	for _, fn := range t.handlers[chann] {
		fn(payload)
	}
}

func (t *fakeTransport) payloads(chann bridge.Channel) []string {
	var out []string
	for _, msg := range t.sent {
		if msg.Channel == chann {
			out = append(out, msg.Payload)
		}
	}
	return out
}

type fakeElement struct {
	text, aria, href string
	clicks, focuses  int
	inserted         []string
	onClick          []func()
}

func (e *fakeElement) Text() string      { return e.text }
func (e *fakeElement) AriaLabel() string { return e.aria }
func (e *fakeElement) Href() string      { return e.href }
func (e *fakeElement) Focus()            { e.focuses++ }

func (e *fakeElement) Click() {
	e.clicks++
	fns := e.onClick
	e.onClick = nil
	for _, fn := range fns {
		fn()
	}
}

func (e *fakeElement) InsertText(text string) { e.inserted = append(e.inserted, text) }
func (e *fakeElement) OnceClick(fn func())    { e.onClick = append(e.onClick, fn) }

type fakeDocument struct {
	location    string
	navigations []string
	testIDs     map[string]*fakeElement
	buttons     []*fakeElement
	anchors     []*fakeElement
	inputs      map[string]*fakeElement
	covers      int
	escBlocked  int
	selection   string
	replaced    []string
	online      bool
}

func newFakeDocument() *fakeDocument {
	return &fakeDocument{
		testIDs: make(map[string]*fakeElement),
		inputs:  make(map[string]*fakeElement),
		online:  true,
	}
}

func (d *fakeDocument) Navigate(url string) {
	d.navigations = append(d.navigations, url)
	d.location = url
}

func (d *fakeDocument) Location() string { return d.location }

func (d *fakeDocument) ElementByTestID(id string) Element {
	if e, ok := d.testIDs[id]; ok {
		return e
	}
	return nil
}

func (d *fakeDocument) Buttons() []Element {
	out := make([]Element, 0, len(d.buttons))
	for _, b := range d.buttons {
		out = append(out, b)
	}
	return out
}

func (d *fakeDocument) AnchorByHrefPrefix(prefix string) Element {
	for _, a := range d.anchors {
		if strings.HasPrefix(a.href, prefix) {
			return a
		}
	}
	return nil
}

func (d *fakeDocument) InputByNameContains(substr string) Element {
	for name, e := range d.inputs {
		if strings.Contains(name, substr) {
			return e
		}
	}
	return nil
}

func (d *fakeDocument) AppendCover()    { d.covers++ }
func (d *fakeDocument) BlockEscapeKey() { d.escBlocked++ }

func (d *fakeDocument) SelectionText() string { return d.selection }

func (d *fakeDocument) ReplaceSelection(text string) { d.replaced = append(d.replaced, text) }

func (d *fakeDocument) IsOnline() bool { return d.online }

func newTestApp(doc *fakeDocument, tr *fakeTransport) *App {
	app := NewApp(doc, tr, zerolog.Nop())
	app.wait = func(time.Duration) {}
	app.Start()
	return app
}

func TestStartReportsInitialState(t *testing.T) {
	doc := newFakeDocument()
	tr := newFakeTransport()
	newTestApp(doc, tr)

	assert.Equal(t, 1, doc.escBlocked)
	assert.Equal(t, []string{bridge.StatusOnline}, tr.payloads(bridge.ChanOnlineStatus))

	doc2 := newFakeDocument()
	doc2.online = false
	tr2 := newFakeTransport()
	newTestApp(doc2, tr2)
	assert.Equal(t, []string{bridge.StatusOffline}, tr2.payloads(bridge.ChanOnlineStatus))
}

func TestOpenNavigates(t *testing.T) {
	doc := newFakeDocument()
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanOpen, "https://mobile.twitter.com/compose/tweet")
	assert.Equal(t, []string{"https://mobile.twitter.com/compose/tweet"}, doc.navigations)
}

func TestClickTweetButtonByTestID(t *testing.T) {
	doc := newFakeDocument()
	btn := &fakeElement{}
	doc.testIDs[testIDTweetButton] = btn
	// A label match further down must not win over the test id.
	doc.buttons = append(doc.buttons, &fakeElement{text: "Tweet"})
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanClickTweetButton, "")
	assert.Equal(t, 1, btn.clicks)
	assert.Zero(t, doc.buttons[0].clicks)
}

func TestClickTweetButtonFallsBackToLabel(t *testing.T) {
	doc := newFakeDocument()
	other := &fakeElement{text: "Settings"}
	localized := &fakeElement{text: "ツイート"}
	doc.buttons = append(doc.buttons, other, localized)
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanClickTweetButton, "")
	assert.Equal(t, 1, localized.clicks)
	assert.Zero(t, other.clicks)
}

func TestClickTweetButtonMissingIsNoop(t *testing.T) {
	doc := newFakeDocument()
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanClickTweetButton, "")
	assert.Empty(t, doc.navigations)
}

func TestSentTweetWithoutScreenName(t *testing.T) {
	doc := newFakeDocument()
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanSentTweet, "https://mobile.twitter.com/compose/tweet")

	assert.Equal(t, []string{"https://mobile.twitter.com/compose/tweet"}, doc.navigations)
	assert.Zero(t, doc.covers)
	assert.Empty(t, tr.payloads(bridge.ChanPrevTweetID))
}

func TestSentTweetDiscoversPostID(t *testing.T) {
	doc := newFakeDocument()
	tr := newFakeTransport()
	app := newTestApp(doc, tr)
	tr.deliver(bridge.ChanScreenName, "foo")

	// The status anchor shows up only after the page re-renders.
	waits := 0
	app.wait = func(time.Duration) {
		waits++
		if waits == 3 {
			doc.anchors = append(doc.anchors, &fakeElement{href: "/foo/status/114514"})
		}
	}

	tr.deliver(bridge.ChanSentTweet, "https://mobile.twitter.com/compose/tweet")

	assert.Equal(t, 1, doc.covers)
	assert.Equal(t, []string{"114514"}, tr.payloads(bridge.ChanPrevTweetID))
	assert.Equal(t, []string{"https://mobile.twitter.com/compose/tweet"}, doc.navigations)
	assert.Equal(t, 3, waits)
}

func TestSentTweetIgnoresOtherAccountsAnchors(t *testing.T) {
	doc := newFakeDocument()
	doc.anchors = append(doc.anchors, &fakeElement{href: "/someone_else/status/1"})
	tr := newFakeTransport()
	app := newTestApp(doc, tr)
	tr.deliver(bridge.ChanScreenName, "foo")

	waits := 0
	app.wait = func(time.Duration) {
		waits++
		if waits == 1 {
			doc.anchors = append(doc.anchors, &fakeElement{href: "/foo/status/42"})
		}
	}

	tr.deliver(bridge.ChanSentTweet, "https://mobile.twitter.com/compose/tweet")
	assert.Equal(t, []string{"42"}, tr.payloads(bridge.ChanPrevTweetID))
}

func TestSentTweetAppendsReplyTarget(t *testing.T) {
	t.Run("with existing query", func(t *testing.T) {
		doc := newFakeDocument()
		doc.anchors = append(doc.anchors, &fakeElement{href: "/foo/status/114514"})
		tr := newFakeTransport()
		newTestApp(doc, tr)
		tr.deliver(bridge.ChanScreenName, "foo")
		tr.deliver(bridge.ChanActionAfterTweet, "reply previous")

		tr.deliver(bridge.ChanSentTweet, "https://mobile.twitter.com/compose/tweet?text=hi")
		assert.Equal(t, []string{"https://mobile.twitter.com/compose/tweet?text=hi&in_reply_to=114514"}, doc.navigations)
	})

	t.Run("without query", func(t *testing.T) {
		doc := newFakeDocument()
		doc.anchors = append(doc.anchors, &fakeElement{href: "/foo/status/114514"})
		tr := newFakeTransport()
		newTestApp(doc, tr)
		tr.deliver(bridge.ChanScreenName, "foo")
		tr.deliver(bridge.ChanActionAfterTweet, "reply previous")

		tr.deliver(bridge.ChanSentTweet, "https://mobile.twitter.com/compose/tweet")
		assert.Equal(t, []string{"https://mobile.twitter.com/compose/tweet?in_reply_to=114514"}, doc.navigations)
	})
}

func TestSentTweetDiscoveryTimeout(t *testing.T) {
	doc := newFakeDocument()
	tr := newFakeTransport()
	app := newTestApp(doc, tr)
	tr.deliver(bridge.ChanScreenName, "foo")
	tr.deliver(bridge.ChanActionAfterTweet, "reply previous")

	waits := 0
	app.wait = func(time.Duration) { waits++ }

	tr.deliver(bridge.ChanSentTweet, "https://mobile.twitter.com/compose/tweet")

	// Gives up after the poll budget: exactly one unmodified navigation and
	// no id report.
	assert.Equal(t, app.maxAttempts, waits)
	assert.Equal(t, []string{"https://mobile.twitter.com/compose/tweet"}, doc.navigations)
	assert.Empty(t, tr.payloads(bridge.ChanPrevTweetID))
}

func TestLoginFillsUsername(t *testing.T) {
	doc := newFakeDocument()
	username := &fakeElement{}
	password := &fakeElement{}
	doc.inputs["session[username_or_email]"] = username
	doc.inputs["session[password]"] = password
	tr := newFakeTransport()
	newTestApp(doc, tr)
	tr.deliver(bridge.ChanScreenName, "foo")

	tr.deliver(bridge.ChanLogin, "")

	assert.Equal(t, []string{"foo"}, username.inserted)
	assert.Equal(t, 1, password.focuses)
}

func TestLoginWithoutScreenNameIsNoop(t *testing.T) {
	doc := newFakeDocument()
	username := &fakeElement{}
	doc.inputs["session[username_or_email]"] = username
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanLogin, "")
	assert.Empty(t, username.inserted)
}

func TestLoginWithoutInputIsNoop(t *testing.T) {
	doc := newFakeDocument()
	tr := newFakeTransport()
	newTestApp(doc, tr)
	tr.deliver(bridge.ChanScreenName, "foo")

	tr.deliver(bridge.ChanLogin, "")
}

func TestCancelTweetWithoutConfirmationSheet(t *testing.T) {
	doc := newFakeDocument()
	back := &fakeElement{aria: "Back"}
	doc.buttons = append(doc.buttons, back)
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanCancelTweet, "")

	assert.Equal(t, 1, back.clicks)
	require.Len(t, tr.payloads(bridge.ChanResetWindow), 1)
}

func TestCancelTweetWaitsForConfirmationSheet(t *testing.T) {
	doc := newFakeDocument()
	back := &fakeElement{aria: "戻る"}
	discard := &fakeElement{}
	save := &fakeElement{}
	doc.buttons = append(doc.buttons, back)
	doc.testIDs[testIDDiscardButton] = discard
	doc.testIDs[testIDSaveButton] = save
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanCancelTweet, "")
	assert.Equal(t, 1, back.clicks)
	// Reset is deferred until the user resolves the sheet.
	assert.Empty(t, tr.payloads(bridge.ChanResetWindow))

	discard.Click()
	assert.Len(t, tr.payloads(bridge.ChanResetWindow), 1)
}

func TestCancelTweetSaveAlsoResets(t *testing.T) {
	doc := newFakeDocument()
	save := &fakeElement{}
	doc.testIDs[testIDSaveButton] = save
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanCancelTweet, "")
	assert.Empty(t, tr.payloads(bridge.ChanResetWindow))

	save.Click()
	assert.Len(t, tr.payloads(bridge.ChanResetWindow), 1)
}

func TestUnlinkTweetReplacesSelection(t *testing.T) {
	doc := newFakeDocument()
	doc.selection = "see example.com"
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanUnlinkTweet, "")
	require.Len(t, doc.replaced, 1)
	assert.Equal(t, UnlinkText("see example.com"), doc.replaced[0])
}

func TestUnlinkTweetWithoutSelectionIsNoop(t *testing.T) {
	doc := newFakeDocument()
	tr := newFakeTransport()
	newTestApp(doc, tr)

	tr.deliver(bridge.ChanUnlinkTweet, "")
	assert.Empty(t, doc.replaced)
}

func TestEmptyActionAfterTweetKeepsDefault(t *testing.T) {
	doc := newFakeDocument()
	tr := newFakeTransport()
	app := newTestApp(doc, tr)

	tr.deliver(bridge.ChanActionAfterTweet, "")
	assert.Equal(t, "new tweet", app.afterTweet)
}
