// Package content implements the controller that runs against the hosted
// page: it reacts to bridge messages, locates page elements through fallback
// chains and reports tweet and connectivity events back to the app.
package content

// Document is the slice of the hosted page's DOM the controller needs. The
// production implementation is backed by the page's real document; tests use
// an in-memory double.
type Document interface {
	// Navigate points the page at a new URL.
	Navigate(url string)
	// Location returns the page's current URL.
	Location() string
	// ElementByTestID finds an element by its stable test-id attribute.
	// Returns nil when absent.
	ElementByTestID(id string) Element
	// Buttons returns the page's focusable role=button elements.
	Buttons() []Element
	// AnchorByHrefPrefix finds the first anchor whose href starts with
	// prefix. Returns nil when absent.
	AnchorByHrefPrefix(prefix string) Element
	// InputByNameContains finds the first input whose name attribute
	// contains substr. Returns nil when absent.
	InputByNameContains(substr string) Element
	// AppendCover overlays the viewport with an opaque element so stale
	// content does not flash while the page is about to navigate.
	AppendCover()
	// BlockEscapeKey installs a capture-phase key handler that stops
	// propagation of Escape, keeping the host page's own handler inert.
	BlockEscapeKey()
	// SelectionText returns the currently selected text, or "".
	SelectionText() string
	// ReplaceSelection replaces the current selection via text insertion so
	// undo history and framework-bound state stay consistent.
	ReplaceSelection(text string)
	// IsOnline reports the browser's connectivity state.
	IsOnline() bool
}

// Element is a single located page element.
type Element interface {
	Text() string
	AriaLabel() string
	Href() string
	Click()
	Focus()
	// InsertText inserts text as if typed, not by value assignment.
	InsertText(text string)
	// OnceClick runs fn on the next click of this element only.
	OnceClick(fn func())
}
