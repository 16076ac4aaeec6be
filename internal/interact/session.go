package interact

import (
	"errors"
	"time"
)

// ErrNoActivePage is returned when an interaction is attempted before a page
// has been opened. It is the only error the facade raises; everything else
// is reported through the Outcome message.
var ErrNoActivePage = errors.New("no active page found, open a URL to start a session")

// Session exposes the browser session to the interaction pipeline.
type Session interface {
	// CurrentPage returns the active page, or nil when no session is open.
	CurrentPage() Page
}

// Page is the subset of page operations the pipeline needs.
type Page interface {
	// Element waits up to timeout for the selector to match an attached
	// element. Timing out or matching nothing is an error.
	Element(selector string, timeout time.Duration) (Element, error)
	// Eval runs a JS function inside the page with JSON-serializable
	// arguments and returns the deserialized result.
	Eval(js string, args ...interface{}) (interface{}, error)
	// Type dispatches keystrokes to the focused element, pausing delay
	// between keys.
	Type(text string, delay time.Duration) error
}

// Element is a resolved DOM element.
type Element interface {
	ScrollIntoView(timeout time.Duration) error
	WaitVisible(timeout time.Duration) error
	// TagName returns the lower-cased tag name.
	TagName() (string, error)
	// Attribute returns the attribute value, or "" when absent.
	Attribute(name string) (string, error)
	// SelectParentOption selects the option with the given value on the
	// owning select element.
	SelectParentOption(value string) error
	Focus() error
	// Click performs the automation-layer native click. Not the default
	// path; see Config.NativeClick.
	Click(timeout time.Duration) error
}

// Feedback receives fire-and-forget UI feedback around each interaction.
type Feedback interface {
	HighlightElement(selector string, persist bool)
	NotifyUser(message string)
}

// NopFeedback discards all feedback.
type NopFeedback struct{}

func (NopFeedback) HighlightElement(string, bool) {}
func (NopFeedback) NotifyUser(string)             {}
