package interact

import (
	"context"
	"log"
	"sync"
	"time"
)

// Interactor is the public entry point for page interactions. All
// operations run against the session's single current page; a mutex
// serializes them, since concurrent DOM interaction against one page races
// on focus, scroll position and the active element.
type Interactor struct {
	session  Session
	feedback Feedback
	cfg      Config
	mu       sync.Mutex
}

// New creates an Interactor. A nil feedback disables UI feedback.
func New(session Session, feedback Feedback, cfg Config) *Interactor {
	if feedback == nil {
		feedback = NopFeedback{}
	}
	return &Interactor{
		session:  session,
		feedback: feedback,
		cfg:      cfg,
	}
}

// Click clicks the element matching selector, waiting waitBefore first when
// the caller knows the previous action is still rendering. The returned
// Outcome describes success or failure in sentence form; the only error is
// ErrNoActivePage.
func (it *Interactor) Click(ctx context.Context, selector string, waitBefore time.Duration) (Outcome, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	log.Printf("Executing click with %q as the selector", selector)

	page := it.session.CurrentPage()
	if page == nil {
		return Outcome{}, ErrNoActivePage
	}

	it.feedback.HighlightElement(selector, true)

	if waitBefore > 0 {
		select {
		case <-time.After(waitBefore):
		case <-ctx.Done():
		}
	}

	outcome := it.doClick(page, selector)
	it.feedback.NotifyUser(outcome.Message)
	return outcome, nil
}

// EnterText enters entry.Text into the element matching entry.Selector.
func (it *Interactor) EnterText(ctx context.Context, entry TextEntry) (Outcome, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.enterTextLocked(ctx, entry)
}

// BulkEnterText applies text entry to each entry in order, strictly
// sequentially, holding the page for the whole batch. Every entry gets a
// result; a failing entry never aborts its siblings.
func (it *Interactor) BulkEnterText(ctx context.Context, entries []TextEntry) []BulkResult {
	it.mu.Lock()
	defer it.mu.Unlock()

	log.Printf("Executing bulk text entry for %d entries", len(entries))

	results := make([]BulkResult, 0, len(entries))
	for _, entry := range entries {
		outcome, err := it.enterTextLocked(ctx, entry)
		message := outcome.Message
		if err != nil {
			message = "Error: " + err.Error()
		}
		results = append(results, BulkResult{Selector: entry.Selector, Result: message})
	}
	return results
}

func (it *Interactor) enterTextLocked(ctx context.Context, entry TextEntry) (Outcome, error) {
	log.Printf("Entering text into %q", entry.Selector)

	page := it.session.CurrentPage()
	if page == nil {
		return Outcome{}, ErrNoActivePage
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	it.feedback.HighlightElement(entry.Selector, true)

	outcome := it.doEnterText(page, entry.Selector, entry.Text)
	it.feedback.NotifyUser(outcome.Message)
	return outcome, nil
}
