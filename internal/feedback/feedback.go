// Package feedback gives the user visual and textual feedback around each
// interaction: a highlight on the target element and a notification line.
// Everything here is fire-and-forget; a page that rejects the highlight
// script must never fail the interaction it decorates.
package feedback

import (
	"log"
	"sync"

	"github.com/go-rod/rod"
)

// highlightScript outlines the target element. When persist is false the
// outline is removed after the pulse finishes.
const highlightScript = `(selector, persist) => {
	const element = document.querySelector(selector);
	if (!element) {
		return false;
	}
	const original = element.style.outline;
	element.style.outline = "2px solid red";
	element.style.transition = "outline 0.3s ease-in-out";
	if (!persist) {
		setTimeout(() => { element.style.outline = original; }, 2000);
	}
	return true;
}`

// PageProvider hands out the live page, nil when no session is open.
type PageProvider interface {
	CurrentPage() *rod.Page
}

// Hub highlights elements on the current page and fans notifications out to
// subscribers (the WebSocket feed) as well as the log.
type Hub struct {
	pages PageProvider

	mu          sync.RWMutex
	subscribers []chan string
}

// NewHub creates a feedback hub bound to the session's page provider.
func NewHub(pages PageProvider) *Hub {
	return &Hub{pages: pages}
}

// HighlightElement outlines the element matching selector on the current
// page. Best-effort: a missing page or a failing script is logged and
// dropped.
func (h *Hub) HighlightElement(selector string, persist bool) {
	page := h.pages.CurrentPage()
	if page == nil {
		return
	}

	result, err := page.Eval(highlightScript, selector, persist)
	if err != nil {
		log.Printf("Warning: failed to highlight %q: %v", selector, err)
		return
	}
	if !result.Value.Bool() {
		log.Printf("Warning: nothing to highlight for selector %q", selector)
	}
}

// NotifyUser logs the message and broadcasts it to all subscribers.
func (h *Hub) NotifyUser(message string) {
	log.Printf("Notify: %s", message)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- message:
		default:
			// Skip if channel is full
		}
	}
}

// Subscribe creates a notification subscription.
func (h *Hub) Subscribe() <-chan string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan string, 16)
	h.subscribers = append(h.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (h *Hub) Unsubscribe(ch <-chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, sub := range h.subscribers {
		if sub == ch {
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}
