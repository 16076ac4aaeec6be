// Package dom extracts page content for the agent loop that discovers
// selectors before interacting.
package dom

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
)

// ContentType selects what Extract returns.
type ContentType string

const (
	// ContentTypeTextOnly returns the page's rendered text.
	ContentTypeTextOnly ContentType = "text_only"
	// ContentTypeInputFields returns only the interactive elements.
	ContentTypeInputFields ContentType = "input_fields"
	// ContentTypeAllFields returns every field-like element.
	ContentTypeAllFields ContentType = "all_fields"
)

// ErrNoActivePage mirrors the session precondition; extraction needs an
// open page just like interaction does.
var ErrNoActivePage = fmt.Errorf("no active page found, open a URL to start a session")

// PageProvider hands out the live page, nil when no session is open.
type PageProvider interface {
	CurrentPage() *rod.Page
}

// Extractor pulls content out of the current page.
type Extractor struct {
	pages PageProvider
	// SnapshotDir, when set, receives a text dump of every text_only
	// extraction for offline inspection.
	SnapshotDir string
}

// NewExtractor creates an extractor bound to the session's page provider.
func NewExtractor(pages PageProvider) *Extractor {
	return &Extractor{pages: pages}
}

// Extract returns the page content for the given type: a string for
// text_only, a list of field descriptors otherwise.
func (e *Extractor) Extract(ctx context.Context, contentType ContentType) (interface{}, error) {
	switch contentType {
	case ContentTypeTextOnly, ContentTypeInputFields, ContentTypeAllFields:
	default:
		return nil, fmt.Errorf("unsupported content type: %q", contentType)
	}

	page := e.pages.CurrentPage()
	if page == nil {
		return nil, ErrNoActivePage
	}

	start := time.Now()
	defer func() {
		log.Printf("DOM extraction (%s) took %s", contentType, time.Since(start))
	}()

	page = page.Context(ctx)

	if contentType == ContentTypeTextOnly {
		result, err := page.Eval(textOnlyScript)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page text: %w", err)
		}
		text := result.Value.Str()
		e.writeSnapshot(text)
		return text, nil
	}

	result, err := page.Eval(fieldsScript, contentType == ContentTypeInputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to extract fields: %w", err)
	}
	return result.Value.Raw(), nil
}

func (e *Extractor) writeSnapshot(text string) {
	if e.SnapshotDir == "" {
		return
	}

	if err := os.MkdirAll(e.SnapshotDir, 0755); err != nil {
		log.Printf("Warning: failed to create snapshot dir: %v", err)
		return
	}

	path := filepath.Join(e.SnapshotDir, "text_only_dom.txt")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		log.Printf("Warning: failed to write text snapshot: %v", err)
	}
}

const textOnlyScript = `() => document?.body?.innerText || document?.documentElement?.innerText || ""`

// fieldsScript lists field-like elements with a selector hint the agent can
// feed back into the interaction endpoints. Prefers stable hints (#id, then
// [name=...]) over positional ones.
const fieldsScript = `(inputOnly) => {
	const query = inputOnly
		? "input, textarea, select, button, a[href], [role=button], [contenteditable=true]"
		: "input, textarea, select, button, a, label, option, [role], [contenteditable]";
	const hint = (el) => {
		if (el.id) {
			return "#" + CSS.escape(el.id);
		}
		if (el.name) {
			return el.tagName.toLowerCase() + "[name=\"" + el.name + "\"]";
		}
		const tag = el.tagName.toLowerCase();
		const siblings = Array.from(el.parentNode ? el.parentNode.children : []).filter(s => s.tagName === el.tagName);
		const index = siblings.indexOf(el) + 1;
		return tag + ":nth-of-type(" + index + ")";
	};
	return Array.from(document.querySelectorAll(query)).map(el => ({
		tag: el.tagName.toLowerCase(),
		type: el.type || "",
		selector: hint(el),
		name: el.name || "",
		placeholder: el.placeholder || "",
		label: el.getAttribute("aria-label") || "",
		value: typeof el.value === "string" ? el.value : "",
		text: (el.innerText || "").trim().slice(0, 200),
	}));
}`
