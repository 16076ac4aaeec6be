package interact

import (
	"fmt"
	"log"
)

// doClick runs the wait/classify/execute pipeline for a click. It always
// returns an Outcome; every error past the facade boundary is converted to
// a failure message.
func (it *Interactor) doClick(page Page, selector string) Outcome {
	el, err := page.Element(selector, it.cfg.AttachTimeout)
	if err != nil {
		log.Printf("Element with selector %q not found within %s: %v", selector, it.cfg.AttachTimeout, err)
		return failure(fmt.Sprintf(
			"Element with selector %q not found within the wait budget. Proceed by retrieving the DOM again and retry with a different selector.",
			selector))
	}

	logSoftFailure(selector, scrollIntoView(el, it.cfg.SoftTimeout))
	logSoftFailure(selector, waitVisible(el, it.cfg.SoftTimeout))

	tag, err := el.TagName()
	if err != nil {
		return it.clickFailure(selector, err)
	}

	switch classifyTag(tag) {
	case kindOption:
		return it.selectOption(el, selector)
	default:
		return it.clickGeneric(page, el, selector)
	}
}

// selectOption redirects the click to select-option semantics on the owning
// select element.
func (it *Interactor) selectOption(el Element, selector string) Outcome {
	value, err := el.Attribute("value")
	if err != nil {
		return it.clickFailure(selector, err)
	}

	if err := el.SelectParentOption(value); err != nil {
		return it.clickFailure(selector, err)
	}

	log.Printf("Select menu option %q selected", value)
	return success(fmt.Sprintf("Select menu option %q selected", value))
}

// clickGeneric focuses the element and clicks it. The in-page script click
// is the default; the native click has proven less reliable against
// dynamically rendered pages and stays behind a flag.
func (it *Interactor) clickGeneric(page Page, el Element, selector string) Outcome {
	if err := el.Focus(); err != nil {
		return it.clickFailure(selector, err)
	}

	if it.cfg.NativeClick {
		if err := el.Click(it.cfg.SoftTimeout); err != nil {
			return it.clickFailure(selector, err)
		}
		return success(fmt.Sprintf("Element with selector %q clicked.", selector))
	}

	result, err := page.Eval(clickScript, selector)
	if err != nil {
		return it.clickFailure(selector, err)
	}
	// The script re-resolves the selector; "" means it went stale between
	// the host-side wait and dispatch.
	if msg, ok := result.(string); ok && msg == "" {
		return it.clickFailure(selector, fmt.Errorf("element disappeared before the click script ran"))
	}

	return success(fmt.Sprintf("Element with selector %q clicked.", selector))
}

func (it *Interactor) clickFailure(selector string, err error) Outcome {
	log.Printf("Unable to click element with selector %q: %v", selector, err)
	return failure(fmt.Sprintf(
		"Unable to click element with selector %q. Proceed by retrieving the DOM again and retry with a different selector.",
		selector))
}
