package interact

// In-page scripts re-resolve the selector inside the page context instead of
// receiving an element handle; handles can go stale between the host-side
// wait and script dispatch.

// clickScript dispatches a native click. Anchors are forced to open in the
// same tab so navigation stays on the tracked page. Returns "" when the
// selector no longer matches anything.
const clickScript = `(selector) => {
	const element = document.querySelector(selector);
	if (!element) {
		return "";
	}
	const tag = element.tagName.toLowerCase();
	if (tag === "option") {
		const parent = element.parentElement;
		parent.value = element.value;
		parent.dispatchEvent(new Event("change", { bubbles: true }));
		return "Select menu option " + element.text + " selected";
	}
	if (tag === "a") {
		element.target = "_self";
	}
	element.click();
	return "Clicked element with selector: " + selector;
}`

// fillScript sets the value property directly, bypassing keystroke events.
// Returns false when the selector no longer matches anything.
const fillScript = `(selector, text) => {
	const element = document.querySelector(selector);
	if (!element) {
		return false;
	}
	element.value = text;
	return true;
}`
