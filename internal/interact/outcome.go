package interact

// Outcome is the result of a single interaction. Every call through the
// facade produces exactly one Outcome; failures are encoded in the message
// rather than raised, so callers can always log or relay it verbatim.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// String returns the flattened, sentence-form result.
func (o Outcome) String() string {
	return o.Message
}

func success(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

func failure(message string) Outcome {
	return Outcome{Success: false, Message: message}
}

// TextEntry is a single fill instruction: put Text into the element
// identified by Selector.
type TextEntry struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

// BulkResult pairs a selector with the outcome of its text entry.
type BulkResult struct {
	Selector string `json:"selector"`
	Result   string `json:"result"`
}
