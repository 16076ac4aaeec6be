package interact

import (
	"fmt"
	"log"
	"time"
)

// SoftFailure records a non-fatal degradation in the wait pipeline. Soft
// failures are logged and discarded; only non-attachment aborts an
// interaction.
type SoftFailure struct {
	Stage string
	Err   error
}

func (f *SoftFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", f.Stage, f.Err)
}

// scrollIntoView brings the element on screen if needed, within timeout.
func scrollIntoView(el Element, timeout time.Duration) *SoftFailure {
	if err := el.ScrollIntoView(timeout); err != nil {
		return &SoftFailure{Stage: "scroll into view", Err: err}
	}
	return nil
}

// waitVisible waits for the element to have a rendered size, within timeout.
// Elements that stay hidden (custom widgets, display:none) are still
// interacted with afterwards.
func waitVisible(el Element, timeout time.Duration) *SoftFailure {
	if err := el.WaitVisible(timeout); err != nil {
		return &SoftFailure{Stage: "visibility wait", Err: err}
	}
	return nil
}

func logSoftFailure(selector string, f *SoftFailure) {
	if f == nil {
		return
	}
	log.Printf("Warning: %s for selector %q, continuing: %v", f.Stage, selector, f.Err)
}
