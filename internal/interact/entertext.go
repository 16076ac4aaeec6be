package interact

import (
	"fmt"
	"log"
	"time"
)

// doEnterText fills the element matching the selector with text. The fill
// mechanism is either direct value assignment (default) or simulated
// keystrokes, followed by an optional trailing-space nudge and a settle
// delay.
func (it *Interactor) doEnterText(page Page, selector, text string) Outcome {
	el, err := page.Element(selector, it.cfg.AttachTimeout)
	if err != nil {
		log.Printf("Selector %q not found for text entry: %v", selector, err)
		return failure(fmt.Sprintf("Error: selector %q not found within the wait budget. Unable to continue.", selector))
	}

	if it.cfg.KeyboardFill {
		if err := el.Focus(); err != nil {
			return it.fillFailure(selector, err)
		}
		if err := page.Type(text, it.cfg.TypeDelay); err != nil {
			return it.fillFailure(selector, err)
		}
	} else {
		result, err := page.Eval(fillScript, selector, text)
		if err != nil {
			return it.fillFailure(selector, err)
		}
		if ok, isBool := result.(bool); isBool && !ok {
			return it.fillFailure(selector, fmt.Errorf("element disappeared before the fill script ran"))
		}
	}

	if it.cfg.TrailingNudge {
		// Some pages only dismiss floating placeholders on a real
		// keystroke; re-focus and type a single space.
		if err := it.nudge(page, el); err != nil {
			return it.fillFailure(selector, err)
		}
	}

	if it.cfg.SettleDelay > 0 {
		time.Sleep(it.cfg.SettleDelay)
	}

	log.Printf("Text %q set successfully in the element with selector %q", text, selector)
	return success(fmt.Sprintf("Success. Text %q set successfully in the element with selector %q.", text, selector))
}

func (it *Interactor) nudge(page Page, el Element) error {
	if err := el.Focus(); err != nil {
		return err
	}
	return page.Type(" ", 0)
}

func (it *Interactor) fillFailure(selector string, err error) Outcome {
	log.Printf("Error entering text in selector %q: %v", selector, err)
	return failure(fmt.Sprintf("Error entering text in selector %q. Error: %v", selector, err))
}
