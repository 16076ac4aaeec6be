package interact

import "time"

// Default wait budgets. Attachment is the single hard wait; scroll and
// visibility are soft and independently bounded.
const (
	DefaultAttachTimeout = 2000 * time.Millisecond
	DefaultSoftTimeout   = 200 * time.Millisecond
	DefaultTypeDelay     = 2 * time.Millisecond
	DefaultSettleDelay   = time.Second
)

// Config tunes the interaction pipeline.
type Config struct {
	// AttachTimeout bounds the wait for the element to be attached to the
	// DOM. Exceeding it fails the whole operation.
	AttachTimeout time.Duration
	// SoftTimeout bounds the scroll-into-view and visibility waits. These
	// are allowed to fail; elements that are attached but lazily rendered
	// or permanently hidden are still interacted with.
	SoftTimeout time.Duration
	// KeyboardFill switches text entry from direct value assignment to
	// simulated keystrokes, for pages that require real input events.
	KeyboardFill bool
	// TypeDelay is the pause between simulated keystrokes.
	TypeDelay time.Duration
	// TrailingNudge re-focuses the element and types one space after the
	// fill, so frameworks that dismiss placeholders on input events update.
	TrailingNudge bool
	// SettleDelay is the pause after text entry before returning.
	SettleDelay time.Duration
	// NativeClick uses the automation layer's click instead of the in-page
	// script click. Off by default; the script click is more reliable
	// against dynamically rendered pages.
	NativeClick bool
}

// DefaultConfig returns the default pipeline tuning.
func DefaultConfig() Config {
	return Config{
		AttachTimeout: DefaultAttachTimeout,
		SoftTimeout:   DefaultSoftTimeout,
		KeyboardFill:  false,
		TypeDelay:     DefaultTypeDelay,
		TrailingNudge: true,
		SettleDelay:   DefaultSettleDelay,
		NativeClick:   false,
	}
}
