package interact

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// PageProvider hands out the live rod page. The browser manager implements
// it; nil means no session is open.
type PageProvider interface {
	CurrentPage() *rod.Page
}

// RodSession adapts a rod-backed browser session to the Session interface.
type RodSession struct {
	provider PageProvider
}

// NewRodSession wraps a page provider.
func NewRodSession(provider PageProvider) *RodSession {
	return &RodSession{provider: provider}
}

// CurrentPage returns the active page, or nil when no session is open.
func (s *RodSession) CurrentPage() Page {
	page := s.provider.CurrentPage()
	if page == nil {
		return nil
	}
	return &rodPage{page: page}
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) Element(selector string, timeout time.Duration) (Element, error) {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element not found: %w", err)
	}
	return &rodElement{el: el.CancelTimeout()}, nil
}

func (p *rodPage) Eval(js string, args ...interface{}) (interface{}, error) {
	result, err := p.page.Eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate script: %w", err)
	}
	return result.Value.Raw(), nil
}

func (p *rodPage) Type(text string, delay time.Duration) error {
	for _, r := range text {
		if err := p.page.Keyboard.Type(input.Key(r)); err != nil {
			return fmt.Errorf("failed to type %q: %w", r, err)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) ScrollIntoView(timeout time.Duration) error {
	return e.el.Timeout(timeout).ScrollIntoView()
}

func (e *rodElement) WaitVisible(timeout time.Duration) error {
	return e.el.Timeout(timeout).WaitVisible()
}

func (e *rodElement) TagName() (string, error) {
	result, err := e.el.Eval(`() => this.tagName.toLowerCase()`)
	if err != nil {
		return "", fmt.Errorf("failed to read tag name: %w", err)
	}
	return result.Value.Str(), nil
}

func (e *rodElement) Attribute(name string) (string, error) {
	value, err := e.el.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("failed to read attribute %q: %w", name, err)
	}
	if value == nil {
		return "", nil
	}
	return *value, nil
}

func (e *rodElement) SelectParentOption(value string) error {
	parent, err := e.el.Parent()
	if err != nil {
		return fmt.Errorf("failed to resolve parent select: %w", err)
	}
	selector := fmt.Sprintf(`option[value=%q]`, value)
	if err := parent.Select([]string{selector}, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("failed to select option %q: %w", value, err)
	}
	return nil
}

func (e *rodElement) Focus() error {
	return e.el.Focus()
}

func (e *rodElement) Click(timeout time.Duration) error {
	return e.el.Timeout(timeout).Click(proto.InputMouseButtonLeft, 1)
}
