package interact_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ahrdadan/pagepilot/internal/interact"
)

// fakeSession hands out a scripted page.
type fakeSession struct {
	page interact.Page
}

func (s *fakeSession) CurrentPage() interact.Page {
	return s.page
}

// fakePage resolves selectors against a fixed element map and returns canned
// script results.
type fakePage struct {
	elements map[string]*fakeElement

	evalResult interface{}
	evalErr    error
	evalCalls  []string
	evalArgs   [][]interface{}

	typed   []string
	typeErr error
}

func (p *fakePage) Element(selector string, timeout time.Duration) (interact.Element, error) {
	el, ok := p.elements[selector]
	if !ok {
		return nil, fmt.Errorf("cannot find element matching %q", selector)
	}
	return el, nil
}

func (p *fakePage) Eval(js string, args ...interface{}) (interface{}, error) {
	p.evalCalls = append(p.evalCalls, js)
	p.evalArgs = append(p.evalArgs, args)
	return p.evalResult, p.evalErr
}

func (p *fakePage) Type(text string, delay time.Duration) error {
	if p.typeErr != nil {
		return p.typeErr
	}
	p.typed = append(p.typed, text)
	return nil
}

type fakeElement struct {
	tag   string
	attrs map[string]string

	scrollErr  error
	visibleErr error
	focusErr   error
	clickErr   error

	focused       bool
	nativeClicked bool
	selectedValue string
	selectErr     error
}

func (e *fakeElement) ScrollIntoView(timeout time.Duration) error { return e.scrollErr }
func (e *fakeElement) WaitVisible(timeout time.Duration) error    { return e.visibleErr }

func (e *fakeElement) TagName() (string, error) {
	if e.tag == "" {
		return "", errors.New("no tag")
	}
	return e.tag, nil
}

func (e *fakeElement) Attribute(name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) SelectParentOption(value string) error {
	if e.selectErr != nil {
		return e.selectErr
	}
	e.selectedValue = value
	return nil
}

func (e *fakeElement) Focus() error {
	if e.focusErr != nil {
		return e.focusErr
	}
	e.focused = true
	return nil
}

func (e *fakeElement) Click(timeout time.Duration) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.nativeClicked = true
	return nil
}

// recordingFeedback captures highlight and notify calls.
type recordingFeedback struct {
	highlighted []string
	notified    []string
}

func (f *recordingFeedback) HighlightElement(selector string, persist bool) {
	f.highlighted = append(f.highlighted, selector)
}

func (f *recordingFeedback) NotifyUser(message string) {
	f.notified = append(f.notified, message)
}

// testConfig keeps waits and settle delays out of the test run.
func testConfig() interact.Config {
	cfg := interact.DefaultConfig()
	cfg.AttachTimeout = 10 * time.Millisecond
	cfg.SoftTimeout = time.Millisecond
	cfg.SettleDelay = 0
	cfg.TypeDelay = 0
	return cfg
}

func TestClickNoActivePage(t *testing.T) {
	it := interact.New(&fakeSession{}, nil, testConfig())

	_, err := it.Click(context.Background(), "#go", 0)
	if !errors.Is(err, interact.ErrNoActivePage) {
		t.Fatalf("Expected ErrNoActivePage, got %v", err)
	}
}

func TestClickElementNotFound(t *testing.T) {
	page := &fakePage{elements: map[string]*fakeElement{}}
	it := interact.New(&fakeSession{page: page}, nil, testConfig())

	outcome, err := it.Click(context.Background(), "#missing", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome.Success {
		t.Errorf("Expected failure outcome")
	}
	if !strings.Contains(outcome.Message, `"#missing" not found within the wait budget`) {
		t.Errorf("Unexpected message: %q", outcome.Message)
	}
	if !strings.Contains(outcome.Message, "retrieving the DOM again") {
		t.Errorf("Expected retry guidance, got %q", outcome.Message)
	}
}

func TestClickGeneric(t *testing.T) {
	el := &fakeElement{tag: "button"}
	page := &fakePage{
		elements:   map[string]*fakeElement{"#go": el},
		evalResult: "Executed JavaScript click",
	}
	feedback := &recordingFeedback{}
	it := interact.New(&fakeSession{page: page}, feedback, testConfig())

	outcome, err := it.Click(context.Background(), "#go", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("Expected success, got %q", outcome.Message)
	}
	if outcome.Message != `Element with selector "#go" clicked.` {
		t.Errorf("Unexpected message: %q", outcome.Message)
	}
	if !el.focused {
		t.Errorf("Expected element to be focused before the click")
	}
	if len(page.evalCalls) != 1 {
		t.Errorf("Expected one script evaluation, got %d", len(page.evalCalls))
	}
	if len(feedback.highlighted) != 1 || feedback.highlighted[0] != "#go" {
		t.Errorf("Expected highlight on %q, got %v", "#go", feedback.highlighted)
	}
	if len(feedback.notified) != 1 || feedback.notified[0] != outcome.Message {
		t.Errorf("Expected outcome message notification, got %v", feedback.notified)
	}
}

func TestClickOptionSelectsParent(t *testing.T) {
	el := &fakeElement{tag: "option", attrs: map[string]string{"value": "blue"}}
	page := &fakePage{elements: map[string]*fakeElement{"#color-blue": el}}
	it := interact.New(&fakeSession{page: page}, nil, testConfig())

	outcome, err := it.Click(context.Background(), "#color-blue", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("Expected success, got %q", outcome.Message)
	}
	if outcome.Message != `Select menu option "blue" selected` {
		t.Errorf("Unexpected message: %q", outcome.Message)
	}
	if el.selectedValue != "blue" {
		t.Errorf("Expected parent select to receive %q, got %q", "blue", el.selectedValue)
	}
	if len(page.evalCalls) != 0 {
		t.Errorf("Option click must not run the click script")
	}
}

func TestClickStaleElement(t *testing.T) {
	el := &fakeElement{tag: "a"}
	page := &fakePage{
		elements:   map[string]*fakeElement{"#gone": el},
		evalResult: "",
	}
	it := interact.New(&fakeSession{page: page}, nil, testConfig())

	outcome, err := it.Click(context.Background(), "#gone", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome.Success {
		t.Errorf("Expected failure for stale element")
	}
	if !strings.Contains(outcome.Message, `Unable to click element with selector "#gone"`) {
		t.Errorf("Unexpected message: %q", outcome.Message)
	}
}

func TestClickContinuesPastSoftWaitFailures(t *testing.T) {
	el := &fakeElement{
		tag:        "button",
		scrollErr:  errors.New("scroll timed out"),
		visibleErr: errors.New("still hidden"),
	}
	page := &fakePage{
		elements:   map[string]*fakeElement{"#lazy": el},
		evalResult: "Executed JavaScript click",
	}
	it := interact.New(&fakeSession{page: page}, nil, testConfig())

	outcome, err := it.Click(context.Background(), "#lazy", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Errorf("Soft wait failures must not fail the click, got %q", outcome.Message)
	}
}

func TestClickNative(t *testing.T) {
	el := &fakeElement{tag: "button"}
	page := &fakePage{elements: map[string]*fakeElement{"#go": el}}
	cfg := testConfig()
	cfg.NativeClick = true
	it := interact.New(&fakeSession{page: page}, nil, cfg)

	outcome, err := it.Click(context.Background(), "#go", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("Expected success, got %q", outcome.Message)
	}
	if !el.nativeClicked {
		t.Errorf("Expected native click")
	}
	if len(page.evalCalls) != 0 {
		t.Errorf("Native click must not run the click script")
	}
}

func TestClickTwiceSameSelector(t *testing.T) {
	el := &fakeElement{tag: "button"}
	page := &fakePage{
		elements:   map[string]*fakeElement{"#go": el},
		evalResult: "Executed JavaScript click",
	}
	it := interact.New(&fakeSession{page: page}, nil, testConfig())

	for i := 0; i < 2; i++ {
		outcome, err := it.Click(context.Background(), "#go", 0)
		if err != nil {
			t.Fatalf("Unexpected error on click %d: %v", i+1, err)
		}
		if !outcome.Success {
			t.Errorf("Click %d failed: %q", i+1, outcome.Message)
		}
	}
}

func TestEnterTextDirectFill(t *testing.T) {
	el := &fakeElement{tag: "input"}
	page := &fakePage{
		elements:   map[string]*fakeElement{"#name": el},
		evalResult: true,
	}
	cfg := testConfig()
	cfg.TrailingNudge = false
	it := interact.New(&fakeSession{page: page}, nil, cfg)

	outcome, err := it.EnterText(context.Background(), interact.TextEntry{Selector: "#name", Text: "Ada"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("Expected success, got %q", outcome.Message)
	}
	if outcome.Message != `Success. Text "Ada" set successfully in the element with selector "#name".` {
		t.Errorf("Unexpected message: %q", outcome.Message)
	}
	if len(page.evalArgs) != 1 {
		t.Fatalf("Expected one fill evaluation, got %d", len(page.evalArgs))
	}
	args := page.evalArgs[0]
	if len(args) != 2 || args[0] != "#name" || args[1] != "Ada" {
		t.Errorf("Unexpected fill args: %v", args)
	}
	if len(page.typed) != 0 {
		t.Errorf("Direct fill must not type, got %v", page.typed)
	}
}

func TestEnterTextKeyboardFill(t *testing.T) {
	el := &fakeElement{tag: "input"}
	page := &fakePage{elements: map[string]*fakeElement{"#name": el}}
	cfg := testConfig()
	cfg.KeyboardFill = true
	cfg.TrailingNudge = false
	it := interact.New(&fakeSession{page: page}, nil, cfg)

	outcome, err := it.EnterText(context.Background(), interact.TextEntry{Selector: "#name", Text: "Ada"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("Expected success, got %q", outcome.Message)
	}
	if !el.focused {
		t.Errorf("Keyboard fill must focus the element first")
	}
	if len(page.typed) != 1 || page.typed[0] != "Ada" {
		t.Errorf("Expected typed %q, got %v", "Ada", page.typed)
	}
	if len(page.evalCalls) != 0 {
		t.Errorf("Keyboard fill must not run the fill script")
	}
}

func TestEnterTextNotFound(t *testing.T) {
	page := &fakePage{elements: map[string]*fakeElement{}}
	it := interact.New(&fakeSession{page: page}, nil, testConfig())

	outcome, err := it.EnterText(context.Background(), interact.TextEntry{Selector: "#missing", Text: "x"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome.Success {
		t.Errorf("Expected failure outcome")
	}
	want := `Error: selector "#missing" not found within the wait budget. Unable to continue.`
	if outcome.Message != want {
		t.Errorf("Expected %q, got %q", want, outcome.Message)
	}
}

func TestEnterTextTrailingNudge(t *testing.T) {
	el := &fakeElement{tag: "input"}
	page := &fakePage{
		elements:   map[string]*fakeElement{"#name": el},
		evalResult: true,
	}
	it := interact.New(&fakeSession{page: page}, nil, testConfig())

	outcome, err := it.EnterText(context.Background(), interact.TextEntry{Selector: "#name", Text: "Ada"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("Expected success, got %q", outcome.Message)
	}
	if !el.focused {
		t.Errorf("Nudge must re-focus the element")
	}
	if len(page.typed) != 1 || page.typed[0] != " " {
		t.Errorf("Expected a single trailing space, got %v", page.typed)
	}
}

func TestEnterTextNoActivePage(t *testing.T) {
	it := interact.New(&fakeSession{}, nil, testConfig())

	_, err := it.EnterText(context.Background(), interact.TextEntry{Selector: "#name", Text: "x"})
	if !errors.Is(err, interact.ErrNoActivePage) {
		t.Fatalf("Expected ErrNoActivePage, got %v", err)
	}
}

func TestBulkEnterText(t *testing.T) {
	page := &fakePage{
		elements: map[string]*fakeElement{
			"#first": {tag: "input"},
			"#last":  {tag: "input"},
		},
		evalResult: true,
	}
	cfg := testConfig()
	cfg.TrailingNudge = false
	it := interact.New(&fakeSession{page: page}, nil, cfg)

	entries := []interact.TextEntry{
		{Selector: "#first", Text: "Ada"},
		{Selector: "#missing", Text: "x"},
		{Selector: "#last", Text: "Lovelace"},
	}
	results := it.BulkEnterText(context.Background(), entries)

	if len(results) != len(entries) {
		t.Fatalf("Expected %d results, got %d", len(entries), len(results))
	}
	for i, entry := range entries {
		if results[i].Selector != entry.Selector {
			t.Errorf("Result %d out of order: got %q, want %q", i, results[i].Selector, entry.Selector)
		}
	}
	if !strings.HasPrefix(results[0].Result, "Success.") {
		t.Errorf("Expected first entry to succeed, got %q", results[0].Result)
	}
	if !strings.Contains(results[1].Result, "not found within the wait budget") {
		t.Errorf("Expected second entry to fail, got %q", results[1].Result)
	}
	if !strings.HasPrefix(results[2].Result, "Success.") {
		t.Errorf("Failing entry must not abort later entries, got %q", results[2].Result)
	}
}

func TestBulkEnterTextNoActivePage(t *testing.T) {
	it := interact.New(&fakeSession{}, nil, testConfig())

	entries := []interact.TextEntry{
		{Selector: "#first", Text: "Ada"},
		{Selector: "#last", Text: "Lovelace"},
	}
	results := it.BulkEnterText(context.Background(), entries)

	if len(results) != len(entries) {
		t.Fatalf("Expected %d results, got %d", len(entries), len(results))
	}
	for i, result := range results {
		if !strings.Contains(result.Result, "no active page") {
			t.Errorf("Result %d should report the missing session, got %q", i, result.Result)
		}
	}
}
