package queue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ahrdadan/pagepilot/internal/browser"
	"github.com/ahrdadan/pagepilot/internal/interact"
)

type fakeInteractor struct {
	outcome    interact.Outcome
	err        error
	waitBefore time.Duration
}

func (f *fakeInteractor) Click(ctx context.Context, selector string, waitBefore time.Duration) (interact.Outcome, error) {
	f.waitBefore = waitBefore
	return f.outcome, f.err
}

func (f *fakeInteractor) EnterText(ctx context.Context, entry interact.TextEntry) (interact.Outcome, error) {
	return f.outcome, f.err
}

func (f *fakeInteractor) BulkEnterText(ctx context.Context, entries []interact.TextEntry) []interact.BulkResult {
	results := make([]interact.BulkResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, interact.BulkResult{Selector: entry.Selector, Result: f.outcome.Message})
	}
	return results
}

type fakeNavigator struct {
	openedURL string
	opts      browser.PageOptions
	err       error
}

func (f *fakeNavigator) OpenURL(ctx context.Context, url string, opts browser.PageOptions) error {
	f.openedURL = url
	f.opts = opts
	return f.err
}

func noProgress(int, string) {}

func TestProcessNavigate(t *testing.T) {
	navigator := &fakeNavigator{}
	processor := NewInteractionProcessor(&fakeInteractor{}, navigator)

	job := NewJob(JobRequest{Type: JobTypeNavigate, URL: "https://example.com", WaitForLoad: true})
	result, err := processor.Process(context.Background(), job, noProgress)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if navigator.openedURL != "https://example.com" {
		t.Errorf("Expected navigation to example.com, got %q", navigator.openedURL)
	}
	if !navigator.opts.WaitForLoad {
		t.Errorf("Expected wait_for_load to be carried into page options")
	}

	data := result.(map[string]interface{})
	if data["opened"] != true {
		t.Errorf("Expected opened=true, got %v", data["opened"])
	}
}

func TestProcessNavigateFailure(t *testing.T) {
	navigator := &fakeNavigator{err: errors.New("connection refused")}
	processor := NewInteractionProcessor(&fakeInteractor{}, navigator)

	job := NewJob(JobRequest{Type: JobTypeNavigate, URL: "https://example.com"})
	_, err := processor.Process(context.Background(), job, noProgress)
	if err == nil || !strings.Contains(err.Error(), "navigation failed") {
		t.Fatalf("Expected navigation failure, got %v", err)
	}
}

func TestProcessClick(t *testing.T) {
	interactor := &fakeInteractor{
		outcome: interact.Outcome{Success: true, Message: `Element with selector "#go" clicked.`},
	}
	processor := NewInteractionProcessor(interactor, &fakeNavigator{})

	job := NewJob(JobRequest{Type: JobTypeClick, Selector: "#go", WaitBefore: 0.5})
	result, err := processor.Process(context.Background(), job, noProgress)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if interactor.waitBefore != 500*time.Millisecond {
		t.Errorf("Expected wait_before to reach the interactor, got %v", interactor.waitBefore)
	}

	outcome := result.(interact.Outcome)
	if !outcome.Success {
		t.Errorf("Expected outcome success")
	}
}

func TestProcessClickFailedOutcomeIsNotAJobError(t *testing.T) {
	interactor := &fakeInteractor{
		outcome: interact.Outcome{
			Success: false,
			Message: `Element with selector "#missing" not found within the wait budget. Proceed by retrieving the DOM again and retry with a different selector.`,
		},
	}
	processor := NewInteractionProcessor(interactor, &fakeNavigator{})

	job := NewJob(JobRequest{Type: JobTypeClick, Selector: "#missing"})
	result, err := processor.Process(context.Background(), job, noProgress)
	// The job succeeds; the outcome message is the payload the agent reads.
	if err != nil {
		t.Fatalf("Failed interaction must not fail the job, got %v", err)
	}

	outcome := result.(interact.Outcome)
	if outcome.Success {
		t.Errorf("Expected a failed outcome in the result")
	}
}

func TestProcessClickNoActivePage(t *testing.T) {
	interactor := &fakeInteractor{err: interact.ErrNoActivePage}
	processor := NewInteractionProcessor(interactor, &fakeNavigator{})

	job := NewJob(JobRequest{Type: JobTypeClick, Selector: "#go"})
	_, err := processor.Process(context.Background(), job, noProgress)
	if !errors.Is(err, interact.ErrNoActivePage) {
		t.Fatalf("Expected ErrNoActivePage, got %v", err)
	}
}

func TestProcessBulkEnterText(t *testing.T) {
	interactor := &fakeInteractor{
		outcome: interact.Outcome{Success: true, Message: "Success."},
	}
	processor := NewInteractionProcessor(interactor, &fakeNavigator{})

	job := NewJob(JobRequest{
		Type: JobTypeBulkEnterText,
		Entries: []interact.TextEntry{
			{Selector: "#first", Text: "Ada"},
			{Selector: "#last", Text: "Lovelace"},
		},
	})
	result, err := processor.Process(context.Background(), job, noProgress)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	results := result.([]interact.BulkResult)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Selector != "#first" || results[1].Selector != "#last" {
		t.Errorf("Results out of order: %v", results)
	}
}

func TestProcessInvalidRequest(t *testing.T) {
	processor := NewInteractionProcessor(&fakeInteractor{}, &fakeNavigator{})

	job := NewJob(JobRequest{Type: JobTypeClick})
	_, err := processor.Process(context.Background(), job, noProgress)
	if err == nil || !strings.Contains(err.Error(), "selector is required") {
		t.Fatalf("Expected validation error, got %v", err)
	}
}
