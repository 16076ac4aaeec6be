package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ahrdadan/pagepilot/internal/browser"
	"github.com/ahrdadan/pagepilot/internal/interact"
)

// PageInteractor is the interaction facade the processor drives. Interaction
// outcomes never raise; the only errors are session preconditions.
type PageInteractor interface {
	Click(ctx context.Context, selector string, waitBefore time.Duration) (interact.Outcome, error)
	EnterText(ctx context.Context, entry interact.TextEntry) (interact.Outcome, error)
	BulkEnterText(ctx context.Context, entries []interact.TextEntry) []interact.BulkResult
}

// Navigator opens the session page for navigate jobs.
type Navigator interface {
	OpenURL(ctx context.Context, url string, opts browser.PageOptions) error
}

// InteractionProcessor executes interaction jobs against the live page.
type InteractionProcessor struct {
	interactor PageInteractor
	navigator  Navigator
}

// NewInteractionProcessor creates an interaction processor.
func NewInteractionProcessor(interactor PageInteractor, navigator Navigator) *InteractionProcessor {
	return &InteractionProcessor{
		interactor: interactor,
		navigator:  navigator,
	}
}

// ProgressReporter provides methods for reporting detailed progress
type ProgressReporter struct {
	job          *Job
	updateFunc   func(int, string)
	currentStage string
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(job *Job, updateFunc func(int, string)) *ProgressReporter {
	return &ProgressReporter{
		job:        job,
		updateFunc: updateFunc,
	}
}

// SetStage sets the current processing stage
func (r *ProgressReporter) SetStage(stage string) {
	r.currentStage = stage
	if r.job.ProgressInfo == nil {
		r.job.ProgressInfo = &ProgressInfo{}
	}
	r.job.ProgressInfo.Stage = stage
}

// SetItemProgress sets item progress (entry X of Y)
func (r *ProgressReporter) SetItemProgress(current, total int, message string) {
	if r.job.ProgressInfo == nil {
		r.job.ProgressInfo = &ProgressInfo{}
	}
	r.job.ProgressInfo.CurrentItem = current
	r.job.ProgressInfo.TotalItems = total

	var pct int
	if total > 0 {
		pct = (current * 100) / total
	}

	r.updateFunc(pct, fmt.Sprintf("[Entry %d/%d] %s", current, total, message))
}

// Report reports simple percentage progress
func (r *ProgressReporter) Report(pct int, message string) {
	r.updateFunc(pct, message)
}

// Process executes an interaction job. A job fails only on precondition or
// navigation errors; an interaction whose outcome describes a failure is a
// succeeded job carrying that outcome, which is what the agent needs to read.
func (p *InteractionProcessor) Process(ctx context.Context, job *Job, progress func(int, string)) (interface{}, error) {
	req := job.Request

	reporter := NewProgressReporter(job, progress)
	reporter.SetStage("initialization")

	if err := req.Validate(); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("job timed out: %w", ctx.Err())
	default:
	}

	var result interface{}
	var err error

	switch req.Type {
	case JobTypeNavigate:
		reporter.SetStage("navigating")
		reporter.Report(50, "Opening "+req.URL)
		opts := browser.DefaultPageOptions()
		opts.WaitForLoad = req.WaitForLoad
		if req.Timeout > 0 {
			opts.Timeout = time.Duration(req.Timeout) * time.Second
		}
		if navErr := p.navigator.OpenURL(ctx, req.URL, opts); navErr != nil {
			err = fmt.Errorf("navigation failed: %w", navErr)
		} else {
			result = map[string]interface{}{"url": req.URL, "opened": true}
		}

	case JobTypeClick:
		reporter.SetStage("clicking")
		reporter.Report(50, "Clicking "+req.Selector)
		result, err = p.interactor.Click(ctx, req.Selector, job.WaitBeforeDuration())

	case JobTypeEnterText:
		reporter.SetStage("entering_text")
		reporter.Report(50, "Entering text into "+req.Selector)
		result, err = p.interactor.EnterText(ctx, interact.TextEntry{Selector: req.Selector, Text: req.Text})

	case JobTypeBulkEnterText:
		reporter.SetStage("entering_text")
		reporter.SetItemProgress(0, len(req.Entries), "Starting bulk text entry")
		results := p.interactor.BulkEnterText(ctx, req.Entries)
		reporter.SetItemProgress(len(results), len(req.Entries), "Bulk text entry finished")
		result = results
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("job timed out after %v: %w", job.GetTimeoutDuration(), ctx.Err())
		}
		return nil, err
	}

	reporter.SetStage("completed")
	reporter.Report(100, "Job completed")

	// Send webhook if configured
	if job.Notify != nil && job.Notify.WebhookURL != "" {
		go sendWebhook(job.ID, job.Notify.WebhookURL, "succeeded")
	}

	return result, nil
}

// sendWebhook sends a webhook notification
func sendWebhook(jobID, webhookURL, status string) {
	payload := map[string]interface{}{
		"job_id":      jobID,
		"status":      status,
		"result_url":  fmt.Sprintf("/pagepilot/jobs/%s/result", jobID),
		"finished_at": time.Now().Unix(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal webhook payload: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(data))
	if err != nil {
		log.Printf("Failed to create webhook request: %v", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Pagepilot-Event", "job."+status)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("Failed to send webhook: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("Webhook returned error status: %d", resp.StatusCode)
	}
}
