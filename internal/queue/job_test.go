package queue

import (
	"strings"
	"testing"
	"time"

	"github.com/ahrdadan/pagepilot/internal/interact"
)

func TestNewJobDefaults(t *testing.T) {
	job := NewJob(JobRequest{Type: JobTypeClick, Selector: "#go"})

	if job.ID == "" || !strings.HasPrefix(job.ID, "job_") {
		t.Errorf("Expected job_ prefixed ID, got %q", job.ID)
	}
	if job.Status != JobStatusQueued {
		t.Errorf("Expected queued status, got %s", job.Status)
	}
	if job.Timeout != int(DefaultJobTimeout.Seconds()) {
		t.Errorf("Expected default timeout, got %d", job.Timeout)
	}
	if job.MaxRetries != DefaultMaxRetries {
		t.Errorf("Expected default max retries, got %d", job.MaxRetries)
	}
	if job.ExpiresAt <= time.Now().Unix() {
		t.Errorf("Expected a future expiry, got %d", job.ExpiresAt)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     JobRequest
		wantErr string
	}{
		{"navigate ok", JobRequest{Type: JobTypeNavigate, URL: "https://example.com"}, ""},
		{"navigate missing url", JobRequest{Type: JobTypeNavigate}, "url is required"},
		{"click ok", JobRequest{Type: JobTypeClick, Selector: "#go"}, ""},
		{"click missing selector", JobRequest{Type: JobTypeClick}, "selector is required"},
		{"enter_text ok", JobRequest{Type: JobTypeEnterText, Selector: "#name", Text: "Ada"}, ""},
		{"enter_text missing selector", JobRequest{Type: JobTypeEnterText, Text: "Ada"}, "selector is required"},
		{"bulk ok", JobRequest{Type: JobTypeBulkEnterText, Entries: []interact.TextEntry{{Selector: "#a", Text: "x"}}}, ""},
		{"bulk empty entries", JobRequest{Type: JobTypeBulkEnterText}, "entries is required"},
		{"unknown type", JobRequest{Type: "teleport"}, "unknown job type"},
	}

	for _, tc := range cases {
		err := tc.req.Validate()
		if tc.wantErr == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("%s: expected error containing %q, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestSetStatusTransitions(t *testing.T) {
	job := NewJob(JobRequest{Type: JobTypeClick, Selector: "#go"})

	job.SetStatus(JobStatusRunning)
	if job.StartedAt == 0 {
		t.Errorf("Expected StartedAt to be set when running")
	}
	if job.CompletedAt != 0 {
		t.Errorf("Running job must not be completed")
	}

	job.SetStatus(JobStatusSucceeded)
	if job.CompletedAt == 0 {
		t.Errorf("Expected CompletedAt to be set when succeeded")
	}
}

func TestSetResultAndError(t *testing.T) {
	job := NewJob(JobRequest{Type: JobTypeClick, Selector: "#go"})

	job.SetResult(interact.Outcome{Success: true, Message: "clicked"})
	if job.Status != JobStatusSucceeded || job.Progress != 100 {
		t.Errorf("Expected succeeded at 100%%, got %s at %d", job.Status, job.Progress)
	}

	job = NewJob(JobRequest{Type: JobTypeClick, Selector: "#go"})
	job.SetError("navigation failed")
	if job.Status != JobStatusFailed {
		t.Errorf("Expected failed status, got %s", job.Status)
	}
	if job.LastError != "navigation failed" {
		t.Errorf("Expected last error to be recorded, got %q", job.LastError)
	}
}

func TestRetryBackoff(t *testing.T) {
	job := NewJob(JobRequest{
		Type:     JobTypeClick,
		Selector: "#go",
		Retry:    &RetryConfig{MaxRetries: 3, RetryDelay: 1, BackoffFactor: 2.0},
	})

	if !job.CanRetry() {
		t.Fatalf("Fresh job must be retryable")
	}

	var lastDelay int64
	for i := 0; i < 3; i++ {
		job.PrepareRetry()
		if job.Status != JobStatusRetrying {
			t.Errorf("Expected retrying status, got %s", job.Status)
		}
		delay := job.NextRetryAt - time.Now().Unix()
		if delay < lastDelay {
			t.Errorf("Retry %d: expected non-decreasing delay, got %d after %d", i+1, delay, lastDelay)
		}
		lastDelay = delay
	}

	if job.CanRetry() {
		t.Errorf("Job must not retry past max retries")
	}
}

func TestRetryDelayCapped(t *testing.T) {
	job := NewJob(JobRequest{
		Type:     JobTypeClick,
		Selector: "#go",
		Retry:    &RetryConfig{MaxRetries: 10, RetryDelay: 600, BackoffFactor: 10.0},
	})
	job.MaxRetries = 10

	for i := 0; i < 5; i++ {
		job.PrepareRetry()
	}

	delay := job.NextRetryAt - time.Now().Unix()
	if delay > int64(MaxRetryDelay.Seconds())+1 {
		t.Errorf("Expected delay capped at %v, got %ds", MaxRetryDelay, delay)
	}
}

func TestWaitBeforeDuration(t *testing.T) {
	job := NewJob(JobRequest{Type: JobTypeClick, Selector: "#go", WaitBefore: 1.5})
	if got := job.WaitBeforeDuration(); got != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s, got %v", got)
	}

	job = NewJob(JobRequest{Type: JobTypeClick, Selector: "#go"})
	if got := job.WaitBeforeDuration(); got != 0 {
		t.Errorf("Expected zero wait, got %v", got)
	}
}

func TestStoreIdempotency(t *testing.T) {
	store := NewStore()
	defer store.Stop()

	job := NewJob(JobRequest{Type: JobTypeClick, Selector: "#go", IdempotencyKey: "abc"})
	job.IdempotencyKey = "abc"
	if err := store.Save(job); err != nil {
		t.Fatalf("Failed to save job: %v", err)
	}

	found, ok := store.GetByIdempotencyKey("abc")
	if !ok {
		t.Fatalf("Expected job by idempotency key")
	}
	if found.ID != job.ID {
		t.Errorf("Expected %q, got %q", job.ID, found.ID)
	}

	if _, ok := store.GetByIdempotencyKey("missing"); ok {
		t.Errorf("Expected no job for unknown key")
	}
}
