package transcribe

import (
	"context"
	"errors"
	"testing"
	"time"

	"subsync/internal/errs"
	"subsync/internal/extract"
)

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	m := &Mock{Texts: []string{"Hello [noise] World"}}
	text, err := WithRetry(context.Background(), m, extract.PCM{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want normalized %q", text, "hello world")
	}
}

func TestWithRetryRecoversAfterTransientFailure(t *testing.T) {
	withShortBackoff(t)
	m := &Mock{Fail: 1, Texts: []string{"recovered"}}
	text, err := WithRetry(context.Background(), m, extract.PCM{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "recovered" {
		t.Errorf("text = %q, want %q", text, "recovered")
	}
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	withShortBackoff(t)
	m := &Mock{Fail: 10}
	_, err := WithRetry(context.Background(), m, extract.PCM{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	var retryable *errs.RetryableApiError
	if !errors.As(err, &retryable) {
		t.Fatalf("expected RetryableApiError, got %T: %v", err, err)
	}
	if m.calls != 3 {
		t.Errorf("calls = %d, want 3 (max attempts)", m.calls)
	}
}

func TestWithRetryAbortsOnAuthError(t *testing.T) {
	m := &Mock{Fail: 1, FailErr: &errs.AuthError{Msg: "bad key"}}
	_, err := WithRetry(context.Background(), m, extract.PCM{})
	var authErr *errs.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %T: %v", err, err)
	}
	if m.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on fatal error)", m.calls)
	}
}

func TestWithRetryAbortsOnQuotaExceeded(t *testing.T) {
	m := &Mock{Fail: 1, FailErr: &errs.QuotaExceeded{Msg: "over quota"}}
	_, err := WithRetry(context.Background(), m, extract.PCM{})
	var quotaErr *errs.QuotaExceeded
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected QuotaExceeded, got %T: %v", err, err)
	}
	if m.calls != 1 {
		t.Errorf("calls = %d, want 1", m.calls)
	}
}

func TestWithRetryRespectsCancellation(t *testing.T) {
	withShortBackoff(t)
	ctx, cancel := context.WithCancel(context.Background())
	m := &Mock{
		Fail: 2,
		OnCall: func(n int) {
			if n == 1 {
				cancel()
			}
		},
	}
	start := time.Now()
	_, err := WithRetry(ctx, m, extract.PCM{})
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("cancellation did not short-circuit backoff, took %v", elapsed)
	}
}

func withShortBackoff(t *testing.T) {
	t.Helper()
	prev := backoffBase
	backoffBase = 5 * time.Millisecond
	t.Cleanup(func() { backoffBase = prev })
}
