// Package transcribe implements the Transcription Adapter (spec §4.E):
// a thin contract over ASR backends that turns a PCM segment into
// cleaned text, with a shared retry policy across backends.
package transcribe

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"subsync/internal/errs"
	"subsync/internal/extract"
	"subsync/internal/normalize"
)

// Transcriber is the capability every ASR backend must satisfy.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm extract.PCM) (string, error)
}

// backoffBase is the base exponential-backoff duration (spec §4.E: 2s).
// Tests shrink it to keep the retry policy's shape verifiable without
// a slow test run.
var backoffBase = 2 * time.Second

// WithRetry wraps t with the spec §4.E retry policy: up to 3 attempts
// with exponential backoff (base 2s) plus jitter, retrying only on
// errs.RetryableApiError. AuthError and QuotaExceeded abort immediately,
// as does any other non-retryable error.
func WithRetry(ctx context.Context, t Transcriber, pcm extract.PCM) (string, error) {
	const maxAttempts = 3
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := t.Transcribe(ctx, pcm)
		if err == nil {
			return normalize.Text(text), nil
		}

		var retryable *errs.RetryableApiError
		if !errors.As(err, &retryable) {
			return "", err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		backoff := time.Duration(1<<uint(attempt-1)) * backoffBase
		jitter := time.Duration(rand.Int63n(int64(backoffBase / 2)))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff + jitter):
		}
	}
	return "", lastErr
}
