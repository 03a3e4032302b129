package transcribe

import (
	"context"
	"sync"

	"subsync/internal/errs"
	"subsync/internal/extract"
)

// Mock is a deterministic, in-memory Transcriber for tests: it maps
// PCM segments to canned text by call order, optionally failing a
// configured number of times with a retryable error before succeeding.
// Safe for concurrent use, since a worker pool may call it from
// multiple goroutines.
type Mock struct {
	Texts   []string
	Fail    int // number of leading calls that fail with RetryableApiError
	FailErr error
	OnCall  func(n int)

	mu    sync.Mutex
	calls int
}

func (m *Mock) Transcribe(ctx context.Context, pcm extract.PCM) (string, error) {
	m.mu.Lock()
	m.calls++
	n := m.calls
	m.mu.Unlock()

	if m.OnCall != nil {
		m.OnCall(n)
	}
	if n <= m.Fail {
		if m.FailErr != nil {
			return "", m.FailErr
		}
		return "", &errs.RetryableApiError{Attempt: n, Err: nil}
	}
	idx := n - m.Fail - 1
	if idx < 0 || idx >= len(m.Texts) {
		return "", nil
	}
	return m.Texts[idx], nil
}

// Calls returns the number of times Transcribe has been invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
