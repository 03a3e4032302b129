// Package errs defines the error taxonomy shared across subsync's
// pipeline stages and the exit codes main() derives from them.
package errs

import "fmt"

// ExitCode returns the process exit code associated with err, or 1
// ("unexpected") if err does not carry one of its own.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ ExitCode() int }
	if ok := asCoded(err, &coded); ok {
		return coded.ExitCode()
	}
	return 1
}

func asCoded(err error, target *interface{ ExitCode() int }) bool {
	for err != nil {
		if c, ok := err.(interface{ ExitCode() int }); ok {
			*target = c
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// UsageError signals a bad CLI flag or missing/invalid input path.
type UsageError struct{ Msg string }

func (e *UsageError) Error() string { return e.Msg }
func (e *UsageError) ExitCode() int { return 2 }

// UnsupportedFormat signals a subtitle input that is not SRT.
type UnsupportedFormat struct{ Path string }

func (e *UnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported subtitle format: %s", e.Path)
}
func (e *UnsupportedFormat) ExitCode() int { return 3 }

// ParseError signals a malformed SRT entry at a given line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
}
func (e *ParseError) ExitCode() int { return 3 }

// ExtractionFailed signals the audio extraction adapter returned an
// error or empty PCM, after its single retry at an alternate start time.
type ExtractionFailed struct {
	Path  string
	Start float64
	Err   error
}

func (e *ExtractionFailed) Error() string {
	return fmt.Sprintf("extraction failed for %s at t=%.1fs: %v", e.Path, e.Start, e.Err)
}
func (e *ExtractionFailed) Unwrap() error { return e.Err }
func (e *ExtractionFailed) ExitCode() int { return 5 }

// RetryableApiError signals a transient transcription-adapter failure.
type RetryableApiError struct {
	Attempt int
	Err     error
}

func (e *RetryableApiError) Error() string {
	return fmt.Sprintf("retryable transcription error (attempt %d): %v", e.Attempt, e.Err)
}
func (e *RetryableApiError) Unwrap() error { return e.Err }
func (e *RetryableApiError) ExitCode() int { return 5 }

// AuthError signals a fatal authentication failure from the ASR adapter.
type AuthError struct{ Msg string }

func (e *AuthError) Error() string { return "auth error: " + e.Msg }
func (e *AuthError) ExitCode() int { return 5 }

// QuotaExceeded signals a fatal quota/rate-limit failure from the ASR adapter.
type QuotaExceeded struct{ Msg string }

func (e *QuotaExceeded) Error() string { return "quota exceeded: " + e.Msg }
func (e *QuotaExceeded) ExitCode() int { return 5 }

// InsufficientMatches signals that zero alignment matches survived
// estimation; no output is written when this is returned.
type InsufficientMatches struct{ Attempted int }

func (e *InsufficientMatches) Error() string {
	return fmt.Sprintf("insufficient matches: 0 of %d samples aligned", e.Attempted)
}
func (e *InsufficientMatches) ExitCode() int { return 4 }

// InternalInvariant signals a broken invariant that should never occur.
type InternalInvariant struct{ Msg string }

func (e *InternalInvariant) Error() string { return "internal invariant violated: " + e.Msg }
func (e *InternalInvariant) ExitCode() int { return 1 }
