package acoustid

import "fmt"

// RateLimitError represents a rate limit error from the AcoustID API.
type RateLimitError struct {
	RetryAfter int   // Seconds to wait before retrying
	Original   error // Original error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("AcoustID rate limited: retry after %d seconds: %v", e.RetryAfter, e.Original)
	}
	return fmt.Sprintf("AcoustID rate limited: %v", e.Original)
}

func (e *RateLimitError) Unwrap() error {
	return e.Original
}

// LookupError represents a general AcoustID API error.
type LookupError struct {
	Message  string
	Original error
}

func (e *LookupError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("AcoustID error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("AcoustID error: %s", e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Original
}

// FingerprintError represents a failure to compute a clip fingerprint.
type FingerprintError struct {
	Message  string
	Original error
}

func (e *FingerprintError) Error() string {
	if e.Original != nil {
		return fmt.Sprintf("Fingerprint error: %s: %v", e.Message, e.Original)
	}
	return fmt.Sprintf("Fingerprint error: %s", e.Message)
}

func (e *FingerprintError) Unwrap() error {
	return e.Original
}
