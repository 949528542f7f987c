package acoustid

import (
	"sync"
	"time"
)

// RateLimitInfo holds information about an active rate limit.
type RateLimitInfo struct {
	Active              bool
	RetryAfterSeconds   int
	RetryAfterTimestamp int64
	DetectedAt          int64
}

// RateLimitTracker tracks active rate limits for status reporting.
type RateLimitTracker struct {
	mu            sync.RWMutex
	rateLimitInfo *RateLimitInfo
}

// NewRateLimitTracker creates a new rate limit tracker.
func NewRateLimitTracker() *RateLimitTracker {
	return &RateLimitTracker{}
}

// Update updates the rate limit state with retry-after information.
func (t *RateLimitTracker) Update(retryAfterSeconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now().Unix()
	t.rateLimitInfo = &RateLimitInfo{
		Active:              true,
		RetryAfterSeconds:   retryAfterSeconds,
		RetryAfterTimestamp: now + int64(retryAfterSeconds),
		DetectedAt:          now,
	}
}

// GetInfo returns the current rate limit state, or nil if expired or not
// active. Expiration check and clear happen under one write lock so a
// concurrent Update is never wiped.
func (t *RateLimitTracker) GetInfo() *RateLimitInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rateLimitInfo == nil {
		return nil
	}

	if time.Now().Unix() >= t.rateLimitInfo.RetryAfterTimestamp {
		t.rateLimitInfo = nil
		return nil
	}

	info := *t.rateLimitInfo
	return &info
}

// Clear clears the rate limit state.
func (t *RateLimitTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rateLimitInfo = nil
}
