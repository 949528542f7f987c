package acoustid

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultEndpoint is the AcoustID lookup endpoint.
const DefaultEndpoint = "https://api.acoustid.org/v2/lookup"

// Config holds configuration for the AcoustID client.
type Config struct {
	// AcoustID application API key
	APIKey string

	// Path to the fpcalc binary
	FpcalcPath string

	// Lookup endpoint override (tests)
	Endpoint string

	// Cache configuration
	CacheMaxSize int
	CacheTTL     int

	// Rate limiting configuration
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   float64
}

// Artist is a credited artist on a recording.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Release is an album-level grouping a recording appears on.
type Release struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Recording is a matched track with its textual metadata.
type Recording struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Duration float64   `json:"duration"`
	Artists  []Artist  `json:"artists"`
	Releases []Release `json:"releases"`
}

// Result is one match returned by the lookup service.
type Result struct {
	ID         string      `json:"id"`
	Score      float64     `json:"score"`
	Recordings []Recording `json:"recordings"`
}

// LookupResponse is the decoded body of a lookup call.
type LookupResponse struct {
	Status  string   `json:"status"`
	Results []Result `json:"results"`
	Error   struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client submits clip fingerprints to the AcoustID web service. It adds
// proactive rate limiting, response caching, and rate limit state tracking
// around the plain HTTP calls.
type Client struct {
	apiKey           string
	endpoint         string
	httpClient       *http.Client
	chromaprint      *Chromaprint
	cache            *TTLCache
	rateLimiter      *RateLimiter
	rateLimitTracker *RateLimitTracker
}

// NewClient creates a new AcoustID client.
func NewClient(config *Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, &LookupError{Message: "API key is required"}
	}

	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &Client{
		apiKey:   config.APIKey,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		chromaprint:      NewChromaprint(config.FpcalcPath),
		cache:            NewTTLCache(config.CacheMaxSize, config.CacheTTL),
		rateLimiter:      NewRateLimiter(config.RateLimitEnabled, config.RateLimitRequests, config.RateLimitWindow),
		rateLimitTracker: NewRateLimitTracker(),
	}, nil
}

// FingerprinterAvailable reports whether the fpcalc binary can be resolved.
func (c *Client) FingerprinterAvailable() bool {
	return c.chromaprint.IsAvailable()
}

// GetRateLimitInfo returns the current rate limit state.
func (c *Client) GetRateLimitInfo() *RateLimitInfo {
	return c.rateLimitTracker.GetInfo()
}

// GetCacheStats returns cache statistics.
func (c *Client) GetCacheStats() CacheStats {
	return c.cache.Stats()
}

// Identify fingerprints the clip at path and looks it up in one call.
func (c *Client) Identify(ctx context.Context, clipPath string) (*LookupResponse, error) {
	fp, err := c.chromaprint.Generate(ctx, clipPath)
	if err != nil {
		return nil, err
	}
	return c.Lookup(ctx, fp.Fingerprint, int(fp.Duration))
}

// Lookup submits a fingerprint to the service and returns the decoded
// response (cached).
func (c *Client) Lookup(ctx context.Context, fingerprint string, duration int) (*LookupResponse, error) {
	cacheKey := fmt.Sprintf("lookup:%d:%x", duration, sha256.Sum256([]byte(fingerprint)))
	if cached := c.cache.Get(cacheKey); cached != nil {
		if response, ok := cached.(*LookupResponse); ok {
			return response, nil
		}
	}

	if err := c.rateLimiter.WaitIfNeeded(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("client", c.apiKey)
	form.Set("format", "json")
	form.Set("meta", "recordings releases")
	form.Set("duration", strconv.Itoa(duration))
	form.Set("fingerprint", fingerprint)

	// Fingerprints run to several KB, so the request goes in the body
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &LookupError{Message: "Failed to build lookup request", Original: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &LookupError{Message: "Lookup request failed", Original: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.rateLimitTracker.Update(retryAfter)
		return nil, &RateLimitError{
			RetryAfter: retryAfter,
			Original:   fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &LookupError{Message: "Failed to read lookup response", Original: err}
	}

	var response LookupResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &LookupError{
			Message:  fmt.Sprintf("Failed to parse lookup response (HTTP %d)", resp.StatusCode),
			Original: err,
		}
	}

	if response.Status != "ok" {
		message := response.Error.Message
		if message == "" {
			message = fmt.Sprintf("service returned status %q (HTTP %d)", response.Status, resp.StatusCode)
		}
		return nil, &LookupError{Message: message}
	}

	c.cache.Set(cacheKey, &response)
	c.rateLimitTracker.Clear()

	return &response, nil
}

// parseRetryAfter parses a Retry-After header value in seconds.
// Defaults to 1 second when absent or unparseable.
func parseRetryAfter(value string) int {
	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && seconds > 0 {
		return seconds
	}
	return 1
}
