package identify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sv4u/musicid/identify/acoustid"
	"github.com/sv4u/musicid/identify/config"
	"github.com/sv4u/musicid/identify/metadata"
)

func newTestTagger(overwrite config.OverwriteMode, tags []string) *Tagger {
	return &Tagger{
		config: &config.IdentifySettings{
			Tags:      tags,
			Overwrite: overwrite,
		},
	}
}

func TestFieldMask_OverwriteAll(t *testing.T) {
	tagger := newTestTagger(config.OverwriteAll, []string{config.TagTitle, config.TagArtist, config.TagAlbum})

	existing := &metadata.Existing{Title: "Old", Artist: "Old", Album: "Old"}
	mask := tagger.fieldMask(existing)

	if !mask.Title || !mask.Artist || !mask.Album {
		t.Errorf("Expected all fields writable, got %+v", mask)
	}
}

func TestFieldMask_OverwriteMissing(t *testing.T) {
	tagger := newTestTagger(config.OverwriteMissing, []string{config.TagTitle, config.TagArtist, config.TagAlbum})

	existing := &metadata.Existing{Title: "Kept Title"}
	mask := tagger.fieldMask(existing)

	if mask.Title {
		t.Error("Existing title should not be rewritten in missing mode")
	}
	if !mask.Artist || !mask.Album {
		t.Errorf("Missing fields should be writable, got %+v", mask)
	}

	// Fully tagged file has nothing to write
	full := &metadata.Existing{Title: "a", Artist: "b", Album: "c"}
	if mask := tagger.fieldMask(full); !mask.Empty() {
		t.Errorf("Expected empty mask for fully tagged file, got %+v", mask)
	}
}

func TestFieldMask_OverwriteSkip(t *testing.T) {
	tagger := newTestTagger(config.OverwriteSkip, []string{config.TagTitle, config.TagArtist})

	// Any requested field present skips the whole file
	existing := &metadata.Existing{Title: "Something"}
	if mask := tagger.fieldMask(existing); !mask.Empty() {
		t.Errorf("Expected empty mask in skip mode, got %+v", mask)
	}

	// A field outside the request does not trigger the skip
	albumOnly := &metadata.Existing{Album: "Some Album"}
	mask := tagger.fieldMask(albumOnly)
	if !mask.Title || !mask.Artist {
		t.Errorf("Expected requested fields writable, got %+v", mask)
	}

	// Untagged file writes everything requested
	empty := &metadata.Existing{}
	mask = tagger.fieldMask(empty)
	if !mask.Title || !mask.Artist || mask.Album {
		t.Errorf("Expected title+artist only, got %+v", mask)
	}
}

func TestFieldMask_TagSubset(t *testing.T) {
	tagger := newTestTagger(config.OverwriteAll, []string{config.TagTitle})

	mask := tagger.fieldMask(&metadata.Existing{})
	if !mask.Title || mask.Artist || mask.Album {
		t.Errorf("Expected title-only mask, got %+v", mask)
	}
}

// writeStubFpcalc creates an executable script that stands in for fpcalc.
func writeStubFpcalc(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fpcalc")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write stub fpcalc: %v", err)
	}
	return path
}

func newRetryTestTagger(t *testing.T, fpcalcPath, endpoint string) *Tagger {
	t.Helper()
	client, err := acoustid.NewClient(&acoustid.Config{
		APIKey:       "test_key",
		FpcalcPath:   fpcalcPath,
		Endpoint:     endpoint,
		CacheMaxSize: 10,
		CacheTTL:     60,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return &Tagger{
		config:        &config.IdentifySettings{MaxRetries: 3},
		client:        client,
		retryWaitUnit: time.Millisecond,
	}
}

func TestIdentifyClip_RetriesAfterRateLimit(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"status": "ok", "results": [{"id": "r1", "score": 0.95, "recordings": [{"id": "rec1", "title": "Song", "artists": [{"name": "Artist"}]}]}]}`)
	}))
	defer server.Close()

	fpcalc := writeStubFpcalc(t, "#!/bin/sh\necho '{\"duration\": 30.0, \"fingerprint\": \"AQADtest\"}'\n")
	tagger := newRetryTestTagger(t, fpcalc, server.URL)

	clip := filepath.Join(t.TempDir(), "clip_0.wav")
	if err := os.WriteFile(clip, []byte("stub"), 0644); err != nil {
		t.Fatalf("write clip: %v", err)
	}

	response, err := tagger.identifyClip(context.Background(), clip)
	if err != nil {
		t.Fatalf("identifyClip failed: %v", err)
	}
	if len(response.Results) != 1 || response.Results[0].Recordings[0].Title != "Song" {
		t.Errorf("Unexpected response: %+v", response)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("Expected 2 lookup requests (429 then ok), got %d", got)
	}
}

func TestIdentifyClip_ExhaustsRetries(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	fpcalc := writeStubFpcalc(t, "#!/bin/sh\necho '{\"duration\": 30.0, \"fingerprint\": \"AQADtest\"}'\n")
	tagger := newRetryTestTagger(t, fpcalc, server.URL)

	clip := filepath.Join(t.TempDir(), "clip_0.wav")
	if err := os.WriteFile(clip, []byte("stub"), 0644); err != nil {
		t.Fatalf("write clip: %v", err)
	}

	_, err := tagger.identifyClip(context.Background(), clip)
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	var rateLimitErr *acoustid.RateLimitError
	if !errors.As(err, &rateLimitErr) {
		t.Errorf("Expected RateLimitError in chain, got %v", err)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("Expected 3 lookup requests, got %d", got)
	}
}

func TestLogClientStatus_ReportsCacheStats(t *testing.T) {
	tagger := newRetryTestTagger(t, "fpcalc", "http://127.0.0.1:1/lookup")

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	tagger.logClientStatus()

	if !strings.Contains(buf.String(), "INFO: cache_stats") {
		t.Errorf("Expected cache_stats log line, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "rate_limit_active") {
		t.Errorf("No rate limit seen, should not report one: %q", buf.String())
	}
}

func TestIdentifyClip_BadClipNotRetried(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{"status": "ok", "results": []}`)
	}))
	defer server.Close()

	fpcalc := writeStubFpcalc(t, "#!/bin/sh\necho 'ERROR: unable to decode audio' >&2\nexit 1\n")
	tagger := newRetryTestTagger(t, fpcalc, server.URL)

	clip := filepath.Join(t.TempDir(), "clip_0.wav")
	if err := os.WriteFile(clip, []byte("stub"), 0644); err != nil {
		t.Fatalf("write clip: %v", err)
	}

	_, err := tagger.identifyClip(context.Background(), clip)
	if err == nil {
		t.Fatal("Expected error for undecodable clip")
	}
	var fpErr *acoustid.FingerprintError
	if !errors.As(err, &fpErr) {
		t.Errorf("Expected FingerprintError, got %v", err)
	}
	if got := requests.Load(); got != 0 {
		t.Errorf("Expected no lookup requests for a bad clip, got %d", got)
	}
}
