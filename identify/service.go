package identify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sv4u/musicid/identify/acoustid"
	"github.com/sv4u/musicid/identify/config"
	"github.com/sv4u/musicid/identify/enrich"
	"github.com/sv4u/musicid/identify/match"
	"github.com/sv4u/musicid/identify/metadata"
	"github.com/sv4u/musicid/identify/sample"
)

// Status classifies the outcome for a single file.
type Status string

const (
	StatusTagged  Status = "tagged"
	StatusSkipped Status = "skipped"
	StatusNoMatch Status = "no_match"
	StatusFailed  Status = "failed"
)

// FileResult is the outcome of processing one file.
type FileResult struct {
	Path   string
	Status Status
	Match  *match.Match
	Err    error
}

// RunStats aggregates outcomes across a batch run.
type RunStats struct {
	Processed int
	Tagged    int
	Skipped   int
	NoMatch   int
	Failed    int
}

// Tagger identifies audio files and writes recovered metadata into them.
type Tagger struct {
	config   *config.IdentifySettings
	client   *acoustid.Client
	sampler  *sample.Provider
	embedder *metadata.Embedder

	// Optional, nil when no Spotify credentials are configured
	enricher *enrich.Enricher

	// DryRun identifies and reports without writing any tags.
	DryRun bool

	// retryWaitUnit scales lookup retry backoff, one second in production
	retryWaitUnit time.Duration
}

// NewTagger wires up a tagger from configuration. The enricher may be nil.
func NewTagger(cfg *config.IdentifySettings, client *acoustid.Client, sampler *sample.Provider, embedder *metadata.Embedder, enricher *enrich.Enricher) *Tagger {
	return &Tagger{
		config:        cfg,
		client:        client,
		sampler:       sampler,
		embedder:      embedder,
		enricher:      enricher,
		retryWaitUnit: time.Second,
	}
}

// TagFiles processes a batch of files sequentially. A cancelled context
// stops the run; stats cover the files processed up to that point.
func (t *Tagger) TagFiles(ctx context.Context, paths []string) (*RunStats, error) {
	stats := &RunStats{}
	defer t.sampler.Cleanup()

	log.Printf("INFO: run_start files=%d segments=%d overwrite=%s", len(paths), t.config.Segments, t.config.Overwrite)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			log.Printf("WARN: run_interrupted processed=%d remaining=%d", stats.Processed, len(paths)-i)
			return stats, err
		}

		result := t.TagFile(ctx, path)
		stats.Processed++
		switch result.Status {
		case StatusTagged:
			stats.Tagged++
			fmt.Printf("[%d/%d] %s: %s - %s\n", i+1, len(paths), path, result.Match.Artist, result.Match.Title)
		case StatusSkipped:
			stats.Skipped++
			fmt.Printf("[%d/%d] %s: skipped (already tagged)\n", i+1, len(paths), path)
		case StatusNoMatch:
			stats.NoMatch++
			fmt.Printf("[%d/%d] %s: no match\n", i+1, len(paths), path)
		case StatusFailed:
			stats.Failed++
			fmt.Printf("[%d/%d] %s: failed (%v)\n", i+1, len(paths), path, result.Err)
			if errors.Is(result.Err, context.Canceled) || errors.Is(result.Err, context.DeadlineExceeded) {
				return stats, result.Err
			}
		}
	}

	log.Printf("INFO: run_complete processed=%d tagged=%d skipped=%d no_match=%d failed=%d",
		stats.Processed, stats.Tagged, stats.Skipped, stats.NoMatch, stats.Failed)
	t.logClientStatus()
	return stats, nil
}

// logClientStatus records lookup cache effectiveness and any rate limit
// still in force at the end of a run.
func (t *Tagger) logClientStatus() {
	cacheStats := t.client.GetCacheStats()
	log.Printf("INFO: cache_stats hits=%d misses=%d evictions=%d size=%d hit_rate=%.2f",
		cacheStats.Hits, cacheStats.Misses, cacheStats.Evictions, cacheStats.Size, cacheStats.HitRate)

	if info := t.client.GetRateLimitInfo(); info != nil && info.Active {
		log.Printf("WARN: rate_limit_active retry_after=%d detected_at=%d",
			info.RetryAfterSeconds, info.DetectedAt)
	}
}

// TagFile identifies one file and writes its tags per the overwrite policy.
func (t *Tagger) TagFile(ctx context.Context, path string) *FileResult {
	log.Printf("INFO: identify_start file=%s", path)

	existing, err := metadata.ReadTags(path)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}

	mask := t.fieldMask(existing)
	if mask.Empty() {
		log.Printf("INFO: identify_skipped file=%s reason=existing_tags overwrite=%s", path, t.config.Overwrite)
		return &FileResult{Path: path, Status: StatusSkipped}
	}

	result, err := t.Identify(ctx, path)
	if err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Err: err}
	}
	if result == nil {
		log.Printf("INFO: identify_no_match file=%s", path)
		return &FileResult{Path: path, Status: StatusNoMatch}
	}

	info := t.buildTrackInfo(ctx, result)

	if existing.Title != "" || existing.Artist != "" {
		log.Printf("INFO: identify_replacing file=%s old_title=%q old_artist=%q", path, existing.Title, existing.Artist)
	}

	if t.DryRun {
		log.Printf("INFO: identify_dry_run file=%s title=%q artist=%q votes=%d confidence=%.2f",
			path, result.Title, result.Artist, result.Votes, result.Confidence)
		return &FileResult{Path: path, Status: StatusTagged, Match: result}
	}

	if err := t.embedder.Embed(ctx, path, info, mask); err != nil {
		return &FileResult{Path: path, Status: StatusFailed, Match: result, Err: err}
	}

	log.Printf("INFO: identify_tagged file=%s title=%q artist=%q votes=%d confidence=%.2f",
		path, result.Title, result.Artist, result.Votes, result.Confidence)
	return &FileResult{Path: path, Status: StatusTagged, Match: result}
}

// Identify fingerprints clips from the file and returns the consensus match,
// or nil when nothing clears the score threshold.
func (t *Tagger) Identify(ctx context.Context, path string) (*match.Match, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}

	duration, err := t.sampler.Probe(ctx, path)
	if err != nil {
		log.Printf("WARN: probe_failed file=%s error=%v", path, err)
		duration = 0
	}

	offsets := sample.PlanOffsets(duration, t.config.SegmentDuration, t.config.Segments)
	log.Printf("INFO: identify_offsets file=%s duration=%.1f offsets=%v", path, duration, offsets)

	var candidates []match.Candidate
	for _, offset := range offsets {
		clipPath, err := t.sampler.Cut(ctx, path, offset)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("WARN: clip_failed file=%s offset=%d error=%v", path, offset, err)
			continue
		}

		response, err := t.identifyClip(ctx, clipPath)
		_ = os.Remove(clipPath)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("WARN: lookup_failed file=%s offset=%d error=%v", path, offset, err)
			continue
		}

		candidates = append(candidates, match.CandidatesFromResponse(response)...)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	return match.Vote(candidates, t.config.MinScore), nil
}

// identifyClip fingerprints and looks up one clip with bounded retries.
func (t *Tagger) identifyClip(ctx context.Context, clipPath string) (*acoustid.LookupResponse, error) {
	maxRetries := t.config.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	waitUnit := t.retryWaitUnit
	if waitUnit == 0 {
		waitUnit = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		response, err := t.client.Identify(ctx, clipPath)
		if err == nil {
			return response, nil
		}

		// Bad clips won't improve with retries
		var fpErr *acoustid.FingerprintError
		if errors.As(err, &fpErr) {
			return nil, err
		}

		lastErr = err
		if attempt < maxRetries {
			waitTime := time.Duration(1<<uint(attempt)) * waitUnit
			var rateLimitErr *acoustid.RateLimitError
			if errors.As(err, &rateLimitErr) && rateLimitErr.RetryAfter > 0 {
				waitTime = time.Duration(rateLimitErr.RetryAfter+10) * waitUnit
			}
			log.Printf("INFO: retry attempt=%d max_retries=%d clip=%s error=%v wait_seconds=%d",
				attempt, maxRetries, clipPath, err, int(waitTime.Seconds()))
			select {
			case <-time.After(waitTime):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return nil, fmt.Errorf("lookup failed after %d attempts: %w", maxRetries, lastErr)
}

// buildTrackInfo merges the consensus match with optional enrichment.
func (t *Tagger) buildTrackInfo(ctx context.Context, result *match.Match) *metadata.TrackInfo {
	info := &metadata.TrackInfo{
		Title:  result.Title,
		Artist: result.Artist,
		Album:  result.Album,
	}

	if t.enricher == nil {
		return info
	}

	enrichment, err := t.enricher.Lookup(ctx, result.Title, result.Artist)
	if err != nil {
		log.Printf("WARN: enrich_failed title=%q artist=%q error=%v", result.Title, result.Artist, err)
		return info
	}
	if enrichment == nil {
		return info
	}

	if info.Album == "" {
		info.Album = enrichment.Album
	}
	info.AlbumArtist = enrichment.AlbumArtist
	info.TrackNumber = enrichment.TrackNumber
	info.Year = enrichment.Year
	info.CoverURL = enrichment.CoverURL
	info.SpotifyURL = enrichment.SpotifyURL
	return info
}

// fieldMask computes which tag fields to write for a file, given its
// existing tags and the configured overwrite policy.
func (t *Tagger) fieldMask(existing *metadata.Existing) metadata.FieldMask {
	requested := metadata.FieldMask{}
	for _, tag := range t.config.Tags {
		switch tag {
		case config.TagTitle:
			requested.Title = true
		case config.TagArtist:
			requested.Artist = true
		case config.TagAlbum:
			requested.Album = true
		}
	}

	switch t.config.Overwrite {
	case config.OverwriteAll:
		return requested

	case config.OverwriteMissing:
		if existing.Title != "" {
			requested.Title = false
		}
		if existing.Artist != "" {
			requested.Artist = false
		}
		if existing.Album != "" {
			requested.Album = false
		}
		return requested

	case config.OverwriteSkip:
		// Any existing value among the requested fields skips the file
		if (requested.Title && existing.Title != "") ||
			(requested.Artist && existing.Artist != "") ||
			(requested.Album && existing.Album != "") {
			return metadata.FieldMask{}
		}
		return requested
	}

	return requested
}
