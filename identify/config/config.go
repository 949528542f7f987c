package config

import (
	"fmt"
	"strings"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// OverwriteMode controls how existing tag values are treated.
type OverwriteMode string

const (
	OverwriteAll     OverwriteMode = "all"
	OverwriteMissing OverwriteMode = "missing"
	OverwriteSkip    OverwriteMode = "skip"
)

// Known tag field names.
const (
	TagTitle  = "title"
	TagArtist = "artist"
	TagAlbum  = "album"
)

// IdentifySettings holds recognition and tagging configuration.
type IdentifySettings struct {
	// AcoustID application key (required, env ACOUSTID_API_KEY overrides)
	APIKey string `yaml:"api_key"`

	// Segmentation settings
	Segments        int `yaml:"segments"`
	SegmentDuration int `yaml:"segment_duration"`

	// Which tag fields to write
	Tags []string `yaml:"tags"`

	// Overwrite behavior for files that already carry tags
	Overwrite OverwriteMode `yaml:"overwrite"`

	// Minimum AcoustID score (0..1) for a match to be accepted
	MinScore float64 `yaml:"min_score"`

	// External binaries (default: resolved from PATH)
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	FpcalcPath  string `yaml:"fpcalc_path"`

	// Lookup retry settings
	MaxRetries int `yaml:"max_retries"`

	// Response cache settings
	CacheMaxSize int `yaml:"cache_max_size"`
	CacheTTL     int `yaml:"cache_ttl"`

	// AcoustID rate limiting settings
	RateLimitEnabled  bool    `yaml:"rate_limit_enabled"`
	RateLimitRequests int     `yaml:"rate_limit_requests"`
	RateLimitWindow   float64 `yaml:"rate_limit_window"`
}

// SetDefaults sets default values for IdentifySettings.
func (s *IdentifySettings) SetDefaults() {
	if s.Segments == 0 {
		s.Segments = 3
	}
	if s.SegmentDuration == 0 {
		s.SegmentDuration = 30
	}
	if len(s.Tags) == 0 {
		s.Tags = []string{TagTitle, TagArtist, TagAlbum}
	}
	if s.Overwrite == "" {
		s.Overwrite = OverwriteAll
	}
	if s.MinScore == 0 {
		s.MinScore = 0.5
	}
	if s.FFmpegPath == "" {
		s.FFmpegPath = "ffmpeg"
	}
	if s.FFprobePath == "" {
		s.FFprobePath = "ffprobe"
	}
	if s.FpcalcPath == "" {
		s.FpcalcPath = "fpcalc"
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = 3
	}
	if s.CacheMaxSize == 0 {
		s.CacheMaxSize = 500
	}
	if s.CacheTTL == 0 {
		s.CacheTTL = 3600
	}
	if !s.RateLimitEnabled && s.RateLimitRequests == 0 {
		s.RateLimitEnabled = true
	}
	if s.RateLimitRequests == 0 {
		// AcoustID allows 3 requests per second per application
		s.RateLimitRequests = 3
	}
	if s.RateLimitWindow == 0 {
		s.RateLimitWindow = 1.0
	}
}

// Validate validates IdentifySettings.
func (s *IdentifySettings) Validate() error {
	s.APIKey = strings.TrimSpace(s.APIKey)
	if s.APIKey == "" {
		return &ConfigError{
			Message: "Missing AcoustID API key. Provide identify.api_key in the configuration file or set ACOUSTID_API_KEY",
		}
	}

	if s.Segments < 1 || s.Segments > 10 {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid segments: %d. Must be between 1 and 10", s.Segments),
		}
	}

	if s.SegmentDuration < 5 || s.SegmentDuration > 120 {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid segment_duration: %d. Must be between 5 and 120 seconds", s.SegmentDuration),
		}
	}

	if s.MinScore < 0 || s.MinScore > 1 {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid min_score: %.2f. Must be between 0 and 1", s.MinScore),
		}
	}

	validTags := map[string]bool{
		TagTitle:  true,
		TagArtist: true,
		TagAlbum:  true,
	}
	for _, tag := range s.Tags {
		if !validTags[tag] {
			return &ConfigError{
				Message: fmt.Sprintf("Invalid tag field: %s. Must be one of: title, artist, album", tag),
			}
		}
	}

	if s.Overwrite != OverwriteAll && s.Overwrite != OverwriteMissing && s.Overwrite != OverwriteSkip {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid overwrite mode: %s. Must be one of: all, missing, skip", s.Overwrite),
		}
	}

	return nil
}

// EnrichSettings holds optional Spotify enrichment configuration.
// Enrichment is disabled when credentials are absent.
type EnrichSettings struct {
	// Spotify API credentials (env SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET override)
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// Embed cover art fetched from the matched release
	EmbedCover bool `yaml:"embed_cover"`

	// Minimum fuzzy match score (0..100) for an enrichment candidate
	MinMatch int `yaml:"min_match"`

	// Cache settings
	CacheMaxSize int `yaml:"cache_max_size"`
	CacheTTL     int `yaml:"cache_ttl"`

	// Spotify rate limiting settings
	RateLimitEnabled  bool    `yaml:"rate_limit_enabled"`
	RateLimitRequests int     `yaml:"rate_limit_requests"`
	RateLimitWindow   float64 `yaml:"rate_limit_window"`
}

// SetDefaults sets default values for EnrichSettings.
func (s *EnrichSettings) SetDefaults() {
	if s.MinMatch == 0 {
		s.MinMatch = 70
	}
	if s.CacheMaxSize == 0 {
		s.CacheMaxSize = 500
	}
	if s.CacheTTL == 0 {
		s.CacheTTL = 3600
	}
	if !s.RateLimitEnabled && s.RateLimitRequests == 0 {
		s.RateLimitEnabled = true
	}
	if s.RateLimitRequests == 0 {
		s.RateLimitRequests = 10
	}
	if s.RateLimitWindow == 0 {
		s.RateLimitWindow = 1.0
	}
}

// Enabled reports whether enrichment credentials are configured.
func (s *EnrichSettings) Enabled() bool {
	return strings.TrimSpace(s.ClientID) != "" && strings.TrimSpace(s.ClientSecret) != ""
}

// Validate validates EnrichSettings.
func (s *EnrichSettings) Validate() error {
	if s.MinMatch < 0 || s.MinMatch > 100 {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid enrich.min_match: %d. Must be between 0 and 100", s.MinMatch),
		}
	}
	// One credential without the other is always a mistake
	hasID := strings.TrimSpace(s.ClientID) != ""
	hasSecret := strings.TrimSpace(s.ClientSecret) != ""
	if hasID != hasSecret {
		return &ConfigError{
			Message: "Incomplete Spotify credentials. Both enrich.client_id and enrich.client_secret must be provided, or neither",
		}
	}
	return nil
}

// MusicIDConfig represents the main configuration model.
type MusicIDConfig struct {
	Version  string           `yaml:"version"`
	Identify IdentifySettings `yaml:"identify"`
	Enrich   EnrichSettings   `yaml:"enrich"`
}

// Validate validates MusicIDConfig.
func (c *MusicIDConfig) Validate() error {
	if c.Version != "1.0" {
		return &ConfigError{
			Message: fmt.Sprintf("Invalid version: %s. Expected 1.0", c.Version),
		}
	}

	c.Identify.SetDefaults()
	if err := c.Identify.Validate(); err != nil {
		return err
	}

	c.Enrich.SetDefaults()
	if err := c.Enrich.Validate(); err != nil {
		return err
	}

	return nil
}
