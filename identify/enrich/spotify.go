package enrich

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/sv4u/spotigo"

	"github.com/sv4u/musicid/identify/acoustid"
	"github.com/sv4u/musicid/identify/match"
)

// Weighting for track selection. Title and artist dominate.
const (
	titleWeight  = 60
	artistWeight = 40
)

// Config holds configuration for the Spotify enricher.
type Config struct {
	ClientID     string
	ClientSecret string

	// Minimum match percentage for a search result to be accepted
	MinMatch int

	// Whether to report cover art URLs for embedding
	EmbedCover bool

	// Cache configuration
	CacheMaxSize int
	CacheTTL     int

	// Rate limiting configuration
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   float64
}

// Enrichment holds the extra metadata recovered for an identified track.
type Enrichment struct {
	Album       string
	AlbumArtist string
	Year        int
	TrackNumber int
	CoverURL    string
	SpotifyURL  string
}

// Enricher fills in album-level metadata for identified tracks by searching
// Spotify. It wraps spotigo.Client with proactive rate limiting and response
// caching.
type Enricher struct {
	client      *spotigo.Client
	cache       *acoustid.TTLCache
	rateLimiter *acoustid.RateLimiter
	minMatch    int
	embedCover  bool
}

// NewEnricher creates a new Spotify-backed enricher.
func NewEnricher(config *Config) (*Enricher, error) {
	auth, err := spotigo.NewClientCredentials(config.ClientID, config.ClientSecret)
	if err != nil {
		return nil, &EnrichError{Message: "Failed to create auth", Original: err}
	}

	client, err := spotigo.NewClient(auth)
	if err != nil {
		return nil, &EnrichError{Message: "Failed to create client", Original: err}
	}

	return &Enricher{
		client:      client,
		cache:       acoustid.NewTTLCache(config.CacheMaxSize, config.CacheTTL),
		rateLimiter: acoustid.NewRateLimiter(config.RateLimitEnabled, config.RateLimitRequests, config.RateLimitWindow),
		minMatch:    config.MinMatch,
		embedCover:  config.EmbedCover,
	}, nil
}

// Lookup searches Spotify for the identified track and returns album-level
// metadata, or nil when no result matches closely enough.
func (e *Enricher) Lookup(ctx context.Context, title, artist string) (*Enrichment, error) {
	cacheKey := fmt.Sprintf("enrich:%s:%s", strings.ToLower(title), strings.ToLower(artist))
	if cached := e.cache.Get(cacheKey); cached != nil {
		if enrichment, ok := cached.(*Enrichment); ok {
			return enrichment, nil
		}
	}

	if err := e.rateLimiter.WaitIfNeeded(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	response, err := e.client.Search(ctx, query, "track", &spotigo.SearchOptions{Limit: 10})
	if err != nil {
		return nil, &EnrichError{Message: fmt.Sprintf("Search failed for %q", query), Original: err}
	}

	best := e.selectTrack(response, title, artist)
	if best == nil {
		log.Printf("INFO: enrich_no_match title=%q artist=%q", title, artist)
		return nil, nil
	}

	enrichment := e.buildEnrichment(ctx, best)

	e.cache.Set(cacheKey, enrichment)
	return enrichment, nil
}

// selectTrack picks the search result closest to the identified title and
// artist, or nil when none clears the match threshold.
func (e *Enricher) selectTrack(response *spotigo.SearchResponse, title, artist string) *spotigo.Track {
	if response == nil || response.Tracks == nil || len(response.Tracks.Items) == 0 {
		return nil
	}

	var best *spotigo.Track
	bestScore := 0
	for i := range response.Tracks.Items {
		track := &response.Tracks.Items[i]
		score := matchScore(track, title, artist)
		if score > bestScore {
			best = track
			bestScore = score
		}
	}

	if bestScore < e.minMatch {
		return nil
	}
	return best
}

// matchScore returns the weighted percent similarity between a search result
// and the identified title and artist.
func matchScore(track *spotigo.Track, title, artist string) int {
	titleScore := match.Similarity(track.Name, title)

	// Take the closest of the credited artists
	artistScore := 0
	for _, trackArtist := range track.Artists {
		if score := match.Similarity(trackArtist.Name, artist); score > artistScore {
			artistScore = score
		}
	}

	return (titleScore*titleWeight + artistScore*artistWeight) / 100
}

// buildEnrichment extracts album metadata from the chosen track, fetching
// the full album record when one is referenced.
func (e *Enricher) buildEnrichment(ctx context.Context, track *spotigo.Track) *Enrichment {
	enrichment := &Enrichment{
		TrackNumber: track.TrackNumber,
	}
	if track.ExternalURLs != nil {
		enrichment.SpotifyURL = track.ExternalURLs.Spotify
	}

	if track.Album == nil || track.Album.ID == "" {
		return enrichment
	}
	enrichment.Album = track.Album.Name

	album, err := e.client.Album(ctx, track.Album.ID)
	if err != nil {
		log.Printf("WARN: enrich_album_fetch_failed track_id=%s album_id=%s error=%v", track.ID, track.Album.ID, err)
		return enrichment
	}

	enrichment.Album = album.Name
	enrichment.Year = releaseYear(album.ReleaseDate)
	if len(album.Artists) > 0 {
		enrichment.AlbumArtist = album.Artists[0].Name
	}
	if e.embedCover && len(album.Images) > 0 {
		enrichment.CoverURL = album.Images[0].URL
	}

	return enrichment
}

// releaseYear parses the year out of a Spotify release date, which may be
// "2024-01-31", "2024-01", or just "2024".
func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}
