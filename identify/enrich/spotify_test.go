package enrich

import (
	"testing"

	"github.com/sv4u/spotigo"
)

func searchResponse(tracks ...spotigo.Track) *spotigo.SearchResponse {
	return &spotigo.SearchResponse{
		Tracks: &spotigo.Paging[spotigo.Track]{
			Items: tracks,
		},
	}
}

func TestMatchScore(t *testing.T) {
	track := &spotigo.Track{
		Name: "Harvest Moon",
		Artists: []spotigo.Artist{
			{Name: "Neil Young"},
		},
	}

	if score := matchScore(track, "Harvest Moon", "Neil Young"); score != 100 {
		t.Errorf("Expected perfect score 100, got %d", score)
	}

	if score := matchScore(track, "Harvest Moon", "Someone Else"); score > 70 {
		t.Errorf("Expected wrong artist to drag score down, got %d", score)
	}

	// Closest credited artist counts on split credits
	collab := &spotigo.Track{
		Name: "Under Pressure",
		Artists: []spotigo.Artist{
			{Name: "Queen"},
			{Name: "David Bowie"},
		},
	}
	if score := matchScore(collab, "Under Pressure", "David Bowie"); score != 100 {
		t.Errorf("Expected perfect score on credited artist, got %d", score)
	}
}

func TestSelectTrack(t *testing.T) {
	enricher := &Enricher{minMatch: 70}

	response := searchResponse(
		spotigo.Track{
			ID:      "wrong",
			Name:    "Completely Different Song",
			Artists: []spotigo.Artist{{Name: "Other Band"}},
		},
		spotigo.Track{
			ID:      "right",
			Name:    "Harvest Moon",
			Artists: []spotigo.Artist{{Name: "Neil Young"}},
		},
	)

	best := enricher.selectTrack(response, "Harvest Moon", "Neil Young")
	if best == nil {
		t.Fatal("Expected a track, got nil")
	}
	if best.ID != "right" {
		t.Errorf("Expected best match 'right', got %q", best.ID)
	}
}

func TestSelectTrack_BelowThreshold(t *testing.T) {
	enricher := &Enricher{minMatch: 70}

	response := searchResponse(
		spotigo.Track{
			ID:      "wrong",
			Name:    "Completely Different Song",
			Artists: []spotigo.Artist{{Name: "Other Band"}},
		},
	)

	if best := enricher.selectTrack(response, "Harvest Moon", "Neil Young"); best != nil {
		t.Errorf("Expected nil below threshold, got %q", best.ID)
	}
}

func TestSelectTrack_EmptyResponse(t *testing.T) {
	enricher := &Enricher{minMatch: 70}

	if best := enricher.selectTrack(nil, "a", "b"); best != nil {
		t.Error("Expected nil for nil response")
	}
	if best := enricher.selectTrack(&spotigo.SearchResponse{}, "a", "b"); best != nil {
		t.Error("Expected nil for response without tracks")
	}
	if best := enricher.selectTrack(searchResponse(), "a", "b"); best != nil {
		t.Error("Expected nil for empty track list")
	}
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2024-01-31", 2024},
		{"1992-11", 1992},
		{"1975", 1975},
		{"", 0},
		{"bad", 0},
	}

	for _, tt := range tests {
		if got := releaseYear(tt.date); got != tt.want {
			t.Errorf("releaseYear(%q) = %d, want %d", tt.date, got, tt.want)
		}
	}
}
