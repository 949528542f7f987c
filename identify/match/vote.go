package match

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/sv4u/musicid/identify/acoustid"
)

// similarityThreshold is the minimum percent similarity for two candidates
// to count as the same track.
const similarityThreshold = 85

// Candidate is one possible identity for a file, extracted from a single
// lookup result.
type Candidate struct {
	RecordingID string
	Title       string
	Artist      string
	Album       string
	Score       float64
}

// Match is the consensus identity chosen across all clip lookups.
type Match struct {
	Candidate

	// Number of candidates that agreed on this identity
	Votes int

	// Highest lookup score among the agreeing candidates
	Confidence float64
}

// CandidatesFromResponse flattens a lookup response into candidates. Results
// without recordings or without a title are skipped. Multiple credited
// artists are joined with " & ".
func CandidatesFromResponse(response *acoustid.LookupResponse) []Candidate {
	var candidates []Candidate
	for _, result := range response.Results {
		for _, recording := range result.Recordings {
			if strings.TrimSpace(recording.Title) == "" {
				continue
			}

			names := make([]string, 0, len(recording.Artists))
			for _, artist := range recording.Artists {
				if strings.TrimSpace(artist.Name) != "" {
					names = append(names, artist.Name)
				}
			}

			album := ""
			if len(recording.Releases) > 0 {
				album = recording.Releases[0].Title
			}

			candidates = append(candidates, Candidate{
				RecordingID: recording.ID,
				Title:       recording.Title,
				Artist:      strings.Join(names, " & "),
				Album:       album,
				Score:       result.Score,
			})
		}
	}
	return candidates
}

type cluster struct {
	representative Candidate
	votes          int
	weight         float64
	best           float64
}

// Vote tallies candidates from all clip lookups and returns the consensus
// identity, or nil when no candidate reaches minScore. Candidates whose
// title and artist are near-identical are counted as votes for the same
// track; the winner is the group with the highest score-weighted total.
func Vote(candidates []Candidate, minScore float64) *Match {
	var clusters []*cluster

	for _, candidate := range candidates {
		placed := false
		for _, cl := range clusters {
			if sameTrack(cl.representative, candidate) {
				cl.votes++
				cl.weight += candidate.Score
				if candidate.Score > cl.best {
					cl.best = candidate.Score
					cl.representative = withAlbumFallback(candidate, cl.representative)
				} else if cl.representative.Album == "" && candidate.Album != "" {
					cl.representative.Album = candidate.Album
				}
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &cluster{
				representative: candidate,
				votes:          1,
				weight:         candidate.Score,
				best:           candidate.Score,
			})
		}
	}

	var winner *cluster
	for _, cl := range clusters {
		if winner == nil || cl.weight > winner.weight {
			winner = cl
		}
	}

	if winner == nil || winner.best < minScore {
		return nil
	}

	return &Match{
		Candidate:  winner.representative,
		Votes:      winner.votes,
		Confidence: winner.best,
	}
}

// sameTrack reports whether two candidates describe the same recording.
func sameTrack(a, b Candidate) bool {
	return Similarity(a.Title, b.Title) >= similarityThreshold &&
		Similarity(a.Artist, b.Artist) >= similarityThreshold
}

// withAlbumFallback keeps the previous representative's album when the new
// one has none.
func withAlbumFallback(next, prev Candidate) Candidate {
	if next.Album == "" {
		next.Album = prev.Album
	}
	return next
}

// Similarity returns the percent similarity of two strings, case
// insensitive. Empty strings are identical.
func Similarity(s1, s2 string) int {
	s1, s2 = strings.ToLower(strings.TrimSpace(s1)), strings.ToLower(strings.TrimSpace(s2))
	maxLen := max(len(s1), len(s2))
	if maxLen == 0 {
		return 100
	}
	distance := smetrics.WagnerFischer(s1, s2, 1, 1, 2)
	score := 100 - (distance * 100 / maxLen)
	if score < 0 {
		score = 0
	}
	return score
}
