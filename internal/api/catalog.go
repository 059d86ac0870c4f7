package api

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/haryoiro/tubetone/internal/structures"
)

// Genres browseable from the home view
var Genres = []structures.Genre{
	{ID: "pop", Name: "Pop"},
	{ID: "rock", Name: "Rock"},
	{ID: "hiphop", Name: "Hip Hop"},
	{ID: "rnb", Name: "R&B"},
	{ID: "electronic", Name: "Electronic"},
	{ID: "classical", Name: "Classical"},
}

// verifiedArtists get a badge next to their name
var verifiedArtists = []string{
	"Taylor Swift",
	"Ed Sheeran",
	"Billie Eilish",
	"The Weeknd",
	"Dua Lipa",
	"Drake",
	"Ariana Grande",
	"BTS",
	"Bad Bunny",
	"Coldplay",
	"Imagine Dragons",
	"Post Malone",
	"Adele",
	"Bruno Mars",
	"Olivia Rodrigo",
	"Harry Styles",
	"Beyoncé",
	"Kendrick Lamar",
	"Rihanna",
	"Eminem",
}

// IsVerifiedArtist matches case-insensitively in either direction, so
// "Taylor Swift - Topic" and "Adele" both match.
func IsVerifiedArtist(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, a := range verifiedArtists {
		v := strings.ToLower(a)
		if strings.Contains(n, v) || strings.Contains(v, n) {
			return true
		}
	}
	return false
}

// RecommendationQuery is the search used to fill recommendations for a track
func RecommendationQuery(t structures.Track) string {
	return strings.TrimSpace(t.Artist) + " music"
}

// similarityThreshold above which two titles count as the same song
const similarityThreshold = 0.9

// FilterRecommendations drops the current track, anything already queued and
// titles too close to ones already kept, returning at most limit tracks.
func FilterRecommendations(current *structures.Track, queued, candidates []structures.Track, limit int) []structures.Track {
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	skip := make(map[string]bool, len(queued)+1)
	for _, t := range queued {
		skip[t.TrackID] = true
	}
	var titles []string
	if current != nil {
		skip[current.TrackID] = true
		titles = append(titles, current.Title)
	}

	var out []structures.Track
	for _, c := range candidates {
		if limit > 0 && len(out) >= limit {
			break
		}
		if c.TrackID == "" || skip[c.TrackID] {
			continue
		}
		if nearDuplicate(jw, c.Title, titles) {
			continue
		}
		skip[c.TrackID] = true
		titles = append(titles, c.Title)
		out = append(out, c)
	}
	return out
}

func nearDuplicate(m strutil.StringMetric, title string, seen []string) bool {
	for _, s := range seen {
		if strutil.Similarity(title, s, m) >= similarityThreshold {
			return true
		}
	}
	return false
}
