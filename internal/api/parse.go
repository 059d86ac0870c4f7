package api

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/haryoiro/tubetone/internal/constants"
	ytdl "github.com/kkdai/youtube/v2"
	"google.golang.org/api/youtube/v3"
)

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration returns the number of seconds in an ISO-8601 duration such
// as PT1H2M3S. Unparseable input yields 0.
func ParseISODuration(iso string) int {
	m := isoDurationRe.FindStringSubmatch(strings.TrimSpace(iso))
	if m == nil {
		return 0
	}
	part := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	return part(m[1])*86400 + part(m[2])*3600 + part(m[3])*60 + part(m[4])
}

// FormatSeconds renders H:MM:SS when there are hours, otherwise M:SS
func FormatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatDuration converts an ISO-8601 duration to display form. Empty input
// gives "0:00".
func FormatDuration(iso string) string {
	return FormatSeconds(ParseISODuration(iso))
}

var titleNoiseRe = regexp.MustCompile(`(?i)\s*[\(\[](official music video|official video|official audio|lyric video|lyrics|audio|video|official|hq)[\)\]]`)

// CleanTitle strips common upload decorations and splits "Artist - Title".
// artist is empty when the title has no separator.
func CleanTitle(raw string) (title, artist string) {
	cleaned := strings.TrimSpace(titleNoiseRe.ReplaceAllString(raw, ""))

	parts := strings.Split(cleaned, " - ")
	if len(parts) > 1 {
		return strings.TrimSpace(strings.Join(parts[1:], " - ")), strings.TrimSpace(parts[0])
	}
	return cleaned, ""
}

// BestThumbnail picks maxres, standard, high, medium, then default
func BestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.Maxres, t.Standard, t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

// FormatViewCount abbreviates a view count: 1.2K, 3.4M, 5.6B
func FormatViewCount(n uint64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.FormatUint(n, 10)
	}
}

// FormatPublished renders an RFC 3339 timestamp as YYYY-MM-DD
func FormatPublished(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

// WatchURL returns the canonical watch URL for a video id
func WatchURL(videoID string) string {
	return constants.WatchURLPrefix + videoID
}

// VideoIDFromURL extracts the video id from a watch, short or embed URL
func VideoIDFromURL(u string) (string, error) {
	if strings.TrimSpace(u) == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidVideoURL)
	}
	if parsed, err := url.Parse(u); err == nil && parsed.Host != "" && !youtubeHost(parsed.Hostname()) {
		return "", fmt.Errorf("%w: unexpected host %s", ErrInvalidVideoURL, parsed.Host)
	}
	id, err := ytdl.ExtractVideoID(u)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidVideoURL, err)
	}
	return id, nil
}

func youtubeHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range []string{"youtube.com", "youtu.be", "youtube-nocookie.com"} {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
