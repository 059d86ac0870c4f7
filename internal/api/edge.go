package api

import (
	"context"

	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/structures"
	"google.golang.org/api/youtube/v3"
)

// EdgeSearch returns search results in the edge proxy's wire shape: raw
// title, channel as artist, medium thumbnail, high album art and no details
// lookup. Search results carry no duration, so it is reported as 00:00.
func (c *Client) EdgeSearch(ctx context.Context, query string, limit int) ([]structures.Track, error) {
	if limit <= 0 {
		limit = constants.DefaultProxyLimit
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoCategoryId(constants.MusicCategoryID).
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapRequestError("search", err)
	}

	out := make([]structures.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Snippet == nil {
			continue
		}
		out = append(out, edgeTrack(item.Id.VideoId, item.Snippet.Title, item.Snippet.ChannelTitle, item.Snippet.Thumbnails, ""))
	}
	return out, nil
}

// EdgeTrending returns the popular music chart in the edge proxy's wire shape
// with the raw ISO-8601 duration.
func (c *Client) EdgeTrending(ctx context.Context, limit int) ([]structures.Track, error) {
	if limit <= 0 {
		limit = constants.DefaultProxyLimit
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Chart("mostPopular").
		VideoCategoryId(constants.MusicCategoryID).
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapRequestError("trending", err)
	}

	out := make([]structures.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		var iso string
		if item.ContentDetails != nil {
			iso = item.ContentDetails.Duration
		}
		out = append(out, edgeTrack(item.Id, item.Snippet.Title, item.Snippet.ChannelTitle, item.Snippet.Thumbnails, iso))
	}
	return out, nil
}

func edgeTrack(id, title, channel string, thumbs *youtube.ThumbnailDetails, duration string) structures.Track {
	if duration == "" {
		duration = "00:00"
	}
	t := structures.Track{
		TrackID:  id,
		Title:    title,
		Artist:   channel,
		Duration: duration,
		URL:      WatchURL(id),
	}
	if thumbs != nil {
		if thumbs.Medium != nil {
			t.Thumbnail = thumbs.Medium.Url
		}
		if thumbs.High != nil {
			t.AlbumArt = thumbs.High.Url
		}
	}
	return t
}
