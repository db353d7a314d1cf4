// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/pdiddy/citeref/internal/httputil"
	"github.com/pdiddy/citeref/pkg/types"
)

// YouTube endpoints. Declared as vars so tests can substitute httptest
// servers.
var (
	youtubeAPIBase = "https://www.googleapis.com/youtube/v3/videos"
	oembedBase     = "https://www.youtube.com/oembed"
)

const (
	youtubeWatchBase   = "https://www.youtube.com/watch?v="
	youtubeChannelBase = "https://www.youtube.com/channel/"
)

// isoDuration matches ISO 8601 durations such as PT4M13S or P1DT2H.
var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// LookupYouTube fetches a video from the YouTube Data API v3. It returns nil
// when apiKey is empty or the call fails; callers fall back to OEmbed.
func (c *Client) LookupYouTube(ctx context.Context, videoID, apiKey string) *types.VideoData {
	if apiKey == "" {
		return nil
	}
	params := url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {videoID},
		"key":  {apiKey},
	}

	var resp youtubeResponse
	err := c.getJSON(ctx, youtubeAPIBase+"?"+params.Encode(), nil, &resp)
	if err == nil && len(resp.Items) == 0 {
		err = httputil.ErrNotFound
	}
	if err != nil {
		c.miss(ProviderYouTube, videoID, err)
		return nil
	}
	c.hit(ProviderYouTube, videoID)

	item := resp.Items[0]
	v := &types.VideoData{
		Title:             item.Snippet.Title,
		ChannelTitle:      item.Snippet.ChannelTitle,
		Description:       item.Snippet.Description,
		DurationFormatted: FormatDuration(item.ContentDetails.Duration),
		ThumbnailURL:      item.Snippet.Thumbnails.best(),
		URL:               youtubeWatchBase + videoID,
		VideoID:           videoID,
		PublishYear:       types.NoDate,
	}
	if item.Snippet.ChannelID != "" {
		v.ChannelURL = youtubeChannelBase + item.Snippet.ChannelID
	}
	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		v.PublishYear = strconv.Itoa(t.Year())
		v.PublishMonth = t.Month().String()
		v.PublishDay = strconv.Itoa(t.Day())
	}
	return v
}

// OEmbed fetches the keyless oEmbed record for a video. oEmbed carries no
// publish date, so PublishYear is always "n.d.".
func (c *Client) OEmbed(ctx context.Context, videoID string) *types.VideoData {
	watchURL := youtubeWatchBase + videoID
	params := url.Values{
		"url":    {watchURL},
		"format": {"json"},
	}

	var resp oembedResponse
	if err := c.getJSON(ctx, oembedBase+"?"+params.Encode(), nil, &resp); err != nil || resp.Title == "" {
		c.miss(ProviderOEmbed, videoID, err)
		return nil
	}
	c.hit(ProviderOEmbed, videoID)

	return &types.VideoData{
		Title:        resp.Title,
		ChannelTitle: resp.AuthorName,
		ChannelURL:   resp.AuthorURL,
		PublishYear:  types.NoDate,
		ThumbnailURL: resp.ThumbnailURL,
		URL:          watchURL,
		VideoID:      videoID,
	}
}

// FormatDuration renders an ISO 8601 duration as m:ss or h:mm:ss. Invalid
// input yields "".
func FormatDuration(iso string) string {
	m := isoDuration.FindStringSubmatch(iso)
	if m == nil || iso == "P" {
		return ""
	}
	n := func(s string) int {
		v, _ := strconv.Atoi(s)
		return v
	}
	hours := n(m[1])*24 + n(m[2])
	mins, secs := n(m[3]), n(m[4])
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}

// YouTube Data API and oEmbed JSON structures.
type youtubeResponse struct {
	Items []youtubeItem `json:"items"`
}

type youtubeItem struct {
	Snippet struct {
		Title        string            `json:"title"`
		ChannelTitle string            `json:"channelTitle"`
		ChannelID    string            `json:"channelId"`
		PublishedAt  string            `json:"publishedAt"`
		Description  string            `json:"description"`
		Thumbnails   youtubeThumbnails `json:"thumbnails"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type youtubeThumbnail struct {
	URL string `json:"url"`
}

type youtubeThumbnails struct {
	Maxres  *youtubeThumbnail `json:"maxres"`
	High    *youtubeThumbnail `json:"high"`
	Medium  *youtubeThumbnail `json:"medium"`
	Default *youtubeThumbnail `json:"default"`
}

// best returns the largest available thumbnail URL.
func (t youtubeThumbnails) best() string {
	for _, th := range []*youtubeThumbnail{t.Maxres, t.High, t.Medium, t.Default} {
		if th != nil && th.URL != "" {
			return th.URL
		}
	}
	return ""
}

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}
