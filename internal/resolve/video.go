// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/ai"
	"github.com/pdiddy/citeref/internal/detect"
	"github.com/pdiddy/citeref/pkg/types"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// ResolveVideo returns the details of a YouTube video. The Data API is used
// when a key is configured, oEmbed otherwise or on failure. When the
// publish date or description is missing and AI is available, the model's
// estimate fills only the placeholder fields.
func (r *Resolver) ResolveVideo(ctx context.Context, rawURL string) (*types.VideoData, error) {
	id, ok := detect.YouTubeID(rawURL)
	if !ok {
		return nil, &Error{
			Status:     http.StatusBadRequest,
			Message:    "Invalid YouTube URL",
			Suggestion: "Paste a youtube.com/watch, youtu.be, embed, or shorts link.",
		}
	}
	return r.videoByID(ctx, id)
}

func (r *Resolver) videoByID(ctx context.Context, id string) (*types.VideoData, error) {
	v := r.lookups.LookupYouTube(ctx, id, ai.PickKey(r.youtubeKeys))
	if v == nil {
		v = r.lookups.OEmbed(ctx, id)
	}
	if v == nil {
		return nil, &Error{
			Status:     http.StatusNotFound,
			Message:    "Video not found",
			Suggestion: "Check that the video is public and the link is complete.",
		}
	}

	if r.aiAvailable() && (types.IsPlaceholder(v.PublishYear) || v.Description == "") {
		r.enrichVideo(ctx, v)
	}
	return v, nil
}

func (r *Resolver) enrichVideo(ctx context.Context, v *types.VideoData) {
	g, err := r.enhancer.InferVideoDetails(ctx, *v)
	if err != nil {
		r.logger.Warn("ai video inference failed", zap.String("video_id", v.VideoID), zap.Error(err))
		return
	}
	if types.IsPlaceholder(v.PublishYear) && yearPattern.MatchString(g.PublishYear) {
		v.PublishYear = g.PublishYear
		if v.PublishMonth == "" {
			v.PublishMonth = monthName(g.PublishMonth)
		}
		if v.PublishDay == "" && v.PublishMonth != "" {
			if d, err := strconv.Atoi(g.PublishDay); err == nil && d >= 1 && d <= 31 {
				v.PublishDay = strconv.Itoa(d)
			}
		}
	}
	if v.Description == "" {
		v.Description = g.Description
	}
}

// monthName normalizes a month given as a name, abbreviation, or number to
// its full English name. Unrecognized input yields "".
func monthName(s string) string {
	for _, layout := range []string{"January", "Jan", "1", "01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Month().String()
		}
	}
	return ""
}

// videoDate renders a video's publish date as YYYY, YYYY-MM, or
// YYYY-MM-DD. A placeholder year yields "".
func videoDate(v types.VideoData) string {
	if !yearPattern.MatchString(v.PublishYear) {
		return ""
	}
	month := monthName(v.PublishMonth)
	if month == "" {
		return v.PublishYear
	}
	t, _ := time.Parse("January", month)
	date := fmt.Sprintf("%s-%02d", v.PublishYear, int(t.Month()))
	if d, err := strconv.Atoi(v.PublishDay); err == nil && d >= 1 && d <= 31 {
		date += fmt.Sprintf("-%02d", d)
	}
	return date
}
