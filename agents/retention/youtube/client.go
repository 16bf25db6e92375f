package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retention-analyzer/internal/models"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// videoParts are the resource parts requested for every video lookup.
var videoParts = []string{"snippet", "statistics", "contentDetails"}

// Client talks to the YouTube Data API v3 with an API key.
type Client struct {
	endpoint string
	timeout  time.Duration
}

// NewClient returns a client. endpoint overrides the API base URL and may be
// empty; timeout bounds every request (0 disables the bound).
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
	}
}

func (c *Client) newService(ctx context.Context, apiKey string) (*youtube.Service, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return service, nil
}

// FetchVideo makes a single videos.list request for videoID and maps the
// first item. Transport and HTTP errors wrap models.ErrUpstreamFailure; an
// empty or inconsistent payload wraps models.ErrMalformedResponse.
func (c *Client) FetchVideo(ctx context.Context, videoID, apiKey string) (*models.VideoRecord, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	service, err := c.newService(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamFailure, err)
	}

	resp, err := service.Videos.List(videoParts).Id(videoID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: YouTube API returned status %d: %s", models.ErrUpstreamFailure, apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: failed to get video %s: %v", models.ErrUpstreamFailure, videoID, err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: video %s not found", models.ErrMalformedResponse, videoID)
	}

	return mapVideo(videoID, resp.Items[0])
}

func mapVideo(requestedID string, item *youtube.Video) (*models.VideoRecord, error) {
	if item.Id != requestedID {
		return nil, fmt.Errorf("%w: requested video %s but API returned %s", models.ErrMalformedResponse, requestedID, item.Id)
	}
	if item.Snippet == nil {
		return nil, fmt.Errorf("%w: video %s has no snippet", models.ErrMalformedResponse, requestedID)
	}

	video := &models.VideoRecord{
		ID:           item.Id,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ChannelTitle: item.Snippet.ChannelTitle,
		ThumbnailURL: thumbnailURL(item.Snippet.Thumbnails),
		URL:          WatchURL(item.Id),
		Source:       models.SourceYouTube,
	}

	if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		video.PublishedAt = publishedAt
	}

	if item.ContentDetails != nil {
		video.Duration = item.ContentDetails.Duration
		video.DurationSeconds = ParseDuration(item.ContentDetails.Duration)
	}

	// Like and comment counts are hidden on some videos; absent means 0.
	if item.Statistics != nil {
		video.ViewCount = int64(item.Statistics.ViewCount)
		video.LikeCount = int64(item.Statistics.LikeCount)
		video.CommentCount = int64(item.Statistics.CommentCount)
	}

	return video, nil
}

func thumbnailURL(thumbs *youtube.ThumbnailDetails) string {
	if thumbs == nil {
		return ""
	}
	for _, t := range []*youtube.Thumbnail{thumbs.Medium, thumbs.High, thumbs.Default} {
		if t != nil && t.Url != "" {
			return t.Url
		}
	}
	return ""
}
