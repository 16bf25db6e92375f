package youtube

import (
	"context"
	"log"
	"time"

	"retention-analyzer/internal/models"
	"retention-analyzer/shared/credentials"
)

// CredentialSource is the read side of the credential store.
type CredentialSource interface {
	Get(ctx context.Context, kind credentials.Kind) (string, bool)
}

// VideoFetcher is the remote lookup the Fetcher wraps; *Client implements it.
type VideoFetcher interface {
	FetchVideo(ctx context.Context, videoID, apiKey string) (*models.VideoRecord, error)
}

// FetchResult carries the record handed to the rest of the pipeline and, when
// the demo record was substituted, the error that caused it.
type FetchResult struct {
	Video *models.VideoRecord
	Err   error
}

// Fetcher resolves a video ID into a VideoRecord, substituting DemoVideo when
// the API call fails.
type Fetcher struct {
	client VideoFetcher
	keys   CredentialSource
}

func NewFetcher(client VideoFetcher, keys CredentialSource) *Fetcher {
	return &Fetcher{client: client, keys: keys}
}

// Fetch returns models.ErrMissingCredential, without touching the network,
// when no YouTube key is stored. Every other failure yields the demo record.
func (f *Fetcher) Fetch(ctx context.Context, videoID string) (*FetchResult, error) {
	apiKey, ok := f.keys.Get(ctx, credentials.KindMetadata)
	if !ok {
		return nil, models.ErrMissingCredential
	}

	video, err := f.client.FetchVideo(ctx, videoID, apiKey)
	if err != nil {
		log.Printf("YouTube API failed for %s, using demo data: %v", videoID, err)
		return &FetchResult{Video: DemoVideo(videoID), Err: err}, nil
	}

	return &FetchResult{Video: video}, nil
}

// DemoVideo is the fixed record used when metadata cannot be fetched.
func DemoVideo(videoID string) *models.VideoRecord {
	const duration = "PT10M32S"
	return &models.VideoRecord{
		ID:              videoID,
		Title:           "🎮 최신 게임 리뷰 - 완전 솔직 후기",
		ThumbnailURL:    "https://images.unsplash.com/photo-1611162617474-5b21e879e113?w=480&h=360&fit=crop",
		ViewCount:       125000,
		PublishedAt:     time.Date(2024, time.September, 19, 10, 0, 0, 0, time.UTC),
		Duration:        duration,
		DurationSeconds: ParseDuration(duration),
		URL:             WatchURL(videoID),
		Source:          models.SourceDemo,
	}
}
