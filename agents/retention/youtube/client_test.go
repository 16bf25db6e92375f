package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"retention-analyzer/internal/models"
	"retention-analyzer/shared/credentials"
	"retention-analyzer/shared/storage"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{"Watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"WatchNoWWW", "https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"Mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"WatchTrailingParams", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&list=PL123", "dQw4w9WgXcQ", true},
		{"WatchVNotFirst", "https://www.youtube.com/watch?feature=share&v=a_b-C1d2E3f", "a_b-C1d2E3f", true},
		{"Short", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"ShortWithQuery", "https://youtu.be/dQw4w9WgXcQ?si=abcdef", "dQw4w9WgXcQ", true},
		{"ShortNoScheme", "youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"Embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"EmbedNoCookie", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ?rel=0", "dQw4w9WgXcQ", true},
		{"V", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"Shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"SurroundingWhitespace", "  https://youtu.be/dQw4w9WgXcQ \n", "dQw4w9WgXcQ", true},
		{"Empty", "", "", false},
		{"NotAURL", "hello world", "", false},
		{"OtherDomain", "https://example.com/watch?v=dQw4w9WgXcQ", "", false},
		{"TooShort", "https://youtu.be/dQw4w9WgXc", "", false},
		{"TooLong", "https://www.youtube.com/watch?v=dQw4w9WgXcQQ", "", false},
		{"InvalidCharacter", "https://youtu.be/dQw4w9W.XcQ", "", false},
		{"ChannelPage", "https://www.youtube.com/@somechannel", "", false},
		{"NoID", "https://www.youtube.com/watch", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractVideoID(tt.url)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("ExtractVideoID(%q) = (%q, %v), want (%q, %v)", tt.url, id, ok, tt.wantID, tt.wantOK)
			}
			if IsValidURL(tt.url) != tt.wantOK {
				t.Errorf("IsValidURL(%q) = %v, want %v", tt.url, !tt.wantOK, tt.wantOK)
			}
		})
	}
}

func TestExtractVideoIDAllShapes(t *testing.T) {
	ids := []string{"dQw4w9WgXcQ", "___________", "-----------", "AbCdEfGhIjK", "01234567890"}
	shapes := []string{
		"https://www.youtube.com/watch?v=%s",
		"https://youtu.be/%s",
		"https://www.youtube.com/embed/%s",
	}

	for _, id := range ids {
		for _, shape := range shapes {
			raw := fmt.Sprintf(shape, id)
			got, ok := ExtractVideoID(raw)
			if !ok || got != id {
				t.Errorf("ExtractVideoID(%q) = (%q, %v), want (%q, true)", raw, got, ok, id)
			}
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		expected int
	}{
		{"Empty", "", 0},
		{"Seconds only", "PT45S", 45},
		{"Minutes only", "PT2M", 120},
		{"Hours only", "PT1H", 3600},
		{"Minutes and seconds", "PT1M30S", 90},
		{"Hours and minutes", "PT2H15M", 8100},
		{"Full format", "PT1H2M3S", 3723},
		{"Demo video", "PT10M32S", 632},
		{"With days", "P1DT2H", 93600},
		{"Invalid format", "invalid", 0},
		{"No time components", "PT", 0},
		{"Large hours", "PT1000H", 3600000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("ParseDuration(%s) = %d, want %d", tt.duration, result, tt.expected)
			}
		})
	}
}

const videoResponse = `{
  "items": [{
    "id": "dQw4w9WgXcQ",
    "snippet": {
      "title": "Never Gonna Give You Up",
      "description": "The official video",
      "channelTitle": "Rick Astley",
      "publishedAt": "2009-10-25T06:57:33Z",
      "thumbnails": {
        "default": {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg"},
        "medium": {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/mqdefault.jpg"}
      }
    },
    "statistics": {"viewCount": "1500000000", "likeCount": "17000000"},
    "contentDetails": {"duration": "PT3M33S"}
  }]
}`

// newAPIServer serves body with status for every request and counts hits.
func newAPIServer(t *testing.T, status int, body string) (*httptest.Server, *int32, url.Values) {
	t.Helper()
	var hits int32
	query := url.Values{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		for k, v := range r.URL.Query() {
			query[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits, query
}

func TestFetchVideo(t *testing.T) {
	srv, hits, query := newAPIServer(t, http.StatusOK, videoResponse)
	client := NewClient(srv.URL+"/", 5*time.Second)

	video, err := client.FetchVideo(context.Background(), "dQw4w9WgXcQ", "test-key")
	if err != nil {
		t.Fatalf("FetchVideo failed: %v", err)
	}

	if atomic.LoadInt32(hits) != 1 {
		t.Errorf("Expected exactly one request, got %d", atomic.LoadInt32(hits))
	}
	if got := query.Get("id"); got != "dQw4w9WgXcQ" {
		t.Errorf("id query = %q, want dQw4w9WgXcQ", got)
	}
	if got := strings.Join(query["part"], ","); got != "snippet,statistics,contentDetails" {
		t.Errorf("part query = %q", got)
	}

	if video.Title != "Never Gonna Give You Up" {
		t.Errorf("Title = %q", video.Title)
	}
	if video.ChannelTitle != "Rick Astley" {
		t.Errorf("ChannelTitle = %q", video.ChannelTitle)
	}
	if video.ThumbnailURL != "https://i.ytimg.com/vi/dQw4w9WgXcQ/mqdefault.jpg" {
		t.Errorf("ThumbnailURL = %q, want the medium thumbnail", video.ThumbnailURL)
	}
	if video.ViewCount != 1500000000 || video.LikeCount != 17000000 {
		t.Errorf("Counts = %d views, %d likes", video.ViewCount, video.LikeCount)
	}
	if video.CommentCount != 0 {
		t.Errorf("CommentCount = %d, want 0 when absent", video.CommentCount)
	}
	if video.DurationSeconds != 213 {
		t.Errorf("DurationSeconds = %d, want 213", video.DurationSeconds)
	}
	if !video.PublishedAt.Equal(time.Date(2009, 10, 25, 6, 57, 33, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v", video.PublishedAt)
	}
	if video.Source != models.SourceYouTube || video.IsFallback() {
		t.Errorf("Source = %s, want youtube", video.Source)
	}
}

func TestFetchVideoErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"ServerError", http.StatusInternalServerError, `{"error":{"code":500,"message":"backend error"}}`, models.ErrUpstreamFailure},
		{"Forbidden", http.StatusForbidden, `{"error":{"code":403,"message":"API key not valid"}}`, models.ErrUpstreamFailure},
		{"EmptyItems", http.StatusOK, `{"items":[]}`, models.ErrMalformedResponse},
		{"MismatchedID", http.StatusOK, `{"items":[{"id":"zzzzzzzzzzz","snippet":{"title":"x"}}]}`, models.ErrMalformedResponse},
		{"NoSnippet", http.StatusOK, `{"items":[{"id":"dQw4w9WgXcQ"}]}`, models.ErrMalformedResponse},
		{"NotJSON", http.StatusOK, `<html>`, models.ErrUpstreamFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _, _ := newAPIServer(t, tt.status, tt.body)
			client := NewClient(srv.URL+"/", 5*time.Second)

			_, err := client.FetchVideo(context.Background(), "dQw4w9WgXcQ", "test-key")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchVideo error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetcherMissingCredential(t *testing.T) {
	srv, hits, _ := newAPIServer(t, http.StatusOK, videoResponse)
	keys := credentials.NewStore(storage.NewMemoryStore(), "")
	fetcher := NewFetcher(NewClient(srv.URL+"/", time.Second), keys)

	result, err := fetcher.Fetch(context.Background(), "dQw4w9WgXcQ")
	if !errors.Is(err, models.ErrMissingCredential) {
		t.Fatalf("Fetch error = %v, want ErrMissingCredential", err)
	}
	if result != nil {
		t.Error("Expected no result without a credential")
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Errorf("Expected no network call, got %d", atomic.LoadInt32(hits))
	}
}

func TestFetcherFallsBackOnServerError(t *testing.T) {
	srv, hits, _ := newAPIServer(t, http.StatusInternalServerError, `{"error":{"code":500,"message":"boom"}}`)
	keys := credentials.NewStore(storage.NewMemoryStore(), "")
	if err := keys.Save(context.Background(), credentials.KindMetadata, "test-key"); err != nil {
		t.Fatalf("Failed to save key: %v", err)
	}
	fetcher := NewFetcher(NewClient(srv.URL+"/", time.Second), keys)

	result, err := fetcher.Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Errorf("Expected a single attempt, got %d", atomic.LoadInt32(hits))
	}

	video := result.Video
	if video.Title != "🎮 최신 게임 리뷰 - 완전 솔직 후기" {
		t.Errorf("Title = %q, want demo title", video.Title)
	}
	if video.DurationSeconds != 632 {
		t.Errorf("DurationSeconds = %d, want 632", video.DurationSeconds)
	}
	if !video.IsFallback() {
		t.Error("Expected demo record to be marked as fallback")
	}
	if !errors.Is(result.Err, models.ErrUpstreamFailure) {
		t.Errorf("FetchResult.Err = %v, want ErrUpstreamFailure", result.Err)
	}
}

type stubVideoFetcher struct {
	video  *models.VideoRecord
	err    error
	gotKey string
}

func (s *stubVideoFetcher) FetchVideo(_ context.Context, _ string, apiKey string) (*models.VideoRecord, error) {
	s.gotKey = apiKey
	return s.video, s.err
}

func TestFetcherSuccess(t *testing.T) {
	keys := credentials.NewStore(storage.NewMemoryStore(), "")
	if err := keys.Save(context.Background(), credentials.KindMetadata, "stored-key"); err != nil {
		t.Fatalf("Failed to save key: %v", err)
	}
	stub := &stubVideoFetcher{video: &models.VideoRecord{ID: "dQw4w9WgXcQ", Title: "Real", Source: models.SourceYouTube}}

	result, err := NewFetcher(stub, keys).Fetch(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if stub.gotKey != "stored-key" {
		t.Errorf("Client received key %q, want stored-key", stub.gotKey)
	}
	if result.Video.Title != "Real" || result.Err != nil {
		t.Errorf("Result = %+v, want the fetched record without error", result)
	}
}

func TestDemoVideo(t *testing.T) {
	video := DemoVideo("abcdefghijk")
	if video.ID != "abcdefghijk" {
		t.Errorf("ID = %q", video.ID)
	}
	if video.ViewCount != 125000 {
		t.Errorf("ViewCount = %d, want 125000", video.ViewCount)
	}
	if video.PublishedAt.Format(time.RFC3339) != "2024-09-19T10:00:00Z" {
		t.Errorf("PublishedAt = %v", video.PublishedAt)
	}
}
