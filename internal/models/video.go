package models

import "time"

// Source records where a VideoRecord came from.
type Source string

const (
	SourceYouTube Source = "youtube"
	SourceDemo    Source = "demo"
)

// VideoRecord is the normalized metadata of one video.
type VideoRecord struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	CommentCount    int64     `json:"comment_count"`
	PublishedAt     time.Time `json:"published_at"`
	Duration        string    `json:"duration"`
	DurationSeconds int       `json:"duration_seconds"`
	ChannelTitle    string    `json:"channel_title"`
	Description     string    `json:"description"`
	URL             string    `json:"url"`
	Source          Source    `json:"source"`
}

// IsFallback reports whether the record is demo content rather than API data.
func (v *VideoRecord) IsFallback() bool {
	return v.Source == SourceDemo
}

// ReportSource records which generator produced a RetentionReport.
type ReportSource string

const (
	ReportSourceGemini ReportSource = "gemini"
	ReportSourceOpenAI ReportSource = "openai"
	ReportSourceMock   ReportSource = "mock"
)

type DropPoint struct {
	TimeSeconds int    `json:"time"`
	Percentage  int    `json:"percentage"`
	Reason      string `json:"reason"`
}

type Improvement struct {
	TimeSeconds int    `json:"time"`
	Suggestion  string `json:"suggestion"`
}

// RetentionReport is the output of the analysis stage.
type RetentionReport struct {
	DropPoints   []DropPoint   `json:"dropPoints"`
	Improvements []Improvement `json:"improvements"`
	OverallScore int           `json:"overallScore"` // 1-100
	Summary      string        `json:"summary"`
	Source       ReportSource  `json:"source"`
}

// DigestEntry pairs a video with its report for the watch-mode email digest.
type DigestEntry struct {
	Video  *VideoRecord     `json:"video"`
	Report *RetentionReport `json:"report"`
}

type DigestReport struct {
	Date    time.Time      `json:"date"`
	Entries []*DigestEntry `json:"entries"`
	Total   int            `json:"total"`
	Failed  int            `json:"failed"`
}
