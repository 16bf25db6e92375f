package retention

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"retention-analyzer/shared/format"
)

// RenderText writes the human-readable report shown by the analyze command.
func RenderText(w io.Writer, res *Result, now time.Time) error {
	var b strings.Builder
	video := res.Video
	report := res.Report

	fmt.Fprintf(&b, "📊 분석 결과\n\n")
	fmt.Fprintf(&b, "%s\n", video.Title)
	if video.ChannelTitle != "" {
		fmt.Fprintf(&b, "채널: %s\n", video.ChannelTitle)
	}
	fmt.Fprintf(&b, "조회수: %s회 · %s\n", format.Count(video.ViewCount), format.RelativeDate(video.PublishedAt, now))
	if video.LikeCount > 0 {
		fmt.Fprintf(&b, "좋아요: %s개\n", format.Count(video.LikeCount))
	} else {
		fmt.Fprintf(&b, "좋아요: N/A\n")
	}
	fmt.Fprintf(&b, "길이: %s\n", format.Timestamp(video.DurationSeconds))
	fmt.Fprintf(&b, "URL: %s\n\n", video.URL)

	fmt.Fprintf(&b, "전체 점수: %d점\n\n", report.OverallScore)

	fmt.Fprintf(&b, "🚨 주요 이탈 지점\n")
	if len(report.DropPoints) == 0 {
		fmt.Fprintf(&b, "  (없음)\n")
	}
	for _, p := range report.DropPoints {
		fmt.Fprintf(&b, "  %6s  %d%% 이탈  %s\n", format.Timestamp(p.TimeSeconds), p.Percentage, p.Reason)
	}

	fmt.Fprintf(&b, "\n💡 개선 방안\n")
	if len(report.Improvements) == 0 {
		fmt.Fprintf(&b, "  (없음)\n")
	}
	for _, imp := range report.Improvements {
		fmt.Fprintf(&b, "  %6s  %s\n", format.Timestamp(imp.TimeSeconds), imp.Suggestion)
	}

	fmt.Fprintf(&b, "\n📝 분석 요약\n  %s\n", report.Summary)

	if len(res.Warnings) > 0 {
		fmt.Fprintf(&b, "\n")
		for _, warning := range res.Warnings {
			fmt.Fprintf(&b, "⚠️  %s\n", warning)
		}
	}
	fmt.Fprintf(&b, "\n(run %s, source: %s/%s, took %v)\n", res.RunID, video.Source, report.Source, res.Duration.Round(time.Millisecond))

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes res as indented JSON.
func RenderJSON(w io.Writer, res *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(res)
}
