package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

// videoURLPattern matches the watch (?v=), short (youtu.be/), embed, /v/, /e/,
// shorts and live URL shapes. The ID must be exactly 11 characters, so the
// character after it has to be a non-ID character or the end of input.
var videoURLPattern = regexp.MustCompile(
	`(?:youtube(?:-nocookie)?\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?|shorts|live)/|.*[?&]v=)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`,
)

// ExtractVideoID returns the 11-character video ID embedded in a share URL.
func ExtractVideoID(rawURL string) (string, bool) {
	matches := videoURLPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// IsValidURL reports whether rawURL contains a recognizable video ID.
func IsValidURL(rawURL string) bool {
	_, ok := ExtractVideoID(rawURL)
	return ok
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}
