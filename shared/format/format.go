// Package format renders counts, timestamps and dates for Korean readers.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Count abbreviates large counts with Korean units: 억 (10^8), 만 (10^4)
// and 천 (10^3). Smaller values are printed as is.
func Count(n int64) string {
	switch {
	case n >= 100_000_000:
		return strconv.FormatInt(n/100_000_000, 10) + "억"
	case n >= 10_000:
		return strconv.FormatInt(n/10_000, 10) + "만"
	case n >= 1_000:
		return strconv.FormatInt(n/1_000, 10) + "천"
	}
	return strconv.FormatInt(n, 10)
}

// Timestamp formats seconds as m:ss. Minutes are not wrapped into hours.
func Timestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// RelativeDate describes how long ago t was, rounding partial days up.
func RelativeDate(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(diff.Hours() / 24))

	switch {
	case days == 0:
		return "오늘"
	case days < 7:
		return fmt.Sprintf("%d일 전", days)
	case days < 30:
		return fmt.Sprintf("%d주 전", days/7)
	case days < 365:
		return fmt.Sprintf("%d개월 전", days/30)
	}
	return fmt.Sprintf("%d년 전", days/365)
}
