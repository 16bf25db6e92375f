package youtube

import (
	"regexp"
	"strconv"
	"strings"
)

// ISO 8601 duration as emitted by the Data API (e.g. "PT1M30S", "PT2H15M30S").
// Videos longer than a day come back with a day component ("P1DT2H3M").
var durationPattern = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration converts a compact duration token into total seconds.
// Absent components count as zero and malformed input yields 0.
func ParseDuration(duration string) int {
	matches := durationPattern.FindStringSubmatch(strings.TrimSpace(duration))
	if len(matches) == 0 {
		return 0
	}

	var totalSeconds int
	for i, unit := range []int{86400, 3600, 60, 1} {
		component := matches[i+1]
		if component == "" {
			continue
		}
		if n, err := strconv.Atoi(component); err == nil {
			totalSeconds += n * unit
		}
	}

	return totalSeconds
}
