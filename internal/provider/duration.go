package provider

import (
	"regexp"
	"strconv"
)

var isoDurationRE = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISO8601Duration converts a PT#H#M#S token into whole seconds.
// Anything that does not match, including day components, yields 0.
func parseISO8601Duration(duration string) int {
	matches := isoDurationRE.FindStringSubmatch(duration)
	if matches == nil {
		return 0
	}

	total := 0
	for i, unit := range [...]int{3600, 60, 1} {
		if matches[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(matches[i+1])
		if err != nil {
			return 0
		}
		total += n * unit
	}
	return total
}
