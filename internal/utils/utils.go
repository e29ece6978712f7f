package utils

import (
	"strings"
)

const cutMarker = "[...]"

// TrimStrToRect cuts s down to at most maxHeight lines of at most maxWidth
// bytes each, marking every cut with "[...]". The marker itself is never
// cut. Non-positive limits are treated as zero.
func TrimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return ""
	}
	maxHeight = max(maxHeight, 0)
	maxWidth = max(maxWidth, 0)

	lines := strings.Split(s, "\n")
	cutHeight := len(lines) > maxHeight
	if cutHeight {
		lines = lines[:maxHeight]
	}
	var res strings.Builder
	for i, line := range lines {
		if i > 0 {
			res.WriteByte('\n')
		}
		if len(line) > maxWidth {
			res.WriteString(line[:maxWidth] + cutMarker)
		} else {
			res.WriteString(line)
		}
	}
	if cutHeight {
		if len(lines) > 0 {
			res.WriteByte('\n')
		}
		res.WriteString(cutMarker)
	}
	return res.String()
}
