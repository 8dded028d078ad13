package lecture

import (
	"fmt"
	"math"
	"strings"
)

// BuildContext renders the segments into a flat text block. Per segment: a
// timestamp header, the slide text and the speech text - each block only when
// its trimmed content is non-empty.
func BuildContext(segments []Segment) string {
	var b strings.Builder
	b.WriteString("LECTURE CONTENT:\n\n")

	for _, seg := range segments {
		b.WriteString(fmt.Sprintf("--- Timestamp: %s ---\n", FormatTimestamp(seg.Timestamp)))

		if strings.TrimSpace(seg.SlideText) != "" {
			b.WriteString(fmt.Sprintf("SLIDE CONTENT:\n%s\n\n", seg.SlideText))
		}

		if strings.TrimSpace(seg.SpeechText) != "" {
			b.WriteString(fmt.Sprintf("PROFESSOR SAID:\n%s\n\n", seg.SpeechText))
		}

		b.WriteString("\n")
	}

	return b.String()
}

// FormatTimestamp renders seconds as M:SS. Minutes are unbounded - long
// lectures roll past 60 minutes without an hour component.
func FormatTimestamp(seconds float64) string {
	mins := int(math.Floor(seconds / 60))
	secs := int(math.Floor(math.Mod(seconds, 60)))
	return fmt.Sprintf("%d:%02d", mins, secs)
}
