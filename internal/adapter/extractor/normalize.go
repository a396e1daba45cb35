package extractor

import (
	"strconv"
	"strings"
)

// PageMarker renders an explicit page/sheet boundary marker for the
// normalized stream. Markers survive chunking so citations keep page context.
func PageMarker(label string, n int) string {
	return "\n\n[" + label + " " + strconv.Itoa(n) + "]\n\n"
}

// normalize collapses whitespace runs while keeping paragraph breaks: runs of
// spaces and tabs become a single space, runs of three or more newlines
// become a blank line.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))

	spaceRun := false
	newlineRun := 0
	for _, r := range text {
		switch {
		case r == '\n':
			newlineRun++
			spaceRun = false
		case r == ' ' || r == '\t':
			spaceRun = true
		default:
			if newlineRun > 0 {
				if newlineRun == 1 {
					b.WriteByte('\n')
				} else {
					b.WriteString("\n\n")
				}
				newlineRun = 0
			} else if spaceRun && b.Len() > 0 {
				b.WriteByte(' ')
			}
			spaceRun = false
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}
