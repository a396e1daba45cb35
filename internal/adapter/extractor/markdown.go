package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	mdCodeFence = regexp.MustCompile("(?s)```.*?```")
	mdLink      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdImage     = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdHeading   = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	mdEmphasis  = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
)

// Markdown strips markup down to the readable text. Code fences are kept
// verbatim minus the fence lines; headings, links and emphasis lose their
// syntax but keep their text.
type Markdown struct{}

func NewMarkdown() *Markdown { return &Markdown{} }

func (m *Markdown) Formats() []string { return []string{"text/markdown"} }

func (m *Markdown) Extract(raw []byte, name string) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%s: not valid UTF-8 text", name)
	}

	text := string(raw)
	text = mdCodeFence.ReplaceAllStringFunc(text, func(block string) string {
		block = strings.TrimPrefix(block, "```")
		block = strings.TrimSuffix(block, "```")
		if idx := strings.IndexByte(block, '\n'); idx >= 0 {
			block = block[idx+1:]
		}
		return block
	})
	text = mdImage.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdEmphasis.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "`", "")

	return normalize(text), nil
}
