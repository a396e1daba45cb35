package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Plaintext extracts UTF-8 text files. Form feeds are treated as page
// boundaries.
type Plaintext struct{}

func NewPlaintext() *Plaintext { return &Plaintext{} }

func (p *Plaintext) Formats() []string { return []string{"text/plain"} }

func (p *Plaintext) Extract(raw []byte, name string) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%s: not valid UTF-8 text", name)
	}

	text := string(raw)
	if !strings.ContainsRune(text, '\f') {
		return normalize(text), nil
	}

	pages := strings.Split(text, "\f")
	var b strings.Builder
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		if i > 0 {
			b.WriteString(PageMarker("page", i+1))
		}
		b.WriteString(page)
	}
	return normalize(b.String()), nil
}
