package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"agentrag/internal/domain"
	"agentrag/internal/port"
)

// Registry dispatches extraction by format tag. Extraction is the only
// format-specific step; everything downstream operates on the normalized
// text stream.
type Registry struct {
	byFormat map[string]port.Extractor
}

func NewRegistry(extractors ...port.Extractor) *Registry {
	r := &Registry{byFormat: make(map[string]port.Extractor)}
	for _, e := range extractors {
		for _, f := range e.Formats() {
			r.byFormat[f] = e
		}
	}
	return r
}

// DefaultRegistry returns a registry with all built-in extractors.
func DefaultRegistry() *Registry {
	return NewRegistry(NewPlaintext(), NewMarkdown(), NewCSV())
}

// Extract normalizes raw bytes of the given format into a single text stream.
func (r *Registry) Extract(raw []byte, name, format string) (string, error) {
	e, ok := r.byFormat[format]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	return e.Extract(raw, name)
}

// Supports reports whether a format tag has an extractor.
func (r *Registry) Supports(format string) bool {
	_, ok := r.byFormat[format]
	return ok
}

// FormatForPath maps a file extension to a format tag, or "" if unsupported.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", ".log":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	default:
		return ""
	}
}
