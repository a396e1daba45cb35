package port

// Extractor turns raw document bytes of one format into a single normalized
// text stream. Page and sheet boundaries are preserved as explicit markers in
// the stream; whitespace runs are collapsed.
type Extractor interface {
	// Formats lists the format tags this extractor accepts.
	Formats() []string

	Extract(raw []byte, name string) (string, error)
}
