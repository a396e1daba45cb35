package port

import "context"

// Embedder converts text into fixed-dimension vectors. Embedding the same
// text twice under the same model version yields identical vectors.
type Embedder interface {
	// Embed returns one vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelVersion identifies the embedding model; vectors from different
	// versions are never mixed in one index namespace.
	ModelVersion() string
}
