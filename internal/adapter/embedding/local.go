package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"agentrag/internal/adapter/analyzer"
)

// LocalEmbedder produces deterministic hashed term-frequency vectors without
// any network dependency. Each term hashes to one dimension with a hash-derived
// sign; vectors are L2-normalized so inner product equals cosine similarity.
// It keeps the pipeline fully operational offline and gives tests a stable
// embedding function.
type LocalEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewLocalEmbedder(dimension int, tokenizer *analyzer.Tokenizer) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &LocalEmbedder{dimension: dimension, tokenizer: tokenizer}
}

func (e *LocalEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *LocalEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dimension)

	for _, token := range e.tokenizer.Tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()

		idx := int(sum % uint64(e.dimension))
		sign := float32(1)
		if sum&(1<<63) != 0 {
			sign = -1
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}

	return vec
}

func (e *LocalEmbedder) Dimension() int { return e.dimension }

func (e *LocalEmbedder) ModelVersion() string { return "hash-features-v1" }
