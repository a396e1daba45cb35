package port

import (
	"context"

	"agentrag/internal/domain"
)

// Retriever returns the top-k most relevant chunks for a query within one
// tenant's corpus. A tenant with no indexed content yields an empty result,
// not an error.
type Retriever interface {
	Retrieve(ctx context.Context, tenant, query string, k int) ([]domain.ScoredChunk, error)
}

// RerankedResult is a relevance score for one candidate, by original index.
type RerankedResult struct {
	Index int
	Score float64
}

// Reranker applies a secondary relevance pass over retrieval candidates.
type Reranker interface {
	Rerank(query string, texts []string) ([]RerankedResult, error)

	Name() string
}
