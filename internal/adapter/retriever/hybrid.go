package retriever

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"agentrag/internal/adapter/analyzer"
	"agentrag/internal/domain"
	"agentrag/internal/port"
)

// HybridRetriever blends vector similarity with lexical term overlap:
// score = alpha*semantic + (1-alpha)*lexical. Candidates come from the tenant
// vector index (top-N, N = multiplier*k); ties break by document upload
// recency (most recent first), then chunk offset ascending, so repeated
// queries over an unchanged corpus return identical orderings.
type HybridRetriever struct {
	index      port.VectorIndex
	embedder   port.Embedder
	store      port.Store
	tokenizer  *analyzer.Tokenizer
	reranker   port.Reranker // optional secondary pass
	alpha      float64
	multiplier int
	logger     *zap.Logger
}

type Options struct {
	Reranker            port.Reranker
	SemanticWeight      float64
	CandidateMultiplier int
	Logger              *zap.Logger
}

func NewHybridRetriever(index port.VectorIndex, embedder port.Embedder, store port.Store, tokenizer *analyzer.Tokenizer, opts Options) *HybridRetriever {
	alpha := opts.SemanticWeight
	if alpha <= 0 || alpha > 1 {
		alpha = 0.7
	}
	multiplier := opts.CandidateMultiplier
	if multiplier < 1 {
		multiplier = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HybridRetriever{
		index:      index,
		embedder:   embedder,
		store:      store,
		tokenizer:  tokenizer,
		reranker:   opts.Reranker,
		alpha:      alpha,
		multiplier: multiplier,
		logger:     logger,
	}
}

// Retrieve returns the top-k chunks for the query within one tenant. An
// empty corpus yields (nil, nil): a valid zero-result state, not a failure.
func (r *HybridRetriever) Retrieve(ctx context.Context, tenant, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}

	count, err := r.index.Count(tenant)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	candidates, err := r.index.Search(tenant, vectors[0], k*r.multiplier)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	queryTerms := r.tokenizer.TermSet(query)
	docCache := make(map[string]domain.Document)

	scored := make([]domain.ScoredChunk, 0, len(candidates))
	for _, cand := range candidates {
		chunk, err := r.store.GetChunk(tenant, cand.ChunkID)
		if err != nil {
			r.logger.Warn("candidate chunk missing from store",
				zap.String("tenant", tenant),
				zap.String("chunk_id", cand.ChunkID))
			continue
		}

		doc, ok := docCache[chunk.DocID]
		if !ok {
			doc, err = r.store.GetDocument(tenant, chunk.DocID)
			if err != nil {
				continue
			}
			docCache[chunk.DocID] = doc
		}

		lexical := lexicalOverlap(queryTerms, chunk.Tokens)
		scored = append(scored, domain.ScoredChunk{
			Chunk:    chunk,
			Doc:      doc,
			Semantic: cand.Score,
			Lexical:  lexical,
			Score:    r.alpha*cand.Score + (1-r.alpha)*lexical,
		})
	}

	sortScored(scored)

	if r.reranker != nil && len(scored) > 0 {
		scored = r.rerank(query, scored)
	}

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// rerank replaces the blended score with the reranker's relevance score and
// re-sorts under the same tie-break rules. On reranker failure the original
// ordering stands.
func (r *HybridRetriever) rerank(query string, scored []domain.ScoredChunk) []domain.ScoredChunk {
	texts := make([]string, len(scored))
	for i, sc := range scored {
		texts[i] = sc.Chunk.Text
	}

	reranked, err := r.reranker.Rerank(query, texts)
	if err != nil {
		r.logger.Warn("rerank failed, keeping blended order", zap.Error(err))
		return scored
	}

	for _, res := range reranked {
		if res.Index >= 0 && res.Index < len(scored) {
			scored[res.Index].Score = res.Score
		}
	}
	sortScored(scored)
	return scored
}

// sortScored orders by score descending, then document recency descending,
// then chunk offset ascending, then chunk ID.
func sortScored(scored []domain.ScoredChunk) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Doc.UploadedAt.Equal(b.Doc.UploadedAt) {
			return a.Doc.UploadedAt.After(b.Doc.UploadedAt)
		}
		if a.Chunk.Start != b.Chunk.Start {
			return a.Chunk.Start < b.Chunk.Start
		}
		return a.Chunk.ID < b.Chunk.ID
	})
}
