package retriever

import (
	"sort"

	"agentrag/internal/adapter/analyzer"
	"agentrag/internal/port"
)

// TermOverlapReranker is a lightweight relevance cross-check over retrieval
// candidates: it rescores each text by distinct query-term overlap. Stable
// for identical inputs, so enabling it keeps repeated queries deterministic.
type TermOverlapReranker struct {
	tokenizer *analyzer.Tokenizer
}

func NewTermOverlapReranker(tokenizer *analyzer.Tokenizer) *TermOverlapReranker {
	return &TermOverlapReranker{tokenizer: tokenizer}
}

func (r *TermOverlapReranker) Rerank(query string, texts []string) ([]port.RerankedResult, error) {
	queryTerms := r.tokenizer.TermSet(query)

	results := make([]port.RerankedResult, len(texts))
	for i, text := range texts {
		results[i] = port.RerankedResult{
			Index: i,
			Score: lexicalOverlap(queryTerms, r.tokenizer.Tokenize(text)),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})

	return results, nil
}

func (r *TermOverlapReranker) Name() string { return "term-overlap" }
