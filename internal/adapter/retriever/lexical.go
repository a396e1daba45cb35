package retriever

// lexicalOverlap scores how much of the query's term set appears in the chunk
// terms, in [0,1]. Chunk tokens are precomputed at ingestion with the same
// tokenizer the query goes through.
func lexicalOverlap(queryTerms map[string]struct{}, chunkTokens []string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(chunkTokens))
	matches := 0
	for _, tok := range chunkTokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := queryTerms[tok]; ok {
			matches++
		}
	}

	return float64(matches) / float64(len(queryTerms))
}
