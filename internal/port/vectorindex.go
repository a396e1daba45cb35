package port

// VectorItem is a chunk embedding to be stored in a tenant namespace.
type VectorItem struct {
	ChunkID      string
	DocID        string
	Vector       []float32
	ModelVersion string
}

// VectorResult is a nearest-neighbor match.
type VectorResult struct {
	ChunkID string
	DocID   string
	Score   float64
}

// VectorIndex stores chunk embeddings partitioned by tenant namespace.
// Isolation is structural: a search against one tenant can only ever scan
// that tenant's partition. A writer's own upserts are visible to its own
// subsequent searches.
type VectorIndex interface {
	// Upsert adds or updates vectors in the tenant's namespace.
	Upsert(tenant string, items []VectorItem) error

	// ReplaceDocument atomically swaps all vectors for one document: queries
	// observe either the old set or the new set, never a mix. An empty items
	// slice removes the document's vectors.
	ReplaceDocument(tenant, docID string, items []VectorItem) error

	// Delete removes vectors by chunk ID.
	Delete(tenant string, chunkIDs []string) error

	// DeleteDocument removes all vectors belonging to a document.
	DeleteDocument(tenant, docID string) error

	// Search returns the k nearest vectors by descending cosine similarity.
	Search(tenant string, query []float32, k int) ([]VectorResult, error)

	// Count returns the number of vectors in the tenant's namespace.
	Count(tenant string) (int, error)

	// DeleteTenant removes a tenant's entire namespace.
	DeleteTenant(tenant string) error
}
