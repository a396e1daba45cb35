package port

import "agentrag/internal/domain"

// Store persists documents, chunks and conversations, all scoped by tenant.
type Store interface {
	PutDocument(doc domain.Document) error

	GetDocument(tenant, id string) (domain.Document, error)

	// FindDocumentByName resolves a document by its upload name; used so
	// re-uploads replace rather than duplicate.
	FindDocumentByName(tenant, name string) (domain.Document, bool, error)

	ListDocuments(tenant string) ([]domain.Document, error)

	DeleteDocument(tenant, id string) error

	// ReplaceChunks atomically replaces all chunks for a document.
	ReplaceChunks(tenant, docID string, chunks []domain.Chunk) error

	GetChunk(tenant, id string) (domain.Chunk, error)

	GetChunksByDocument(tenant, docID string) ([]domain.Chunk, error)

	DeleteChunksByDocument(tenant, docID string) error

	PutConversation(conv domain.Conversation) error

	GetConversation(tenant, id string) (domain.Conversation, error)

	TenantStats(tenant string) (domain.TenantStats, error)

	// DeleteTenant removes all of a tenant's documents, chunks and
	// conversations.
	DeleteTenant(tenant string) error

	Close() error
}
