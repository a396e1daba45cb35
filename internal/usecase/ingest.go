package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agentrag/internal/adapter/chunker"
	"agentrag/internal/adapter/extractor"
	"agentrag/internal/domain"
	"agentrag/internal/port"
)

// Ingestor runs document ingestion as background operations: extract,
// normalize, chunk, embed, then commit. A document becomes visible to
// retrieval only when its full chunk/vector set is published atomically;
// mutations for the same document serialize on a per-document lock, so an
// ingest racing a delete resolves to whichever committed last.
type Ingestor struct {
	store      port.Store
	index      port.VectorIndex
	embedder   port.Embedder
	extractors *extractor.Registry
	chunker    *chunker.WindowChunker
	logger     *zap.Logger

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

func NewIngestor(store port.Store, index port.VectorIndex, embedder port.Embedder, extractors *extractor.Registry, chk *chunker.WindowChunker, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		store:      store,
		index:      index,
		embedder:   embedder,
		extractors: extractors,
		chunker:    chk,
		logger:     logger,
		docLocks:   make(map[string]*sync.Mutex),
	}
}

// Handle tracks one background ingestion. Status arrives asynchronously:
// Wait blocks until the operation commits, fails, or is cancelled.
type Handle struct {
	DocumentID string
	TenantID   string

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	err    error
	chunks int
}

// Wait blocks until the ingestion finishes or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the terminal error, nil on success. Only meaningful after Wait.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Chunks returns the number of chunks committed.
func (h *Handle) Chunks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.chunks
}

// Cancel aborts the ingestion. If commit has not happened yet, no state
// changes anywhere.
func (h *Handle) Cancel() { h.cancel() }

func (h *Handle) finish(chunks int, err error) {
	h.mu.Lock()
	h.chunks = chunks
	h.err = err
	h.mu.Unlock()
	close(h.done)
}

// Submit starts ingesting one document. Unsupported formats fail
// synchronously; everything else is reported through the handle.
// Re-submitting an existing document name keeps its ID and atomically
// replaces its chunks.
func (g *Ingestor) Submit(tenant, name string, raw []byte, format string) (*Handle, error) {
	if !g.extractors.Supports(format) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}

	docID := ""
	if existing, found, err := g.store.FindDocumentByName(tenant, name); err != nil {
		return nil, fmt.Errorf("resolve document: %w", err)
	} else if found {
		docID = existing.ID
	} else {
		docID = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		DocumentID: docID,
		TenantID:   tenant,
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	go g.run(ctx, h, tenant, docID, name, raw, format)
	return h, nil
}

func (g *Ingestor) run(ctx context.Context, h *Handle, tenant, docID, name string, raw []byte, format string) {
	defer h.cancel()

	chunks, err := g.prepare(ctx, docID, name, raw, format)
	if err != nil {
		g.logger.Warn("ingestion failed",
			zap.String("tenant", tenant),
			zap.String("doc", name),
			zap.Error(err))
		h.finish(0, err)
		return
	}

	doc := domain.Document{
		ID:         docID,
		TenantID:   tenant,
		Name:       name,
		Format:     format,
		Size:       len(raw),
		UploadedAt: time.Now(),
	}
	if err := g.commit(ctx, doc, chunks); err != nil {
		h.finish(0, err)
		return
	}

	g.logger.Info("document ingested",
		zap.String("tenant", tenant),
		zap.String("doc", name),
		zap.Int("chunks", len(chunks)))
	h.finish(len(chunks), nil)
}

// prepare does all the work that needs no locks: extraction, chunking and
// embedding. Nothing is visible to queries yet.
func (g *Ingestor) prepare(ctx context.Context, docID, name string, raw []byte, format string) ([]ingestChunk, error) {
	text, err := g.extractors.Extract(raw, name, format)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	chunks := g.chunker.Chunk(docID, text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s: no extractable content", name)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := g.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	out := make([]ingestChunk, len(chunks))
	for i, c := range chunks {
		out[i] = ingestChunk{chunk: c, vector: vectors[i]}
	}
	return out, nil
}

type ingestChunk struct {
	chunk  domain.Chunk
	vector []float32
}

// commit publishes the prepared set. The per-document lock serializes
// against concurrent re-ingests and deletes of the same document; a cancel
// observed before commit leaves every store untouched.
func (g *Ingestor) commit(ctx context.Context, doc domain.Document, prepared []ingestChunk) error {
	lock := g.docLock(doc.TenantID + "/" + doc.ID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("ingestion cancelled before commit: %w", err)
	}

	chunks := make([]domain.Chunk, len(prepared))
	items := make([]port.VectorItem, len(prepared))
	for i, pc := range prepared {
		chunks[i] = pc.chunk
		items[i] = port.VectorItem{
			ChunkID:      pc.chunk.ID,
			DocID:        doc.ID,
			Vector:       pc.vector,
			ModelVersion: g.embedder.ModelVersion(),
		}
	}

	if err := g.store.PutDocument(doc); err != nil {
		return fmt.Errorf("store document: %w", err)
	}
	if err := g.store.ReplaceChunks(doc.TenantID, doc.ID, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	// Index publication comes last: the document is retrievable only once
	// its complete vector set is in place.
	if err := g.index.ReplaceDocument(doc.TenantID, doc.ID, items); err != nil {
		if delErr := g.index.DeleteDocument(doc.TenantID, doc.ID); delErr != nil {
			g.logger.Error("failed to clear vectors after partial publish",
				zap.String("tenant", doc.TenantID),
				zap.String("doc_id", doc.ID),
				zap.Error(delErr))
		}
		return fmt.Errorf("publish vectors: %w", err)
	}
	return nil
}

// DeleteDocument removes a document, its chunks and its vectors. Vectors go
// first so no query can surface a chunk the store no longer has.
func (g *Ingestor) DeleteDocument(tenant, docID string) error {
	lock := g.docLock(tenant + "/" + docID)
	lock.Lock()
	defer lock.Unlock()

	if err := g.index.DeleteDocument(tenant, docID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := g.store.DeleteDocument(tenant, docID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// DeleteTenant cascades over all of the tenant's data.
func (g *Ingestor) DeleteTenant(tenant string) error {
	if err := g.index.DeleteTenant(tenant); err != nil {
		return fmt.Errorf("delete tenant vectors: %w", err)
	}
	if err := g.store.DeleteTenant(tenant); err != nil {
		return fmt.Errorf("delete tenant data: %w", err)
	}
	return nil
}

func (g *Ingestor) docLock(key string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.docLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		g.docLocks[key] = lock
	}
	return lock
}
