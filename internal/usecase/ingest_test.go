package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrag/internal/adapter/analyzer"
	"agentrag/internal/adapter/chunker"
	"agentrag/internal/adapter/embedding"
	"agentrag/internal/adapter/extractor"
	"agentrag/internal/adapter/store"
	"agentrag/internal/adapter/vectorindex"
	"agentrag/internal/domain"
)

type ingestFixture struct {
	store    *store.BoltStore
	index    *vectorindex.TenantIndex
	ingestor *Ingestor
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	s, err := store.NewBoltStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	tok := analyzer.NewTokenizer()
	emb := embedding.NewLocalEmbedder(64, tok)
	idx := vectorindex.NewMemory(64, nil)
	chk := chunker.NewWindowChunker(100, 20, tok)

	return &ingestFixture{
		store:    s,
		index:    idx,
		ingestor: NewIngestor(s, idx, emb, extractor.DefaultRegistry(), chk, nil),
	}
}

func ingestText(t *testing.T, f *ingestFixture, tenant, name, text string) *Handle {
	t.Helper()
	h, err := f.ingestor.Submit(tenant, name, []byte(text), "text/plain")
	require.NoError(t, err)
	require.NoError(t, h.Wait(context.Background()))
	return h
}

func TestIngestMakesDocumentRetrievable(t *testing.T) {
	f := newIngestFixture(t)

	h := ingestText(t, f, "acme", "notes.txt", strings.Repeat("refund policy text ", 20))
	assert.Greater(t, h.Chunks(), 1)

	doc, err := f.store.GetDocument("acme", h.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", doc.Name)

	chunks, err := f.store.GetChunksByDocument("acme", h.DocumentID)
	require.NoError(t, err)
	assert.Len(t, chunks, h.Chunks())

	vectors, err := f.index.Count("acme")
	require.NoError(t, err)
	assert.Equal(t, h.Chunks(), vectors)
}

func TestIngestUnsupportedFormatFailsSynchronously(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.ingestor.Submit("acme", "image.png", []byte{0x89}, "image/png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
}

func TestReingestReplacesChunks(t *testing.T) {
	f := newIngestFixture(t)

	first := ingestText(t, f, "acme", "notes.txt", strings.Repeat("old content here ", 30))
	second := ingestText(t, f, "acme", "notes.txt", "new content")

	// Same name keeps the same document ID.
	assert.Equal(t, first.DocumentID, second.DocumentID)

	docs, err := f.store.ListDocuments("acme")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	chunks, err := f.store.GetChunksByDocument("acme", second.DocumentID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "new content", chunks[0].Text)

	// No stale vectors survive the replace.
	vectors, err := f.index.Count("acme")
	require.NoError(t, err)
	assert.Equal(t, 1, vectors)
}

func TestIngestCancelBeforeCommitLeavesNothing(t *testing.T) {
	f := newIngestFixture(t)

	h, err := f.ingestor.Submit("acme", "notes.txt", []byte("some content"), "text/plain")
	require.NoError(t, err)
	h.Cancel()
	err = h.Wait(context.Background())

	if err != nil {
		// The cancel raced ahead of the commit: nothing may be visible.
		_, gerr := f.store.GetDocument("acme", h.DocumentID)
		assert.True(t, errors.Is(gerr, domain.ErrDocumentNotFound))
		vectors, cerr := f.index.Count("acme")
		require.NoError(t, cerr)
		assert.Zero(t, vectors)
	} else {
		// The commit won the race: the document must be fully visible.
		_, gerr := f.store.GetDocument("acme", h.DocumentID)
		assert.NoError(t, gerr)
	}
}

func TestIngestEmptyDocumentFails(t *testing.T) {
	f := newIngestFixture(t)

	h, err := f.ingestor.Submit("acme", "empty.txt", []byte("   \n\n  "), "text/plain")
	require.NoError(t, err)
	assert.Error(t, h.Wait(context.Background()))
}

func TestDeleteDocumentCascades(t *testing.T) {
	f := newIngestFixture(t)

	h := ingestText(t, f, "acme", "notes.txt", strings.Repeat("text to delete ", 20))
	require.NoError(t, f.ingestor.DeleteDocument("acme", h.DocumentID))

	_, err := f.store.GetDocument("acme", h.DocumentID)
	assert.True(t, errors.Is(err, domain.ErrDocumentNotFound))

	vectors, err := f.index.Count("acme")
	require.NoError(t, err)
	assert.Zero(t, vectors)
}

func TestDeleteTenantCascades(t *testing.T) {
	f := newIngestFixture(t)

	ingestText(t, f, "acme", "a.txt", strings.Repeat("tenant a data ", 20))
	ingestText(t, f, "globex", "b.txt", strings.Repeat("tenant b data ", 20))

	require.NoError(t, f.ingestor.DeleteTenant("acme"))

	stats, err := f.store.TenantStats("acme")
	require.NoError(t, err)
	assert.Zero(t, stats.Documents)
	vectors, err := f.index.Count("acme")
	require.NoError(t, err)
	assert.Zero(t, vectors)

	// The other tenant is untouched.
	stats, err = f.store.TenantStats("globex")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Documents)
}

func TestConcurrentIngestsDifferentDocs(t *testing.T) {
	f := newIngestFixture(t)

	handles := make([]*Handle, 0, 5)
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		h, err := f.ingestor.Submit("acme", name, []byte(strings.Repeat(name+" content ", 15)), "text/plain")
		require.NoError(t, err)
		handles = append(handles, h)
	}
	for _, h := range handles {
		require.NoError(t, h.Wait(context.Background()))
	}

	docs, err := f.store.ListDocuments("acme")
	require.NoError(t, err)
	assert.Len(t, docs, 5)
}
