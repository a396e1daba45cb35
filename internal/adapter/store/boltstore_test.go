package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentrag/internal/domain"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testDoc(tenant, id, name string) domain.Document {
	return domain.Document{
		ID:         id,
		TenantID:   tenant,
		Name:       name,
		Format:     "text/plain",
		Size:       42,
		UploadedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestDocumentRoundtrip(t *testing.T) {
	s := newTestStore(t)

	doc := testDoc("acme", "d1", "notes.txt")
	require.NoError(t, s.PutDocument(doc))

	got, err := s.GetDocument("acme", "d1")
	require.NoError(t, err)
	assert.Equal(t, doc.Name, got.Name)
	assert.Equal(t, doc.Format, got.Format)
	assert.True(t, doc.UploadedAt.Equal(got.UploadedAt))

	_, err = s.GetDocument("acme", "missing")
	assert.True(t, errors.Is(err, domain.ErrDocumentNotFound))

	// Documents are invisible to other tenants.
	_, err = s.GetDocument("globex", "d1")
	assert.True(t, errors.Is(err, domain.ErrDocumentNotFound))
}

func TestFindDocumentByName(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutDocument(testDoc("acme", "d1", "notes.txt")))

	doc, found, err := s.FindDocumentByName("acme", "notes.txt")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "d1", doc.ID)

	_, found, err = s.FindDocumentByName("acme", "other.txt")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = s.FindDocumentByName("globex", "notes.txt")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReplaceChunks(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.PutDocument(testDoc("acme", "d1", "notes.txt")))

	first := []domain.Chunk{
		{ID: "c1", DocID: "d1", Seq: 0, Start: 0, End: 10, Text: "first part"},
		{ID: "c2", DocID: "d1", Seq: 1, Start: 8, End: 18, Text: "rt second"},
	}
	require.NoError(t, s.ReplaceChunks("acme", "d1", first))

	chunks, err := s.GetChunksByDocument("acme", "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "c1", chunks[0].ID)
	assert.Equal(t, "c2", chunks[1].ID)

	second := []domain.Chunk{
		{ID: "c3", DocID: "d1", Seq: 0, Start: 0, End: 12, Text: "rewritten"},
	}
	require.NoError(t, s.ReplaceChunks("acme", "d1", second))

	chunks, err = s.GetChunksByDocument("acme", "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "c3", chunks[0].ID)

	_, err = s.GetChunk("acme", "c1")
	assert.True(t, errors.Is(err, domain.ErrChunkNotFound))
}

func TestListDocumentsOrdered(t *testing.T) {
	s := newTestStore(t)

	older := testDoc("acme", "d1", "a.txt")
	older.UploadedAt = time.Now().Add(-time.Hour)
	newer := testDoc("acme", "d2", "b.txt")

	require.NoError(t, s.PutDocument(newer))
	require.NoError(t, s.PutDocument(older))

	docs, err := s.ListDocuments("acme")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "d2", docs[1].ID)
}

func TestDeleteDocumentCascades(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutDocument(testDoc("acme", "d1", "notes.txt")))
	require.NoError(t, s.ReplaceChunks("acme", "d1", []domain.Chunk{
		{ID: "c1", DocID: "d1", Text: "text"},
	}))

	require.NoError(t, s.DeleteDocument("acme", "d1"))
	require.NoError(t, s.DeleteChunksByDocument("acme", "d1"))

	_, err := s.GetDocument("acme", "d1")
	assert.True(t, errors.Is(err, domain.ErrDocumentNotFound))
	_, err = s.GetChunk("acme", "c1")
	assert.True(t, errors.Is(err, domain.ErrChunkNotFound))
}

func TestConversationRoundtrip(t *testing.T) {
	s := newTestStore(t)

	conv := domain.Conversation{
		ID:       "conv1",
		TenantID: "acme",
		Turns: []domain.Turn{
			{UserMessage: "hello", Agent: "general", Response: "hi"},
		},
	}
	require.NoError(t, s.PutConversation(conv))

	got, err := s.GetConversation("acme", "conv1")
	require.NoError(t, err)
	require.Len(t, got.Turns, 1)
	assert.Equal(t, "general", got.LastAgent())

	_, err = s.GetConversation("acme", "missing")
	assert.True(t, errors.Is(err, domain.ErrConversationNotFound))

	_, err = s.GetConversation("globex", "conv1")
	assert.True(t, errors.Is(err, domain.ErrConversationNotFound))
}

func TestTenantStats(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutDocument(testDoc("acme", "d1", "b.txt")))
	require.NoError(t, s.PutDocument(testDoc("acme", "d2", "a.txt")))
	require.NoError(t, s.ReplaceChunks("acme", "d1", []domain.Chunk{
		{ID: "c1", DocID: "d1"}, {ID: "c2", DocID: "d1"},
	}))
	require.NoError(t, s.PutConversation(domain.Conversation{ID: "conv1", TenantID: "acme"}))

	stats, err := s.TenantStats("acme")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Chunks)
	assert.Equal(t, 1, stats.Conversations)
	assert.Equal(t, []string{"a.txt", "b.txt"}, stats.Files)

	empty, err := s.TenantStats("globex")
	require.NoError(t, err)
	assert.Zero(t, empty.Documents)
}

func TestDeleteTenant(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutDocument(testDoc("acme", "d1", "notes.txt")))
	require.NoError(t, s.PutDocument(testDoc("globex", "d2", "other.txt")))

	require.NoError(t, s.DeleteTenant("acme"))

	stats, err := s.TenantStats("acme")
	require.NoError(t, err)
	assert.Zero(t, stats.Documents)

	// Other tenants keep their data.
	_, err = s.GetDocument("globex", "d2")
	require.NoError(t, err)
}
