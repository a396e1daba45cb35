package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"agentrag/internal/domain"
)

var (
	bucketDocs          = []byte("docs")
	bucketChunks        = []byte("chunks")
	bucketDocChunks     = []byte("doc_chunks")
	bucketConversations = []byte("conversations")
)

// tenantBuckets are created inside each tenant's bucket on first write.
var tenantBuckets = [][]byte{bucketDocs, bucketChunks, bucketDocChunks, bucketConversations}

// BoltStore persists documents, chunks and conversations in bbolt. Each
// tenant owns a nested bucket tree, so reads for one tenant cannot touch
// another tenant's keys.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error { return s.db.Close() }

type docMeta struct {
	Name       string `json:"name"`
	Format     string `json:"format"`
	Size       int    `json:"size"`
	UploadedAt int64  `json:"uploaded_at"`
}

type chunkMeta struct {
	DocID  string   `json:"doc_id"`
	Seq    int      `json:"seq"`
	Start  int      `json:"start"`
	End    int      `json:"end"`
	Text   string   `json:"text"`
	Tokens []string `json:"tokens"`
}

func tenantBucket(tx *bbolt.Tx, tenant string, name []byte) *bbolt.Bucket {
	tb := tx.Bucket([]byte(tenant))
	if tb == nil {
		return nil
	}
	return tb.Bucket(name)
}

func ensureTenant(tx *bbolt.Tx, tenant string) (*bbolt.Bucket, error) {
	tb, err := tx.CreateBucketIfNotExists([]byte(tenant))
	if err != nil {
		return nil, err
	}
	for _, name := range tenantBuckets {
		if _, err := tb.CreateBucketIfNotExists(name); err != nil {
			return nil, err
		}
	}
	return tb, nil
}

func (s *BoltStore) PutDocument(doc domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		tb, err := ensureTenant(tx, doc.TenantID)
		if err != nil {
			return err
		}
		meta := docMeta{
			Name:       doc.Name,
			Format:     doc.Format,
			Size:       doc.Size,
			UploadedAt: doc.UploadedAt.UnixNano(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tb.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

func (s *BoltStore) GetDocument(tenant, id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tenantBucket(tx, tenant, bucketDocs)
		if b == nil {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = decodeDoc(tenant, id, meta)
		return nil
	})
	return doc, err
}

func (s *BoltStore) FindDocumentByName(tenant, name string) (domain.Document, bool, error) {
	var doc domain.Document
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tenantBucket(tx, tenant, bucketDocs)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			if meta.Name == name {
				doc = decodeDoc(tenant, string(k), meta)
				found = true
			}
			return nil
		})
	})
	return doc, found, err
}

func (s *BoltStore) ListDocuments(tenant string) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tenantBucket(tx, tenant, bucketDocs)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, decodeDoc(tenant, string(k), meta))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.Before(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (s *BoltStore) DeleteDocument(tenant, id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tenantBucket(tx, tenant, bucketDocs)
		if b == nil {
			return nil
		}
		if err := b.Delete([]byte(id)); err != nil {
			return err
		}
		return deleteChunksTx(tx, tenant, id)
	})
}

// ReplaceChunks swaps all chunks for a document in one transaction.
func (s *BoltStore) ReplaceChunks(tenant, docID string, chunks []domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := ensureTenant(tx, tenant); err != nil {
			return err
		}
		if err := deleteChunksTx(tx, tenant, docID); err != nil {
			return err
		}

		cb := tenantBucket(tx, tenant, bucketChunks)
		ids := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			meta := chunkMeta{
				DocID:  chunk.DocID,
				Seq:    chunk.Seq,
				Start:  chunk.Start,
				End:    chunk.End,
				Text:   chunk.Text,
				Tokens: chunk.Tokens,
			}
			data, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := cb.Put([]byte(chunk.ID), data); err != nil {
				return err
			}
			ids = append(ids, chunk.ID)
		}

		idsData, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return tenantBucket(tx, tenant, bucketDocChunks).Put([]byte(docID), idsData)
	})
}

func (s *BoltStore) GetChunk(tenant, id string) (domain.Chunk, error) {
	var chunk domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tenantBucket(tx, tenant, bucketChunks)
		if b == nil {
			return fmt.Errorf("%w: %s", domain.ErrChunkNotFound, id)
		}
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrChunkNotFound, id)
		}
		var meta chunkMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		chunk = decodeChunk(id, meta)
		return nil
	})
	return chunk, err
}

func (s *BoltStore) GetChunksByDocument(tenant, docID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		dc := tenantBucket(tx, tenant, bucketDocChunks)
		if dc == nil {
			return nil
		}
		idsData := dc.Get([]byte(docID))
		if idsData == nil {
			return nil
		}
		var ids []string
		if err := json.Unmarshal(idsData, &ids); err != nil {
			return err
		}

		cb := tenantBucket(tx, tenant, bucketChunks)
		for _, id := range ids {
			data := cb.Get([]byte(id))
			if data == nil {
				continue
			}
			var meta chunkMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				return err
			}
			chunks = append(chunks, decodeChunk(id, meta))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Seq < chunks[j].Seq })
	return chunks, nil
}

func (s *BoltStore) DeleteChunksByDocument(tenant, docID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteChunksTx(tx, tenant, docID)
	})
}

func deleteChunksTx(tx *bbolt.Tx, tenant, docID string) error {
	dc := tenantBucket(tx, tenant, bucketDocChunks)
	if dc == nil {
		return nil
	}
	idsData := dc.Get([]byte(docID))
	if idsData == nil {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(idsData, &ids); err != nil {
		return err
	}

	cb := tenantBucket(tx, tenant, bucketChunks)
	for _, id := range ids {
		if err := cb.Delete([]byte(id)); err != nil {
			return err
		}
	}
	return dc.Delete([]byte(docID))
}

func (s *BoltStore) PutConversation(conv domain.Conversation) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := ensureTenant(tx, conv.TenantID); err != nil {
			return err
		}
		data, err := json.Marshal(conv.Turns)
		if err != nil {
			return err
		}
		return tenantBucket(tx, conv.TenantID, bucketConversations).Put([]byte(conv.ID), data)
	})
}

func (s *BoltStore) GetConversation(tenant, id string) (domain.Conversation, error) {
	conv := domain.Conversation{ID: id, TenantID: tenant}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tenantBucket(tx, tenant, bucketConversations)
		if b == nil {
			return fmt.Errorf("%w: %s", domain.ErrConversationNotFound, id)
		}
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrConversationNotFound, id)
		}
		return json.Unmarshal(data, &conv.Turns)
	})
	return conv, err
}

func (s *BoltStore) TenantStats(tenant string) (domain.TenantStats, error) {
	var stats domain.TenantStats
	err := s.db.View(func(tx *bbolt.Tx) error {
		docs := tenantBucket(tx, tenant, bucketDocs)
		if docs == nil {
			return nil
		}
		if err := docs.ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			stats.Documents++
			stats.Files = append(stats.Files, meta.Name)
			return nil
		}); err != nil {
			return err
		}
		stats.Chunks = tenantBucket(tx, tenant, bucketChunks).Stats().KeyN
		stats.Conversations = tenantBucket(tx, tenant, bucketConversations).Stats().KeyN
		return nil
	})
	if err != nil {
		return domain.TenantStats{}, err
	}
	sort.Strings(stats.Files)
	return stats, nil
}

// DeleteTenant drops the tenant's entire bucket tree.
func (s *BoltStore) DeleteTenant(tenant string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(tenant)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(tenant))
	})
}

func decodeDoc(tenant, id string, meta docMeta) domain.Document {
	return domain.Document{
		ID:         id,
		TenantID:   tenant,
		Name:       meta.Name,
		Format:     meta.Format,
		Size:       meta.Size,
		UploadedAt: time.Unix(0, meta.UploadedAt),
	}
}

func decodeChunk(id string, meta chunkMeta) domain.Chunk {
	return domain.Chunk{
		ID:     id,
		DocID:  meta.DocID,
		Seq:    meta.Seq,
		Start:  meta.Start,
		End:    meta.End,
		Text:   meta.Text,
		Tokens: meta.Tokens,
	}
}
