package vectorindex

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"agentrag/internal/domain"
	"agentrag/internal/port"
)

var bucketTenants = []byte("tenants")

// TenantIndex is a tenant-partitioned vector index. Each tenant owns a
// namespace with its own lock, entry map and embedding model version; a
// search can only ever scan the queried tenant's partition, so isolation is
// structural rather than filtered. Vectors persist in bbolt (one nested
// bucket per tenant) and are searched brute-force from memory with cosine
// similarity, which is exact and plenty for per-tenant corpus sizes.
type TenantIndex struct {
	db        *bbolt.DB
	dimension int
	logger    *zap.Logger

	mu         sync.RWMutex
	namespaces map[string]*namespace
}

type namespace struct {
	mu           sync.RWMutex
	tenant       string
	modelVersion string
	halted       bool
	entries      map[string]entry // chunk ID -> entry
}

type entry struct {
	tenant string
	docID  string
	vector []float32
}

type storedEntry struct {
	DocID  string    `json:"d"`
	Vector []float32 `json:"v"`
}

type storedMeta struct {
	ModelVersion string `json:"model_version"`
}

var metaKey = []byte("!meta")

// Open opens (or creates) a persisted index at path. A nil logger disables
// logging.
func Open(path string, dimension int, logger *zap.Logger) (*TenantIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTenants)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tenants bucket: %w", err)
	}

	idx := &TenantIndex{
		db:         db,
		dimension:  dimension,
		logger:     logger,
		namespaces: make(map[string]*namespace),
	}
	if err := idx.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load vector index: %w", err)
	}

	return idx, nil
}

// NewMemory creates an index without persistence.
func NewMemory(dimension int, logger *zap.Logger) *TenantIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantIndex{
		dimension:  dimension,
		logger:     logger,
		namespaces: make(map[string]*namespace),
	}
}

func (x *TenantIndex) load() error {
	return x.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketTenants)
		return root.ForEachBucket(func(name []byte) error {
			tenant := string(name)
			ns := &namespace{tenant: tenant, entries: make(map[string]entry)}
			b := root.Bucket(name)

			err := b.ForEach(func(k, v []byte) error {
				if string(k) == string(metaKey) {
					var meta storedMeta
					if err := json.Unmarshal(v, &meta); err == nil {
						ns.modelVersion = meta.ModelVersion
					}
					return nil
				}
				var se storedEntry
				if err := json.Unmarshal(v, &se); err != nil {
					return nil // skip corrupted rows
				}
				if len(se.Vector) != x.dimension {
					// Persisted vectors no longer match the configured
					// dimension. Halt the namespace instead of silently
					// scoring every stale vector as orthogonal; deleting
					// the tenant wipes it for re-ingestion.
					if !ns.halted {
						ns.halted = true
						x.logger.Error("vector dimension mismatch, halting tenant",
							zap.String("tenant", tenant),
							zap.Int("stored", len(se.Vector)),
							zap.Int("configured", x.dimension))
					}
					return nil
				}
				ns.entries[string(k)] = entry{tenant: tenant, docID: se.DocID, vector: se.Vector}
				return nil
			})
			if err != nil {
				return err
			}
			x.namespaces[tenant] = ns
			return nil
		})
	})
}

func (x *TenantIndex) getOrCreate(tenant string) *namespace {
	x.mu.RLock()
	ns, ok := x.namespaces[tenant]
	x.mu.RUnlock()
	if ok {
		return ns
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if ns, ok = x.namespaces[tenant]; ok {
		return ns
	}
	ns = &namespace{tenant: tenant, entries: make(map[string]entry)}
	x.namespaces[tenant] = ns
	return ns
}

// Upsert adds or updates vectors in the tenant's namespace. All items must
// carry the namespace's embedding model version; mismatches are rejected
// rather than silently mixed.
func (x *TenantIndex) Upsert(tenant string, items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	ns := x.getOrCreate(tenant)
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.halted {
		return fmt.Errorf("tenant %s: %w", tenant, domain.ErrTenantHalted)
	}
	if err := ns.validate(items, x.dimension); err != nil {
		return err
	}

	if err := x.persist(tenant, ns.modelVersionAfter(items), items, nil, ""); err != nil {
		return err
	}
	ns.apply(items, nil, "")
	return nil
}

// ReplaceDocument atomically swaps all of one document's vectors. The new set
// is persisted in a single transaction and published under the namespace
// lock, so no query observes a mix of old and new chunks.
func (x *TenantIndex) ReplaceDocument(tenant, docID string, items []port.VectorItem) error {
	ns := x.getOrCreate(tenant)
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.halted {
		return fmt.Errorf("tenant %s: %w", tenant, domain.ErrTenantHalted)
	}
	if err := ns.validate(items, x.dimension); err != nil {
		return err
	}
	for _, item := range items {
		if item.DocID != docID {
			return fmt.Errorf("replace document %s: item %s belongs to document %s", docID, item.ChunkID, item.DocID)
		}
	}

	if err := x.persist(tenant, ns.modelVersionAfter(items), items, nil, docID); err != nil {
		return err
	}
	ns.apply(items, nil, docID)

	x.logger.Debug("replaced document vectors",
		zap.String("tenant", tenant),
		zap.String("doc_id", docID),
		zap.Int("vectors", len(items)))
	return nil
}

// Delete removes vectors by chunk ID.
func (x *TenantIndex) Delete(tenant string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	ns := x.getOrCreate(tenant)
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.halted {
		return fmt.Errorf("tenant %s: %w", tenant, domain.ErrTenantHalted)
	}

	if err := x.persist(tenant, ns.modelVersion, nil, chunkIDs, ""); err != nil {
		return err
	}
	ns.apply(nil, chunkIDs, "")
	return nil
}

// DeleteDocument removes all vectors belonging to a document.
func (x *TenantIndex) DeleteDocument(tenant, docID string) error {
	return x.ReplaceDocument(tenant, docID, nil)
}

// Search returns the k nearest vectors by descending cosine similarity.
// Exact ties order by chunk ID for determinism. If an entry tagged with
// another tenant is found inside this namespace the namespace is halted and
// domain.ErrIndexCorruption is returned.
func (x *TenantIndex) Search(tenant string, query []float32, k int) ([]port.VectorResult, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", x.dimension, len(query))
	}

	x.mu.RLock()
	ns, ok := x.namespaces[tenant]
	x.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	ns.mu.RLock()
	if ns.halted {
		ns.mu.RUnlock()
		return nil, fmt.Errorf("tenant %s: %w", tenant, domain.ErrTenantHalted)
	}

	results := make([]port.VectorResult, 0, len(ns.entries))
	for id, e := range ns.entries {
		if e.tenant != tenant {
			ns.mu.RUnlock()
			x.halt(ns)
			x.logger.Error("cross-tenant entry in namespace, halting tenant",
				zap.String("tenant", tenant),
				zap.String("entry_tenant", e.tenant),
				zap.String("chunk_id", id))
			return nil, fmt.Errorf("tenant %s: %w", tenant, domain.ErrIndexCorruption)
		}
		results = append(results, port.VectorResult{
			ChunkID: id,
			DocID:   e.docID,
			Score:   cosineSimilarity(query, e.vector),
		})
	}
	ns.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of vectors in the tenant's namespace.
func (x *TenantIndex) Count(tenant string) (int, error) {
	x.mu.RLock()
	ns, ok := x.namespaces[tenant]
	x.mu.RUnlock()
	if !ok {
		return 0, nil
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()
	if ns.halted {
		return 0, fmt.Errorf("tenant %s: %w", tenant, domain.ErrTenantHalted)
	}
	return len(ns.entries), nil
}

// ModelVersion returns the embedding model version tracked for a tenant.
func (x *TenantIndex) ModelVersion(tenant string) (string, bool) {
	x.mu.RLock()
	ns, ok := x.namespaces[tenant]
	x.mu.RUnlock()
	if !ok {
		return "", false
	}
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	return ns.modelVersion, ns.modelVersion != ""
}

// DeleteTenant removes a tenant's entire namespace.
func (x *TenantIndex) DeleteTenant(tenant string) error {
	x.mu.Lock()
	delete(x.namespaces, tenant)
	x.mu.Unlock()

	if x.db == nil {
		return nil
	}
	return x.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketTenants)
		if root.Bucket([]byte(tenant)) == nil {
			return nil
		}
		return root.DeleteBucket([]byte(tenant))
	})
}

// Close closes the underlying database, if any.
func (x *TenantIndex) Close() error {
	if x.db == nil {
		return nil
	}
	return x.db.Close()
}

func (x *TenantIndex) halt(ns *namespace) {
	ns.mu.Lock()
	ns.halted = true
	ns.mu.Unlock()
}

// persist writes one namespace mutation in a single transaction: deletes for
// dropDoc and chunkIDs, then puts for items. No-op without a database.
func (x *TenantIndex) persist(tenant, modelVersion string, items []port.VectorItem, chunkIDs []string, dropDoc string) error {
	if x.db == nil {
		return nil
	}

	return x.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket(bucketTenants)
		b, err := root.CreateBucketIfNotExists([]byte(tenant))
		if err != nil {
			return err
		}

		if dropDoc != "" {
			var stale [][]byte
			if err := b.ForEach(func(k, v []byte) error {
				if string(k) == string(metaKey) {
					return nil
				}
				var se storedEntry
				if err := json.Unmarshal(v, &se); err == nil && se.DocID == dropDoc {
					stale = append(stale, append([]byte(nil), k...))
				}
				return nil
			}); err != nil {
				return err
			}
			for _, k := range stale {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		for _, id := range chunkIDs {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}

		for _, item := range items {
			data, err := json.Marshal(storedEntry{DocID: item.DocID, Vector: item.Vector})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ChunkID), data); err != nil {
				return err
			}
		}

		if modelVersion != "" {
			meta, err := json.Marshal(storedMeta{ModelVersion: modelVersion})
			if err != nil {
				return err
			}
			if err := b.Put(metaKey, meta); err != nil {
				return err
			}
		}
		return nil
	})
}

// validate checks dimensions and model versions before any mutation, so a
// failed batch leaves the namespace untouched.
func (ns *namespace) validate(items []port.VectorItem, dimension int) error {
	version := ns.modelVersion
	for _, item := range items {
		if len(item.Vector) != dimension {
			return fmt.Errorf("chunk %s: vector dimension mismatch: expected %d, got %d", item.ChunkID, dimension, len(item.Vector))
		}
		if version == "" {
			version = item.ModelVersion
		}
		if item.ModelVersion != version {
			return fmt.Errorf("chunk %s: %w: namespace tracks %q, got %q", item.ChunkID, domain.ErrModelVersionMismatch, version, item.ModelVersion)
		}
	}
	return nil
}

func (ns *namespace) modelVersionAfter(items []port.VectorItem) string {
	if ns.modelVersion != "" {
		return ns.modelVersion
	}
	if len(items) > 0 {
		return items[0].ModelVersion
	}
	return ""
}

// apply mutates the in-memory map; callers hold ns.mu and have already
// persisted the same mutation.
func (ns *namespace) apply(items []port.VectorItem, chunkIDs []string, dropDoc string) {
	if dropDoc != "" {
		for id, e := range ns.entries {
			if e.docID == dropDoc {
				delete(ns.entries, id)
			}
		}
	}
	for _, id := range chunkIDs {
		delete(ns.entries, id)
	}
	for _, item := range items {
		ns.entries[item.ChunkID] = entry{tenant: ns.tenant, docID: item.DocID, vector: item.Vector}
	}
	if ns.modelVersion == "" && len(items) > 0 {
		ns.modelVersion = items[0].ModelVersion
	}
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
