package memory

import (
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"ragmcp/internal/domain"
	"ragmcp/internal/logger"
	"ragmcp/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

// Storage is an in-memory vector store using brute-force cosine similarity,
// persisted as a single JSON snapshot file.
type Storage struct {
	mu       sync.RWMutex
	path     string
	chunks   []domain.Chunk
	metadata *domain.SnapshotMetadata
	now      func() time.Time
}

func NewStorage(path string) *Storage {
	return &Storage{path: path, now: time.Now}
}

func (s *Storage) Path() string { return s.path }

func (s *Storage) AddChunks(chunks []domain.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
}

func (s *Storage) Replace(chunks []domain.Chunk) {
	cp := make([]domain.Chunk, len(chunks))
	copy(cp, chunks)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = cp
}

type scored struct {
	idx int
	sim float64
}

func (s *Storage) Search(query []float64, topK int, minSimilarity float64) []domain.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.chunks) == 0 || topK <= 0 {
		return []domain.SearchResult{}
	}

	var hits []scored
	for i, c := range s.chunks {
		if !c.HasEmbedding() {
			continue
		}
		sim, err := vectorstore.CosineSimilarity(query, c.Embedding)
		if err != nil {
			logger.Debug("skipping chunk", "chunk", c.ID, "err", err)
			continue
		}
		if sim >= minSimilarity {
			hits = append(hits, scored{idx: i, sim: sim})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].sim > hits[j].sim })
	if topK > len(hits) {
		topK = len(hits)
	}

	results := make([]domain.SearchResult, 0, topK)
	for _, h := range hits[:topK] {
		results = append(results, domain.SearchResult{Chunk: s.chunks[h.idx], Similarity: h.sim})
	}
	return results
}

// Save persists the current chunks and records the snapshot metadata.
func (s *Storage) Save(embeddingModel string, chunkSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := vectorstore.BuildSnapshot(s.chunks, embeddingModel, chunkSize, s.now())
	if err := vectorstore.WriteSnapshot(s.path, snap); err != nil {
		return err
	}
	s.metadata = &snap.Metadata
	logger.Info("saved vector store", "path", s.path, "chunks", len(s.chunks))
	return nil
}

func (s *Storage) Publish(chunks []domain.Chunk, embeddingModel string, chunkSize int) error {
	cp := make([]domain.Chunk, len(chunks))
	copy(cp, chunks)
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := vectorstore.BuildSnapshot(cp, embeddingModel, chunkSize, s.now())
	if err := vectorstore.WriteSnapshot(s.path, snap); err != nil {
		return err
	}
	s.chunks = cp
	s.metadata = &snap.Metadata
	logger.Info("published vector store", "path", s.path, "chunks", len(cp))
	return nil
}

func (s *Storage) Load() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := vectorstore.ReadSnapshot(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("no vector store snapshot", "path", s.path)
		} else {
			logger.Warn("failed to load vector store", "path", s.path, "err", err)
		}
		return false
	}
	s.chunks = snap.Chunks
	s.metadata = &snap.Metadata
	logger.Info("loaded vector store", "path", s.path, "chunks", len(s.chunks))
	return true
}

func (s *Storage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.metadata = nil
}

func (s *Storage) AllChunks() []domain.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Metadata returns the metadata of the last saved or loaded snapshot.
func (s *Storage) Metadata() (domain.SnapshotMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.metadata == nil {
		return domain.SnapshotMetadata{}, false
	}
	return *s.metadata, true
}
