package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ragmcp/internal/domain"
	"ragmcp/internal/embedding"
	"ragmcp/internal/ingest"
	"ragmcp/internal/logger"
	"ragmcp/internal/progress"
	"ragmcp/internal/vectorstore"
)

const (
	DefaultTopK   = 5
	excerptLength = 150
)

// DocumentReader loads the documents of a directory.
type DocumentReader interface {
	ReadDir(dir string) (ingest.Result, error)
}

// Options tunes the orchestrators. Zero values select defaults.
type Options struct {
	// ChunkSize is recorded in the snapshot metadata.
	ChunkSize  int
	BatchSize  int
	BatchDelay time.Duration
	TopK       int
	Progress   progress.Reporter
}

// RAGService runs ingestion and retrieval over a single vector store.
type RAGService struct {
	chunker   domain.Chunker
	embedder  domain.Embedder
	store     vectorstore.Storage
	generator domain.Generator
	reader    DocumentReader
	batcher   *embedding.Batcher
	chunkSize int
	topK      int
	tracer    trace.Tracer

	ingestMu sync.Mutex
}

func NewRAGService(
	chunker domain.Chunker,
	embedder domain.Embedder,
	store vectorstore.Storage,
	generator domain.Generator,
	reader DocumentReader,
	opts Options,
) *RAGService {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RAGService{
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		generator: generator,
		reader:    reader,
		batcher:   embedding.NewBatcher(embedder, opts.BatchSize, opts.BatchDelay, opts.Progress),
		chunkSize: opts.ChunkSize,
		topK:      topK,
		tracer:    otel.Tracer("ragmcp/service"),
	}
}

// Stage is a step of the ingestion state machine.
type Stage string

const (
	StageIngest  Stage = "ingest"
	StageChunk   Stage = "chunk"
	StageEmbed   Stage = "embed"
	StagePersist Stage = "persist"
	StageDone    Stage = "done"
	StageFailed  Stage = "failed"
)

// IngestReport describes the outcome of one ingestion run.
type IngestReport struct {
	Directory     string `json:"directory"`
	Documents     int    `json:"documents"`
	Chunks        int    `json:"chunks"`
	Embedded      int    `json:"embedded"`
	FailedBatches int    `json:"failedBatches"`
	SkippedFiles  int    `json:"skippedFiles"`
	// Stage is the last stage reached; StageFailed records where it stopped in FailedAt.
	Stage    Stage  `json:"stage"`
	FailedAt Stage  `json:"failedAt,omitempty"`
	Success  bool   `json:"success"`
	Detail   string `json:"detail"`
}

// IngestDirectory reads, chunks, embeds and persists every supported document in dir,
// replacing the previous contents of the store. Runs are serialised.
func (s *RAGService) IngestDirectory(ctx context.Context, dir string) (IngestReport, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "rag.ingest", trace.WithAttributes(attribute.String("rag.directory", dir)))
	defer span.End()

	report := IngestReport{Directory: dir, Stage: StageIngest}
	logger.Info("ingesting documents", "dir", dir)
	res, err := s.reader.ReadDir(dir)
	if err != nil {
		logger.Warn("reading documents failed", "dir", dir, "err", err)
	}
	report.Documents = len(res.Documents)
	report.SkippedFiles = len(res.Skipped)
	if len(res.Documents) == 0 {
		return s.fail(span, report, fmt.Errorf("%w in %s", domain.ErrNoDocumentsFound, dir))
	}

	report.Stage = StageChunk
	var chunks []domain.Chunk
	for _, doc := range res.Documents {
		cs, err := s.chunker.Chunk(doc)
		if err != nil {
			logger.Warn("chunking failed", "source", doc.Metadata.Source, "err", err)
			continue
		}
		chunks = append(chunks, cs...)
	}
	report.Chunks = len(chunks)
	logger.Info("chunked documents", "documents", report.Documents, "chunks", report.Chunks)

	report.Stage = StageEmbed
	embedded, stats := s.batcher.EmbedChunks(ctx, chunks)
	report.Embedded = stats.Embedded
	report.FailedBatches = stats.FailedBatches
	logger.Info("embedded chunks", "embedded", stats.Embedded, "chunks", len(chunks), "failed_batches", stats.FailedBatches)

	report.Stage = StagePersist
	if err := s.store.Publish(embedded, s.embedder.ModelName(), s.chunkSize); err != nil {
		return s.fail(span, report, fmt.Errorf("persist snapshot: %w", err))
	}

	report.Stage = StageDone
	report.Success = true
	report.Detail = fmt.Sprintf("%d documents, %d chunks, %d/%d embedded, saved to %s",
		report.Documents, report.Chunks, report.Embedded, report.Chunks, s.store.Path())
	if report.Embedded < report.Chunks {
		report.Detail += fmt.Sprintf(" (%d batches failed)", report.FailedBatches)
	}
	span.SetAttributes(
		attribute.Int("rag.documents", report.Documents),
		attribute.Int("rag.chunks", report.Chunks),
		attribute.Int("rag.embedded", report.Embedded),
	)
	logger.Info("ingestion complete", "detail", report.Detail)
	return report, nil
}

func (s *RAGService) fail(span trace.Span, report IngestReport, err error) (IngestReport, error) {
	report.FailedAt = report.Stage
	report.Stage = StageFailed
	report.Detail = err.Error()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Error("ingestion failed", "stage", report.FailedAt, "err", err)
	return report, err
}

// QueryRequest is the input of Query and Retrieve.
type QueryRequest struct {
	Query         string  `json:"query"`
	TopK          int     `json:"topK,omitempty"`
	MinSimilarity float64 `json:"minSimilarity,omitempty"`
}

func (s *RAGService) normalize(req QueryRequest) (QueryRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidQuery)
	}
	if req.TopK < 0 {
		return req, fmt.Errorf("%w: topK must not be negative", domain.ErrInvalidQuery)
	}
	if req.TopK == 0 {
		req.TopK = s.topK
	}
	if req.MinSimilarity < 0 || req.MinSimilarity > 1 {
		return req, fmt.Errorf("%w: minSimilarity must be within [0, 1]", domain.ErrInvalidQuery)
	}
	return req, nil
}

// Query retrieves the chunks most similar to the question and asks the generator for an answer.
// Provider failures are reported inside the answer; only invalid requests return an error.
func (s *RAGService) Query(ctx context.Context, req QueryRequest) (domain.RagResponse, error) {
	req, err := s.normalize(req)
	if err != nil {
		return domain.RagResponse{}, err
	}
	ctx, span := s.tracer.Start(ctx, "rag.query", trace.WithAttributes(
		attribute.Int("rag.top_k", req.TopK),
		attribute.Float64("rag.min_similarity", req.MinSimilarity),
	))
	defer span.End()

	resp := domain.RagResponse{Query: req.Query, Sources: []domain.SourceReference{}}

	results, err := s.retrieve(ctx, req)
	if err != nil {
		span.RecordError(err)
		resp.Answer = "Error: Failed to generate query embedding: " + err.Error()
		return resp, nil
	}
	span.SetAttributes(attribute.Int("rag.retrieved", len(results)))
	if len(results) == 0 {
		if err := s.CheckEmbedder(); err != nil {
			logger.Warn("stored vectors do not match the active embedder", "err", err)
		}
		resp.Answer = domain.NoRelevantInformation
		return resp, nil
	}

	answer, err := s.generator.Generate(ctx, req.Query, FormatContext(results))
	if err != nil {
		span.RecordError(err)
		logger.Warn("generation failed", "model", s.generator.ModelName(), "err", err)
		resp.Answer = "Error: Failed to generate response: " + err.Error()
		return resp, nil
	}

	resp.Answer = answer
	resp.RetrievedCount = len(results)
	for _, r := range results {
		resp.Sources = append(resp.Sources, domain.SourceReference{
			Source:     r.Chunk.Metadata.Source,
			Title:      r.Chunk.Metadata.Title,
			Similarity: r.Similarity,
			ChunkID:    r.Chunk.ID,
			Excerpt:    Excerpt(r.Chunk.Content),
		})
	}
	return resp, nil
}

// Retrieve returns the ranked chunks for a query without generating an answer.
func (s *RAGService) Retrieve(ctx context.Context, req QueryRequest) ([]domain.SearchResult, error) {
	req, err := s.normalize(req)
	if err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "rag.retrieve")
	defer span.End()
	return s.retrieve(ctx, req)
}

func (s *RAGService) retrieve(ctx context.Context, req QueryRequest) ([]domain.SearchResult, error) {
	q := domain.NewQueryChunk(req.Query)
	vectors, err := s.embedder.Embed(ctx, []string{q.Content})
	if err != nil {
		logger.Warn("query embedding failed", "model", s.embedder.ModelName(), "err", err)
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("embedding provider returned no vector")
	}
	results := s.store.Search(vectors[0], req.TopK, req.MinSimilarity)
	logger.Debug("retrieved chunks", "results", len(results), "top_k", req.TopK)
	return results, nil
}

// CheckEmbedder reports whether the store was built by a different embedding model
// than the active one, or holds vectors of a different dimension.
func (s *RAGService) CheckEmbedder() error {
	active := s.embedder.ModelName()
	if md, ok := s.store.Metadata(); ok && md.EmbeddingModel != "" && md.EmbeddingModel != active {
		return fmt.Errorf("%w: store built with %s, active embedder is %s",
			domain.ErrEmbedderMismatch, md.EmbeddingModel, active)
	}
	dim := s.embedder.Dimension()
	if dim <= 0 {
		return nil
	}
	for _, c := range s.store.AllChunks() {
		if !c.HasEmbedding() {
			continue
		}
		if len(c.Embedding) != dim {
			return fmt.Errorf("%w: stored vectors have %d dimensions, %s produces %d",
				domain.ErrDimensionMismatch, len(c.Embedding), active, dim)
		}
		return nil
	}
	return nil
}

// StoreStats summarises what the store currently holds.
type StoreStats struct {
	Path     string                   `json:"path"`
	Chunks   int                      `json:"chunks"`
	Embedded int                      `json:"embedded"`
	Sources  int                      `json:"sources"`
	Snapshot *domain.SnapshotMetadata `json:"snapshot,omitempty"`
}

func (s *RAGService) Stats() StoreStats {
	st := StoreStats{Path: s.store.Path()}
	seen := make(map[string]struct{})
	for _, c := range s.store.AllChunks() {
		st.Chunks++
		if c.HasEmbedding() {
			st.Embedded++
		}
		seen[c.Metadata.Source] = struct{}{}
	}
	st.Sources = len(seen)
	if md, ok := s.store.Metadata(); ok {
		st.Snapshot = &md
	}
	return st
}

// Close releases the providers.
func (s *RAGService) Close() error {
	return errors.Join(s.embedder.Close(), s.generator.Close())
}
