package embedding

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"ragmcp/internal/domain"
	"ragmcp/internal/logger"
	"ragmcp/internal/progress"
)

const (
	DefaultBatchSize  = 20
	DefaultBatchDelay = 100 * time.Millisecond
)

// BatchStats summarises one EmbedChunks run.
type BatchStats struct {
	Batches       int
	FailedBatches int
	Embedded      int
}

// Batcher embeds chunks in fixed-size batches. A failed batch never aborts the run:
// its chunks are passed through without embeddings.
type Batcher struct {
	embedder  domain.Embedder
	batchSize int
	limiter   *rate.Limiter
	progress  progress.Reporter
}

// NewBatcher paces batches at most one per delay. A non-positive delay disables pacing.
func NewBatcher(embedder domain.Embedder, batchSize int, delay time.Duration, reporter progress.Reporter) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Batcher{
		embedder:  embedder,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(limit, 1),
		progress:  reporter,
	}
}

// EmbedChunks returns every input chunk, in order, with embeddings attached where the
// provider succeeded. Vector i of a batch belongs to chunk i of that batch; chunks
// without a matching non-empty vector stay unembedded.
func (b *Batcher) EmbedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.Chunk, BatchStats) {
	var stats BatchStats
	out := make([]domain.Chunk, 0, len(chunks))
	if len(chunks) == 0 {
		return out, stats
	}

	total := (len(chunks) + b.batchSize - 1) / b.batchSize
	if b.progress != nil {
		b.progress.Start(len(chunks), "embedding")
		defer b.progress.Finish()
	}

	for start := 0; start < len(chunks); start += b.batchSize {
		end := min(start+b.batchSize, len(chunks))
		batch := chunks[start:end]
		stats.Batches++

		if err := b.limiter.Wait(ctx); err != nil {
			logger.Warn("embedding interrupted", "batch", stats.Batches, "of", total, "err", err)
			stats.FailedBatches += total - stats.Batches + 1
			return append(out, chunks[start:]...), stats
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := b.embedder.Embed(ctx, texts)
		if err != nil {
			logger.Warn("embedding batch failed", "batch", stats.Batches, "of", total, "chunks", len(batch), "err", err)
			stats.FailedBatches++
			out = append(out, batch...)
			b.advance(len(batch))
			continue
		}

		for i, c := range batch {
			if i < len(vectors) && len(vectors[i]) > 0 {
				c.Embedding = vectors[i]
				stats.Embedded++
			}
			out = append(out, c)
		}
		logger.Debug("embedded batch", "batch", stats.Batches, "of", total, "chunks", len(batch))
		b.advance(len(batch))
	}
	return out, stats
}

func (b *Batcher) advance(n int) {
	if b.progress != nil {
		b.progress.Add(n)
	}
}
