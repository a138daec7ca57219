package cluster

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clawbeat/clawbeat/internal/model"
)

// Embedder turns a batch of texts into embedding vectors, one per input,
// in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Engine drives embedding and clustering for one forge run.
type Engine struct {
	embedder     Embedder
	batchSize    int
	summaryChars int
	threshold    float64
	limiter      *rate.Limiter
}

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize sets the embedding request batch size.
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithSummaryChars sets how much of the summary joins the title in the
// embedding input text.
func WithSummaryChars(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.summaryChars = n
		}
	}
}

// WithThreshold sets the cosine similarity threshold for cluster
// membership.
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		if t > 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// WithPacing sets the minimum interval between embedding batches, to
// respect provider rate limits.
func WithPacing(l *rate.Limiter) Option {
	return func(e *Engine) {
		e.limiter = l
	}
}

// NewEngine creates a clustering engine around an embedding service.
func NewEngine(embedder Embedder, opts ...Option) *Engine {
	e := &Engine{
		embedder:     embedder,
		batchSize:    5,
		summaryChars: 200,
		threshold:    0.85,
		limiter:      rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmbedMissing assigns vectors to every article that has none, calling
// the embedding service in bounded batches with a pacing delay between
// them. A failed batch leaves its articles without vectors for the rest
// of the run; they are not retried and later pass through clustering as
// singletons. Already-embedded articles are never recomputed.
func (e *Engine) EmbedMissing(ctx context.Context, articles []*model.Article) error {
	var pending []*model.Article
	for _, a := range articles {
		if a.Vec == nil {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	log := zap.L().With(zap.String("component", "cluster"))
	log.Info("embedding articles", zap.Int("pending", len(pending)), zap.Int("batch_size", e.batchSize))

	failed := 0
	for start := 0; start < len(pending); start += e.batchSize {
		if start > 0 {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		end := min(start+e.batchSize, len(pending))
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, a := range batch {
			texts[i] = e.embedText(a)
		}

		vecs, err := e.embedder.Embed(ctx, texts)
		if err != nil || len(vecs) != len(batch) {
			if err == nil {
				err = fmt.Errorf("got %d vectors for %d texts", len(vecs), len(batch))
			}
			// Degrade, don't abort: the whole batch stays unembedded.
			log.Warn("embedding batch failed",
				zap.Int("batch_start", start),
				zap.Int("batch_len", len(batch)),
				zap.Error(err),
			)
			failed += len(batch)
			continue
		}

		for i, a := range batch {
			a.Vec = vecs[i]
		}
	}

	if failed > 0 {
		log.Warn("some articles left unembedded", zap.Int("count", failed))
	}
	return nil
}

// Run embeds missing vectors, clusters, and merges against the persisted
// list in one pass.
func (e *Engine) Run(ctx context.Context, fresh, existing []*model.Article, maxSize int) ([]*model.Article, error) {
	if err := e.EmbedMissing(ctx, fresh); err != nil {
		return nil, err
	}
	anchors := Cluster(fresh, e.threshold)
	return Merge(anchors, existing, maxSize), nil
}

func (e *Engine) embedText(a *model.Article) string {
	summary := a.Summary
	if len(summary) > e.summaryChars {
		// Back up to a rune boundary so the text never ends mid-character.
		cut := e.summaryChars
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut]
	}
	return a.Title + ": " + summary
}
