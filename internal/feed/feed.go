// Package feed discovers articles from the whitelisted RSS sources and
// news search feeds and normalizes them into the uniform article record.
package feed

import (
	"context"

	"go.uber.org/zap"

	"github.com/clawbeat/clawbeat/internal/model"
)

// Adapter is one independent discovery source.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]*model.Article, error)
}

// FetchAll runs every adapter in order and collects their articles. One
// adapter failing is logged and treated as zero results from that
// adapter; it never aborts the others.
func FetchAll(ctx context.Context, adapters []Adapter) []*model.Article {
	var found []*model.Article
	for _, a := range adapters {
		articles, err := a.Fetch(ctx)
		if err != nil {
			zap.L().Warn("adapter fetch failed",
				zap.String("adapter", a.Name()),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("adapter fetch complete",
			zap.String("adapter", a.Name()),
			zap.Int("articles", len(articles)),
		)
		found = append(found, articles...)
	}
	return found
}
