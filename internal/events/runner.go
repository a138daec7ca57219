package events

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/clawbeat/clawbeat/internal/model"
	"github.com/clawbeat/clawbeat/internal/store"
)

// Runner drives one event discovery pass: scan, deduplicate, drop URLs
// already in the store, qualify and extract, then upsert.
type Runner struct {
	scanners  []Scanner
	processor *Processor
	store     store.Store
	pacing    *rate.Limiter
	now       func() time.Time
}

// NewRunner wires the scanners and processor to a store.
func NewRunner(st store.Store, processor *Processor, scanners ...Scanner) *Runner {
	return &Runner{
		scanners:  scanners,
		processor: processor,
		store:     st,
		pacing:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		now:       time.Now,
	}
}

// Run executes one pass and returns the number of new events stored.
// A scanner failure skips that source; a store write failure is fatal.
func (r *Runner) Run(ctx context.Context) (int, error) {
	started := r.now().UTC()

	var raw []Candidate
	for _, scanner := range r.scanners {
		found, err := scanner.Scan(ctx)
		if err != nil {
			zap.L().Warn("event scanner failed",
				zap.String("scanner", scanner.Name()), zap.Error(err))
			continue
		}
		zap.L().Info("event scanner finished",
			zap.String("scanner", scanner.Name()), zap.Int("candidates", len(found)))
		raw = append(raw, found...)
	}
	raw = Deduplicate(raw)

	existing, err := r.store.ListEventURLs(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "events: load existing urls")
	}

	fresh := raw[:0]
	for _, c := range raw {
		if !existing[c.URL] {
			fresh = append(fresh, c)
		}
	}
	zap.L().Info("event candidates collected",
		zap.Int("total", len(raw)), zap.Int("new", len(fresh)))

	accepted := 0
	var batch []*model.Event
	for _, c := range fresh {
		if err := r.pacing.Wait(ctx); err != nil {
			return accepted, err
		}
		ev, err := r.processor.Process(ctx, c)
		if err != nil {
			zap.L().Warn("event processing failed", zap.String("url", c.URL), zap.Error(err))
			continue
		}
		if ev == nil {
			zap.L().Debug("candidate did not qualify", zap.String("url", c.URL))
			continue
		}
		zap.L().Info("event qualified",
			zap.String("title", ev.Title), zap.String("type", string(ev.EventType)))
		batch = append(batch, ev)
	}

	if len(batch) > 0 {
		n, err := r.store.UpsertEvents(ctx, batch)
		if err != nil {
			return 0, eris.Wrap(err, "events: save")
		}
		accepted = n
	}

	if err := r.store.RecordScanRun(ctx, store.ScanRun{
		Kind:       "events",
		StartedAt:  started,
		FinishedAt: r.now().UTC(),
		Items:      accepted,
	}); err != nil {
		zap.L().Warn("could not record scan run", zap.Error(err))
	}

	zap.L().Info("events run complete", zap.Int("added", accepted))
	return accepted, nil
}
