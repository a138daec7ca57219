// Package store persists ClawBeat state: the rolling feed snapshot as a
// JSON document, and events plus scored repositories in SQLite or Postgres.
package store

import (
	"context"
	"time"

	"github.com/clawbeat/clawbeat/internal/model"
)

// FeedStore persists the feed snapshot between forge runs.
type FeedStore interface {
	Load(ctx context.Context) (*model.FeedSnapshot, error)
	Save(ctx context.Context, snap *model.FeedSnapshot) error
}

// ScanRun records one completed scan for bookkeeping.
type ScanRun struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // "forge", "events" or "backfill"
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Items      int       `json:"items"`
}

// Store defines the persistence interface for events and project scans.
type Store interface {
	// Events
	UpsertEvents(ctx context.Context, events []*model.Event) (int, error)
	ListEventURLs(ctx context.Context) (map[string]bool, error)
	ListEvents(ctx context.Context, limit int) ([]model.Event, error)

	// Projects
	UpsertProjects(ctx context.Context, projects []*model.Project) (int, error)
	ListProjects(ctx context.Context, offset, limit int) ([]model.Project, error)
	UpsertProjectScores(ctx context.Context, projects []*model.Project) (int, error)

	// Bookkeeping
	RecordScanRun(ctx context.Context, run ScanRun) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
