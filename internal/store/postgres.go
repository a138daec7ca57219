package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/clawbeat/clawbeat/internal/db"
	"github.com/clawbeat/clawbeat/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"list_event_urls": `SELECT url FROM events`,
	"insert_scan_run": `INSERT INTO scan_runs (id, kind, started_at, finished_at, items) VALUES ($1, $2, $3, $4, $5)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS events (
	url         TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	organizer   TEXT NOT NULL DEFAULT '',
	event_type  TEXT NOT NULL DEFAULT 'unknown',
	city        TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	country     TEXT NOT NULL DEFAULT '',
	start_date  TEXT NOT NULL DEFAULT '',
	end_date    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS github_projects (
	url          TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	owner        TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	stars        INTEGER NOT NULL DEFAULT 0,
	forks        INTEGER NOT NULL DEFAULT 0,
	license      TEXT NOT NULL DEFAULT '',
	topics       JSONB NOT NULL DEFAULT '[]',
	open_issues  INTEGER NOT NULL DEFAULT 0,
	archived     BOOLEAN NOT NULL DEFAULT false,
	created_at   TEXT NOT NULL DEFAULT '',
	pushed_at    TEXT NOT NULL DEFAULT '',
	rubric_score INTEGER NOT NULL DEFAULT 0,
	rubric_tier  TEXT NOT NULL DEFAULT 'skip',
	scanned_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scan_runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	items       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_events_start_date ON events(start_date);
CREATE INDEX IF NOT EXISTS idx_projects_score ON github_projects(rubric_score DESC);
CREATE INDEX IF NOT EXISTS idx_scan_runs_kind ON scan_runs(kind);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	} else {
		s.pool.Close()
	}
	return nil
}

var eventColumns = []string{
	"url", "title", "organizer", "event_type", "city", "state", "country",
	"start_date", "end_date", "description", "updated_at",
}

func (s *PostgresStore) UpsertEvents(ctx context.Context, events []*model.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []any{
			ev.URL, ev.Title, ev.Organizer, string(ev.EventType),
			ev.City, ev.State, ev.Country, ev.StartDate, ev.EndDate, ev.Description, now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "events",
		Columns:      eventColumns,
		ConflictKeys: []string{"url"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert events")
	}
	return int(n), nil
}

func (s *PostgresStore) ListEventURLs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT url FROM events`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list event urls")
	}
	defer rows.Close()

	urls := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "postgres: scan event url")
		}
		urls[u] = true
	}
	return urls, eris.Wrap(rows.Err(), "postgres: list event urls iterate")
}

func (s *PostgresStore) ListEvents(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT url, title, organizer, event_type, city, state, country, start_date, end_date, description
		 FROM events ORDER BY start_date DESC, url LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		var typ string
		err := rows.Scan(&ev.URL, &ev.Title, &ev.Organizer, &typ,
			&ev.City, &ev.State, &ev.Country, &ev.StartDate, &ev.EndDate, &ev.Description)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan event")
		}
		ev.EventType = model.EventType(typ)
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "postgres: list events iterate")
}

var projectColumns = []string{
	"url", "name", "owner", "description", "stars", "forks", "license", "topics",
	"open_issues", "archived", "created_at", "pushed_at", "rubric_score", "rubric_tier", "scanned_at",
}

func (s *PostgresStore) UpsertProjects(ctx context.Context, projects []*model.Project) (int, error) {
	if len(projects) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(projects))
	for _, p := range projects {
		topicsJSON, err := json.Marshal(p.Topics)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal topics for %s", p.URL)
		}
		rows = append(rows, []any{
			p.URL, p.Name, p.Owner, p.Description, p.Stars, p.Forks, p.License,
			string(topicsJSON), p.OpenIssues, p.Archived, p.CreatedAt, p.PushedAt,
			p.RubricScore, string(p.RubricTier), now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "github_projects",
		Columns:      projectColumns,
		ConflictKeys: []string{"url"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert projects")
	}
	return int(n), nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, offset, limit int) ([]model.Project, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT url, name, owner, description, stars, forks, license, topics, open_issues, archived, created_at, pushed_at, rubric_score, rubric_tier
		 FROM github_projects ORDER BY rubric_score DESC, stars DESC, url LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) UpsertProjectScores(ctx context.Context, projects []*model.Project) (int, error) {
	if len(projects) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []any{p.URL, p.RubricScore, string(p.RubricTier), p.PushedAt})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "github_projects",
		Columns:      []string{"url", "rubric_score", "rubric_tier", "pushed_at"},
		ConflictKeys: []string{"url"},
		UpdateCols:   []string{"rubric_score", "rubric_tier", "pushed_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert project scores")
	}
	return int(n), nil
}

func (s *PostgresStore) RecordScanRun(ctx context.Context, run ScanRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scan_runs (id, kind, started_at, finished_at, items) VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.Kind, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Items,
	)
	return eris.Wrapf(err, "postgres: record %s scan run", run.Kind)
}
