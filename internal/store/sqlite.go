package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/clawbeat/clawbeat/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS github_projects (
	url          TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	owner        TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	stars        INTEGER NOT NULL DEFAULT 0,
	forks        INTEGER NOT NULL DEFAULT 0,
	license      TEXT NOT NULL DEFAULT '',
	topics       TEXT NOT NULL DEFAULT '[]',
	open_issues  INTEGER NOT NULL DEFAULT 0,
	archived     INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL DEFAULT '',
	pushed_at    TEXT NOT NULL DEFAULT '',
	rubric_score INTEGER NOT NULL DEFAULT 0,
	rubric_tier  TEXT NOT NULL DEFAULT 'skip',
	scanned_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scan_runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	items       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_events_start_date ON events(start_date);
CREATE INDEX IF NOT EXISTS idx_projects_score ON github_projects(rubric_score);
CREATE INDEX IF NOT EXISTS idx_scan_runs_kind ON scan_runs(kind);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertEvents(ctx context.Context, events []*model.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert events")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, ev := range events {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO events (url, title, organizer, event_type, city, state, country, start_date, end_date, description, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(url) DO UPDATE SET
			   title = excluded.title, organizer = excluded.organizer, event_type = excluded.event_type,
			   city = excluded.city, state = excluded.state, country = excluded.country,
			   start_date = excluded.start_date, end_date = excluded.end_date,
			   description = excluded.description, updated_at = excluded.updated_at`,
			ev.URL, ev.Title, ev.Organizer, string(ev.EventType),
			ev.City, ev.State, ev.Country, ev.StartDate, ev.EndDate, ev.Description, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert event %s", ev.URL)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert events")
	}
	return len(events), nil
}

func (s *SQLiteStore) ListEventURLs(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM events`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list event urls")
	}
	defer rows.Close()

	urls := make(map[string]bool)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event url")
		}
		urls[u] = true
	}
	return urls, eris.Wrap(rows.Err(), "sqlite: list event urls iterate")
}

func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, organizer, event_type, city, state, country, start_date, end_date, description
		 FROM events ORDER BY start_date DESC, url LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list events")
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var ev model.Event
		var typ string
		err := rows.Scan(&ev.URL, &ev.Title, &ev.Organizer, &typ,
			&ev.City, &ev.State, &ev.Country, &ev.StartDate, &ev.EndDate, &ev.Description)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		ev.EventType = model.EventType(typ)
		events = append(events, ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: list events iterate")
}

func (s *SQLiteStore) UpsertProjects(ctx context.Context, projects []*model.Project) (int, error) {
	if len(projects) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert projects")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, p := range projects {
		topicsJSON, err := json.Marshal(p.Topics)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal topics for %s", p.URL)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO github_projects (url, name, owner, description, stars, forks, license, topics, open_issues, archived, created_at, pushed_at, rubric_score, rubric_tier, scanned_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(url) DO UPDATE SET
			   name = excluded.name, owner = excluded.owner, description = excluded.description,
			   stars = excluded.stars, forks = excluded.forks, license = excluded.license,
			   topics = excluded.topics, open_issues = excluded.open_issues, archived = excluded.archived,
			   created_at = excluded.created_at, pushed_at = excluded.pushed_at,
			   rubric_score = excluded.rubric_score, rubric_tier = excluded.rubric_tier,
			   scanned_at = excluded.scanned_at`,
			p.URL, p.Name, p.Owner, p.Description, p.Stars, p.Forks, p.License,
			string(topicsJSON), p.OpenIssues, p.Archived, p.CreatedAt, p.PushedAt,
			p.RubricScore, string(p.RubricTier), now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert project %s", p.URL)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert projects")
	}
	return len(projects), nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, offset, limit int) ([]model.Project, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, name, owner, description, stars, forks, license, topics, open_issues, archived, created_at, pushed_at, rubric_score, rubric_tier
		 FROM github_projects ORDER BY rubric_score DESC, stars DESC, url LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
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
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) UpsertProjectScores(ctx context.Context, projects []*model.Project) (int, error) {
	if len(projects) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert scores")
	}
	defer tx.Rollback()

	for _, p := range projects {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO github_projects (url, rubric_score, rubric_tier, pushed_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(url) DO UPDATE SET
			   rubric_score = excluded.rubric_score, rubric_tier = excluded.rubric_tier,
			   pushed_at = excluded.pushed_at`,
			p.URL, p.RubricScore, string(p.RubricTier), p.PushedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert score %s", p.URL)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert scores")
	}
	return len(projects), nil
}

func (s *SQLiteStore) RecordScanRun(ctx context.Context, run ScanRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scan_runs (id, kind, started_at, finished_at, items) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Items,
	)
	return eris.Wrapf(err, "sqlite: record %s scan run", run.Kind)
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	var topicsJSON, tier string

	err := row.Scan(&p.URL, &p.Name, &p.Owner, &p.Description, &p.Stars, &p.Forks,
		&p.License, &topicsJSON, &p.OpenIssues, &p.Archived, &p.CreatedAt, &p.PushedAt,
		&p.RubricScore, &tier)
	if err != nil {
		return nil, eris.Wrap(err, "scan project")
	}
	if topicsJSON != "" {
		if err := json.Unmarshal([]byte(topicsJSON), &p.Topics); err != nil {
			return nil, eris.Wrap(err, "unmarshal project topics")
		}
	}
	p.RubricTier = model.RubricTier(tier)
	return &p, nil
}
