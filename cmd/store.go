package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/clawbeat/clawbeat/internal/store"
)

// openStore builds the configured store and applies migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// primaryKeyword is the tracked project name driving event and project
// discovery.
func primaryKeyword(keywords []string) string {
	if len(keywords) == 0 {
		return "openclaw"
	}
	return keywords[0]
}
