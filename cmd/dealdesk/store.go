package main

import (
	"context"
	"fmt"

	"github.com/kingrea/dealdesk/internal/config"
	"github.com/kingrea/dealdesk/internal/store"
	"github.com/kingrea/dealdesk/internal/store/sqlstore"
)

// openStore builds the configured backend, seeds it from fixtures and wraps
// it with the configured latency.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	sc := cfg.Store()
	fx, err := store.LoadFixtures(sc.Fixtures)
	if err != nil {
		return nil, err
	}
	var st store.Store
	switch sc.Driver {
	case config.DriverSQLite:
		db, err := sqlstore.Open(sc.Path)
		if err != nil {
			return nil, err
		}
		if err := db.Seed(ctx, fx); err != nil {
			_ = db.Close()
			return nil, err
		}
		st = db
	case config.DriverMemory:
		mem, err := store.NewMemory(fx)
		if err != nil {
			return nil, err
		}
		st = mem
	default:
		return nil, fmt.Errorf("unknown store driver %q", sc.Driver)
	}
	return store.WithLatency(st, sc.Latency), nil
}

func describeStore(cfg *config.Config) string {
	sc := cfg.Store()
	if sc.Driver == config.DriverSQLite {
		return fmt.Sprintf("sqlite (%s)", sc.Path)
	}
	return fmt.Sprintf("memory (fixtures %s)", sc.Fixtures)
}
