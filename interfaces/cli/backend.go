package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/decision-go/domain/process"
	"github.com/felixgeelhaar/decision-go/domain/proposal"
	"github.com/felixgeelhaar/decision-go/domain/transition"
	"github.com/felixgeelhaar/decision-go/infrastructure/config"
	"github.com/felixgeelhaar/decision-go/infrastructure/storage/memory"
	"github.com/felixgeelhaar/decision-go/infrastructure/storage/postgres"
	"github.com/felixgeelhaar/decision-go/infrastructure/storage/sqlite"
)

// backend bundles the stores a command wires its services from.
type backend struct {
	instances   process.Store
	transitions transition.Store
	applier     transition.Applier
	proposals   proposal.Store
	close       func()
}

// openBackend builds the persistence layer selected by the config.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Storage.Driver {
	case "memory":
		instances := memory.NewInstanceStore()
		transitions := memory.NewTransitionStore(instances)
		return &backend{
			instances:   instances,
			transitions: transitions,
			applier:     transitions,
			proposals:   memory.NewProposalStore(),
			close:       func() {},
		}, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		schemaName := cfg.Storage.Schema
		if schemaName == "" {
			schemaName = "public"
		}
		if err := postgres.Migrate(ctx, pool, schemaName); err != nil {
			pool.Close()
			return nil, err
		}
		transitions := postgres.NewTransitionStore(pool, schemaName)
		return &backend{
			instances:   postgres.NewInstanceStore(pool, schemaName),
			transitions: transitions,
			applier:     transitions,
			proposals:   postgres.NewProposalStore(pool, schemaName),
			close:       pool.Close,
		}, nil

	case "sqlite":
		instances, err := sqlite.NewInstanceStore(sqlite.DefaultConfig(),
			sqlite.WithDSN(cfg.Storage.DSN), sqlite.WithAutoMigrate())
		if err != nil {
			return nil, err
		}
		db := instances.DB()
		transitions, err := sqlite.NewTransitionStoreFromDB(db)
		if err != nil {
			_ = instances.Close()
			return nil, err
		}
		proposals, err := sqlite.NewProposalStoreFromDB(db)
		if err != nil {
			_ = instances.Close()
			return nil, err
		}
		return &backend{
			instances:   instances,
			transitions: transitions,
			applier:     transitions,
			proposals:   proposals,
			close:       func() { _ = instances.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
