package store

import (
	"context"
	"fmt"

	coreconfig "dropbot/core/config"
	"dropbot/core/database"
)

// Open constructs the Store backend selected by cfg.Driver. For the postgres
// driver it also runs pending schema migrations before handing the store out.
func Open(ctx context.Context, cfg coreconfig.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case coreconfig.StoreDriverRedis:
		return NewRedis(ctx, cfg.Redis)
	case coreconfig.StoreDriverPostgres:
		dbCfg := database.FromStoreConfig(cfg.Postgres)
		if err := database.RunMigrations(dbCfg); err != nil {
			return nil, fmt.Errorf("store migrations: %w", err)
		}
		db, err := database.Connect(dbCfg)
		if err != nil {
			return nil, err
		}
		return NewPostgres(db), nil
	case coreconfig.StoreDriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
