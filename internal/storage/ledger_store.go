package storage

import (
	"context"
	"fmt"

	interfaces "github.com/Owujuah/Finatera/internal/interfaces"
	"github.com/Owujuah/Finatera/internal/storage/memory"
	"github.com/Owujuah/Finatera/internal/storage/postgres"
	"github.com/sirupsen/logrus"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// LedgerStore is a persistence backend that owns resources released on shutdown.
type LedgerStore interface {
	interfaces.LedgerStore
	Close() error
}

// Open builds the store selected by driver. The postgres driver connects to dsn
// and applies the schema before returning.
func Open(ctx context.Context, driver, dsn string, logger *logrus.Logger) (LedgerStore, error) {
	switch driver {
	case "", DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.NewMemoryLedgerStore(), nil
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s store", DriverPostgres)
		}
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
		logger.Info("connected to postgres store")
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}
