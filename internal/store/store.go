// Package store provides interchangeable backends for the license
// record store: an in-memory map, a JSON file, and a SQLite database.
// All backends honor the license.Store contract: Get returns
// license.ErrNotFound for unknown keys, writes to the same key are never
// reordered, and each Put lands all-or-nothing.
package store

import (
	"context"
	"fmt"

	"qtxlicense/internal/config"
	"qtxlicense/internal/license"
)

// Store extends the engine-facing contract with lifecycle management for
// backends that hold files or connections.
type Store interface {
	license.Store

	// Ready reports whether the backend can serve requests.
	Ready(ctx context.Context) error
	Close() error
}

// Open creates the backend selected by the configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return OpenFile(cfg.Path)
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
}
