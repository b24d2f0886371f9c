package storage

import (
	"context"
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the cache store.
//
// Driver values:
//   - "file": dependency-free JSON snapshot file
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled and the cache is
// memory-only.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store persists the result cache between process runs.
//
// Load returns an empty map (not an error) when no prior state exists.
// Save replaces the persisted state wholesale.
// Delete removes the persisted state; a missing backing file is not an error.
type Store interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, entries map[string]string) error
	Delete() error
	Close() error
}
