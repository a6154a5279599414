// Package backend turns configuration into the concrete storage, event and
// mirror implementations a process runs with.
package backend

import (
	"errors"
	"fmt"

	"tripplan/internal/config"
	"tripplan/internal/events"
	"tripplan/internal/sheets"
	"tripplan/internal/storage"
	"tripplan/internal/worker"
)

// Type names a storage backend.
type Type string

const (
	Memory   Type = config.BackendMemory
	SQLite   Type = config.BackendSQLite
	Postgres Type = config.BackendPostgres
)

func Types() []Type {
	return []Type{Memory, SQLite, Postgres}
}

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Postgres:
		return true
	}
	return false
}

// ParseType accepts the backend names used by DATA_BACKEND.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown data backend %q: must be one of %v", s, Types())
	}
	return t, nil
}

// Events is the event bus of a process. Source is nil only when the process
// publishes to a broker that another process consumes.
type Events struct {
	Publisher events.Publisher
	Source    worker.Consumer
	Remote    bool
}

// Backends is everything Open builds. Close releases it in reverse order.
type Backends struct {
	Type   Type
	Repo   storage.Repository
	Events Events
	// Mirror is nil when no spreadsheet is configured.
	Mirror sheets.Mirror

	closers []func() error
}

func (b *Backends) onClose(fn func() error) {
	b.closers = append(b.closers, fn)
}

func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
