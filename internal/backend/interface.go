// Package backend selects and wires the snapshot journal the dashboard
// records to: an in-process store or SQLite with optional AMQP sync.
package backend

import (
	"context"

	"finboard/internal/journal"
)

// BackendType is a DATA_BACKEND value.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid reports whether bt names a supported journal.
func (bt BackendType) IsValid() bool {
	return bt == MemoryBackend || bt == SQLiteBackend
}

// Config holds the settings needed to build a journal.
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// AMQP sync, sqlite only
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Backend is the journal handed to the HTTP server.
type Backend interface {
	journal.Journal
}

type (
	// CleanupFunc releases the backend's connections.
	CleanupFunc func() error
	// ReadyFunc backs the /readyz journal check.
	ReadyFunc func(ctx context.Context) error
)

// BackendResult is a journal plus its lifecycle hooks. Either hook may be nil.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	Ready   ReadyFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
