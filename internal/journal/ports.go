// Package journal defines the ports through which computed net worth
// snapshots are recorded, listed and exported.
package journal

import (
	"context"

	"finboard/internal/core"
)

// Ports for outbound adapters.
type (
	// SnapshotWriter records a snapshot and returns a reference to it.
	SnapshotWriter interface {
		Record(ctx context.Context, s core.NetWorthSnapshot) (ref string, err error)
	}

	// SnapshotLister returns recorded snapshots, newest first. A limit of
	// zero or less means no limit.
	SnapshotLister interface {
		ListSnapshots(ctx context.Context, limit int) ([]core.NetWorthSnapshot, error)
	}

	// SnapshotExporter copies a snapshot to an external destination.
	SnapshotExporter interface {
		Export(ctx context.Context, s core.NetWorthSnapshot) (ref string, err error)
	}

	// Journal is the combined read/write port used by the HTTP server.
	Journal interface {
		SnapshotWriter
		SnapshotLister
	}
)
