package adapters

import (
	"context"

	"finboard/internal/core"
	"finboard/internal/journal"
	"finboard/internal/services"
)

var _ journal.Journal = (*SQLiteAdapter)(nil)

// SQLiteAdapter adapts the SQLite repository and SnapshotService to the
// journal ports, so the HTTP handlers work unchanged on either backend.
type SQLiteAdapter struct {
	lister  journal.SnapshotLister
	service *services.SnapshotService
}

func NewSQLiteAdapter(lister journal.SnapshotLister, service *services.SnapshotService) *SQLiteAdapter {
	return &SQLiteAdapter{
		lister:  lister,
		service: service,
	}
}

// Record implements journal.SnapshotWriter
func (a *SQLiteAdapter) Record(ctx context.Context, s core.NetWorthSnapshot) (string, error) {
	return a.service.RecordSnapshot(ctx, s)
}

// ListSnapshots implements journal.SnapshotLister
func (a *SQLiteAdapter) ListSnapshots(ctx context.Context, limit int) ([]core.NetWorthSnapshot, error) {
	return a.lister.ListSnapshots(ctx, limit)
}
