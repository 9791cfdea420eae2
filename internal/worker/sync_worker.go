package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/journal"
	"finboard/internal/storage"
)

// SnapshotRepository is the storage surface the worker needs.
type SnapshotRepository interface {
	GetSnapshot(ctx context.Context, id int64) (core.NetWorthSnapshot, error)
	GetPendingSyncSnapshots(ctx context.Context, limit int) ([]storage.PendingSyncSnapshot, error)
	MarkSynced(ctx context.Context, id int64, exportRef string) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker exports recorded snapshots from SQLite to an external journal
type SyncWorker struct {
	storage   SnapshotRepository
	exporter  journal.SnapshotExporter
	batchSize int
	logger    *slog.Logger
}

func NewSyncWorker(storage SnapshotRepository, exporter journal.SnapshotExporter, batchSize int, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize < 1 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger,
	}
}

// HandleSyncMessage processes a single snapshot sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.SnapshotSyncMessage) error {
	w.logger.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	snap, err := w.storage.GetSnapshot(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get snapshot from storage: %w", err)
	}

	// Redelivered messages for already exported rows are acknowledged silently
	if snap.SyncStatus == core.SyncDone {
		w.logger.DebugContext(ctx, "Snapshot already synced, skipping", "id", msg.ID)
		return nil
	}

	if err := w.syncSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	return nil
}

// ProcessPending exports snapshots that have not been synced yet.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) (synced, failed int, err error) {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck runs a larger pending sweep when the worker starts, to
// recover from missed messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		w.logger.InfoContext(ctx, "No pending snapshots found on startup")
		return nil
	}
	w.logger.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (int, int, error) {
	pending, err := w.storage.GetPendingSyncSnapshots(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending snapshots: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending snapshots", "count", len(pending))

	synced, failed := 0, 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}

		snap, err := w.storage.GetSnapshot(ctx, p.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to get snapshot", "id", p.ID, "error", err)
			if err := w.storage.MarkSyncError(ctx, p.ID); err != nil {
				w.logger.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", err)
			}
			failed++
			continue
		}

		if err := w.syncSnapshot(ctx, snap); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync snapshot", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (w *SyncWorker) syncSnapshot(ctx context.Context, snap core.NetWorthSnapshot) error {
	ref, err := w.exporter.Export(ctx, snap)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, snap.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", "id", snap.ID, "error", markErr)
		}
		return fmt.Errorf("export snapshot: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, snap.ID, ref); err != nil {
		// The export went through; the sweep may export the row again.
		w.logger.ErrorContext(ctx, "Failed to mark as synced", "id", snap.ID, "error", err)
	}

	w.logger.InfoContext(ctx, "Successfully synced snapshot",
		"id", snap.ID,
		"snapshot_ref", snap.Ref,
		"export_ref", ref,
		"net_worth", snap.NetWorth.String())
	return nil
}
