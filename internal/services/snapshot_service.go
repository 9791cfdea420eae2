package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"finboard/internal/core"
)

type (
	// SnapshotStore persists snapshots and hands back their database id.
	SnapshotStore interface {
		CreateSnapshot(ctx context.Context, s core.NetWorthSnapshot) (int64, error)
		Close() error
	}

	// SyncPublisher announces a stored snapshot to the sync worker.
	SyncPublisher interface {
		PublishSnapshotSync(ctx context.Context, id int64) error
		Close() error
	}
)

// SnapshotService orchestrates snapshot recording across SQLite and AMQP
type SnapshotService struct {
	storage   SnapshotStore
	publisher SyncPublisher
	logger    *slog.Logger
}

// NewSnapshotService wires the store with an optional publisher. A nil
// publisher disables sync messages.
func NewSnapshotService(storage SnapshotStore, publisher SyncPublisher, logger *slog.Logger) *SnapshotService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotService{
		storage:   storage,
		publisher: publisher,
		logger:    logger,
	}
}

// RecordSnapshot saves a snapshot locally and publishes a sync message.
// The returned reference is the database id.
func (s *SnapshotService) RecordSnapshot(ctx context.Context, snap core.NetWorthSnapshot) (string, error) {
	id, err := s.storage.CreateSnapshot(ctx, snap)
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}

	if err := s.publishSyncMessage(ctx, id); err != nil {
		// The snapshot is stored; the pending sweep exports it later.
		s.logger.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "snapshot_ref", snap.Ref, "error", err)
	}

	return strconv.FormatInt(id, 10), nil
}

func (s *SnapshotService) publishSyncMessage(ctx context.Context, id int64) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping sync message", "id", id)
		return nil
	}
	return s.publisher.PublishSnapshotSync(ctx, id)
}

// Close closes both storage and AMQP connections
func (s *SnapshotService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close snapshot service: %v", errs)
	}

	return nil
}
