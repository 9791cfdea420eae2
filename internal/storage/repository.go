package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/journal"

	_ "modernc.org/sqlite"
)

// ErrSnapshotNotFound is returned when no row matches the requested id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// fixed width so that TEXT ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var _ journal.Journal = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *slog.Logger
}

// PendingSyncSnapshot is the minimal data needed to enqueue a sync message.
type PendingSyncSnapshot struct {
	ID         int64
	RecordedAt time.Time
}

func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY on writes
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Record implements journal.SnapshotWriter and returns the row id as reference.
func (r *SQLiteRepository) Record(ctx context.Context, s core.NetWorthSnapshot) (string, error) {
	id, err := r.CreateSnapshot(ctx, s)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// CreateSnapshot inserts the snapshot and returns its database id.
func (r *SQLiteRepository) CreateSnapshot(ctx context.Context, s core.NetWorthSnapshot) (int64, error) {
	if err := s.Validate(); err != nil {
		return 0, fmt.Errorf("validate snapshot: %w", err)
	}

	row, err := r.queries.CreateSnapshot(ctx, CreateSnapshotParams{
		Ref:         s.Ref,
		RecordedAt:  s.RecordedAt.UTC().Format(timeLayout),
		Assets:      s.Assets.String(),
		Liabilities: s.Liabilities.String(),
		Goal:        s.Goal.String(),
		NetWorth:    s.NetWorth.String(),
	})
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}

	r.logger.InfoContext(ctx, "Snapshot saved to SQLite",
		"id", row.ID,
		"snapshot_ref", row.Ref,
		"net_worth", row.NetWorth)
	return row.ID, nil
}

// GetSnapshot loads a snapshot by id.
func (r *SQLiteRepository) GetSnapshot(ctx context.Context, id int64) (core.NetWorthSnapshot, error) {
	row, err := r.queries.GetSnapshot(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NetWorthSnapshot{}, fmt.Errorf("snapshot %d: %w", id, ErrSnapshotNotFound)
	}
	if err != nil {
		return core.NetWorthSnapshot{}, fmt.Errorf("get snapshot by id: %w", err)
	}
	return toDomain(row)
}

// ListSnapshots implements journal.SnapshotLister.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, limit int) ([]core.NetWorthSnapshot, error) {
	n := int64(limit)
	if limit <= 0 {
		n = -1
	}
	rows, err := r.queries.ListSnapshots(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]core.NetWorthSnapshot, 0, len(rows))
	for _, row := range rows {
		s, err := toDomain(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// GetPendingSyncSnapshots returns snapshots that still need exporting, oldest first.
func (r *SQLiteRepository) GetPendingSyncSnapshots(ctx context.Context, limit int) ([]PendingSyncSnapshot, error) {
	rows, err := r.queries.GetPendingSyncSnapshots(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync snapshots: %w", err)
	}
	out := make([]PendingSyncSnapshot, 0, len(rows))
	for _, row := range rows {
		at, err := time.Parse(timeLayout, row.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d recorded_at: %w", row.ID, err)
		}
		out = append(out, PendingSyncSnapshot{ID: row.ID, RecordedAt: at})
	}
	return out, nil
}

// MarkSynced marks a snapshot as exported and stores the export reference.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64, exportRef string) error {
	n, err := r.queries.MarkSnapshotSynced(ctx, exportRef, id)
	if err != nil {
		return fmt.Errorf("mark snapshot synced: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snapshot %d: %w", id, ErrSnapshotNotFound)
	}
	r.logger.InfoContext(ctx, "Snapshot marked as synced", "id", id, "export_ref", exportRef)
	return nil
}

// MarkSyncError marks a snapshot whose export failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	n, err := r.queries.MarkSnapshotSyncError(ctx, id)
	if err != nil {
		return fmt.Errorf("mark snapshot sync error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snapshot %d: %w", id, ErrSnapshotNotFound)
	}
	r.logger.WarnContext(ctx, "Snapshot marked with sync error", "id", id)
	return nil
}

// RetryFailed moves snapshots in error back to pending and returns how many moved.
func (r *SQLiteRepository) RetryFailed(ctx context.Context) (int64, error) {
	n, err := r.queries.ResetSyncErrors(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset sync errors: %w", err)
	}
	return n, nil
}

// SyncCounts returns the number of snapshots per sync status.
func (r *SQLiteRepository) SyncCounts(ctx context.Context) (map[core.SyncStatus]int64, error) {
	raw, err := r.queries.CountSnapshotsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count snapshots by status: %w", err)
	}
	out := make(map[core.SyncStatus]int64, len(raw))
	for k, v := range raw {
		out[core.SyncStatus(k)] = v
	}
	return out, nil
}

func toDomain(row Snapshot) (core.NetWorthSnapshot, error) {
	at, err := time.Parse(timeLayout, row.RecordedAt)
	if err != nil {
		return core.NetWorthSnapshot{}, fmt.Errorf("snapshot %d recorded_at: %w", row.ID, err)
	}
	amounts := make([]decimal.Decimal, 4)
	for i, raw := range []string{row.Assets, row.Liabilities, row.Goal, row.NetWorth} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return core.NetWorthSnapshot{}, fmt.Errorf("snapshot %d amount %q: %w", row.ID, raw, err)
		}
		amounts[i] = d
	}
	return core.NetWorthSnapshot{
		ID:          row.ID,
		Ref:         row.Ref,
		RecordedAt:  at,
		Assets:      amounts[0],
		Liabilities: amounts[1],
		Goal:        amounts[2],
		NetWorth:    amounts[3],
		SyncStatus:  core.SyncStatus(row.SyncStatus),
	}, nil
}
