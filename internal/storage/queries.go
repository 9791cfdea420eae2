package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL statements of the snapshot journal.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Snapshot is a row of the snapshots table. Amounts are decimal strings.
type Snapshot struct {
	ID          int64
	Ref         string
	RecordedAt  string
	Assets      string
	Liabilities string
	Goal        string
	NetWorth    string
	CreatedAt   string
	SyncStatus  string
	SyncedAt    sql.NullString
	ExportRef   sql.NullString
}

const snapshotColumns = `id, ref, recorded_at, assets, liabilities, goal, net_worth, created_at, sync_status, synced_at, export_ref`

func scanSnapshot(row interface{ Scan(...any) error }) (Snapshot, error) {
	var s Snapshot
	err := row.Scan(
		&s.ID,
		&s.Ref,
		&s.RecordedAt,
		&s.Assets,
		&s.Liabilities,
		&s.Goal,
		&s.NetWorth,
		&s.CreatedAt,
		&s.SyncStatus,
		&s.SyncedAt,
		&s.ExportRef,
	)
	return s, err
}

const createSnapshot = `
INSERT INTO snapshots (ref, recorded_at, assets, liabilities, goal, net_worth)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + snapshotColumns

type CreateSnapshotParams struct {
	Ref         string
	RecordedAt  string
	Assets      string
	Liabilities string
	Goal        string
	NetWorth    string
}

func (q *Queries) CreateSnapshot(ctx context.Context, arg CreateSnapshotParams) (Snapshot, error) {
	row := q.db.QueryRowContext(ctx, createSnapshot,
		arg.Ref,
		arg.RecordedAt,
		arg.Assets,
		arg.Liabilities,
		arg.Goal,
		arg.NetWorth,
	)
	return scanSnapshot(row)
}

const getSnapshot = `SELECT ` + snapshotColumns + ` FROM snapshots WHERE id = ?`

func (q *Queries) GetSnapshot(ctx context.Context, id int64) (Snapshot, error) {
	return scanSnapshot(q.db.QueryRowContext(ctx, getSnapshot, id))
}

const listSnapshots = `SELECT ` + snapshotColumns + ` FROM snapshots ORDER BY recorded_at DESC, id DESC LIMIT ?`

func (q *Queries) ListSnapshots(ctx context.Context, limit int64) ([]Snapshot, error) {
	return q.list(ctx, listSnapshots, limit)
}

const getPendingSyncSnapshots = `SELECT ` + snapshotColumns + ` FROM snapshots WHERE sync_status = 'pending' ORDER BY id LIMIT ?`

func (q *Queries) GetPendingSyncSnapshots(ctx context.Context, limit int64) ([]Snapshot, error) {
	return q.list(ctx, getPendingSyncSnapshots, limit)
}

func (q *Queries) list(ctx context.Context, query string, args ...any) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markSnapshotSynced = `
UPDATE snapshots
SET sync_status = 'synced', synced_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now'), export_ref = ?
WHERE id = ?`

func (q *Queries) MarkSnapshotSynced(ctx context.Context, exportRef string, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markSnapshotSynced, exportRef, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const markSnapshotSyncError = `UPDATE snapshots SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkSnapshotSyncError(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markSnapshotSyncError, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const resetSyncErrors = `UPDATE snapshots SET sync_status = 'pending' WHERE sync_status = 'error'`

func (q *Queries) ResetSyncErrors(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, resetSyncErrors)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countSnapshotsByStatus = `SELECT sync_status, COUNT(*) FROM snapshots GROUP BY sync_status`

func (q *Queries) CountSnapshotsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx, countSnapshotsByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
