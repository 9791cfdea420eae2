package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "finboard.db")
	repo, err := NewSQLiteRepository(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func snapshotAt(assets, liabilities string, at time.Time) core.NetWorthSnapshot {
	a, _ := decimal.NewFromString(assets)
	l, _ := decimal.NewFromString(liabilities)
	r := core.CalculateNetWorth(core.NetWorthInput{Assets: a, Liabilities: l, Goal: decimal.NewFromInt(10000)})
	return core.NewNetWorthSnapshot(r, at)
}

func TestSQLiteRepository_RecordAndGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2024, 5, 31, 10, 30, 0, 123, time.UTC)

	s := snapshotAt("5000.25", "2000.10", at)
	id, err := repo.CreateSnapshot(ctx, s)
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}

	got, err := repo.GetSnapshot(ctx, id)
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if got.Ref != s.Ref || !got.RecordedAt.Equal(at) {
		t.Errorf("got ref=%s at=%v, want ref=%s at=%v", got.Ref, got.RecordedAt, s.Ref, at)
	}
	if !got.NetWorth.Equal(decimal.RequireFromString("3000.15")) {
		t.Errorf("NetWorth = %s, want 3000.15", got.NetWorth)
	}
	if got.SyncStatus != core.SyncPending {
		t.Errorf("SyncStatus = %s, want pending", got.SyncStatus)
	}
}

func TestSQLiteRepository_GetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.GetSnapshot(context.Background(), 42)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("expected ErrSnapshotNotFound, got %v", err)
	}
	if err := repo.MarkSynced(context.Background(), 42, "x"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("MarkSynced on missing row = %v", err)
	}
}

func TestSQLiteRepository_ListNewestFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := repo.Record(ctx, snapshotAt("100", "0", base.AddDate(0, i, 0))); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := repo.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].RecordedAt.Month() != time.March {
		t.Errorf("newest first expected, got %v", all[0].RecordedAt)
	}

	one, _ := repo.ListSnapshots(ctx, 1)
	if len(one) != 1 {
		t.Errorf("limit 1 returned %d rows", len(one))
	}
}

func TestSQLiteRepository_SyncLifecycle(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	id1, _ := repo.CreateSnapshot(ctx, snapshotAt("1", "0", now))
	id2, _ := repo.CreateSnapshot(ctx, snapshotAt("2", "0", now))

	pending, err := repo.GetPendingSyncSnapshots(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncSnapshots: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != id1 {
		t.Fatalf("pending = %+v", pending)
	}

	if err := repo.MarkSynced(ctx, id1, "'2024 Net Worth'!A2:F2"); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, id2); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}

	pending, _ = repo.GetPendingSyncSnapshots(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("expected no pending rows, got %d", len(pending))
	}

	counts, err := repo.SyncCounts(ctx)
	if err != nil {
		t.Fatalf("SyncCounts: %v", err)
	}
	if counts[core.SyncDone] != 1 || counts[core.SyncFailed] != 1 {
		t.Errorf("counts = %v", counts)
	}

	n, err := repo.RetryFailed(ctx)
	if err != nil || n != 1 {
		t.Errorf("RetryFailed = %d, %v", n, err)
	}
	got, _ := repo.GetSnapshot(ctx, id2)
	if got.SyncStatus != core.SyncPending {
		t.Errorf("status after retry = %s", got.SyncStatus)
	}
}

func TestSQLiteRepository_RejectsInvalid(t *testing.T) {
	repo, _ := newTestRepo(t)
	s := snapshotAt("10", "5", time.Now())
	s.Ref = ""
	if _, err := repo.CreateSnapshot(context.Background(), s); !errors.Is(err, core.ErrEmptyRef) {
		t.Errorf("expected ErrEmptyRef, got %v", err)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	_, path := newTestRepo(t)

	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}
	v, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 || dirty {
		t.Errorf("version = %d dirty=%v, want 2 clean", v, dirty)
	}
}
