package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

type fakeStore struct {
	nextID  int64
	err     error
	saved   []core.NetWorthSnapshot
	closed  bool
	closeEr error
}

func (f *fakeStore) CreateSnapshot(_ context.Context, s core.NetWorthSnapshot) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.nextID++
	f.saved = append(f.saved, s)
	return f.nextID, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return f.closeEr
}

type fakePublisher struct {
	published []int64
	err       error
	closed    bool
}

func (f *fakePublisher) PublishSnapshotSync(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func testSnapshot() core.NetWorthSnapshot {
	report := core.CalculateNetWorth(core.NetWorthInput{
		Assets:      decimal.NewFromInt(5000),
		Liabilities: decimal.NewFromInt(2000),
		Goal:        decimal.NewFromInt(10000),
	})
	return core.NewNetWorthSnapshot(report, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestSnapshotService_RecordSnapshot(t *testing.T) {
	tests := []struct {
		name          string
		store         *fakeStore
		publisher     *fakePublisher
		wantRef       string
		wantErr       bool
		wantPublished int
	}{
		{
			name:          "saves and publishes",
			store:         &fakeStore{},
			publisher:     &fakePublisher{},
			wantRef:       "1",
			wantPublished: 1,
		},
		{
			name:      "publish failure does not fail the request",
			store:     &fakeStore{},
			publisher: &fakePublisher{err: errors.New("broker down")},
			wantRef:   "1",
		},
		{
			name:    "storage failure is returned",
			store:   &fakeStore{err: errors.New("disk full")},
			wantErr: true,
		},
		{
			name:    "no publisher configured",
			store:   &fakeStore{},
			wantRef: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pub SyncPublisher
			if tt.publisher != nil {
				pub = tt.publisher
			}
			svc := NewSnapshotService(tt.store, pub, nil)

			ref, err := svc.RecordSnapshot(context.Background(), testSnapshot())
			if (err != nil) != tt.wantErr {
				t.Fatalf("RecordSnapshot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), "save snapshot") {
					t.Errorf("error should be wrapped, got %v", err)
				}
				return
			}
			if ref != tt.wantRef {
				t.Errorf("RecordSnapshot() ref = %q, want %q", ref, tt.wantRef)
			}
			if tt.publisher != nil && len(tt.publisher.published) != tt.wantPublished {
				t.Errorf("published %d messages, want %d", len(tt.publisher.published), tt.wantPublished)
			}
		})
	}
}

func TestSnapshotService_Close(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := NewSnapshotService(store, pub, nil)

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !store.closed || !pub.closed {
		t.Errorf("Close() should close storage and publisher, got store=%v pub=%v", store.closed, pub.closed)
	}

	failing := NewSnapshotService(&fakeStore{closeEr: errors.New("locked")}, nil, nil)
	if err := failing.Close(); err == nil || !strings.Contains(err.Error(), "storage") {
		t.Errorf("Close() error = %v, want storage error", err)
	}
}
