package core

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SyncPending SyncStatus = "pending"
	SyncDone    SyncStatus = "synced"
	SyncFailed  SyncStatus = "error"
)

type (
	SyncStatus string

	Date struct {
		time.Time
	}

	// CategoryAmount is one row of a category/amount table feeding a chart.
	CategoryAmount struct {
		Name   string
		Amount decimal.Decimal
	}

	// NetWorthSnapshot is a recorded net worth result. Values never change
	// after recording; only the sync bookkeeping does.
	NetWorthSnapshot struct {
		ID          int64 // Database ID, zero for the memory backend
		Ref         string
		RecordedAt  time.Time
		Assets      decimal.Decimal
		Liabilities decimal.Decimal
		Goal        decimal.Decimal
		NetWorth    decimal.Decimal
		SyncStatus  SyncStatus
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidNumber   = errors.New("invalid number")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrNoContributions = errors.New("no contribution data")
	ErrInvalidPolicy   = errors.New("invalid duplicate policy")
	ErrEmptyRef        = errors.New("empty snapshot reference")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// NewNetWorthSnapshot captures a computed report for the journal.
func NewNetWorthSnapshot(r NetWorthReport, at time.Time) NetWorthSnapshot {
	return NetWorthSnapshot{
		Ref:         uuid.NewString(),
		RecordedAt:  at.UTC(),
		Assets:      r.Input.Assets,
		Liabilities: r.Input.Liabilities,
		Goal:        r.Input.Goal,
		NetWorth:    r.NetWorth,
		SyncStatus:  SyncPending,
	}
}

func (s NetWorthSnapshot) Validate() error {
	if s.Ref == "" {
		return ErrEmptyRef
	}
	if s.RecordedAt.IsZero() {
		return ErrInvalidDate
	}
	if !s.NetWorth.Equal(NetWorth(s.Assets, s.Liabilities)) {
		return errors.New("net worth does not match assets minus liabilities")
	}
	return nil
}
