package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestCommissionStoreCreatePersistsFreeVerdict(t *testing.T) {
	ctx := context.Background()
	var gotQuery string
	var gotArgs []any
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			gotQuery = query
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}
	store := NewCommissionStore(stubDB{})
	err := store.Create(ctx, execer, CommissionInput{
		BookingID:        "booking-1",
		CleanerID:        "cleaner-1",
		Percentage:       "0.07",
		CommissionAmount: 0,
		IsFree:           false,
		Status:           "APPLIED",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "is_free") {
		t.Fatalf("insert should carry the free verdict: %s", gotQuery)
	}
	if gotArgs[4] != false {
		t.Fatalf("zero-amount paid job must insert is_free=false, got %v", gotArgs[4])
	}
}

func TestCommissionStoreSummarizeSplitsOnVerdict(t *testing.T) {
	ctx := context.Background()
	var gotQuery string
	db := stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			gotQuery = query
			return nil
		},
	}
	store := NewCommissionStore(db)
	if _, err := store.Summarize(ctx, "cleaner-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "FILTER (WHERE is_free)") {
		t.Fatalf("free jobs should filter on the recorded verdict: %s", gotQuery)
	}
	if strings.Contains(gotQuery, "commission_amount = 0") {
		t.Fatalf("summary must not infer free jobs from the amount: %s", gotQuery)
	}
}
