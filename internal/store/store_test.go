package store

import (
	"context"
	"testing"
)

func TestOpen_CreatesSchema(t *testing.T) {
	l, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer l.Close()

	for _, table := range []string{"runs", "circuits", "mismatches"} {
		var count int
		if err := l.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("query %s failed: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s has %d rows, want 0", table, count)
		}
	}
}

func TestOpen_Pragmas(t *testing.T) {
	l, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer l.Close()

	if err := l.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
	if err := l.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestOpen_LedgersAreIsolated(t *testing.T) {
	a := createTestLedger(t)

	b, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer b.Close()

	if _, err := a.Run(context.Background(), "run-1"); err != nil {
		t.Fatalf("Run() on first ledger failed: %v", err)
	}
	if _, err := b.Run(context.Background(), "run-1"); err == nil {
		t.Error("second ledger sees the first ledger's run")
	}
}

func TestClose_Idempotent(t *testing.T) {
	l := &Ledger{}
	if err := l.Close(); err != nil {
		t.Errorf("Close() on empty ledger: %v", err)
	}
}
