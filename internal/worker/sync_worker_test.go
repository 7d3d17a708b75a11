package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Djeyff/bamboojam-os/internal/amqp"
	"github.com/Djeyff/bamboojam-os/internal/core"
	"github.com/Djeyff/bamboojam-os/internal/storage"
)

// flakyWriter fails the first n appends, then succeeds.
type flakyWriter struct {
	failures int
	appended []string
}

func (f *flakyWriter) append(desc string) (string, error) {
	if f.failures > 0 {
		f.failures--
		return "", errors.New("notion unavailable")
	}
	f.appended = append(f.appended, desc)
	return "page-" + desc, nil
}

func (f *flakyWriter) AppendRevenue(_ context.Context, r core.Revenue) (string, error) {
	return f.append(r.Description)
}

func (f *flakyWriter) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	return f.append(e.Description)
}

func (f *flakyWriter) AppendLedgerEntry(_ context.Context, _ core.LedgerID, le core.LedgerEntry) (string, error) {
	return f.append(le.Description)
}

func testOutbox(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "outbox.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func pendRevenue(t *testing.T, repo *storage.SQLiteRepository, desc string) int64 {
	t.Helper()
	id, err := repo.CreatePendingRevenue(context.Background(), core.Revenue{
		Description: desc,
		Amount:      decimal.NewFromInt(500),
		Date:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreatePendingRevenue: %v", err)
	}
	return id
}

func TestHandleSyncMessage(t *testing.T) {
	outbox := testOutbox(t)
	writer := &flakyWriter{}
	w := NewSyncWorker(outbox, writer, 10)
	ctx := context.Background()

	id := pendRevenue(t, outbox, "booking payout")

	msg := amqp.NewEntrySyncMessage(id, storage.KindRevenue)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}

	entry, err := outbox.GetPending(ctx, id)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if entry.SyncStatus != "synced" || entry.NotionRef != "page-booking payout" {
		t.Errorf("entry after sync = status %q ref %q", entry.SyncStatus, entry.NotionRef)
	}

	// Re-delivery of the same message is a no-op.
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Errorf("redelivered message should be dropped, got %v", err)
	}
	if len(writer.appended) != 1 {
		t.Errorf("writer called %d times, want 1", len(writer.appended))
	}
}

func TestHandleSyncMessageUnknownEntry(t *testing.T) {
	w := NewSyncWorker(testOutbox(t), &flakyWriter{}, 10)
	msg := amqp.NewEntrySyncMessage(404, storage.KindRevenue)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Errorf("unknown entry should be dropped without error, got %v", err)
	}
}

func TestHandleSyncMessageWriterFailure(t *testing.T) {
	outbox := testOutbox(t)
	w := NewSyncWorker(outbox, &flakyWriter{failures: 1}, 10)
	ctx := context.Background()

	id := pendRevenue(t, outbox, "deposit")

	if err := w.HandleSyncMessage(ctx, amqp.NewEntrySyncMessage(id, storage.KindRevenue)); err == nil {
		t.Fatal("expected error from failing writer")
	}

	entry, _ := outbox.GetPending(ctx, id)
	if entry.SyncStatus != "error" {
		t.Errorf("entry status = %q, want error", entry.SyncStatus)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	outbox := testOutbox(t)
	writer := &flakyWriter{}
	w := NewSyncWorker(outbox, writer, 10)
	ctx := context.Background()

	idA := pendRevenue(t, outbox, "alpha")
	idB := pendRevenue(t, outbox, "beta")
	// An entry that previously failed gets another chance on startup.
	if err := outbox.MarkSyncError(ctx, idA); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}

	for _, id := range []int64{idA, idB} {
		entry, err := outbox.GetPending(ctx, id)
		if err != nil {
			t.Fatalf("GetPending(%d): %v", id, err)
		}
		if entry.SyncStatus != "synced" {
			t.Errorf("entry %d status = %q, want synced", id, entry.SyncStatus)
		}
	}
	if len(writer.appended) != 2 {
		t.Errorf("writer called %d times, want 2", len(writer.appended))
	}
}

func TestProcessPendingEmpty(t *testing.T) {
	w := NewSyncWorker(testOutbox(t), &flakyWriter{}, 10)
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Errorf("ProcessPending on empty outbox: %v", err)
	}
}
