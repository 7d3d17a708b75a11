// Package worker drains the SQLite outbox into Notion.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Djeyff/bamboojam-os/internal/amqp"
	"github.com/Djeyff/bamboojam-os/internal/storage"
	"github.com/Djeyff/bamboojam-os/internal/store"
)

// SyncWorker pushes pending outbox entries to Notion. It drives two paths:
// AMQP messages announcing a fresh entry, and periodic sweeps that catch
// anything a lost message left behind.
type SyncWorker struct {
	outbox    *storage.SQLiteRepository
	writer    store.EntryWriter
	batchSize int
}

func NewSyncWorker(outbox *storage.SQLiteRepository, writer store.EntryWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		outbox:    outbox,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single entry sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID, "kind", msg.Kind)

	entry, err := w.outbox.GetPending(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// The row may have been swept already; dropping is safe.
		slog.WarnContext(ctx, "Sync message for unknown entry, dropping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get entry from outbox: %w", err)
	}
	if entry.SyncStatus == "synced" {
		slog.InfoContext(ctx, "Entry already synced, skipping", "id", msg.ID)
		return nil
	}

	return w.syncEntry(ctx, entry)
}

func (w *SyncWorker) syncEntry(ctx context.Context, entry storage.PendingEntry) error {
	var ref string
	var err error

	switch entry.Kind {
	case storage.KindRevenue:
		ref, err = w.writer.AppendRevenue(ctx, entry.Revenue())
	case storage.KindExpense:
		ref, err = w.writer.AppendExpense(ctx, entry.Expense())
	case storage.KindLedger:
		ledger, le := entry.LedgerEntry()
		ref, err = w.writer.AppendLedgerEntry(ctx, ledger, le)
	default:
		err = fmt.Errorf("unknown entry kind %q", entry.Kind)
	}

	if err != nil {
		if markErr := w.outbox.MarkSyncError(ctx, entry.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", entry.ID, "error", markErr)
		}
		return fmt.Errorf("sync entry %d to Notion: %w", entry.ID, err)
	}

	if err := w.outbox.MarkSynced(ctx, entry.ID, ref); err != nil {
		return fmt.Errorf("mark entry %d synced: %w", entry.ID, err)
	}

	slog.InfoContext(ctx, "Entry synced to Notion",
		"id", entry.ID,
		"kind", entry.Kind,
		"notion_ref", ref)
	return nil
}

// ProcessPending sweeps a batch of unsynced entries. This is the backup path
// for entries whose AMQP message was lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.outbox.ListPendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending entries", "count", len(pending))

	for _, entry := range pending {
		if err := w.syncEntry(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to sync entry", "id", entry.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck requeues errored entries and drains a large batch. Run
// once when the worker starts, to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	requeued, err := w.outbox.RequeueErrors(ctx)
	if err != nil {
		return fmt.Errorf("requeue errored entries: %w", err)
	}
	if requeued > 0 {
		slog.InfoContext(ctx, "Requeued errored entries for retry", "count", requeued)
	}

	pending, err := w.outbox.ListPendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending entries for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending entries on startup", "count", len(pending))

	successCount, errorCount := 0, 0
	for _, entry := range pending {
		if err := w.syncEntry(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Startup sync failed for entry", "id", entry.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync check completed",
		"synced", successCount,
		"errors", errorCount)
	return nil
}
