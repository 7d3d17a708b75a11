// Package entries routes new records either straight to Notion or through
// the local outbox for asynchronous sync.
package entries

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Djeyff/bamboojam-os/internal/amqp"
	"github.com/Djeyff/bamboojam-os/internal/core"
	"github.com/Djeyff/bamboojam-os/internal/storage"
	"github.com/Djeyff/bamboojam-os/internal/store"
)

// DirectSink writes synchronously to the backing store.
type DirectSink struct {
	writer store.EntryWriter
}

func NewDirectSink(writer store.EntryWriter) *DirectSink {
	return &DirectSink{writer: writer}
}

func (s *DirectSink) SubmitRevenue(ctx context.Context, r core.Revenue) (string, error) {
	return s.writer.AppendRevenue(ctx, r)
}

func (s *DirectSink) SubmitExpense(ctx context.Context, e core.Expense) (string, error) {
	return s.writer.AppendExpense(ctx, e)
}

func (s *DirectSink) SubmitLedgerEntry(ctx context.Context, ledger core.LedgerID, le core.LedgerEntry) (string, error) {
	return s.writer.AppendLedgerEntry(ctx, ledger, le)
}

// Publisher announces an outbox row to the sync queue.
type Publisher interface {
	PublishEntrySync(ctx context.Context, id int64, kind string) error
}

// OutboxSink lands entries in SQLite first and announces them over AMQP.
// A failed publish is tolerated: the worker's periodic sweep will find the
// row anyway.
type OutboxSink struct {
	outbox    *storage.SQLiteRepository
	publisher Publisher
}

func NewOutboxSink(outbox *storage.SQLiteRepository, publisher Publisher) *OutboxSink {
	return &OutboxSink{outbox: outbox, publisher: publisher}
}

func (s *OutboxSink) submit(ctx context.Context, id int64, kind string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if s.publisher != nil {
		if pubErr := s.publisher.PublishEntrySync(ctx, id, kind); pubErr != nil {
			slog.WarnContext(ctx, "Entry queued but publish failed, sweep will pick it up",
				"id", id,
				"kind", kind,
				"error", pubErr)
		}
	}
	return fmt.Sprintf("pending:%d", id), nil
}

func (s *OutboxSink) SubmitRevenue(ctx context.Context, r core.Revenue) (string, error) {
	id, err := s.outbox.CreatePendingRevenue(ctx, r)
	return s.submit(ctx, id, storage.KindRevenue, err)
}

func (s *OutboxSink) SubmitExpense(ctx context.Context, e core.Expense) (string, error) {
	id, err := s.outbox.CreatePendingExpense(ctx, e)
	return s.submit(ctx, id, storage.KindExpense, err)
}

func (s *OutboxSink) SubmitLedgerEntry(ctx context.Context, ledger core.LedgerID, le core.LedgerEntry) (string, error) {
	id, err := s.outbox.CreatePendingLedgerEntry(ctx, ledger, le)
	return s.submit(ctx, id, storage.KindLedger, err)
}

var _ Publisher = (*amqp.Client)(nil)
