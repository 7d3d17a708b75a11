// Package store defines the ports over the external record store. The core
// only needs read access to four field shapes (title, amount, date,
// select/type, notes); the storage format stays behind these interfaces.
package store

import (
	"context"

	"github.com/Djeyff/bamboojam-os/internal/core"
)

// Ports for outbound adapters.
type (
	PeriodReader interface {
		// ListPeriods returns all settlement periods, newest end date first.
		ListPeriods(ctx context.Context) ([]core.Period, error)
	}

	RevenueReader interface {
		ListRevenues(ctx context.Context) ([]core.Revenue, error)
	}

	ExpenseReader interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	LedgerReader interface {
		// ListLedger returns one partner ledger, newest first. An unknown
		// ledger is an error; an unconfigured one returns an empty slice.
		ListLedger(ctx context.Context, ledger core.LedgerID) ([]core.LedgerEntry, error)
	}

	// EntryWriter appends new records. Returned refs identify the created
	// record in the backing store.
	EntryWriter interface {
		AppendRevenue(ctx context.Context, r core.Revenue) (ref string, err error)
		AppendExpense(ctx context.Context, e core.Expense) (ref string, err error)
		AppendLedgerEntry(ctx context.Context, ledger core.LedgerID, le core.LedgerEntry) (ref string, err error)
	}
)
