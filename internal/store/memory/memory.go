// Package memory is an in-memory record store used for development and
// handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Djeyff/bamboojam-os/internal/core"
)

type Store struct {
	mu       sync.Mutex
	periods  []core.Period
	revenues []core.Revenue
	expenses []core.Expense
	ledgers  map[core.LedgerID][]core.LedgerEntry
}

func New() *Store {
	return &Store{ledgers: make(map[core.LedgerID][]core.LedgerEntry)}
}

// Seed replaces the store contents. Test helper; not safe to combine with
// concurrent readers.
func (s *Store) Seed(periods []core.Period, revenues []core.Revenue, expenses []core.Expense, ledgers map[core.LedgerID][]core.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods = periods
	s.revenues = revenues
	s.expenses = expenses
	s.ledgers = make(map[core.LedgerID][]core.LedgerEntry, len(ledgers))
	for id, entries := range ledgers {
		s.ledgers[id] = entries
	}
}

func (s *Store) ListPeriods(_ context.Context) ([]core.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Period(nil), s.periods...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EndDate.After(out[j].EndDate)
	})
	return out, nil
}

func (s *Store) ListRevenues(_ context.Context) ([]core.Revenue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Revenue(nil), s.revenues...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.Expense(nil), s.expenses...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) ListLedger(_ context.Context, ledger core.LedgerID) ([]core.LedgerEntry, error) {
	if !ledger.Valid() {
		return nil, core.ErrUnknownLedger
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.LedgerEntry(nil), s.ledgers[ledger]...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (s *Store) AppendRevenue(_ context.Context, r core.Revenue) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revenues = append(s.revenues, r)
	return fmt.Sprintf("mem:revenue:%d", len(s.revenues)), nil
}

func (s *Store) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return fmt.Sprintf("mem:expense:%d", len(s.expenses)), nil
}

func (s *Store) AppendLedgerEntry(_ context.Context, ledger core.LedgerID, le core.LedgerEntry) (string, error) {
	if err := le.Validate(ledger); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[ledger] = append(s.ledgers[ledger], le)
	return fmt.Sprintf("mem:%s:%d", ledger, len(s.ledgers[ledger])), nil
}
