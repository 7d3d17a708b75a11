package settlement

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Djeyff/bamboojam-os/internal/core"
)

// BalanceLine is a ledger entry paired with the running balance after it.
type BalanceLine struct {
	Entry   core.LedgerEntry
	Balance decimal.Decimal
}

// TotalsByType sums entry amounts per type tag. Unknown tags are kept as-is;
// the store already normalizes missing tags to the ledger default.
func TotalsByType(entries []core.LedgerEntry) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, 4)
	for _, e := range entries {
		totals[e.Type] = totals[e.Type].Add(e.Amount)
	}
	return totals
}

// SylvieBalance is what the operation still owes Sylvie: credits accrued
// minus debits paid out. Payment entries are informational and excluded here.
func SylvieBalance(entries []core.LedgerEntry) decimal.Decimal {
	totals := TotalsByType(entries)
	return totals["Credit"].Sub(totals["Debit"])
}

// RunningBalance folds Sylvie's ledger in chronological order: credits add,
// every other type subtracts. The returned lines keep chronological order;
// callers reverse for newest-first display.
func RunningBalance(entries []core.LedgerEntry) []BalanceLine {
	sorted := make([]core.LedgerEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	lines := make([]BalanceLine, 0, len(sorted))
	running := decimal.Zero
	for _, e := range sorted {
		if e.Type == "Credit" {
			running = running.Add(e.Amount)
		} else {
			running = running.Sub(e.Amount)
		}
		lines = append(lines, BalanceLine{Entry: e, Balance: running})
	}
	return lines
}
