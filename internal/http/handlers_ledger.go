package http

import (
	"net/http"
	"strings"

	"github.com/Djeyff/bamboojam-os/internal/auth"
	"github.com/Djeyff/bamboojam-os/internal/core"
	"github.com/Djeyff/bamboojam-os/internal/settlement"
)

type ledgerRow struct {
	Description string
	Amount      string
	Date        string
	Type        string
	Notes       string
	Balance     string
}

type typeCount struct {
	Type  string
	Count int
}

type ledgerData struct {
	Role       string
	ShowFred   bool
	Count      int
	FilterType string
	Types      []typeCount

	// Sylvie summary
	TotalCredits string
	TotalDebits  string
	NetBalance   string
	NetNegative  bool

	// Fred summary
	Deductions  string
	Payments    string
	Advances    string
	Settlements string

	Rows []ledgerRow
}

// handleSylvieLedger renders Sylvie's personal account with a running
// balance. Credits add, every other type subtracts; rows display newest
// first.
func (s *Server) handleSylvieLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	entries := s.getLedger(r.Context(), core.LedgerSylvie)
	totals := settlement.TotalsByType(entries)
	net := settlement.SylvieBalance(entries)

	lines := settlement.RunningBalance(entries)
	rows := make([]ledgerRow, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		rows = append(rows, ledgerRow{
			Description: line.Entry.Description,
			Amount:      formatDOP(line.Entry.Amount),
			Date:        formatDate(line.Entry.Date),
			Type:        line.Entry.Type,
			Notes:       line.Entry.Notes,
			Balance:     formatDOP(line.Balance),
		})
	}

	role := auth.RoleFrom(r.Context())
	data := ledgerData{
		Role:         string(role),
		ShowFred:     auth.CanSeeFred(role),
		Count:        len(entries),
		TotalCredits: formatDOP(totals["Credit"]),
		TotalDebits:  formatDOP(totals["Debit"]),
		NetBalance:   formatDOP(net),
		NetNegative:  net.IsNegative(),
		Rows:         rows,
	}

	s.render(w, r, "sylvieledger.html", data)
}

// handleFredLedger renders Fred's balance account: deductions Jeff paid on
// his behalf and how they were settled. The gate already keeps Sylvie out.
func (s *Server) handleFredLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	entries := s.getLedger(r.Context(), core.LedgerFred)
	totals := settlement.TotalsByType(entries)
	filterType := strings.TrimSpace(r.URL.Query().Get("type"))

	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Type]++
	}
	types := make([]typeCount, 0, len(core.FredLedgerTypes))
	for _, t := range core.FredLedgerTypes {
		types = append(types, typeCount{Type: t, Count: counts[t]})
	}

	var rows []ledgerRow
	for _, e := range entries {
		if filterType != "" && e.Type != filterType {
			continue
		}
		rows = append(rows, ledgerRow{
			Description: e.Description,
			Amount:      formatDOP(e.Amount),
			Date:        formatDate(e.Date),
			Type:        e.Type,
			Notes:       e.Notes,
		})
	}

	role := auth.RoleFrom(r.Context())
	data := ledgerData{
		Role:        string(role),
		ShowFred:    auth.CanSeeFred(role),
		Count:       len(entries),
		FilterType:  filterType,
		Types:       types,
		Deductions:  formatDOP(totals["Expense"]),
		Payments:    formatDOP(totals["Payment"]),
		Advances:    formatDOP(totals["Advance"]),
		Settlements: formatDOP(totals["Settlement"]),
		Rows:        rows,
	}

	s.render(w, r, "fredledger.html", data)
}
