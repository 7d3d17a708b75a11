package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Djeyff/bamboojam-os/internal/core"
)

const (
	cacheKeyPeriods  = "periods"
	cacheKeyRevenues = "revenues"
	cacheKeyExpenses = "expenses"
)

func cacheKeyLedger(id core.LedgerID) string { return "ledger:" + string(id) }

var templateFuncs = template.FuncMap{
	"money": formatDOP,
	"date":  formatDate,
}

// formatDOP formats an amount as Dominican pesos with thousands separators
// and no decimals, e.g. "RD$1,234,568". Fractions round half away from zero.
func formatDOP(d decimal.Decimal) string {
	rounded := d.Round(0)
	neg := rounded.IsNegative()
	digits := rounded.Abs().String()

	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}

	if neg {
		return "-RD$" + b.String()
	}
	return "RD$" + b.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// parseYear reads the year query parameter. Empty or malformed values mean
// no filter.
func parseYear(r *http.Request) string {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return ""
	}
	if _, err := strconv.Atoi(v); err != nil {
		return ""
	}
	return v
}

// sanitizeInput strips control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// Cached snapshot fetchers. A miss hits the backing store; failures fall
// back to an empty slice so one dead database never blanks the whole page.

func (s *Server) getPeriods(ctx context.Context) []core.Period {
	if cached, ok := s.periodsCache.Get(cacheKeyPeriods); ok {
		return cached
	}
	periods, err := s.readers.Periods.ListPeriods(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Periods fetch failed", "error", err)
		return nil
	}
	s.periodsCache.Set(cacheKeyPeriods, periods)
	return periods
}

func (s *Server) getRevenues(ctx context.Context) []core.Revenue {
	if cached, ok := s.revenuesCache.Get(cacheKeyRevenues); ok {
		return cached
	}
	revenues, err := s.readers.Revenues.ListRevenues(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Revenues fetch failed", "error", err)
		return nil
	}
	s.revenuesCache.Set(cacheKeyRevenues, revenues)
	return revenues
}

func (s *Server) getExpenses(ctx context.Context) []core.Expense {
	if cached, ok := s.expensesCache.Get(cacheKeyExpenses); ok {
		return cached
	}
	expenses, err := s.readers.Expenses.ListExpenses(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Expenses fetch failed", "error", err)
		return nil
	}
	s.expensesCache.Set(cacheKeyExpenses, expenses)
	return expenses
}

func (s *Server) getLedger(ctx context.Context, id core.LedgerID) []core.LedgerEntry {
	key := cacheKeyLedger(id)
	if cached, ok := s.ledgerCache.Get(key); ok {
		return cached
	}
	entries, err := s.readers.Ledgers.ListLedger(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "Ledger fetch failed", "ledger", string(id), "error", err)
		return nil
	}
	s.ledgerCache.Set(key, entries)
	return entries
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
