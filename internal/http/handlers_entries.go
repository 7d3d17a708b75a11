package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Djeyff/bamboojam-os/internal/core"
)

type entryRequest struct {
	Type        string `json:"type"` // revenue | expense | ledger
	Ledger      string `json:"ledger,omitempty"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"` // YYYY-MM-DD
	Category    string `json:"category,omitempty"`
	Source      string `json:"source,omitempty"`
	Period      string `json:"period,omitempty"`
	EntryType   string `json:"entryType,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type entryResponse struct {
	OK  bool   `json:"ok"`
	Ref string `json:"id,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// handleCreateEntry accepts a new record via JSON and hands it to the entry
// sink. With the outbox configured the write is queued locally and synced to
// Notion by the worker; otherwise it goes straight through.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.entries == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "entry submission not configured")
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	description := sanitizeInput(req.Description)
	period := sanitizeInput(req.Period)
	if period == "" {
		period = date.Format("2006")
	}

	ctx := r.Context()
	var ref string
	switch req.Type {
	case "revenue":
		ref, err = s.entries.SubmitRevenue(ctx, core.Revenue{
			Description: description,
			Amount:      amount,
			Date:        date,
			Period:      period,
		})
	case "expense":
		ref, err = s.entries.SubmitExpense(ctx, core.Expense{
			Description: description,
			Amount:      amount,
			Date:        date,
			Category:    sanitizeInput(req.Category),
			Source:      sanitizeInput(req.Source),
			Period:      period,
			Notes:       sanitizeInput(req.Notes),
		})
	case "ledger":
		ref, err = s.entries.SubmitLedgerEntry(ctx, core.LedgerID(req.Ledger), core.LedgerEntry{
			Description: description,
			Amount:      amount,
			Date:        date,
			Type:        sanitizeInput(req.EntryType),
			Notes:       sanitizeInput(req.Notes),
		})
	default:
		writeJSONError(w, http.StatusBadRequest, "unknown type: "+req.Type)
		return
	}

	if err != nil {
		if isValidationError(err) {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(ctx, "Failed to submit entry",
			"error", err,
			"type", req.Type,
			"description", description)
		writeJSONError(w, http.StatusInternalServerError, "failed to save entry")
		return
	}

	s.invalidateCaches()
	slog.InfoContext(ctx, "Entry submitted",
		"type", req.Type,
		"description", description,
		"amount", amount.String(),
		"ref", ref)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entryResponse{OK: true, Ref: ref})
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrInvalidDate) ||
		errors.Is(err, core.ErrEmptyDescription) ||
		errors.Is(err, core.ErrDescriptionTooLong) ||
		errors.Is(err, core.ErrUnknownLedger) ||
		errors.Is(err, core.ErrInvalidType)
}
