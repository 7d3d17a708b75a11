package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Period statuses as they appear in the Periods database.
const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
	StatusPaid   Status = "Paid"
)

// The two partner side-ledgers, each with its own type vocabulary.
const (
	LedgerFred   LedgerID = "fred"
	LedgerSylvie LedgerID = "sylvie"
)

type (
	Status string

	LedgerID string

	// Period is one settlement cycle. Status is advisory metadata, not a
	// transition gate. Notes may embed override annotations consumed by the
	// settlement package.
	Period struct {
		Name          string
		Status        Status
		StartDate     time.Time
		EndDate       time.Time
		TotalRevenue  decimal.Decimal
		TotalExpenses decimal.Decimal
		Notes         string
	}

	Revenue struct {
		Description string
		Amount      decimal.Decimal
		Date        time.Time
		Period      string
	}

	Expense struct {
		Description string
		Amount      decimal.Decimal
		Date        time.Time
		Category    string
		Source      string
		Period      string
		Notes       string
	}

	// LedgerEntry is one dated line in a partner ledger. Entries are
	// append-only; balances are derived folds, never stored.
	LedgerEntry struct {
		Description string
		Amount      decimal.Decimal
		Date        time.Time
		Type        string
		Notes       string
	}
)

// Ledger type vocabularies. Fred's ledger tracks deductions Jeff paid on his
// behalf and how they were settled; Sylvie's tracks what she is owed vs paid.
var (
	FredLedgerTypes   = []string{"Expense", "Payment", "Advance", "Settlement"}
	SylvieLedgerTypes = []string{"Credit", "Debit", "Payment"}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrUnknownLedger      = errors.New("unknown ledger")
	ErrInvalidType        = errors.New("invalid ledger entry type")
)

// Types returns the type vocabulary for a ledger, or nil for an unknown one.
func (id LedgerID) Types() []string {
	switch id {
	case LedgerFred:
		return FredLedgerTypes
	case LedgerSylvie:
		return SylvieLedgerTypes
	}
	return nil
}

func (id LedgerID) Valid() bool { return id.Types() != nil }

func validateCommon(desc string, amount decimal.Decimal, date time.Time) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len(desc) > 200 {
		return ErrDescriptionTooLong
	}
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (r Revenue) Validate() error {
	return validateCommon(r.Description, r.Amount, r.Date)
}

func (e Expense) Validate() error {
	return validateCommon(e.Description, e.Amount, e.Date)
}

// Validate checks the entry against the given ledger's vocabulary.
func (le LedgerEntry) Validate(ledger LedgerID) error {
	if err := validateCommon(le.Description, le.Amount, le.Date); err != nil {
		return err
	}
	types := ledger.Types()
	if types == nil {
		return ErrUnknownLedger
	}
	for _, t := range types {
		if le.Type == t {
			return nil
		}
	}
	return ErrInvalidType
}

// Year returns the four-digit year of a record date, or "" for a zero date.
// The dashboard year filter matches on this.
func Year(date time.Time) string {
	if date.IsZero() {
		return ""
	}
	return date.Format("2006")
}
