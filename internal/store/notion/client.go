// Package notion adapts the Notion API to the store ports. Each record set
// lives in its own Notion database; an unconfigured database ID yields empty
// results rather than errors so partially-configured deployments degrade to
// empty views.
package notion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jomei/notionapi"

	"github.com/Djeyff/bamboojam-os/internal/core"
	"github.com/Djeyff/bamboojam-os/internal/store"
)

const (
	// Notion caps query pages at 100 results.
	queryPageSize = 100
	// Hard cap on rows fetched per database, matching the original
	// deployment's guard against runaway pagination.
	maxRows = 2000
)

// DatabaseIDs maps each record set to its Notion database.
type DatabaseIDs struct {
	Expenses     string
	Revenues     string
	Periods      string
	SylvieLedger string
	FredLedger   string
}

type Client struct {
	api *notionapi.Client
	dbs DatabaseIDs
}

// Ensure interface conformance
var (
	_ store.PeriodReader  = (*Client)(nil)
	_ store.RevenueReader = (*Client)(nil)
	_ store.ExpenseReader = (*Client)(nil)
	_ store.LedgerReader  = (*Client)(nil)
	_ store.EntryWriter   = (*Client)(nil)
)

func NewClient(token string, dbs DatabaseIDs) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("missing notion token")
	}
	return &Client{
		api: notionapi.NewClient(notionapi.Token(token)),
		dbs: dbs,
	}, nil
}

// queryAll pages through a database query until exhaustion or the row cap.
func (c *Client) queryAll(ctx context.Context, dbID string, sorts []notionapi.SortObject) ([]notionapi.Page, error) {
	if dbID == "" {
		return nil, nil
	}

	var all []notionapi.Page
	var cursor notionapi.Cursor
	for {
		resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), &notionapi.DatabaseQueryRequest{
			Sorts:       sorts,
			StartCursor: cursor,
			PageSize:    queryPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("query database %s: %w", dbID, err)
		}
		all = append(all, resp.Results...)
		if !resp.HasMore || len(all) >= maxRows {
			if len(all) >= maxRows {
				slog.WarnContext(ctx, "Row cap reached, truncating query",
					"database", dbID,
					"rows", len(all))
			}
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

func sortBy(property string) []notionapi.SortObject {
	return []notionapi.SortObject{{Property: property, Direction: notionapi.SortOrderDESC}}
}

func (c *Client) ListPeriods(ctx context.Context) ([]core.Period, error) {
	pages, err := c.queryAll(ctx, c.dbs.Periods, sortBy("End Date"))
	if err != nil {
		return nil, err
	}
	out := make([]core.Period, 0, len(pages))
	for _, p := range pages {
		out = append(out, core.Period{
			Name:          pageTitle(p),
			Status:        core.Status(pageSelect(p, "Status")),
			StartDate:     pageDate(p, "Start Date"),
			EndDate:       pageDate(p, "End Date"),
			TotalRevenue:  pageNumber(p, "Total Revenue"),
			TotalExpenses: pageNumber(p, "Total Expenses"),
			Notes:         pageText(p, "Notes"),
		})
	}
	return out, nil
}

func (c *Client) ListRevenues(ctx context.Context) ([]core.Revenue, error) {
	pages, err := c.queryAll(ctx, c.dbs.Revenues, sortBy("Date"))
	if err != nil {
		return nil, err
	}
	out := make([]core.Revenue, 0, len(pages))
	for _, p := range pages {
		out = append(out, core.Revenue{
			Description: pageTitle(p),
			Amount:      pageNumber(p, "Amount"),
			Date:        pageDate(p, "Date"),
			Period:      pageSelect(p, "Period"),
		})
	}
	return out, nil
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	pages, err := c.queryAll(ctx, c.dbs.Expenses, sortBy("Date"))
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(pages))
	for _, p := range pages {
		amount := pageNumber(p, "Amount")
		if amount.IsZero() {
			// Some historical rows carry the amount under "Total".
			amount = pageNumber(p, "Total")
		}
		out = append(out, core.Expense{
			Description: pageTitle(p),
			Amount:      amount,
			Date:        pageDate(p, "Date"),
			Category:    pageSelect(p, "Category"),
			Source:      pageSelect(p, "Source"),
			Period:      pageSelect(p, "Period"),
			Notes:       pageText(p, "Notes"),
		})
	}
	return out, nil
}

func (c *Client) ledgerDB(ledger core.LedgerID) (string, error) {
	switch ledger {
	case core.LedgerFred:
		return c.dbs.FredLedger, nil
	case core.LedgerSylvie:
		return c.dbs.SylvieLedger, nil
	}
	return "", core.ErrUnknownLedger
}

func (c *Client) ListLedger(ctx context.Context, ledger core.LedgerID) ([]core.LedgerEntry, error) {
	dbID, err := c.ledgerDB(ledger)
	if err != nil {
		return nil, err
	}
	pages, err := c.queryAll(ctx, dbID, sortBy("Date"))
	if err != nil {
		return nil, err
	}
	out := make([]core.LedgerEntry, 0, len(pages))
	for _, p := range pages {
		typ := pageSelect(p, "Type")
		if typ == "" {
			// Untagged rows default to the ledger's first vocabulary entry
			// (Expense for Fred, Credit for Sylvie), as the original did.
			typ = ledger.Types()[0]
		}
		out = append(out, core.LedgerEntry{
			Description: pageTitle(p),
			Amount:      pageNumber(p, "Amount"),
			Date:        pageDate(p, "Date"),
			Type:        typ,
			Notes:       pageText(p, "Notes"),
		})
	}
	return out, nil
}

func (c *Client) create(ctx context.Context, dbID string, props notionapi.Properties) (string, error) {
	if dbID == "" {
		return "", fmt.Errorf("database not configured")
	}
	page, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
	})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	return string(page.ID), nil
}

func (c *Client) AppendRevenue(ctx context.Context, r core.Revenue) (string, error) {
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	props := notionapi.Properties{
		"Description": titleProp(r.Description),
		"Amount":      numberProp(r.Amount),
		"Date":        dateProp(r.Date),
	}
	if r.Period != "" {
		props["Period"] = selectProp(r.Period)
	}
	ref, err := c.create(ctx, c.dbs.Revenues, props)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Revenue created in Notion",
		"description", r.Description,
		"amount", r.Amount.String(),
		"notion_ref", ref)
	return ref, nil
}

func (c *Client) AppendExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	props := notionapi.Properties{
		"Description": titleProp(e.Description),
		"Amount":      numberProp(e.Amount),
		"Date":        dateProp(e.Date),
	}
	if e.Period != "" {
		props["Period"] = selectProp(e.Period)
	}
	if e.Category != "" {
		props["Category"] = selectProp(e.Category)
	}
	if e.Source != "" {
		props["Source"] = selectProp(e.Source)
	}
	if e.Notes != "" {
		props["Notes"] = richTextProp(e.Notes)
	}
	ref, err := c.create(ctx, c.dbs.Expenses, props)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Expense created in Notion",
		"description", e.Description,
		"amount", e.Amount.String(),
		"category", e.Category,
		"notion_ref", ref)
	return ref, nil
}

func (c *Client) AppendLedgerEntry(ctx context.Context, ledger core.LedgerID, le core.LedgerEntry) (string, error) {
	if err := le.Validate(ledger); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	dbID, err := c.ledgerDB(ledger)
	if err != nil {
		return "", err
	}
	props := notionapi.Properties{
		"Description": titleProp(le.Description),
		"Amount":      numberProp(le.Amount),
		"Date":        dateProp(le.Date),
		"Type":        selectProp(le.Type),
	}
	if le.Notes != "" {
		props["Notes"] = richTextProp(le.Notes)
	}
	ref, err := c.create(ctx, dbID, props)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Ledger entry created in Notion",
		"ledger", string(ledger),
		"type", le.Type,
		"amount", le.Amount.String(),
		"notion_ref", ref)
	return ref, nil
}
