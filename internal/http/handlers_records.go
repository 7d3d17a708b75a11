package http

import (
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Djeyff/bamboojam-os/internal/auth"
)

type revenueRow struct {
	Description string
	Amount      string
	Date        string
	Period      string
}

type monthRow struct {
	Month  string
	Amount string
	Width  int
}

type revenuesData struct {
	Role         string
	ShowFred     bool
	Count        int
	Total        string
	FilterPeriod string
	Periods      []string
	Monthly      []monthRow
	Rows         []revenueRow
}

// handleRevenues lists revenue records, filterable by settlement period, with
// a recent-months chart.
func (s *Server) handleRevenues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	revenues := s.getRevenues(r.Context())
	filterPeriod := strings.TrimSpace(r.URL.Query().Get("year"))

	periodSet := make(map[string]bool)
	for _, rev := range revenues {
		if rev.Period != "" {
			periodSet[rev.Period] = true
		}
	}
	periods := make([]string, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))

	total := decimal.Zero
	var rows []revenueRow
	monthly := make(map[string]decimal.Decimal)
	for _, rev := range revenues {
		if filterPeriod != "" && rev.Period != filterPeriod {
			continue
		}
		total = total.Add(rev.Amount)
		rows = append(rows, revenueRow{
			Description: rev.Description,
			Amount:      formatDOP(rev.Amount),
			Date:        formatDate(rev.Date),
			Period:      rev.Period,
		})
		month := "Unknown"
		if !rev.Date.IsZero() {
			month = rev.Date.Format("2006-01")
		}
		monthly[month] = monthly[month].Add(rev.Amount)
	}

	role := auth.RoleFrom(r.Context())
	data := revenuesData{
		Role:         string(role),
		ShowFred:     auth.CanSeeFred(role),
		Count:        len(rows),
		Total:        formatDOP(total),
		FilterPeriod: filterPeriod,
		Periods:      periods,
		Monthly:      monthlyRows(monthly),
		Rows:         rows,
	}

	s.render(w, r, "revenues.html", data)
}

// monthlyRows keeps the 12 most recent months, newest first.
func monthlyRows(monthly map[string]decimal.Decimal) []monthRow {
	months := make([]string, 0, len(monthly))
	var max decimal.Decimal
	for m, v := range monthly {
		months = append(months, m)
		if v.GreaterThan(max) {
			max = v
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	if len(months) > 12 {
		months = months[:12]
	}

	rows := make([]monthRow, 0, len(months))
	for _, m := range months {
		rows = append(rows, monthRow{
			Month:  m,
			Amount: formatDOP(monthly[m]),
			Width:  barWidth(monthly[m], max),
		})
	}
	return rows
}

type expenseRow struct {
	Description string
	Amount      string
	Date        string
	Category    string
	Source      string
	Period      string
}

type expensesData struct {
	Role           string
	ShowFred       bool
	Count          int
	Total          string
	OperatingTotal string
	TravauxTotal   string

	FilterPeriod   string
	FilterCategory string
	FilterSource   string
	Periods        []string
	Categories     []string

	Rows []expenseRow
}

// handleExpenses lists expense records with period, category and source
// filters. Sources split operating costs from renovation work (Travaux).
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	expenses := s.getExpenses(r.Context())
	q := r.URL.Query()
	filterPeriod := strings.TrimSpace(q.Get("year"))
	filterCategory := strings.TrimSpace(q.Get("category"))
	filterSource := strings.TrimSpace(q.Get("source"))

	periodSet := make(map[string]bool)
	categorySet := make(map[string]bool)

	total, opTotal, trTotal := decimal.Zero, decimal.Zero, decimal.Zero
	var rows []expenseRow
	for _, e := range expenses {
		category := e.Category
		if category == "" {
			category = "Other"
		}
		source := e.Source
		if source == "" {
			source = "Operating"
		}
		if e.Period != "" {
			periodSet[e.Period] = true
		}
		categorySet[category] = true

		if filterPeriod != "" && e.Period != filterPeriod {
			continue
		}
		if filterCategory != "" && category != filterCategory {
			continue
		}
		if filterSource != "" && source != filterSource {
			continue
		}

		total = total.Add(e.Amount)
		switch source {
		case "Operating":
			opTotal = opTotal.Add(e.Amount)
		case "Travaux":
			trTotal = trTotal.Add(e.Amount)
		}
		rows = append(rows, expenseRow{
			Description: e.Description,
			Amount:      formatDOP(e.Amount),
			Date:        formatDate(e.Date),
			Category:    category,
			Source:      source,
			Period:      e.Period,
		})
	}

	role := auth.RoleFrom(r.Context())
	data := expensesData{
		Role:           string(role),
		ShowFred:       auth.CanSeeFred(role),
		Count:          len(rows),
		Total:          formatDOP(total),
		OperatingTotal: formatDOP(opTotal),
		TravauxTotal:   formatDOP(trTotal),
		FilterPeriod:   filterPeriod,
		FilterCategory: filterCategory,
		FilterSource:   filterSource,
		Periods:        sortedKeys(periodSet, true),
		Categories:     sortedKeys(categorySet, false),
		Rows:           rows,
	}

	s.render(w, r, "expenses.html", data)
}

func sortedKeys(set map[string]bool, reverse bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	} else {
		sort.Strings(keys)
	}
	return keys
}
