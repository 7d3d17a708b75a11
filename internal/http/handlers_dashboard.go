package http

import (
	"net/http"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Djeyff/bamboojam-os/internal/auth"
	"github.com/Djeyff/bamboojam-os/internal/core"
	"github.com/Djeyff/bamboojam-os/internal/settlement"
)

type categoryRow struct {
	Name   string
	Amount string
	Width  int
}

type yearRow struct {
	Year   string
	Amount string
	Width  int
}

type periodRow struct {
	Name    string
	EndDate string
	Status  string
	Net     string
	Sylvie  string
	Jeff    string
	Fred    string
}

type dashboardData struct {
	Role     string
	ShowFred bool
	Year     string
	Years    []string

	TotalRevenue  string
	TotalExpenses string
	Net           string

	SylvieTotal string
	JeffTotal   string
	FredTotal   string

	ByCategory    []categoryRow
	RevenueByYear []yearRow
	Periods       []periodRow

	SylvieBalance string
	SylvieCredits string
	SylvieDebits  string
	SylvieCount   int

	FredDeductions string
	FredPayments   string
	FredCount      int
}

// handleDashboard renders the landing page: KPI cards, the partner split
// summary, the period table, category breakdown and ledger snapshots. Each
// record set is fetched concurrently; a failed fetch degrades to an empty
// section.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	role := auth.RoleFrom(ctx)
	showFred := auth.CanSeeFred(role)

	var (
		periods  []core.Period
		revenues []core.Revenue
		expenses []core.Expense
		sylvie   []core.LedgerEntry
		fred     []core.LedgerEntry
	)

	// Fetchers already swallow store errors, so the group never fails.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { periods = s.getPeriods(gctx); return nil })
	g.Go(func() error { revenues = s.getRevenues(gctx); return nil })
	g.Go(func() error { expenses = s.getExpenses(gctx); return nil })
	g.Go(func() error { sylvie = s.getLedger(gctx, core.LedgerSylvie); return nil })
	if showFred {
		g.Go(func() error { fred = s.getLedger(gctx, core.LedgerFred); return nil })
	}
	_ = g.Wait()

	year := parseYear(r)
	data := dashboardData{
		Role:     string(role),
		ShowFred: showFred,
		Year:     year,
		Years:    collectYears(revenues, expenses),
	}

	totalRevenue := decimal.Zero
	for _, rev := range revenues {
		if year == "" || core.Year(rev.Date) == year {
			totalRevenue = totalRevenue.Add(rev.Amount)
		}
	}
	totalExpenses := decimal.Zero
	for _, e := range expenses {
		if year == "" || core.Year(e.Date) == year {
			totalExpenses = totalExpenses.Add(e.Amount)
		}
	}
	data.TotalRevenue = formatDOP(totalRevenue)
	data.TotalExpenses = formatDOP(totalExpenses)
	data.Net = formatDOP(totalRevenue.Sub(totalExpenses))

	// Partner totals run over every settled period regardless of the year
	// filter; settlements span calendar years.
	shares := settlement.Redact(settlement.Aggregate(periods), role)
	data.SylvieTotal = formatDOP(shares.Sylvie)
	data.JeffTotal = formatDOP(shares.Jeff)
	if shares.Fred.Valid {
		data.FredTotal = formatDOP(shares.Fred.Decimal)
	}

	data.ByCategory = categoryBreakdown(expenses, year)
	data.RevenueByYear = revenueByYear(revenues)
	data.Periods = periodRows(periods, role)

	data.SylvieBalance = formatDOP(settlement.SylvieBalance(sylvie))
	sylvieTotals := settlement.TotalsByType(sylvie)
	data.SylvieCredits = formatDOP(sylvieTotals["Credit"])
	data.SylvieDebits = formatDOP(sylvieTotals["Debit"])
	data.SylvieCount = len(sylvie)

	if showFred {
		fredTotals := settlement.TotalsByType(fred)
		data.FredDeductions = formatDOP(fredTotals["Expense"])
		data.FredPayments = formatDOP(fredTotals["Payment"])
		data.FredCount = len(fred)
	}

	s.render(w, r, "dashboard.html", data)
}

func periodRows(periods []core.Period, role auth.Role) []periodRow {
	rows := make([]periodRow, 0, len(periods))
	for _, p := range periods {
		shares := settlement.Redact(settlement.Compute(p), role)
		row := periodRow{
			Name:    p.Name,
			EndDate: formatDate(p.EndDate),
			Status:  string(p.Status),
			Net:     formatDOP(settlement.Net(p)),
			Sylvie:  formatDOP(settlement.SylvieShare(p)),
			Jeff:    formatDOP(shares.Jeff),
		}
		if shares.Fred.Valid {
			row.Fred = formatDOP(shares.Fred.Decimal)
		}
		rows = append(rows, row)
	}
	return rows
}

// collectYears gathers the distinct record years for the filter dropdown,
// newest first.
func collectYears(revenues []core.Revenue, expenses []core.Expense) []string {
	seen := make(map[string]bool)
	for _, r := range revenues {
		if y := core.Year(r.Date); y != "" {
			seen[y] = true
		}
	}
	for _, e := range expenses {
		if y := core.Year(e.Date); y != "" {
			seen[y] = true
		}
	}
	years := make([]string, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

// categoryBreakdown sums expenses per category and scales bar widths to the
// largest one.
func categoryBreakdown(expenses []core.Expense, year string) []categoryRow {
	sums := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		if year != "" && core.Year(e.Date) != year {
			continue
		}
		cat := e.Category
		if cat == "" {
			cat = "Other"
		}
		sums[cat] = sums[cat].Add(e.Amount)
	}

	names := make([]string, 0, len(sums))
	var max decimal.Decimal
	for name, sum := range sums {
		names = append(names, name)
		if sum.GreaterThan(max) {
			max = sum
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return sums[names[i]].GreaterThan(sums[names[j]])
	})

	rows := make([]categoryRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, categoryRow{
			Name:   name,
			Amount: formatDOP(sums[name]),
			Width:  barWidth(sums[name], max),
		})
	}
	return rows
}

func revenueByYear(revenues []core.Revenue) []yearRow {
	sums := make(map[string]decimal.Decimal)
	var max decimal.Decimal
	for _, r := range revenues {
		y := core.Year(r.Date)
		if y == "" {
			continue
		}
		sums[y] = sums[y].Add(r.Amount)
		if sums[y].GreaterThan(max) {
			max = sums[y]
		}
	}
	years := make([]string, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Strings(years)

	rows := make([]yearRow, 0, len(years))
	for _, y := range years {
		rows = append(rows, yearRow{Year: y, Amount: formatDOP(sums[y]), Width: barWidth(sums[y], max)})
	}
	return rows
}

// barWidth scales a value against the column maximum as a rounded percent,
// keeping tiny nonzero values visible.
func barWidth(v, max decimal.Decimal) int {
	if !max.IsPositive() || !v.IsPositive() {
		return 0
	}
	width := int(v.Div(max).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}
