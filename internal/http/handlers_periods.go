package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Djeyff/bamboojam-os/internal/auth"
	"github.com/Djeyff/bamboojam-os/internal/settlement"
)

type periodsData struct {
	Role     string
	ShowFred bool
	Count    int

	TotalNet    string
	TotalSylvie string
	TotalJeff   string
	TotalFred   string

	Periods []periodRow
}

// handlePeriods renders the settlement history: one row per period with the
// computed split, plus running totals. Net totals may go negative; shares
// never do.
func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	role := auth.RoleFrom(r.Context())
	periods := s.getPeriods(r.Context())

	totalNet := decimal.Zero
	for _, p := range periods {
		totalNet = totalNet.Add(settlement.Net(p))
	}
	shares := settlement.Redact(settlement.Aggregate(periods), role)

	data := periodsData{
		Role:        string(role),
		ShowFred:    auth.CanSeeFred(role),
		Count:       len(periods),
		TotalNet:    formatDOP(totalNet),
		TotalSylvie: formatDOP(shares.Sylvie),
		TotalJeff:   formatDOP(shares.Jeff),
		Periods:     periodRows(periods, role),
	}
	if shares.Fred.Valid {
		data.TotalFred = formatDOP(shares.Fred.Decimal)
	}

	s.render(w, r, "periods.html", data)
}
