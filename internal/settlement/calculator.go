// Package settlement computes net revenue and the fixed-percentage revenue
// split for settlement periods, including the notes-embedded override
// protocol carried over from hand-computed historical periods.
package settlement

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/Djeyff/bamboojam-os/internal/auth"
	"github.com/Djeyff/bamboojam-os/internal/core"
)

// Fixed split policy: Sylvie takes 15% of net, the remaining 85% splits
// evenly between Jeff and Fred. Jeff's figure IS Fred's figure; the two are
// mirrored by policy, never computed independently.
var (
	sylviePct  = decimal.New(15, -2)  // 0.15
	partnerPct = decimal.New(425, -3) // 0.425
)

// Override annotations embedded in a period's free-text notes. Historical
// periods were back-filled with hand-computed nets that don't always equal
// revenue-expenses, so the annotation wins when present.
var (
	netOverrideRe    = regexp.MustCompile(`Net Revenue: ([0-9.]+)`)
	sylvieOverrideRe = regexp.MustCompile(`Sylvie 15%: ([0-9.]+)`)
)

// Shares is the per-period split. Net may be negative (it is displayed
// as-is); the three share figures are floored at zero. Fred's figure is a
// NullDecimal so redaction can remove it entirely rather than zeroing it.
type Shares struct {
	Net    decimal.Decimal
	Sylvie decimal.Decimal
	Jeff   decimal.Decimal
	Fred   decimal.NullDecimal
}

func parseOverride(re *regexp.Regexp, notes string) (decimal.Decimal, bool) {
	m := re.FindStringSubmatch(notes)
	if m == nil {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		// Malformed annotation text is treated as "no override present".
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseNetOverride extracts a "Net Revenue: <number>" annotation from notes.
func ParseNetOverride(notes string) (decimal.Decimal, bool) {
	return parseOverride(netOverrideRe, notes)
}

// ParseSylvieOverride extracts a "Sylvie 15%: <number>" annotation from
// notes. This is a share-specific override, distinct from the net override;
// when both are present it wins for Sylvie's figure only.
func ParseSylvieOverride(notes string) (decimal.Decimal, bool) {
	return parseOverride(sylvieOverrideRe, notes)
}

// Net returns the period's net revenue: the notes override when present,
// otherwise total revenue minus total expenses. No clamping; a loss period
// yields a negative net for display even though shares floor at zero.
func Net(p core.Period) decimal.Decimal {
	if override, ok := ParseNetOverride(p.Notes); ok {
		return override
	}
	return p.TotalRevenue.Sub(p.TotalExpenses)
}

// Compute returns the period's split. Shares are percentages of max(0, net):
// no one owes back on a loss period.
func Compute(p core.Period) Shares {
	net := Net(p)
	base := net
	if base.IsNegative() {
		base = decimal.Zero
	}
	partner := base.Mul(partnerPct)
	return Shares{
		Net:    net,
		Sylvie: base.Mul(sylviePct),
		Jeff:   partner,
		Fred:   decimal.NullDecimal{Decimal: partner, Valid: true},
	}
}

// SylvieShare returns Sylvie's figure for the period with override
// precedence: a "Sylvie 15%" annotation is authoritative as written;
// otherwise the formulaic 15%-of-net path applies. Jeff's and Fred's figures
// are unaffected by this override.
func SylvieShare(p core.Period) decimal.Decimal {
	if override, ok := ParseSylvieOverride(p.Notes); ok {
		return override
	}
	return Compute(p).Sylvie
}

// Aggregate sums nets and shares across periods. Order is irrelevant, and an
// empty input yields all-zero totals. Sylvie's total honors per-period share
// overrides; Jeff's and Fred's totals always derive from net.
func Aggregate(periods []core.Period) Shares {
	total := Shares{
		Net:    decimal.Zero,
		Sylvie: decimal.Zero,
		Jeff:   decimal.Zero,
		Fred:   decimal.NullDecimal{Decimal: decimal.Zero, Valid: true},
	}
	for _, p := range periods {
		s := Compute(p)
		total.Net = total.Net.Add(s.Net)
		total.Sylvie = total.Sylvie.Add(SylvieShare(p))
		total.Jeff = total.Jeff.Add(s.Jeff)
		total.Fred.Decimal = total.Fred.Decimal.Add(s.Fred.Decimal)
	}
	return total
}

// Redact removes Fred's figure for viewers who may not see it. Net, Sylvie
// and Jeff remain; only the Fred field (and the mirrored comparison it
// enables) is dropped.
func Redact(s Shares, role auth.Role) Shares {
	if !auth.CanSeeFred(role) {
		s.Fred = decimal.NullDecimal{}
	}
	return s
}
