package settlement

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Djeyff/bamboojam-os/internal/auth"
	"github.com/Djeyff/bamboojam-os/internal/core"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func period(rev, exp string, notes string) core.Period {
	return core.Period{
		Name:          "Test Period",
		TotalRevenue:  dec(rev),
		TotalExpenses: dec(exp),
		Notes:         notes,
	}
}

func TestNetFormulaicPath(t *testing.T) {
	cases := []struct {
		name  string
		p     core.Period
		want  string
	}{
		{"plain", period("10000", "4000", ""), "6000"},
		{"zero both", period("0", "0", ""), "0"},
		{"loss stays negative", period("8000", "9000", ""), "-1000"},
		{"irrelevant notes", period("5000", "1000", "paid in cash"), "4000"},
		{"malformed override falls back", period("5000", "1000", "Net Revenue: n/a"), "4000"},
		{"unanchored key falls back", period("5000", "1000", "NetRevenue 1000"), "4000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Net(tc.p); !got.Equal(dec(tc.want)) {
				t.Errorf("Net = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestNetOverrideWins(t *testing.T) {
	p := period("5000", "1000", "Net Revenue: 1000")
	if got := Net(p); !got.Equal(dec("1000")) {
		t.Fatalf("Net = %s, want override 1000", got)
	}

	// Decimal override values are honored as written.
	p = period("0", "0", "back-filled. Net Revenue: 1234.50 (manual)")
	if got := Net(p); !got.Equal(dec("1234.50")) {
		t.Fatalf("Net = %s, want 1234.50", got)
	}
}

func TestComputeShares(t *testing.T) {
	s := Compute(period("10000", "4000", ""))
	if !s.Net.Equal(dec("6000")) {
		t.Fatalf("net = %s, want 6000", s.Net)
	}
	if !s.Sylvie.Equal(dec("900")) {
		t.Errorf("sylvie = %s, want 900", s.Sylvie)
	}
	if !s.Jeff.Equal(dec("2550")) {
		t.Errorf("jeff = %s, want 2550", s.Jeff)
	}
	if !s.Fred.Valid || !s.Fred.Decimal.Equal(s.Jeff) {
		t.Errorf("fred = %v, want mirror of jeff", s.Fred)
	}
}

func TestComputeSharesFloorOnLoss(t *testing.T) {
	// Displayed net stays negative; distributed shares cannot.
	s := Compute(period("8000", "9000", ""))
	if !s.Net.Equal(dec("-1000")) {
		t.Fatalf("net = %s, want -1000", s.Net)
	}
	for name, got := range map[string]decimal.Decimal{
		"sylvie": s.Sylvie, "jeff": s.Jeff, "fred": s.Fred.Decimal,
	} {
		if !got.IsZero() {
			t.Errorf("%s share on loss = %s, want 0", name, got)
		}
	}
}

func TestJeffAlwaysEqualsFred(t *testing.T) {
	periods := []core.Period{
		period("10000", "4000", ""),
		period("8000", "9000", ""),
		period("0", "0", "Net Revenue: 333.33"),
		period("7500", "2500", "Sylvie 15%: 999"),
	}
	for i, p := range periods {
		s := Compute(p)
		if !s.Fred.Valid || !s.Jeff.Equal(s.Fred.Decimal) {
			t.Errorf("period %d: jeff %s != fred %v", i, s.Jeff, s.Fred)
		}
	}
}

func TestSylvieShareOverridePrecedence(t *testing.T) {
	// Share-specific override beats the net override, but only for Sylvie.
	p := period("5000", "1000", "Net Revenue: 1000 / Sylvie 15%: 999")
	if got := SylvieShare(p); !got.Equal(dec("999")) {
		t.Fatalf("sylvie share = %s, want 999", got)
	}
	s := Compute(p)
	if !s.Jeff.Equal(dec("425")) || !s.Fred.Decimal.Equal(dec("425")) {
		t.Fatalf("jeff/fred = %s/%s, want 425 from net override", s.Jeff, s.Fred.Decimal)
	}

	// Without the share override, SylvieShare falls back to the formula.
	p = period("10000", "4000", "")
	if got := SylvieShare(p); !got.Equal(dec("900")) {
		t.Fatalf("sylvie share = %s, want formulaic 900", got)
	}
}

func TestAggregate(t *testing.T) {
	periods := []core.Period{
		period("10000", "4000", ""),
		period("8000", "9000", ""),
	}
	total := Aggregate(periods)

	// -1000 loss period counts against total net but contributes no shares.
	if !total.Net.Equal(dec("5000")) {
		t.Errorf("total net = %s, want 5000", total.Net)
	}
	if !total.Sylvie.Equal(dec("900")) {
		t.Errorf("total sylvie = %s, want 900", total.Sylvie)
	}
	if !total.Jeff.Equal(dec("2550")) {
		t.Errorf("total jeff = %s, want 2550", total.Jeff)
	}
	if !total.Fred.Valid || !total.Fred.Decimal.Equal(dec("2550")) {
		t.Errorf("total fred = %v, want 2550", total.Fred)
	}

	// Commutative: order must not matter.
	reversed := Aggregate([]core.Period{periods[1], periods[0]})
	if !reversed.Net.Equal(total.Net) || !reversed.Sylvie.Equal(total.Sylvie) {
		t.Error("aggregate depends on period order")
	}
}

func TestAggregateEmpty(t *testing.T) {
	total := Aggregate(nil)
	if !total.Net.IsZero() || !total.Sylvie.IsZero() || !total.Jeff.IsZero() {
		t.Fatalf("empty aggregate must be zero, got %+v", total)
	}
	if !total.Fred.Valid || !total.Fred.Decimal.IsZero() {
		t.Fatalf("empty aggregate fred must be zero, got %v", total.Fred)
	}
}

func TestRedact(t *testing.T) {
	s := Compute(period("10000", "4000", ""))

	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleFred} {
		r := Redact(s, role)
		if !r.Fred.Valid {
			t.Errorf("fred figure must stay visible for %q", role)
		}
	}
	for _, role := range []auth.Role{auth.RoleSylvie, auth.RoleNone} {
		r := Redact(s, role)
		if r.Fred.Valid {
			t.Errorf("fred figure must be removed for %q", role)
		}
		// Everything else stays.
		if !r.Net.Equal(s.Net) || !r.Sylvie.Equal(s.Sylvie) || !r.Jeff.Equal(s.Jeff) {
			t.Errorf("redaction for %q must not touch other fields", role)
		}
	}
}

func TestParseOverrides(t *testing.T) {
	cases := []struct {
		notes   string
		net     string
		sylvie  string
	}{
		{"", "", ""},
		{"Net Revenue: 1000", "1000", ""},
		{"Sylvie 15%: 450", "", "450"},
		{"Net Revenue: 1000 / Sylvie 15%: 450", "1000", "450"},
		{"closed early; Net Revenue: 2500.75", "2500.75", ""},
		{"Net Revenue: abc", "", ""},
		{"Net Revenue: 1.2.3", "", ""}, // matched text unparseable: no override
	}
	for _, tc := range cases {
		t.Run(tc.notes, func(t *testing.T) {
			got, ok := ParseNetOverride(tc.notes)
			if (tc.net != "") != ok {
				t.Fatalf("net override ok = %v, want %v", ok, tc.net != "")
			}
			if ok && !got.Equal(dec(tc.net)) {
				t.Errorf("net override = %s, want %s", got, tc.net)
			}
			got, ok = ParseSylvieOverride(tc.notes)
			if (tc.sylvie != "") != ok {
				t.Fatalf("sylvie override ok = %v, want %v", ok, tc.sylvie != "")
			}
			if ok && !got.Equal(dec(tc.sylvie)) {
				t.Errorf("sylvie override = %s, want %s", got, tc.sylvie)
			}
		})
	}
}
