package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Djeyff/bamboojam-os/internal/auth"
	"github.com/Djeyff/bamboojam-os/internal/core"
	"github.com/Djeyff/bamboojam-os/internal/entries"
	"github.com/Djeyff/bamboojam-os/internal/store/memory"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	mem := memory.New()
	mem.Seed(
		[]core.Period{
			{
				Name:          "Oct-Nov 2025",
				Status:        core.StatusPaid,
				StartDate:     time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
				EndDate:       time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
				TotalRevenue:  decimal.NewFromInt(100000),
				TotalExpenses: decimal.NewFromInt(40000),
				Notes:         "",
			},
		},
		[]core.Revenue{
			{
				Description: "Booking payout",
				Amount:      decimal.NewFromInt(100000),
				Date:        time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC),
				Period:      "2025",
			},
		},
		[]core.Expense{
			{
				Description: "Pool service",
				Amount:      decimal.NewFromInt(40000),
				Date:        time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC),
				Category:    "Maintenance",
				Source:      "Operating",
				Period:      "2025",
			},
		},
		map[core.LedgerID][]core.LedgerEntry{
			core.LedgerSylvie: {
				{
					Description: "Oct-Nov share",
					Amount:      decimal.NewFromInt(9000),
					Date:        time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
					Type:        "Credit",
				},
			},
			core.LedgerFred: {
				{
					Description: "Framboyant condo fees",
					Amount:      decimal.NewFromInt(12000),
					Date:        time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC),
					Type:        "Expense",
				},
			},
		},
	)
	return mem
}

func testServer(t *testing.T, secrets auth.Secrets) (*Server, *memory.Store) {
	t.Helper()
	mem := seededStore(t)
	gate := auth.NewGate(secrets, false)
	srv := NewServer(":0", gate, Readers{
		Periods:  mem,
		Revenues: mem,
		Expenses: mem,
		Ledgers:  mem,
	}, entries.NewDirectSink(mem))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, mem
}

var testSecrets = auth.Secrets{Admin: "1111", Fred: "2222", Sylvie: "3333"}

func doRequest(srv *Server, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func roleCookie(role string) *http.Cookie {
	return &http.Cookie{Name: auth.CookieName, Value: role}
}

func TestLoginIssuesCookie(t *testing.T) {
	srv, _ := testServer(t, testSecrets)

	rec := doRequest(srv, http.MethodPost, "/api/login", `{"pin":"2222"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["role"] != "fred" {
		t.Errorf("role = %q, want fred", resp["role"])
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != auth.CookieName || c.Value != "fred" {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly {
		t.Error("cookie should be httpOnly")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.MaxAge != 60*60*24*30 {
		t.Errorf("MaxAge = %d, want 30 days", c.MaxAge)
	}
}

func TestLoginRejectsBadPIN(t *testing.T) {
	srv, _ := testServer(t, testSecrets)

	rec := doRequest(srv, http.MethodPost, "/api/login", `{"pin":"9999"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("rejected login should not set a cookie")
	}
}

func TestLogoutRevokesCookie(t *testing.T) {
	srv, _ := testServer(t, testSecrets)

	rec := doRequest(srv, http.MethodDelete, "/api/login", "", roleCookie("admin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Errorf("logout should expire the session cookie, got %+v", cookies)
	}
}

func TestGateRedirects(t *testing.T) {
	srv, _ := testServer(t, testSecrets)

	tests := []struct {
		name     string
		path     string
		cookie   *http.Cookie
		wantCode int
		wantLoc  string
	}{
		{"anonymous dashboard", "/", nil, http.StatusSeeOther, "/login"},
		{"anonymous periods", "/periods", nil, http.StatusSeeOther, "/login"},
		{"garbage cookie", "/", roleCookie("superuser"), http.StatusSeeOther, "/login"},
		{"sylvie blocked from fred ledger", "/fredledger", roleCookie("sylvie"), http.StatusSeeOther, "/"},
		{"sylvie own ledger ok", "/sylvieledger", roleCookie("sylvie"), http.StatusOK, ""},
		{"fred sees fred ledger", "/fredledger", roleCookie("fred"), http.StatusOK, ""},
		{"admin dashboard", "/", roleCookie("admin"), http.StatusOK, ""},
		{"login page is public", "/login", nil, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodGet, tt.path, "", tt.cookie)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantLoc != "" && rec.Header().Get("Location") != tt.wantLoc {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.wantLoc)
			}
		})
	}
}

func TestOpenModeSkipsGate(t *testing.T) {
	srv, _ := testServer(t, auth.Secrets{})

	rec := doRequest(srv, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("open mode dashboard status = %d, want 200", rec.Code)
	}
	rec = doRequest(srv, http.MethodGet, "/fredledger", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("open mode fred ledger status = %d, want 200", rec.Code)
	}
}

func TestDashboardRedaction(t *testing.T) {
	srv, _ := testServer(t, testSecrets)

	// Net 60000: Sylvie 9000, Jeff/Fred 25500 each.
	admin := doRequest(srv, http.MethodGet, "/", "", roleCookie("admin"))
	if admin.Code != http.StatusOK {
		t.Fatalf("admin dashboard status = %d", admin.Code)
	}
	if !strings.Contains(admin.Body.String(), "Fred") {
		t.Error("admin view should mention Fred")
	}
	if !strings.Contains(admin.Body.String(), "RD$25,500") {
		t.Error("admin view should show the partner share")
	}

	sylvie := doRequest(srv, http.MethodGet, "/", "", roleCookie("sylvie"))
	if sylvie.Code != http.StatusOK {
		t.Fatalf("sylvie dashboard status = %d", sylvie.Code)
	}
	if strings.Contains(sylvie.Body.String(), "Fred") {
		t.Error("sylvie view should not mention Fred")
	}
	if !strings.Contains(sylvie.Body.String(), "RD$9,000") {
		t.Error("sylvie view should show her share")
	}
}

func TestCreateEntry(t *testing.T) {
	srv, mem := testServer(t, testSecrets)

	body := `{"type":"revenue","description":"December booking","amount":"45000","date":"2025-12-20"}`
	rec := doRequest(srv, http.MethodPost, "/api/entries", body, roleCookie("admin"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	revs, err := mem.ListRevenues(context.Background())
	if err != nil {
		t.Fatalf("ListRevenues: %v", err)
	}
	found := false
	for _, r := range revs {
		if r.Description == "December booking" {
			found = true
			if r.Period != "2025" {
				t.Errorf("period defaulted to %q, want 2025", r.Period)
			}
		}
	}
	if !found {
		t.Error("created revenue not found in store")
	}
}

func TestCreateEntryRejectsBadInput(t *testing.T) {
	srv, _ := testServer(t, testSecrets)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"bad amount", `{"type":"revenue","description":"x","amount":"abc","date":"2025-12-20"}`, http.StatusBadRequest},
		{"bad date", `{"type":"revenue","description":"x","amount":"10","date":"20/12/2025"}`, http.StatusBadRequest},
		{"unknown type", `{"type":"loan","description":"x","amount":"10","date":"2025-12-20"}`, http.StatusBadRequest},
		{"negative amount", `{"type":"revenue","description":"x","amount":"-10","date":"2025-12-20"}`, http.StatusUnprocessableEntity},
		{"empty description", `{"type":"expense","description":" ","amount":"10","date":"2025-12-20"}`, http.StatusUnprocessableEntity},
		{"description too long", `{"type":"expense","description":"` + strings.Repeat("x", 201) + `","amount":"10","date":"2025-12-20"}`, http.StatusUnprocessableEntity},
		{"bad ledger type", `{"type":"ledger","ledger":"sylvie","description":"x","amount":"10","date":"2025-12-20","entryType":"Settlement"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodPost, "/api/entries", tt.body, roleCookie("admin"))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := testServer(t, testSecrets)

	rec := doRequest(srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}
	rec = doRequest(srv, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("readyz = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv, _ := testServer(t, testSecrets)

	rec := doRequest(srv, http.MethodGet, "/", "", roleCookie("admin"))
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
