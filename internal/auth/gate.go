package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// CookieName carries the session role. The value is the plain role name;
// httpOnly + Secure are the only integrity controls, which is acceptable
// because the role space carries no per-user distinction. The token format is
// isolated behind Gate so it can be swapped without touching call sites.
const CookieName = "bj_role"

// cookieMaxAge is the session lifetime: 30 days.
const cookieMaxAge = 60 * 60 * 24 * 30

// Decision is the navigational outcome of a route check. Denials are
// redirects, never 4xx faults.
type Decision int

const (
	DecisionAllow Decision = iota
	// DecisionLoginRedirect sends an unauthenticated caller to /login.
	DecisionLoginRedirect
	// DecisionHomeRedirect sends a resolved-but-disallowed role home.
	DecisionHomeRedirect
)

// Paths reachable without a session.
var publicPrefixes = []string{
	"/login",
	"/api/login",
	"/static/",
	"/healthz",
	"/readyz",
	"/favicon",
}

// Sylvie is denied anything under Fred's ledger.
var sylvieBlockedPrefixes = []string{"/fredledger"}

// Gate resolves roles from requests and decides route access.
type Gate struct {
	secrets Secrets
	// secure marks issued cookies Secure (production transport).
	secure bool
}

func NewGate(secrets Secrets, secureCookies bool) *Gate {
	return &Gate{secrets: secrets, secure: secureCookies}
}

// Open reports whether the gate runs in open mode (no secrets configured).
func (g *Gate) Open() bool { return !g.secrets.Enabled() }

// Resolve matches a submitted PIN against the configured secrets.
func (g *Gate) Resolve(pin string) Role { return ResolveRole(pin, g.secrets) }

// IssueSession builds the role session cookie.
func (g *Gate) IssueSession(role Role) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    string(role),
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// RevokeSession builds an immediately-expiring cookie. A revoked session is
// indistinguishable from a never-authenticated caller.
func (g *Gate) RevokeSession() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// RoleFromRequest reads the session cookie. Unknown or missing values yield
// RoleNone. In open mode every request is treated as admin so views render
// in full.
func (g *Gate) RoleFromRequest(r *http.Request) Role {
	if g.Open() {
		return RoleAdmin
	}
	c, err := r.Cookie(CookieName)
	if err != nil {
		return RoleNone
	}
	role := Role(c.Value)
	if !role.Known() {
		return RoleNone
	}
	return role
}

// Check classifies a path for a role. Default-allow for any resolved role,
// with one explicit deny: Sylvie on Fred's ledger paths.
func (g *Gate) Check(role Role, path string) Decision {
	if g.Open() {
		return DecisionAllow
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return DecisionAllow
		}
	}
	if !role.Known() {
		return DecisionLoginRedirect
	}
	if role == RoleSylvie {
		for _, p := range sylvieBlockedPrefixes {
			if strings.HasPrefix(path, p) {
				return DecisionHomeRedirect
			}
		}
	}
	return DecisionAllow
}

type contextKey struct{}

// WithRole stores the resolved role in the request context. Handlers read it
// once and pass it explicitly into settlement calls; nothing downstream does
// an ambient lookup.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, contextKey{}, role)
}

// RoleFrom returns the role stored by the middleware, or RoleNone.
func RoleFrom(ctx context.Context) Role {
	if r, ok := ctx.Value(contextKey{}).(Role); ok {
		return r
	}
	return RoleNone
}

// Middleware resolves the role, enforces the route decision and threads the
// role through the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role := g.RoleFromRequest(r)
		switch g.Check(role, r.URL.Path) {
		case DecisionLoginRedirect:
			slog.InfoContext(r.Context(), "Redirecting to login",
				"path", r.URL.Path)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		case DecisionHomeRedirect:
			slog.InfoContext(r.Context(), "Blocked route for role",
				"role", string(role),
				"path", r.URL.Path)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
	})
}
